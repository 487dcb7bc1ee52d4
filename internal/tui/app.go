// Package tui is the interactive chat front end. It is a thin shim:
// all conversation logic lives in core; this package only collects
// input and renders results.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/lassoai/lasso-cli/internal/agent"
	"github.com/lassoai/lasso-cli/internal/core"
)

// resultMsg delivers a completed turn to the update loop.
type resultMsg struct {
	result agent.Result
	meta   agent.Meta
}

type model struct {
	viewport   viewport.Model
	textarea   textarea.Model
	spinner    spinner.Model
	md         *glamour.TermRenderer
	transcript []string

	orchestrator *core.Orchestrator
	sessionID    string

	querying bool
	ready    bool
	width    int
	height   int
}

// Run starts the interactive chat UI.
func Run(o *core.Orchestrator) error {
	ta := textarea.New()
	ta.Placeholder = "Describe who you're looking for…"
	ta.Focus()
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	md, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	m := model{
		textarea:     ta,
		spinner:      sp,
		md:           md,
		orchestrator: o,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)
	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputHeight := m.textarea.Height() + 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		m.textarea.SetWidth(msg.Width - 2)
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.querying {
				break
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				break
			}
			m.textarea.Reset()
			return m.submit(input)
		}

	case resultMsg:
		m.querying = false
		if msg.result != nil {
			if id := sessionOf(msg.result); id != "" {
				m.sessionID = id
			}
			m.transcript = append(m.transcript,
				aiPromptStyle.Render("lasso: ")+"\n"+RenderResult(msg.result, m.width, m.md),
				dimStyle.Render(fmt.Sprintf("%dms · %d tokens", msg.meta.DurationMs, msg.meta.TokensUsed)),
			)
		}
		m.refresh()

	case spinner.TickMsg:
		if m.querying {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, tea.Batch(taCmd, vpCmd, spCmd)
		}
	}

	return m, tea.Batch(taCmd, vpCmd)
}

// submit dispatches user input: /detail N runs the derived detail
// operation, anything else is a query turn.
func (m model) submit(input string) (tea.Model, tea.Cmd) {
	m.transcript = append(m.transcript, userPromptStyle.Render("you: ")+input)
	m.querying = true
	m.refresh()

	o := m.orchestrator
	sessionID := m.sessionID

	run := func() tea.Msg {
		result, meta := o.Query(context.Background(), input, sessionID)
		return resultMsg{result: result, meta: meta}
	}
	if n, ok := parseDetailCommand(input); ok {
		run = func() tea.Msg {
			result, meta := o.GetDetail(context.Background(), sessionID, n)
			return resultMsg{result: result, meta: meta}
		}
	}

	return m, tea.Batch(m.spinner.Tick, run)
}

func (m *model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.ready {
		return "loading…"
	}
	status := dimStyle.Render("Enter to send · /detail N · Esc to quit")
	if m.querying {
		status = m.spinner.View() + " searching…"
	}
	return m.viewport.View() + "\n" + status + "\n" + m.textarea.View()
}

// parseDetailCommand recognizes "/detail N".
func parseDetailCommand(input string) (int, bool) {
	rest, ok := strings.CutPrefix(input, "/detail")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return n, true
}

func sessionOf(result agent.Result) string {
	switch r := result.(type) {
	case agent.SearchResult:
		return r.SessionID
	case agent.DetailResult:
		return r.SessionID
	case agent.ErrorResult:
		return r.SessionID
	}
	return ""
}
