package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/lassoai/lasso-cli/internal/agent"
)

// RenderResult formats an AgentResult for terminal display. Shared by
// the TUI transcript and the one-shot CLI.
func RenderResult(result agent.Result, width int, md *glamour.TermRenderer) string {
	if width <= 0 {
		width = 80
	}

	switch r := result.(type) {
	case agent.SearchResult:
		return renderSearch(r, width, md)
	case agent.DetailResult:
		return renderDetail(r, md)
	case agent.ErrorResult:
		msg := r.Message
		if r.Code != "" {
			msg = fmt.Sprintf("[%s] %s", r.Code, msg)
		}
		return errorStyle.Render(msg)
	default:
		return ""
	}
}

func renderSearch(r agent.SearchResult, width int, md *glamour.TermRenderer) string {
	var sb strings.Builder

	if r.Summary != "" {
		sb.WriteString(renderMarkdown(r.Summary, md))
		sb.WriteString("\n")
	}

	if len(r.Profiles) == 0 {
		return strings.TrimRight(sb.String(), "\n")
	}

	sb.WriteString(headerStyle.Render(fmt.Sprintf("%d of %d matches", len(r.Profiles), r.TotalMatches)))
	sb.WriteString("\n")
	for i, p := range r.Profiles {
		line := fmt.Sprintf("%2d. %s", i+1, profileNameStyle.Render(p.Name))
		if p.Headline != "" {
			line += dimStyle.Render("  " + runewidth.Truncate(p.Headline, width-runewidth.StringWidth(p.Name)-12, "…"))
		}
		sb.WriteString(line + "\n")
		if p.Location != "" || len(p.Skills) > 0 {
			meta := p.Location
			if len(p.Skills) > 0 {
				if meta != "" {
					meta += " · "
				}
				meta += strings.Join(p.Skills, ", ")
			}
			sb.WriteString(dimStyle.Render("    "+runewidth.Truncate(meta, width-4, "…")) + "\n")
		}
	}
	sb.WriteString(dimStyle.Render("Use /detail N for a full profile"))
	return sb.String()
}

func renderDetail(r agent.DetailResult, md *glamour.TermRenderer) string {
	var sb strings.Builder
	p := r.Profile

	sb.WriteString(profileNameStyle.Render(p.Name))
	if p.Headline != "" {
		sb.WriteString(" — " + p.Headline)
	}
	sb.WriteString("\n")
	if p.Location != "" {
		sb.WriteString(dimStyle.Render(p.Location) + "\n")
	}
	if p.About != "" {
		sb.WriteString(renderMarkdown(p.About, md))
	}
	for _, exp := range p.Experience {
		line := fmt.Sprintf("• %s, %s", exp.Title, exp.Company)
		if exp.Period != "" {
			line += dimStyle.Render(" (" + exp.Period + ")")
		}
		sb.WriteString(line + "\n")
	}
	if p.Contact != "" {
		sb.WriteString(dimStyle.Render("Contact: "+p.Contact) + "\n")
	}
	for label, url := range p.Links {
		sb.WriteString(dimStyle.Render(label+": "+url) + "\n")
	}
	if r.Summary != "" {
		sb.WriteString("\n" + renderMarkdown(r.Summary, md))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderMarkdown(text string, md *glamour.TermRenderer) string {
	if md == nil {
		return text + "\n"
	}
	out, err := md.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}
