package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lassoai/lasso-cli/internal/agent"
	"github.com/lassoai/lasso-cli/internal/api"
	"github.com/lassoai/lasso-cli/internal/auth"
	"github.com/lassoai/lasso-cli/internal/config"
	"github.com/lassoai/lasso-cli/internal/core"
	"github.com/lassoai/lasso-cli/internal/log"
	"github.com/lassoai/lasso-cli/internal/session"
	"github.com/lassoai/lasso-cli/internal/tui"
)

var version = "0.1.0"

var (
	sessionFlag string
	jsonFlag    bool
	jsonlFlag   bool
)

func init() {
	// Load .env file if it exists (silent fail if not found)
	_ = godotenv.Load()

	// Initialize logging (enabled via LASSO_DEBUG=1)
	_ = log.Init()
}

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lasso [query]",
	Short: "Lasso - conversational people search for the terminal",
	Long: `Lasso finds people through a conversation with the search backend.

Non-interactive mode:
  lasso "staff engineers in Berlin"     One-shot query
  echo "query" | lasso                  Query via stdin
  cat queries.txt | lasso --jsonl       One query per line, JSONL out

Running lasso with no arguments starts the interactive chat UI.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := buildApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(agent.ExitStatus(agent.CodeValidationError))
		}

		if jsonlFlag {
			if err := runJSONL(app, os.Stdin, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		query := getInputQuery(args)
		if query != "" {
			runOneShot(app, query)
			return
		}

		if err := tui.Run(app.orchestrator); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVarP(&sessionFlag, "session", "s", "", "Session id to continue")
	rootCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the result as JSON")
	rootCmd.Flags().BoolVar(&jsonlFlag, "jsonl", false, "Read one query per stdin line, write one JSON result per line")

	rootCmd.AddCommand(versionCmd)
}

// app bundles the wired collaborators behind every command.
type app struct {
	cfg          *config.Config
	client       *api.Client
	creds        *auth.Store
	orchestrator *core.Orchestrator
}

// buildApp wires config, API client, credential store, session manager
// and orchestrator. Construction failures are unrecoverable startup
// conditions.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.BaseURL, cfg.Timeout)
	creds := auth.NewStore(client.RefreshToken)

	sessStore, err := session.NewStore()
	if err != nil {
		// Sessions still work in memory; persistence is best effort.
		log.LogError("session", err)
		sessStore = nil
	}

	var manager *session.Manager
	syncRemote := false
	if cfg.SessionMode == config.SessionRemote {
		manager = session.NewRemoteManager(client, sessStore)
		syncRemote = true
	} else {
		manager = session.NewManager(sessStore)
	}

	return &app{
		cfg:    cfg,
		client: client,
		creds:  creds,
		orchestrator: &core.Orchestrator{
			Auth:       creds,
			Sessions:   manager,
			Backend:    client,
			SyncRemote: syncRemote,
		},
	}, nil
}

// getInputQuery gets the query from args or piped stdin.
func getInputQuery(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err == nil && len(data) > 0 {
			return strings.TrimSpace(string(data))
		}
	}
	return ""
}

// envelope is the JSON output shape for --json and --jsonl.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Meta   agent.Meta      `json:"meta"`
}

func encodeEnvelope(result agent.Result, meta agent.Meta) ([]byte, error) {
	data, err := agent.MarshalResult(result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Result: data, Meta: meta})
}

// runOneShot runs a single query and exits non-zero on an error result.
func runOneShot(app *app, query string) {
	result, meta := app.orchestrator.Query(context.Background(), query, sessionFlag)

	if jsonFlag {
		data, err := encodeEnvelope(result, meta)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	} else {
		md, _ := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		fmt.Println(tui.RenderResult(result, 100, md))
		if id := resultSessionID(result); id != "" {
			fmt.Println(dimNote("session: " + id + " (continue with --session)"))
		}
	}

	if errResult, ok := result.(agent.ErrorResult); ok {
		os.Exit(agent.ExitStatus(errResult.Code))
	}
}

// runJSONL reads one query per line and writes one result envelope per
// line. All lines share one session, so follow-up queries refine
// earlier ones. Per-query failures are emitted as error results, never
// abort the loop.
func runJSONL(app *app, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(w)
	sessionID := sessionFlag

	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		result, meta := app.orchestrator.Query(context.Background(), query, sessionID)
		if id := resultSessionID(result); id != "" {
			sessionID = id
		}
		data, err := encodeEnvelope(result, meta)
		if err != nil {
			return err
		}
		if err := enc.Encode(json.RawMessage(data)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func resultSessionID(result agent.Result) string {
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

func dimNote(s string) string {
	return "\x1b[2m" + s + "\x1b[0m"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lasso version %s\n", version)
	},
}
