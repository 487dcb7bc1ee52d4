package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lassoai/lasso-cli/internal/config"
	"github.com/lassoai/lasso-cli/internal/message"
	"github.com/lassoai/lasso-cli/internal/session"
)

var (
	sessionsPage    int
	sessionsPerPage int
)

func init() {
	sessionsListCmd.Flags().IntVar(&sessionsPage, "page", 1, "Page number")
	sessionsListCmd.Flags().IntVar(&sessionsPerPage, "per-page", 20, "Sessions per page")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect saved conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := mustBuildApp()

		if app.cfg.SessionMode == config.SessionRemote {
			listRemoteSessions(app)
			return
		}
		listLocalSessions()
	},
}

func listRemoteSessions(app *app) {
	ctx := context.Background()
	token, err := app.creds.GetValidToken(ctx)
	if err != nil {
		authFail(err)
	}

	infos, err := app.client.ListSessions(ctx, token, sessionsPage, sessionsPerPage)
	if err != nil {
		authFail(err)
	}
	if len(infos) == 0 {
		fmt.Println("No sessions.")
		return
	}
	for _, info := range infos {
		line := info.ID
		if info.Title != "" {
			line += "  " + info.Title
		}
		line += fmt.Sprintf("  (%d messages)", info.MessageCount)
		if info.UpdatedAt != "" {
			line += "  " + info.UpdatedAt
		}
		fmt.Println(line)
	}
}

func listLocalSessions() {
	store, err := session.NewStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ids, err := store.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(ids) == 0 {
		fmt.Println("No sessions.")
		return
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the transcript of a saved session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := session.NewStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		s, err := store.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("session %s (%d messages)\n\n", s.ID, len(s.Messages))
		for _, msg := range s.Messages {
			text := msg.Text()
			if text == "" {
				continue
			}
			switch msg.Role {
			case message.RoleUser:
				fmt.Printf("you: %s\n", text)
			case message.RoleAssistant:
				fmt.Printf("lasso: %s\n", text)
			default:
				fmt.Printf("%s: %s\n", msg.Role, text)
			}
		}
	},
}
