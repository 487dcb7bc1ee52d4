package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lassoai/lasso-cli/internal/agent"
	"github.com/lassoai/lasso-cli/internal/api"
	"github.com/lassoai/lasso-cli/internal/auth"
)

func init() {
	loginCmd.AddCommand(loginEmailCmd, loginGoogleCmd, loginWalletCmd)
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the Lasso backend",
	Long:  "Authenticate via email code, Google OAuth, or a wallet signature.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var loginEmailCmd = &cobra.Command{
	Use:   "email <address>",
	Short: "Log in with a one-time code sent by email",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := mustBuildApp()
		email := args[0]
		ctx := context.Background()

		if err := app.client.RequestEmailCode(ctx, email); err != nil {
			authFail(err)
		}
		fmt.Printf("A login code was sent to %s.\n", email)

		code := promptLine("Code: ")
		resp, err := app.client.VerifyEmailCode(ctx, email, code)
		if err != nil {
			authFail(err)
		}

		saveCredentials(app, resp, auth.Credentials{AuthMethod: auth.MethodEmail, Email: email})
	},
}

var loginGoogleCmd = &cobra.Command{
	Use:   "google",
	Short: "Log in with a Google OAuth authorization code",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := mustBuildApp()
		ctx := context.Background()

		fmt.Println("Open the following URL, sign in with Google, and paste the authorization code:")
		fmt.Printf("  %s/auth/google/authorize\n", app.cfg.BaseURL)

		code := promptLine("Authorization code: ")
		resp, err := app.client.ExchangeOAuthCode(ctx, code)
		if err != nil {
			authFail(err)
		}

		saveCredentials(app, resp, auth.Credentials{AuthMethod: auth.MethodGoogle})
	},
}

var loginWalletCmd = &cobra.Command{
	Use:   "wallet <address>",
	Short: "Log in by signing a nonce with a wallet",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := mustBuildApp()
		address := args[0]
		ctx := context.Background()

		nonce, err := app.client.WalletNonce(ctx, address)
		if err != nil {
			authFail(err)
		}
		fmt.Printf("Sign this nonce with the wallet holding %s:\n  %s\n", address, nonce)

		signature := promptLine("Signature: ")
		resp, err := app.client.VerifyWallet(ctx, address, nonce, signature)
		if err != nil {
			authFail(err)
		}

		saveCredentials(app, resp, auth.Credentials{AuthMethod: auth.MethodWallet, Address: address})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := mustBuildApp()
		if err := app.creds.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to clear credentials: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Logged out.")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current authentication state",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := mustBuildApp()
		creds, err := app.creds.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if creds == nil {
			fmt.Println("Not logged in. Run `lasso login` to authenticate.")
			os.Exit(agent.ExitStatus(agent.CodeAuthError))
		}

		fmt.Printf("Logged in via %s", creds.AuthMethod)
		switch {
		case creds.Email != "":
			fmt.Printf(" as %s", creds.Email)
		case creds.Address != "":
			fmt.Printf(" as %s", creds.Address)
		}
		fmt.Println()
		fmt.Printf("Credential storage: %s\n", app.creds.BackendName())
		if auth.IsExpired(creds.EffectiveExpiry()) {
			fmt.Println("Token: expired (will refresh on next query)")
		} else {
			fmt.Println("Token: valid")
		}
	},
}

// saveCredentials merges the auth response into the identity fields the
// flow collected, persists, and reports where the token landed.
func saveCredentials(app *app, resp *api.AuthResponse, creds auth.Credentials) {
	creds.Token = resp.Auth.Token
	creds.ExpiresAt = resp.Auth.ExpiresAt
	if err := app.creds.Save(creds); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to store credentials: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Logged in. Credentials stored in %s.\n", app.creds.BackendName())
}

func promptLine(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(os.Stderr, "Error: no input")
		os.Exit(1)
	}
	return strings.TrimSpace(line)
}

func authFail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(agent.ExitStatus(agent.Classify(err.Error())))
}

func mustBuildApp() *app {
	a, err := buildApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return a
}
