package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vadim/neo-studio/internal/domain/plateforme/entity"
)

var (
	loginEmail    string
	loginPassword string
)

// loginCmd opens a session and prints the tokens to export
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print the session tokens as environment exports",
	Long: `Log in to the backend and print the tokens as shell exports:

  eval "$(studio login --email me@example.com)"

The password is read from --password or BACKEND_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// connectionsCmd shows platform connection statuses
var connectionsCmd = &cobra.Command{
	Use:   "connections [platform...]",
	Short: "Show connection and token status per platform",
	Long: `Show whether each platform is connected and how long its token stays valid.

Without arguments the platforms listed in DASHBOARD_PLATFORMS are shown.`,
	RunE: runConnections,
}

// searchCmd runs the list filter on any entity family
var searchCmd = &cobra.Command{
	Use:   "search <resource> [query]",
	Short: "Search projets, templates, prompts, modelIA, utilisateurs, historiques or contenus",
	Long: `Search an entity family with a case-insensitive substring match.

Results are always printed as JSON.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSearch,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (or set BACKEND_EMAIL env)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (or set BACKEND_PASSWORD env)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	env, err := loadEnv(cliNotifier{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	email := loginEmail
	if email == "" {
		email = env.cfg.Backend.Email
	}
	password := loginPassword
	if password == "" {
		password = env.cfg.Backend.Password
	}
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	user, err := env.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	session := env.client.Session()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "export BACKEND_ACCESS_TOKEN=%s\n", session.AccessToken())
	if rt := session.RefreshToken(); rt != "" {
		fmt.Fprintf(out, "export BACKEND_REFRESH_TOKEN=%s\n", rt)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Connecté en tant que %s\n", user.Email)
	return nil
}

func runConnections(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	env, err := newEnv(ctx, cliNotifier{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = env.cfg.Dashboard.Platforms
	}

	statuses, err := env.plateformes.Statuses(ctx, names)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), statuses)
	}
	return printStatuses(cmd, statuses)
}

func printStatuses(cmd *cobra.Command, statuses []entity.Status) error {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{
			s.Platform,
			yesNo(s.Connected),
			yesNo(s.TokenValid),
			s.Remaining,
			s.Username,
		})
	}
	return printTable(cmd.OutOrStdout(), []string{"PLATEFORME", "CONNECTE", "TOKEN VALIDE", "RESTANT", "COMPTE"}, rows)
}

func yesNo(b bool) string {
	if b {
		return "oui"
	}
	return "non"
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	env, err := newEnv(ctx, cliNotifier{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	query := ""
	if len(args) == 2 {
		query = args[1]
	}

	results, err := env.resources.Search(ctx, args[0], query)
	if err != nil {
		return fmt.Errorf("%w (known: %s)", err, strings.Join(env.resources.Names(), ", "))
	}
	return printJSON(cmd.OutOrStdout(), results)
}
