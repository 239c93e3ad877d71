package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vadim/neo-studio/internal/config"
	plateformepolicy "github.com/vadim/neo-studio/internal/domain/plateforme/policy"
	plateformeservice "github.com/vadim/neo-studio/internal/domain/plateforme/service"
	"github.com/vadim/neo-studio/internal/domain/publication/policy"
	"github.com/vadim/neo-studio/internal/domain/publication/selector"
	"github.com/vadim/neo-studio/internal/domain/publication/service"
	"github.com/vadim/neo-studio/internal/domain/resource"
	"github.com/vadim/neo-studio/internal/httpx/upstream/backend"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
	baseURL    string
	timeout    time.Duration

	// Logger
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "studio - manage social publications from the terminal",
	Long: `studio talks to the content backend the same way the web dashboard does.

Credentials come from the environment (BACKEND_ACCESS_TOKEN, or
BACKEND_EMAIL and BACKEND_PASSWORD for an automatic login). A .env file in
the current directory is read when present.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Backend base URL (or set BACKEND_BASE_URL env)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")

	// Publication subcommands
	publicationsCmd.AddCommand(publicationsListCmd)
	publicationsCmd.AddCommand(publicationsViewCmd)
	publicationsCmd.AddCommand(publicationsStatsCmd)
	publicationsCmd.AddCommand(publicationsUpcomingCmd)
	publicationsCmd.AddCommand(publicationsAttentionCmd)
	publicationsCmd.AddCommand(publicationsCreateCmd)
	publicationsCmd.AddCommand(publicationsPublishCmd)
	publicationsCmd.AddCommand(publicationsScheduleCmd)
	publicationsCmd.AddCommand(publicationsCancelCmd)
	publicationsCmd.AddCommand(publicationsDeleteCmd)

	// Add commands to root
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(publicationsCmd)
	rootCmd.AddCommand(connectionsCmd)
	rootCmd.AddCommand(searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// studioEnv holds the clients and policies shared by all commands
type studioEnv struct {
	cfg          config.Config
	client       *backend.Client
	publications *policy.Policy
	plateformes  *plateformepolicy.Policy
	resources    *resource.Set
}

// newEnv builds the environment and logs in with the configured account
// when no access token was provided
func newEnv(ctx context.Context, notifier policy.Notifier) (*studioEnv, error) {
	env, err := loadEnv(notifier)
	if err != nil {
		return nil, err
	}

	cfg := env.cfg
	if env.client.Session().AccessToken() == "" && cfg.Backend.Email != "" {
		if _, err := env.client.Login(ctx, cfg.Backend.Email, cfg.Backend.Password); err != nil {
			return nil, fmt.Errorf("logging in as %s: %w", cfg.Backend.Email, err)
		}
		logger.Debug("logged in to backend", "email", cfg.Backend.Email)
	}
	return env, nil
}

// loadEnv loads configuration and builds the backend client and policies.
// notifier receives the outcome of every mutation.
func loadEnv(notifier policy.Notifier) (*studioEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if baseURL != "" {
		cfg.Backend.BaseURL = baseURL
	}

	session := backend.NewSession(cfg.Backend.AccessToken, cfg.Backend.RefreshToken)
	client := backend.New(
		backend.WithBaseURL(cfg.Backend.BaseURL),
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithSession(session),
		backend.WithLogger(logger),
	)

	return &studioEnv{
		cfg:    cfg,
		client: client,
		publications: policy.New(service.New(client), notifier, policy.Options{
			StaleTime: cfg.Cache.StaleTime,
			View: selector.Options{
				UpcomingWindow: cfg.Dashboard.UpcomingWindow,
				UpcomingLimit:  cfg.Dashboard.UpcomingLimit,
			},
			Logger: logger,
		}),
		plateformes: plateformepolicy.New(plateformeservice.New(client), notifier, cfg.Cache.StaleTime, logger),
		resources: resource.NewSet(client, resource.Options{
			StaleTime: cfg.Cache.StaleTime,
			Notifier:  notifier,
			Logger:    logger,
		}),
	}, nil
}

// commandContext returns the operation context bounded by --timeout
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
