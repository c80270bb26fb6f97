// Package cli implements the suckyear command-line client.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/suckyear/suckyear/internal/config"
	"github.com/suckyear/suckyear/internal/logging"
	"github.com/suckyear/suckyear/internal/prefs"
	"github.com/suckyear/suckyear/internal/store"
	"github.com/suckyear/suckyear/pkg/api"
)

var (
	flagAPI       string
	flagDB        string
	flagConfig    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	cfg       *config.Config
	logger    *slog.Logger
	client    *api.Client
	db        store.Store
	userPrefs *prefs.Prefs
)

// NewRootCmd creates the root cobra command for the suckyear CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "suckyear",
		Short: "SuckYear: stories of failure, from the terminal",
		Long:  "suckyear browses, searches and publishes posts on a SuckYear backend.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if db != nil {
				db.Close()
				db = nil
			}
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagAPI, "api", "", "Backend URL (or "+api.EnvBaseURL+" env)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "Preference database path (default ~/.suckyear/suckyear.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newRegisterCmd(),
		newWhoamiCmd(),
		newPostsCmd(),
		newProfileCmd(),
		newThemeCmd(),
	)

	return root
}

// setup builds the configuration, logger, store, preferences and API client
// shared by every command. Flags win over the config file and environment.
func setup(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAPI != "" {
		cfg.API.BaseURL = flagAPI
	}
	if flagDB != "" {
		cfg.Store.Path = flagDB
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Log.Format = flagLogFormat
	}
	if flagDebug {
		cfg.Log.Level = "debug"
	}

	logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.NewSQLiteStore(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return fmt.Errorf("migrate store: %w", err)
	}
	db = st

	userPrefs = prefs.New(st, prefs.LocalScope)
	if err := userPrefs.Load(ctx); err != nil {
		return err
	}

	client = api.NewClient(cfg.ClientConfig(), logger)
	return nil
}

// requireToken returns the stored access token, dropping it when it has
// expired.
func requireToken(ctx context.Context) (string, error) {
	token := userPrefs.Token()
	if token == "" {
		return "", fmt.Errorf("not logged in (run `suckyear login`)")
	}
	if info, err := api.ParseAccessToken(token); err == nil && info.Expired() {
		if err := userPrefs.ClearToken(ctx); err != nil {
			logger.Warn("clear expired token", "error", err)
		}
		return "", fmt.Errorf("session expired (run `suckyear login`)")
	}
	return token, nil
}
