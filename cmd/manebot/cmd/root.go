package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manebot/manebot/internal/bot"
	"github.com/manebot/manebot/internal/store"
	"github.com/manebot/manebot/pkg/core/config"
	"github.com/manebot/manebot/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "manebot",
	Short: "manebot - chat bot framework",
	Long: `manebot is a chat bot framework with chained commands, a search
query language, users, groups, bans and permissions kept in SQLite.

Platforms:
  console   - reads commands from standard input
  websocket - one chat per websocket connection`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $MANEBOT_CONFIG or ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}

// loadConfig reads --config, or the environment and default locations
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.General.LogLevel = "debug"
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	logging.Configure(logging.LoggerConfig{
		ServiceName: cfg.General.Name,
		Level:       cfg.General.LogLevel,
		Format:      cfg.Logging.Format,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
		Compress:    cfg.Logging.Compress,
		Console:     os.Stderr,
	})
}

// openBot loads configuration, sets up logging and opens the store. The
// returned cleanup closes the store and the log files.
func openBot() (*bot.Bot, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	setupLogging(cfg)

	s, err := store.Open(store.Config{
		Path:          cfg.Database.Path,
		BusyTimeout:   cfg.Database.BusyTimeout.Duration,
		PermissionTTL: cfg.Database.PermissionCacheTTL.Duration,
	})
	if err != nil {
		logging.Close()
		return nil, nil, nil, err
	}

	b, err := bot.New(bot.Options{Config: cfg, Store: s})
	if err != nil {
		s.Close()
		logging.Close()
		return nil, nil, nil, err
	}

	cleanup := func() {
		if err := s.Close(); err != nil {
			printError("closing store", err)
		}
		logging.Close()
	}
	return b, cfg, cleanup, nil
}
