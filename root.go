package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/web-casa/topoviz/internal/config"
	"github.com/web-casa/topoviz/internal/database"
	"github.com/web-casa/topoviz/internal/logging"
	"gorm.io/gorm"
)

// app is the state shared by every subcommand once the root command has
// resolved configuration
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "topoviz",
		Short:         "Server, stack and service topology visualizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./config.yaml or <data-dir>/config.yaml)")
	flags.String("data-dir", "./data", "data directory")
	flags.String("db-path", "", "SQLite database path (default <data-dir>/topoviz.db)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	bindFlags(a.v, flags.Lookup, "data-dir", "db-path", "log-level", "log-format")

	root.AddCommand(
		newServeCommand(a),
		newImportCommand(a),
		newLintCommand(),
		newMigrateCommand(a),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	if cmd.Annotations["skip-config"] == "true" {
		a.logger = logging.New(cmd.ErrOrStderr(), "info", "text")
		return nil
	}

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return nil
}

func (a *app) openDB() (*gorm.DB, error) {
	return database.Open(a.cfg.DBPath, a.logger)
}
