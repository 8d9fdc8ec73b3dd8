package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/bookbuddy/internal/config"
	"github.com/mrlokans/bookbuddy/internal/entrypoint"
)

type rootOptions struct {
	envFile string
	dbPath  string
}

// NewRootCommand builds the bookbuddy command tree. Without a subcommand the
// HTTP server is started.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "bookbuddy",
		Short:         "Reading list tracker with a JSON API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnvFile(opts.envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint.Run(opts.config(), version)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path (overrides DATABASE_PATH)")

	root.AddCommand(
		newServeCommand(opts, version),
		newImportCommand(opts),
		newExportCommand(opts),
		newRerankCommand(opts),
		newStatsCommand(opts),
		newTokenCommand(),
	)
	return root
}

func (o *rootOptions) config() *config.Config {
	cfg := config.NewConfig()
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	return cfg
}

// openApp wires the library for one-shot commands. The task queue stays off
// so commands never compete with a running server's workers.
func (o *rootOptions) openApp() (*entrypoint.App, error) {
	cfg := o.config()
	cfg.Tasks.Enabled = false
	return entrypoint.NewApp(cfg)
}

func newServeCommand(opts *rootOptions, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default if no command given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint.Run(opts.config(), version)
			return nil
		},
	}
}
