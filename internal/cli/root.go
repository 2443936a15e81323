package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entrypoint"
)

// options are the flags shared by every command.
type options struct {
	version string
	dbPath  string
}

// Execute runs the command line with os.Args.
func Execute(version string) error {
	return NewRootCommand(version).Execute()
}

// NewRootCommand builds the bookshelf command tree. Without a subcommand
// it starts the HTTP server.
func NewRootCommand(version string) *cobra.Command {
	opts := &options{version: version}

	rootCmd := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Personal book library with reading sessions and statistics",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(opts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "library database path (overrides DATABASE_PATH)")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newVersionCmd(opts),
		newStatsCmd(opts),
		newSessionCmd(opts),
		newBookCmd(opts),
	)
	return rootCmd
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(opts)
		},
	}
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), opts.version)
			return err
		},
	}
}

func (o *options) config() *config.Config {
	cfg := config.NewConfig()
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	return cfg
}

func runServe(opts *options) error {
	return entrypoint.Run(opts.config(), opts.version)
}

// withServices opens the library database for a one-shot command and
// closes it when fn returns.
func withServices(opts *options, fn func(svc *entrypoint.Services) error) error {
	cfg := opts.config()

	db, err := database.NewQuietDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := entrypoint.NewServices(db, cfg)
	if err != nil {
		return err
	}
	return fn(svc)
}
