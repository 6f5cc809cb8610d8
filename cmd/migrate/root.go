package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/logger"
	"github.com/propscout/propscout-backend/pkg/migrate"
)

// options are shared by every subcommand through persistent flags.
type options struct {
	dir      string
	embedded bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "PropScout database migrations and bootstrap",
		Long:          "migrate applies goose SQL migrations to the PropScout Postgres database and bootstraps admin accounts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	root.PersistentFlags().BoolVar(&opts.embedded, "embedded", false, "use the migrations compiled into the binary instead of --dir")

	root.AddCommand(
		newUpCmd(opts),
		newDownCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(opts),
		newCreateCmd(opts),
		newValidateCmd(opts),
		newAdminCmd(),
	)

	return root
}

// env is the runtime loaded lazily by commands that touch the database.
type env struct {
	cfg  *config.Config
	logg *logger.Logger
	ctx  context.Context
}

func loadEnv(ctx context.Context, command string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": command,
	})
	return &env{cfg: cfg, logg: logg, ctx: ctx}, nil
}

func openSQL(ctx context.Context, dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return sqlDB, nil
}

func (o *options) source() (fs.FS, string) {
	if o.embedded {
		return migrate.Embedded(), "embedded"
	}
	return migrate.Dir(o.dir), o.dir
}

// withRunner loads config, opens Postgres and hands a migration runner to fn.
func withRunner(cmd *cobra.Command, opts *options, fn func(e *env, r *migrate.Runner) error) error {
	e, err := loadEnv(cmd.Context(), cmd.Name())
	if err != nil {
		return err
	}
	sqlDB, err := openSQL(e.ctx, e.cfg.DB.DSN)
	if err != nil {
		e.logg.Error(e.ctx, "database unreachable", err)
		return err
	}
	defer sqlDB.Close()

	src, label := opts.source()
	runner, err := migrate.NewRunner(sqlDB, src)
	if err != nil {
		return err
	}
	e.ctx = e.logg.WithField(e.ctx, "source", label)
	return fn(e, runner)
}

func printResults(w io.Writer, results []*goose.MigrationResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no migrations to run")
		return
	}
	for _, res := range results {
		fmt.Fprintf(w, "%-4s %s (%s)\n", res.Direction, filepath.Base(res.Source.Path), res.Duration.Round(time.Millisecond))
	}
}

func newUpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRunner(cmd, opts, func(e *env, r *migrate.Runner) error {
				results, err := r.Up(e.ctx)
				printResults(cmd.OutOrStdout(), results)
				return err
			})
		},
	}
}

func newDownCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRunner(cmd, opts, func(e *env, r *migrate.Runner) error {
				results, err := r.Down(e.ctx)
				printResults(cmd.OutOrStdout(), results)
				return err
			})
		},
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the applied state of every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRunner(cmd, opts, func(e *env, r *migrate.Runner) error {
				statuses, err := r.Status(e.ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, st := range statuses {
					applied := "pending"
					if st.State == goose.StateApplied {
						applied = st.AppliedAt.UTC().Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%-25s %s\n", applied, filepath.Base(st.Source.Path))
				}
				return nil
			})
		},
	}
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version <YYYYMMDDHHMMSS>",
		Short: "Migrate up or down to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, opts, func(e *env, r *migrate.Runner) error {
				results, err := r.To(e.ctx, args[0])
				printResults(cmd.OutOrStdout(), results)
				return err
			})
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new timestamped SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(opts.dir, args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created migration:", path)
			return nil
		},
	}
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check migration filenames and goose annotations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, label := opts.source()
			if err := migrate.Validate(src); err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
			return nil
		},
	}
}
