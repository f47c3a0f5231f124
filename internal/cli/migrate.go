package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tracknow/internal/config"
	"tracknow/internal/repository"
)

// Migrator is the schema control surface the commands drive.
type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context, steps int) error
	Version(ctx context.Context) (int64, error)
}

// OpenFunc connects to the database and returns a migrator plus a release func.
type OpenFunc func(ctx context.Context) (Migrator, func(), error)

// NewRootCommand builds the tracknow-migrate command tree.
func NewRootCommand(open OpenFunc) *cobra.Command {
	if open == nil {
		open = openFromEnv
	}
	root := &cobra.Command{
		Use:           "tracknow-migrate",
		Short:         "Manage the tracknow database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newUpCmd(open), newDownCmd(open), newVersionCmd(open))
	return root
}

// Execute runs the CLI against the database configured in the environment.
func Execute(ctx context.Context) error {
	if err := NewRootCommand(nil).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newUpCmd(open OpenFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, open, func(ctx context.Context, m Migrator) error {
				if err := m.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newDownCmd(open OpenFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps < 1 {
				return fmt.Errorf("steps must be positive, got %d", steps)
			}
			return withMigrator(cmd, open, func(ctx context.Context, m Migrator) error {
				if err := m.Down(ctx, steps); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	cmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	return cmd
}

func newVersionCmd(open OpenFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, open, func(ctx context.Context, m Migrator) error {
				v, err := m.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
				return nil
			})
		},
	}
}

func withMigrator(cmd *cobra.Command, open OpenFunc, fn func(context.Context, Migrator) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	m, release, err := open(ctx)
	if err != nil {
		return err
	}
	if release != nil {
		defer release()
	}
	return fn(ctx, m)
}

func openFromEnv(ctx context.Context) (Migrator, func(), error) {
	cfg, err := config.LoadEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	pool, err := repository.NewPool(ctx, cfg.DB.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	m, err := repository.NewMigrator(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return m, pool.Close, nil
}
