package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/leafyhealth/accounting-management/internal/app"
	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/internal/logger"
	"github.com/leafyhealth/accounting-management/internal/migration"
	"github.com/leafyhealth/accounting-management/internal/seeder"
	"github.com/leafyhealth/accounting-management/internal/service/report"
)

// NewRootCommand builds the root accounting CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "accounting",
		Short:         "LeafyHealth accounting management service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newReportCmd())

	return root
}

// Execute runs the accounting CLI.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run", "serve"},
		Short:   "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.Module)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				version, err := mig.Version(ctx)
				if err != nil {
					return err
				}
				states, err := mig.Status(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "schema version %d\n", version)
				for _, st := range states {
					applied := "pending"
					if st.Applied {
						applied = st.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(out, "%05d  %-32s  %s\n", st.Version, st.File, applied)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(upCmd, downCmd, statusCmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the default chart of accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Core, seeder.Module, fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				created, err := seed.Accounts(ctx, seeder.DefaultChart)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seed data applied (%d accounts created)\n", created)
				return nil
			})
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Consume domain events into the audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.Worker)
		},
	})
	return cmd
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print financial reports as JSON",
	}

	withReports := func(cmd *cobra.Command, fn func(context.Context, *report.Service) (any, error)) error {
		var svc *report.Service
		opts := fx.Options(app.Core, fx.Populate(&svc))
		return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
			out, err := fn(ctx, svc)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		})
	}

	profitLoss := &cobra.Command{
		Use:   "profit-loss",
		Short: "Revenue, expenses and margin over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := rangeFlags(cmd)
			if err != nil {
				return err
			}
			return withReports(cmd, func(ctx context.Context, svc *report.Service) (any, error) {
				return svc.ProfitLoss(ctx, q)
			})
		},
	}
	addRangeFlags(profitLoss)

	balanceSheet := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Assets, liabilities and equity as of a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := dateFlag(cmd, "as-of")
			if err != nil {
				return err
			}
			return withReports(cmd, func(ctx context.Context, svc *report.Service) (any, error) {
				return svc.BalanceSheet(ctx, dto.BalanceSheetQuery{AsOf: asOf})
			})
		},
	}
	balanceSheet.Flags().String("as-of", "", "Cut-off date (YYYY-MM-DD)")

	expenseSummary := &cobra.Command{
		Use:   "expense-summary",
		Short: "Expense totals per category over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := rangeFlags(cmd)
			if err != nil {
				return err
			}
			return withReports(cmd, func(ctx context.Context, svc *report.Service) (any, error) {
				return svc.ExpenseSummary(ctx, q)
			})
		},
	}
	addRangeFlags(expenseSummary)

	cmd.AddCommand(profitLoss, balanceSheet, expenseSummary)
	return cmd
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "End date, inclusive (YYYY-MM-DD)")
}

func rangeFlags(cmd *cobra.Command) (dto.RangeQuery, error) {
	from, err := dateFlag(cmd, "from")
	if err != nil {
		return dto.RangeQuery{}, err
	}
	to, err := dateFlag(cmd, "to")
	if err != nil {
		return dto.RangeQuery{}, err
	}
	return dto.RangeQuery{From: from, To: to}, nil
}

func dateFlag(cmd *cobra.Command, name string) (*dto.Date, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	d, err := dto.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}

func runUntilDone(ctx context.Context, opts fx.Option) error {
	application := fx.New(opts, fx.WithLogger(logger.FxEvents))
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
