package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	er "github.com/mcorbin/corbierror"
	"github.com/spf13/cobra"
)

func buildBackfillCmd() *cobra.Command {
	var days int
	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Computes the last N days and replaces the series with them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, func(logger *slog.Logger) error {
				if days < 1 {
					return er.Newf("invalid number of days %d, it should be greater than 0", er.BadRequest, true, days)
				}
				return runBatch(logger, true, func(ctx context.Context, a *app) error {
					return a.service.Backfill(ctx, a.service.Today(), days)
				})
			})
		},
	}
	backfillCmd.Flags().IntVarP(&days, "days", "d", 0, "Number of days to compute, ending two days ago")
	_ = backfillCmd.MarkFlagRequired("days")
	return backfillCmd
}

func buildUpdateCmd() *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Computes the day before yesterday and merges it in the series",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, func(logger *slog.Logger) error {
				return runBatch(logger, true, func(ctx context.Context, a *app) error {
					return a.service.Update(ctx, a.service.Today())
				})
			})
		},
	}
	return updateCmd
}

func buildRebuildCmd() *cobra.Command {
	rebuildCmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Re-applies the lag policy on the stored series and recomputes the rollups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, func(logger *slog.Logger) error {
				return runBatch(logger, false, func(ctx context.Context, a *app) error {
					return a.service.Rebuild(ctx, a.service.Today())
				})
			})
		},
	}
	return rebuildCmd
}

func runBatch(logger *slog.Logger, withProvider bool, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a, err := buildApp(ctx, logger, withProvider)
	if err != nil {
		return err
	}
	defer a.close()
	return a.execute(ctx, func(ctx context.Context) error {
		return fn(ctx, a)
	})
}
