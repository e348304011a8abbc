package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/appclacks/mtbi/pkg/scheduler"
	"github.com/spf13/cobra"
)

func buildScheduleCmd() *cobra.Command {
	var at string
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Runs the update every day at the given time, until stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, func(logger *slog.Logger) error {
				return runSchedule(logger, at)
			})
		},
	}
	scheduleCmd.Flags().StringVar(&at, "at", "", "Time of day of the daily update (HH:MM)")
	_ = scheduleCmd.MarkFlagRequired("at")
	return scheduleCmd
}

func runSchedule(logger *slog.Logger, at string) error {
	timeOfDay, err := scheduler.ParseTimeOfDay(at)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := buildApp(ctx, logger, true)
	if err != nil {
		return err
	}
	defer a.close()
	slice, err := a.config.SchedulerSlice()
	if err != nil {
		return err
	}
	location, err := a.config.Location()
	if err != nil {
		return err
	}
	job := func(ctx context.Context) error {
		return a.execute(ctx, func(ctx context.Context) error {
			return a.service.Update(ctx, a.service.Today())
		})
	}
	s, err := scheduler.New(logger, timeOfDay, location, slice, job, a.registry)
	if err != nil {
		return err
	}
	signals := make(chan os.Signal, 1)
	signal.Notify(
		signals,
		syscall.SIGINT,
		syscall.SIGTERM)

	s.Start(ctx)
	sig := <-signals
	logger.Info(fmt.Sprintf("received signal %s, starting shutdown", sig))
	signal.Stop(signals)
	cancel()
	s.Stop()
	return nil
}
