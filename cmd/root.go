package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var configFile string
var logLevel string
var logFormat string

func Run() error {
	return buildRootCmd().Execute()
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mtbi",
		Short: "Computes the mean time between incidents series",
		Long: `Computes the daily mean time between incidents from the data warehouse,
keeps the daily series up to two days ago, and derives the weekly and monthly
rollups from the summed counts.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the YAML configuration file")
	_ = rootCmd.MarkPersistentFlagRequired("config")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "v", "info", "Logger log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Logger logs format (text, json)")

	rootCmd.AddCommand(buildBackfillCmd())
	rootCmd.AddCommand(buildUpdateCmd())
	rootCmd.AddCommand(buildScheduleCmd())
	rootCmd.AddCommand(buildRebuildCmd())
	return rootCmd
}

// runCommand builds the logger then runs fn. Errors returned by fn are
// logged here, cobra only reports the usage errors.
func runCommand(cmd *cobra.Command, fn func(logger *slog.Logger) error) error {
	logger, err := buildLogger(logLevel, logFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	err = fn(logger)
	if err != nil {
		cmd.SilenceErrors = true
		logger.Error(err.Error())
	}
	return err
}
