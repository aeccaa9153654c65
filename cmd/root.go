// Package cmd provides the command-line interface for the fogharvest tool.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/TomDunham/fogharvest/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "fogharvest",
	Short: "Forward time logged against FogBugz tickets to Harvest",
	Long: `fogharvest forwards time intervals recorded against FogBugz tickets
into Harvest timesheets.

Each run fetches intervals, people and cases from FogBugz plus the day's
Development tasks from Harvest, joins them into one record per interval,
filters by user and date range, and submits a timesheet entry per record
under the right Harvest identity.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, err := cmd.Flags().GetString("verbosity")
		if err != nil {
			return err
		}
		debug, err := cmd.Flags().GetBool("debug")
		if err != nil {
			return err
		}
		logFile, err := cmd.Flags().GetString("log-file")
		if err != nil {
			return err
		}

		// --debug is shorthand for debug verbosity on stderr.
		if debug {
			logging.SetupLogger(os.Stderr, logging.LevelDebug)
			return nil
		}
		w, err := logging.OpenLogFile(logFile)
		if err != nil {
			return err
		}
		logging.SetupLogger(w, logging.LogLevel(verbosity))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "fogharvest.yaml", "config file")
	rootCmd.PersistentFlags().String("log-file", "fogharvest.log", "log destination ('-' for stderr)")
	rootCmd.PersistentFlags().StringP("verbosity", "v", "warn", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("debug", false, "log at debug level to stderr")
}
