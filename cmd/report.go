package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/TomDunham/fogharvest/internal/config"
	"github.com/TomDunham/fogharvest/internal/fogbugz"
	"github.com/TomDunham/fogharvest/internal/harvest"
	"github.com/TomDunham/fogharvest/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print grouped hours without submitting anything",
	Long: `Fetch and join time intervals exactly as sync does, then print a
summary grouped by day, person, project and ticket with hour totals.
Nothing is submitted to Harvest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		w, err := parseWindow(cmd)
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		fb := fogbugz.NewClient(cfg.FogBugz.URL, cfg.FogBugz.Email, cfg.FogBugz.Password)
		hv := harvest.NewClient(cfg.Harvest.URL, cfg.Harvest.Email, cfg.Harvest.Password)

		records, err := fetchRecords(fb, hv, w)
		if err != nil {
			return err
		}

		return report.Render(os.Stdout, records)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addWindowFlags(reportCmd)
}
