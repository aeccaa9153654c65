package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TomDunham/fogharvest/internal/config"
	"github.com/TomDunham/fogharvest/internal/fogbugz"
	"github.com/TomDunham/fogharvest/internal/harvest"
	"github.com/TomDunham/fogharvest/internal/logging"
	"github.com/TomDunham/fogharvest/internal/reconcile"
	"github.com/TomDunham/fogharvest/pkg/models"
)

// window is the run's user and date bounds from the shared flags.
type window struct {
	user  string
	start time.Time
	end   time.Time
}

// parseWindow reads --user/--start/--end. The default window is
// yesterday midnight through today midnight UTC, half open on the end.
func parseWindow(cmd *cobra.Command) (window, error) {
	user, err := cmd.Flags().GetString("user")
	if err != nil {
		return window{}, err
	}
	startStr, err := cmd.Flags().GetString("start")
	if err != nil {
		return window{}, err
	}
	endStr, err := cmd.Flags().GetString("end")
	if err != nil {
		return window{}, err
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	w := window{
		user:  user,
		start: today.AddDate(0, 0, -1),
		end:   today,
	}
	if startStr != "" {
		w.start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return window{}, fmt.Errorf("invalid --start date %q: %w", startStr, err)
		}
	}
	if endStr != "" {
		w.end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return window{}, fmt.Errorf("invalid --end date %q: %w", endStr, err)
		}
	}
	return w, nil
}

// addWindowFlags registers the flags shared by sync and report.
func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String("user", "", "limit processing to a single user (email address)")
	cmd.Flags().String("start", "", "date to start at, inclusive (YYYY-MM-DD, default yesterday)")
	cmd.Flags().String("end", "", "date to end before, exclusive (YYYY-MM-DD, default today)")
}

// fetchRecords runs the read-only half of a run: join then filters, in
// source order. Everything is fetched and reconciled before any
// submission happens.
func fetchRecords(fb *fogbugz.Client, hv *harvest.Client, w window) ([]models.TimeRecord, error) {
	since := w.start
	records, err := reconcile.Join(fb, hv, &since, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	logging.Info("starting with records", "count", len(records))

	records = reconcile.ByUser(records, w.user)
	records = reconcile.FromStart(records, w.start)
	records = reconcile.BeforeEnd(records, w.end)
	records = reconcile.NonZero(records)
	return records, nil
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch, join and submit time intervals to Harvest",
	Long: `Fetch time intervals from FogBugz, join them with people, cases and
Harvest's daily Development tasks, filter by user and date window, and
submit one timesheet entry per surviving record.

Entries belonging to other users are submitted on their behalf, which
requires Harvest admin credentials. With --dry-run everything is fetched
and joined but nothing is submitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			return err
		}
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

		records, err = reconcile.ResolveIdentities(records, cfg.Harvest.Email, hv)
		if err != nil {
			return err
		}

		logging.Info("processing records", "count", len(records), "dry_run", dryRun)
		for _, rec := range records {
			logging.Info("submitting record",
				"bug", rec.BugID,
				"title", rec.Title,
				"email", rec.Email,
				"hours", fmt.Sprintf("%4.2f", rec.Hours()))
			if dryRun {
				continue
			}
			entry, err := hv.AddDaily(reconcile.Timesheet(rec), rec.HarvestUserID)
			if err != nil {
				return fmt.Errorf("failed to submit entry for bug %d: %w", rec.BugID, err)
			}
			logging.Debug("submitted", "day_entry", entry.ID)
		}

		logging.Info("sync complete", "submitted", len(records), "dry_run", dryRun)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	addWindowFlags(syncCmd)
	syncCmd.Flags().Bool("dry-run", false, "don't post data to Harvest")
}
