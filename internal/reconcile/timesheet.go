package reconcile

import (
	"fmt"

	"github.com/TomDunham/fogharvest/internal/harvest"
	"github.com/TomDunham/fogharvest/internal/logging"
	"github.com/TomDunham/fogharvest/pkg/models"
)

// spentAtLayout is the date text Harvest expects in spent_at.
const spentAtLayout = "02 Jan, 2006"

// Timesheet maps one record to a Harvest submission body: the note is
// "(<ticket-id>) <title>", the date comes from the interval's start and
// hours are formatted to two decimal places.
func Timesheet(rec models.TimeRecord) harvest.EntryRequest {
	return harvest.NewEntryRequest(
		fmt.Sprintf("(%d) %s", rec.BugID, rec.Title),
		rec.Start.Format(spentAtLayout),
		fmt.Sprintf("%4.2f", rec.Hours()),
		rec.TaskID,
		rec.ProjectID,
	)
}

// ResolveIdentities attaches a Harvest user id to each record so entries
// can be submitted on behalf of their owners. When every record's email
// is the single configured submitting identity no lookup is made at all.
// Otherwise the Harvest people list is fetched, indexed by email, and a
// record whose email has no match is dropped with a warning; the run
// continues.
func ResolveIdentities(records []models.TimeRecord, configuredEmail string, hv TimeSource) ([]models.TimeRecord, error) {
	emails := make(map[string]bool)
	for _, r := range records {
		emails[r.Email] = true
	}
	if len(emails) == 0 || (len(emails) == 1 && emails[configuredEmail]) {
		return records, nil
	}

	users, err := hv.People()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch harvest people: %w", err)
	}
	byEmail := make(map[string]models.HarvestUser, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}

	var kept []models.TimeRecord
	for _, r := range records {
		u, ok := byEmail[r.Email]
		if !ok {
			logging.Warn("dropping record, email has no harvest user",
				"email", r.Email,
				"bug", r.BugID,
				"title", r.Title)
			continue
		}
		r.HarvestUserID = u.ID
		kept = append(kept, r)
	}
	logging.Info("records after identity resolution", "count", len(kept))
	return kept, nil
}
