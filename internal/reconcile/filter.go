package reconcile

import (
	"time"

	"github.com/TomDunham/fogharvest/internal/logging"
	"github.com/TomDunham/fogharvest/pkg/models"
)

// ByUser keeps records whose email equals email. An empty email keeps
// everything.
func ByUser(records []models.TimeRecord, email string) []models.TimeRecord {
	if email == "" {
		return records
	}
	var kept []models.TimeRecord
	for _, r := range records {
		if r.Email == email {
			kept = append(kept, r)
		}
	}
	logging.Info("records after user filter", "count", len(kept), "user", email)
	return kept
}

// FromStart keeps records with Start >= start (inclusive bound).
func FromStart(records []models.TimeRecord, start time.Time) []models.TimeRecord {
	var kept []models.TimeRecord
	for _, r := range records {
		if !r.Start.Before(start) {
			kept = append(kept, r)
		}
	}
	logging.Info("records after start filter", "count", len(kept), "start", start)
	return kept
}

// BeforeEnd keeps records with Start < end (exclusive bound).
func BeforeEnd(records []models.TimeRecord, end time.Time) []models.TimeRecord {
	var kept []models.TimeRecord
	for _, r := range records {
		if r.Start.Before(end) {
			kept = append(kept, r)
		}
	}
	logging.Info("records after end filter", "count", len(kept), "end", end)
	return kept
}

// NonZero drops records whose duration is exactly zero hours. Submitting
// a zero-hours entry starts a live timer in Harvest instead of recording
// a fixed duration, so this exclusion is a correctness requirement.
func NonZero(records []models.TimeRecord) []models.TimeRecord {
	var kept []models.TimeRecord
	for _, r := range records {
		if r.Hours() != 0 {
			kept = append(kept, r)
		}
	}
	logging.Info("records after zero-duration filter", "count", len(kept))
	return kept
}
