// Package reconcile correlates the four fetched record sets - intervals,
// people, cases and daily dev tasks - into denormalized time records,
// narrows them and prepares them for submission.
package reconcile

import (
	"fmt"
	"time"

	"github.com/TomDunham/fogharvest/internal/logging"
	"github.com/TomDunham/fogharvest/pkg/models"
)

// TicketSource is the read surface of the FogBugz client the join needs.
type TicketSource interface {
	Intervals(since *time.Time) ([]models.Interval, error)
	People() ([]models.Person, error)
	Cases(ids []int) ([]models.Case, error)
}

// TimeSource is the read surface of the Harvest client the join and
// identity resolution need.
type TimeSource interface {
	DailyDevTasks(date time.Time) ([]models.DevTask, error)
	People() ([]models.HarvestUser, error)
}

// miss identifies a failed index lookup during the join: which index and
// which key. A miss drops the whole interval, never a partial record.
type miss struct {
	index string
	key   string
}

// indexes holds the three lookup tables the join runs against. Keys are
// assumed unique within one run; a duplicate key keeps the later entry.
type indexes struct {
	people map[int]models.Person
	cases  map[int]models.Case
	tasks  map[string]models.DevTask
}

// resolve merges one interval with its person, case and dev task, in
// that order. On any lookup miss it reports which key was missing and
// emits nothing.
func (ix *indexes) resolve(iv models.Interval) (models.TimeRecord, *miss) {
	person, ok := ix.people[iv.PersonID]
	if !ok {
		return models.TimeRecord{}, &miss{index: "people", key: fmt.Sprintf("%d", iv.PersonID)}
	}
	cs, ok := ix.cases[iv.BugID]
	if !ok {
		return models.TimeRecord{}, &miss{index: "cases", key: fmt.Sprintf("%d", iv.BugID)}
	}
	task, ok := ix.tasks[cs.ProjectName]
	if !ok {
		return models.TimeRecord{}, &miss{index: "dev_tasks", key: cs.ProjectName}
	}

	// Merge order Interval, Person, Case, DevTask; later writes win on
	// colliding field names (see models.TimeRecord).
	rec := models.TimeRecord{
		IntervalID: iv.ID,
		PersonID:   iv.PersonID,
		BugID:      iv.BugID,
		Start:      iv.Start,
		End:        iv.End,
		Title:      iv.Title,
		Deleted:    iv.Deleted,

		FullName:     person.FullName,
		Email:        person.Email,
		LastActivity: person.LastActivity,

		ID:            cs.ID,
		CaseProjectID: cs.ProjectID,

		ProjectID:   task.ProjectID,
		ProjectName: task.ProjectName,
		TaskID:      task.TaskID,
		TaskName:    task.TaskName,
	}
	return rec, nil
}

// Join fetches intervals (optionally those starting at or after since),
// indexes people by id, cases by id and dev tasks for today by project
// name, and emits one record per fully resolvable interval, in interval
// order. Intervals with any failed lookup are dropped and logged.
func Join(fb TicketSource, hv TimeSource, since *time.Time, today time.Time) ([]models.TimeRecord, error) {
	intervals, err := fb.Intervals(since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch intervals: %w", err)
	}

	people, err := fb.People()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch people: %w", err)
	}

	bugIDs := make([]int, 0, len(intervals))
	for _, iv := range intervals {
		bugIDs = append(bugIDs, iv.BugID)
	}
	cases, err := fb.Cases(bugIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cases: %w", err)
	}

	tasks, err := hv.DailyDevTasks(today)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dev tasks: %w", err)
	}

	ix := &indexes{
		people: make(map[int]models.Person, len(people)),
		cases:  make(map[int]models.Case, len(cases)),
		tasks:  make(map[string]models.DevTask, len(tasks)),
	}
	for _, p := range people {
		ix.people[p.ID] = p
	}
	for _, cs := range cases {
		ix.cases[cs.ID] = cs
	}
	for _, t := range tasks {
		ix.tasks[t.ProjectName] = t
	}

	var records []models.TimeRecord
	for _, iv := range intervals {
		rec, m := ix.resolve(iv)
		if m != nil {
			logging.Debug("dropping interval, join key missing",
				"interval", iv.ID,
				"index", m.index,
				"key", m.key)
			continue
		}
		records = append(records, rec)
	}

	logging.Info("join complete",
		"intervals", len(intervals),
		"records", len(records))
	return records, nil
}
