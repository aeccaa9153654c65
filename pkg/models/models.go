// Package models defines data structures shared across the application.
package models

import (
	"time"
)

// Interval is one logged time span against one ticket by one person in
// FogBugz. End >= Start is assumed, not enforced by the source.
type Interval struct {
	// ID is the interval's identifier (ixInterval)
	ID int

	// PersonID identifies who logged the time (ixPerson)
	PersonID int

	// BugID identifies the ticket the time was logged against (ixBug)
	BugID int

	// Start is when work on the interval began
	Start time.Time

	// End is when work on the interval stopped
	End time.Time

	// Title is the ticket title at the time the interval was recorded
	Title string

	// Deleted marks intervals removed in FogBugz
	Deleted bool
}

// Person is an identity in FogBugz.
type Person struct {
	ID           int
	FullName     string
	Email        string
	LastActivity time.Time
}

// Case is a FogBugz ticket; ID matches Interval.BugID.
type Case struct {
	ID          int
	ProjectID   int
	ProjectName string
}

// DevTask is the "Development" billing task for a Harvest project on a
// given day. Identifiers stay as the raw element text; the submission
// payload re-emits them unchanged. ProjectName is the join key.
type DevTask struct {
	ProjectID   string
	ProjectName string
	TaskID      string
	TaskName    string
}

// HarvestUser is an identity in Harvest.
type HarvestUser struct {
	ID    int
	Email string
}

// DayEntry is one existing timesheet entry in Harvest, as returned by the
// daily endpoints.
type DayEntry struct {
	ID      int
	Project string
	Hours   float64
	Notes   string
	SpentAt time.Time
}

// Project is a Harvest project.
type Project struct {
	ID   int
	Name string
}

// TimeRecord is one interval joined with its person, case and dev task.
// Fields are merged in the order Interval, Person, Case, DevTask with
// colliding names keeping the last write: ID carries the case id
// (superseding the interval and person ids), ProjectID and ProjectName
// carry the dev task's values (the case's project id survives as
// CaseProjectID; its project name agrees with the dev task's by
// construction of the join).
type TimeRecord struct {
	// from Interval
	IntervalID int
	PersonID   int
	BugID      int
	Start      time.Time
	End        time.Time
	Title      string
	Deleted    bool

	// from Person
	FullName     string
	Email        string
	LastActivity time.Time

	// from Case
	ID            int
	CaseProjectID int

	// from DevTask
	ProjectID   string
	ProjectName string
	TaskID      string
	TaskName    string

	// HarvestUserID is the target user for submission, set during
	// identity resolution. Zero means submit as the connected identity.
	HarvestUserID int
}

// Hours is the record's duration in hours.
func (r TimeRecord) Hours() float64 {
	return r.End.Sub(r.Start).Seconds() / 3600
}
