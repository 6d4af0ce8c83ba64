package model

import (
	"time"

	"github.com/google/uuid"
)

// MatchBeginsWith is the only surname match mode the locator search supports here.
const MatchBeginsWith = "begins_with"

// Query describes one surname search.
type Query struct {
	// Surname is the last name typed into the search form.
	Surname string `json:"surname"`

	// MatchMode qualifies how Surname is matched. Always MatchBeginsWith.
	MatchMode string `json:"match_mode"`
}

// Run is the result of collecting records for one surname.
// It is created before the search is submitted, filled by the collection loop
// and then handed to the exporters and the history database.
//
// Design decision: The accumulator lives in the Run value that flows through
// the pipeline instead of in shared scraper state, so every step sees exactly
// the records collected for this surname.
type Run struct {
	// ID uniquely identifies the run (UUID v4).
	ID string `json:"id"`

	// Query is the search that was submitted.
	Query Query `json:"query"`

	// MinBirthYear is the threshold applied by the filter.
	MinBirthYear int `json:"min_birth_year"`

	// MaxPages is the page limit used for this run.
	MaxPages int `json:"max_pages"`

	// State is the final state of the collection loop.
	State RunState `json:"state"`

	// PagesVisited is the number of result pages that were parsed.
	PagesVisited int `json:"pages_visited"`

	// Pages holds per-page statistics in visiting order.
	Pages []PageStat `json:"pages,omitempty"`

	// Records contains all qualifying records in insertion order.
	Records []PersonRecord `json:"records"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the collection loop stopped.
	FinishedAt time.Time `json:"finished_at"`

	// OutputFiles lists the files written by the export step.
	OutputFiles []string `json:"output_files,omitempty"`

	// Error contains the last error recorded by a pipeline step.
	// Not serialized directly; ErrorMessage carries the text.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error.
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`
}

// NewRun creates a Run for the given surname with a fresh ID.
func NewRun(surname string, minBirthYear, maxPages int) *Run {
	return &Run{
		ID: uuid.NewString(),
		Query: Query{
			Surname:   surname,
			MatchMode: MatchBeginsWith,
		},
		MinBirthYear: minBirthYear,
		MaxPages:     maxPages,
		State:        StateSearching,
		Records:      make([]PersonRecord, 0),
		StartedAt:    time.Now(),
	}
}

// Duration returns how long collection took.
// Zero if the run has not finished.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// BirthYearRange returns the lowest and highest birth year among the records.
// ok is false when there are no records.
func (r *Run) BirthYearRange() (lowest, highest int, ok bool) {
	for i, rec := range r.Records {
		if i == 0 || rec.BirthYear < lowest {
			lowest = rec.BirthYear
		}
		if i == 0 || rec.BirthYear > highest {
			highest = rec.BirthYear
		}
	}
	return lowest, highest, len(r.Records) > 0
}

// Aborted reports whether the search never produced a results page.
func (r *Run) Aborted() bool {
	return r.State == StateAborted
}

// SetError records err on the run.
func (r *Run) SetError(err error) {
	if err == nil {
		return
	}
	r.Error = err
	r.ErrorMessage = err.Error()
}
