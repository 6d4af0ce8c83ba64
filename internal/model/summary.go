package model

import "time"

// PreviewSize is the number of records shown in a summary preview.
const PreviewSize = 5

// Summary is a condensed, human-readable view of a Run.
// It is what the terminal, Markdown and JSON summaries print after a surname
// has been collected.
//
// Design decision: We build a separate summary instead of printing parts of
// Run directly, so every output format shows the same curated numbers and the
// full record list is only carried where it is needed.
type Summary struct {
	// RunID is the ID of the summarized run.
	RunID string `json:"run_id"`

	// Surname is the searched surname.
	Surname string `json:"surname"`

	// State is the final state of the collection loop.
	State RunState `json:"state"`

	// MinBirthYear is the filter threshold used.
	MinBirthYear int `json:"min_birth_year"`

	// PagesVisited is the number of parsed result pages.
	PagesVisited int `json:"pages_visited"`

	// RecordCount is the number of qualifying records.
	RecordCount int `json:"record_count"`

	// LowestBirthYear and HighestBirthYear span the collected records.
	// Both are zero when there are no records.
	LowestBirthYear  int `json:"lowest_birth_year,omitempty"`
	HighestBirthYear int `json:"highest_birth_year,omitempty"`

	// Preview holds the first PreviewSize records.
	Preview []PersonRecord `json:"preview,omitempty"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long collection took.
	Duration time.Duration `json:"duration"`

	// OutputFiles lists the exported files.
	OutputFiles []string `json:"output_files,omitempty"`

	// Error contains the run error message, if any.
	Error string `json:"error,omitempty"`
}

// NewSummary condenses run into a Summary.
func NewSummary(run *Run) *Summary {
	s := &Summary{
		RunID:        run.ID,
		Surname:      run.Query.Surname,
		State:        run.State,
		MinBirthYear: run.MinBirthYear,
		PagesVisited: run.PagesVisited,
		RecordCount:  len(run.Records),
		StartedAt:    run.StartedAt,
		Duration:     run.Duration(),
		OutputFiles:  append([]string(nil), run.OutputFiles...),
		Error:        run.ErrorMessage,
	}

	if lo, hi, ok := run.BirthYearRange(); ok {
		s.LowestBirthYear = lo
		s.HighestBirthYear = hi
	}

	n := min(len(run.Records), PreviewSize)
	if n > 0 {
		s.Preview = append([]PersonRecord(nil), run.Records[:n]...)
	}
	return s
}

// HasRecords reports whether the run kept at least one record.
func (s *Summary) HasRecords() bool {
	return s.RecordCount > 0
}

// Truncated reports whether Preview omits some records.
func (s *Summary) Truncated() bool {
	return s.RecordCount > len(s.Preview)
}
