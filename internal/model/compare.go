package model

import "time"

// RunMetadata describes a stored run without its records.
type RunMetadata struct {
	// ID is the run ID.
	ID string `json:"id"`

	// Surname is the searched surname.
	Surname string `json:"surname"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// State is the final state of the run.
	State RunState `json:"state"`

	// PagesVisited is the number of parsed result pages.
	PagesVisited int `json:"pages_visited"`

	// RecordCount is the number of qualifying records.
	RecordCount int `json:"record_count"`

	// MinBirthYear is the filter threshold of the run.
	MinBirthYear int `json:"min_birth_year"`
}

// Metadata returns the metadata view of r.
func (r *Run) Metadata() RunMetadata {
	return RunMetadata{
		ID:           r.ID,
		Surname:      r.Query.Surname,
		StartedAt:    r.StartedAt,
		State:        r.State,
		PagesVisited: r.PagesVisited,
		RecordCount:  len(r.Records),
		MinBirthYear: r.MinBirthYear,
	}
}

// Comparison is the difference between two runs of the same surname.
type Comparison struct {
	// Surname is the compared surname.
	Surname string `json:"surname"`

	// Previous and Current describe the compared runs.
	Previous RunMetadata `json:"previous"`
	Current  RunMetadata `json:"current"`

	// Added holds records of Current whose Key is absent from Previous.
	Added []PersonRecord `json:"added"`

	// Removed holds records of Previous whose Key is absent from Current.
	Removed []PersonRecord `json:"removed"`

	// UnchangedCount is the number of keys present in both runs.
	UnchangedCount int `json:"unchanged_count"`
}

// CompareRuns lists the records added and removed between previous and
// current. Records are matched by PersonRecord.Key and keep the order of
// the run they come from. Duplicate keys within one run count once.
//
// Design decision: A record that disappears is reported rather than hidden.
// The locator sometimes corrects dates of birth, which shows up as one
// removal and one addition for the same name.
func CompareRuns(previous, current *Run) *Comparison {
	c := &Comparison{
		Surname:  current.Query.Surname,
		Previous: previous.Metadata(),
		Current:  current.Metadata(),
		Added:    make([]PersonRecord, 0),
		Removed:  make([]PersonRecord, 0),
	}

	before := keySet(previous.Records)
	after := keySet(current.Records)

	seen := make(map[string]struct{}, len(current.Records))
	for _, rec := range current.Records {
		key := rec.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := before[key]; ok {
			c.UnchangedCount++
			continue
		}
		c.Added = append(c.Added, rec)
	}

	clear(seen)
	for _, rec := range previous.Records {
		key := rec.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := after[key]; !ok {
			c.Removed = append(c.Removed, rec)
		}
	}

	return c
}

// HasChanges reports whether any record was added or removed.
func (c *Comparison) HasChanges() bool {
	return len(c.Added) > 0 || len(c.Removed) > 0
}

func keySet(records []PersonRecord) map[string]struct{} {
	set := make(map[string]struct{}, len(records))
	for _, rec := range records {
		set[rec.Key()] = struct{}{}
	}
	return set
}
