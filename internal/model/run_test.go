package model

import (
	"errors"
	"testing"
	"time"
)

// TestNewRun tests the Run constructor.
func TestNewRun(t *testing.T) {
	t.Parallel()

	run := NewRun("MICHAEL", 1980, 5)

	t.Run("has an id", func(t *testing.T) {
		t.Parallel()
		if run.ID == "" {
			t.Error("expected non-empty run ID")
		}
	})

	t.Run("uses begins-with matching", func(t *testing.T) {
		t.Parallel()
		if run.Query.MatchMode != MatchBeginsWith {
			t.Errorf("expected match mode %q, got %q", MatchBeginsWith, run.Query.MatchMode)
		}
	})

	t.Run("starts in SEARCHING with an empty accumulator", func(t *testing.T) {
		t.Parallel()
		if run.State != StateSearching {
			t.Errorf("expected SEARCHING, got %s", run.State)
		}
		if run.Records == nil || len(run.Records) != 0 {
			t.Errorf("expected empty non-nil records, got %v", run.Records)
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		t.Parallel()
		other := NewRun("MICHAEL", 1980, 5)
		if other.ID == run.ID {
			t.Error("expected distinct run IDs")
		}
	})
}

func TestRunBirthYearRange(t *testing.T) {
	t.Parallel()

	t.Run("no records", func(t *testing.T) {
		t.Parallel()
		run := NewRun("X", 1980, 1)
		if _, _, ok := run.BirthYearRange(); ok {
			t.Error("expected ok=false without records")
		}
	})

	t.Run("min and max across records", func(t *testing.T) {
		t.Parallel()
		run := NewRun("X", 1980, 1)
		run.Records = []PersonRecord{{BirthYear: 1990}, {BirthYear: 1981}, {BirthYear: 2001}}

		lo, hi, ok := run.BirthYearRange()
		if !ok || lo != 1981 || hi != 2001 {
			t.Errorf("expected 1981-2001, got %d-%d (ok=%v)", lo, hi, ok)
		}
	})
}

func TestRunDuration(t *testing.T) {
	t.Parallel()

	run := NewRun("X", 1980, 1)
	if run.Duration() != 0 {
		t.Error("expected zero duration before finishing")
	}
	run.FinishedAt = run.StartedAt.Add(3 * time.Second)
	if run.Duration() != 3*time.Second {
		t.Errorf("expected 3s, got %v", run.Duration())
	}
}

func TestRunSetError(t *testing.T) {
	t.Parallel()

	run := NewRun("X", 1980, 1)
	run.SetError(nil)
	if run.Error != nil || run.ErrorMessage != "" {
		t.Error("expected nil error to be ignored")
	}

	err := errors.New("search failed")
	run.SetError(err)
	if !errors.Is(run.Error, err) || run.ErrorMessage != "search failed" {
		t.Errorf("unexpected error state: %v / %q", run.Error, run.ErrorMessage)
	}
}
