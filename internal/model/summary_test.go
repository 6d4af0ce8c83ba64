package model

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNewSummary(t *testing.T) {
	t.Parallel()

	t.Run("empty run", func(t *testing.T) {
		t.Parallel()

		run := NewRun("MICHAEL", 1980, 10)
		run.State = StateDone
		run.PagesVisited = 1

		s := NewSummary(run)
		if s.HasRecords() {
			t.Error("expected no records")
		}
		if s.Preview != nil {
			t.Errorf("expected nil preview, got %v", s.Preview)
		}
		if s.LowestBirthYear != 0 || s.HighestBirthYear != 0 {
			t.Errorf("expected zero birth year range, got %d-%d", s.LowestBirthYear, s.HighestBirthYear)
		}
		if s.Truncated() {
			t.Error("expected empty summary not to be truncated")
		}
	})

	t.Run("preview is capped", func(t *testing.T) {
		t.Parallel()

		run := NewRun("MICHAEL", 1980, 10)
		for i := range 8 {
			run.Records = append(run.Records, PersonRecord{
				FullName:  fmt.Sprintf("MICHAEL, P%d", i),
				BirthYear: 1981 + i,
			})
		}
		run.FinishedAt = run.StartedAt.Add(2 * time.Second)
		run.SetError(errors.New("export failed"))

		s := NewSummary(run)
		if s.RecordCount != 8 {
			t.Errorf("expected 8 records, got %d", s.RecordCount)
		}
		if len(s.Preview) != PreviewSize {
			t.Errorf("expected %d preview records, got %d", PreviewSize, len(s.Preview))
		}
		if !s.Truncated() {
			t.Error("expected truncated preview")
		}
		if s.LowestBirthYear != 1981 || s.HighestBirthYear != 1988 {
			t.Errorf("unexpected range %d-%d", s.LowestBirthYear, s.HighestBirthYear)
		}
		if s.Duration != 2*time.Second {
			t.Errorf("expected 2s duration, got %v", s.Duration)
		}
		if s.Error != "export failed" {
			t.Errorf("expected error message, got %q", s.Error)
		}
	})

	t.Run("preview does not alias the run", func(t *testing.T) {
		t.Parallel()

		run := NewRun("MICHAEL", 1980, 10)
		run.Records = append(run.Records, PersonRecord{FullName: "MICHAEL, A"})

		s := NewSummary(run)
		run.Records[0].FullName = "CHANGED"
		if s.Preview[0].FullName != "MICHAEL, A" {
			t.Errorf("expected preview copy, got %q", s.Preview[0].FullName)
		}
	})
}
