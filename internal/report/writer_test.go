package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/gravescan/internal/model"
)

// createTestRun creates a finished run with n records for testing.
func createTestRun(surname string, n int) *model.Run {
	run := model.NewRun(surname, 1980, 10)
	run.State = model.StateDone
	run.PagesVisited = 2
	run.Pages = []model.PageStat{
		{Number: 1, Groups: 20, Matched: n},
		{Number: 2, Groups: 3, Matched: 0, ParseError: "page parse failed"},
	}
	for i := range n {
		run.Records = append(run.Records, model.PersonRecord{
			FullName:    fmt.Sprintf("%s, PERSON%d", surname, i),
			LastName:    surname,
			FirstName:   fmt.Sprintf("PERSON%d", i),
			RankBranch:  "SGT US ARMY",
			DateOfBirth: fmt.Sprintf("05/01/%d", 1981+i),
			BirthYear:   1981 + i,
		})
	}
	run.FinishedAt = run.StartedAt.Add(1500 * time.Millisecond)
	return run
}

// TestSimpleWriter tests the human-readable summary writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run facts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRun("MICHAEL", 2)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"GRAVESCAN SUMMARY: MICHAEL", "Records:        2", "Birth Years:    1981 - 1982", "MICHAEL, PERSON0"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("preview shows first five records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRun("MICHAEL", 7)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "MICHAEL, PERSON4") {
			t.Error("expected fifth record in preview")
		}
		if strings.Contains(output, "MICHAEL, PERSON5") {
			t.Error("expected sixth record to be omitted")
		}
		if !strings.Contains(output, "and 2 more record(s)") {
			t.Errorf("expected truncation notice, got:\n%s", output)
		}
	})

	t.Run("empty run hides records unless showEmpty", func(t *testing.T) {
		t.Parallel()

		var quiet, loud bytes.Buffer
		run := createTestRun("NOBODY", 0)
		if _, err := NewSimpleWriter(&quiet).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := NewSimpleWriter(&loud, WithShowEmpty(true)).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		note := EmptyNote(1980)
		if strings.Contains(quiet.String(), note) {
			t.Error("expected no note without showEmpty")
		}
		if !strings.Contains(loud.String(), note) {
			t.Errorf("expected note with showEmpty, got:\n%s", loud.String())
		}
	})

	t.Run("verbose mode includes page statistics", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestRun("MICHAEL", 1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "page parse failed") {
			t.Errorf("expected page table, got:\n%s", buf.String())
		}
	})

	t.Run("shows error", func(t *testing.T) {
		t.Parallel()

		run := createTestRun("MICHAEL", 0)
		run.State = model.StateAborted
		run.ErrorMessage = "search submission failed"

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "ABORTED") || !strings.Contains(buf.String(), "search submission failed") {
			t.Errorf("expected aborted state and error, got:\n%s", buf.String())
		}
	})

	t.Run("WriteAll adds an overview for several surnames", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		runs := []*model.Run{createTestRun("MICHAEL", 2), createTestRun("SMITH", 3)}
		if _, err := NewSimpleWriter(&buf).WriteAll(runs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "All surnames") {
			t.Errorf("expected overview table, got:\n%s", output)
		}
		if strings.Count(output, "GRAVESCAN SUMMARY") != 2 {
			t.Error("expected one section per run")
		}
	})
}

// TestMarkdownWriter tests the Markdown summary writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header, facts and records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewMarkdownWriter(&buf).Write(createTestRun("MICHAEL", 2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("expected byte count")
		}

		output := buf.String()
		for _, want := range []string{"# Gravescan Report", "## MICHAEL", "Pages Visited", "### Records", "PERSON1", "[!TIP]"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("interrupted run gets a warning", func(t *testing.T) {
		t.Parallel()

		run := createTestRun("MICHAEL", 1)
		run.State = model.StateInterrupted
		run.ErrorMessage = "context canceled"

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!WARNING]") || !strings.Contains(buf.String(), "interrupted") {
			t.Errorf("expected an interruption warning, got:\n%s", buf.String())
		}
	})

	t.Run("empty run gets a note", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRun("NOBODY", 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!NOTE]") || !strings.Contains(buf.String(), EmptyNote(1980)) {
			t.Errorf("expected note alert, got:\n%s", buf.String())
		}
		if strings.Contains(buf.String(), "### Records") {
			t.Error("expected no records table")
		}
	})

	t.Run("aborted run gets a caution", func(t *testing.T) {
		t.Parallel()

		run := createTestRun("MICHAEL", 0)
		run.State = model.StateAborted
		run.ErrorMessage = "timeout"

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!CAUTION]") {
			t.Errorf("expected caution alert, got:\n%s", buf.String())
		}
	})

	t.Run("all records option lists everything", func(t *testing.T) {
		t.Parallel()

		var preview, all bytes.Buffer
		run := createTestRun("MICHAEL", 7)
		if _, err := NewMarkdownWriter(&preview).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := NewMarkdownWriter(&all, WithAllRecords(true)).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(preview.String(), "PERSON6") {
			t.Error("expected preview to omit the seventh record")
		}
		if !strings.Contains(preview.String(), "Showing 5 of 7 records.") {
			t.Error("expected truncation notice")
		}
		if !strings.Contains(all.String(), "PERSON6") {
			t.Error("expected all records")
		}
	})

	t.Run("several runs get an overview with a chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		runs := []*model.Run{createTestRun("MICHAEL", 2), createTestRun("SMITH", 1)}
		if _, err := NewMarkdownWriter(&buf).WriteAll(runs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "## Overview") || !strings.Contains(output, "```mermaid") {
			t.Errorf("expected overview and chart, got:\n%s", output)
		}
	})
}

// TestJSONWriter tests the JSON summary writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestRun("MICHAEL", 2)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got.Runs) != 1 || len(got.Runs[0].Records) != 2 {
			t.Fatalf("expected one run with two records, got %+v", got.Runs)
		}
		if got.Summaries[0].Surname != "MICHAEL" || got.Summaries[0].RecordCount != 2 {
			t.Errorf("unexpected summary %+v", got.Summaries[0])
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestRun("MICHAEL", 1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected a single line of compact JSON")
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestRun("MICHAEL", 1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"") {
			t.Error("expected indented output")
		}
	})

	t.Run("includes version in output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("v1.2.3")).WriteAll(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"version":"v1.2.3"`) {
			t.Errorf("expected version, got %s", buf.String())
		}
		if !strings.Contains(buf.String(), `"runs":[]`) {
			t.Errorf("expected empty runs array, got %s", buf.String())
		}
	})
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		w := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := w.Write(createTestRun("MICHAEL", 1))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected total %d, got %d", text.Len()+js.Len(), n)
		}
	})

	t.Run("WriteAll reaches all writers", func(t *testing.T) {
		t.Parallel()

		var text, md bytes.Buffer
		w := NewMultiWriter(NewSimpleWriter(&text), NewMarkdownWriter(&md))
		if _, err := w.WriteAll([]*model.Run{createTestRun("MICHAEL", 1)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text.Len() == 0 || md.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})
}
