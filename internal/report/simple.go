package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nao1215/gravescan/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display after a scrape: run facts,
// the birth year range and the first records as a table.
//
// Design decision: We render tables with go-pretty and no ANSI colors, so
// the output stays readable when piped to a file.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints the records section even when nothing qualified.
	showEmpty bool

	// verbose adds the per-page statistics table.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with per-page details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary of one run.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder
	w.writeRun(&sb, run)
	return io.WriteString(w.output, sb.String())
}

// WriteAll outputs every run followed by an overview table when more than
// one surname was collected.
func (w *SimpleWriter) WriteAll(runs []*model.Run) (int, error) {
	var sb strings.Builder
	for _, run := range runs {
		w.writeRun(&sb, run)
	}
	if len(runs) > 1 {
		w.writeOverview(&sb, runs)
	}
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeRun(sb *strings.Builder, run *model.Run) {
	summary := model.NewSummary(run)

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "GRAVESCAN SUMMARY: %s\n", summary.Surname)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "State:          %s\n", summary.State)
	fmt.Fprintf(sb, "Pages Visited:  %d\n", summary.PagesVisited)
	fmt.Fprintf(sb, "Birth Year >=:  %d\n", summary.MinBirthYear)
	fmt.Fprintf(sb, "Records:        %d\n", summary.RecordCount)
	if summary.HasRecords() {
		fmt.Fprintf(sb, "Birth Years:    %d - %d\n", summary.LowestBirthYear, summary.HighestBirthYear)
	}
	if summary.Duration > 0 {
		fmt.Fprintf(sb, "Duration:       %s\n", summary.Duration.Round(time.Millisecond))
	}
	for _, path := range summary.OutputFiles {
		fmt.Fprintf(sb, "Saved:          %s\n", path)
	}
	if summary.Error != "" {
		fmt.Fprintf(sb, "Error:          %s\n", summary.Error)
	}
	sb.WriteString("\n")

	w.writePreview(sb, summary)

	if w.verbose && len(run.Pages) > 0 {
		w.writePages(sb, run.Pages)
	}
}

// writePreview writes the first records as a table.
func (w *SimpleWriter) writePreview(sb *strings.Builder, summary *model.Summary) {
	if !summary.HasRecords() {
		if w.showEmpty {
			sb.WriteString(EmptyNote(summary.MinBirthYear))
			sb.WriteString("\n\n")
		}
		return
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Name", "Rank & Branch", "Date of Birth"})
	for i, rec := range summary.Preview {
		t.AppendRow(table.Row{i + 1, rec.FullName, rec.RankBranch, rec.DateOfBirth})
	}
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	if summary.Truncated() {
		fmt.Fprintf(sb, "... and %d more record(s)\n", summary.RecordCount-len(summary.Preview))
	}
	sb.WriteString("\n")
}

// writePages writes what every visited page contributed.
func (w *SimpleWriter) writePages(sb *strings.Builder, pages []model.PageStat) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Page", "Groups", "Matched", "Note"})
	for _, p := range pages {
		t.AppendRow(table.Row{p.Number, p.Groups, p.Matched, p.ParseError})
	}
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
}

// writeOverview writes one line per run.
func (w *SimpleWriter) writeOverview(sb *strings.Builder, runs []*model.Run) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle("All surnames")
	t.AppendHeader(table.Row{"Surname", "State", "Pages", "Records"})
	total := 0
	for _, run := range runs {
		t.AppendRow(table.Row{run.Query.Surname, run.State.String(), run.PagesVisited, len(run.Records)})
		total += len(run.Records)
	}
	t.AppendFooter(table.Row{"", "", "Total", total})
	sb.WriteString(t.Render())
	sb.WriteString("\n")
}
