package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/gravescan/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown format.
// This format is designed for sharing results, e.g. in an issue or a wiki.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables and mermaid charts
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// allRecords lists every record instead of the preview.
	allRecords bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithAllRecords lists every collected record instead of the first few.
func WithAllRecords(all bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.allRecords = all
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary of one run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	return w.WriteAll([]*model.Run{run})
}

// WriteAll outputs one section per run in Markdown format.
func (w *MarkdownWriter) WriteAll(runs []*model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Gravescan Report")
	md.PlainText("")

	if len(runs) > 1 {
		w.writeOverview(md, runs)
	}

	for _, run := range runs {
		w.writeRun(md, run)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeOverview writes one table row per run and a chart of the record split.
func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, runs []*model.Run) {
	md.H2("Overview")
	md.PlainText("")

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.Query.Surname,
			run.State.String(),
			strconv.Itoa(run.PagesVisited),
			strconv.Itoa(len(run.Records)),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Surname", "State", "Pages", "Records"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Records by Surname"),
		piechart.WithShowData(true),
	)
	hasData := false
	for _, run := range runs {
		if len(run.Records) > 0 {
			chart.LabelAndIntValue(run.Query.Surname, uint64(len(run.Records)))
			hasData = true
		}
	}
	if hasData {
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

// writeRun writes the facts, an alert and the records of one run.
func (w *MarkdownWriter) writeRun(md *markdown.Markdown, run *model.Run) {
	summary := model.NewSummary(run)

	md.H2(summary.Surname)
	md.PlainText("")

	rows := [][]string{
		{"Run ID", "`" + summary.RunID + "`"},
		{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"State", w.statusText(summary)},
		{"Pages Visited", strconv.Itoa(summary.PagesVisited)},
		{"Birth Year Threshold", ">= " + strconv.Itoa(summary.MinBirthYear)},
		{"Records", strconv.Itoa(summary.RecordCount)},
	}
	if summary.HasRecords() {
		rows = append(rows, []string{
			"Birth Years",
			strconv.Itoa(summary.LowestBirthYear) + " - " + strconv.Itoa(summary.HighestBirthYear),
		})
	}
	for _, path := range summary.OutputFiles {
		rows = append(rows, []string{"Output", "`" + path + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, summary)
	w.writeRecords(md, run, summary)
}

// statusText returns the status text based on the run state.
func (w *MarkdownWriter) statusText(summary *model.Summary) string {
	switch {
	case summary.State == model.StateAborted:
		return "❌ Aborted"
	case summary.State == model.StateInterrupted:
		return "⏸️ Interrupted"
	case summary.Error != "":
		return "⚠️ Done with errors"
	default:
		return "✅ " + summary.State.String()
	}
}

// writeAlert writes an alert matching the outcome of the run.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.State == model.StateAborted:
		md.Cautionf("The search for %s never produced a results page: %s", summary.Surname, summary.Error)
	case summary.State == model.StateInterrupted:
		md.Warningf("The run was interrupted after %d page(s); the records are incomplete.", summary.PagesVisited)
	case summary.Error != "":
		md.Warningf("The run finished with an error: %s", summary.Error)
	case !summary.HasRecords():
		md.Note(EmptyNote(summary.MinBirthYear) + ".")
	default:
		md.Tip(strconv.Itoa(summary.RecordCount) + " record(s) matched.")
	}
	md.PlainText("")
}

// writeRecords writes the record table.
func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, run *model.Run, summary *model.Summary) {
	if !summary.HasRecords() {
		return
	}

	records := summary.Preview
	if w.allRecords {
		records = run.Records
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = []string{
			rec.LastName,
			rec.FirstName,
			rec.RankBranch,
			rec.DateOfBirth,
			strconv.Itoa(rec.BirthYear),
		}
	}

	md.H3("Records")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Last Name", "First Name", "Rank & Branch", "Date of Birth", "Birth Year"},
		Rows:   rows,
	})
	md.PlainText("")

	if !w.allRecords && summary.Truncated() {
		md.PlainTextf("Showing %d of %d records.", len(records), summary.RecordCount)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [gravescan](https://github.com/nao1215/gravescan)*")
}
