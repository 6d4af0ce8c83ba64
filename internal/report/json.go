package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/gravescan/internal/model"
)

// JSONWriter outputs run summaries in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is embedded into the document when not empty.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the gravescan version in the document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the document written by JSONWriter.
//
// Design decision: We wrap the runs rather than serializing them bare so
// output-specific fields (version, summaries) do not pollute model.Run.
type JSONReport struct {
	// Version is the gravescan version that generated this report.
	Version string `json:"version,omitempty"`

	// Summaries holds one condensed entry per run.
	Summaries []*model.Summary `json:"summaries"`

	// Runs holds the complete runs including every record.
	Runs []*model.Run `json:"runs"`
}

// NewJSONReport creates a JSONReport for runs.
func NewJSONReport(runs []*model.Run, version string) *JSONReport {
	summaries := make([]*model.Summary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, model.NewSummary(run))
	}
	return &JSONReport{
		Version:   version,
		Summaries: summaries,
		Runs:      runs,
	}
}

// Write outputs one run in JSON format.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	return w.WriteAll([]*model.Run{run})
}

// WriteAll outputs all runs as a single JSON document.
func (w *JSONWriter) WriteAll(runs []*model.Run) (int, error) {
	if runs == nil {
		runs = []*model.Run{}
	}
	return w.writeJSON(NewJSONReport(runs, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
