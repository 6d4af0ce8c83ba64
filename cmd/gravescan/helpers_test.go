package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/gravescan/internal/browser"
)

// testPerson is one record rendered into a snapshot page.
type testPerson struct {
	name string
	dob  string
}

// executeCommand runs the root command with args and returns its stdout.
// Logs are discarded and stdin is empty.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// writeConfig writes a config file into a temp dir and returns its path.
// Tests always pass one so a user's ~/.gravescan is never picked up.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".gravescan")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// renderResults builds a results page shaped like the locator's markup.
func renderResults(people []testPerson, withNext bool) string {
	var b strings.Builder
	b.WriteString("<html><body>\n<table id=\"searchResults\">\n")
	for i, p := range people {
		fmt.Fprintf(&b, "<tr><th class=\"item-number\" rowspan=\"3\">%d</th>"+
			"<th class=\"row-header\">Name:</th><td class=\"results-info\">%s</td></tr>\n", i+1, p.name)
		b.WriteString("<tr><th class=\"row-header\">Rank &amp; Branch:</th><td class=\"results-info\">SGT US ARMY</td></tr>\n")
		fmt.Fprintf(&b, "<tr><th class=\"row-header\">Date of Birth:</th><td class=\"results-info\">%s</td></tr>\n", p.dob)
	}
	b.WriteString("</table>\n")
	if withNext {
		b.WriteString(`<nav id="pagination"><ul><li><a href="#">Next &raquo;</a></li></ul></nav>`)
	}
	b.WriteString("\n</body></html>")
	return b.String()
}

// writeSnapshots saves one snapshot per page for surname.
func writeSnapshots(t *testing.T, dir, surname string, pages ...[]testPerson) {
	t.Helper()

	for i, people := range pages {
		content := renderResults(people, i < len(pages)-1)
		if _, err := browser.SaveSnapshot(dir, surname, i+1, content); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
	}
}

// quietLogger discards every log record.
func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
