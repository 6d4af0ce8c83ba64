package crawler

import (
	"fmt"
	"html"
	"strings"
)

// testPerson is one record rendered into a fixture page.
type testPerson struct {
	name       string
	rankBranch string
	dob        string
}

// renderPage builds a results page shaped like the locator's markup.
// nextLink controls the pagination nav: "" omits it, "enabled" and
// "disabled" render the matching link.
func renderPage(summary string, people []testPerson, nextLink string) string {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	if summary != "" {
		fmt.Fprintf(&b, "<p id=\"results-content\">%s</p>\n", html.EscapeString(summary))
	}
	b.WriteString("<table id=\"searchResults\">\n")
	for i, p := range people {
		fmt.Fprintf(&b, "<tr><th class=\"table_row_labels item-number text-center\" rowspan=\"3\">%d</th>", i+1)
		writeField(&b, "Name:", p.name)
		b.WriteString("</tr>\n<tr>")
		writeField(&b, "Rank & Branch:", p.rankBranch)
		b.WriteString("</tr>\n<tr>")
		writeField(&b, "Date of Birth:", p.dob)
		b.WriteString("</tr>\n")
		b.WriteString("<tr><td colspan=\"3\"><hr class=\"horizontal-line\"></td></tr>\n")
	}
	b.WriteString("</table>\n")

	switch nextLink {
	case "enabled":
		b.WriteString(`<nav id="pagination"><ul><li><a href="#">Previous</a></li><li><a href="#" onclick="next()">Next &raquo;</a></li></ul></nav>`)
	case "disabled":
		b.WriteString(`<nav id="pagination"><ul><li class="disabled"><a href="#">Next &raquo;</a></li></ul></nav>`)
	}
	b.WriteString("\n</body></html>")
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "<th class=\"row-header\">%s</th><td class=\"results-info\"><div class=\"p-2\">%s</div></td>",
		html.EscapeString(label), html.EscapeString(value))
}
