package crawler

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/gravescan/internal/model"
)

// Default selectors for the locator results table.
const (
	// DefaultMarkerSelector matches the cell holding a record's item number.
	// A row containing it starts a new record group.
	DefaultMarkerSelector = "th.item-number, td.item-number"

	// DefaultSeparatorSelector matches the horizontal rule between records.
	// It is matched both against the row itself and its descendants.
	DefaultSeparatorSelector = "hr.horizontal-line, .horizontal-line"

	// DefaultLabelSelector matches the label cell of a data row.
	DefaultLabelSelector = "th.row-header"

	// DefaultValueSelector matches the value cell of a data row.
	DefaultValueSelector = "td.results-info"

	// DefaultSummarySelector matches the "Displaying 1 - 20 of N results" paragraph.
	DefaultSummarySelector = "#results-content"
)

// Parser turns one results page into record groups.
//
// Design decision: Group boundaries come from the item-number markers only.
// The site spreads one person over several <tr> elements whose count varies,
// so counting rows or cells would split or merge records.
type Parser struct {
	markerSelector    string
	separatorSelector string
	labelSelector     string
	valueSelector     string
	summarySelector   string
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMarkerSelector sets the CSS selector of the record start marker.
func WithMarkerSelector(sel string) ParserOption {
	return func(p *Parser) {
		p.markerSelector = sel
	}
}

// WithSeparatorSelector sets the CSS selector of the record separator.
func WithSeparatorSelector(sel string) ParserOption {
	return func(p *Parser) {
		p.separatorSelector = sel
	}
}

// WithLabelSelectors sets the CSS selectors of the label and value cells.
func WithLabelSelectors(label, value string) ParserOption {
	return func(p *Parser) {
		p.labelSelector = label
		p.valueSelector = value
	}
}

// NewParser creates a Parser using the locator's default selectors.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		markerSelector:    DefaultMarkerSelector,
		separatorSelector: DefaultSeparatorSelector,
		labelSelector:     DefaultLabelSelector,
		valueSelector:     DefaultValueSelector,
		summarySelector:   DefaultSummarySelector,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseString parses an HTML string. See Parse.
func (p *Parser) ParseString(content string) (*model.ResultsPage, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse reads one results page and returns its record groups in document order.
// Malformed rows are skipped silently; only an unreadable document is an error,
// and that error wraps ErrPageParse.
func (p *Parser) Parse(content io.Reader) (*model.ResultsPage, error) {
	raw, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPageParse, err)
	}

	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPageParse, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	page := &model.ResultsPage{
		Groups:  assemble(p.scanRows(doc)),
		Summary: CleanText(doc.Find(p.summarySelector).First().Text()),
	}
	page.ComputeHash(raw)

	return page, nil
}

// scannedRow is what the parser learned about one <tr>.
type scannedRow struct {
	// marker is true when the row carries an item-number marker.
	marker bool

	// number is the marker's item number, 0 if not numeric.
	number int

	// separator is true when the row is a record separator.
	separator bool

	// cells holds the label/value pairs found in the row.
	cells model.RawRow
}

// scanRows classifies every <tr> of the document in order.
func (p *Parser) scanRows(doc *goquery.Document) []scannedRow {
	rows := make([]scannedRow, 0)

	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		row := scannedRow{}

		cells := tr.ChildrenFiltered("th, td")
		markers := cells.Filter(p.markerSelector)
		if markers.Length() > 0 {
			row.marker = true
			row.number, _ = strconv.Atoi(CleanText(markers.First().Text()))
		}

		if tr.Is(p.separatorSelector) || tr.Find(p.separatorSelector).Length() > 0 {
			row.separator = true
		}

		row.cells = p.extractCells(cells.Not(p.markerSelector))
		rows = append(rows, row)
	})

	return rows
}

// extractCells finds the label/value pair of a row.
//
// The site marks labels with th.row-header and values with td.results-info.
// Older layouts lack those classes, so the fallback pairs the first cell whose
// text ends with ":" with the cell that follows it.
func (p *Parser) extractCells(cells *goquery.Selection) model.RawRow {
	labels := cells.Filter(p.labelSelector)
	values := cells.Filter(p.valueSelector)
	if labels.Length() > 0 && values.Length() > 0 {
		return pairCells(labels.First().Text(), values.First().Text())
	}

	for i := 0; i < cells.Length()-1; i++ {
		label := CleanText(cells.Eq(i).Text())
		if strings.HasSuffix(label, ":") {
			return pairCells(label, cells.Eq(i+1).Text())
		}
	}
	return nil
}

// pairCells returns a one-cell row, or nil when either side is empty.
func pairCells(label, value string) model.RawRow {
	label = CleanText(label)
	value = CleanText(value)
	if model.CanonicalLabel(label) == "" || value == "" {
		return nil
	}
	return model.RawRow{{Label: label, Value: value}}
}

// assemble groups scanned rows into records.
//
// A marker row closes the open group and opens a new one. A separator row
// closes the open group without adding its own cells, and rows up to the
// next marker are ignored. Rows
// before the first marker belong to no group.
func assemble(rows []scannedRow) []model.RecordGroup {
	groups := make([]model.RecordGroup, 0)
	var open *model.RecordGroup

	closeGroup := func() {
		if open != nil {
			groups = append(groups, *open)
			open = nil
		}
	}

	for _, row := range rows {
		if row.marker {
			closeGroup()
			open = model.NewRecordGroup(row.number)
		}

		if row.separator {
			closeGroup()
			continue
		}

		if open != nil {
			for _, cell := range row.cells {
				open.Set(cell.Label, cell.Value)
			}
		}
	}
	closeGroup()

	return groups
}
