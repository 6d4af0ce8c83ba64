package browser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/gravescan/internal/crawler"
	"github.com/nao1215/gravescan/internal/model"
)

const (
	// snapshotExt is the extension of saved result pages.
	snapshotExt = ".html"

	// snapshotInfix separates the surname from the page number.
	snapshotInfix = "_page_"

	// minCharsetConfidence is the detector confidence (0-100) needed to
	// override the declared charset.
	minCharsetConfidence = 50
)

// SnapshotName returns the file name used for page n of a surname's run,
// e.g. "MICHAEL_page_003.html". Zero padding keeps lexical and page order equal.
func SnapshotName(surname string, page int) string {
	return fmt.Sprintf("%s%s%03d%s", surname, snapshotInfix, page, snapshotExt)
}

// SnapshotPattern returns the glob matching all snapshots of a surname.
// An empty surname matches every snapshot.
func SnapshotPattern(surname string) string {
	if surname == "" {
		return "*" + snapshotExt
	}
	return surname + snapshotInfix + "*" + snapshotExt
}

// SaveSnapshot writes the HTML of one page to dir under SnapshotName.
func SaveSnapshot(dir, surname string, page int, content string) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	path := filepath.Join(dir, SnapshotName(surname, page))
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}

// SnapshotSurnames returns the surnames that have snapshots in dir, sorted.
func SnapshotSurnames(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+snapshotInfix+"*"+snapshotExt))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var surnames []string
	for _, path := range matches {
		name := filepath.Base(path)
		i := strings.LastIndex(name, snapshotInfix)
		if i <= 0 {
			continue
		}
		surname := name[:i]
		if _, ok := seen[surname]; ok {
			continue
		}
		seen[surname] = struct{}{}
		surnames = append(surnames, surname)
	}
	sort.Strings(surnames)
	return surnames, nil
}

// Replay serves saved result pages in order. It implements crawler.Driver.
type Replay struct {
	pages    []string
	files    []string
	current  int
	searched bool
	logger   *slog.Logger
}

// NewReplay creates a Replay over in-memory pages.
func NewReplay(pages []string) *Replay {
	return &Replay{
		pages:  pages,
		files:  make([]string, len(pages)),
		logger: slog.New(slog.DiscardHandler),
	}
}

// OpenReplay loads every file in dir matching pattern, sorted by name.
// Files that are not HTML are skipped. Content is converted to UTF-8.
func OpenReplay(dir, pattern string, logger *slog.Logger) (*Replay, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if pattern == "" {
		pattern = SnapshotPattern("")
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	r := &Replay{logger: logger}
	for _, path := range matches {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
		}

		mtype := mimetype.Detect(data)
		if !mtype.Is("text/html") && !mtype.Is("text/plain") {
			logger.Warn("skipping non-HTML snapshot", "file", path, "mime", mtype.String())
			continue
		}

		content, err := DecodeHTML(data, mtype.String())
		if err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
		}
		r.pages = append(r.pages, content)
		r.files = append(r.files, path)
	}

	if len(r.pages) == 0 {
		return nil, fmt.Errorf("%w in %s matching %s", ErrNoSnapshots, dir, pattern)
	}
	return r, nil
}

// DecodeHTML converts page bytes to a UTF-8 string.
//
// A charset declared in contentType wins. Otherwise bytes that are not valid
// UTF-8 are run through a charset detector, falling back to the <meta>
// declaration when the detector is unsure.
func DecodeHTML(data []byte, contentType string) (string, error) {
	_, name, certain := charset.DetermineEncoding(data, contentType)
	if !certain && !utf8.Valid(data) {
		guess, err := chardet.NewHtmlDetector().DetectBest(data)
		if err == nil && guess != nil && guess.Confidence >= minCharsetConfidence {
			name = strings.ToLower(guess.Charset)
		}
	}

	reader, err := charset.NewReaderLabel(name, bytes.NewReader(data))
	if err != nil {
		return string(data), nil //nolint:nilerr // unknown label, keep the bytes as they are
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// Len returns the number of loaded pages.
func (r *Replay) Len() int {
	return len(r.pages)
}

// Files returns the snapshot paths in replay order.
// Pages created with NewReplay have empty paths.
func (r *Replay) Files() []string {
	return r.files
}

// Search rewinds to the first page. The query itself is not used.
func (r *Replay) Search(_ context.Context, query model.Query) error {
	if len(r.pages) == 0 {
		return ErrNoSnapshots
	}
	r.current = 0
	r.searched = true
	r.logger.Debug("replaying snapshots", "surname", query.Surname, "pages", len(r.pages))
	return nil
}

// PageHTML returns the current page.
func (r *Replay) PageHTML(_ context.Context) (string, error) {
	if !r.searched {
		return "", ErrNotSearched
	}
	return r.pages[r.current], nil
}

// HasNextPage reports whether another snapshot follows and the current page
// shows an enabled "Next" link.
func (r *Replay) HasNextPage(_ context.Context) (bool, error) {
	if !r.searched || r.current >= len(r.pages)-1 {
		return false, nil
	}
	return crawler.HasNextControl(r.pages[r.current])
}

// Advance moves to the next snapshot.
func (r *Replay) Advance(_ context.Context) (bool, error) {
	if !r.searched {
		return false, ErrNotSearched
	}
	if r.current >= len(r.pages)-1 {
		return false, nil
	}
	r.current++
	return true, nil
}

var _ crawler.Driver = (*Replay)(nil)
