package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/nao1215/gravescan/internal/crawler"
	"github.com/nao1215/gravescan/internal/model"
)

// Element selectors of the locator search form and results.
const (
	selectorLastName      = "#lname"
	selectorLastNameMatch = "#lnameopt"
	selectorFirstName     = "#fname"
	selectorSearchButton  = "#searchb"
	selectorResults       = "#searchResults"

	// beginsWithOption is the #lnameopt option selecting "begins with".
	beginsWithOption = `option[value="2"]`
)

// Options configures a browser Session.
type Options struct {
	// BaseURL is the locator search page.
	BaseURL string

	// Bin is the browser executable. Empty lets rod find or download one.
	Bin string

	// Headless hides the browser window.
	Headless bool

	// UserAgent overrides the browser's User-Agent when not empty.
	UserAgent string

	// WindowWidth and WindowHeight set the window size when both are positive.
	WindowWidth  int
	WindowHeight int

	// PageTimeout bounds every wait for an element or navigation.
	PageTimeout time.Duration

	// SettleDelay is slept after submitting the search or clicking "Next",
	// before the results table is awaited.
	SettleDelay time.Duration

	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
}

// Session is one browser with one tab open on the locator.
// It implements crawler.Driver.
//
// Design decision: A session is launched once per command invocation and
// reused for every surname, so the browser start-up cost is paid once.
// Callers must Close it on every exit path.
type Session struct {
	opts     Options
	logger   *slog.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	searched bool
}

// Launch starts a browser and opens an empty tab.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	l := launcher.New().Context(ctx).Headless(opts.Headless)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		l = l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("%w: connect: %w", ErrLaunch, err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("%w: open tab: %w", ErrLaunch, err)
	}

	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			logger.Warn("could not override user agent", "error", err)
		}
	}

	logger.Debug("browser launched", "headless", opts.Headless, "control_url", controlURL)

	return &Session{
		opts:     opts,
		logger:   logger,
		launcher: l,
		browser:  b,
		page:     page,
	}, nil
}

// Close shuts the browser down and removes its temporary profile.
// It is safe to call more than once.
func (s *Session) Close() error {
	if s == nil || s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.launcher.Cleanup()
	s.browser = nil
	s.page = nil
	return err
}

// SetTiming changes the page timeout and settle delay for the following
// searches. Zero values keep the current setting. Not safe for concurrent use.
func (s *Session) SetTiming(pageTimeout, settleDelay time.Duration) {
	if pageTimeout > 0 {
		s.opts.PageTimeout = pageTimeout
	}
	if settleDelay > 0 {
		s.opts.SettleDelay = settleDelay
	}
}

// bounded returns the tab bound to ctx and the page timeout.
func (s *Session) bounded(ctx context.Context) (*rod.Page, context.CancelFunc) {
	if s.opts.PageTimeout <= 0 {
		return s.page.Context(ctx), func() {}
	}
	tctx, cancel := context.WithTimeout(ctx, s.opts.PageTimeout)
	return s.page.Context(tctx), cancel
}

// Search opens the locator, types the surname, picks "begins with" and
// submits the form, then waits for the results table.
func (s *Session) Search(ctx context.Context, query model.Query) error {
	if s.page == nil {
		return fmt.Errorf("%w: session closed", ErrLaunch)
	}
	s.searched = false

	if err := s.fillForm(ctx, query); err != nil {
		return err
	}
	if err := sleep(ctx, s.opts.SettleDelay); err != nil {
		return err
	}

	p, cancel := s.bounded(ctx)
	defer cancel()
	if _, err := p.Element(selectorResults); err != nil {
		return fmt.Errorf("waiting for results: %w", err)
	}

	s.searched = true
	s.logger.Debug("search submitted", "surname", query.Surname)
	return nil
}

func (s *Session) fillForm(ctx context.Context, query model.Query) error {
	p, cancel := s.bounded(ctx)
	defer cancel()

	if err := p.Navigate(s.opts.BaseURL); err != nil {
		return fmt.Errorf("navigate to %s: %w", s.opts.BaseURL, err)
	}

	lname, err := p.Element(selectorLastName)
	if err != nil {
		return fmt.Errorf("last name field: %w", err)
	}
	_ = lname.SelectAllText()
	if err := lname.Input(query.Surname); err != nil {
		return fmt.Errorf("type surname: %w", err)
	}

	if query.MatchMode == model.MatchBeginsWith {
		opt, err := p.Element(selectorLastNameMatch)
		if err != nil {
			return fmt.Errorf("last name match option: %w", err)
		}
		if err := opt.Select([]string{beginsWithOption}, true, rod.SelectorTypeCSSSector); err != nil {
			return fmt.Errorf("select begins with: %w", err)
		}
	}

	button, err := p.Element(selectorSearchButton)
	if err != nil {
		return fmt.Errorf("search button: %w", err)
	}

	// The button stays disabled until a form field loses focus.
	if disabled, _ := button.Attribute("disabled"); disabled != nil {
		if fname, err := p.Element(selectorFirstName); err == nil {
			_ = fname.Click(proto.InputMouseButtonLeft, 1)
		}
	}

	if err := clickElement(button); err != nil {
		return fmt.Errorf("click search: %w", err)
	}
	return nil
}

// PageHTML returns the rendered HTML of the current tab.
func (s *Session) PageHTML(ctx context.Context) (string, error) {
	if !s.searched {
		return "", ErrNotSearched
	}
	p, cancel := s.bounded(ctx)
	defer cancel()
	return p.HTML()
}

// HasNextPage reports whether an enabled and visible "Next" link exists.
func (s *Session) HasNextPage(ctx context.Context) (bool, error) {
	content, err := s.PageHTML(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", crawler.ErrPagination, err)
	}
	ctrl, err := crawler.FindNextControl(content)
	if err != nil {
		return false, err
	}
	if ctrl == nil || !ctrl.Enabled {
		return false, nil
	}

	p, cancel := s.bounded(ctx)
	defer cancel()
	els, err := p.ElementsX(ctrl.XPath)
	if err != nil {
		return false, fmt.Errorf("%w: %w", crawler.ErrPagination, err)
	}
	if len(els) == 0 {
		return false, nil
	}
	visible, err := els[0].Visible()
	if err != nil {
		return false, fmt.Errorf("%w: %w", crawler.ErrPagination, err)
	}
	return visible, nil
}

// Advance clicks "Next" and waits for the results table. A results table
// that does not reappear in time is logged and still counts as advanced.
func (s *Session) Advance(ctx context.Context) (bool, error) {
	if !s.searched {
		return false, ErrNotSearched
	}

	if err := s.clickNext(ctx); err != nil {
		return false, err
	}
	if err := sleep(ctx, s.opts.SettleDelay); err != nil {
		return false, err
	}

	p, cancel := s.bounded(ctx)
	defer cancel()
	if _, err := p.Element(selectorResults); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		s.logger.Warn("results did not reappear after advancing, continuing", "error", err)
	}
	return true, nil
}

func (s *Session) clickNext(ctx context.Context) error {
	p, cancel := s.bounded(ctx)
	defer cancel()

	for _, expr := range []string{crawler.NextPageXPath, crawler.FallbackNextPageXPath} {
		els, err := p.ElementsX(expr)
		if err != nil {
			return fmt.Errorf("%w: %w", crawler.ErrPagination, err)
		}
		if len(els) == 0 {
			continue
		}
		_ = els[0].ScrollIntoView()
		if err := clickElement(els[0]); err != nil {
			return fmt.Errorf("%w: %w", crawler.ErrPagination, err)
		}
		return nil
	}
	return fmt.Errorf("%w: next link not found", crawler.ErrPagination)
}

// clickElement clicks with the mouse and falls back to a script click when
// the element is covered by another one.
func clickElement(el *rod.Element) error {
	err := el.Click(proto.InputMouseButtonLeft, 1)
	if err == nil {
		return nil
	}
	if _, evalErr := el.Eval(`() => this.click()`); evalErr != nil {
		return errors.Join(err, evalErr)
	}
	return nil
}

// sleep waits for d unless ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ crawler.Driver = (*Session)(nil)
