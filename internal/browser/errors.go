package browser

import "errors"

// Browser and site errors.
var (
	// ErrLaunch is returned when the browser could not be started or connected.
	ErrLaunch = errors.New("browser launch failed")

	// ErrSiteUnreachable is returned when no HTTP response came back from the site.
	ErrSiteUnreachable = errors.New("locator site unreachable")

	// ErrSiteTimeout is returned when the preflight request timed out.
	ErrSiteTimeout = errors.New("timeout reaching locator site")

	// ErrSiteUnavailable is returned when the site answered with an error status.
	ErrSiteUnavailable = errors.New("locator site returned an error status")

	// ErrNoSnapshots is returned when a replay directory holds no HTML pages.
	ErrNoSnapshots = errors.New("no HTML snapshots found")

	// ErrNotSearched is returned when a page is requested before Search.
	ErrNotSearched = errors.New("search has not been submitted")
)

// SiteStatus is the result of the reachability preflight.
type SiteStatus int

const (
	// SiteStatusOK means the site answered with a success or redirect status.
	SiteStatusOK SiteStatus = iota

	// SiteStatusUnavailable means the site answered with a 4xx or 5xx status.
	SiteStatusUnavailable

	// SiteStatusUnreachable means the connection failed.
	SiteStatusUnreachable

	// SiteStatusTimeout means the request did not finish in time.
	SiteStatusTimeout
)

// String returns a human-readable description of the status.
func (s SiteStatus) String() string {
	switch s {
	case SiteStatusOK:
		return "OK"
	case SiteStatusUnavailable:
		return "unavailable"
	case SiteStatusUnreachable:
		return "unreachable"
	case SiteStatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error returns the error matching the status, or nil if OK.
func (s SiteStatus) Error() error {
	switch s {
	case SiteStatusOK:
		return nil
	case SiteStatusUnavailable:
		return ErrSiteUnavailable
	case SiteStatusUnreachable:
		return ErrSiteUnreachable
	case SiteStatusTimeout:
		return ErrSiteTimeout
	default:
		return ErrSiteUnreachable
	}
}
