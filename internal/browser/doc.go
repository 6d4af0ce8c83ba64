// Package browser provides the page drivers used by the collection loop.
//
// Session drives a real Chromium instance through go-rod and talks to the
// Nationwide Gravesite Locator. Replay serves HTML snapshots saved by an
// earlier run, so parsing and pagination can be re-run offline. CheckSite is
// a lightweight reachability preflight done before a browser is launched.
//
// Both drivers satisfy crawler.Driver.
package browser
