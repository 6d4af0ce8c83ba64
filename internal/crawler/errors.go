package crawler

import "errors"

// Sentinel errors returned by the collection loop.
var (
	// ErrSearchSubmission is returned when the search form could not be filled
	// or submitted, or when its results never appeared. It is fatal for a run.
	ErrSearchSubmission = errors.New("search submission failed")

	// ErrPageParse is returned when a results page cannot be parsed.
	// The collection loop logs it and treats the page as having no records.
	ErrPageParse = errors.New("results page parse failed")

	// ErrPagination is returned when the "Next" control could not be located
	// or activated. The collection loop treats it as "no next page".
	ErrPagination = errors.New("pagination failed")
)
