// Package crawler collects burial records from the Nationwide Gravesite
// Locator results pages.
//
// # Architecture
//
// The package is built leaf first:
//
//   - Field extraction: ParseBirthYear, SplitName and CleanText
//   - Parser: turns one results page into record groups, using item-number
//     markers as group boundaries
//   - Filter: turns groups into PersonRecord values under the birth year
//     threshold and required field rules
//   - FindNextControl: locates the "Next" pagination link in a snapshot
//   - Spider: the collection loop driving a Driver through
//     SEARCHING -> PAGING -> DONE | ABORTED
//
// The browser is hidden behind the Driver interface. The live implementation
// lives in internal/browser; tests use in-memory fakes.
//
// # Usage
//
//	spider := crawler.NewSpider(session,
//		crawler.WithMaxPages(5),
//		crawler.WithMinBirthYear(1980),
//	)
//	result, err := spider.Collect(ctx, model.Query{Surname: "MICHAEL", MatchMode: model.MatchBeginsWith})
//
// # Politeness
//
// Pages are visited one at a time. WithDelay adds a pause between pages and
// the page limit bounds the total number of requests of a run.
package crawler
