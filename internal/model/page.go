package model

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// ResultsPage is one parsed page of search results.
//
// Design decision: We keep the page hash next to the groups because the
// collection loop compares consecutive pages to notice that a "Next" click
// did not navigate anywhere.
type ResultsPage struct {
	// Number is the 1-based page number within the run.
	// The parser leaves it zero; the collection loop assigns it.
	Number int `json:"number"`

	// Groups contains the record groups found on the page in document order.
	Groups []RecordGroup `json:"groups"`

	// Summary is the text of the results summary paragraph, if present
	// (e.g. "Displaying 1 - 20 of 412 results").
	Summary string `json:"summary,omitempty"`

	// Hash is the SHA3-256 hash of the raw page HTML.
	Hash string `json:"hash"`
}

// ComputeHash sets Hash from the raw page content.
// Empty content produces an empty hash.
func (p *ResultsPage) ComputeHash(raw []byte) {
	if len(raw) == 0 {
		p.Hash = ""
		return
	}
	sum := sha3.Sum256(raw)
	p.Hash = hex.EncodeToString(sum[:])
}

// PageStat records what one visited page contributed to a run.
type PageStat struct {
	// Number is the 1-based page number.
	Number int `json:"number"`

	// Groups is the number of record groups found on the page.
	Groups int `json:"groups"`

	// Matched is the number of groups that passed filtering.
	Matched int `json:"matched"`

	// Hash is the page content hash.
	Hash string `json:"hash"`

	// ParseError is set when the page could not be parsed.
	ParseError string `json:"parse_error,omitempty"`
}
