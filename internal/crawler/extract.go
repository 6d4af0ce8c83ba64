package crawler

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// birthYearDigits is the exact length of the year segment of a date of birth.
const birthYearDigits = 4

// ParseBirthYear extracts the year from a date such as "01/17/1925".
//
// The text is split on "/" and the last segment is used. It must consist of
// exactly four ASCII digits and at least two segments must be present,
// otherwise 0 is returned. ParseBirthYear never panics.
func ParseBirthYear(text string) int {
	parts := strings.Split(strings.TrimSpace(text), "/")
	if len(parts) < 2 {
		return 0
	}

	last := strings.TrimSpace(parts[len(parts)-1])
	if len(last) != birthYearDigits {
		return 0
	}
	for i := 0; i < len(last); i++ {
		if last[i] < '0' || last[i] > '9' {
			return 0
		}
	}

	year, err := strconv.Atoi(last)
	if err != nil {
		return 0
	}
	return year
}

// SplitName splits "LAST, FIRST MIDDLE" at the first comma.
// Both parts are trimmed. Without a comma the whole trimmed input is the
// last name and the first name is empty.
func SplitName(fullName string) (last, first string) {
	last, first, found := strings.Cut(fullName, ",")
	if !found {
		return strings.TrimSpace(fullName), ""
	}
	return strings.TrimSpace(last), strings.TrimSpace(first)
}

// CleanText normalizes scraped cell text.
//
// The text is converted to Unicode NFKC form, which turns non-breaking spaces
// and full-width characters into their plain equivalents, and then every run
// of whitespace is collapsed to a single space.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
