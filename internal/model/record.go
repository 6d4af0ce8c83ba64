package model

import (
	"strconv"
	"strings"
)

// Labels of the fields a PersonRecord is built from.
// They are stored in canonical form (no trailing colon).
const (
	LabelName        = "Name"
	LabelRankBranch  = "Rank & Branch"
	LabelDateOfBirth = "Date of Birth"
)

// ExportColumns is the fixed column order of exported records.
var ExportColumns = []string{
	"Last_Name",
	"First_Name",
	"Full_Name",
	"Rank_Branch",
	"Date_of_Birth",
	"Birth_Year",
}

// Cell is one label/value pair scraped from a table row.
type Cell struct {
	// Label is the free text label, usually ending in ":" (e.g. "Name:").
	Label string `json:"label"`

	// Value is the text of the cell paired with the label.
	Value string `json:"value"`
}

// RawRow is the ordered sequence of label/value pairs found in one <tr>.
type RawRow []Cell

// RecordGroup collects all label/value pairs that belong to one person.
// A group starts at a row carrying an item-number marker and ends at the next
// marker or at a separator row.
//
// Keys of Fields are canonical labels (see CanonicalLabel), so "Name" and
// "Name:" address the same entry. Later writes to a label overwrite earlier ones.
type RecordGroup struct {
	// Number is the item number printed in the marker cell.
	// Zero if the marker text was not numeric.
	Number int `json:"number"`

	// Fields maps canonical labels to values.
	Fields map[string]string `json:"fields"`
}

// NewRecordGroup creates an empty group with the given item number.
func NewRecordGroup(number int) *RecordGroup {
	return &RecordGroup{
		Number: number,
		Fields: make(map[string]string),
	}
}

// Set stores value under the canonical form of label.
// Empty labels or values are ignored.
func (g *RecordGroup) Set(label, value string) {
	key := CanonicalLabel(label)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	if g.Fields == nil {
		g.Fields = make(map[string]string)
	}
	g.Fields[key] = value
}

// Get returns the value stored under label.
// The lookup tolerates a trailing colon on either side.
func (g *RecordGroup) Get(label string) string {
	if g == nil || g.Fields == nil {
		return ""
	}
	return g.Fields[CanonicalLabel(label)]
}

// Len returns the number of fields in the group.
func (g *RecordGroup) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Fields)
}

// CanonicalLabel trims surrounding whitespace and trailing colons from a label.
func CanonicalLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.TrimRight(label, ":")
	return strings.TrimSpace(label)
}

// PersonRecord is one burial record that passed filtering.
type PersonRecord struct {
	// FullName is the name as printed by the site, typically "LAST, FIRST MIDDLE".
	FullName string `json:"full_name"`

	// LastName is the part of FullName before the first comma.
	LastName string `json:"last_name"`

	// FirstName is the part of FullName after the first comma, or empty.
	FirstName string `json:"first_name"`

	// RankBranch is the "Rank & Branch" value (e.g. "SGT US ARMY").
	RankBranch string `json:"rank_branch"`

	// DateOfBirth is the raw date of birth, expected as MM/DD/YYYY.
	DateOfBirth string `json:"date_of_birth"`

	// BirthYear is the year parsed from DateOfBirth, 0 if unparseable.
	BirthYear int `json:"birth_year"`
}

// Row renders the record in ExportColumns order.
func (r PersonRecord) Row() []string {
	return []string{
		r.LastName,
		r.FirstName,
		r.FullName,
		r.RankBranch,
		r.DateOfBirth,
		strconv.Itoa(r.BirthYear),
	}
}

// Key identifies a person across runs.
// Two records with the same name and date of birth are considered the same person.
func (r PersonRecord) Key() string {
	return strings.ToUpper(r.FullName) + "|" + r.DateOfBirth
}
