package crawler

import "github.com/nao1215/gravescan/internal/model"

// Filter turns record groups into person records.
// A group yields a record only when it has a name, a rank and branch and a
// date of birth, and its birth year is at least MinBirthYear.
type Filter struct {
	// MinBirthYear is the inclusive lower bound on the birth year.
	MinBirthYear int
}

// Apply normalizes every qualifying group, keeping document order.
// Groups that do not qualify are dropped without error.
func (f Filter) Apply(groups []model.RecordGroup) []model.PersonRecord {
	records := make([]model.PersonRecord, 0, len(groups))
	for i := range groups {
		if rec, ok := f.Normalize(&groups[i]); ok {
			records = append(records, rec)
		}
	}
	return records
}

// Normalize converts one group. ok is false when the group is dropped.
func (f Filter) Normalize(g *model.RecordGroup) (rec model.PersonRecord, ok bool) {
	name := g.Get(model.LabelName)
	rankBranch := g.Get(model.LabelRankBranch)
	dob := g.Get(model.LabelDateOfBirth)
	if name == "" || rankBranch == "" || dob == "" {
		return model.PersonRecord{}, false
	}

	year := ParseBirthYear(dob)
	if year < f.MinBirthYear {
		return model.PersonRecord{}, false
	}

	last, first := SplitName(name)
	return model.PersonRecord{
		FullName:    name,
		LastName:    last,
		FirstName:   first,
		RankBranch:  rankBranch,
		DateOfBirth: dob,
		BirthYear:   year,
	}, true
}
