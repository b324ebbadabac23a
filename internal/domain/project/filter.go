package project

import (
	"slices"
	"sort"
)

// Filter selects records by categorical fields. An empty list matches
// everything. Months match the formatted month label.
type Filter struct {
	Months        []string `json:"months,omitempty"`
	Managers      []string `json:"managers,omitempty"`
	Statuses      []string `json:"statuses,omitempty"`
	Segments      []string `json:"segments,omitempty"`
	Types         []string `json:"types,omitempty"`
	Coordinations []string `json:"coordinations,omitempty"`
	Financials    []string `json:"financials,omitempty"`
}

// Match reports whether r passes every non-empty criterion.
func (f Filter) Match(r Record) bool {
	return in(f.Months, r.MonthLabel) &&
		in(f.Managers, r.Manager) &&
		in(f.Statuses, r.Status) &&
		in(f.Segments, r.Segment) &&
		in(f.Types, r.Type) &&
		in(f.Coordinations, r.Coordination) &&
		in(f.Financials, r.Financial)
}

// Apply returns the records matching f, keeping their order.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func in(set []string, v string) bool {
	return len(set) == 0 || slices.Contains(set, v)
}

// Options lists the distinct values offered for each filter.
type Options struct {
	Months        []string `json:"months"`
	Managers      []string `json:"managers"`
	Statuses      []string `json:"statuses"`
	Segments      []string `json:"segments"`
	Types         []string `json:"types"`
	Coordinations []string `json:"coordinations"`
	Financials    []string `json:"financials"`
}

// FilterOptions collects sorted unique filter values. Months are ordered
// chronologically, unparsed ones last.
func FilterOptions(records []Record) Options {
	yearMonths := make(map[string]string)
	months := unique(records, func(r Record) string {
		yearMonths[r.MonthLabel] = r.YearMonth
		return r.MonthLabel
	})
	sort.SliceStable(months, func(i, j int) bool {
		a, b := months[i], months[j]
		return monthKey(a, yearMonths[a]) < monthKey(b, yearMonths[b])
	})
	return Options{
		Months:        months,
		Managers:      sorted(unique(records, func(r Record) string { return r.Manager })),
		Statuses:      sorted(unique(records, func(r Record) string { return r.Status })),
		Segments:      sorted(unique(records, func(r Record) string { return r.Segment })),
		Types:         sorted(unique(records, func(r Record) string { return r.Type })),
		Coordinations: sorted(unique(records, func(r Record) string { return r.Coordination })),
		Financials:    sorted(unique(records, func(r Record) string { return r.Financial })),
	}
}

func unique(records []Record, field func(Record) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range records {
		v := field(r)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func sorted(values []string) []string {
	sort.Strings(values)
	return values
}

// monthKey sorts parsed months ("2025-04") before raw text.
func monthKey(label, yearMonth string) string {
	if yearMonth != label {
		return "0" + yearMonth
	}
	return "1" + label
}

// Latest keeps the most recent month of every (project, client) pair, in
// order of first appearance. Parsed months beat unparsed ones; on a tie the
// later row wins.
func Latest(records []Record) []Record {
	type key struct{ project, client string }
	index := make(map[key]int)
	var out []Record
	for _, r := range records {
		k := key{r.Project, r.Client}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, r)
			continue
		}
		if !newer(out[i], r) {
			out[i] = r
		}
	}
	return out
}

// newer reports whether a is strictly more recent than b.
func newer(a, b Record) bool {
	switch {
	case a.MonthDate == nil:
		return false
	case b.MonthDate == nil:
		return true
	}
	return a.MonthDate.After(*b.MonthDate)
}
