package task

import (
	"slices"
	"sort"
)

// Filter selects tasks. An empty list matches everything; a task matches
// Assignees when any of its assignees is listed. Statuses and priorities
// compare canonically.
type Filter struct {
	ReferenceMonths []string `json:"reference_months,omitempty"`
	Projects        []string `json:"projects,omitempty"`
	Assignees       []string `json:"assignees,omitempty"`
	Statuses        []string `json:"statuses,omitempty"`
	Priorities      []string `json:"priorities,omitempty"`
	OverdueOnly     bool     `json:"overdue_only,omitempty"`
}

func (f Filter) Match(r Record) bool {
	if f.OverdueOnly && !r.Overdue {
		return false
	}
	if len(f.ReferenceMonths) > 0 && !slices.Contains(f.ReferenceMonths, r.ReferenceMonth) {
		return false
	}
	if len(f.Projects) > 0 && !slices.Contains(f.Projects, r.Project) {
		return false
	}
	if len(f.Assignees) > 0 && !slices.ContainsFunc(r.Assignees, func(a string) bool {
		return slices.Contains(f.Assignees, a)
	}) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.ContainsFunc(f.Statuses, func(s string) bool {
		return CanonicalStatus(s) == CanonicalStatus(r.Status)
	}) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.ContainsFunc(f.Priorities, func(p string) bool {
		return CanonicalPriority(p) == CanonicalPriority(r.Priority)
	}) {
		return false
	}
	return true
}

// Apply returns the tasks matching f, keeping their order.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Options lists the distinct values offered for each filter.
type Options struct {
	ReferenceMonths []string `json:"reference_months"`
	Projects        []string `json:"projects"`
	Assignees       []string `json:"assignees"`
	Statuses        []string `json:"statuses"`
	Priorities      []string `json:"priorities"`
}

// FilterOptions collects sorted unique filter values. Reference months keep
// their first-seen order since they are free text.
func FilterOptions(records []Record) Options {
	var opts Options
	seen := map[string]map[string]bool{}
	add := func(kind string, dst *[]string, v string) {
		if v == "" {
			return
		}
		if seen[kind] == nil {
			seen[kind] = make(map[string]bool)
		}
		if !seen[kind][v] {
			seen[kind][v] = true
			*dst = append(*dst, v)
		}
	}
	for _, r := range records {
		add("month", &opts.ReferenceMonths, r.ReferenceMonth)
		add("project", &opts.Projects, r.Project)
		for _, a := range r.Assignees {
			add("assignee", &opts.Assignees, a)
		}
		add("status", &opts.Statuses, r.Status)
		add("priority", &opts.Priorities, r.Priority)
	}
	sort.Strings(opts.Projects)
	sort.Strings(opts.Assignees)
	sort.Strings(opts.Statuses)
	sort.Strings(opts.Priorities)
	return opts
}
