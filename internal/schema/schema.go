// Package schema reconciles drifting spreadsheet headers against a
// declarative column table.
package schema

import (
	"strconv"
	"strings"

	"github.com/rpggio/statusboard/internal/sheet"
)

// NotInformed fills categorical fields that have no value.
const NotInformed = "Not Informed"

// Kind is the target type of a column.
type Kind int

const (
	Text Kind = iota
	Number
	Date
	List
)

// Column declares one canonical column. Aliases are tried in order and win
// over a header spelled exactly like Name.
type Column struct {
	Name    string
	Aliases []string
	Kind    Kind
	Default any
}

// Columns is an ordered column table.
type Columns []Column

// Names returns the canonical names in declaration order.
func (cs Columns) Names() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

// Lookup finds a column by canonical name.
func (cs Columns) Lookup(name string) (Column, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// OfKind returns the columns of kind k.
func (cs Columns) OfKind(k Kind) Columns {
	var out Columns
	for _, c := range cs {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether header names c or one of its aliases.
func (c Column) Matches(header string) bool {
	key := Key(header)
	if key == Key(c.Name) {
		return true
	}
	for _, a := range c.Aliases {
		if key == Key(a) {
			return true
		}
	}
	return false
}

// Key normalizes a header for comparison.
func Key(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

// Result is a reconciled table.
type Result struct {
	// Header lists canonical columns first, then the unmapped ones.
	Header []string
	Rows   []sheet.Row
	// Sources maps a canonical name to the header it was read from.
	Sources map[string]string
	// Sides maps a displaced header to the side name it now lives under.
	Sides map[string]string
	// Synthesized lists canonical columns absent from the input.
	Synthesized []string
	// Extra lists output headers that are not canonical, in input order.
	Extra []string
}

// Reconcile maps t onto columns. When more than one input header resolves
// to the same canonical column, the first alias wins and the others are
// kept under "<Name>_temp" side names so no value is overwritten. Columns
// with no input header are synthesized from their Default.
func Reconcile(t sheet.Table, columns Columns) Result {
	res := Result{
		Sources: make(map[string]string),
		Sides:   make(map[string]string),
	}

	rename := make(map[string]string, len(t.Header))
	claimed := make(map[string]bool, len(t.Header))
	taken := make(map[string]bool, len(t.Header)+len(columns))
	for _, h := range t.Header {
		taken[h] = true
	}
	for _, c := range columns {
		taken[c.Name] = true
	}

	for _, c := range columns {
		candidates := candidatesFor(t.Header, c, claimed)
		if len(candidates) == 0 {
			res.Synthesized = append(res.Synthesized, c.Name)
			continue
		}
		winner := candidates[0]
		rename[winner] = c.Name
		claimed[winner] = true
		res.Sources[c.Name] = winner
		for _, loser := range candidates[1:] {
			side := sideName(c.Name, taken)
			taken[side] = true
			rename[loser] = side
			claimed[loser] = true
			res.Sides[loser] = side
		}
	}

	res.Header = append(res.Header, columns.Names()...)
	canonical := make(map[string]bool, len(columns))
	for _, c := range columns {
		canonical[c.Name] = true
	}
	for _, h := range t.Header {
		out, ok := rename[h]
		if !ok {
			out = h
		}
		if canonical[out] {
			continue
		}
		res.Header = append(res.Header, out)
		res.Extra = append(res.Extra, out)
	}

	res.Rows = make([]sheet.Row, len(t.Rows))
	for i, in := range t.Rows {
		row := make(sheet.Row, len(res.Header))
		for _, h := range t.Header {
			out, ok := rename[h]
			if !ok {
				out = h
			}
			row[out] = in[h]
		}
		for _, name := range res.Synthesized {
			c, _ := columns.Lookup(name)
			row[name] = c.Default
		}
		res.Rows[i] = row
	}
	return res
}

// candidatesFor lists unclaimed headers that resolve to c: aliases in
// declaration order, then the canonical spelling.
func candidatesFor(header []string, c Column, claimed map[string]bool) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(key string) {
		for _, h := range header {
			if claimed[h] || seen[h] || Key(h) != key {
				continue
			}
			seen[h] = true
			out = append(out, h)
		}
	}
	for _, a := range c.Aliases {
		add(Key(a))
	}
	add(Key(c.Name))
	return out
}

func sideName(name string, taken map[string]bool) string {
	side := name + "_temp"
	for n := 2; taken[side]; n++ {
		side = name + "_temp" + strconv.Itoa(n)
	}
	return side
}

// HeaderFor returns the header under which canonical should be written:
// the input spelling when the input had one, else the canonical name.
func (r Result) HeaderFor(canonical string) string {
	if src, ok := r.Sources[canonical]; ok {
		return src
	}
	return canonical
}

// OriginalFor returns the input header an output header was read from. It
// undoes side names so a write keeps the remote spelling.
func (r Result) OriginalFor(output string) string {
	if src, ok := r.Sources[output]; ok {
		return src
	}
	for orig, side := range r.Sides {
		if side == output {
			return orig
		}
	}
	return output
}
