// Package sheet holds the raw table shape exchanged with spreadsheet stores.
package sheet

import (
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/statusboard/internal/cell"
)

// Dataset names shared by the cache, the snapshot store and the gateways.
const (
	Projects = "projects"
	Roster   = "roster"
	Tasks    = "tasks"
)

// Row maps header strings to raw cell values.
type Row map[string]any

// Table is an ordered header plus rows keyed by that header.
type Table struct {
	Header []string `json:"header"`
	Rows   []Row    `json:"rows"`
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Has reports whether name is a header of t.
func (t Table) Has(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// Clone copies the header and every row map.
func (t Table) Clone() Table {
	out := Table{Header: append([]string(nil), t.Header...)}
	if t.Rows != nil {
		out.Rows = make([]Row, len(t.Rows))
	}
	for i, row := range t.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// Values flattens the table into header-ordered rows, header first. Times
// become ISO dates and missing cells become "" since spreadsheets have no null.
func (t Table) Values() [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	out = append(out, header)
	for _, row := range t.Rows {
		vals := make([]any, len(t.Header))
		for i, h := range t.Header {
			vals[i] = writable(row[h])
		}
		out = append(out, vals)
	}
	return out
}

func writable(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return cell.FormatTime(x)
	case cell.Date:
		return x.Format()
	case float64:
		if cell.Blank(x) {
			return ""
		}
	}
	return v
}

// FromValues builds a table from a header row followed by data rows. Blank
// trailing rows are dropped, short rows are padded with nil and repeated
// header names get a ".N" suffix so no column is lost.
func FromValues(values [][]any) Table {
	if len(values) == 0 {
		return Table{}
	}
	header := uniqueHeader(values[0])
	t := Table{Header: header}
	for _, raw := range values[1:] {
		if blankRow(raw) {
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			if i < len(raw) {
				row[h] = emptyToNil(raw[i])
			} else {
				row[h] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func uniqueHeader(raw []any) []string {
	seen := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, v := range raw {
		name := cell.String(v)
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

func blankRow(raw []any) bool {
	for _, v := range raw {
		if s, ok := v.(string); ok {
			if strings.TrimSpace(s) != "" {
				return false
			}
			continue
		}
		if v != nil {
			return false
		}
	}
	return true
}

func emptyToNil(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}
