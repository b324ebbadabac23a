package task

import (
	"github.com/rpggio/statusboard/internal/schema"
	"github.com/rpggio/statusboard/internal/sheet"
)

// NextID returns one more than the largest parsed ID, or 1.
func NextID(records []Record) int {
	highest := 0
	for _, r := range records {
		if r.ID > highest {
			highest = r.ID
		}
	}
	return highest + 1
}

// Payload builds the full table to write back. Headers follow the remote
// layout in res: canonical columns under the spelling the remote used, or
// the workbook spelling when absent, then the remote's other columns.
// Derived fields are never included. Dates are written as YYYY-MM-DD,
// unparseable dates as their original text and absent ones as "".
func Payload(records []Record, res schema.Result) sheet.Table {
	t := sheet.Table{}
	for _, c := range Columns {
		t.Header = append(t.Header, headerFor(res, c))
	}
	var extra []string
	for _, h := range res.Extra {
		if !isDerived(h) {
			extra = append(extra, h)
			t.Header = append(t.Header, res.OriginalFor(h))
		}
	}

	t.Rows = make([]sheet.Row, 0, len(records))
	for _, r := range records {
		row := make(sheet.Row, len(t.Header))
		for i, v := range r.values() {
			row[t.Header[i]] = v
		}
		for i, h := range extra {
			row[t.Header[len(Columns)+i]] = r.Extra[h]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// values returns the stored fields in Columns order.
func (r Record) values() []any {
	var id any = r.IDText
	if r.ID > 0 {
		id = r.ID
	}
	return []any{
		id,
		r.CreatedOn.Format(),
		r.ReferenceMonth,
		r.Project,
		r.Description,
		JoinAssignees(r.Assignees),
		r.DueDate.Format(),
		r.Status,
		r.Priority,
		r.CompletedOn.Format(),
		r.CompletionNotes,
	}
}

func headerFor(res schema.Result, c schema.Column) string {
	if src, ok := res.Sources[c.Name]; ok {
		return src
	}
	if len(c.Aliases) > 0 {
		return c.Aliases[0]
	}
	return c.Name
}
