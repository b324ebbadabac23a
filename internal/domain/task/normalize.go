package task

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rpggio/statusboard/internal/cell"
	"github.com/rpggio/statusboard/internal/schema"
	"github.com/rpggio/statusboard/internal/sheet"
)

// Normalizer turns raw task rows into records with derived fields.
type Normalizer struct {
	now    func() time.Time
	logger *slog.Logger
}

func NewNormalizer(now func() time.Time, logger *slog.Logger) *Normalizer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Normalizer{now: now, logger: logger}
}

// Normalize reconciles headers and builds records. An empty table yields no
// records.
func (n *Normalizer) Normalize(t sheet.Table) []Record {
	if t.Empty() {
		return nil
	}
	return n.FromResult(schema.Reconcile(t, Columns))
}

// FromResult builds records from an already reconciled table.
func (n *Normalizer) FromResult(res schema.Result) []Record {
	today := cell.Truncate(n.now())
	out := make([]Record, 0, len(res.Rows))
	for i, row := range res.Rows {
		r := n.parse(i, row, res.Extra)
		n.Derive(&r, today)
		out = append(out, r)
	}
	return out
}

// parse reads stored fields. Status and priority are defaulted, dates that
// do not parse keep their text.
func (n *Normalizer) parse(i int, row sheet.Row, extra []string) (r Record) {
	defer func() {
		if p := recover(); p != nil {
			n.logger.Error("task row normalization failed", "row", i, "error", fmt.Sprint(p))
		}
	}()
	r.ID, r.IDText = parseID(row[ColID])
	r.CreatedOn = cell.NewDate(row[ColCreatedOn])
	r.ReferenceMonth = cell.Text(row[ColReferenceMonth])
	r.Project = cell.Text(row[ColProject])
	r.Description = cell.Text(row[ColDescription])
	r.Assignees = SplitAssignees(row[ColAssignees])
	r.DueDate = cell.NewDate(row[ColDueDate])
	r.Status = cell.Text(row[ColStatus])
	if r.Status == "" {
		r.Status = DefaultStatus
	}
	r.Priority = cell.Text(row[ColPriority])
	if r.Priority == "" {
		r.Priority = DefaultPriority
	}
	r.CompletedOn = cell.NewDate(row[ColCompletedOn])
	r.CompletionNotes = cell.Text(row[ColCompletionNotes])
	if len(extra) > 0 {
		r.Extra = make(map[string]any, len(extra))
		for _, h := range extra {
			if !isDerived(h) {
				r.Extra[h] = row[h]
			}
		}
	}
	return r
}

func parseID(v any) (int, string) {
	if id, ok := cell.Int(v); ok && id > 0 {
		return id, ""
	}
	return 0, cell.Text(v)
}

var errNoDueDate = errors.New("no valid due date")

// Derive recomputes the derived fields of r for the given day. Each field
// is computed on its own so one bad value leaves only that field empty.
func (n *Normalizer) Derive(r *Record, today time.Time) {
	r.DaysRemaining, r.Overdue, r.CompletionDays = nil, false, nil

	if days, err := n.guard(r, "days_remaining", func() (int, error) { return daysRemaining(*r, today) }); err == nil {
		r.DaysRemaining = &days
		r.Overdue = days < 0 && !r.Completed()
	}
	if days, err := n.guard(r, "completion_days", func() (int, error) { return completionDays(*r) }); err == nil {
		r.CompletionDays = &days
	}
}

func (n *Normalizer) guard(r *Record, field string, fn func() (int, error)) (v int, err error) {
	defer func() {
		if p := recover(); p != nil {
			n.logger.Error("task derivation failed", "id", r.ID, "field", field, "error", fmt.Sprint(p))
			err = fmt.Errorf("%s: %v", field, p)
		}
	}()
	return fn()
}

func daysRemaining(r Record, today time.Time) (int, error) {
	if !r.DueDate.Valid {
		return 0, errNoDueDate
	}
	return daysBetween(today, r.DueDate.Time), nil
}

func completionDays(r Record) (int, error) {
	if !r.Completed() {
		return 0, errors.New("not completed")
	}
	if !r.CompletedOn.Valid || !r.CreatedOn.Valid {
		return 0, errors.New("missing completion or creation date")
	}
	return daysBetween(r.CreatedOn.Time, r.CompletedOn.Time), nil
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	a, b = cell.Truncate(a), cell.Truncate(b)
	return int(b.Sub(a).Hours() / 24)
}

func isDerived(header string) bool {
	key := schema.Key(header)
	for _, d := range derivedHeaders {
		if key == schema.Key(d) {
			return true
		}
	}
	return false
}
