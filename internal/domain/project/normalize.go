package project

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/statusboard/internal/cell"
	"github.com/rpggio/statusboard/internal/schema"
	"github.com/rpggio/statusboard/internal/sheet"
)

var monthLabels = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

var satisfactionLabels = map[string]string{
	"promotor":  "😀",
	"promoter":  "😀",
	"neutro":    "😐",
	"neutral":   "😐",
	"detrator":  "😡",
	"detractor": "😡",
}

var criticalKeywords = []string{"crítico", "critical"}

// magnitudeColumns hold hours or balances that sometimes arrive scaled up
// by an export error.
var magnitudeColumns = []string{ColPlanned, ColActual, ColBalance, ColMonthlyHours}

const (
	outlierFactor   = 10
	outlierMaxShare = 0.2
	clientDelimiter = "|"
)

// Normalizer turns raw projects rows into records. A failure while
// processing one column is logged and leaves that column at its default.
type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Normalizer{logger: logger}
}

// Normalize reconciles headers, parses months, fills categorical blanks,
// flags critical projects, labels satisfaction, coerces and repairs numeric
// columns and extracts client names.
func (n *Normalizer) Normalize(t sheet.Table) []Record {
	if t.Empty() {
		return nil
	}
	res := schema.Reconcile(t, Columns)
	if len(res.Sides) > 0 {
		n.logger.Info("project columns kept aside", "sides", res.Sides)
	}

	out := make([]Record, len(res.Rows))
	for i := range out {
		out[i] = Record{
			Month:        schema.NotInformed,
			MonthLabel:   schema.NotInformed,
			YearMonth:    schema.NotInformed,
			Project:      schema.NotInformed,
			Client:       ClientUnknown,
			Manager:      schema.NotInformed,
			Status:       schema.NotInformed,
			Segment:      schema.NotInformed,
			Type:         schema.NotInformed,
			Coordination: schema.NotInformed,
			Financial:    schema.NotInformed,
			Priority:     PriorityNormal,
		}
	}

	n.each(res.Rows, out, ColMonth, func(r *Record, v any) { r.setMonth(v) })
	n.each(res.Rows, out, ColProject, func(r *Record, v any) {
		r.Project = textOr(v, schema.NotInformed)
		r.Client = clientOf(v)
	})
	n.each(res.Rows, out, ColManager, func(r *Record, v any) { r.Manager = textOr(v, schema.NotInformed) })
	n.each(res.Rows, out, ColStatus, func(r *Record, v any) { r.Status = textOr(v, schema.NotInformed) })
	n.each(res.Rows, out, ColSegment, func(r *Record, v any) { r.Segment = textOr(v, schema.NotInformed) })
	n.each(res.Rows, out, ColType, func(r *Record, v any) { r.Type = textOr(v, schema.NotInformed) })
	n.each(res.Rows, out, ColCoordination, func(r *Record, v any) { r.Coordination = textOr(v, schema.NotInformed) })
	n.each(res.Rows, out, ColFinancial, func(r *Record, v any) { r.Financial = textOr(v, schema.NotInformed) })
	n.each(res.Rows, out, ColDecisions, func(r *Record, v any) {
		r.Decisions = cell.Text(v)
		r.Priority = priorityOf(r.Decisions)
	})
	n.each(res.Rows, out, ColSatisfaction, func(r *Record, v any) {
		r.Satisfaction = cell.Text(v)
		r.SatisfactionLabel = satisfactionLabel(r.Satisfaction)
	})
	n.each(res.Rows, out, ColNotes, func(r *Record, v any) { r.Notes = cell.Text(v) })
	n.each(res.Rows, out, ColDelayDays, func(r *Record, v any) {
		if d, ok := cell.Int(v); ok {
			r.DelayDays = d
		}
	})

	n.each(res.Rows, out, ColCorrected, func(r *Record, v any) { r.Corrected = splitList(cell.Text(v)) })

	for _, col := range magnitudeColumns {
		settled := make(map[int]bool)
		for i := range out {
			if slices.Contains(out[i].Corrected, col) {
				settled[i] = true
			}
		}
		values, fixed := n.numbers(res.Rows, col, settled)
		for i, v := range values {
			if math.IsNaN(v) {
				v = 0
			}
			setNumber(&out[i], col, v)
		}
		for _, i := range fixed {
			out[i].Corrected = append(out[i].Corrected, col)
		}
	}

	if len(res.Extra) > 0 {
		for i, row := range res.Rows {
			out[i].Extra = make(map[string]any, len(res.Extra))
			for _, h := range res.Extra {
				out[i].Extra[h] = row[h]
			}
		}
	}
	return out
}

// each applies fn to every row's value of column, isolating panics per row.
func (n *Normalizer) each(rows []sheet.Row, out []Record, column string, fn func(*Record, any)) {
	for i, row := range rows {
		func() {
			defer func() {
				if p := recover(); p != nil {
					n.logger.Error("project field normalization failed", "column", column, "row", i, "error", fmt.Sprint(p))
				}
			}()
			fn(&out[i], row[column])
		}()
	}
}

// numbers coerces column to floats, NaN marking unparseable cells, then
// applies magnitude correction to rows not already settled. It returns the
// values and the rows it corrected. A failure in correction keeps the
// coerced values.
func (n *Normalizer) numbers(rows []sheet.Row, column string, settled map[int]bool) ([]float64, []int) {
	values := make([]float64, len(rows))
	for i, row := range rows {
		f, ok := cell.Float(row[column])
		if !ok {
			f = math.NaN()
		}
		values[i] = f
	}

	var fixed []int
	func() {
		defer func() {
			if p := recover(); p != nil {
				n.logger.Error("magnitude correction failed", "column", column, "error", fmt.Sprint(p))
			}
		}()
		corrected := CorrectMagnitudeSettled(values, settled)
		if corrected.Divisor != 0 {
			n.logger.Warn("magnitude correction applied",
				"column", column, "divisor", corrected.Divisor, "rows", corrected.Rows, "median", corrected.Median)
			values = corrected.Values
			fixed = corrected.Rows
		}
	}()
	return values, fixed
}

// Correction describes the outcome of CorrectMagnitude. Divisor is zero when
// nothing was changed.
type Correction struct {
	Values  []float64
	Median  float64
	Divisor float64
	Rows    []int
}

// CorrectMagnitude is a lossy repair for values stored with spurious extra
// digits. Values above ten times the column median are suspect; if suspects
// exist but make up less than 20% of all rows, each is divided by a factor
// picked from the largest suspect (over 1e6: 10000, over 1e5: 1000, over
// 1e4: 100, else 10). NaN entries are ignored for the median and never
// corrected. On its own it is not idempotent, since a corrected value may
// still be suspect on a second pass; see CorrectMagnitudeSettled.
func CorrectMagnitude(values []float64) Correction {
	return CorrectMagnitudeSettled(values, nil)
}

// CorrectMagnitudeSettled is CorrectMagnitude with the rows in settled
// treated as already repaired: they count toward the median but are never
// suspects. The normalizer records repaired rows in ColCorrected so a
// second pass over its own output changes nothing.
func CorrectMagnitudeSettled(values []float64, settled map[int]bool) Correction {
	out := Correction{Values: slices.Clone(values)}
	var parsed []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			parsed = append(parsed, v)
		}
	}
	if len(parsed) == 0 {
		return out
	}
	out.Median = median(parsed)
	threshold := out.Median * outlierFactor

	peak := math.Inf(-1)
	for i, v := range values {
		if !math.IsNaN(v) && !settled[i] && v > threshold {
			out.Rows = append(out.Rows, i)
			peak = math.Max(peak, v)
		}
	}
	if len(out.Rows) == 0 || float64(len(out.Rows)) >= float64(len(values))*outlierMaxShare {
		out.Rows = nil
		return out
	}

	switch {
	case peak > 1_000_000:
		out.Divisor = 10_000
	case peak > 100_000:
		out.Divisor = 1_000
	case peak > 10_000:
		out.Divisor = 100
	default:
		out.Divisor = 10
	}
	for _, i := range out.Rows {
		out.Values[i] = values[i] / out.Divisor
	}
	return out
}

func median(values []float64) float64 {
	s := slices.Clone(values)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func setNumber(r *Record, column string, v float64) {
	switch column {
	case ColPlanned:
		r.Planned = v
	case ColActual:
		r.Actual = v
	case ColBalance:
		r.Balance = v
	case ColMonthlyHours:
		r.MonthlyHours = v
	}
}

// splitList splits a comma-separated cell, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setMonth keeps the raw month and, when it parses, the derived label and
// year-month key. Unparsed months use the raw text for both.
func (r *Record) setMonth(v any) {
	raw := textOr(v, schema.NotInformed)
	r.Month = raw
	r.MonthLabel = raw
	r.YearMonth = raw
	t, ok := parseMonth(v)
	if !ok {
		return
	}
	t = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	r.MonthDate = &t
	r.MonthLabel = MonthLabel(t)
	r.YearMonth = t.Format("2006-01")
}

// MonthLabel formats t as "Abr/2025".
func MonthLabel(t time.Time) string {
	return monthLabels[t.Month()-1] + "/" + strconv.Itoa(t.Year())
}

func parseMonth(v any) (time.Time, bool) {
	if t, ok := cell.ParseTime(v); ok {
		return t, true
	}
	return parseMonthLabel(cell.Text(v))
}

// parseMonthLabel reads labels produced by MonthLabel back.
func parseMonthLabel(s string) (time.Time, bool) {
	name, year, ok := strings.Cut(s, "/")
	if !ok {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1900 {
		return time.Time{}, false
	}
	for i, label := range monthLabels {
		if strings.EqualFold(strings.TrimSpace(name), label) {
			return time.Date(y, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func textOr(v any, fallback string) string {
	if s := cell.Text(v); s != "" {
		return s
	}
	return fallback
}

// clientOf returns the text before the first "|" of a project name.
func clientOf(v any) string {
	name := cell.Text(v)
	if name == "" || strings.EqualFold(name, schema.NotInformed) {
		return ClientUnknown
	}
	client, _, _ := strings.Cut(name, clientDelimiter)
	return strings.TrimSpace(client)
}

func priorityOf(decisions string) string {
	lower := strings.ToLower(decisions)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return PriorityCritical
		}
	}
	return PriorityNormal
}

// satisfactionLabel appends the marker for known categories and passes
// anything else through.
func satisfactionLabel(s string) string {
	if s == "" {
		return ""
	}
	if marker, ok := satisfactionLabels[strings.ToLower(s)]; ok {
		return s + " " + marker
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
