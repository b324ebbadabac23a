// Package report computes summary metrics over normalized records.
package report

import (
	"math"
	"sort"
	"strings"

	"github.com/rpggio/statusboard/internal/domain/project"
	"github.com/rpggio/statusboard/internal/domain/task"
)

// Status and financial values counted by the project metrics.
var (
	lateStatuses = []string{"late", "atrasado"}
	paidStates   = []string{"paid", "quitado"}
)

const (
	topPlanned   = 10
	balanceLimit = 15
	balanceHead  = 7
	balanceTail  = 8
)

// Count is the number of records sharing a label.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthCount is a count for one month. Month sorts chronologically when
// it parsed ("2025-04"); Label is the display form.
type MonthCount struct {
	Month string `json:"month"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
}

// Hours compares planned and actual hours of a project.
type Hours struct {
	Project string  `json:"project"`
	Client  string  `json:"client"`
	Planned float64 `json:"planned"`
	Actual  float64 `json:"actual"`
}

// Balance is the accumulated hour balance of a project.
type Balance struct {
	Project string  `json:"project"`
	Client  string  `json:"client"`
	Balance float64 `json:"balance"`
}

// CoordinationLate counts late projects per coordination.
type CoordinationLate struct {
	Coordination string  `json:"coordination"`
	Total        int     `json:"total"`
	Late         int     `json:"late"`
	Percent      float64 `json:"percent"`
}

// ProjectMetrics summarizes project records.
type ProjectMetrics struct {
	Total          int                `json:"total"`
	Clients        int                `json:"clients"`
	Late           int                `json:"late"`
	Critical       int                `json:"critical"`
	ByStatus       []Count            `json:"by_status"`
	ByFinancial    []Count            `json:"by_financial"`
	BySatisfaction []Count            `json:"by_satisfaction"`
	BySegment      []Count            `json:"by_segment"`
	ByManager      []Count            `json:"by_manager"`
	TopPlanned     []Hours            `json:"top_planned"`
	Balances       []Balance          `json:"balances"`
	LateByCoord    []CoordinationLate `json:"late_by_coordination"`
	PaidPerMonth   []MonthCount       `json:"paid_per_month"`
	LatePerMonth   []MonthCount       `json:"late_per_month"`
}

// Projects computes project metrics. Empty input yields zero metrics.
func Projects(records []project.Record) ProjectMetrics {
	m := ProjectMetrics{Total: len(records)}
	if len(records) == 0 {
		return m
	}

	clients := make(map[string]bool)
	var status, financial, satisfaction, segment, manager []string
	for _, r := range records {
		clients[r.Client] = true
		if IsLate(r) {
			m.Late++
		}
		if r.Critical() {
			m.Critical++
		}
		status = append(status, r.Status)
		financial = append(financial, r.Financial)
		satisfaction = append(satisfaction, r.SatisfactionLabel)
		segment = append(segment, r.Segment)
		manager = append(manager, r.Manager)
	}
	m.Clients = len(clients)
	m.ByStatus = countBy(status)
	m.ByFinancial = countBy(financial)
	m.BySatisfaction = countBy(satisfaction)
	m.BySegment = countBy(segment)
	m.ByManager = countBy(manager)
	m.TopPlanned = topByPlanned(records, topPlanned)
	m.Balances = balances(records)
	m.LateByCoord = lateByCoordination(records)
	m.PaidPerMonth = perMonth(records, isPaid)
	m.LatePerMonth = perMonth(records, IsLate)
	return m
}

// IsLate reports whether the project status marks it late.
func IsLate(r project.Record) bool {
	return oneOf(r.Status, lateStatuses)
}

func isPaid(r project.Record) bool {
	return oneOf(r.Financial, paidStates)
}

func oneOf(v string, set []string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// countBy counts labels, most frequent first. Blank labels are skipped.
func countBy(labels []string) []Count {
	counts := make(map[string]int)
	for _, l := range labels {
		if l == "" {
			continue
		}
		counts[l]++
	}
	out := make([]Count, 0, len(counts))
	for l, n := range counts {
		out = append(out, Count{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func topByPlanned(records []project.Record, n int) []Hours {
	sorted := make([]project.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Planned > sorted[j].Planned
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]Hours, len(sorted))
	for i, r := range sorted {
		out[i] = Hours{Project: r.Project, Client: r.Client, Planned: r.Planned, Actual: r.Actual}
	}
	return out
}

// balances ranks non-zero balances ascending. Long rankings keep the seven
// most negative and the eight most positive.
func balances(records []project.Record) []Balance {
	var out []Balance
	for _, r := range records {
		if r.Balance != 0 {
			out = append(out, Balance{Project: r.Project, Client: r.Client, Balance: r.Balance})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Balance < out[j].Balance
	})
	if len(out) > balanceLimit {
		trimmed := make([]Balance, 0, balanceHead+balanceTail)
		trimmed = append(trimmed, out[:balanceHead]...)
		trimmed = append(trimmed, out[len(out)-balanceTail:]...)
		out = trimmed
	}
	return out
}

func lateByCoordination(records []project.Record) []CoordinationLate {
	index := make(map[string]int)
	var out []CoordinationLate
	for _, r := range records {
		i, ok := index[r.Coordination]
		if !ok {
			i = len(out)
			index[r.Coordination] = i
			out = append(out, CoordinationLate{Coordination: r.Coordination})
		}
		out[i].Total++
		if IsLate(r) {
			out[i].Late++
		}
	}
	for i := range out {
		out[i].Percent = percent(out[i].Late, out[i].Total)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Coordination < out[j].Coordination
	})
	return out
}

// perMonth counts records matching keep per month. Every month present in
// records is listed, with zero when nothing matched.
func perMonth(records []project.Record, keep func(project.Record) bool) []MonthCount {
	index := make(map[string]int)
	var out []MonthCount
	for _, r := range records {
		i, ok := index[r.YearMonth]
		if !ok {
			i = len(out)
			index[r.YearMonth] = i
			out = append(out, MonthCount{Month: r.YearMonth, Label: r.MonthLabel})
		}
		if keep(r) {
			out[i].Count++
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month < out[j].Month
	})
	return out
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// TaskMetrics summarizes task records.
type TaskMetrics struct {
	Total          int          `json:"total"`
	Pending        int          `json:"pending"`
	Completed      int          `json:"completed"`
	Overdue        int          `json:"overdue"`
	ByStatus       []Count      `json:"by_status"`
	ByPriority     []Count      `json:"by_priority"`
	ByAssignee     []Count      `json:"by_assignee"`
	CreatedByMonth []MonthCount `json:"created_by_month"`
}

// Tasks computes task metrics. Pending counts everything not completed.
// Statuses and priorities are counted by canonical value, so English and
// Portuguese spellings share a bucket.
func Tasks(records []task.Record) TaskMetrics {
	m := TaskMetrics{Total: len(records)}
	var status, priority, assignees []string
	created := make(map[string]int)
	for _, r := range records {
		if r.Completed() {
			m.Completed++
		} else {
			m.Pending++
		}
		if r.Overdue {
			m.Overdue++
		}
		status = append(status, string(task.CanonicalStatus(r.Status)))
		priority = append(priority, string(task.CanonicalPriority(r.Priority)))
		assignees = append(assignees, r.Assignees...)
		if r.CreatedOn.Valid {
			created[r.CreatedOn.Time.Format("2006-01")]++
		}
	}
	m.ByStatus = countBy(status)
	m.ByPriority = countBy(priority)
	m.ByAssignee = countBy(assignees)
	for month, n := range created {
		m.CreatedByMonth = append(m.CreatedByMonth, MonthCount{Month: month, Count: n})
	}
	sort.Slice(m.CreatedByMonth, func(i, j int) bool {
		return m.CreatedByMonth[i].Month < m.CreatedByMonth[j].Month
	})
	return m
}
