package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rpggio/statusboard/internal/dataset"
	"github.com/rpggio/statusboard/internal/report"
)

const (
	ColorAccent   = "#04B575"
	ColorWarning  = "#FFA500"
	ColorMuted    = "#808080"
	ColorBorder   = "#5A56E0"
	maxCountsRows = 5
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted)).Width(22)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Padding(0, 1)
)

// renderRefresh lists each dataset with where its data came from.
func renderRefresh(results map[string]dataset.Result, now time.Time) string {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{titleStyle.Render("Datasets")}
	for _, name := range names {
		res := results[name]
		source := string(res.Source)
		if res.Source.Degraded() {
			source = warnStyle.Render(source)
		}
		fetched := "never"
		if !res.FetchedAt.IsZero() {
			fetched = humanize.RelTime(res.FetchedAt, now, "ago", "from now")
		}
		lines = append(lines, fmt.Sprintf("%s %-9s %s rows, fetched %s",
			labelStyle.Render(name), source, humanize.Comma(int64(len(res.Table.Rows))), fetched))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// renderProjects prints the headline project metrics.
func renderProjects(m report.ProjectMetrics, source dataset.Source) string {
	lines := []string{
		titleStyle.Render("Projects") + sourceNote(source),
		field("Rows", humanize.Comma(int64(m.Total))),
		field("Clients", humanize.Comma(int64(m.Clients))),
		field("Late", humanize.Comma(int64(m.Late))),
		field("Critical", humanize.Comma(int64(m.Critical))),
	}
	lines = append(lines, counts("By status", m.ByStatus)...)
	lines = append(lines, counts("By manager", m.ByManager)...)
	if len(m.TopPlanned) > 0 {
		top := m.TopPlanned[0]
		lines = append(lines, field("Most planned hours",
			fmt.Sprintf("%s (%s h)", top.Project, humanize.CommafWithDigits(top.Planned, 1))))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// renderTasks prints the headline task metrics.
func renderTasks(m report.TaskMetrics, source dataset.Source) string {
	overdue := humanize.Comma(int64(m.Overdue))
	if m.Overdue > 0 {
		overdue = warnStyle.Render(overdue)
	}
	lines := []string{
		titleStyle.Render("Tasks") + sourceNote(source),
		field("Total", humanize.Comma(int64(m.Total))),
		field("Pending", humanize.Comma(int64(m.Pending))),
		field("Completed", humanize.Comma(int64(m.Completed))),
		field("Overdue", overdue),
	}
	lines = append(lines, counts("By priority", m.ByPriority)...)
	lines = append(lines, counts("By assignee", m.ByAssignee)...)
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func sourceNote(source dataset.Source) string {
	if source.Degraded() {
		return " " + warnStyle.Render("("+string(source)+" data)")
	}
	return ""
}

func field(label, value string) string {
	return labelStyle.Render(label) + value
}

func counts(label string, cs []report.Count) []string {
	if len(cs) == 0 {
		return nil
	}
	lines := []string{labelStyle.Render(label)}
	for i, c := range cs {
		if i == maxCountsRows {
			lines = append(lines, fmt.Sprintf("  … %d more", len(cs)-maxCountsRows))
			break
		}
		lines = append(lines, fmt.Sprintf("  %-20s %s", c.Label, humanize.Comma(int64(c.Count))))
	}
	return lines
}
