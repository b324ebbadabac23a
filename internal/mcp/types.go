package mcp

import (
	"time"

	"github.com/rpggio/statusboard/internal/dataset"
	"github.com/rpggio/statusboard/internal/domain/project"
	"github.com/rpggio/statusboard/internal/domain/task"
	"github.com/rpggio/statusboard/internal/report"
)

type ProjectFilterParams struct {
	Months        []string `json:"months,omitempty" jsonschema:"reporting month labels such as Abr/2025"`
	Managers      []string `json:"managers,omitempty"`
	Statuses      []string `json:"statuses,omitempty"`
	Segments      []string `json:"segments,omitempty"`
	Types         []string `json:"types,omitempty"`
	Coordinations []string `json:"coordinations,omitempty"`
	Financials    []string `json:"financials,omitempty"`
	LatestOnly    bool     `json:"latest_only,omitempty" jsonschema:"keep only the most recent month of each project"`
	Force         bool     `json:"force,omitempty" jsonschema:"bypass the cache and read the remote sheet"`
}

func (p ProjectFilterParams) request() project.ListRequest {
	return project.ListRequest{
		Filter: project.Filter{
			Months:        p.Months,
			Managers:      p.Managers,
			Statuses:      p.Statuses,
			Segments:      p.Segments,
			Types:         p.Types,
			Coordinations: p.Coordinations,
			Financials:    p.Financials,
		},
		LatestOnly: p.LatestOnly,
		Force:      p.Force,
	}
}

type TaskFilterParams struct {
	ReferenceMonths []string `json:"reference_months,omitempty"`
	Projects        []string `json:"projects,omitempty"`
	Assignees       []string `json:"assignees,omitempty"`
	Statuses        []string `json:"statuses,omitempty"`
	Priorities      []string `json:"priorities,omitempty"`
	OverdueOnly     bool     `json:"overdue_only,omitempty"`
	Force           bool     `json:"force,omitempty" jsonschema:"bypass the cache and read the remote sheet"`
}

func (p TaskFilterParams) request() task.ListRequest {
	return task.ListRequest{
		Filter: task.Filter{
			ReferenceMonths: p.ReferenceMonths,
			Projects:        p.Projects,
			Assignees:       p.Assignees,
			Statuses:        p.Statuses,
			Priorities:      p.Priorities,
			OverdueOnly:     p.OverdueOnly,
		},
		Force: p.Force,
	}
}

type FilterOptionsParams struct {
	Force bool `json:"force,omitempty"`
}

type CreateTaskParams struct {
	Project         string   `json:"project,omitempty"`
	ReferenceMonth  string   `json:"reference_month,omitempty"`
	Priority        string   `json:"priority,omitempty" jsonschema:"Baixa, Média or Alta"`
	Description     string   `json:"description,omitempty"`
	Assignees       []string `json:"assignees,omitempty"`
	DueDate         string   `json:"due_date,omitempty" jsonschema:"due date, YYYY-MM-DD; cannot be changed later"`
	Status          string   `json:"status,omitempty" jsonschema:"Pendente, Em Andamento or Concluída"`
	CompletedOn     string   `json:"completed_on,omitempty" jsonschema:"completion date, YYYY-MM-DD"`
	CompletionNotes string   `json:"completion_notes,omitempty"`
}

type EditTaskParams struct {
	ID              int      `json:"id" jsonschema:"task ID"`
	Project         string   `json:"project,omitempty"`
	ReferenceMonth  string   `json:"reference_month,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	Description     string   `json:"description,omitempty"`
	Assignees       []string `json:"assignees,omitempty"`
	Status          string   `json:"status,omitempty"`
	CompletedOn     string   `json:"completed_on,omitempty" jsonschema:"completion date, YYYY-MM-DD"`
	CompletionNotes string   `json:"completion_notes,omitempty"`
}

type RefreshDataParams struct{}

type DashboardSummaryResponse struct {
	Metrics   report.ProjectMetrics `json:"metrics"`
	Source    dataset.Source        `json:"source"`
	FetchedAt *time.Time            `json:"fetched_at,omitempty"`
}

type ListProjectsResponse struct {
	Projects  []project.Record `json:"projects"`
	Source    dataset.Source   `json:"source"`
	FetchedAt *time.Time       `json:"fetched_at,omitempty"`
}

type FilterOptionsResponse struct {
	Projects project.Options `json:"projects"`
	Tasks    task.Options    `json:"tasks"`
	Members  []string        `json:"members"`
}

type TaskSummaryResponse struct {
	Metrics   report.TaskMetrics `json:"metrics"`
	Source    dataset.Source     `json:"source"`
	FetchedAt *time.Time         `json:"fetched_at,omitempty"`
}

type ListTasksResponse struct {
	Tasks     []task.Record  `json:"tasks"`
	Source    dataset.Source `json:"source"`
	FetchedAt *time.Time     `json:"fetched_at,omitempty"`
}

type TaskResponse struct {
	Task task.Record `json:"task"`
}

type DatasetStatus struct {
	Dataset   string         `json:"dataset"`
	Source    dataset.Source `json:"source"`
	Rows      int            `json:"rows"`
	FetchedAt *time.Time     `json:"fetched_at,omitempty"`
}

type RefreshDataResponse struct {
	Datasets []DatasetStatus `json:"datasets"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
