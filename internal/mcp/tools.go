package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/statusboard/internal/cell"
	"github.com/rpggio/statusboard/internal/domain/task"
	"github.com/rpggio/statusboard/internal/report"
)

type toolHandlers struct {
	services Services
	logger   *slog.Logger
}

func registerTools(server *sdkmcp.Server, services Services, logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &toolHandlers{services: services, logger: logger}

	// Projects
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "dashboard_summary",
		Description: "Summary metrics over projects: totals, late and critical counts, distributions, hours and balances",
	}, h.dashboardSummary)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List normalized project records, optionally filtered",
	}, h.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "filter_options",
		Description: "Distinct values offered by the project and task filters, plus team members",
	}, h.filterOptions)

	// Tasks
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "task_summary",
		Description: "Summary metrics over tasks: pending, completed and overdue counts and distributions",
	}, h.taskSummary)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks with derived days remaining, overdue flag and completion days",
	}, h.listTasks)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_task",
		Description: "Create a task. All fields except completion notes are required; the ID is assigned",
	}, h.createTask)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "edit_task",
		Description: "Replace the editable fields of a task. The due date and creation date are kept",
	}, h.editTask)

	// Data
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "refresh_data",
		Description: "Reload every sheet from the remote source, bypassing the cache",
	}, h.refreshData)
}

func (h *toolHandlers) dashboardSummary(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectFilterParams) (*sdkmcp.CallToolResult, any, error) {
	view := h.services.Projects.List(ctx, in.request())
	return jsonResult(DashboardSummaryResponse{
		Metrics:   report.Projects(view.Records),
		Source:    view.Source,
		FetchedAt: timePtr(view.FetchedAt),
	})
}

func (h *toolHandlers) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectFilterParams) (*sdkmcp.CallToolResult, any, error) {
	view := h.services.Projects.List(ctx, in.request())
	return jsonResult(ListProjectsResponse{
		Projects:  view.Records,
		Source:    view.Source,
		FetchedAt: timePtr(view.FetchedAt),
	})
}

func (h *toolHandlers) filterOptions(ctx context.Context, _ *sdkmcp.CallToolRequest, in FilterOptionsParams) (*sdkmcp.CallToolResult, any, error) {
	resp := FilterOptionsResponse{
		Projects: h.services.Projects.Options(ctx),
		Tasks:    h.services.Tasks.Options(ctx),
	}
	if h.services.Roster != nil {
		resp.Members = h.services.Roster.Members(ctx, in.Force)
	}
	return jsonResult(resp)
}

func (h *toolHandlers) taskSummary(ctx context.Context, _ *sdkmcp.CallToolRequest, in TaskFilterParams) (*sdkmcp.CallToolResult, any, error) {
	view := h.services.Tasks.List(ctx, in.request())
	return jsonResult(TaskSummaryResponse{
		Metrics:   report.Tasks(view.Records),
		Source:    view.Source,
		FetchedAt: timePtr(view.FetchedAt),
	})
}

func (h *toolHandlers) listTasks(ctx context.Context, _ *sdkmcp.CallToolRequest, in TaskFilterParams) (*sdkmcp.CallToolResult, any, error) {
	view := h.services.Tasks.List(ctx, in.request())
	return jsonResult(ListTasksResponse{
		Tasks:     view.Records,
		Source:    view.Source,
		FetchedAt: timePtr(view.FetchedAt),
	})
}

func (h *toolHandlers) createTask(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateTaskParams) (*sdkmcp.CallToolResult, any, error) {
	due, err := parseDate("due_date", in.DueDate)
	if err != nil {
		return toolError(err)
	}
	completed, err := parseDate("completed_on", in.CompletedOn)
	if err != nil {
		return toolError(err)
	}
	rec, err := h.services.Tasks.Create(ctx, task.CreateInput{
		Fields: task.Fields{
			Project:         in.Project,
			ReferenceMonth:  in.ReferenceMonth,
			Priority:        in.Priority,
			Description:     in.Description,
			Assignees:       in.Assignees,
			Status:          in.Status,
			CompletedOn:     completed,
			CompletionNotes: in.CompletionNotes,
		},
		DueDate: due,
	})
	if err != nil {
		h.logger.Warn("create_task failed", "error", err)
		return toolError(err)
	}
	return jsonResult(TaskResponse{Task: rec})
}

func (h *toolHandlers) editTask(ctx context.Context, _ *sdkmcp.CallToolRequest, in EditTaskParams) (*sdkmcp.CallToolResult, any, error) {
	completed, err := parseDate("completed_on", in.CompletedOn)
	if err != nil {
		return toolError(err)
	}
	rec, err := h.services.Tasks.Edit(ctx, in.ID, task.Fields{
		Project:         in.Project,
		ReferenceMonth:  in.ReferenceMonth,
		Priority:        in.Priority,
		Description:     in.Description,
		Assignees:       in.Assignees,
		Status:          in.Status,
		CompletedOn:     completed,
		CompletionNotes: in.CompletionNotes,
	})
	if err != nil {
		h.logger.Warn("edit_task failed", "id", in.ID, "error", err)
		return toolError(err)
	}
	return jsonResult(TaskResponse{Task: rec})
}

func (h *toolHandlers) refreshData(ctx context.Context, _ *sdkmcp.CallToolRequest, _ RefreshDataParams) (*sdkmcp.CallToolResult, any, error) {
	results := h.services.Refresher.RefreshAll(ctx)
	resp := RefreshDataResponse{Datasets: make([]DatasetStatus, 0, len(results))}
	for name, res := range results {
		resp.Datasets = append(resp.Datasets, DatasetStatus{
			Dataset:   name,
			Source:    res.Source,
			Rows:      len(res.Table.Rows),
			FetchedAt: timePtr(res.FetchedAt),
		})
	}
	sort.Slice(resp.Datasets, func(i, j int) bool {
		return resp.Datasets[i].Dataset < resp.Datasets[j].Dataset
	})
	return jsonResult(resp)
}

// parseDate reads an optional date argument. Blank is absent; anything
// else must parse.
func parseDate(field, s string) (cell.Date, error) {
	d := cell.NewDate(s)
	if !d.IsZero() && !d.Valid {
		return cell.Date{}, fmt.Errorf("%w: %s %q", errInvalidDate, field, s)
	}
	return d, nil
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func toolError(err error) (*sdkmcp.CallToolResult, any, error) {
	data, _ := json.Marshal(MapError(err))
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
