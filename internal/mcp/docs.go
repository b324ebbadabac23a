package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `statusboard reports on a project-tracking workbook with three sheets: projects (one row per project per month), tasks and the team roster.

Reading:
- dashboard_summary / task_summary return metrics; list_projects / list_tasks return normalized rows.
- filter_options lists the values every filter accepts, plus team members for assignees.
- Every read reports its source: remote or cache is current; stale, snapshot or empty means the remote sheet was unreachable and the data may be old.

Writing (tasks only):
- create_task needs project, reference_month, priority, description, assignees, due_date and status. The ID is assigned.
- edit_task replaces the editable fields of one task. The due date cannot be changed.
- Writes re-read the remote sheet first. If that read fails nothing is written; retry later.

refresh_data reloads every sheet, bypassing the cache.

Docs:
- statusboard://docs/index
- statusboard://docs/tasks
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "statusboard://docs/index",
		Name:        "docs_index",
		Title:       "statusboard docs index",
		Description: "What each sheet holds and how reads degrade.",
		Content: `# statusboard

## Sheets

- projects: one row per project per reporting month. Numeric columns (planned, actual, balance, monthly hours)
  are coerced to numbers; a column whose values look scaled by a power of ten gets corrected.
- tasks: one row per task with an integer ID. Days remaining, overdue and completion days are computed on read
  and never stored.
- roster: team member names.

## Sources

| source   | meaning                                          |
|----------|--------------------------------------------------|
| remote   | read from the spreadsheet just now               |
| cache    | read from the spreadsheet within the cache TTL   |
| stale    | spreadsheet failed; last cached copy             |
| snapshot | spreadsheet failed; last local snapshot          |
| empty    | nothing available                                |

## Projects over time

A project is identified by (project, client). Use latest_only to keep one row per project, its most recent month.
`,
	},
	{
		URI:         "statusboard://docs/tasks",
		Name:        "docs_tasks",
		Title:       "Writing tasks",
		Description: "Required fields, statuses and what a write does.",
		Content: `# Writing tasks

## Required fields

Project, Reference Month, Priority, Description, Assignees, Due Date, Status. A task marked Concluída also needs
completed_on. Missing fields are reported together, in that order.

## Values

- status: Pendente, Em Andamento, Concluída (English spellings are accepted when filtering)
- priority: Baixa, Média, Alta
- dates: YYYY-MM-DD

Any other status or priority is rejected with INVALID_INPUT and listed under details.invalid.

## What a write does

1. Re-reads the tasks sheet from the spreadsheet.
2. Applies the change (new ID = highest ID + 1).
3. Replaces the whole sheet, keeping its column headers and any columns this server does not know.

A write that fails after step 3 started may have partly landed; call refresh_data and check before retrying.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
