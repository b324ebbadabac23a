package testserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/statusboard/internal/dataset"
	"github.com/rpggio/statusboard/internal/events"
	"github.com/rpggio/statusboard/internal/mcp"
	"github.com/rpggio/statusboard/internal/sheet"
	"github.com/rpggio/statusboard/internal/testserver"
)

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	if b.token != "" {
		r.Header.Set("Authorization", "Bearer "+b.token)
	}
	return b.next.RoundTrip(r)
}

func connect(t *testing.T, ts *testserver.TestServer, token string) *sdkmcp.ClientSession {
	t.Helper()
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "e2e", Version: "v0"}, nil)
	cs, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.URL(),
		HTTPClient: &http.Client{Transport: bearer{token: token, next: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func call(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	text := res.Content[0].(*sdkmcp.TextContent).Text
	require.False(t, res.IsError, text)
	require.NoError(t, json.Unmarshal([]byte(text), out))
}

func seed() map[string]sheet.Table {
	return map[string]sheet.Table{
		sheet.Projects: {
			Header: []string{"Mês", "Projeto", "GP Responsável", "Situação", "Previsão", "Real"},
			Rows: []sheet.Row{
				{"Mês": "2025-03-01", "Projeto": "Acme | Portal", "GP Responsável": "Ana", "Situação": "Atrasado", "Previsão": 100, "Real": 80},
				{"Mês": "2025-03-01", "Projeto": "Beta | App", "GP Responsável": "Caio", "Situação": "Em dia", "Previsão": 40, "Real": 10},
			},
		},
		sheet.Roster: {
			Header: []string{"Nome"},
			Rows:   []sheet.Row{{"Nome": "Bia"}, {"Nome": "Ana"}},
		},
		sheet.Tasks: {
			Header: []string{"ID da Ação", "Data de Cadastro", "Mês de Referência", "Projeto", "Descrição da Ação",
				"Responsáveis", "Data Limite", "Status", "Prioridade", "Dias Restantes", "Link"},
			Rows: []sheet.Row{
				{"ID da Ação": 1, "Data de Cadastro": "2025-03-01", "Mês de Referência": "Março", "Projeto": "Acme | Portal",
					"Descrição da Ação": "Kickoff", "Responsáveis": "Ana", "Data Limite": "2025-03-10", "Status": "Pendente",
					"Prioridade": "Alta", "Dias Restantes": 3, "Link": "http://x"},
				{"ID da Ação": 2, "Data de Cadastro": "2025-03-02", "Mês de Referência": "Março", "Projeto": "Beta | App",
					"Descrição da Ação": "Review", "Responsáveis": "Bia", "Data Limite": "2025-03-30", "Status": "Em Andamento",
					"Prioridade": "Baixa"},
			},
		},
	}
}

func today() time.Time {
	return time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
}

func TestEndToEnd_ReadsAndWrites(t *testing.T) {
	ts := testserver.New(t, "secret", seed(), today)
	cs := connect(t, ts, ts.Token)

	var summary mcp.DashboardSummaryResponse
	call(t, cs, "dashboard_summary", map[string]any{}, &summary)
	require.Equal(t, 2, summary.Metrics.Total)
	require.Equal(t, 1, summary.Metrics.Late)
	require.Equal(t, dataset.SourceRemote, summary.Source)

	var opts mcp.FilterOptionsResponse
	call(t, cs, "filter_options", map[string]any{}, &opts)
	require.Equal(t, []string{"Ana", "Bia"}, opts.Members)

	var tasks mcp.TaskSummaryResponse
	call(t, cs, "task_summary", map[string]any{}, &tasks)
	require.Equal(t, 2, tasks.Metrics.Total)
	require.Equal(t, 1, tasks.Metrics.Overdue)

	feed, unsubscribe := ts.Hub.Subscribe()
	defer unsubscribe()

	var created mcp.TaskResponse
	call(t, cs, "create_task", map[string]any{
		"project":         "Acme | Portal",
		"reference_month": "Março",
		"priority":        "Média",
		"description":     "Deploy",
		"assignees":       []string{"Ana", "Bia"},
		"due_date":        "2025-03-20",
		"status":          "Pendente",
	}, &created)
	require.Equal(t, 3, created.Task.ID)
	require.Equal(t, 5, *created.Task.DaysRemaining)

	select {
	case ev := <-feed:
		require.Equal(t, events.TypeWritten, ev.Type)
		require.Equal(t, sheet.Tasks, ev.Dataset)
		require.NotEmpty(t, ev.WriteID)
	case <-time.After(2 * time.Second):
		t.Fatal("no write event")
	}

	stored, err := ts.Workbook.FetchAll(context.Background(), ts.Tabs.Tasks)
	require.NoError(t, err)
	require.Len(t, stored.Rows, 3)
	require.NotContains(t, stored.Header, "Dias Restantes")
	require.Contains(t, stored.Header, "Link")
	last := stored.Rows[2]
	require.Equal(t, float64(3), last["ID da Ação"])
	require.Equal(t, "2025-03-20", last["Data Limite"])
	require.Equal(t, "Ana, Bia", last["Responsáveis"])
	require.Equal(t, "2025-03-15", last["Data de Cadastro"])
	require.Equal(t, "http://x", stored.Rows[0]["Link"])

	var edited mcp.TaskResponse
	call(t, cs, "edit_task", map[string]any{
		"id":              2,
		"project":         "Beta | App",
		"reference_month": "Março",
		"priority":        "Alta",
		"description":     "Review again",
		"assignees":       []string{"Bia"},
		"status":          "Concluída",
		"completed_on":    "2025-03-14",
	}, &edited)
	require.Equal(t, "2025-03-30", edited.Task.DueDate.Format())
	require.Equal(t, 12, *edited.Task.CompletionDays)

	var list mcp.ListTasksResponse
	call(t, cs, "list_tasks", map[string]any{"statuses": []string{"Completed"}}, &list)
	require.Len(t, list.Tasks, 1)
	require.Equal(t, "Review again", list.Tasks[0].Description)

	snap, ok := ts.Snapshots.Load(context.Background(), sheet.Tasks)
	require.True(t, ok)
	require.Len(t, snap.Rows, 3)
}

func TestEndToEnd_RequiresToken(t *testing.T) {
	ts := testserver.New(t, "secret", seed(), today)
	cs := connect(t, ts, "wrong")

	_, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "dashboard_summary", Arguments: map[string]any{}})
	require.Error(t, err)
}

func TestEndToEnd_Health(t *testing.T) {
	ts := testserver.New(t, "secret", seed(), today)
	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
