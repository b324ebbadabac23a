package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/statusboard/internal/cell"
	"github.com/rpggio/statusboard/internal/schema"
	"github.com/rpggio/statusboard/internal/sheet"
)

var today = time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return today }

func remoteHeader() []string {
	return []string{
		"ID da Ação", "Data de Cadastro", "Mês de Referência", "Projeto", "Descrição da Ação",
		"Responsáveis", "Data Limite", "Status", "Prioridade", "Data de Conclusão",
		"Observações de Conclusão", "Dias Restantes", "Link",
	}
}

func remoteTasks() sheet.Table {
	return sheet.Table{
		Header: remoteHeader(),
		Rows: []sheet.Row{
			{"ID da Ação": float64(1), "Data de Cadastro": "2025-03-01", "Mês de Referência": "Março", "Projeto": "Acme | Portal",
				"Descrição da Ação": "Kickoff", "Responsáveis": "Ana, Bia", "Data Limite": "2025-03-14", "Status": "Pendente",
				"Prioridade": "Alta", "Dias Restantes": float64(3), "Link": "http://x"},
			{"ID da Ação": float64(2), "Data de Cadastro": "01/03/2025", "Mês de Referência": "Março", "Projeto": "Beta",
				"Descrição da Ação": "Deliver", "Responsáveis": "Caio", "Data Limite": "2025-03-14", "Status": "Concluída",
				"Prioridade": nil, "Data de Conclusão": "2025-03-11"},
			{"ID da Ação": "5", "Projeto": "Beta", "Descrição da Ação": "Someday", "Responsáveis": " , ", "Data Limite": "soon",
				"Status": nil},
		},
	}
}

func TestNormalize_Fields(t *testing.T) {
	records := NewNormalizer(fixedNow, nil).Normalize(remoteTasks())
	require.Len(t, records, 3)

	first := records[0]
	require.Equal(t, 1, first.ID)
	require.Equal(t, []string{"Ana", "Bia"}, first.Assignees)
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), first.CreatedOn.Time)
	require.Equal(t, "Alta", first.Priority)
	require.Equal(t, PriorityHigh, CanonicalPriority(first.Priority))
	require.Equal(t, map[string]any{"Link": "http://x"}, first.Extra)

	second := records[1]
	require.Equal(t, DefaultPriority, second.Priority)
	require.True(t, second.Completed())

	third := records[2]
	require.Equal(t, 5, third.ID)
	require.Equal(t, DefaultStatus, third.Status)
	require.Empty(t, third.Assignees)
	require.False(t, third.DueDate.Valid)
	require.Equal(t, "soon", third.DueDate.Raw)
	require.True(t, third.CreatedOn.IsZero())
}

func TestNormalize_Overdue(t *testing.T) {
	records := NewNormalizer(fixedNow, nil).Normalize(remoteTasks())

	// due yesterday and pending
	require.NotNil(t, records[0].DaysRemaining)
	require.Equal(t, -1, *records[0].DaysRemaining)
	require.True(t, records[0].Overdue)

	// due yesterday but completed
	require.Equal(t, -1, *records[1].DaysRemaining)
	require.False(t, records[1].Overdue)

	// no usable due date
	require.Nil(t, records[2].DaysRemaining)
	require.False(t, records[2].Overdue)
}

func TestNormalize_CompletionDays(t *testing.T) {
	records := NewNormalizer(fixedNow, nil).Normalize(remoteTasks())

	require.Nil(t, records[0].CompletionDays)
	require.NotNil(t, records[1].CompletionDays)
	require.Equal(t, 10, *records[1].CompletionDays)
	require.Nil(t, records[2].CompletionDays)
}

func TestNormalize_OverdueNeverWithoutDueDate(t *testing.T) {
	n := NewNormalizer(fixedNow, nil)
	for _, status := range []string{"Pendente", "Em Andamento", "Concluída", "whatever"} {
		r := Record{Status: status}
		n.Derive(&r, cell.Truncate(today))
		require.False(t, r.Overdue, status)
		require.Nil(t, r.DaysRemaining, status)
	}
}

func TestNormalize_EmptyTable(t *testing.T) {
	require.Nil(t, NewNormalizer(fixedNow, nil).Normalize(sheet.Table{Header: remoteHeader()}))
}

func TestDueDateRoundTrip(t *testing.T) {
	n := NewNormalizer(fixedNow, nil)
	records := []Record{
		{ID: 1, Description: "dated", DueDate: cell.DateOf(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))},
		{ID: 2, Description: "undated"},
	}
	payload := Payload(records, schema.Reconcile(sheet.Table{}, Columns))
	require.Equal(t, "2025-03-14", payload.Rows[0]["Data Limite"])
	require.Equal(t, "", payload.Rows[1]["Data Limite"])

	back := n.Normalize(payload)
	require.True(t, back[0].DueDate.Valid)
	require.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), back[0].DueDate.Time)
	require.True(t, back[1].DueDate.IsZero())
	require.Nil(t, back[1].DaysRemaining)
}

func TestCanonical(t *testing.T) {
	require.Equal(t, StatusInProgress, CanonicalStatus(" em andamento "))
	require.Equal(t, StatusCompleted, CanonicalStatus("Concluída"))
	require.Equal(t, Status("Blocked"), CanonicalStatus("Blocked"))
	require.Equal(t, PriorityMedium, CanonicalPriority("Média"))
	require.Equal(t, PriorityLow, CanonicalPriority("low"))
}

func TestDateColumnNames(t *testing.T) {
	names := DateColumnNames()
	require.Contains(t, names, "Data Limite")
	require.Contains(t, names, "Data de Cadastro")
	require.Contains(t, names, "Data de Conclusão")
	require.Contains(t, names, ColDueDate)
}
