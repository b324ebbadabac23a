package xlsx

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/sheet"
)

func tasks(n int) sheet.Table {
	t := sheet.Table{Header: []string{"ID da Ação", "Descrição da Ação", "Data Limite"}}
	for i := 1; i <= n; i++ {
		t.Rows = append(t.Rows, sheet.Row{
			"ID da Ação":        i,
			"Descrição da Ação": "task",
			"Data Limite":       "2025-03-14",
		})
	}
	return t
}

func TestReplaceAllCreatesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.xlsx")
	g := New(path, nil)
	ctx := context.Background()

	require.NoError(t, g.ReplaceAll(ctx, "Ações", tasks(3)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Ações"}, f.GetSheetList())
	require.NoError(t, f.Close())

	got, err := g.FetchAll(ctx, "Ações")
	require.NoError(t, err)
	require.Equal(t, tasks(0).Header, got.Header)
	require.Len(t, got.Rows, 3)
	require.Equal(t, float64(2), got.Rows[1]["ID da Ação"])
	require.Equal(t, "2025-03-14", got.Rows[1]["Data Limite"])
}

func TestReplaceAllShrinksTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.xlsx")
	g := New(path, nil)
	ctx := context.Background()

	require.NoError(t, g.ReplaceAll(ctx, "Ações", tasks(5)))
	require.NoError(t, g.ReplaceAll(ctx, "Projetos", sheet.Table{Header: []string{"Projeto"}, Rows: []sheet.Row{{"Projeto": "Acme"}}}))
	require.NoError(t, g.ReplaceAll(ctx, "Ações", tasks(2)))

	got, err := g.FetchAll(ctx, "Ações")
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)

	other, err := g.FetchAll(ctx, "Projetos")
	require.NoError(t, err)
	require.Equal(t, "Acme", other.Rows[0]["Projeto"])
}

func TestFetchAllErrors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := New(filepath.Join(dir, "missing.xlsx"), nil).FetchAll(ctx, "Ações")
	require.ErrorIs(t, err, repository.ErrUnavailable)

	path := filepath.Join(dir, "board.xlsx")
	g := New(path, nil)
	require.NoError(t, g.ReplaceAll(ctx, "Ações", tasks(1)))
	_, err = g.FetchAll(ctx, "Codenautas")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRawValue(t *testing.T) {
	require.Equal(t, "ID", rawValue("ID", true))
	require.Equal(t, "12", rawValue("12", true))
	require.Equal(t, float64(12.5), rawValue("12.5", false))
	require.Equal(t, float64(0), rawValue("0", false))
	require.Equal(t, "007", rawValue("007", false))
	require.Equal(t, "Acme", rawValue("Acme", false))
	require.Equal(t, "", rawValue("", false))
}

func TestWatchReportsWorkbookChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.xlsx")
	g := New(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	require.NoError(t, g.Watch(ctx, func() { changes.Add(1) }))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	require.NoError(t, g.ReplaceAll(context.Background(), "Ações", tasks(1)))

	require.Eventually(t, func() bool { return changes.Load() > 0 }, 5*time.Second, 20*time.Millisecond)
}
