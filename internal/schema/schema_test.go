package schema

import (
	"testing"

	"github.com/rpggio/statusboard/internal/sheet"
	"github.com/stretchr/testify/require"
)

var testColumns = Columns{
	{Name: "Project", Aliases: []string{"Projeto"}, Kind: Text, Default: NotInformed},
	{Name: "Planned", Aliases: []string{"Planned Hours (Contract)", "Horas Previstas (Contrato)", "Previsão"}, Kind: Number, Default: 0.0},
	{Name: "Satisfaction", Aliases: []string{"NPS"}, Kind: Text, Default: ""},
}

func TestReconcile_AliasCollisionKeepsBothValues(t *testing.T) {
	in := sheet.Table{
		Header: []string{"Projeto", "Planned", "Planned Hours (Contract)"},
		Rows: []sheet.Row{
			{"Projeto": "ACME | Portal", "Planned": 50.0, "Planned Hours (Contract)": 100.0},
		},
	}

	res := Reconcile(in, testColumns)

	require.Equal(t, 100.0, res.Rows[0]["Planned"])
	require.Equal(t, 50.0, res.Rows[0]["Planned_temp"])
	require.Equal(t, map[string]string{"Planned": "Planned_temp"}, res.Sides)
	require.Equal(t, "Planned Hours (Contract)", res.Sources["Planned"])
	require.Equal(t, []string{"Project", "Planned", "Satisfaction", "Planned_temp"}, res.Header)
	require.Equal(t, []string{"Planned_temp"}, res.Extra)
}

func TestReconcile_TrimsAndIgnoresCase(t *testing.T) {
	in := sheet.Table{
		Header: []string{" NPS ", "PROJETO"},
		Rows:   []sheet.Row{{" NPS ": "Promotor", "PROJETO": "X"}},
	}

	res := Reconcile(in, testColumns)

	require.Equal(t, "Promotor", res.Rows[0]["Satisfaction"])
	require.Equal(t, "X", res.Rows[0]["Project"])
	require.Equal(t, " NPS ", res.HeaderFor("Satisfaction"))
	require.Equal(t, []string{"Planned"}, res.Synthesized)
	require.Equal(t, 0.0, res.Rows[0]["Planned"])
}

func TestReconcile_SynthesizesDefaults(t *testing.T) {
	in := sheet.Table{Header: []string{"Other"}, Rows: []sheet.Row{{"Other": 1}}}

	res := Reconcile(in, testColumns)

	require.Equal(t, NotInformed, res.Rows[0]["Project"])
	require.Equal(t, "", res.Rows[0]["Satisfaction"])
	require.Equal(t, 1, res.Rows[0]["Other"])
	require.Equal(t, "Planned", res.HeaderFor("Planned"))
}

func TestReconcile_Idempotent(t *testing.T) {
	in := sheet.Table{
		Header: []string{"Projeto", "Previsão", "Horas Previstas (Contrato)", "NPS"},
		Rows: []sheet.Row{
			{"Projeto": "A", "Previsão": 10.0, "Horas Previstas (Contrato)": 12.0, "NPS": "Neutro"},
		},
	}

	first := Reconcile(in, testColumns)
	second := Reconcile(sheet.Table{Header: first.Header, Rows: first.Rows}, testColumns)

	require.Equal(t, first.Header, second.Header)
	require.Equal(t, first.Rows, second.Rows)
	require.Empty(t, second.Sides)
	require.Equal(t, 12.0, second.Rows[0]["Planned"])
	require.Equal(t, 10.0, second.Rows[0]["Planned_temp"])
}

func TestReconcile_SideNameAvoidsExistingHeaders(t *testing.T) {
	in := sheet.Table{
		Header: []string{"Planned_temp", "Planned", "Previsão"},
		Rows:   []sheet.Row{{"Planned_temp": 1.0, "Planned": 2.0, "Previsão": 3.0}},
	}

	res := Reconcile(in, testColumns)

	require.Equal(t, 3.0, res.Rows[0]["Planned"])
	require.Equal(t, 1.0, res.Rows[0]["Planned_temp"])
	require.Equal(t, 2.0, res.Rows[0]["Planned_temp2"])
}

func TestColumnMatches(t *testing.T) {
	c := testColumns[1]
	require.True(t, c.Matches("planned"))
	require.True(t, c.Matches(" Previsão "))
	require.False(t, c.Matches("Real"))
}

func TestResult_OriginalFor(t *testing.T) {
	in := sheet.Table{
		Header: []string{"Projeto", "Planned", "Planned Hours (Contract)", "Extra"},
		Rows:   []sheet.Row{{"Projeto": "A", "Planned": 50.0, "Planned Hours (Contract)": 100.0}},
	}
	res := Reconcile(in, testColumns)

	require.Equal(t, "Planned Hours (Contract)", res.OriginalFor("Planned"))
	require.Equal(t, "Planned", res.OriginalFor("Planned_temp"))
	require.Equal(t, "Projeto", res.OriginalFor("Project"))
	require.Equal(t, "Extra", res.OriginalFor("Extra"))
	require.Equal(t, "Satisfaction", res.OriginalFor("Satisfaction"))
}
