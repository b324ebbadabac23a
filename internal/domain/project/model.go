package project

import (
	"strings"
	"time"

	"github.com/rpggio/statusboard/internal/schema"
	"github.com/rpggio/statusboard/internal/sheet"
)

// Canonical column names.
const (
	ColMonth        = "Month"
	ColProject      = "Project"
	ColManager      = "Manager"
	ColStatus       = "Status"
	ColSegment      = "Segment"
	ColType         = "Type"
	ColCoordination = "Coordination"
	ColFinancial    = "Financial"
	ColPlanned      = "Planned"
	ColActual       = "Actual"
	ColBalance      = "Balance"
	ColDelayDays    = "DelayDays"
	ColMonthlyHours = "MonthlyHours"
	ColSatisfaction = "Satisfaction"
	ColNotes        = "Notes"
	ColDecisions    = "Decisions"
	// ColCorrected lists the numeric columns magnitude correction already
	// repaired in a row.
	ColCorrected = "Corrected"
)

// Columns is the projects sheet layout. Portuguese headers of the workbook
// are aliases; an alias wins over a header already spelled canonically.
var Columns = schema.Columns{
	{Name: ColMonth, Aliases: []string{"Mês", "Mes"}, Kind: schema.Date, Default: schema.NotInformed},
	{Name: ColProject, Aliases: []string{"Projeto"}, Kind: schema.Text, Default: schema.NotInformed},
	{Name: ColManager, Aliases: []string{"GP Responsável", "GP Responsavel", "Gestora"}, Kind: schema.Text, Default: schema.NotInformed},
	{Name: ColStatus, Aliases: []string{"Situação"}, Kind: schema.Text, Default: schema.NotInformed},
	{Name: ColSegment, Aliases: []string{"Segmento"}, Kind: schema.Text, Default: schema.NotInformed},
	{Name: ColType, Aliases: []string{"Tipo"}, Kind: schema.Text, Default: schema.NotInformed},
	{Name: ColCoordination, Aliases: []string{"Coordenação", "Coordenacao"}, Kind: schema.Text, Default: schema.NotInformed},
	{Name: ColFinancial, Aliases: []string{"Financeiro"}, Kind: schema.Text, Default: schema.NotInformed},
	{
		Name:    ColPlanned,
		Aliases: []string{"Planned Hours (Contract)", "Horas Previstas (Contrato)", "Previsão", "Previsao", "Previsto"},
		Kind:    schema.Number,
		Default: 0.0,
	},
	{Name: ColActual, Aliases: []string{"Real"}, Kind: schema.Number, Default: 0.0},
	{Name: ColBalance, Aliases: []string{"Saldo Acumulado"}, Kind: schema.Number, Default: 0.0},
	{Name: ColDelayDays, Aliases: []string{"Atraso em dias"}, Kind: schema.Number, Default: 0.0},
	{Name: ColMonthlyHours, Aliases: []string{"Horas Mês", "Horas Mes"}, Kind: schema.Number, Default: 0.0},
	{Name: ColSatisfaction, Aliases: []string{"NPS"}, Kind: schema.Text, Default: ""},
	{Name: ColNotes, Aliases: []string{"Observações", "Observacoes"}, Kind: schema.Text, Default: ""},
	{Name: ColDecisions, Aliases: []string{"Decisões", "Decisoes"}, Kind: schema.Text, Default: ""},
	{Name: ColCorrected, Kind: schema.Text, Default: ""},
}

// Priority values.
const (
	PriorityCritical = "Critical"
	PriorityNormal   = "Normal"
)

// ClientUnknown is the client of a project with no name.
const ClientUnknown = "Not informed"

// Record is one project observed in one reporting month.
type Record struct {
	Month             string         `json:"month"`
	MonthDate         *time.Time     `json:"month_date,omitempty"`
	MonthLabel        string         `json:"month_label"`
	YearMonth         string         `json:"year_month"`
	Project           string         `json:"project"`
	Client            string         `json:"client"`
	Manager           string         `json:"manager"`
	Status            string         `json:"status"`
	Segment           string         `json:"segment"`
	Type              string         `json:"type"`
	Coordination      string         `json:"coordination"`
	Financial         string         `json:"financial"`
	Planned           float64        `json:"planned"`
	Actual            float64        `json:"actual"`
	Balance           float64        `json:"balance"`
	DelayDays         int            `json:"delay_days"`
	MonthlyHours      float64        `json:"monthly_hours"`
	Satisfaction      string         `json:"satisfaction"`
	SatisfactionLabel string         `json:"satisfaction_label"`
	Notes             string         `json:"notes"`
	Decisions         string         `json:"decisions"`
	Priority          string         `json:"priority"`
	Corrected         []string       `json:"corrected,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// Critical reports whether the decisions log flagged the project.
func (r Record) Critical() bool {
	return r.Priority == PriorityCritical
}

// Row renders the stored fields back under canonical headers. Derived
// fields are left out so the row normalizes to the same record again.
func (r Record) Row() sheet.Row {
	row := sheet.Row{
		ColMonth:        r.Month,
		ColProject:      r.Project,
		ColManager:      r.Manager,
		ColStatus:       r.Status,
		ColSegment:      r.Segment,
		ColType:         r.Type,
		ColCoordination: r.Coordination,
		ColFinancial:    r.Financial,
		ColPlanned:      r.Planned,
		ColActual:       r.Actual,
		ColBalance:      r.Balance,
		ColDelayDays:    r.DelayDays,
		ColMonthlyHours: r.MonthlyHours,
		ColSatisfaction: r.Satisfaction,
		ColNotes:        r.Notes,
		ColDecisions:    r.Decisions,
	}
	if len(r.Corrected) > 0 {
		row[ColCorrected] = strings.Join(r.Corrected, ", ")
	}
	for k, v := range r.Extra {
		row[k] = v
	}
	return row
}

// Table renders records as a canonical table, extras after the canonical
// columns in first-seen order.
func Table(records []Record) sheet.Table {
	t := sheet.Table{Header: Columns.Names()}
	seen := make(map[string]bool)
	for _, r := range records {
		for _, k := range sortedKeys(r.Extra) {
			if !seen[k] {
				seen[k] = true
				t.Header = append(t.Header, k)
			}
		}
		t.Rows = append(t.Rows, r.Row())
	}
	return t
}
