package task

import (
	"strings"

	"github.com/rpggio/statusboard/internal/cell"
	"github.com/rpggio/statusboard/internal/schema"
)

// Canonical column names.
const (
	ColID              = "ID"
	ColCreatedOn       = "Created On"
	ColReferenceMonth  = "Reference Month"
	ColProject         = "Project"
	ColDescription     = "Description"
	ColAssignees       = "Assignees"
	ColDueDate         = "Due Date"
	ColStatus          = "Status"
	ColPriority        = "Priority"
	ColCompletedOn     = "Completed On"
	ColCompletionNotes = "Completion Notes"
)

// Columns is the tasks sheet layout. The first alias of each column is the
// workbook's own header and is used when a write has no remote header to
// follow.
var Columns = schema.Columns{
	{Name: ColID, Aliases: []string{"ID da Ação", "ID da Acao"}, Kind: schema.Number},
	{Name: ColCreatedOn, Aliases: []string{"Data de Cadastro"}, Kind: schema.Date},
	{Name: ColReferenceMonth, Aliases: []string{"Mês de Referência", "Mes de Referencia"}, Kind: schema.Text, Default: ""},
	{Name: ColProject, Aliases: []string{"Projeto"}, Kind: schema.Text, Default: ""},
	{Name: ColDescription, Aliases: []string{"Descrição da Ação", "Descricao da Acao", "Descrição"}, Kind: schema.Text, Default: ""},
	{Name: ColAssignees, Aliases: []string{"Responsáveis", "Responsaveis"}, Kind: schema.List, Default: ""},
	{Name: ColDueDate, Aliases: []string{"Data Limite"}, Kind: schema.Date},
	{Name: ColStatus, Aliases: []string{"Situação"}, Kind: schema.Text},
	{Name: ColPriority, Aliases: []string{"Prioridade"}, Kind: schema.Text},
	{Name: ColCompletedOn, Aliases: []string{"Data de Conclusão", "Data de Conclusao"}, Kind: schema.Date},
	{Name: ColCompletionNotes, Aliases: []string{"Observações de Conclusão", "Observacoes de Conclusao"}, Kind: schema.Text, Default: ""},
}

// derivedHeaders are computed on every load and never written back.
var derivedHeaders = []string{
	"Days Remaining", "Dias Restantes",
	"Overdue", "Atrasada",
	"Completion Days", "Tempo de Conclusão", "Tempo de Conclusao",
}

// DateColumnNames lists every header, canonical or alias, of the date
// columns.
func DateColumnNames() []string {
	var out []string
	for _, c := range Columns.OfKind(schema.Date) {
		out = append(out, c.Name)
		out = append(out, c.Aliases...)
	}
	return out
}

// Status is the canonical form of a task status.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Priority is the canonical form of a task priority.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Workbook spellings used when a default has to be filled in.
const (
	DefaultStatus   = "Pendente"
	DefaultPriority = "Média"
)

var statusAliases = map[string]Status{
	"pending":      StatusPending,
	"pendente":     StatusPending,
	"in progress":  StatusInProgress,
	"em andamento": StatusInProgress,
	"completed":    StatusCompleted,
	"concluída":    StatusCompleted,
	"concluida":    StatusCompleted,
	"done":         StatusCompleted,
}

var priorityAliases = map[string]Priority{
	"low":    PriorityLow,
	"baixa":  PriorityLow,
	"medium": PriorityMedium,
	"média":  PriorityMedium,
	"media":  PriorityMedium,
	"high":   PriorityHigh,
	"alta":   PriorityHigh,
}

// CanonicalStatus maps English or Portuguese status text to a Status.
// Unknown text is returned as is.
func CanonicalStatus(s string) Status {
	if st, ok := statusAliases[schema.Key(s)]; ok {
		return st
	}
	return Status(strings.TrimSpace(s))
}

// CanonicalPriority maps English or Portuguese priority text to a Priority.
// Unknown text is returned as is.
func CanonicalPriority(s string) Priority {
	if p, ok := priorityAliases[schema.Key(s)]; ok {
		return p
	}
	return Priority(strings.TrimSpace(s))
}

// Known reports whether s is one of the three task statuses.
func (s Status) Known() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

// Known reports whether p is one of the three task priorities.
func (p Priority) Known() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Record is one task row. Status and Priority keep the sheet's own text;
// compare them through CanonicalStatus and CanonicalPriority.
type Record struct {
	ID              int            `json:"id"`
	IDText          string         `json:"id_text,omitempty"`
	CreatedOn       cell.Date      `json:"created_on"`
	ReferenceMonth  string         `json:"reference_month"`
	Project         string         `json:"project"`
	Description     string         `json:"description"`
	Assignees       []string       `json:"assignees"`
	DueDate         cell.Date      `json:"due_date"`
	Status          string         `json:"status"`
	Priority        string         `json:"priority"`
	CompletedOn     cell.Date      `json:"completed_on"`
	CompletionNotes string         `json:"completion_notes"`
	Extra           map[string]any `json:"extra,omitempty"`

	DaysRemaining  *int `json:"days_remaining"`
	Overdue        bool `json:"overdue"`
	CompletionDays *int `json:"completion_days"`
}

// Completed reports whether the task is done.
func (r Record) Completed() bool {
	return CanonicalStatus(r.Status) == StatusCompleted
}

// SplitAssignees parses the comma-joined assignee cell.
func SplitAssignees(v any) []string {
	var out []string
	for _, part := range strings.Split(cell.Text(v), ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// JoinAssignees renders assignees for the sheet.
func JoinAssignees(names []string) string {
	return strings.Join(names, ", ")
}
