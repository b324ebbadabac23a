package task

import (
	"strings"

	"github.com/rpggio/statusboard/internal/cell"
)

// Display names of required fields, in the order they are reported.
const (
	FieldProject        = "Project"
	FieldReferenceMonth = "Reference Month"
	FieldPriority       = "Priority"
	FieldDescription    = "Description"
	FieldAssignees      = "Assignees"
	FieldDueDate        = "Due Date"
	FieldStatus         = "Status"
	FieldCompletedOn    = "Completed On"
)

// Fields are the user-editable task fields.
type Fields struct {
	Project         string    `json:"project"`
	ReferenceMonth  string    `json:"reference_month"`
	Priority        string    `json:"priority"`
	Description     string    `json:"description"`
	Assignees       []string  `json:"assignees"`
	Status          string    `json:"status"`
	CompletedOn     cell.Date `json:"completed_on"`
	CompletionNotes string    `json:"completion_notes"`
}

// CreateInput describes a new task. The due date can only be set here.
type CreateInput struct {
	Fields
	DueDate cell.Date `json:"due_date"`
}

// ValidateCreate checks every required field of a new task.
func ValidateCreate(in CreateInput) error {
	return validate(in.Fields, &in.DueDate)
}

// ValidateEdit checks the required fields an edit can change.
func ValidateEdit(f Fields) error {
	return validate(f, nil)
}

func validate(f Fields, due *cell.Date) error {
	var missing []string
	if blank(f.Project) {
		missing = append(missing, FieldProject)
	}
	if blank(f.ReferenceMonth) {
		missing = append(missing, FieldReferenceMonth)
	}
	if blank(f.Priority) {
		missing = append(missing, FieldPriority)
	}
	if blank(f.Description) {
		missing = append(missing, FieldDescription)
	}
	if noAssignees(f.Assignees) {
		missing = append(missing, FieldAssignees)
	}
	if due != nil && due.IsZero() {
		missing = append(missing, FieldDueDate)
	}
	if blank(f.Status) {
		missing = append(missing, FieldStatus)
	}
	if CanonicalStatus(f.Status) == StatusCompleted && f.CompletedOn.IsZero() {
		missing = append(missing, FieldCompletedOn)
	}

	var invalid []string
	if !blank(f.Priority) && !CanonicalPriority(f.Priority).Known() {
		invalid = append(invalid, FieldPriority)
	}
	if !blank(f.Status) && !CanonicalStatus(f.Status).Known() {
		invalid = append(invalid, FieldStatus)
	}
	if len(missing) > 0 || len(invalid) > 0 {
		return &ValidationError{Missing: missing, Invalid: invalid}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// noAssignees is true for nil, empty or all-blank lists.
func noAssignees(names []string) bool {
	for _, n := range names {
		if !blank(n) {
			return false
		}
	}
	return true
}

// cleanAssignees trims names and drops blanks.
func cleanAssignees(names []string) []string {
	var out []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
