package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/statusboard/internal/domain/task"
)

var errInvalidDate = errors.New("invalid date")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to
// INTERNAL so no tool call fails without a code.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var verr *task.ValidationError
	switch {
	case errors.As(err, &verr):
		details := map[string]any{}
		if len(verr.Missing) > 0 {
			details["missing"] = verr.Missing
		}
		if len(verr.Invalid) > 0 {
			details["invalid"] = verr.Invalid
		}
		return &APIError{Code: "INVALID_INPUT", Message: verr.Error(), Details: details, RecoveryHint: "Fill the missing fields and use a status and priority listed in statusboard://docs/tasks"}
	case errors.Is(err, errInvalidDate):
		return &APIError{Code: "INVALID_DATE", Message: err.Error(), RecoveryHint: "Use YYYY-MM-DD"}
	case errors.Is(err, task.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, task.ErrTaskNotFound):
		return &APIError{Code: "TASK_NOT_FOUND", Message: "task not found", RecoveryHint: "Check the ID with list_tasks"}
	case errors.Is(err, task.ErrAuthoritativeReadFailed):
		return &APIError{Code: "REMOTE_READ_FAILED", Message: err.Error(), RecoveryHint: "Nothing was written; retry later"}
	case errors.Is(err, task.ErrWriteFailed):
		return &APIError{Code: "WRITE_FAILED", Message: err.Error(), RecoveryHint: "Call refresh_data and check the sheet before retrying"}
	default:
		return &APIError{Code: "INTERNAL", Message: err.Error()}
	}
}
