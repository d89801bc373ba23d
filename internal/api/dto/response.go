package dto

import "go-flowgate/internal/domain"

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string           `json:"error"`
	Code  domain.ErrorCode `json:"code,omitempty"`
}

// CodeInvalidRequest marks a body that could not be bound to a request DTO.
const CodeInvalidRequest domain.ErrorCode = "INVALID_REQUEST"

type AvailableActionsResponse struct {
	ProcessID      string                  `json:"processId"`
	CurrentStateID string                  `json:"currentStateId"`
	Actions        []domain.WorkflowAction `json:"actions"`
}
