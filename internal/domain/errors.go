package domain

import (
	"errors"
	"fmt"
)

// ErrorCode identifies one member of the validation or transition error taxonomy.
type ErrorCode string

const (
	CodeNotExactlyOneInitialState ErrorCode = "NOT_EXACTLY_ONE_INITIAL_STATE"
	CodeDuplicateStateID          ErrorCode = "DUPLICATE_STATE_ID"
	CodeDuplicateActionID         ErrorCode = "DUPLICATE_ACTION_ID"
	CodeDuplicateBlueprintID      ErrorCode = "DUPLICATE_BLUEPRINT_ID"
	CodeUnknownStateReference     ErrorCode = "UNKNOWN_STATE_REFERENCE"
	CodeMissingIdentifier         ErrorCode = "MISSING_IDENTIFIER"

	CodeActionNotDefined                 ErrorCode = "ACTION_NOT_DEFINED"
	CodeActionDisabled                   ErrorCode = "ACTION_DISABLED"
	CodeActionNotAllowedFromCurrentState ErrorCode = "ACTION_NOT_ALLOWED_FROM_CURRENT_STATE"
	CodeProcessAlreadyFinal              ErrorCode = "PROCESS_ALREADY_FINAL"
	CodeUndeclaredCurrentState           ErrorCode = "UNDECLARED_CURRENT_STATE"
	CodeBlueprintNotFound                ErrorCode = "BLUEPRINT_NOT_FOUND"
	CodeProcessNotFound                  ErrorCode = "PROCESS_NOT_FOUND"
)

// ValidationError rejects a candidate blueprint.
type ValidationError struct {
	Code   ErrorCode
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return e.Detail
}

// Is matches on Code, so a detailed error still satisfies errors.Is against the sentinel.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

// TransitionError rejects an action on a process, or reports a missing entity.
type TransitionError struct {
	Code   ErrorCode
	Detail string
}

func (e *TransitionError) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return e.Detail
}

func (e *TransitionError) Is(target error) bool {
	t, ok := target.(*TransitionError)
	return ok && t.Code == e.Code
}

var (
	// Blueprint validation errors.
	ErrNotExactlyOneInitialState = &ValidationError{Code: CodeNotExactlyOneInitialState, Detail: "A workflow must have exactly one starting state."}
	ErrDuplicateStateID          = &ValidationError{Code: CodeDuplicateStateID, Detail: "Each state must have a unique ID."}
	ErrDuplicateActionID         = &ValidationError{Code: CodeDuplicateActionID, Detail: "Each action must have a unique ID."}
	ErrDuplicateBlueprintID      = &ValidationError{Code: CodeDuplicateBlueprintID, Detail: "A workflow blueprint with this ID already exists."}
	ErrUnknownStateReference     = &ValidationError{Code: CodeUnknownStateReference, Detail: "An action references a state that is not declared."}
	ErrMissingIdentifier         = &ValidationError{Code: CodeMissingIdentifier, Detail: "Blueprints, states and actions must have a non-empty ID."}

	// Transition errors.
	ErrActionNotDefined                 = &TransitionError{Code: CodeActionNotDefined, Detail: "Action not defined in this workflow's blueprint."}
	ErrActionDisabled                   = &TransitionError{Code: CodeActionDisabled, Detail: "Action is currently disabled."}
	ErrActionNotAllowedFromCurrentState = &TransitionError{Code: CodeActionNotAllowedFromCurrentState, Detail: "Action cannot be executed from the current state."}
	ErrProcessAlreadyFinal              = &TransitionError{Code: CodeProcessAlreadyFinal, Detail: "Cannot execute actions from a final (completed) state."}

	// ErrUndeclaredCurrentState means a stored process sits in a state its blueprint does
	// not declare. Validated blueprints and Instantiate never produce this.
	ErrUndeclaredCurrentState = &TransitionError{Code: CodeUndeclaredCurrentState, Detail: "Process is in a state its blueprint does not declare."}

	// Lookup errors surfaced by the host before the transition engine runs.
	ErrBlueprintNotFound = &TransitionError{Code: CodeBlueprintNotFound, Detail: "Workflow blueprint not found."}
	ErrProcessNotFound   = &TransitionError{Code: CodeProcessNotFound, Detail: "Workflow process not found."}
)

func validationErrorf(code ErrorCode, format string, args ...any) error {
	return &ValidationError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

func transitionErrorf(code ErrorCode, format string, args ...any) error {
	return &TransitionError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// BlueprintNotFound builds a lookup error naming the missing blueprint.
func BlueprintNotFound(id string) error {
	return transitionErrorf(CodeBlueprintNotFound, "Workflow blueprint '%s' not found.", id)
}

// ProcessNotFound builds a lookup error naming the missing process.
func ProcessNotFound(id string) error {
	return transitionErrorf(CodeProcessNotFound, "Workflow process '%s' not found.", id)
}

// DuplicateBlueprintID builds the duplicate-ID rejection the way stores report it.
func DuplicateBlueprintID(id string) error {
	return validationErrorf(CodeDuplicateBlueprintID, "A workflow blueprint with ID '%s' already exists.", id)
}

// CodeOf returns the taxonomy code carried by err, or "" when err is not a domain error.
func CodeOf(err error) ErrorCode {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
