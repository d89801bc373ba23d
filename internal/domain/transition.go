package domain

import "time"

// Instantiate starts a new process at the blueprint's initial state with an empty history.
// The blueprint is assumed valid and newID unique.
func Instantiate(blueprint WorkflowBlueprint, newID string, now time.Time) WorkflowProcess {
	initial, _ := blueprint.InitialState()
	return WorkflowProcess{
		ID:             newID,
		BlueprintID:    blueprint.ID,
		CurrentStateID: initial.ID,
		History:        []HistoryEntry{},
		CreatedAt:      now,
	}
}

// ApplyAction runs the guard sequence for actionID against process and returns the
// advanced process. The input process is never modified, so on error the caller still
// holds the unchanged value.
//
// Guards, first failure wins:
//  1. the action exists in the blueprint
//  2. the action is enabled
//  3. the current state is one of the action's source states
//  4. the current state is not final
//
// Finality is absolute: a final state blocks every action, even one that lists it
// as a source state.
func ApplyAction(process WorkflowProcess, blueprint WorkflowBlueprint, actionID string, now time.Time) (WorkflowProcess, error) {
	action, err := checkAction(process, blueprint, actionID)
	if err != nil {
		return process, err
	}

	next := process.Clone()
	next.CurrentStateID = action.ToState
	next.History = append(next.History, HistoryEntry{ActionID: action.ID, Timestamp: now})
	return next, nil
}

// AvailableActions lists, in blueprint order, the actions ApplyAction would accept
// for the process right now.
func AvailableActions(process WorkflowProcess, blueprint WorkflowBlueprint) []WorkflowAction {
	available := []WorkflowAction{}
	for _, a := range blueprint.Actions {
		if _, err := checkAction(process, blueprint, a.ID); err == nil {
			available = append(available, a)
		}
	}
	return available
}

// IsFinal reports whether the process sits in a final state of its blueprint.
func IsFinal(process WorkflowProcess, blueprint WorkflowBlueprint) bool {
	state, ok := blueprint.State(process.CurrentStateID)
	return ok && state.IsFinal
}

func checkAction(process WorkflowProcess, blueprint WorkflowBlueprint, actionID string) (WorkflowAction, error) {
	action, ok := blueprint.Action(actionID)
	if !ok {
		return WorkflowAction{}, transitionErrorf(CodeActionNotDefined,
			"Action '%s' not defined in this workflow's blueprint.", actionID)
	}

	if !action.IsEnabled {
		return WorkflowAction{}, transitionErrorf(CodeActionDisabled,
			"Action '%s' is currently disabled.", actionID)
	}

	if !action.AllowedFrom(process.CurrentStateID) {
		return WorkflowAction{}, transitionErrorf(CodeActionNotAllowedFromCurrentState,
			"Action '%s' cannot be executed from the current state '%s'.", actionID, process.CurrentStateID)
	}

	current, ok := blueprint.State(process.CurrentStateID)
	if !ok {
		return WorkflowAction{}, transitionErrorf(CodeUndeclaredCurrentState,
			"Process '%s' is in undeclared state '%s'.", process.ID, process.CurrentStateID)
	}
	if current.IsFinal {
		return WorkflowAction{}, ErrProcessAlreadyFinal
	}

	return action, nil
}
