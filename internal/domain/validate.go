package domain

// ValidateBlueprint checks a candidate blueprint against the structural rules and the
// blueprints already registered. Checks run in a fixed order and the first failure wins:
// initial state count, state ID uniqueness, action ID uniqueness, blueprint ID
// uniqueness, then non-empty IDs, then action state references.
func ValidateBlueprint(candidate WorkflowBlueprint, existing []WorkflowBlueprint) error {
	initial := 0
	for _, s := range candidate.States {
		if s.IsInitial {
			initial++
		}
	}
	if initial != 1 {
		return ErrNotExactlyOneInitialState
	}

	states := make(map[string]struct{}, len(candidate.States))
	for _, s := range candidate.States {
		states[s.ID] = struct{}{}
	}
	if len(states) != len(candidate.States) {
		return ErrDuplicateStateID
	}

	actions := make(map[string]struct{}, len(candidate.Actions))
	for _, a := range candidate.Actions {
		actions[a.ID] = struct{}{}
	}
	if len(actions) != len(candidate.Actions) {
		return ErrDuplicateActionID
	}

	for _, b := range existing {
		if b.ID == candidate.ID {
			return DuplicateBlueprintID(candidate.ID)
		}
	}

	if err := validateIdentifiers(candidate); err != nil {
		return err
	}
	return validateReferences(candidate, states)
}

// validateIdentifiers rejects empty blueprint, state and action IDs.
func validateIdentifiers(candidate WorkflowBlueprint) error {
	if candidate.ID == "" {
		return validationErrorf(CodeMissingIdentifier, "The workflow blueprint must have an ID.")
	}
	for i, s := range candidate.States {
		if s.ID == "" {
			return validationErrorf(CodeMissingIdentifier, "State at position %d has no ID.", i)
		}
	}
	for i, a := range candidate.Actions {
		if a.ID == "" {
			return validationErrorf(CodeMissingIdentifier, "Action at position %d has no ID.", i)
		}
	}
	return nil
}

// validateReferences requires every action to name at least one source state and
// to point only at declared states. Reachability from the initial state is not checked.
func validateReferences(candidate WorkflowBlueprint, states map[string]struct{}) error {
	for _, a := range candidate.Actions {
		if len(a.FromStates) == 0 {
			return validationErrorf(CodeUnknownStateReference,
				"Action '%s' must list at least one source state.", a.ID)
		}
		for _, from := range a.FromStates {
			if _, ok := states[from]; !ok {
				return validationErrorf(CodeUnknownStateReference,
					"Action '%s' references undeclared source state '%s'.", a.ID, from)
			}
		}
		if _, ok := states[a.ToState]; !ok {
			return validationErrorf(CodeUnknownStateReference,
				"Action '%s' references undeclared target state '%s'.", a.ID, a.ToState)
		}
	}
	return nil
}
