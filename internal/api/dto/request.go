package dto

import "go-flowgate/internal/domain"

type StateDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsInitial bool   `json:"isInitial"`
	IsFinal   bool   `json:"isFinal"`
	IsEnabled bool   `json:"isEnabled"`
}

type ActionDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	IsEnabled  bool     `json:"isEnabled"`
	FromStates []string `json:"fromStates"`
	ToState    string   `json:"toState"`
}

// CreateBlueprintRequest carries no binding rules: every structural check, empty IDs
// included, is left to domain.ValidateBlueprint so its ordering holds over HTTP too.
type CreateBlueprintRequest struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	States  []StateDTO  `json:"states"`
	Actions []ActionDTO `json:"actions"`
}

// ToDomain converts the request body into the blueprint the validator checks.
func (r CreateBlueprintRequest) ToDomain() domain.WorkflowBlueprint {
	bp := domain.WorkflowBlueprint{
		ID:      r.ID,
		Name:    r.Name,
		States:  make([]domain.WorkflowState, 0, len(r.States)),
		Actions: make([]domain.WorkflowAction, 0, len(r.Actions)),
	}
	for _, s := range r.States {
		bp.States = append(bp.States, domain.WorkflowState{
			ID:        s.ID,
			Name:      s.Name,
			IsInitial: s.IsInitial,
			IsFinal:   s.IsFinal,
			IsEnabled: s.IsEnabled,
		})
	}
	for _, a := range r.Actions {
		from := a.FromStates
		if from == nil {
			from = []string{}
		}
		bp.Actions = append(bp.Actions, domain.WorkflowAction{
			ID:         a.ID,
			Name:       a.Name,
			IsEnabled:  a.IsEnabled,
			FromStates: from,
			ToState:    a.ToState,
		})
	}
	return bp
}
