package domain

import (
	"slices"
	"sort"
	"time"
)

// WorkflowState is a named position inside a blueprint.
type WorkflowState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsInitial bool   `json:"isInitial"`
	IsFinal   bool   `json:"isFinal"`
	IsEnabled bool   `json:"isEnabled"`
}

// WorkflowAction moves a process from any of FromStates to ToState.
type WorkflowAction struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	IsEnabled  bool     `json:"isEnabled"`
	FromStates []string `json:"fromStates"`
	ToState    string   `json:"toState"`
}

// WorkflowBlueprint is the template processes are started from.
// It is validated once on insertion and never changes afterwards.
type WorkflowBlueprint struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	States  []WorkflowState  `json:"states"`
	Actions []WorkflowAction `json:"actions"`
}

// HistoryEntry records one applied action.
type HistoryEntry struct {
	ActionID  string    `json:"actionId"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkflowProcess is a running instance of a blueprint.
type WorkflowProcess struct {
	ID             string         `json:"id"`
	BlueprintID    string         `json:"blueprintId"`
	CurrentStateID string         `json:"currentStateId"`
	History        []HistoryEntry `json:"history"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// --- LOOKUPS ---

// InitialState returns the state flagged IsInitial. A validated blueprint has exactly one.
func (b WorkflowBlueprint) InitialState() (WorkflowState, bool) {
	for _, s := range b.States {
		if s.IsInitial {
			return s, true
		}
	}
	return WorkflowState{}, false
}

func (b WorkflowBlueprint) State(id string) (WorkflowState, bool) {
	for _, s := range b.States {
		if s.ID == id {
			return s, true
		}
	}
	return WorkflowState{}, false
}

func (b WorkflowBlueprint) Action(id string) (WorkflowAction, bool) {
	for _, a := range b.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return WorkflowAction{}, false
}

// AllowedFrom reports whether stateID is one of the action's source states.
func (a WorkflowAction) AllowedFrom(stateID string) bool {
	return slices.Contains(a.FromStates, stateID)
}

// Clone returns a deep copy so callers can hand out values without sharing slices.
func (b WorkflowBlueprint) Clone() WorkflowBlueprint {
	out := b
	out.States = slices.Clone(b.States)
	out.Actions = make([]WorkflowAction, len(b.Actions))
	for i, a := range b.Actions {
		a.FromStates = slices.Clone(a.FromStates)
		out.Actions[i] = a
	}
	if b.Actions == nil {
		out.Actions = nil
	}
	return out
}

// Clone returns a deep copy of the process, history included.
func (p WorkflowProcess) Clone() WorkflowProcess {
	out := p
	out.History = slices.Clone(p.History)
	if out.History == nil {
		out.History = []HistoryEntry{}
	}
	return out
}

// LastAction returns the most recently applied history entry.
func (p WorkflowProcess) LastAction() (HistoryEntry, bool) {
	if len(p.History) == 0 {
		return HistoryEntry{}, false
	}
	return p.History[len(p.History)-1], true
}

// SortProcesses orders processes by creation time, then ID.
func SortProcesses(ps []WorkflowProcess) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}
