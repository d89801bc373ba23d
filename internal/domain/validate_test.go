package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStateBlueprint(id string) WorkflowBlueprint {
	return WorkflowBlueprint{
		ID:   id,
		Name: "Two states",
		States: []WorkflowState{
			{ID: "open", Name: "Open", IsInitial: true, IsEnabled: true},
			{ID: "closed", Name: "Closed", IsFinal: true, IsEnabled: true},
		},
		Actions: []WorkflowAction{
			{ID: "close", Name: "Close", IsEnabled: true, FromStates: []string{"open"}, ToState: "closed"},
		},
	}
}

func TestValidateBlueprint_DefaultIsValid(t *testing.T) {
	require.NoError(t, ValidateBlueprint(DefaultBlueprint(), nil))
}

func TestValidateBlueprint_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(b *WorkflowBlueprint)
		existing []WorkflowBlueprint
		want     error
	}{
		{
			name: "no initial state",
			mutate: func(b *WorkflowBlueprint) {
				b.States[0].IsInitial = false
			},
			want: ErrNotExactlyOneInitialState,
		},
		{
			name: "two initial states",
			mutate: func(b *WorkflowBlueprint) {
				b.States[1].IsInitial = true
			},
			want: ErrNotExactlyOneInitialState,
		},
		{
			name: "no states at all",
			mutate: func(b *WorkflowBlueprint) {
				b.States = nil
			},
			want: ErrNotExactlyOneInitialState,
		},
		{
			name: "duplicate state id",
			mutate: func(b *WorkflowBlueprint) {
				b.States[1].ID = "open"
			},
			want: ErrDuplicateStateID,
		},
		{
			name: "duplicate state id wins over duplicate action id",
			mutate: func(b *WorkflowBlueprint) {
				b.States[1].ID = "open"
				b.Actions = append(b.Actions, b.Actions[0])
			},
			want: ErrDuplicateStateID,
		},
		{
			name: "initial count wins over duplicate state id",
			mutate: func(b *WorkflowBlueprint) {
				b.States[1].ID = "open"
				b.States[1].IsInitial = true
			},
			want: ErrNotExactlyOneInitialState,
		},
		{
			name: "duplicate action id",
			mutate: func(b *WorkflowBlueprint) {
				b.Actions = append(b.Actions, WorkflowAction{ID: "close", IsEnabled: true, FromStates: []string{"open"}, ToState: "open"})
			},
			want: ErrDuplicateActionID,
		},
		{
			name: "duplicate action id wins over duplicate blueprint id",
			mutate: func(b *WorkflowBlueprint) {
				b.Actions = append(b.Actions, b.Actions[0])
			},
			existing: []WorkflowBlueprint{twoStateBlueprint("bp")},
			want:     ErrDuplicateActionID,
		},
		{
			name:     "duplicate blueprint id",
			mutate:   func(b *WorkflowBlueprint) {},
			existing: []WorkflowBlueprint{DefaultBlueprint(), twoStateBlueprint("bp")},
			want:     ErrDuplicateBlueprintID,
		},
		{
			name: "duplicate blueprint id wins over bad reference",
			mutate: func(b *WorkflowBlueprint) {
				b.Actions[0].ToState = "nowhere"
			},
			existing: []WorkflowBlueprint{twoStateBlueprint("bp")},
			want:     ErrDuplicateBlueprintID,
		},
		{
			name: "undeclared target state",
			mutate: func(b *WorkflowBlueprint) {
				b.Actions[0].ToState = "nowhere"
			},
			want: ErrUnknownStateReference,
		},
		{
			name: "undeclared source state",
			mutate: func(b *WorkflowBlueprint) {
				b.Actions[0].FromStates = []string{"open", "limbo"}
			},
			want: ErrUnknownStateReference,
		},
		{
			name: "empty source states",
			mutate: func(b *WorkflowBlueprint) {
				b.Actions[0].FromStates = nil
			},
			want: ErrUnknownStateReference,
		},
		{
			name: "empty blueprint id",
			mutate: func(b *WorkflowBlueprint) {
				b.ID = ""
			},
			want: ErrMissingIdentifier,
		},
		{
			name: "empty state id",
			mutate: func(b *WorkflowBlueprint) {
				b.States = append(b.States, WorkflowState{Name: "Nameless"})
			},
			want: ErrMissingIdentifier,
		},
		{
			name: "empty action id",
			mutate: func(b *WorkflowBlueprint) {
				b.Actions[0].ID = ""
			},
			want: ErrMissingIdentifier,
		},
		{
			name: "missing initial state wins over empty state id",
			mutate: func(b *WorkflowBlueprint) {
				b.States[0].IsInitial = false
				b.States = append(b.States, WorkflowState{})
			},
			want: ErrNotExactlyOneInitialState,
		},
		{
			name: "duplicate state id wins over missing target",
			mutate: func(b *WorkflowBlueprint) {
				b.States[1].ID = "open"
				b.Actions[0].ToState = ""
			},
			want: ErrDuplicateStateID,
		},
		{
			name: "empty target state",
			mutate: func(b *WorkflowBlueprint) {
				b.Actions[0].ToState = ""
			},
			want: ErrUnknownStateReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp := twoStateBlueprint("bp")
			tt.mutate(&bp)

			err := ValidateBlueprint(bp, tt.existing)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, CodeOf(tt.want), CodeOf(err))
		})
	}
}

func TestValidateBlueprint_DuplicateBlueprintMessageNamesID(t *testing.T) {
	err := ValidateBlueprint(DefaultBlueprint(), []WorkflowBlueprint{DefaultBlueprint()})
	require.ErrorIs(t, err, ErrDuplicateBlueprintID)
	assert.Equal(t, "A workflow blueprint with ID 'food-order' already exists.", err.Error())
}

func TestValidateBlueprint_UnreachableStatesAreAllowed(t *testing.T) {
	bp := twoStateBlueprint("bp")
	bp.States = append(bp.States, WorkflowState{ID: "island", Name: "Island", IsEnabled: true})

	assert.NoError(t, ValidateBlueprint(bp, nil))
}

func TestValidateBlueprint_NoActionsIsValid(t *testing.T) {
	bp := twoStateBlueprint("bp")
	bp.Actions = nil

	assert.NoError(t, ValidateBlueprint(bp, nil))
}

func TestValidateBlueprint_DoesNotModifyInputs(t *testing.T) {
	bp := twoStateBlueprint("bp")
	existing := []WorkflowBlueprint{DefaultBlueprint()}
	before := bp.Clone()

	require.NoError(t, ValidateBlueprint(bp, existing))
	assert.Equal(t, before, bp)
	assert.Len(t, existing, 1)
}
