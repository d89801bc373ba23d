package ports

import (
	"context"

	"go-flowgate/internal/domain"
)

// BlueprintStore holds validated blueprints keyed by ID.
type BlueprintStore interface {
	// Insert stores a new blueprint. The existence check and the write are atomic:
	// an ID that is already present yields domain.ErrDuplicateBlueprintID.
	Insert(ctx context.Context, blueprint domain.WorkflowBlueprint) error

	// Get returns domain.ErrBlueprintNotFound for an unknown ID.
	Get(ctx context.Context, id string) (domain.WorkflowBlueprint, error)

	// List returns every blueprint ordered by ID.
	List(ctx context.Context) ([]domain.WorkflowBlueprint, error)
}

// ProcessFilter narrows ProcessStore.List. Empty fields mean "no filter".
type ProcessFilter struct {
	BlueprintID string
}

// UpdateFunc receives the stored process and returns its replacement.
// Returning an error aborts the update and leaves the stored value untouched.
type UpdateFunc func(current domain.WorkflowProcess) (domain.WorkflowProcess, error)

// ProcessStore holds processes keyed by ID.
type ProcessStore interface {
	// Insert stores a freshly instantiated process.
	Insert(ctx context.Context, process domain.WorkflowProcess) error

	// Get returns domain.ErrProcessNotFound for an unknown ID.
	Get(ctx context.Context, id string) (domain.WorkflowProcess, error)

	// List returns processes ordered by creation time, then ID.
	List(ctx context.Context, filter ProcessFilter) ([]domain.WorkflowProcess, error)

	// Update serialises read-modify-write on a single process: no other Update for the
	// same ID can interleave between reading current and storing the result of fn.
	Update(ctx context.Context, id string, fn UpdateFunc) (domain.WorkflowProcess, error)
}
