package memory

import (
	"context"
	"sort"
	"sync"

	"go-flowgate/internal/core/ports"
	"go-flowgate/internal/domain"
)

// BlueprintStore is a goroutine-safe in-memory blueprint registry.
type BlueprintStore struct {
	mu         sync.RWMutex
	blueprints map[string]domain.WorkflowBlueprint
}

var _ ports.BlueprintStore = (*BlueprintStore)(nil)

func NewBlueprintStore() *BlueprintStore {
	return &BlueprintStore{blueprints: make(map[string]domain.WorkflowBlueprint)}
}

func (s *BlueprintStore) Insert(_ context.Context, bp domain.WorkflowBlueprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blueprints[bp.ID]; ok {
		return domain.DuplicateBlueprintID(bp.ID)
	}
	s.blueprints[bp.ID] = bp.Clone()
	return nil
}

func (s *BlueprintStore) Get(_ context.Context, id string) (domain.WorkflowBlueprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bp, ok := s.blueprints[id]
	if !ok {
		return domain.WorkflowBlueprint{}, domain.BlueprintNotFound(id)
	}
	return bp.Clone(), nil
}

func (s *BlueprintStore) List(_ context.Context) ([]domain.WorkflowBlueprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.WorkflowBlueprint, 0, len(s.blueprints))
	for _, bp := range s.blueprints {
		out = append(out, bp.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ProcessStore is a goroutine-safe in-memory process registry. The map is guarded by
// mu; each process additionally has its own lock so Update on one process never
// blocks reads or updates of another.
type ProcessStore struct {
	mu        sync.RWMutex
	processes map[string]*processEntry
}

type processEntry struct {
	mu      sync.Mutex
	process domain.WorkflowProcess
}

var _ ports.ProcessStore = (*ProcessStore)(nil)

func NewProcessStore() *ProcessStore {
	return &ProcessStore{processes: make(map[string]*processEntry)}
}

func (s *ProcessStore) Insert(_ context.Context, p domain.WorkflowProcess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processes[p.ID] = &processEntry{process: p.Clone()}
	return nil
}

func (s *ProcessStore) entry(id string) (*processEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.processes[id]
	return e, ok
}

func (s *ProcessStore) Get(_ context.Context, id string) (domain.WorkflowProcess, error) {
	e, ok := s.entry(id)
	if !ok {
		return domain.WorkflowProcess{}, domain.ProcessNotFound(id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.process.Clone(), nil
}

func (s *ProcessStore) List(_ context.Context, filter ports.ProcessFilter) ([]domain.WorkflowProcess, error) {
	s.mu.RLock()
	entries := make([]*processEntry, 0, len(s.processes))
	for _, e := range s.processes {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]domain.WorkflowProcess, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		p := e.process.Clone()
		e.mu.Unlock()

		if filter.BlueprintID != "" && p.BlueprintID != filter.BlueprintID {
			continue
		}
		out = append(out, p)
	}
	domain.SortProcesses(out)
	return out, nil
}

func (s *ProcessStore) Update(ctx context.Context, id string, fn ports.UpdateFunc) (domain.WorkflowProcess, error) {
	e, ok := s.entry(id)
	if !ok {
		return domain.WorkflowProcess{}, domain.ProcessNotFound(id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.WorkflowProcess{}, err
	}

	next, err := fn(e.process.Clone())
	if err != nil {
		return domain.WorkflowProcess{}, err
	}
	e.process = next.Clone()
	return next, nil
}
