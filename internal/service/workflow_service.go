package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"go-flowgate/internal/core/ports"
	"go-flowgate/internal/domain"
	"go-flowgate/internal/metrics"
)

// WorkflowService is what the HTTP layer talks to.
type WorkflowService interface {
	CreateBlueprint(ctx context.Context, bp domain.WorkflowBlueprint) (domain.WorkflowBlueprint, error)
	GetBlueprint(ctx context.Context, id string) (domain.WorkflowBlueprint, error)
	ListBlueprints(ctx context.Context) ([]domain.WorkflowBlueprint, error)

	StartProcess(ctx context.Context, blueprintID string) (domain.WorkflowProcess, error)
	GetProcess(ctx context.Context, id string) (domain.WorkflowProcess, error)
	ListProcesses(ctx context.Context, filter ports.ProcessFilter) ([]domain.WorkflowProcess, error)
	ExecuteAction(ctx context.Context, processID, actionID string) (domain.WorkflowProcess, error)
	// AvailableActions returns the process together with the actions it accepts right now.
	AvailableActions(ctx context.Context, processID string) (domain.WorkflowProcess, []domain.WorkflowAction, error)

	// SeedDefaults registers the bundled blueprint when no blueprint exists yet.
	SeedDefaults(ctx context.Context) error
}

// IDGenerator returns collision-free process IDs.
type IDGenerator func() string

// Clock returns the timestamp recorded for instantiations and transitions.
type Clock func() time.Time

// Option customises a workflowService.
type Option func(*workflowService)

func WithIDGenerator(gen IDGenerator) Option {
	return func(s *workflowService) { s.newID = gen }
}

func WithClock(clock Clock) Option {
	return func(s *workflowService) { s.now = clock }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *workflowService) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *workflowService) { s.metrics = m }
}

// The Implementation
type workflowService struct {
	blueprints ports.BlueprintStore
	processes  ports.ProcessStore

	newID   IDGenerator
	now     Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Constructor
func NewWorkflowService(blueprints ports.BlueprintStore, processes ports.ProcessStore, opts ...Option) WorkflowService {
	s := &workflowService{
		blueprints: blueprints,
		processes:  processes,
		newID:      uuid.NewString,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

func (s *workflowService) CreateBlueprint(ctx context.Context, bp domain.WorkflowBlueprint) (domain.WorkflowBlueprint, error) {
	// 1. Validate against what is already registered
	existing, err := s.blueprints.List(ctx)
	if err != nil {
		return domain.WorkflowBlueprint{}, fmt.Errorf("list blueprints: %w", err)
	}

	if err := domain.ValidateBlueprint(bp, existing); err != nil {
		s.rejectBlueprint(bp.ID, err)
		return domain.WorkflowBlueprint{}, err
	}

	// 2. Insert; the store re-checks the ID atomically in case of a concurrent create
	if err := s.blueprints.Insert(ctx, bp); err != nil {
		if errors.Is(err, domain.ErrDuplicateBlueprintID) {
			s.rejectBlueprint(bp.ID, err)
		}
		return domain.WorkflowBlueprint{}, err
	}

	s.metrics.BlueprintsCreated.Inc()
	s.logger.InfoContext(ctx, "blueprint created",
		slog.String("blueprint_id", bp.ID),
		slog.Int("states", len(bp.States)),
		slog.Int("actions", len(bp.Actions)),
	)
	return bp, nil
}

func (s *workflowService) rejectBlueprint(id string, err error) {
	s.metrics.BlueprintsRejected.WithLabelValues(string(domain.CodeOf(err))).Inc()
	s.logger.Info("blueprint rejected",
		slog.String("blueprint_id", id),
		slog.String("reason", string(domain.CodeOf(err))),
	)
}

func (s *workflowService) GetBlueprint(ctx context.Context, id string) (domain.WorkflowBlueprint, error) {
	return s.blueprints.Get(ctx, id)
}

func (s *workflowService) ListBlueprints(ctx context.Context) ([]domain.WorkflowBlueprint, error) {
	return s.blueprints.List(ctx)
}

func (s *workflowService) StartProcess(ctx context.Context, blueprintID string) (domain.WorkflowProcess, error) {
	bp, err := s.blueprints.Get(ctx, blueprintID)
	if err != nil {
		return domain.WorkflowProcess{}, err
	}

	process := domain.Instantiate(bp, s.newID(), s.now())
	if err := s.processes.Insert(ctx, process); err != nil {
		return domain.WorkflowProcess{}, err
	}

	s.metrics.ProcessesStarted.WithLabelValues(bp.ID).Inc()
	s.logger.InfoContext(ctx, "process started",
		slog.String("process_id", process.ID),
		slog.String("blueprint_id", bp.ID),
		slog.String("state", process.CurrentStateID),
	)
	return process, nil
}

func (s *workflowService) GetProcess(ctx context.Context, id string) (domain.WorkflowProcess, error) {
	return s.processes.Get(ctx, id)
}

func (s *workflowService) ListProcesses(ctx context.Context, filter ports.ProcessFilter) ([]domain.WorkflowProcess, error) {
	return s.processes.List(ctx, filter)
}

func (s *workflowService) ExecuteAction(ctx context.Context, processID, actionID string) (domain.WorkflowProcess, error) {
	start := time.Now()
	defer func() { s.metrics.TransitionDuration.Observe(time.Since(start).Seconds()) }()

	// 1. Resolve the process and the blueprint it was started from
	process, err := s.processes.Get(ctx, processID)
	if err != nil {
		return domain.WorkflowProcess{}, err
	}

	bp, err := s.blueprints.Get(ctx, process.BlueprintID)
	if err != nil {
		return domain.WorkflowProcess{}, err
	}

	// 2. Guard + apply under the store's per-process serialisation
	var from string
	next, err := s.processes.Update(ctx, processID, func(current domain.WorkflowProcess) (domain.WorkflowProcess, error) {
		from = current.CurrentStateID
		return domain.ApplyAction(current, bp, actionID, s.now())
	})
	if err != nil {
		s.recordTransition(ctx, bp.ID, processID, actionID, err)
		return domain.WorkflowProcess{}, err
	}

	s.recordTransition(ctx, bp.ID, processID, actionID, nil)
	s.logger.InfoContext(ctx, "action executed",
		slog.String("process_id", processID),
		slog.String("blueprint_id", bp.ID),
		slog.String("action_id", actionID),
		slog.String("from", from),
		slog.String("to", next.CurrentStateID),
		slog.Bool("final", domain.IsFinal(next, bp)),
	)
	return next, nil
}

func (s *workflowService) recordTransition(ctx context.Context, blueprintID, processID, actionID string, err error) {
	outcome, reason := metrics.OutcomeApplied, ""
	if err != nil {
		reason = string(domain.CodeOf(err))
		outcome = metrics.OutcomeRejected
		if reason == "" {
			outcome = metrics.OutcomeError
		}
	}

	// Rejections carry client-supplied action IDs; collapse unknown ones so the label
	// set stays bounded.
	label := actionID
	if errors.Is(err, domain.ErrActionNotDefined) {
		label = "undefined"
	}
	s.metrics.TransitionsTotal.WithLabelValues(blueprintID, label, outcome, reason).Inc()

	switch outcome {
	case metrics.OutcomeRejected:
		s.logger.InfoContext(ctx, "action rejected",
			slog.String("process_id", processID),
			slog.String("action_id", actionID),
			slog.String("reason", reason),
		)
	case metrics.OutcomeError:
		s.logger.ErrorContext(ctx, "action failed",
			slog.String("process_id", processID),
			slog.String("action_id", actionID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *workflowService) AvailableActions(ctx context.Context, processID string) (domain.WorkflowProcess, []domain.WorkflowAction, error) {
	process, err := s.processes.Get(ctx, processID)
	if err != nil {
		return domain.WorkflowProcess{}, nil, err
	}

	bp, err := s.blueprints.Get(ctx, process.BlueprintID)
	if err != nil {
		return domain.WorkflowProcess{}, nil, err
	}

	return process, domain.AvailableActions(process, bp), nil
}

func (s *workflowService) SeedDefaults(ctx context.Context) error {
	existing, err := s.blueprints.List(ctx)
	if err != nil {
		return fmt.Errorf("list blueprints: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	_, err = s.CreateBlueprint(ctx, domain.DefaultBlueprint())
	if errors.Is(err, domain.ErrDuplicateBlueprintID) {
		// Another instance seeded first.
		return nil
	}
	return err
}
