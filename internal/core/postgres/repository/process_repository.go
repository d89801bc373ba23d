package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-flowgate/internal/core/ports"
	"go-flowgate/internal/domain"
)

type processRepository struct {
	db *gorm.DB
}

// NewProcessRepository creates a ProcessStore backed by the workflow_processes table.
func NewProcessRepository(db *gorm.DB) ports.ProcessStore {
	return &processRepository{db: db}
}

func (r *processRepository) Insert(ctx context.Context, p domain.WorkflowProcess) error {
	rec, err := newProcessRecord(p)
	if err != nil {
		return fmt.Errorf("postgres: encode process %s: %w", p.ID, err)
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("postgres: insert process %s: %w", p.ID, err)
	}
	return nil
}

func (r *processRepository) Get(ctx context.Context, id string) (domain.WorkflowProcess, error) {
	var rec processRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.WorkflowProcess{}, domain.ProcessNotFound(id)
		}
		return domain.WorkflowProcess{}, fmt.Errorf("postgres: get process %s: %w", id, err)
	}
	return rec.toDomain()
}

func (r *processRepository) List(ctx context.Context, filter ports.ProcessFilter) ([]domain.WorkflowProcess, error) {
	q := r.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if filter.BlueprintID != "" {
		q = q.Where("blueprint_id = ?", filter.BlueprintID)
	}

	var recs []processRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("postgres: list processes: %w", err)
	}

	out := make([]domain.WorkflowProcess, 0, len(recs))
	for i := range recs {
		p, err := recs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Update locks the row with SELECT ... FOR UPDATE for the duration of the transaction,
// so guard evaluation in fn always sees the latest committed state of the process.
func (r *processRepository) Update(ctx context.Context, id string, fn ports.UpdateFunc) (domain.WorkflowProcess, error) {
	var next domain.WorkflowProcess

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec processRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&rec).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ProcessNotFound(id)
			}
			return fmt.Errorf("postgres: lock process %s: %w", id, err)
		}

		current, err := rec.toDomain()
		if err != nil {
			return err
		}

		next, err = fn(current)
		if err != nil {
			return err
		}

		history, err := encodeHistory(next.History)
		if err != nil {
			return fmt.Errorf("postgres: encode history of %s: %w", id, err)
		}

		return tx.Model(&processRecord{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"current_state_id": next.CurrentStateID,
				"history":          history,
			}).Error
	})
	if err != nil {
		return domain.WorkflowProcess{}, err
	}

	return next, nil
}
