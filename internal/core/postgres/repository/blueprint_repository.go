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

type blueprintRepository struct {
	db *gorm.DB
}

// NewBlueprintRepository creates a BlueprintStore backed by the workflow_blueprints table.
func NewBlueprintRepository(db *gorm.DB) ports.BlueprintStore {
	return &blueprintRepository{db: db}
}

// Insert relies on the primary key: ON CONFLICT DO NOTHING turns a concurrent or repeated
// insert of the same ID into a zero-row result instead of a second registration.
func (r *blueprintRepository) Insert(ctx context.Context, bp domain.WorkflowBlueprint) error {
	rec, err := newBlueprintRecord(bp)
	if err != nil {
		return fmt.Errorf("postgres: encode blueprint %s: %w", bp.ID, err)
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.DuplicateBlueprintID(bp.ID)
		}
		return fmt.Errorf("postgres: insert blueprint %s: %w", bp.ID, result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.DuplicateBlueprintID(bp.ID)
	}

	return nil
}

func (r *blueprintRepository) Get(ctx context.Context, id string) (domain.WorkflowBlueprint, error) {
	var rec blueprintRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.WorkflowBlueprint{}, domain.BlueprintNotFound(id)
		}
		return domain.WorkflowBlueprint{}, fmt.Errorf("postgres: get blueprint %s: %w", id, err)
	}
	return rec.toDomain()
}

func (r *blueprintRepository) List(ctx context.Context) ([]domain.WorkflowBlueprint, error) {
	var recs []blueprintRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("postgres: list blueprints: %w", err)
	}

	out := make([]domain.WorkflowBlueprint, 0, len(recs))
	for i := range recs {
		bp, err := recs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, bp)
	}
	return out, nil
}
