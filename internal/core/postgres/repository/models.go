package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go-flowgate/internal/domain"
)

type blueprintRecord struct {
	ID      string         `gorm:"type:varchar(100);primaryKey"`
	Name    string         `gorm:"type:varchar(200);not null;default:''"`
	States  datatypes.JSON `gorm:"type:jsonb;not null"`
	Actions datatypes.JSON `gorm:"type:jsonb;not null"`

	// Audit
	CreatedAt time.Time
}

func (blueprintRecord) TableName() string { return "workflow_blueprints" }

type processRecord struct {
	ID             string         `gorm:"type:varchar(100);primaryKey"`
	BlueprintID    string         `gorm:"type:varchar(100);index;not null"`
	CurrentStateID string         `gorm:"type:varchar(100);not null"`
	History        datatypes.JSON `gorm:"type:jsonb;not null"`

	// Audit
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (processRecord) TableName() string { return "workflow_processes" }

// Migrate creates or updates the tables backing both repositories.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&blueprintRecord{}, &processRecord{}); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func newBlueprintRecord(bp domain.WorkflowBlueprint) (*blueprintRecord, error) {
	states, err := json.Marshal(nonNil(bp.States))
	if err != nil {
		return nil, err
	}
	actions, err := json.Marshal(nonNil(bp.Actions))
	if err != nil {
		return nil, err
	}
	return &blueprintRecord{
		ID:      bp.ID,
		Name:    bp.Name,
		States:  states,
		Actions: actions,
	}, nil
}

func (r *blueprintRecord) toDomain() (domain.WorkflowBlueprint, error) {
	bp := domain.WorkflowBlueprint{ID: r.ID, Name: r.Name}
	if err := json.Unmarshal(r.States, &bp.States); err != nil {
		return domain.WorkflowBlueprint{}, fmt.Errorf("decode states of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(r.Actions, &bp.Actions); err != nil {
		return domain.WorkflowBlueprint{}, fmt.Errorf("decode actions of %s: %w", r.ID, err)
	}
	return bp, nil
}

func encodeHistory(h []domain.HistoryEntry) (datatypes.JSON, error) {
	return json.Marshal(nonNil(h))
}

func newProcessRecord(p domain.WorkflowProcess) (*processRecord, error) {
	history, err := encodeHistory(p.History)
	if err != nil {
		return nil, err
	}
	return &processRecord{
		ID:             p.ID,
		BlueprintID:    p.BlueprintID,
		CurrentStateID: p.CurrentStateID,
		History:        history,
		CreatedAt:      p.CreatedAt,
	}, nil
}

func (r *processRecord) toDomain() (domain.WorkflowProcess, error) {
	p := domain.WorkflowProcess{
		ID:             r.ID,
		BlueprintID:    r.BlueprintID,
		CurrentStateID: r.CurrentStateID,
		History:        []domain.HistoryEntry{},
		CreatedAt:      r.CreatedAt.UTC(),
	}
	if err := json.Unmarshal(r.History, &p.History); err != nil {
		return domain.WorkflowProcess{}, fmt.Errorf("decode history of %s: %w", r.ID, err)
	}
	return p, nil
}

// nonNil keeps JSON columns as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
