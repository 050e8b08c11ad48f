package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PenaltyRepository handles the append-only penalty ledger
type PenaltyRepository struct {
	ds *Datastore
}

// NewPenaltyRepository creates a new penalty repository
func NewPenaltyRepository(ds *Datastore) *PenaltyRepository {
	return &PenaltyRepository{ds: ds}
}

// CreateIfAbsent inserts the record unless one already exists for (assignment_id, penalty_type)
// Returns true only when this call inserted the row
func (r *PenaltyRepository) CreateIfAbsent(ctx context.Context, rec *PenaltyRecord) (bool, error) {
	result := r.ds.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assignment_id"}, {Name: "penalty_type"}},
			DoNothing: true,
		}).
		Create(rec)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create penalty record: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// GetByAssignmentAndType retrieves the record for one assignment and kind
func (r *PenaltyRepository) GetByAssignmentAndType(ctx context.Context, assignmentID, penaltyType string) (*PenaltyRecord, error) {
	var rec PenaltyRecord
	err := r.ds.DB(ctx).
		Where("assignment_id = ? AND penalty_type = ?", assignmentID, penaltyType).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get penalty record: %w", err)
	}
	return &rec, nil
}

// ListByWorker retrieves a worker's penalty ledger, newest first
func (r *PenaltyRepository) ListByWorker(ctx context.Context, workerID string, limit, offset int) ([]*PenaltyRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var list []*PenaltyRecord
	err := r.ds.DB(ctx).
		Where("worker_id = ?", workerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list penalty records: %w", err)
	}
	return list, nil
}
