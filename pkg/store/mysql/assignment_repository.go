package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Assignment statuses as stored
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// AssignmentRepository handles assignment persistence in MySQL
type AssignmentRepository struct {
	ds *Datastore
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(ds *Datastore) *AssignmentRepository {
	return &AssignmentRepository{ds: ds}
}

// Create creates a new assignment
func (r *AssignmentRepository) Create(ctx context.Context, a *Assignment) error {
	if err := r.ds.DB(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// Get retrieves an assignment by assignment ID
func (r *AssignmentRepository) Get(ctx context.Context, assignmentID string) (*Assignment, error) {
	var a Assignment
	err := r.ds.DB(ctx).Where("assignment_id = ?", assignmentID).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &a, nil
}

// ListByWorker retrieves a worker's assignments, newest first, optionally filtered by stored status
func (r *AssignmentRepository) ListByWorker(ctx context.Context, workerID string, statuses []string, limit, offset int) ([]*Assignment, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := r.ds.DB(ctx).Where("worker_id = ?", workerID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var list []*Assignment
	err := query.Order("accepted_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return list, nil
}

// ListNonTerminalByWorker retrieves a worker's pending and in-progress assignments
func (r *AssignmentRepository) ListNonTerminalByWorker(ctx context.Context, workerID string) ([]*Assignment, error) {
	var list []*Assignment
	err := r.ds.DB(ctx).
		Where("worker_id = ? AND status IN ?", workerID, []string{StatusPending, StatusInProgress}).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active assignments: %w", err)
	}
	return list, nil
}

// UpdateStatus moves an assignment from one status to another (CAS)
// Returns false if the stored status was no longer fromStatus
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, assignmentID, fromStatus, toStatus string, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": toStatus}
	for k, v := range fields {
		updates[k] = v
	}
	result := r.ds.DB(ctx).Model(&Assignment{}).
		Where("assignment_id = ? AND status = ?", assignmentID, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update assignment status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// SetPenaltySettled flags whether every penalty due on the assignment has been written
func (r *AssignmentRepository) SetPenaltySettled(ctx context.Context, assignmentID string, settled bool) error {
	err := r.ds.DB(ctx).Model(&Assignment{}).
		Where("assignment_id = ?", assignmentID).
		Update("penalty_settled", settled).Error
	if err != nil {
		return fmt.Errorf("failed to update penalty settlement: %w", err)
	}
	return nil
}

// ListPenaltyUnsettled retrieves assignments whose penalty write has not succeeded yet
func (r *AssignmentRepository) ListPenaltyUnsettled(ctx context.Context, limit int) ([]*Assignment, error) {
	if limit <= 0 {
		limit = 100
	}
	var list []*Assignment
	err := r.ds.DB(ctx).
		Where("penalty_settled = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled penalties: %w", err)
	}
	return list, nil
}

// ListCompletionUnsettled retrieves confirmed assignments not yet credited for completion,
// in shift order so streak days accrue oldest first
func (r *AssignmentRepository) ListCompletionUnsettled(ctx context.Context, limit int) ([]*Assignment, error) {
	if limit <= 0 {
		limit = 100
	}
	var list []*Assignment
	err := r.ds.DB(ctx).
		Select("assignments.*").
		Joins("JOIN offers ON offers.offer_id = assignments.offer_id").
		Where("assignments.status IN ? AND assignments.confirmed_at IS NOT NULL AND assignments.completion_settled_at IS NULL",
			[]string{StatusInProgress, StatusCompleted}).
		Order("offers.date ASC").
		Order("offers.time_end ASC").
		Order("assignments.id ASC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled completions: %w", err)
	}
	return list, nil
}

// MarkCompletionSettled records the completion credit exactly once
func (r *AssignmentRepository) MarkCompletionSettled(ctx context.Context, assignmentID string, at time.Time) (bool, error) {
	result := r.ds.DB(ctx).Model(&Assignment{}).
		Where("assignment_id = ? AND completion_settled_at IS NULL", assignmentID).
		Updates(map[string]interface{}{
			"completion_settled_at": at.UTC(),
			"updated_at":            at.UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark completion settled: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
