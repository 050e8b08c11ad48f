package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GamificationRepository handles gamification profile persistence
type GamificationRepository struct {
	ds *Datastore
}

// NewGamificationRepository creates a new gamification repository
func NewGamificationRepository(ds *Datastore) *GamificationRepository {
	return &GamificationRepository{ds: ds}
}

// Get retrieves a worker's profile
func (r *GamificationRepository) Get(ctx context.Context, workerID string) (*GamificationProfile, error) {
	var p GamificationProfile
	err := r.ds.DB(ctx).Where("worker_id = ?", workerID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get gamification profile: %w", err)
	}
	return &p, nil
}

// CreateIfAbsent inserts an empty profile unless one exists
func (r *GamificationRepository) CreateIfAbsent(ctx context.Context, p *GamificationProfile) error {
	err := r.ds.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "worker_id"}},
			DoNothing: true,
		}).
		Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to create gamification profile: %w", err)
	}
	return nil
}

// UpdateWithVersion applies updates iff the stored version matches, bumping it (optimistic lock)
// Returns false when another writer updated the profile first
func (r *GamificationRepository) UpdateWithVersion(ctx context.Context, workerID string, version int64, updates map[string]interface{}) (bool, error) {
	fields := map[string]interface{}{"version": version + 1}
	for k, v := range updates {
		fields[k] = v
	}
	result := r.ds.DB(ctx).Model(&GamificationProfile{}).
		Where("worker_id = ? AND version = ?", workerID, version).
		Updates(fields)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update gamification profile: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
