package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocationRepository handles current positions and the route trail
type LocationRepository struct {
	ds *Datastore
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(ds *Datastore) *LocationRepository {
	return &LocationRepository{ds: ds}
}

// UpsertCurrent stores loc as the current position for (offer, worker) unless a
// position with an equal or newer timestamp is already stored.
// Returns true when the stored current position changed.
func (r *LocationRepository) UpsertCurrent(ctx context.Context, loc *WorkerLocation) (bool, error) {
	loc.RecordedAt = loc.RecordedAt.UTC()

	updated, err := r.updateIfNewer(ctx, loc)
	if err != nil || updated {
		return updated, err
	}

	existing, err := r.GetCurrent(ctx, loc.OfferID, loc.WorkerID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		// stored position is at least as recent
		return false, nil
	}

	result := r.ds.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "offer_id"}, {Name: "worker_id"}},
			DoNothing: true,
		}).
		Create(loc)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create current location: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	// lost an insert race, the winner may be older
	return r.updateIfNewer(ctx, loc)
}

func (r *LocationRepository) updateIfNewer(ctx context.Context, loc *WorkerLocation) (bool, error) {
	result := r.ds.DB(ctx).Model(&WorkerLocation{}).
		Where("offer_id = ? AND worker_id = ? AND recorded_at < ?", loc.OfferID, loc.WorkerID, loc.RecordedAt).
		Updates(map[string]interface{}{
			"assignment_id": loc.AssignmentID,
			"lat":           loc.Lat,
			"lng":           loc.Lng,
			"accuracy":      loc.Accuracy,
			"recorded_at":   loc.RecordedAt,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update current location: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// GetCurrent retrieves the current position for (offer, worker)
func (r *LocationRepository) GetCurrent(ctx context.Context, offerID, workerID string) (*WorkerLocation, error) {
	var loc WorkerLocation
	err := r.ds.DB(ctx).Where("offer_id = ? AND worker_id = ?", offerID, workerID).First(&loc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get current location: %w", err)
	}
	return &loc, nil
}

// AppendHistory appends one immutable trail row unless the assignment already has a
// row for the same recorded_at. Returns true only when this call inserted the row
func (r *LocationRepository) AppendHistory(ctx context.Context, h *WorkerLocationHistory) (bool, error) {
	h.RecordedAt = h.RecordedAt.UTC()
	result := r.ds.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assignment_id"}, {Name: "recorded_at"}},
			DoNothing: true,
		}).
		Create(h)
	if result.Error != nil {
		return false, fmt.Errorf("failed to append location history: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ListHistory retrieves an assignment's trail ordered by recorded time
func (r *LocationRepository) ListHistory(ctx context.Context, assignmentID string, limit int) ([]*WorkerLocationHistory, error) {
	if limit <= 0 || limit > 10000 {
		limit = 5000
	}
	var list []*WorkerLocationHistory
	err := r.ds.DB(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("recorded_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list location history: %w", err)
	}
	return list, nil
}
