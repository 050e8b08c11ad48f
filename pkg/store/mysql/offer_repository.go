package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OfferRepository handles offer persistence in MySQL
type OfferRepository struct {
	ds *Datastore
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(ds *Datastore) *OfferRepository {
	return &OfferRepository{ds: ds}
}

// OfferQuery list filters
type OfferQuery struct {
	PosterID        string
	Date            string
	FromDate        string // inclusive lower bound on date
	OnlyOpen        bool   // not accepted
	IncludeArchived bool
	Limit           int
	Offset          int
}

// Create creates a new offer
func (r *OfferRepository) Create(ctx context.Context, offer *Offer) error {
	if err := r.ds.DB(ctx).Create(offer).Error; err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

// Get retrieves an offer by offer ID
func (r *OfferRepository) Get(ctx context.Context, offerID string) (*Offer, error) {
	var offer Offer
	err := r.ds.DB(ctx).Where("offer_id = ?", offerID).First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return &offer, nil
}

// GetByIDs retrieves offers by offer IDs, keyed by offer ID
func (r *OfferRepository) GetByIDs(ctx context.Context, offerIDs []string) (map[string]*Offer, error) {
	result := make(map[string]*Offer, len(offerIDs))
	if len(offerIDs) == 0 {
		return result, nil
	}

	var offers []*Offer
	if err := r.ds.DB(ctx).Where("offer_id IN ?", offerIDs).Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to get offers: %w", err)
	}
	for _, o := range offers {
		result[o.OfferID] = o
	}
	return result, nil
}

// List retrieves offers ordered by schedule
func (r *OfferRepository) List(ctx context.Context, q OfferQuery) ([]*Offer, error) {
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := r.ds.DB(ctx).Model(&Offer{})
	if q.PosterID != "" {
		query = query.Where("poster_id = ?", q.PosterID)
	}
	if q.Date != "" {
		query = query.Where("date = ?", q.Date)
	}
	if q.FromDate != "" {
		query = query.Where("date >= ?", q.FromDate)
	}
	if q.OnlyOpen {
		query = query.Where("is_accepted = ?", false)
	}
	if !q.IncludeArchived {
		query = query.Where("archived_at IS NULL")
	}

	var offers []*Offer
	err := query.
		Order("date ASC").
		Order("time_start ASC").
		Order("id ASC").
		Limit(limit).
		Offset(q.Offset).
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

// UpdateIfOpen updates fields of an offer only while it is unaccepted and not archived (CAS)
// Returns false if the offer was accepted or archived in the meantime
func (r *OfferRepository) UpdateIfOpen(ctx context.Context, offerID string, updates map[string]interface{}) (bool, error) {
	result := r.ds.DB(ctx).Model(&Offer{}).
		Where("offer_id = ? AND is_accepted = ? AND archived_at IS NULL", offerID, false).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update offer: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkAccepted sets accepted_by iff the offer is still unaccepted (CAS)
// Exactly one of several concurrent callers gets true
func (r *OfferRepository) MarkAccepted(ctx context.Context, offerID, workerID string, at time.Time) (bool, error) {
	result := r.ds.DB(ctx).Model(&Offer{}).
		Where("offer_id = ? AND is_accepted = ? AND archived_at IS NULL", offerID, false).
		Updates(map[string]interface{}{
			"is_accepted": true,
			"accepted_by": workerID,
			"updated_at":  at.UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to accept offer: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// RevertAcceptance makes the offer available again iff workerID still holds it
func (r *OfferRepository) RevertAcceptance(ctx context.Context, offerID, workerID string, at time.Time) (bool, error) {
	result := r.ds.DB(ctx).Model(&Offer{}).
		Where("offer_id = ? AND is_accepted = ? AND accepted_by = ?", offerID, true, workerID).
		Updates(map[string]interface{}{
			"is_accepted": false,
			"accepted_by": nil,
			"updated_at":  at.UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to revert offer acceptance: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ListUnarchivedUpTo retrieves unarchived offers scheduled on or before date
func (r *OfferRepository) ListUnarchivedUpTo(ctx context.Context, date string, limit int) ([]*Offer, error) {
	if limit <= 0 {
		limit = 500
	}
	var offers []*Offer
	err := r.ds.DB(ctx).
		Where("archived_at IS NULL AND date <= ?", date).
		Order("date ASC").
		Order("id ASC").
		Limit(limit).
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expirable offers: %w", err)
	}
	return offers, nil
}

// Archive marks an offer archived; the acceptance outcome is left untouched
func (r *OfferRepository) Archive(ctx context.Context, offerID string, at time.Time) (bool, error) {
	result := r.ds.DB(ctx).Model(&Offer{}).
		Where("offer_id = ? AND archived_at IS NULL", offerID).
		Updates(map[string]interface{}{
			"archived_at": at.UTC(),
			"updated_at":  at.UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to archive offer: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
