package mysql

import (
	"shiftboard/internal/model"
	"shiftboard/pkg/penalty"
)

// ToOfferDomain converts MySQL Offer to domain Offer model
func ToOfferDomain(o *Offer) *model.Offer {
	if o == nil {
		return nil
	}
	return &model.Offer{
		ID:                 o.OfferID,
		PosterID:           o.PosterID,
		Type:               model.OfferType(o.Type),
		Address:            o.Address,
		Lat:                o.Lat,
		Lng:                o.Lng,
		Date:               o.Date,
		TimeStart:          o.TimeStart,
		TimeEnd:            o.TimeEnd,
		PaymentAmount:      o.PaymentAmount,
		PaymentTerms:       o.PaymentTerms,
		NeedsEquipment:     o.NeedsEquipment,
		MealIncluded:       o.MealIncluded,
		CanBecomePermanent: o.CanBecomePermanent,
		Description:        o.Description,
		IsAccepted:         o.IsAccepted,
		AcceptedBy:         o.AcceptedBy,
		ArchivedAt:         o.ArchivedAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// FromOfferDomain converts domain Offer model to MySQL Offer
func FromOfferDomain(o *model.Offer) *Offer {
	if o == nil {
		return nil
	}
	return &Offer{
		OfferID:            o.ID,
		PosterID:           o.PosterID,
		Type:               string(o.Type),
		Address:            o.Address,
		Lat:                o.Lat,
		Lng:                o.Lng,
		Date:               o.Date,
		TimeStart:          o.TimeStart,
		TimeEnd:            o.TimeEnd,
		PaymentAmount:      o.PaymentAmount,
		PaymentTerms:       o.PaymentTerms,
		NeedsEquipment:     o.NeedsEquipment,
		MealIncluded:       o.MealIncluded,
		CanBecomePermanent: o.CanBecomePermanent,
		Description:        o.Description,
		IsAccepted:         o.IsAccepted,
		AcceptedBy:         o.AcceptedBy,
		ArchivedAt:         o.ArchivedAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// ToAssignmentDomain converts MySQL Assignment to domain Assignment model
func ToAssignmentDomain(a *Assignment) *model.Assignment {
	if a == nil {
		return nil
	}
	return &model.Assignment{
		ID:                  a.AssignmentID,
		WorkerID:            a.WorkerID,
		OfferID:             a.OfferID,
		Status:              model.AssignmentStatus(a.Status),
		AcceptedAt:          a.AcceptedAt,
		ConfirmedAt:         a.ConfirmedAt,
		CancelledAt:         a.CancelledAt,
		PenaltySettled:      a.PenaltySettled,
		CompletionSettledAt: a.CompletionSettledAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

// FromAssignmentDomain converts domain Assignment model to MySQL Assignment
func FromAssignmentDomain(a *model.Assignment) *Assignment {
	if a == nil {
		return nil
	}
	return &Assignment{
		AssignmentID:        a.ID,
		WorkerID:            a.WorkerID,
		OfferID:             a.OfferID,
		Status:              string(a.Status),
		AcceptedAt:          a.AcceptedAt,
		ConfirmedAt:         a.ConfirmedAt,
		CancelledAt:         a.CancelledAt,
		PenaltySettled:      a.PenaltySettled,
		CompletionSettledAt: a.CompletionSettledAt,
	}
}

// ToPenaltyDomain converts MySQL PenaltyRecord to domain PenaltyRecord
func ToPenaltyDomain(p *PenaltyRecord) *model.PenaltyRecord {
	if p == nil {
		return nil
	}
	return &model.PenaltyRecord{
		ID:           p.PenaltyID,
		WorkerID:     p.WorkerID,
		AssignmentID: p.AssignmentID,
		OfferID:      p.OfferID,
		Kind:         penalty.Kind(p.PenaltyType),
		XPAmount:     p.XPAmount,
		Reason:       p.Reason,
		Details:      map[string]interface{}(p.Details),
		CreatedAt:    p.CreatedAt,
	}
}

// FromPenaltyDomain converts domain PenaltyRecord to MySQL PenaltyRecord
func FromPenaltyDomain(p *model.PenaltyRecord) *PenaltyRecord {
	if p == nil {
		return nil
	}
	return &PenaltyRecord{
		PenaltyID:    p.ID,
		WorkerID:     p.WorkerID,
		AssignmentID: p.AssignmentID,
		OfferID:      p.OfferID,
		PenaltyType:  string(p.Kind),
		XPAmount:     p.XPAmount,
		Reason:       p.Reason,
		Details:      JSONMap(p.Details),
		CreatedAt:    p.CreatedAt,
	}
}

// ToLocationPing converts a current position row to a domain ping
func ToLocationPing(l *WorkerLocation) *model.LocationPing {
	if l == nil {
		return nil
	}
	return &model.LocationPing{
		OfferID:      l.OfferID,
		WorkerID:     l.WorkerID,
		AssignmentID: l.AssignmentID,
		Lat:          l.Lat,
		Lng:          l.Lng,
		Accuracy:     l.Accuracy,
		RecordedAt:   l.RecordedAt,
	}
}

// ToTrailPing converts a trail row to a domain ping
func ToTrailPing(h *WorkerLocationHistory) *model.LocationPing {
	if h == nil {
		return nil
	}
	return &model.LocationPing{
		OfferID:      h.OfferID,
		WorkerID:     h.WorkerID,
		AssignmentID: h.AssignmentID,
		Lat:          h.Lat,
		Lng:          h.Lng,
		Accuracy:     h.Accuracy,
		RecordedAt:   h.RecordedAt,
	}
}
