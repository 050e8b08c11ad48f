package service

import (
	"context"
	"strings"

	"shiftboard/internal/model"
	"shiftboard/pkg/config"
	"shiftboard/pkg/conflict"
	"shiftboard/pkg/eventbus"
	"shiftboard/pkg/geo"
	"shiftboard/pkg/interfaces"
	"shiftboard/pkg/logger"
	"shiftboard/pkg/schedule"
	"shiftboard/pkg/store/mysql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferService manages the offer catalog
type OfferService struct {
	engine
}

// NewOfferService creates a new offer service
func NewOfferService(repo *mysql.Repository, bus interfaces.EventPublisher, cfg config.EngineConfig) *OfferService {
	return &OfferService{engine: newEngine(repo, bus, cfg)}
}

// SetClock overrides the time source
func (s *OfferService) SetClock(c Clock) { s.clock = c }

// offerFields is the validated, normalized editable part of an offer
type offerFields struct {
	address   string
	lat, lng  *float64
	date      string
	timeStart string
	timeEnd   string
	amount    decimal.Decimal
}

func (s *OfferService) validate(f *offerFields) error {
	f.address = strings.TrimSpace(f.address)
	if f.address == "" {
		return validationError("address is required")
	}
	if (f.lat == nil) != (f.lng == nil) {
		return validationError("lat and lng must be provided together")
	}
	if p := geo.NewPoint(f.lat, f.lng); p != nil {
		if err := p.Validate(); err != nil {
			return validationError("%v", err)
		}
	}

	start, err := schedule.NormalizeClock(f.timeStart)
	if err != nil {
		return validationError("%v", err)
	}
	end, err := schedule.NormalizeClock(f.timeEnd)
	if err != nil {
		return validationError("%v", err)
	}
	w, err := schedule.Parse(f.date, start, end, s.loc)
	if err != nil {
		return validationError("%v", err)
	}
	if schedule.Ended(w, s.now()) {
		return validationError("the shift on %s %s-%s has already ended", w.Date, start, end)
	}
	if f.amount.IsNegative() {
		return validationError("payment amount cannot be negative")
	}

	f.date, f.timeStart, f.timeEnd = w.Date, start, end
	f.amount = f.amount.Round(2)
	return nil
}

// Create publishes a new offer owned by posterID
func (s *OfferService) Create(ctx context.Context, posterID string, req *model.CreateOfferRequest) (*model.Offer, error) {
	offerType := req.Type
	if offerType == "" {
		offerType = model.OfferTypePoster
	}
	if !offerType.Valid() {
		return nil, validationError("unknown offer type %q", offerType)
	}

	f := offerFields{
		address:   req.Address,
		lat:       req.Lat,
		lng:       req.Lng,
		date:      req.Date,
		timeStart: req.TimeStart,
		timeEnd:   req.TimeEnd,
		amount:    req.PaymentAmount,
	}
	if err := s.validate(&f); err != nil {
		return nil, err
	}

	now := s.now()
	row := &mysql.Offer{
		OfferID:            uuid.New().String(),
		PosterID:           posterID,
		Type:               string(offerType),
		Address:            f.address,
		Lat:                f.lat,
		Lng:                f.lng,
		Date:               f.date,
		TimeStart:          f.timeStart,
		TimeEnd:            f.timeEnd,
		PaymentAmount:      f.amount,
		PaymentTerms:       req.PaymentTerms,
		NeedsEquipment:     req.NeedsEquipment,
		MealIncluded:       req.MealIncluded,
		CanBecomePermanent: req.CanBecomePermanent,
		Description:        req.Description,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Offer.Create(ctx, row); err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "offer created, offer_id: %s, poster_id: %s, date: %s %s-%s",
		row.OfferID, posterID, row.Date, row.TimeStart, row.TimeEnd)
	return mysql.ToOfferDomain(row), nil
}

// Get returns an offer by id
func (s *OfferService) Get(ctx context.Context, offerID string) (*model.Offer, error) {
	row, err := s.repo.Offer.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, notFound("offer", offerID)
	}
	return mysql.ToOfferDomain(row), nil
}

// Update edits an offer while it is still open. Only the poster may edit.
func (s *OfferService) Update(ctx context.Context, posterID, offerID string, req *model.UpdateOfferRequest) (*model.Offer, error) {
	row, err := s.repo.Offer.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, notFound("offer", offerID)
	}
	if row.PosterID != posterID {
		return nil, forbidden("only the poster can edit this offer")
	}
	if row.IsAccepted || row.ArchivedAt != nil {
		return nil, invalidTransition("an offer can only be edited before it is accepted")
	}

	f := offerFields{
		address:   row.Address,
		lat:       row.Lat,
		lng:       row.Lng,
		date:      row.Date,
		timeStart: row.TimeStart,
		timeEnd:   row.TimeEnd,
		amount:    row.PaymentAmount,
	}
	if req.Address != nil {
		f.address = *req.Address
	}
	if req.Lat != nil || req.Lng != nil {
		f.lat, f.lng = req.Lat, req.Lng
	}
	if req.Date != nil {
		f.date = *req.Date
	}
	if req.TimeStart != nil {
		f.timeStart = *req.TimeStart
	}
	if req.TimeEnd != nil {
		f.timeEnd = *req.TimeEnd
	}
	if req.PaymentAmount != nil {
		f.amount = *req.PaymentAmount
	}
	if err := s.validate(&f); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"address":        f.address,
		"lat":            f.lat,
		"lng":            f.lng,
		"date":           f.date,
		"time_start":     f.timeStart,
		"time_end":       f.timeEnd,
		"payment_amount": f.amount,
		"updated_at":     s.now(),
	}
	if req.PaymentTerms != nil {
		updates["payment_terms"] = *req.PaymentTerms
	}
	if req.NeedsEquipment != nil {
		updates["needs_equipment"] = *req.NeedsEquipment
	}
	if req.MealIncluded != nil {
		updates["meal_included"] = *req.MealIncluded
	}
	if req.CanBecomePermanent != nil {
		updates["can_become_permanent"] = *req.CanBecomePermanent
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	ok, err := s.repo.Offer.UpdateIfOpen(ctx, offerID, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidTransition("the offer was accepted before the edit could be saved")
	}
	return s.Get(ctx, offerID)
}

// ListForWorker returns open, not yet ended offers, each flagged with whether
// workerID could accept it right now and why not
func (s *OfferService) ListForWorker(ctx context.Context, workerID string, filter model.OfferFilter) ([]*model.OfferListing, error) {
	q := mysql.OfferQuery{
		Date:     filter.Date,
		OnlyOpen: true,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	if q.Date == "" {
		q.FromDate = s.today()
	}
	rows, err := s.repo.Offer.List(ctx, q)
	if err != nil {
		return nil, err
	}

	held, err := s.held(ctx, workerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*model.OfferListing, 0, len(rows))
	for _, row := range rows {
		w, err := s.window(row)
		if err != nil {
			logger.WarnCtx(ctx, "skipping offer in listing: %v", err)
			continue
		}
		if schedule.Ended(w, now) {
			continue
		}
		d := conflict.Check(workerID, conflict.Candidate{OfferID: row.OfferID, PosterID: row.PosterID, Window: w}, held)
		out = append(out, &model.OfferListing{
			Offer:         mysql.ToOfferDomain(row),
			Acceptable:    d.Acceptable,
			ReasonCode:    d.Code,
			Reason:        d.Reason,
			ConflictsWith: d.ConflictsWith,
		})
	}
	return out, nil
}

// ListByPoster returns a poster's own offers, including accepted ones
func (s *OfferService) ListByPoster(ctx context.Context, posterID string, filter model.OfferFilter) ([]*model.Offer, error) {
	rows, err := s.repo.Offer.List(ctx, mysql.OfferQuery{
		PosterID:        posterID,
		Date:            filter.Date,
		OnlyOpen:        filter.OnlyOpen,
		IncludeArchived: filter.IncludeArchived,
		Limit:           filter.Limit,
		Offset:          filter.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*model.Offer, 0, len(rows))
	for _, row := range rows {
		out = append(out, mysql.ToOfferDomain(row))
	}
	return out, nil
}

// ExpireEnded archives offers whose window has fully elapsed. The acceptance
// outcome is kept; archiving only takes the offer out of circulation.
func (s *OfferService) ExpireEnded(ctx context.Context, limit int) (int, error) {
	rows, err := s.repo.Offer.ListUnarchivedUpTo(ctx, s.today(), limit)
	if err != nil {
		return 0, err
	}

	now := s.now()
	archived := 0
	for _, row := range rows {
		w, err := s.window(row)
		if err != nil {
			logger.WarnCtx(ctx, "offer expiry: %v", err)
			continue
		}
		if !schedule.Ended(w, now) {
			continue
		}
		ok, err := s.repo.Offer.Archive(ctx, row.OfferID, now)
		if err != nil {
			return archived, err
		}
		if !ok {
			continue
		}
		archived++
		s.publish(ctx, eventbus.Event{
			Type:    eventbus.TypeOfferArchived,
			Topics:  []string{eventbus.OfferTopic(row.OfferID), eventbus.WorkerTopic(row.PosterID)},
			OfferID: row.OfferID,
			Data: map[string]any{
				"poster_id":   row.PosterID,
				"is_accepted": row.IsAccepted,
			},
		})
	}
	if archived > 0 {
		logger.InfoCtx(ctx, "archived %d ended offers", archived)
	}
	return archived, nil
}
