package service

import (
	"context"

	"shiftboard/internal/model"
	"shiftboard/pkg/config"
	"shiftboard/pkg/eventbus"
	"shiftboard/pkg/geo"
	"shiftboard/pkg/interfaces"
	"shiftboard/pkg/store/mysql"
)

// TrackingService ingests position pings and answers live tracking queries
type TrackingService struct {
	engine
}

// NewTrackingService creates a new tracking service
func NewTrackingService(repo *mysql.Repository, bus interfaces.EventPublisher, cfg config.EngineConfig) *TrackingService {
	return &TrackingService{engine: newEngine(repo, bus, cfg)}
}

// SetClock overrides the time source
func (s *TrackingService) SetClock(c Clock) { s.clock = c }

// Ping ingests one position from the assignment's worker.
// In progress: the current position is upserted (older pings never replace a
// newer one) and a trail row is appended. Pending: nothing is stored, the arrival
// gates are re-evaluated and the result is published to the worker.
func (s *TrackingService) Ping(ctx context.Context, workerID, assignmentID string, req *model.PingRequest) (*model.PingResult, error) {
	if req.Lat == nil || req.Lng == nil {
		return nil, validationError("lat and lng are required")
	}
	pos := geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	if err := pos.Validate(); err != nil {
		return nil, validationError("%v", err)
	}

	a, o, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.WorkerID != workerID {
		return nil, forbidden("assignment %s belongs to another worker", assignmentID)
	}
	w, err := s.window(o)
	if err != nil {
		return nil, err
	}

	now := s.now()
	status := s.detail(a, o).EffectiveStatus
	switch status {
	case model.AssignmentStatusPending:
		elig := evaluateArrival(assignmentID, w, geo.NewPoint(o.Lat, o.Lng), &pos, now, s.cfg, s.loc)
		s.publish(ctx, eventbus.Event{
			Type:         eventbus.TypeArrivalEligibility,
			Topics:       []string{eventbus.WorkerTopic(workerID)},
			OfferID:      a.OfferID,
			AssignmentID: assignmentID,
			WorkerID:     workerID,
			Data: map[string]any{
				"eligible":      elig.Eligible,
				"time_gate":     elig.TimeGate,
				"location_gate": elig.LocationGate,
				"reason":        elig.Reason,
			},
		})
		return &model.PingResult{Eligibility: elig}, nil
	case model.AssignmentStatusInProgress:
	default:
		return nil, invalidTransition("positions are not tracked for an assignment that is %s", status)
	}

	recordedAt := now
	if req.RecordedAt != nil && !req.RecordedAt.IsZero() && req.RecordedAt.Before(now) {
		recordedAt = req.RecordedAt.UTC()
	}

	var changed, appended bool
	err = s.repo.GetDatastore().ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		changed, err = s.repo.Location.UpsertCurrent(txCtx, &mysql.WorkerLocation{
			OfferID:      a.OfferID,
			WorkerID:     workerID,
			AssignmentID: assignmentID,
			Lat:          pos.Lat,
			Lng:          pos.Lng,
			Accuracy:     req.Accuracy,
			RecordedAt:   recordedAt,
		})
		if err != nil {
			return err
		}
		appended, err = s.repo.Location.AppendHistory(txCtx, &mysql.WorkerLocationHistory{
			OfferID:      a.OfferID,
			WorkerID:     workerID,
			AssignmentID: assignmentID,
			Lat:          pos.Lat,
			Lng:          pos.Lng,
			Accuracy:     req.Accuracy,
			RecordedAt:   recordedAt,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, eventbus.Event{
			Type:         eventbus.TypeLocationUpdated,
			Topics:       []string{eventbus.AssignmentTopic(assignmentID)},
			OfferID:      a.OfferID,
			AssignmentID: assignmentID,
			WorkerID:     workerID,
			Data: map[string]any{
				"lat":         pos.Lat,
				"lng":         pos.Lng,
				"recorded_at": recordedAt,
			},
		})
	}
	return &model.PingResult{Stored: true, Duplicate: !appended, CurrentUpdated: changed}, nil
}

// authorize allows the assignment's worker and the offer's poster
func (s *TrackingService) authorize(ctx context.Context, actorID, assignmentID string) (*mysql.Assignment, error) {
	a, o, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if actorID != a.WorkerID && actorID != o.PosterID {
		return nil, forbidden("you are not a party to assignment %s", assignmentID)
	}
	return a, nil
}

// Status classifies the worker's GPS freshness: active if the current position is
// at most GPSStaleAfter old, inactive if older, unknown without a position
func (s *TrackingService) Status(ctx context.Context, actorID, assignmentID string) (*model.TrackerView, error) {
	a, err := s.authorize(ctx, actorID, assignmentID)
	if err != nil {
		return nil, err
	}

	view := &model.TrackerView{AssignmentID: assignmentID, Status: model.TrackerStatusUnknown}
	cur, err := s.repo.Location.GetCurrent(ctx, a.OfferID, a.WorkerID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return view, nil
	}

	view.Current = mysql.ToLocationPing(cur)
	age := s.now().Sub(cur.RecordedAt)
	seconds := age.Seconds()
	view.AgeSeconds = &seconds
	if age <= s.cfg.GPSStaleAfter {
		view.Status = model.TrackerStatusActive
	} else {
		view.Status = model.TrackerStatusInactive
	}
	return view, nil
}

// Trail returns the recorded route ordered by recorded time
func (s *TrackingService) Trail(ctx context.Context, actorID, assignmentID string, limit int) ([]*model.LocationPing, error) {
	if _, err := s.authorize(ctx, actorID, assignmentID); err != nil {
		return nil, err
	}
	rows, err := s.repo.Location.ListHistory(ctx, assignmentID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*model.LocationPing, 0, len(rows))
	for _, r := range rows {
		out = append(out, mysql.ToTrailPing(r))
	}
	return out, nil
}
