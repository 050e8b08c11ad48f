package service

import (
	"context"
	"fmt"
	"time"

	"shiftboard/internal/model"
	"shiftboard/pkg/config"
	"shiftboard/pkg/conflict"
	"shiftboard/pkg/eventbus"
	"shiftboard/pkg/geo"
	"shiftboard/pkg/interfaces"
	"shiftboard/pkg/lock"
	"shiftboard/pkg/logger"
	"shiftboard/pkg/schedule"
	"shiftboard/pkg/store/mysql"

	"github.com/google/uuid"
)

// acceptLockWait bounds how long an accept waits for the worker's other accepts
const acceptLockWait = 3 * time.Second

// AssignmentService drives the assignment state machine
type AssignmentService struct {
	engine
	locker    *lock.Locker
	penalties *PenaltyService
}

// NewAssignmentService creates a new assignment service. A locker with a nil
// Redis client serializes accepts within this process only.
func NewAssignmentService(repo *mysql.Repository, bus interfaces.EventPublisher, cfg config.EngineConfig, locker *lock.Locker, penaltyService *PenaltyService) *AssignmentService {
	if locker == nil {
		locker = lock.NewLocker(nil)
	}
	return &AssignmentService{
		engine:    newEngine(repo, bus, cfg),
		locker:    locker,
		penalties: penaltyService,
	}
}

// SetClock overrides the time source
func (s *AssignmentService) SetClock(c Clock) { s.clock = c }

// Accept binds workerID to offerID. The offer is claimed with a conditional write,
// so of several concurrent accepts exactly one wins and the rest get AlreadyAccepted.
func (s *AssignmentService) Accept(ctx context.Context, workerID, offerID string) (*model.AcceptOfferResponse, error) {
	offer, err := s.repo.Offer.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, notFound("offer", offerID)
	}
	w, err := s.window(offer)
	if err != nil {
		return nil, err
	}
	candidate := conflict.Candidate{OfferID: offer.OfferID, PosterID: offer.PosterID, Window: w}

	if d := conflict.Check(workerID, candidate, nil); !d.Acceptable {
		return nil, conflictError(d.Reason)
	}
	if offer.IsAccepted {
		return nil, alreadyAccepted()
	}
	if offer.ArchivedAt != nil || schedule.Ended(w, s.now()) {
		return nil, invalidTransition("this offer has expired")
	}

	// one accept per worker at a time so the conflict check below cannot be raced
	l := s.locker.New(lock.AcceptKey(workerID))
	locked, err := l.Lock(ctx, acceptLockWait)
	if err != nil {
		return nil, fmt.Errorf("failed to lock worker %s: %w", workerID, err)
	}
	if !locked {
		return nil, conflictError("another acceptance for your account is in progress, please retry")
	}
	defer func() {
		if err := l.Unlock(context.Background()); err != nil {
			logger.WarnCtx(ctx, "failed to release accept lock for worker %s: %v", workerID, err)
		}
	}()

	held, err := s.held(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if d := conflict.Check(workerID, candidate, held); !d.Acceptable {
		e := conflictError(d.Reason)
		e.Details = map[string]interface{}{"conflicts_with": d.ConflictsWith}
		return nil, e
	}

	now := s.now()
	row := &mysql.Assignment{
		AssignmentID:   uuid.New().String(),
		WorkerID:       workerID,
		OfferID:        offerID,
		Status:         mysql.StatusPending,
		AcceptedAt:     now,
		PenaltySettled: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.repo.GetDatastore().ExecTx(ctx, func(txCtx context.Context) error {
		won, err := s.repo.Offer.MarkAccepted(txCtx, offerID, workerID, now)
		if err != nil {
			return err
		}
		if !won {
			return alreadyAccepted()
		}
		return s.repo.Assignment.Create(txCtx, row)
	})
	if err != nil {
		return nil, err
	}

	offer.IsAccepted = true
	offer.AcceptedBy = &workerID
	logger.InfoCtx(ctx, "offer accepted, offer_id: %s, worker_id: %s, assignment_id: %s", offerID, workerID, row.AssignmentID)

	s.publish(ctx, eventbus.Event{
		Type: eventbus.TypeOfferAccepted,
		Topics: []string{
			eventbus.OfferTopic(offerID),
			eventbus.AssignmentTopic(row.AssignmentID),
			eventbus.WorkerTopic(offer.PosterID),
			eventbus.WorkerTopic(workerID),
		},
		OfferID:      offerID,
		AssignmentID: row.AssignmentID,
		WorkerID:     workerID,
		ActorID:      workerID,
		Data:         map[string]any{"poster_id": offer.PosterID},
	})

	return &model.AcceptOfferResponse{Assignment: s.detail(row, offer)}, nil
}

// loadOwned loads an assignment that must belong to workerID
func (s *AssignmentService) loadOwned(ctx context.Context, workerID, assignmentID string) (*mysql.Assignment, *mysql.Offer, schedule.Window, error) {
	a, o, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, nil, schedule.Window{}, err
	}
	if a.WorkerID != workerID {
		return nil, nil, schedule.Window{}, forbidden("assignment %s belongs to another worker", assignmentID)
	}
	w, err := s.window(o)
	if err != nil {
		return nil, nil, schedule.Window{}, err
	}
	return a, o, w, nil
}

func (s *AssignmentService) effective(a *mysql.Assignment, w schedule.Window) model.AssignmentStatus {
	return model.DeriveStatus(model.AssignmentStatus(a.Status), schedule.Ended(w, s.now()))
}

// QuoteCancellation previews the penalty a cancellation right now would incur
func (s *AssignmentService) QuoteCancellation(ctx context.Context, workerID, assignmentID string) (*model.CancellationQuote, error) {
	a, _, w, err := s.loadOwned(ctx, workerID, assignmentID)
	if err != nil {
		return nil, err
	}

	lead := schedule.LeadMinutes(w, s.now())
	q := &model.CancellationQuote{
		AssignmentID: assignmentID,
		LeadMinutes:  lead,
		Penalty:      s.penalties.Calculator().Cancellation(lead),
	}
	if status := s.effective(a, w); status != model.AssignmentStatusPending {
		q.Reason = fmt.Sprintf("an assignment that is %s cannot be cancelled", status)
		return q, nil
	}
	q.Allowed = true
	q.Reason = q.Penalty.Reason
	return q, nil
}

// Cancel withdraws a pending assignment, reverts the offer to available and
// charges the cancellation penalty. A failed penalty write does not undo the
// cancellation; it is left unsettled for reconciliation.
func (s *AssignmentService) Cancel(ctx context.Context, workerID, assignmentID string) (*model.CancelResponse, error) {
	a, o, w, err := s.loadOwned(ctx, workerID, assignmentID)
	if err != nil {
		return nil, err
	}
	if status := s.effective(a, w); status != model.AssignmentStatusPending {
		return nil, invalidTransition("an assignment that is %s cannot be cancelled", status)
	}

	now := s.now()
	res := s.penalties.Calculator().Cancellation(schedule.LeadMinutes(w, now))

	err = s.repo.GetDatastore().ExecTx(ctx, func(txCtx context.Context) error {
		ok, err := s.repo.Assignment.UpdateStatus(txCtx, assignmentID, mysql.StatusPending, mysql.StatusCancelled, map[string]interface{}{
			"cancelled_at":    now,
			"penalty_settled": !res.Applies(),
			"updated_at":      now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return invalidTransition("the assignment changed state before it could be cancelled")
		}
		reverted, err := s.repo.Offer.RevertAcceptance(txCtx, a.OfferID, workerID, now)
		if err != nil {
			return err
		}
		if !reverted {
			logger.WarnCtx(txCtx, "offer %s was not held by worker %s on cancel", a.OfferID, workerID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.Status = mysql.StatusCancelled
	a.CancelledAt = &now
	a.PenaltySettled = !res.Applies()
	a.UpdatedAt = now
	o.IsAccepted = false
	o.AcceptedBy = nil
	logger.InfoCtx(ctx, "assignment cancelled, assignment_id: %s, worker_id: %s, offer_id: %s", assignmentID, workerID, a.OfferID)

	resp := &model.CancelResponse{}
	if res.Applies() {
		out, err := s.penalties.Apply(ctx, a, res)
		if err != nil {
			logger.ErrorCtx(ctx, "failed to apply cancellation penalty for assignment %s, left for reconciliation: %v", assignmentID, err)
			resp.PenaltyPending = true
		} else {
			resp.Penalty = out.Record
			a.PenaltySettled = true
		}
	}

	s.publish(ctx, eventbus.Event{
		Type: eventbus.TypeOfferCancelled,
		Topics: []string{
			eventbus.OfferTopic(a.OfferID),
			eventbus.AssignmentTopic(assignmentID),
			eventbus.WorkerTopic(o.PosterID),
		},
		OfferID:      a.OfferID,
		AssignmentID: assignmentID,
		WorkerID:     workerID,
		ActorID:      workerID,
		Data: map[string]any{
			"poster_id":  o.PosterID,
			"penalty_xp": res.XP,
		},
	})

	resp.Assignment = s.detail(a, o)
	return resp, nil
}

// evaluateArrival applies the time gate and the geofence. Both must pass;
// a missing position on either side fails the geofence.
func evaluateArrival(assignmentID string, w schedule.Window, site, pos *geo.Point, now time.Time, cfg config.EngineConfig, loc *time.Location) *model.ArrivalEligibility {
	e := &model.ArrivalEligibility{
		AssignmentID: assignmentID,
		RadiusKm:     cfg.GeofenceRadiusKm,
		OpensAt:      w.Start.Add(-cfg.ArrivalLead),
		TimeGate:     schedule.ArrivalOpen(w, cfg.ArrivalLead, now),
	}

	inside, dist := geo.WithinRadius(pos, site, cfg.GeofenceRadiusKm)
	e.LocationGate = inside
	if site != nil && pos != nil {
		d := dist
		e.DistanceKm = &d
	}
	e.Eligible = e.TimeGate && e.LocationGate

	switch {
	case e.Eligible:
	case !e.TimeGate:
		e.Reason = fmt.Sprintf("arrival can be confirmed from %s", e.OpensAt.In(loc).Format(schedule.TimeLayout))
	case site == nil:
		e.Reason = "the offer has no coordinates to check your arrival against"
	case pos == nil:
		e.Reason = "your current location is unknown"
	default:
		e.Reason = fmt.Sprintf("you are %.2f km from the shift location, arrival requires being within %.2f km", dist, cfg.GeofenceRadiusKm)
	}
	return e
}

// CheckEligibility evaluates both arrival gates for a reported position
func (s *AssignmentService) CheckEligibility(ctx context.Context, workerID, assignmentID string, pos *geo.Point) (*model.ArrivalEligibility, error) {
	_, o, w, err := s.loadOwned(ctx, workerID, assignmentID)
	if err != nil {
		return nil, err
	}
	return evaluateArrival(assignmentID, w, geo.NewPoint(o.Lat, o.Lng), pos, s.now(), s.cfg, s.loc), nil
}

// ConfirmArrival moves a pending assignment in progress once both gates pass,
// records the arrival position and charges any delay penalty
func (s *AssignmentService) ConfirmArrival(ctx context.Context, workerID, assignmentID string, req *model.ConfirmArrivalRequest) (*model.ArrivalResponse, error) {
	a, o, w, err := s.loadOwned(ctx, workerID, assignmentID)
	if err != nil {
		return nil, err
	}
	if status := s.effective(a, w); status != model.AssignmentStatusPending {
		return nil, invalidTransition("arrival cannot be confirmed for an assignment that is %s", status)
	}

	now := s.now()
	pos := req.Position()
	if pos != nil {
		if err := pos.Validate(); err != nil {
			return nil, validationError("%v", err)
		}
	}
	elig := evaluateArrival(assignmentID, w, geo.NewPoint(o.Lat, o.Lng), pos, now, s.cfg, s.loc)
	if !elig.Eligible {
		e := notYetEligible(elig.Reason)
		e.Details = map[string]interface{}{"eligibility": elig}
		return nil, e
	}

	lateness := schedule.LatenessMinutes(w, now)
	res := s.penalties.Calculator().Delay(lateness)

	err = s.repo.GetDatastore().ExecTx(ctx, func(txCtx context.Context) error {
		ok, err := s.repo.Assignment.UpdateStatus(txCtx, assignmentID, mysql.StatusPending, mysql.StatusInProgress, map[string]interface{}{
			"confirmed_at":    now,
			"penalty_settled": !res.Applies(),
			"updated_at":      now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return invalidTransition("the assignment changed state before arrival could be confirmed")
		}

		loc := &mysql.WorkerLocation{
			OfferID:      a.OfferID,
			WorkerID:     workerID,
			AssignmentID: assignmentID,
			Lat:          pos.Lat,
			Lng:          pos.Lng,
			Accuracy:     req.Accuracy,
			RecordedAt:   now,
		}
		if _, err := s.repo.Location.UpsertCurrent(txCtx, loc); err != nil {
			return err
		}
		_, err = s.repo.Location.AppendHistory(txCtx, &mysql.WorkerLocationHistory{
			OfferID:      a.OfferID,
			WorkerID:     workerID,
			AssignmentID: assignmentID,
			Lat:          pos.Lat,
			Lng:          pos.Lng,
			Accuracy:     req.Accuracy,
			RecordedAt:   now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	a.Status = mysql.StatusInProgress
	a.ConfirmedAt = &now
	a.PenaltySettled = !res.Applies()
	a.UpdatedAt = now
	logger.InfoCtx(ctx, "arrival confirmed, assignment_id: %s, worker_id: %s, lateness_minutes: %d", assignmentID, workerID, lateness)

	resp := &model.ArrivalResponse{LatenessMinutes: lateness}
	if res.Applies() {
		out, err := s.penalties.Apply(ctx, a, res)
		if err != nil {
			logger.ErrorCtx(ctx, "failed to apply delay penalty for assignment %s, left for reconciliation: %v", assignmentID, err)
			resp.PenaltyPending = true
		} else {
			resp.Penalty = out.Record
			a.PenaltySettled = true
		}
	}

	s.publish(ctx, eventbus.Event{
		Type: eventbus.TypeAssignmentArrived,
		Topics: []string{
			eventbus.AssignmentTopic(assignmentID),
			eventbus.OfferTopic(a.OfferID),
			eventbus.WorkerTopic(o.PosterID),
		},
		OfferID:      a.OfferID,
		AssignmentID: assignmentID,
		WorkerID:     workerID,
		ActorID:      workerID,
		Data: map[string]any{
			"poster_id":        o.PosterID,
			"lateness_minutes": lateness,
			"penalty_xp":       res.XP,
		},
	})

	resp.Assignment = s.detail(a, o)
	return resp, nil
}

// Get returns an assignment to its worker or to the offer's poster
func (s *AssignmentService) Get(ctx context.Context, actorID, assignmentID string) (*model.AssignmentDetail, error) {
	a, o, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if actorID != a.WorkerID && actorID != o.PosterID {
		return nil, forbidden("you are not a party to assignment %s", assignmentID)
	}
	return s.detail(a, o), nil
}

// List returns a worker's assignments, newest first. OnlyActive keeps those whose
// derived status is still pending or in progress.
func (s *AssignmentService) List(ctx context.Context, filter model.AssignmentFilter) ([]*model.AssignmentDetail, error) {
	var statuses []string
	if filter.OnlyActive {
		statuses = []string{mysql.StatusPending, mysql.StatusInProgress}
	}
	rows, err := s.repo.Assignment.ListByWorker(ctx, filter.WorkerID, statuses, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.OfferID)
	}
	offers, err := s.repo.Offer.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*model.AssignmentDetail, 0, len(rows))
	for _, r := range rows {
		d := s.detail(r, offers[r.OfferID])
		if filter.OnlyActive && d.EffectiveStatus.IsTerminal() {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
