package service

import (
	"context"

	"shiftboard/internal/model"
	"shiftboard/pkg/config"
	"shiftboard/pkg/eventbus"
	"shiftboard/pkg/interfaces"
	"shiftboard/pkg/logger"
	"shiftboard/pkg/penalty"
	"shiftboard/pkg/schedule"
	"shiftboard/pkg/store/mysql"

	"github.com/google/uuid"
)

// PenaltyService writes the penalty ledger and deducts XP
type PenaltyService struct {
	engine
	calc         *penalty.Calculator
	gamification *GamificationService
}

// NewPenaltyService creates a new penalty service
func NewPenaltyService(repo *mysql.Repository, bus interfaces.EventPublisher, cfg config.EngineConfig, gamificationService *GamificationService) *PenaltyService {
	return &PenaltyService{
		engine:       newEngine(repo, bus, cfg),
		calc:         penalty.NewCalculatorFromConfig(cfg),
		gamification: gamificationService,
	}
}

// SetClock overrides the time source
func (s *PenaltyService) SetClock(c Clock) { s.clock = c }

// Calculator exposes the tier tables
func (s *PenaltyService) Calculator() *penalty.Calculator { return s.calc }

// Apply records res against the assignment and deducts its XP. A retry for the same
// (assignment, kind) returns the existing record and charges nothing.
// The assignment is marked settled in the same transaction.
func (s *PenaltyService) Apply(ctx context.Context, a *mysql.Assignment, res penalty.Result) (*model.PenaltyOutcome, error) {
	if !res.Applies() {
		if err := s.repo.Assignment.SetPenaltySettled(ctx, a.AssignmentID, true); err != nil {
			return nil, err
		}
		return &model.PenaltyOutcome{}, nil
	}

	offerID := a.OfferID
	rec := &mysql.PenaltyRecord{
		PenaltyID:    uuid.New().String(),
		WorkerID:     a.WorkerID,
		AssignmentID: a.AssignmentID,
		PenaltyType:  string(res.Kind),
		XPAmount:     res.XP,
		Reason:       res.Reason,
		Details:      penaltyDetails(res),
		OfferID:      &offerID,
		CreatedAt:    s.now(),
	}

	out := &model.PenaltyOutcome{}
	err := s.repo.GetDatastore().ExecTx(ctx, func(txCtx context.Context) error {
		created, err := s.repo.Penalty.CreateIfAbsent(txCtx, rec)
		if err != nil {
			return err
		}
		out.Created = created

		stored := rec
		if created {
			change, err := s.gamification.ApplyXP(txCtx, a.WorkerID, -res.XP)
			if err != nil {
				return err
			}
			out.XP = change
		} else {
			stored, err = s.repo.Penalty.GetByAssignmentAndType(txCtx, a.AssignmentID, string(res.Kind))
			if err != nil {
				return err
			}
		}
		out.Record = mysql.ToPenaltyDomain(stored)

		return s.repo.Assignment.SetPenaltySettled(txCtx, a.AssignmentID, true)
	})
	if err != nil {
		return nil, err
	}

	if out.Created {
		logger.InfoCtx(ctx, "penalty applied, assignment_id: %s, worker_id: %s, kind: %s, xp: %d",
			a.AssignmentID, a.WorkerID, res.Kind, res.XP)
		data := map[string]any{
			"kind":      string(res.Kind),
			"xp_amount": res.XP,
			"tier":      res.Tier,
			"reason":    res.Reason,
		}
		if out.XP != nil {
			data["total_xp"] = out.XP.After
		}
		s.publish(ctx, eventbus.Event{
			Type:         eventbus.TypePenaltyApplied,
			Topics:       []string{eventbus.WorkerTopic(a.WorkerID), eventbus.AssignmentTopic(a.AssignmentID)},
			OfferID:      a.OfferID,
			AssignmentID: a.AssignmentID,
			WorkerID:     a.WorkerID,
			Data:         data,
		})
		s.gamification.PublishXPChange(ctx, out.XP, "penalty")
	}
	return out, nil
}

func penaltyDetails(res penalty.Result) mysql.JSONMap {
	d := mysql.JSONMap{"tier": res.Tier}
	switch res.Kind {
	case penalty.KindCancellation:
		d["lead_minutes"] = res.Minutes
	case penalty.KindDelay:
		d["lateness_minutes"] = res.Minutes
	}
	return d
}

// Due recomputes the penalty an assignment owes from its recorded transition time
func (s *PenaltyService) Due(a *mysql.Assignment, o *mysql.Offer) (penalty.Result, bool, error) {
	w, err := s.window(o)
	if err != nil {
		return penalty.Result{}, false, err
	}
	switch {
	case a.Status == mysql.StatusCancelled && a.CancelledAt != nil:
		return s.calc.Cancellation(schedule.LeadMinutes(w, *a.CancelledAt)), true, nil
	case a.ConfirmedAt != nil:
		return s.calc.Delay(schedule.LatenessMinutes(w, *a.ConfirmedAt)), true, nil
	default:
		return penalty.Result{}, false, nil
	}
}

// Reconcile retries penalty writes that failed after their transition committed
func (s *PenaltyService) Reconcile(ctx context.Context, limit int) (int, error) {
	list, err := s.repo.Assignment.ListPenaltyUnsettled(ctx, limit)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, a := range list {
		o, err := s.repo.Offer.Get(ctx, a.OfferID)
		if err != nil {
			logger.WarnCtx(ctx, "penalty reconcile: failed to load offer %s: %v", a.OfferID, err)
			continue
		}
		if o == nil {
			logger.WarnCtx(ctx, "penalty reconcile: offer %s for assignment %s is missing", a.OfferID, a.AssignmentID)
			continue
		}

		res, due, err := s.Due(a, o)
		if err != nil {
			logger.WarnCtx(ctx, "penalty reconcile: %v", err)
			continue
		}
		if !due {
			res = penalty.Result{}
		}
		if _, err := s.Apply(ctx, a, res); err != nil {
			logger.WarnCtx(ctx, "penalty reconcile: failed to apply penalty for assignment %s: %v", a.AssignmentID, err)
			continue
		}
		settled++
	}
	return settled, nil
}

// ListByWorker returns the worker's penalty ledger, newest first
func (s *PenaltyService) ListByWorker(ctx context.Context, workerID string, limit, offset int) ([]*model.PenaltyRecord, error) {
	rows, err := s.repo.Penalty.ListByWorker(ctx, workerID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*model.PenaltyRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, mysql.ToPenaltyDomain(r))
	}
	return out, nil
}
