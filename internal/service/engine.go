package service

import (
	"context"
	"fmt"
	"time"

	"shiftboard/internal/model"
	"shiftboard/pkg/config"
	"shiftboard/pkg/conflict"
	"shiftboard/pkg/eventbus"
	"shiftboard/pkg/interfaces"
	"shiftboard/pkg/logger"
	"shiftboard/pkg/schedule"
	"shiftboard/pkg/store/mysql"
)

// Clock returns the current instant; services take one so tests can pin time
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// engine holds what every lifecycle service shares
type engine struct {
	repo  *mysql.Repository
	bus   interfaces.EventPublisher
	cfg   config.EngineConfig
	loc   *time.Location
	clock Clock
}

func newEngine(repo *mysql.Repository, bus interfaces.EventPublisher, cfg config.EngineConfig) engine {
	return engine{
		repo:  repo,
		bus:   bus,
		cfg:   cfg,
		loc:   cfg.Location(),
		clock: systemClock,
	}
}

func (e *engine) now() time.Time {
	return e.clock().UTC()
}

func (e *engine) today() string {
	return schedule.Day(e.now(), e.loc)
}

// window resolves an offer's schedule in the engine time zone
func (e *engine) window(o *mysql.Offer) (schedule.Window, error) {
	w, err := schedule.Parse(o.Date, o.TimeStart, o.TimeEnd, e.loc)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("offer %s has an invalid schedule: %w", o.OfferID, err)
	}
	return w, nil
}

// publish is fire-and-forget; failures are logged only
func (e *engine) publish(ctx context.Context, evt eventbus.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ctx, evt); err != nil {
		logger.WarnCtx(ctx, "failed to publish %s event: %v", evt.Type, err)
	}
}

// detail builds the read model for an assignment with its derived status
func (e *engine) detail(a *mysql.Assignment, o *mysql.Offer) *model.AssignmentDetail {
	d := &model.AssignmentDetail{
		Assignment: mysql.ToAssignmentDomain(a),
		Offer:      mysql.ToOfferDomain(o),
	}
	d.EffectiveStatus = d.Assignment.Status
	if o != nil {
		if w, err := e.window(o); err == nil {
			d.EffectiveStatus = model.DeriveStatus(d.Assignment.Status, schedule.Ended(w, e.now()))
		}
	}
	return d
}

// loadAssignment fetches an assignment and its offer, NotFound if either is missing
func (e *engine) loadAssignment(ctx context.Context, assignmentID string) (*mysql.Assignment, *mysql.Offer, error) {
	a, err := e.repo.Assignment.Get(ctx, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, notFound("assignment", assignmentID)
	}
	o, err := e.repo.Offer.Get(ctx, a.OfferID)
	if err != nil {
		return nil, nil, err
	}
	if o == nil {
		return nil, nil, notFound("offer", a.OfferID)
	}
	return a, o, nil
}

// held returns the worker's assignments that still block the calendar.
// Assignments whose shift already ended read as completed and no longer block.
func (e *engine) held(ctx context.Context, workerID string) ([]conflict.Held, error) {
	active, err := e.repo.Assignment.ListNonTerminalByWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(active))
	for _, a := range active {
		ids = append(ids, a.OfferID)
	}
	offers, err := e.repo.Offer.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := e.now()
	held := make([]conflict.Held, 0, len(active))
	for _, a := range active {
		o, ok := offers[a.OfferID]
		if !ok {
			continue
		}
		w, err := e.window(o)
		if err != nil {
			logger.WarnCtx(ctx, "skipping assignment %s in conflict check: %v", a.AssignmentID, err)
			continue
		}
		if schedule.Ended(w, now) {
			continue
		}
		held = append(held, conflict.Held{AssignmentID: a.AssignmentID, OfferID: a.OfferID, Window: w})
	}
	return held, nil
}
