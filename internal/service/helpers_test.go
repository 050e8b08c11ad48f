package service

import (
	"context"
	"testing"
	"time"

	"shiftboard/internal/model"
	"shiftboard/internal/testutil"
	"shiftboard/pkg/config"
	"shiftboard/pkg/eventbus"
	"shiftboard/pkg/lock"
	"shiftboard/pkg/store/mysql"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	siteLat = -23.5505
	siteLng = -46.6333
)

type fixture struct {
	t    *testing.T
	ctx  context.Context
	repo *mysql.Repository
	bus  *eventbus.Bus
	cfg  config.EngineConfig
	now  time.Time

	offers       *OfferService
	assignments  *AssignmentService
	penalties    *PenaltyService
	gamification *GamificationService
	tracking     *TrackingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		t:    t,
		ctx:  context.Background(),
		repo: testutil.NewTestRepository(t),
		bus:  eventbus.New(nil),
		cfg:  config.DefaultEngineConfig(),
		now:  time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.gamification = NewGamificationService(f.repo, f.bus, f.cfg)
	f.penalties = NewPenaltyService(f.repo, f.bus, f.cfg, f.gamification)
	f.offers = NewOfferService(f.repo, f.bus, f.cfg)
	f.assignments = NewAssignmentService(f.repo, f.bus, f.cfg, lock.NewLocker(nil), f.penalties)
	f.tracking = NewTrackingService(f.repo, f.bus, f.cfg)

	f.gamification.SetClock(clock)
	f.penalties.SetClock(clock)
	f.offers.SetClock(clock)
	f.assignments.SetClock(clock)
	f.tracking.SetClock(clock)
	return f
}

func (f *fixture) at(hhmm string) {
	f.t.Helper()
	tm, err := time.Parse("2006-01-02 15:04", f.now.Format("2006-01-02")+" "+hhmm)
	require.NoError(f.t, err)
	f.now = tm.UTC()
}

// offer stores an open offer on date with site coordinates, bypassing create validation
func (f *fixture) offer(id, poster, date, start, end string) *mysql.Offer {
	f.t.Helper()
	lat, lng := siteLat, siteLng
	row := &mysql.Offer{
		OfferID:       id,
		PosterID:      poster,
		Type:          "poster",
		Address:       "Av. Paulista 1000",
		Lat:           &lat,
		Lng:           &lng,
		Date:          date,
		TimeStart:     start,
		TimeEnd:       end,
		PaymentAmount: decimal.NewFromInt(120),
	}
	require.NoError(f.t, f.repo.Offer.Create(f.ctx, row))
	return row
}

func (f *fixture) accept(worker, offerID string) string {
	f.t.Helper()
	resp, err := f.assignments.Accept(f.ctx, worker, offerID)
	require.NoError(f.t, err)
	return resp.Assignment.ID
}

// arriveAt confirms arrival at hhmm from the offer site
func (f *fixture) arriveAt(worker, assignmentID, hhmm string) {
	f.t.Helper()
	f.at(hhmm)
	lat, lng := siteLat, siteLng
	_, err := f.assignments.ConfirmArrival(f.ctx, worker, assignmentID, &model.ConfirmArrivalRequest{Lat: &lat, Lng: &lng})
	require.NoError(f.t, err)
}

func (f *fixture) xp(worker string) int64 {
	f.t.Helper()
	p, err := f.gamification.GetProfile(f.ctx, worker)
	require.NoError(f.t, err)
	return p.TotalXP
}

func requireCode(t *testing.T, err error, code Code) *Error {
	t.Helper()
	require.Error(t, err)
	e := AsError(err)
	require.NotNil(t, e, "expected a typed error, got %v", err)
	require.Equal(t, code, e.Code, e.Reason)
	return e
}

// nextEvent waits for the next event of type typ on sub
func nextEvent(t *testing.T, sub *eventbus.Subscription, typ string) eventbus.Event {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case evt, ok := <-sub.C():
			require.True(t, ok, "subscription closed")
			if evt.Type == typ {
				return evt
			}
		case <-deadline:
			t.Fatalf("no %s event received", typ)
			return eventbus.Event{}
		}
	}
}

// noEvent asserts that no event of type typ is pending on sub
func noEvent(t *testing.T, sub *eventbus.Subscription, typ string) {
	t.Helper()
	for {
		select {
		case evt := <-sub.C():
			require.NotEqual(t, typ, evt.Type)
		default:
			return
		}
	}
}
