package service

import (
	"testing"
	"time"

	"shiftboard/internal/model"
	"shiftboard/pkg/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pingAt(lat float64, at *time.Time) *model.PingRequest {
	lng := siteLng
	return &model.PingRequest{Lat: &lat, Lng: &lng, RecordedAt: at}
}

func TestPing_PendingOnlyReevaluatesGates(t *testing.T) {
	f := newFixture(t)
	f.offer("o1", "poster-1", "2026-03-10", "09:00", "12:00")
	id := f.accept("w1", "o1")
	feed := f.bus.Subscribe(eventbus.WorkerTopic("w1"))
	defer feed.Close()

	res, err := f.tracking.Ping(f.ctx, "w1", id, pingAt(siteLat, nil))
	require.NoError(t, err)
	assert.False(t, res.Stored)
	require.NotNil(t, res.Eligibility)
	assert.False(t, res.Eligibility.Eligible, "too early")
	assert.True(t, res.Eligibility.LocationGate)

	evt := nextEvent(t, feed, eventbus.TypeArrivalEligibility)
	assert.Equal(t, false, evt.Data["eligible"])

	f.at("08:35")
	res, err = f.tracking.Ping(f.ctx, "w1", id, pingAt(siteLat, nil))
	require.NoError(t, err)
	assert.True(t, res.Eligibility.Eligible)
	evt = nextEvent(t, feed, eventbus.TypeArrivalEligibility)
	assert.Equal(t, true, evt.Data["eligible"])

	trail, err := f.repo.Location.ListHistory(f.ctx, id, 0)
	require.NoError(t, err)
	assert.Empty(t, trail, "pending pings are not part of the trail")
	cur, err := f.repo.Location.GetCurrent(f.ctx, "o1", "w1")
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestPing_InProgressStoresTrailAndKeepsNewestCurrent(t *testing.T) {
	f := newFixture(t)
	f.offer("o1", "poster-1", "2026-03-10", "09:00", "12:00")
	id := f.accept("w1", "o1")
	f.arriveAt("w1", id, "09:00")
	feed := f.bus.Subscribe(eventbus.AssignmentTopic(id))
	defer feed.Close()
	offerFeed := f.bus.Subscribe(eventbus.OfferTopic("o1"))
	defer offerFeed.Close()

	f.at("09:10")
	res, err := f.tracking.Ping(f.ctx, "w1", id, pingAt(-23.56, nil))
	require.NoError(t, err)
	assert.True(t, res.Stored)
	assert.True(t, res.CurrentUpdated)
	nextEvent(t, feed, eventbus.TypeLocationUpdated)
	noEvent(t, offerFeed, eventbus.TypeLocationUpdated)

	// delayed delivery of an older fix
	older := time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC)
	res, err = f.tracking.Ping(f.ctx, "w1", id, pingAt(-23.57, &older))
	require.NoError(t, err)
	assert.True(t, res.Stored)
	assert.False(t, res.CurrentUpdated)
	noEvent(t, feed, eventbus.TypeLocationUpdated)

	view, err := f.tracking.Status(f.ctx, "poster-1", id)
	require.NoError(t, err)
	require.NotNil(t, view.Current)
	assert.InDelta(t, -23.56, view.Current.Lat, 1e-9)

	trail, err := f.tracking.Trail(f.ctx, "poster-1", id, 0)
	require.NoError(t, err)
	require.Len(t, trail, 3, "arrival fix plus both pings")
	for i := 1; i < len(trail); i++ {
		assert.False(t, trail[i].RecordedAt.Before(trail[i-1].RecordedAt))
	}
	assert.InDelta(t, -23.57, trail[1].Lat, 1e-9)
}

func TestPing_SameTimestampRetryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.offer("o1", "poster-1", "2026-03-10", "09:00", "12:00")
	id := f.accept("w1", "o1")
	f.arriveAt("w1", id, "09:00")
	f.at("09:20")

	fixAt := time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)
	res, err := f.tracking.Ping(f.ctx, "w1", id, pingAt(-23.56, &fixAt))
	require.NoError(t, err)
	assert.True(t, res.Stored)
	assert.False(t, res.Duplicate)

	res, err = f.tracking.Ping(f.ctx, "w1", id, pingAt(-23.56, &fixAt))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.False(t, res.CurrentUpdated)

	trail, err := f.tracking.Trail(f.ctx, "w1", id, 0)
	require.NoError(t, err)
	assert.Len(t, trail, 2, "arrival fix plus one ping")
}

func TestTrackerStatus_Classification(t *testing.T) {
	f := newFixture(t)
	f.offer("o1", "poster-1", "2026-03-10", "09:00", "12:00")
	id := f.accept("w1", "o1")

	view, err := f.tracking.Status(f.ctx, "w1", id)
	require.NoError(t, err)
	assert.Equal(t, model.TrackerStatusUnknown, view.Status)
	assert.Nil(t, view.Current)

	f.arriveAt("w1", id, "09:00")

	f.at("09:02")
	view, err = f.tracking.Status(f.ctx, "poster-1", id)
	require.NoError(t, err)
	assert.Equal(t, model.TrackerStatusActive, view.Status)
	require.NotNil(t, view.AgeSeconds)
	assert.InDelta(t, 120, *view.AgeSeconds, 1e-6)

	f.at("09:03")
	view, err = f.tracking.Status(f.ctx, "poster-1", id)
	require.NoError(t, err)
	assert.Equal(t, model.TrackerStatusInactive, view.Status)

	_, err = f.tracking.Status(f.ctx, "stranger", id)
	requireCode(t, err, CodeForbidden)
}

func TestPing_Rejections(t *testing.T) {
	f := newFixture(t)
	f.offer("o1", "poster-1", "2026-03-10", "09:00", "12:00")
	id := f.accept("w1", "o1")

	_, err := f.tracking.Ping(f.ctx, "w2", id, pingAt(siteLat, nil))
	requireCode(t, err, CodeForbidden)

	_, err = f.tracking.Ping(f.ctx, "w1", id, &model.PingRequest{})
	requireCode(t, err, CodeValidation)

	_, err = f.tracking.Ping(f.ctx, "w1", id, pingAt(120, nil))
	requireCode(t, err, CodeValidation)

	_, err = f.assignments.Cancel(f.ctx, "w1", id)
	require.NoError(t, err)
	_, err = f.tracking.Ping(f.ctx, "w1", id, pingAt(siteLat, nil))
	requireCode(t, err, CodeInvalidTransition)
}
