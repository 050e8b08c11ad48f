package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"shiftboard/pkg/lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepJob_RunsSweepWithLimit(t *testing.T) {
	var gotLimit int
	job := NewSweepJob("offer-expiry", time.Minute, 25, func(ctx context.Context, limit int) (int, error) {
		gotLimit = limit
		return 3, nil
	}, nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 25, gotLimit)
	assert.Equal(t, "offer-expiry", job.Name())
	assert.Equal(t, time.Minute, job.Interval())
}

func TestSweepJob_DefaultLimit(t *testing.T) {
	var gotLimit int
	job := NewSweepJob("x", time.Minute, 0, func(ctx context.Context, limit int) (int, error) {
		gotLimit = limit
		return 0, nil
	}, nil)
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 100, gotLimit)
}

func TestSweepJob_SkipsWhenLockHeldElsewhere(t *testing.T) {
	locker := lock.NewLocker(nil)
	key := lock.JobKey(t.Name())

	holder := locker.New(key)
	ok, err := holder.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	defer holder.Unlock(context.Background())

	var calls int32
	job := NewSweepJob("settle", time.Minute, 10, func(ctx context.Context, limit int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, nil
	}, locker.New(key))

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSweepJob_ReleasesLockAfterRun(t *testing.T) {
	locker := lock.NewLocker(nil)
	dl := locker.New(lock.JobKey(t.Name()))

	sweepErr := errors.New("boom")
	job := NewSweepJob("reconcile", time.Minute, 10, func(ctx context.Context, limit int) (int, error) {
		return 1, sweepErr
	}, dl)

	assert.ErrorIs(t, job.Run(context.Background()), sweepErr)
	assert.False(t, dl.IsHeld())

	// a second run acquires the same key again
	assert.ErrorIs(t, job.Run(context.Background()), sweepErr)
}

func TestManager_RunsImmediatelyAndStops(t *testing.T) {
	m := NewManager(context.Background())

	ran := make(chan struct{}, 4)
	m.Register(NewSweepJob("tick", time.Hour, 1, func(ctx context.Context, limit int) (int, error) {
		ran <- struct{}{}
		return 0, nil
	}, nil))
	m.Register(nil)
	assert.Equal(t, []string{"tick"}, m.Jobs())

	m.Start()
	m.Start()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}

	m.Stop()
	done := make(chan struct{})
	go func() {
		m.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}
	assert.Len(t, ran, 0)
}
