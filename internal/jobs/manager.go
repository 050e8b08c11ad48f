package jobs

import (
	"context"
	"sync"
	"time"

	"shiftboard/pkg/lock"
	"shiftboard/pkg/logger"
)

// Job represents a periodic background sweep.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// AlignedJob is a job that runs at aligned time boundaries (e.g., on the minute).
type AlignedJob interface {
	Job
	AlignToInterval() bool
}

// Manager orchestrates the lifecycle of background jobs.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	jobs    []Job
	started bool

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewManager creates a job manager bound to the provided context.
func NewManager(parent context.Context) *Manager {
	ctx, cancel := context.WithCancel(parent)
	return &Manager{
		ctx:    ctx,
		cancel: cancel,
		jobs:   make([]Job, 0),
	}
}

// Register adds a job to the manager.
func (m *Manager) Register(job Job) {
	if job == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

// Jobs returns the registered job names
func (m *Manager) Jobs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.jobs))
	for _, j := range m.jobs {
		names = append(names, j.Name())
	}
	return names
}

// Start launches all registered jobs.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	jobs := append([]Job(nil), m.jobs...)
	m.mu.Unlock()

	for _, job := range jobs {
		m.wg.Add(1)
		go m.runJob(job)
	}
}

// Stop signals all jobs to stop.
func (m *Manager) Stop() {
	m.cancel()
}

// Wait blocks until all jobs exit.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) runJob(job Job) {
	defer m.wg.Done()

	interval := job.Interval()
	if interval <= 0 {
		interval = time.Minute
	}

	alignedJob, shouldAlign := job.(AlignedJob)
	if shouldAlign && alignedJob.AlignToInterval() {
		now := time.Now()
		next := now.Truncate(interval).Add(interval)
		waitDuration := next.Sub(now)

		logger.InfoCtx(m.ctx, "job %s will start at next aligned time: %v (in %v)", job.Name(), next.Format("15:04:05"), waitDuration)

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(waitDuration):
			m.executeJob(job)
		}
	} else {
		// Run immediately once.
		m.executeJob(job)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.executeJob(job)
		}
	}
}

func (m *Manager) executeJob(job Job) {
	if err := job.Run(m.ctx); err != nil {
		logger.WarnCtx(m.ctx, "background job %s failed: %v", job.Name(), err)
	}
}

// SweepFunc processes up to limit due rows and reports how many it handled
type SweepFunc func(ctx context.Context, limit int) (int, error)

// sweepJob runs a SweepFunc on one replica at a time
type sweepJob struct {
	name     string
	interval time.Duration
	limit    int
	sweep    SweepFunc
	lock     lock.DistributedLock
}

// NewSweepJob wraps sweep as a job guarded by dl. A nil dl runs every cycle.
func NewSweepJob(name string, interval time.Duration, limit int, sweep SweepFunc, dl lock.DistributedLock) Job {
	if limit <= 0 {
		limit = 100
	}
	return &sweepJob{name: name, interval: interval, limit: limit, sweep: sweep, lock: dl}
}

func (j *sweepJob) Name() string { return j.name }

func (j *sweepJob) Interval() time.Duration { return j.interval }

func (j *sweepJob) Run(ctx context.Context) error {
	if j.lock != nil {
		acquired, err := j.lock.TryLock(ctx)
		if err != nil || !acquired {
			logger.DebugCtx(ctx, "another instance is running %s, skipping this cycle", j.name)
			return nil
		}
		defer j.lock.Unlock(ctx)
	}

	n, err := j.sweep(ctx, j.limit)
	if n > 0 {
		logger.InfoCtx(ctx, "%s processed %d rows", j.name, n)
	}
	return err
}
