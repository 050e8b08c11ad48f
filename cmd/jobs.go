package main

import (
	"shiftboard/internal/jobs"
	"shiftboard/pkg/lock"
	"shiftboard/pkg/logger"
)

const sweepBatchSize = 200

// initJobs registers the periodic sweeps. Each takes a distributed lock so only
// one replica runs a given sweep per cycle; without Redis the lock is process-local.
func (app *Application) initJobs() error {
	if app.offerService == nil || app.gamificationService == nil || app.penaltyService == nil {
		logger.WarnCtx(app.ctx, "Service layer not fully initialized yet, skipping background task registration")
		return nil
	}

	manager := jobs.NewManager(app.ctx)
	intervals := app.config.Jobs

	// Archive offers whose window has fully elapsed
	manager.Register(jobs.NewSweepJob("offer-expiry", intervals.OfferExpiryInterval, sweepBatchSize,
		app.offerService.ExpireEnded, app.locker.New(lock.JobKey("offer-expiry"))))

	// Award completion XP and streaks for fulfilled shifts, once each
	manager.Register(jobs.NewSweepJob("completion-settle", intervals.CompletionSettleInterval, sweepBatchSize,
		app.gamificationService.SettleCompletions, app.locker.New(lock.JobKey("completion-settle"))))

	// Retry penalties whose write failed during cancel or arrival
	manager.Register(jobs.NewSweepJob("penalty-reconcile", intervals.PenaltyReconcileInterval, sweepBatchSize,
		app.penaltyService.Reconcile, app.locker.New(lock.JobKey("penalty-reconcile"))))

	logger.InfoCtx(app.ctx, "Registered background jobs: %v", manager.Jobs())
	app.jobsManager = manager
	return nil
}
