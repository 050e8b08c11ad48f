package mysql

import "shiftboard/pkg/store/mysql/model"

// Re-export types from model package so callers only import this package

type (
	// Database models
	Offer                 = model.Offer
	Assignment            = model.Assignment
	PenaltyRecord         = model.PenaltyRecord
	GamificationProfile   = model.GamificationProfile
	WorkerLocation        = model.WorkerLocation
	WorkerLocationHistory = model.WorkerLocationHistory

	// Custom JSON types
	JSONMap      = model.JSONMap
	JSONIntArray = model.JSONIntArray
)

// AllModels lists every table for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&Offer{},
		&Assignment{},
		&PenaltyRecord{},
		&GamificationProfile{},
		&WorkerLocation{},
		&WorkerLocationHistory{},
	}
}
