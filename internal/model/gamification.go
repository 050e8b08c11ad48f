package model

import "time"

// GamificationProfile worker XP, level and streak. Level and streak are derived on read.
type GamificationProfile struct {
	WorkerID          string     `json:"worker_id"`
	TotalXP           int64      `json:"total_xp"`
	Level             int        `json:"level"`
	NextLevelXP       *int64     `json:"next_level_xp,omitempty"`
	CurrentStreak     int        `json:"current_streak"`
	LastQualifyingDay string     `json:"last_qualifying_day,omitempty"`
	StreakMilestones  []int      `json:"streak_milestones"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// XPChange effect of one XP mutation
type XPChange struct {
	WorkerID    string `json:"worker_id"`
	Before      int64  `json:"before"`
	After       int64  `json:"after"`
	LevelBefore int    `json:"level_before"`
	LevelAfter  int    `json:"level_after"`
}

// LeveledUp reports an upward threshold crossing
func (c *XPChange) LeveledUp() bool {
	return c != nil && c.LevelAfter > c.LevelBefore
}

// CompletionResult outcome of settling one completed assignment
type CompletionResult struct {
	AssignmentID string   `json:"assignment_id"`
	XP           XPChange `json:"xp"`
	Streak       int      `json:"streak"`
	Milestones   []int    `json:"milestones,omitempty"`
}
