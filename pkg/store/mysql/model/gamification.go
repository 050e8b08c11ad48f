package model

import "time"

// GamificationProfile MySQL model for gamification_profiles table.
// current_level is a cache of level(total_xp); version guards concurrent updates.
type GamificationProfile struct {
	WorkerID          string       `gorm:"column:worker_id;type:varchar(64);primaryKey" json:"worker_id"`
	TotalXP           int64        `gorm:"column:total_xp;not null" json:"total_xp"`
	CurrentLevel      int          `gorm:"column:current_level;not null" json:"current_level"`
	CurrentStreak     int          `gorm:"column:current_streak;not null" json:"current_streak"`
	LastQualifyingDay *string      `gorm:"column:last_qualifying_day;type:varchar(10)" json:"last_qualifying_day"`
	StreakMilestones  JSONIntArray `gorm:"column:streak_milestones;type:json" json:"streak_milestones"`
	Version           int64        `gorm:"column:version;not null" json:"version"`
	CreatedAt         time.Time    `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name for GamificationProfile
func (GamificationProfile) TableName() string {
	return "gamification_profiles"
}
