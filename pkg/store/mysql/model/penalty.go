package model

import "time"

// PenaltyRecord MySQL model for the append-only penalty_history table.
// (assignment_id, penalty_type) is unique so a retried write never charges twice.
type PenaltyRecord struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PenaltyID    string    `gorm:"column:penalty_id;type:varchar(64);not null;uniqueIndex:idx_penalty_id_unique" json:"penalty_id"`
	WorkerID     string    `gorm:"column:worker_id;type:varchar(64);not null;index:idx_worker_created,priority:1" json:"worker_id"`
	AssignmentID string    `gorm:"column:assignment_id;type:varchar(64);not null;uniqueIndex:idx_assignment_kind,priority:1" json:"assignment_id"`
	PenaltyType  string    `gorm:"column:penalty_type;type:varchar(20);not null;uniqueIndex:idx_assignment_kind,priority:2" json:"penalty_type"`
	XPAmount     int64     `gorm:"column:xp_amount;not null" json:"xp_amount"`
	Reason       string    `gorm:"column:reason;type:text;not null" json:"reason"`
	Details      JSONMap   `gorm:"column:details;type:json" json:"details"`
	OfferID      *string   `gorm:"column:offer_id;type:varchar(64)" json:"offer_id"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;index:idx_worker_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for PenaltyRecord
func (PenaltyRecord) TableName() string {
	return "penalty_history"
}
