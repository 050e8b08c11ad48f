package model

import "time"

// Assignment MySQL model for assignments table
type Assignment struct {
	ID                  int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AssignmentID        string     `gorm:"column:assignment_id;type:varchar(64);not null;uniqueIndex:idx_assignment_id_unique" json:"assignment_id"`
	WorkerID            string     `gorm:"column:worker_id;type:varchar(64);not null;index:idx_worker_status,priority:1" json:"worker_id"`
	OfferID             string     `gorm:"column:offer_id;type:varchar(64);not null;index:idx_offer_id" json:"offer_id"`
	Status              string     `gorm:"column:status;type:varchar(20);not null;index:idx_worker_status,priority:2" json:"status"`
	AcceptedAt          time.Time  `gorm:"column:accepted_at;not null" json:"accepted_at"`
	ConfirmedAt         *time.Time `gorm:"column:confirmed_at" json:"confirmed_at"`
	CancelledAt         *time.Time `gorm:"column:cancelled_at" json:"cancelled_at"`
	PenaltySettled      bool       `gorm:"column:penalty_settled;not null;index:idx_penalty_settled" json:"penalty_settled"`
	CompletionSettledAt *time.Time `gorm:"column:completion_settled_at" json:"completion_settled_at"`
	CreatedAt           time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name for Assignment
func (Assignment) TableName() string {
	return "assignments"
}
