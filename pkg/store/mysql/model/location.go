package model

import "time"

// WorkerLocation MySQL model for worker_locations table (current position per offer and worker)
type WorkerLocation struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID      string    `gorm:"column:offer_id;type:varchar(64);not null;uniqueIndex:idx_offer_worker,priority:1" json:"offer_id"`
	WorkerID     string    `gorm:"column:worker_id;type:varchar(64);not null;uniqueIndex:idx_offer_worker,priority:2" json:"worker_id"`
	AssignmentID string    `gorm:"column:assignment_id;type:varchar(64);not null;index:idx_location_assignment" json:"assignment_id"`
	Lat          float64   `gorm:"column:lat;type:double;not null" json:"lat"`
	Lng          float64   `gorm:"column:lng;type:double;not null" json:"lng"`
	Accuracy     *float64  `gorm:"column:accuracy;type:double" json:"accuracy"`
	RecordedAt   time.Time `gorm:"column:recorded_at;not null" json:"recorded_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name for WorkerLocation
func (WorkerLocation) TableName() string {
	return "worker_locations"
}

// WorkerLocationHistory MySQL model for the append-only worker_location_history table (one row per assignment and timestamp)
type WorkerLocationHistory struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID      string    `gorm:"column:offer_id;type:varchar(64);not null" json:"offer_id"`
	WorkerID     string    `gorm:"column:worker_id;type:varchar(64);not null" json:"worker_id"`
	AssignmentID string    `gorm:"column:assignment_id;type:varchar(64);not null;uniqueIndex:idx_history_assignment_recorded,priority:1" json:"assignment_id"`
	Lat          float64   `gorm:"column:lat;type:double;not null" json:"lat"`
	Lng          float64   `gorm:"column:lng;type:double;not null" json:"lng"`
	Accuracy     *float64  `gorm:"column:accuracy;type:double" json:"accuracy"`
	RecordedAt   time.Time `gorm:"column:recorded_at;not null;uniqueIndex:idx_history_assignment_recorded,priority:2" json:"recorded_at"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for WorkerLocationHistory
func (WorkerLocationHistory) TableName() string {
	return "worker_location_history"
}
