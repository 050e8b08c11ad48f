package model

import "time"

// TrackerStatus GPS freshness classification
type TrackerStatus string

const (
	TrackerStatusActive   TrackerStatus = "active"   // Current position is fresh
	TrackerStatusInactive TrackerStatus = "inactive" // Current position is stale
	TrackerStatusUnknown  TrackerStatus = "unknown"  // No position has been recorded
)

// LocationPing one reported device position
type LocationPing struct {
	OfferID      string    `json:"offer_id"`
	WorkerID     string    `json:"worker_id"`
	AssignmentID string    `json:"assignment_id"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// PingRequest position update from the worker's device
type PingRequest struct {
	Lat        *float64   `json:"lat" binding:"required"`
	Lng        *float64   `json:"lng" binding:"required"`
	Accuracy   *float64   `json:"accuracy"`
	RecordedAt *time.Time `json:"recorded_at"`
}

// PingResult outcome of ingesting a ping
type PingResult struct {
	// Stored is true when the ping was persisted (assignment in progress)
	Stored bool `json:"stored"`
	// Duplicate is true when the trail already held a fix with the same timestamp
	Duplicate bool `json:"duplicate,omitempty"`
	// CurrentUpdated is false when a newer position was already stored
	CurrentUpdated bool                `json:"current_updated"`
	Eligibility    *ArrivalEligibility `json:"eligibility,omitempty"`
}

// TrackerView live tracking state for one assignment
type TrackerView struct {
	AssignmentID string        `json:"assignment_id"`
	Status       TrackerStatus `json:"status"`
	Current      *LocationPing `json:"current,omitempty"`
	AgeSeconds   *float64      `json:"age_seconds,omitempty"`
}
