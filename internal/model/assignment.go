package model

import (
	"time"

	"shiftboard/pkg/geo"
	"shiftboard/pkg/penalty"
)

// AssignmentStatus assignment lifecycle status
type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"     // Accepted, worker not yet on site
	AssignmentStatusInProgress AssignmentStatus = "in_progress" // Arrival confirmed
	AssignmentStatusCompleted  AssignmentStatus = "completed"   // Shift window elapsed
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"   // Cancelled by the worker before arrival
)

// IsTerminal reports whether no further transition is possible
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentStatusCompleted || s == AssignmentStatusCancelled
}

// DeriveStatus returns the status consumers must observe. A non-terminal
// assignment whose shift has ended reads as completed regardless of what is stored.
func DeriveStatus(stored AssignmentStatus, ended bool) AssignmentStatus {
	if ended && !stored.IsTerminal() {
		return AssignmentStatusCompleted
	}
	return stored
}

// Assignment binding between one worker and one accepted offer
type Assignment struct {
	ID                  string           `json:"id"`
	WorkerID            string           `json:"worker_id"`
	OfferID             string           `json:"offer_id"`
	Status              AssignmentStatus `json:"stored_status"`
	AcceptedAt          time.Time        `json:"accepted_at"`
	ConfirmedAt         *time.Time       `json:"confirmed_at,omitempty"`
	CancelledAt         *time.Time       `json:"cancelled_at,omitempty"`
	PenaltySettled      bool             `json:"penalty_settled"`
	CompletionSettledAt *time.Time       `json:"completion_settled_at,omitempty"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// AssignmentDetail assignment with its offer and derived status
type AssignmentDetail struct {
	*Assignment
	EffectiveStatus AssignmentStatus `json:"status"`
	Offer           *Offer           `json:"offer,omitempty"`
}

// AcceptOfferResponse accept response
type AcceptOfferResponse struct {
	Assignment *AssignmentDetail `json:"assignment"`
}

// CancelResponse cancellation outcome
type CancelResponse struct {
	Assignment *AssignmentDetail `json:"assignment"`
	Penalty    *PenaltyRecord    `json:"penalty,omitempty"`
	// PenaltyPending is set when the penalty write failed and will be reconciled
	PenaltyPending bool `json:"penalty_pending,omitempty"`
}

// CancellationQuote preview of the penalty a cancellation would incur
type CancellationQuote struct {
	AssignmentID string         `json:"assignment_id"`
	Allowed      bool           `json:"allowed"`
	Reason       string         `json:"reason"`
	LeadMinutes  int            `json:"lead_minutes"`
	Penalty      penalty.Result `json:"penalty"`
}

// ConfirmArrivalRequest arrival confirmation with the device's current fix
type ConfirmArrivalRequest struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Accuracy *float64 `json:"accuracy"`
}

// Position returns the reported position, nil without a fix
func (r *ConfirmArrivalRequest) Position() *geo.Point {
	return geo.NewPoint(r.Lat, r.Lng)
}

// ArrivalResponse arrival outcome
type ArrivalResponse struct {
	Assignment      *AssignmentDetail `json:"assignment"`
	LatenessMinutes int               `json:"lateness_minutes"`
	Penalty         *PenaltyRecord    `json:"penalty,omitempty"`
	PenaltyPending  bool              `json:"penalty_pending,omitempty"`
}

// ArrivalEligibility result of the geofence and time gate
type ArrivalEligibility struct {
	AssignmentID string    `json:"assignment_id"`
	Eligible     bool      `json:"eligible"`
	TimeGate     bool      `json:"time_gate"`
	LocationGate bool      `json:"location_gate"`
	DistanceKm   *float64  `json:"distance_km,omitempty"`
	RadiusKm     float64   `json:"radius_km"`
	OpensAt      time.Time `json:"opens_at"`
	Reason       string    `json:"reason,omitempty"`
}

// AssignmentFilter listing filter
type AssignmentFilter struct {
	WorkerID   string
	OnlyActive bool
	Limit      int
	Offset     int
}
