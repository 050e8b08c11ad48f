package model

import (
	"time"

	"shiftboard/pkg/penalty"
)

// PenaltyRecord immutable XP deduction, unique per (assignment, kind)
type PenaltyRecord struct {
	ID           string                 `json:"id"`
	WorkerID     string                 `json:"worker_id"`
	AssignmentID string                 `json:"assignment_id"`
	OfferID      *string                `json:"offer_id,omitempty"`
	Kind         penalty.Kind           `json:"kind"`
	XPAmount     int64                  `json:"xp_amount"`
	Reason       string                 `json:"reason"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// PenaltyOutcome result of applying a penalty
type PenaltyOutcome struct {
	Record *PenaltyRecord
	// Created is false when the record already existed and nothing was charged
	Created bool
	XP      *XPChange
}
