// Package conflict decides whether a worker may take on an offer given the
// assignments the worker already holds.
package conflict

import (
	"fmt"

	"shiftboard/pkg/schedule"
)

// Reason codes for an unacceptable offer
const (
	ReasonOwnOffer = "own_offer"
	ReasonOverlap  = "overlap"
)

// Candidate is the offer a worker wants to accept
type Candidate struct {
	OfferID  string
	PosterID string
	Window   schedule.Window
}

// Held is an offer behind one of the worker's non-terminal assignments
type Held struct {
	AssignmentID string
	OfferID      string
	Window       schedule.Window
}

// Decision is the outcome of a conflict check
type Decision struct {
	Acceptable bool
	Code       string
	Reason     string
	// ConflictsWith is the offer id of the overlapping assignment, if any
	ConflictsWith string
}

// Check returns whether workerID can accept candidate while holding held.
// Callers pass only non-terminal assignments; the candidate itself is ignored if present.
func Check(workerID string, candidate Candidate, held []Held) Decision {
	if candidate.PosterID != "" && candidate.PosterID == workerID {
		return Decision{
			Code:   ReasonOwnOffer,
			Reason: "you cannot accept an offer you posted",
		}
	}

	for _, h := range held {
		if h.OfferID == candidate.OfferID {
			continue
		}
		if schedule.Overlaps(candidate.Window, h.Window) {
			return Decision{
				Code: ReasonOverlap,
				Reason: fmt.Sprintf("this shift (%s %s-%s) overlaps another shift you accepted (%s-%s)",
					candidate.Window.Date,
					candidate.Window.Start.Format(schedule.TimeLayout),
					candidate.Window.End.Format(schedule.TimeLayout),
					h.Window.Start.Format(schedule.TimeLayout),
					h.Window.End.Format(schedule.TimeLayout)),
				ConflictsWith: h.OfferID,
			}
		}
	}

	return Decision{Acceptable: true}
}
