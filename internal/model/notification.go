package model

import (
	"encoding/json"
	"time"
)

// Notification outbound message for an external notifier
type Notification struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	RecipientID  string                 `json:"recipient_id,omitempty"`
	OfferID      string                 `json:"offer_id,omitempty"`
	AssignmentID string                 `json:"assignment_id,omitempty"`
	ActorID      string                 `json:"actor_id,omitempty"`
	Data         map[string]interface{} `json:"data,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ToJSON converts notification to JSON bytes
func (n *Notification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

// FromJSON converts JSON bytes to notification
func (n *Notification) FromJSON(data []byte) error {
	return json.Unmarshal(data, n)
}
