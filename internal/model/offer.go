package model

import (
	"encoding/json"
	"time"

	"shiftboard/pkg/geo"

	"github.com/shopspring/decimal"
)

// OfferType who originated the offer
type OfferType string

const (
	OfferTypePoster OfferType = "poster" // Posted by a business looking for a worker
	OfferTypeWorker OfferType = "worker" // Posted by a worker advertising availability
)

// Valid reports whether t is a known offer type
func (t OfferType) Valid() bool {
	return t == OfferTypePoster || t == OfferTypeWorker
}

// Offer a single time-boxed delivery shift
type Offer struct {
	ID                 string          `json:"id"`
	PosterID           string          `json:"poster_id"`
	Type               OfferType       `json:"type"`
	Address            string          `json:"address"`
	Lat                *float64        `json:"lat,omitempty"`
	Lng                *float64        `json:"lng,omitempty"`
	Date               string          `json:"date"`       // YYYY-MM-DD
	TimeStart          string          `json:"time_start"` // HH:MM
	TimeEnd            string          `json:"time_end"`   // HH:MM
	PaymentAmount      decimal.Decimal `json:"payment_amount"`
	PaymentTerms       string          `json:"payment_terms,omitempty"`
	NeedsEquipment     bool            `json:"needs_equipment"`
	MealIncluded       bool            `json:"meal_included"`
	CanBecomePermanent bool            `json:"can_become_permanent"`
	Description        string          `json:"description,omitempty"`
	IsAccepted         bool            `json:"is_accepted"`
	AcceptedBy         *string         `json:"accepted_by,omitempty"`
	ArchivedAt         *time.Time      `json:"archived_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Location returns the offer coordinates, nil when not geocoded
func (o *Offer) Location() *geo.Point {
	return geo.NewPoint(o.Lat, o.Lng)
}

// IsAvailable reports whether the offer can still be accepted
func (o *Offer) IsAvailable() bool {
	return !o.IsAccepted && o.ArchivedAt == nil
}

// ToJSON converts offer to JSON bytes
func (o *Offer) ToJSON() ([]byte, error) {
	return json.Marshal(o)
}

// CreateOfferRequest create offer request
type CreateOfferRequest struct {
	Type               OfferType       `json:"type"`
	Address            string          `json:"address" binding:"required"`
	Lat                *float64        `json:"lat"`
	Lng                *float64        `json:"lng"`
	Date               string          `json:"date" binding:"required"`
	TimeStart          string          `json:"time_start" binding:"required"`
	TimeEnd            string          `json:"time_end" binding:"required"`
	PaymentAmount      decimal.Decimal `json:"payment_amount"`
	PaymentTerms       string          `json:"payment_terms"`
	NeedsEquipment     bool            `json:"needs_equipment"`
	MealIncluded       bool            `json:"meal_included"`
	CanBecomePermanent bool            `json:"can_become_permanent"`
	Description        string          `json:"description"`
}

// UpdateOfferRequest edit offer request, nil fields are left unchanged
type UpdateOfferRequest struct {
	Address            *string          `json:"address"`
	Lat                *float64         `json:"lat"`
	Lng                *float64         `json:"lng"`
	Date               *string          `json:"date"`
	TimeStart          *string          `json:"time_start"`
	TimeEnd            *string          `json:"time_end"`
	PaymentAmount      *decimal.Decimal `json:"payment_amount"`
	PaymentTerms       *string          `json:"payment_terms"`
	NeedsEquipment     *bool            `json:"needs_equipment"`
	MealIncluded       *bool            `json:"meal_included"`
	CanBecomePermanent *bool            `json:"can_become_permanent"`
	Description        *string          `json:"description"`
}

// OfferListing an open offer as seen by one worker
type OfferListing struct {
	*Offer
	Acceptable    bool   `json:"acceptable"`
	ReasonCode    string `json:"reason_code,omitempty"`
	Reason        string `json:"reason,omitempty"`
	ConflictsWith string `json:"conflicts_with,omitempty"`
}

// OfferFilter listing filter
type OfferFilter struct {
	PosterID        string
	Date            string
	OnlyOpen        bool
	IncludeArchived bool
	Limit           int
	Offset          int
}
