package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer MySQL model for offers table
type Offer struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID            string          `gorm:"column:offer_id;type:varchar(64);not null;uniqueIndex:idx_offer_id_unique" json:"offer_id"`
	PosterID           string          `gorm:"column:poster_id;type:varchar(64);not null;index:idx_poster_id" json:"poster_id"`
	Type               string          `gorm:"column:type;type:varchar(20);not null" json:"type"`
	Address            string          `gorm:"column:address;type:varchar(500);not null" json:"address"`
	Lat                *float64        `gorm:"column:lat;type:double" json:"lat"`
	Lng                *float64        `gorm:"column:lng;type:double" json:"lng"`
	Date               string          `gorm:"column:date;type:varchar(10);not null;index:idx_date_open,priority:1" json:"date"`
	TimeStart          string          `gorm:"column:time_start;type:varchar(5);not null" json:"time_start"`
	TimeEnd            string          `gorm:"column:time_end;type:varchar(5);not null" json:"time_end"`
	PaymentAmount      decimal.Decimal `gorm:"column:payment_amount;type:decimal(12,2);not null" json:"payment_amount"`
	PaymentTerms       string          `gorm:"column:payment_terms;type:text" json:"payment_terms"`
	NeedsEquipment     bool            `gorm:"column:needs_equipment;not null" json:"needs_equipment"`
	MealIncluded       bool            `gorm:"column:meal_included;not null" json:"meal_included"`
	CanBecomePermanent bool            `gorm:"column:can_become_permanent;not null" json:"can_become_permanent"`
	Description        string          `gorm:"column:description;type:text" json:"description"`
	IsAccepted         bool            `gorm:"column:is_accepted;not null;index:idx_date_open,priority:2" json:"is_accepted"`
	AcceptedBy         *string         `gorm:"column:accepted_by;type:varchar(64);index:idx_accepted_by" json:"accepted_by"`
	ArchivedAt         *time.Time      `gorm:"column:archived_at;index:idx_archived_at" json:"archived_at"`
	CreatedAt          time.Time       `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name for Offer
func (Offer) TableName() string {
	return "offers"
}
