package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	DietOmnivorous = "Omnivorous"
	DietVegetarian = "Vegetarian"
	DietOthers     = "Others"
)

// ValidDiet reports whether d is one of the accepted dietary choices.
func ValidDiet(d string) bool {
	switch d {
	case DietOmnivorous, DietVegetarian, DietOthers:
		return true
	}
	return false
}

// Attendee is one named seat of a paid order. An order of quantity N carries
// N attendee rows, created together once the buyer fills in the details.
type Attendee struct {
	bun.BaseModel `bun:"table:attendees"`

	ID        string    `bun:"id,pk" json:"id"`
	OrderCode string    `bun:"order_code,notnull" json:"order"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	FullName  string    `bun:"full_name,notnull" json:"full_name"`
	Diet      string    `bun:"diet" json:"diet"`
	Tagline   string    `bun:"tagline" json:"tagline"`
	BadgeQR   []byte    `bun:"badge_qr" json:"-"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
}

// AttendeeRequest carries the details posted when assigning or editing an
// attendee. Diet defaults to Omnivorous when empty, tagline is optional.
type AttendeeRequest struct {
	FullName string `json:"full_name"`
	Diet     string `json:"diet,omitempty"`
	Tagline  string `json:"tagline,omitempty"`
}

// TransferRequest reassigns an attendee row to another user.
type TransferRequest struct {
	RecipientID string `json:"recipient_id"`
}
