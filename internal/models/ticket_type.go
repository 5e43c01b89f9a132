package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TicketType struct {
	bun.BaseModel `bun:"table:ticket_types"`

	ID             string    `bun:"id,pk" json:"id"`
	Name           string    `bun:"name,notnull" json:"name"`
	Description    string    `bun:"description" json:"description"`
	Price          float64   `bun:"price" json:"price"`
	EarlyBirdPrice float64   `bun:"early_bird_price" json:"early_bird_price"`
	EarlyBirdCount int       `bun:"early_bird_count" json:"early_bird_count"`
	RegularCount   int       `bun:"regular_count" json:"regular_count"`
	ConferenceYear int       `bun:"conference_year" json:"conference_year"`
	IsActive       bool      `bun:"is_active" json:"is_active"`
	DisplayOrder   int       `bun:"display_order" json:"display_order"`
	CreatedAt      time.Time `bun:"created_at" json:"created_at"`
}

// TotalAvailable is the full allocation across the early-bird and regular pools.
func (t *TicketType) TotalAvailable() int {
	return t.EarlyBirdCount + t.RegularCount
}

// TicketTypeListing is the public pricing view of a ticket type. Sold counts
// are recomputed from paid orders on every read, never cached.
type TicketTypeListing struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	CurrentPrice float64 `json:"current_price"`
	Remaining    int     `json:"remaining"`
	EarlyBird    bool    `json:"early_bird"`
	SoldOut      bool    `json:"sold_out"`
}
