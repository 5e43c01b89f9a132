package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	OrderStatusIssued = "issued"
	OrderStatusPaid   = "paid"
)

// OrderGroup ties the order rows of one basket submission together so a
// single gateway payment settles all of them.
type OrderGroup struct {
	bun.BaseModel `bun:"table:order_groups"`

	ID             string    `bun:"id,pk" json:"id"`
	UserID         string    `bun:"user_id,notnull" json:"user_id"`
	ConferenceYear int       `bun:"conference_year" json:"conference_year"`
	CreatedAt      time.Time `bun:"created_at" json:"created_at"`
}

// Order is one ticket-type line of a basket. The order code doubles as the
// payment reference handed to the gateway and is regenerated when a payment
// attempt fails.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderCode         string    `bun:"order_code,pk" json:"order"`
	UserID            string    `bun:"user_id,notnull" json:"user_id"`
	TicketTypeID      string    `bun:"ticket_type_id,notnull" json:"ticket_type_id"`
	Quantity          int       `bun:"quantity" json:"quantity"`
	Amount            float64   `bun:"amount" json:"amount"`
	TotalAmount       float64   `bun:"total_amount" json:"total_amount"`
	Status            string    `bun:"status" json:"status"`
	PaystackReference string    `bun:"paystack_reference,nullzero" json:"paystack_reference,omitempty"`
	CouponID          string    `bun:"coupon_id,nullzero" json:"coupon_id,omitempty"`
	ConferenceYear    int       `bun:"conference_year" json:"conference_year"`
	GroupID           string    `bun:"group_id,notnull" json:"group_id"`
	MultipleTickets   bool      `bun:"multiple_tickets" json:"multiple_tickets"`
	CreatedTickets    bool      `bun:"created_tickets" json:"created_tickets"`
	DateCreated       time.Time `bun:"date_created" json:"date_created"`
	DatePaid          time.Time `bun:"date_paid,nullzero" json:"date_paid,omitempty"`
}

func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// PurchaseRequest is the checkout basket: ticket-type names mapped to
// quantities, plus an optional coupon code.
type PurchaseRequest struct {
	Tickets map[string]int `json:"tickets"`
	Coupon  string         `json:"coupon,omitempty"`
}

// PurchaseResponse matches the browser contract the checkout page expects:
// the payable order code and the grand total after discount.
type PurchaseResponse struct {
	Order string  `json:"order"`
	Total float64 `json:"total"`
}

// ValidateResponse answers the payment poll. On failure Order carries the
// replacement code the page should retry with.
type ValidateResponse struct {
	Status bool   `json:"status"`
	Order  string `json:"order,omitempty"`
}

// OrderSummary is the paid-purchase confirmation payload.
type OrderSummary struct {
	Order       string    `json:"order"`
	Status      string    `json:"status"`
	Quantity    int       `json:"quantity"`
	GroupSize   int       `json:"group_size"`
	TotalAmount float64   `json:"total_amount"`
	DatePaid    time.Time `json:"date_paid,omitempty"`
}

// OrderDetail is an order line joined with its ticket type and any attendees
// already assigned to it.
type OrderDetail struct {
	Order      *Order      `json:"order"`
	TicketType *TicketType `json:"ticket_type,omitempty"`
	Attendees  []*Attendee `json:"attendees"`
}
