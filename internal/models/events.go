package models

import (
	"time"
)

const (
	EventOrderIssued         = "order_issued"
	EventOrderSettled        = "order_settled"
	EventAttendeeAssigned    = "attendee_assigned"
	EventAttendeeTransferred = "attendee_transferred"
)

// OrderEvent is published when a basket is issued and when its payment
// settles. Keyed by order code so consumers see one partition per order.
type OrderEvent struct {
	Type           string    `json:"type"`
	OrderCode      string    `json:"order_code"`
	GroupID        string    `json:"group_id"`
	UserID         string    `json:"user_id"`
	TotalAmount    float64   `json:"total_amount"`
	ConferenceYear int       `json:"conference_year"`
	Timestamp      time.Time `json:"timestamp"`
}

// AttendeeEvent is published when attendee details are assigned to a paid
// order or an attendee seat is transferred to another user. Downstream
// consumers handle notification delivery.
type AttendeeEvent struct {
	Type        string    `json:"type"`
	AttendeeID  string    `json:"attendee_id"`
	OrderCode   string    `json:"order_code"`
	UserID      string    `json:"user_id"`
	RecipientID string    `json:"recipient_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
