package tickets

import "errors"

var (
	// ErrNoTicketsSelected means every quantity in the basket was zero.
	ErrNoTicketsSelected = errors.New("no tickets selected")

	// ErrNoValidTickets means every selected type was sold out or unknown,
	// so the basket produced no order rows.
	ErrNoValidTickets = errors.New("no valid tickets in basket")

	// ErrInvalidQuantity rejects negative quantities.
	ErrInvalidQuantity = errors.New("ticket quantity cannot be negative")

	// ErrCheckoutInProgress means another basket submission for the same
	// user holds the checkout lock. Retryable.
	ErrCheckoutInProgress = errors.New("another checkout is already in progress")

	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNotPaid     = errors.New("order has not been paid")
	ErrOrderAlreadyPaid = errors.New("order has already been paid")

	// ErrAttendeesExist rejects a second attendee assignment for an order.
	ErrAttendeesExist = errors.New("attendee details already assigned for this order")

	ErrAttendeeNotFound = errors.New("attendee not found")

	// ErrInvalidAttendee rejects attendee details missing a name or naming
	// an unknown dietary choice.
	ErrInvalidAttendee = errors.New("invalid attendee details")

	// ErrRecipientRequired rejects a transfer without a recipient.
	ErrRecipientRequired = errors.New("transfer recipient is required")
)
