package paystack

import "errors"

var (
	// ErrVerificationFailed covers every unsuccessful verification outcome:
	// gateway says the charge did not succeed, the response is malformed, or
	// the gateway is unreachable. Callers treat all of them as not paid.
	ErrVerificationFailed = errors.New("paystack: transaction verification failed")

	// ErrTimeout marks a gateway call that exceeded its deadline. A timed-out
	// verification never settles an order.
	ErrTimeout = errors.New("paystack: gateway request timed out")

	// ErrInvalidSignature marks a webhook whose HMAC did not match.
	ErrInvalidSignature = errors.New("paystack: invalid webhook signature")
)

// WebhookError carries the split between what the gateway may see and what
// belongs in the logs.
type WebhookError struct {
	Category      string // "validation" or "processing"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}
