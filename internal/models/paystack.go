package models

// Paystack wire types. Amounts cross the wire in kobo (minor units); the
// client converts to major units before anything downstream sees them.

type PaystackTransaction struct {
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Channel         string `json:"channel"`
	PaidAt          string `json:"paid_at"`
	GatewayResponse string `json:"gateway_response"`
}

type PaystackVerifyResponse struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Data    PaystackTransaction `json:"data"`
}

type PaystackInitializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type PaystackInitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type PaystackInitializeResponse struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Data    PaystackInitializeData `json:"data"`
}

// PaystackWebhookEvent is the signed payload Paystack posts to the webhook.
type PaystackWebhookEvent struct {
	Event string              `json:"event"`
	Data  PaystackTransaction `json:"data"`
}

// VerifiedPayment is the client's normalized verification result with the
// amount already converted from kobo.
type VerifiedPayment struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Channel   string  `json:"channel"`
	PaidAt    string  `json:"paid_at"`
}
