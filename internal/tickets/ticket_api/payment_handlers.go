package ticket_api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jetemi/ng-pycon/internal/auth"
	"github.com/jetemi/ng-pycon/internal/paystack"
)

// InitializePayment registers the order group's total with Paystack and
// returns the hosted checkout URL for the buyer.
func (h *Handler) InitializePayment(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	email := auth.UserEmail(r.Context())
	if email == "" {
		http.Error(w, "Email claim is required to initialize payment", http.StatusBadRequest)
		return
	}
	orderCode := chi.URLParam(r, "orderCode")
	h.Logger.Info("API", fmt.Sprintf("InitializePayment: order=%s", orderCode))

	data, err := h.Service.InitializePayment(r.Context(), userID, email, orderCode)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("InitializePayment: %v", err))
		http.Error(w, "Failed to initialize payment: "+err.Error(), statusForError(err))
		return
	}

	if err := writeJSON(w, http.StatusOK, data); err != nil {
		h.Logger.Error("API", fmt.Sprintf("InitializePayment: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("InitializePayment: checkout created for order %s", orderCode))
}

// ValidatePayment is the poll endpoint the purchase page hits after sending
// the buyer to Paystack. A failed verification rotates the order code and
// hands the new one back in the same response.
func (h *Handler) ValidatePayment(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	orderCode := chi.URLParam(r, "orderCode")
	reference := chi.URLParam(r, "reference")
	h.Logger.Info("API", fmt.Sprintf("ValidatePayment: order=%s reference=%s", orderCode, reference))

	result, err := h.Service.VerifyAndSettle(r.Context(), orderCode, reference)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ValidatePayment: %v", err))
		http.Error(w, "Failed to validate payment: "+err.Error(), statusForError(err))
		return
	}

	if err := writeJSON(w, http.StatusOK, result); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ValidatePayment: failed to encode response: %v", err))
	}
}

// PaystackWebhook handles signed webhook events from Paystack.
func (h *Handler) PaystackWebhook(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "PaystackWebhook: received webhook event")

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PaystackWebhook: failed to read body: %v", err))
		http.Error(w, "Failed to read webhook body", http.StatusBadRequest)
		return
	}
	signature := r.Header.Get(paystack.SignatureHeader)

	if err := h.Service.HandleWebhook(r.Context(), payload, signature); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PaystackWebhook: failed to process webhook: %v", err))

		if webhookErr, ok := err.(*paystack.WebhookError); ok {
			h.Logger.Info("API", fmt.Sprintf("PaystackWebhook: handling webhook error category=%s, status=%d",
				webhookErr.Category, webhookErr.StatusCode))
			http.Error(w, webhookErr.PublicError, webhookErr.StatusCode)
			return
		}

		http.Error(w, "Webhook processing error", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	h.Logger.Info("API", "PaystackWebhook: successfully processed webhook event")
}

// PaystackCallback is where Paystack redirects the buyer's browser after the
// hosted checkout. It verifies the charge server-side, then forwards the
// buyer to the confirmation page, or back to the purchase page with a fresh
// order code when the charge did not go through.
func (h *Handler) PaystackCallback(w http.ResponseWriter, r *http.Request) {
	orderCode := chi.URLParam(r, "orderCode")
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		reference = r.URL.Query().Get("trxref")
	}
	if reference == "" {
		// Charges are initialized with the order code as reference.
		reference = orderCode
	}
	h.Logger.Info("API", fmt.Sprintf("PaystackCallback: order=%s reference=%s", orderCode, reference))

	result, err := h.Service.VerifyAndSettle(r.Context(), orderCode, reference)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PaystackCallback: %v", err))
		http.Redirect(w, r, h.Service.Conference.PurchaseURL, http.StatusSeeOther)
		return
	}

	if result.Status {
		http.Redirect(w, r, h.Service.Conference.SuccessURL+"/"+orderCode, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.Service.Conference.PurchaseURL+"?order="+result.Order, http.StatusSeeOther)
}
