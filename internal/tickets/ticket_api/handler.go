package ticket_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jetemi/ng-pycon/internal/auth"
	"github.com/jetemi/ng-pycon/internal/logger"
	"github.com/jetemi/ng-pycon/internal/models"
	"github.com/jetemi/ng-pycon/internal/tickets"
)

type Handler struct {
	Service *tickets.TicketService
	Logger  *logger.Logger
}

func NewHandler(service *tickets.TicketService, log *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  log,
	}
}

// statusForError maps service errors onto HTTP status codes. Anything the
// service does not name explicitly is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, tickets.ErrOrderNotFound),
		errors.Is(err, tickets.ErrAttendeeNotFound):
		return http.StatusNotFound
	case errors.Is(err, tickets.ErrNoTicketsSelected),
		errors.Is(err, tickets.ErrNoValidTickets),
		errors.Is(err, tickets.ErrInvalidQuantity),
		errors.Is(err, tickets.ErrInvalidAttendee),
		errors.Is(err, tickets.ErrRecipientRequired):
		return http.StatusBadRequest
	case errors.Is(err, tickets.ErrCheckoutInProgress),
		errors.Is(err, tickets.ErrAttendeesExist),
		errors.Is(err, tickets.ErrOrderAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, tickets.ErrOrderNotPaid):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// ---------------- TICKET TYPES ----------------

// ListTicketTypes returns the public pricing page data.
func (h *Handler) ListTicketTypes(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "ListTicketTypes: request received")

	listings, err := h.Service.ListTicketTypes(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTicketTypes: %v", err))
		http.Error(w, "Failed to load ticket types: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := writeJSON(w, http.StatusOK, listings); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTicketTypes: failed to encode response: %v", err))
	}
}

// CheckCoupon answers the coupon probe from the purchase page. The response
// is always 200 with the usable percentage, zero meaning no discount.
func (h *Handler) CheckCoupon(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	h.Logger.Info("API", fmt.Sprintf("CheckCoupon: code=%s", code))

	percentage, err := h.Service.CheckCoupon(r.Context(), code)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckCoupon: %v", err))
		http.Error(w, "Failed to check coupon: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := writeJSON(w, http.StatusOK, models.CouponCheckResponse{Status: percentage}); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckCoupon: failed to encode response: %v", err))
	}
}

// ---------------- PURCHASE ----------------

// PlacePurchase turns the posted basket into a group of issued orders.
func (h *Handler) PlacePurchase(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("PlacePurchase: userId=%s", userID))

	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlacePurchase: invalid request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.Service.PlacePurchase(r.Context(), userID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlacePurchase: %v", err))
		http.Error(w, "Failed to place purchase: "+err.Error(), statusForError(err))
		return
	}

	if err := writeJSON(w, http.StatusCreated, resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlacePurchase: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("PlacePurchase: order %s issued for %s", resp.Order, userID))
}

// PurchaseComplete returns the confirmation summary for a settled order.
func (h *Handler) PurchaseComplete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	orderCode := chi.URLParam(r, "orderCode")
	h.Logger.Info("API", fmt.Sprintf("PurchaseComplete: order=%s", orderCode))

	summary, err := h.Service.PurchaseComplete(r.Context(), userID, orderCode)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PurchaseComplete: %v", err))
		http.Error(w, "Purchase not complete: "+err.Error(), statusForError(err))
		return
	}

	if err := writeJSON(w, http.StatusOK, summary); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PurchaseComplete: failed to encode response: %v", err))
	}
}

// UnassignedOrders lists the caller's paid orders with no attendees yet.
func (h *Handler) UnassignedOrders(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("UnassignedOrders: userId=%s", userID))

	orders, err := h.Service.ListUnassignedOrders(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UnassignedOrders: %v", err))
		http.Error(w, "Failed to load orders: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	if err := writeJSON(w, http.StatusOK, orders); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UnassignedOrders: failed to encode response: %v", err))
	}
}

// GetOrder returns one order with its ticket type and attendees.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	orderCode := chi.URLParam(r, "orderCode")
	h.Logger.Info("API", fmt.Sprintf("GetOrder: order=%s", orderCode))

	detail, err := h.Service.GetOrderDetail(r.Context(), userID, orderCode)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: %v", err))
		http.Error(w, "Order not found", statusForError(err))
		return
	}

	if err := writeJSON(w, http.StatusOK, detail); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: failed to encode response: %v", err))
	}
}

// ---------------- ATTENDEES ----------------

// AssignAttendees creates the attendee rows for a paid order.
func (h *Handler) AssignAttendees(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	orderCode := chi.URLParam(r, "orderCode")
	h.Logger.Info("API", fmt.Sprintf("AssignAttendees: order=%s", orderCode))

	var req models.AttendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AssignAttendees: invalid request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	attendees, err := h.Service.AssignAttendees(r.Context(), userID, orderCode, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AssignAttendees: %v", err))
		http.Error(w, "Failed to assign attendees: "+err.Error(), statusForError(err))
		return
	}

	if err := writeJSON(w, http.StatusCreated, attendees); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AssignAttendees: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("AssignAttendees: %d attendee(s) created for order %s", len(attendees), orderCode))
}

// UpdateAttendee edits one attendee's details.
func (h *Handler) UpdateAttendee(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	attendeeID := chi.URLParam(r, "attendeeID")
	h.Logger.Info("API", fmt.Sprintf("UpdateAttendee: attendeeId=%s", attendeeID))

	var req models.AttendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateAttendee: invalid request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	attendee, err := h.Service.UpdateAttendeeDetails(r.Context(), userID, attendeeID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateAttendee: %v", err))
		http.Error(w, "Failed to update attendee: "+err.Error(), statusForError(err))
		return
	}

	if err := writeJSON(w, http.StatusOK, attendee); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateAttendee: failed to encode response: %v", err))
	}
}

// TransferAttendee reassigns an attendee seat to another user.
func (h *Handler) TransferAttendee(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	attendeeID := chi.URLParam(r, "attendeeID")
	h.Logger.Info("API", fmt.Sprintf("TransferAttendee: attendeeId=%s", attendeeID))

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("TransferAttendee: invalid request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	attendee, err := h.Service.TransferAttendee(r.Context(), userID, attendeeID, req.RecipientID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TransferAttendee: %v", err))
		http.Error(w, "Failed to transfer attendee: "+err.Error(), statusForError(err))
		return
	}

	if err := writeJSON(w, http.StatusOK, attendee); err != nil {
		h.Logger.Error("API", fmt.Sprintf("TransferAttendee: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("TransferAttendee: attendee %s transferred to %s", attendeeID, req.RecipientID))
}

// AttendeeBadge serves the attendee's badge QR as a PNG.
func (h *Handler) AttendeeBadge(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	attendeeID := chi.URLParam(r, "attendeeID")
	h.Logger.Info("API", fmt.Sprintf("AttendeeBadge: attendeeId=%s", attendeeID))

	badge, err := h.Service.GetAttendeeBadge(r.Context(), userID, attendeeID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AttendeeBadge: %v", err))
		http.Error(w, "Badge not found", statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(badge); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AttendeeBadge: failed to write badge: %v", err))
	}
}
