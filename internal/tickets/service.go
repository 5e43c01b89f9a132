package tickets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jetemi/ng-pycon/internal/config"
	"github.com/jetemi/ng-pycon/internal/logger"
	"github.com/jetemi/ng-pycon/internal/metrics"
	"github.com/jetemi/ng-pycon/internal/models"
	"github.com/jetemi/ng-pycon/internal/paystack"
	"github.com/jetemi/ng-pycon/internal/tickets/badge"
	"github.com/jetemi/ng-pycon/internal/utils"
)

type DBLayer interface {
	GetTicketTypeByID(ctx context.Context, id string) (*models.TicketType, error)
	GetTicketTypeByName(ctx context.Context, name string, year int) (*models.TicketType, error)
	GetActiveTicketTypes(ctx context.Context, year int) ([]models.TicketType, error)
	CountSoldByType(ctx context.Context, ticketTypeID string) (int, error)

	GetCouponByCode(ctx context.Context, code string, year int) (*models.Coupon, error)
	CountCouponUsage(ctx context.Context, couponID string) (int, error)

	CreateOrderGroup(ctx context.Context, group *models.OrderGroup) error
	GetOrdersByGroup(ctx context.Context, groupID string) ([]models.Order, error)
	GroupTotal(ctx context.Context, groupID string) (float64, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByCode(ctx context.Context, code string) (*models.Order, error)
	OrderCodeExists(ctx context.Context, code string) (bool, error)
	GetIssuedOrder(ctx context.Context, userID, ticketTypeID string, year int) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	SettleGroup(ctx context.Context, groupID, reference string, totalAmount float64, paidAt time.Time) (int64, error)
	RotateOrderCode(ctx context.Context, order *models.Order, newCode string) error
	GetPaidOrdersWithoutAttendees(ctx context.Context, userID string, year int) ([]models.Order, error)

	CreateAttendees(ctx context.Context, orderCode string, attendees []models.Attendee) error
	GetAttendeesByOrder(ctx context.Context, orderCode string) ([]models.Attendee, error)
	GetAttendeeByID(ctx context.Context, id string) (*models.Attendee, error)
	UpdateAttendee(ctx context.Context, attendee *models.Attendee) error
	TransferAttendee(ctx context.Context, id, newUserID string) error
}

type CheckoutLock interface {
	LockCheckout(ctx context.Context, userID string, year int) (bool, error)
	UnlockCheckout(ctx context.Context, userID string, year int) error
}

type EventPublisher interface {
	PublishOrderIssued(event models.OrderEvent) error
	PublishOrderSettled(event models.OrderEvent) error
	PublishAttendeeAssigned(event models.AttendeeEvent) error
	PublishAttendeeTransferred(event models.AttendeeEvent) error
}

type PaymentGateway interface {
	VerifyTransaction(ctx context.Context, reference string) (*models.VerifiedPayment, error)
	InitializeTransaction(ctx context.Context, email string, amount float64, reference, callbackURL string) (*models.PaystackInitializeData, error)
}

type BadgeGenerator interface {
	GenerateBadgeQR(payload badge.Payload) ([]byte, error)
}

type TicketService struct {
	DB         DBLayer
	Lock       CheckoutLock
	Events     EventPublisher
	Gateway    PaymentGateway
	Badges     BadgeGenerator
	Paystack   config.PaystackConfig
	Conference config.ConferenceConfig
	logger     *logger.Logger
}

func NewTicketService(db DBLayer, lock CheckoutLock, events EventPublisher, gateway PaymentGateway, badges BadgeGenerator, paystackCfg config.PaystackConfig, conference config.ConferenceConfig, log *logger.Logger) *TicketService {
	return &TicketService{
		DB:         db,
		Lock:       lock,
		Events:     events,
		Gateway:    gateway,
		Badges:     badges,
		Paystack:   paystackCfg,
		Conference: conference,
		logger:     log,
	}
}

// ---------------- PRICING ----------------

// ListTicketTypes returns the public pricing view for the configured year.
// Sold-out types stay in the listing, flagged, so the page can show them.
func (s *TicketService) ListTicketTypes(ctx context.Context) ([]models.TicketTypeListing, error) {
	types, err := s.DB.GetActiveTicketTypes(ctx, s.Conference.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket types: %w", err)
	}

	listings := make([]models.TicketTypeListing, 0, len(types))
	for i := range types {
		tt := &types[i]
		sold, err := s.DB.CountSoldByType(ctx, tt.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count sold tickets for %s: %w", tt.Name, err)
		}
		price := CurrentPrice(tt, sold)
		listings = append(listings, models.TicketTypeListing{
			ID:           tt.ID,
			Name:         tt.Name,
			Description:  tt.Description,
			CurrentPrice: price,
			Remaining:    Remaining(tt, sold),
			EarlyBird:    EarlyBirdRemaining(tt, sold) && tt.EarlyBirdPrice > 0,
			SoldOut:      price == 0,
		})
	}
	return listings, nil
}

// ---------------- COUPONS ----------------

// CheckCoupon answers the public coupon probe with the discount percentage,
// zero when the code is unusable for any reason.
func (s *TicketService) CheckCoupon(ctx context.Context, code string) (int, error) {
	coupon, err := s.validCoupon(ctx, code)
	if err != nil {
		return 0, err
	}
	if coupon == nil {
		return 0, nil
	}
	return coupon.Percentage, nil
}

// validCoupon resolves a code to a usable coupon or nil. Unknown, expired
// and exhausted codes all come back nil; purchase degrades to full price
// rather than failing.
func (s *TicketService) validCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	coupon, err := s.DB.GetCouponByCode(ctx, code, s.Conference.Year)
	if err != nil {
		return nil, fmt.Errorf("coupon lookup failed: %w", err)
	}
	if coupon == nil || coupon.Expired {
		return nil, nil
	}

	usage, err := s.DB.CountCouponUsage(ctx, coupon.ID)
	if err != nil {
		return nil, fmt.Errorf("coupon usage count failed: %w", err)
	}
	if usage >= coupon.MaxUsage {
		s.logger.Info("COUPON", fmt.Sprintf("Coupon %s exhausted (%d/%d)", coupon.Code, usage, coupon.MaxUsage))
		return nil, nil
	}

	return coupon, nil
}

// ---------------- ORDER ASSEMBLY ----------------

// PlacePurchase turns a basket of ticket-type quantities into one group of
// issued orders and returns the payable lead code with the grand total.
//
// The checkout lock serializes submissions per user so the issued-row reuse
// below cannot race itself. Sold-out types are skipped, an unusable coupon
// degrades to no discount, and re-submitting a basket reuses the existing
// issued row per ticket type instead of minting another.
func (s *TicketService) PlacePurchase(ctx context.Context, userID string, req models.PurchaseRequest) (*models.PurchaseResponse, error) {
	for name, qty := range req.Tickets {
		if qty < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, name)
		}
	}

	selected := 0
	for _, qty := range req.Tickets {
		if qty > 0 {
			selected++
		}
	}
	if selected == 0 {
		return nil, ErrNoTicketsSelected
	}

	locked, err := s.Lock.LockCheckout(ctx, userID, s.Conference.Year)
	if err != nil {
		return nil, fmt.Errorf("checkout lock error: %w", err)
	}
	if !locked {
		return nil, ErrCheckoutInProgress
	}
	defer func() {
		if err := s.Lock.UnlockCheckout(ctx, userID, s.Conference.Year); err != nil {
			s.logger.Warn("ORDER", fmt.Sprintf("Failed to release checkout lock for %s: %v", userID, err))
		}
	}()

	coupon, err := s.validCoupon(ctx, req.Coupon)
	if err != nil {
		return nil, err
	}
	discount := 0
	couponID := ""
	if coupon != nil {
		discount = coupon.Percentage
		couponID = coupon.ID
	}

	// The basket is validated against the catalogue, not a fixed form:
	// quantities are picked off the request by ticket-type name, so unknown
	// names simply never match anything sellable.
	types, err := s.DB.GetActiveTicketTypes(ctx, s.Conference.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket types: %w", err)
	}

	group := &models.OrderGroup{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConferenceYear: s.Conference.Year,
		CreatedAt:      time.Now(),
	}
	if err := s.DB.CreateOrderGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create order group: %w", err)
	}

	var orders []*models.Order
	for i := range types {
		tt := &types[i]
		qty := req.Tickets[tt.Name]
		if qty <= 0 {
			continue
		}

		sold, err := s.DB.CountSoldByType(ctx, tt.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count sold tickets for %s: %w", tt.Name, err)
		}
		price := CurrentPrice(tt, sold)
		if price == 0 {
			s.logger.LogOrder("SKIP", tt.Name, "ticket type sold out, dropping basket line")
			continue
		}

		amount := DiscountedAmount(qty, price, discount)

		order, err := s.DB.GetIssuedOrder(ctx, userID, tt.ID, s.Conference.Year)
		if err != nil {
			return nil, fmt.Errorf("failed to look up issued order: %w", err)
		}

		if order == nil {
			code, err := s.freshOrderCode(ctx)
			if err != nil {
				return nil, err
			}
			order = &models.Order{
				OrderCode:      code,
				UserID:         userID,
				TicketTypeID:   tt.ID,
				Quantity:       qty,
				Amount:         amount,
				Status:         models.OrderStatusIssued,
				CouponID:       couponID,
				ConferenceYear: s.Conference.Year,
				GroupID:        group.ID,
				DateCreated:    time.Now(),
			}
			if err := s.DB.CreateOrder(ctx, order); err != nil {
				return nil, fmt.Errorf("failed to create order: %w", err)
			}
			s.logger.LogOrder("ISSUE", order.OrderCode, fmt.Sprintf("%d x %s", qty, tt.Name))
		} else {
			order.Quantity = qty
			order.Amount = amount
			order.CouponID = couponID
			order.GroupID = group.ID
			order.MultipleTickets = false
			if err := s.DB.UpdateOrder(ctx, order); err != nil {
				return nil, fmt.Errorf("failed to update order: %w", err)
			}
			s.logger.LogOrder("REUSE", order.OrderCode, fmt.Sprintf("%d x %s", qty, tt.Name))
		}

		orders = append(orders, order)
	}

	if len(orders) == 0 {
		return nil, ErrNoValidTickets
	}

	if len(orders) > 1 {
		for _, order := range orders {
			order.MultipleTickets = true
			if err := s.DB.UpdateOrder(ctx, order); err != nil {
				return nil, fmt.Errorf("failed to flag multi-ticket order: %w", err)
			}
		}
	}

	total, err := s.DB.GroupTotal(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to total order group: %w", err)
	}

	lead := orders[0]
	metrics.OrdersIssuedTotal.Inc()

	if s.Events != nil {
		event := models.OrderEvent{
			OrderCode:      lead.OrderCode,
			GroupID:        group.ID,
			UserID:         userID,
			TotalAmount:    total,
			ConferenceYear: s.Conference.Year,
		}
		if err := s.Events.PublishOrderIssued(event); err != nil {
			s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish order issued event: %v", err))
		}
	}

	return &models.PurchaseResponse{Order: lead.OrderCode, Total: total}, nil
}

// freshOrderCode generates an order code not yet present in the orders table.
func (s *TicketService) freshOrderCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code := utils.GenerateOrderCode()
		exists, err := s.DB.OrderCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check order code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique order code")
}

// ---------------- PAYMENT RECONCILIATION ----------------

// Settle marks every still-issued row of the order's group as paid. The
// underlying update only matches issued rows, so a second delivery of the
// same payment, with the same or a different amount, changes nothing.
// Returns true when this call transitioned the group.
func (s *TicketService) Settle(ctx context.Context, orderCode string, payment *models.VerifiedPayment) (bool, error) {
	order, err := s.getOrder(ctx, orderCode)
	if err != nil {
		return false, err
	}

	rows, err := s.DB.SettleGroup(ctx, order.GroupID, payment.Reference, payment.Amount, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to settle order group: %w", err)
	}

	if rows == 0 {
		metrics.DuplicateSettlementsTotal.Inc()
		s.logger.LogOrder("SETTLE", orderCode, "group already settled, no-op")
		return false, nil
	}

	metrics.SettlementsTotal.Inc()
	s.logger.LogOrder("SETTLE", orderCode, fmt.Sprintf("%d order(s) marked paid, amount %.2f", rows, payment.Amount))

	if s.Events != nil {
		event := models.OrderEvent{
			OrderCode:      order.OrderCode,
			GroupID:        order.GroupID,
			UserID:         order.UserID,
			TotalAmount:    payment.Amount,
			ConferenceYear: order.ConferenceYear,
		}
		if err := s.Events.PublishOrderSettled(event); err != nil {
			s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish order settled event: %v", err))
		}
	}

	return true, nil
}

// VerifyAndSettle drives the poll and redirect-callback flows: ask the
// gateway about the reference, settle on success, rotate the order code on
// failure so the stale reference cannot be retried against the old rows.
func (s *TicketService) VerifyAndSettle(ctx context.Context, orderCode, reference string) (*models.ValidateResponse, error) {
	order, err := s.getOrder(ctx, orderCode)
	if err != nil {
		return nil, err
	}

	if order.IsPaid() {
		return &models.ValidateResponse{Status: true}, nil
	}

	payment, err := s.Gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		s.logger.LogPayment("FAILED", reference, fmt.Sprintf("verification failed for order %s: %v", orderCode, err))
		newCode, rotateErr := s.rotateOrder(ctx, order)
		if rotateErr != nil {
			return nil, rotateErr
		}
		return &models.ValidateResponse{Status: false, Order: newCode}, nil
	}

	if _, err := s.Settle(ctx, orderCode, payment); err != nil {
		return nil, err
	}
	return &models.ValidateResponse{Status: true}, nil
}

// rotateOrder gives the lead row a fresh, unused code and drops its issued
// siblings.
func (s *TicketService) rotateOrder(ctx context.Context, order *models.Order) (string, error) {
	newCode, err := s.freshOrderCode(ctx)
	if err != nil {
		return "", err
	}
	if err := s.DB.RotateOrderCode(ctx, order, newCode); err != nil {
		return "", fmt.Errorf("failed to rotate order code: %w", err)
	}
	s.logger.LogOrder("ROTATE", order.OrderCode, fmt.Sprintf("new code %s", newCode))
	return newCode, nil
}

// HandleWebhook processes a signed gateway notification. A bad signature is
// the only rejection; once the payload is authenticated every processing
// problem is logged and swallowed so the gateway gets its acknowledgement
// and does not hammer the endpoint with retries.
func (s *TicketService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if !paystack.VerifySignature(s.Paystack.SecretKey, payload, signature) {
		metrics.WebhookRejectsTotal.Inc()
		s.logger.LogSecurity("WEBHOOK_SIGNATURE", "rejected webhook with invalid signature")
		return &paystack.WebhookError{
			Category:      "validation",
			StatusCode:    400,
			PublicError:   "Invalid webhook signature",
			InternalError: "webhook signature did not match payload",
			OriginalErr:   paystack.ErrInvalidSignature,
		}
	}

	var event models.PaystackWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to decode webhook payload: %v", err))
		return nil
	}

	if event.Event != "charge.success" {
		s.logger.Info("WEBHOOK", fmt.Sprintf("Ignoring webhook event: %s", event.Event))
		return nil
	}

	payment := &models.VerifiedPayment{
		Reference: event.Data.Reference,
		Amount:    float64(event.Data.Amount) / 100,
		Currency:  event.Data.Currency,
		Channel:   event.Data.Channel,
		PaidAt:    event.Data.PaidAt,
	}

	// The gateway reference is the order code we initialized the charge with.
	if _, err := s.Settle(ctx, event.Data.Reference, payment); err != nil {
		s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to settle order %s from webhook: %v", event.Data.Reference, err))
	}
	return nil
}

// InitializePayment registers the group total with the gateway and returns
// the hosted checkout the buyer should be sent to.
func (s *TicketService) InitializePayment(ctx context.Context, userID, email, orderCode string) (*models.PaystackInitializeData, error) {
	order, err := s.getOwnedOrder(ctx, userID, orderCode)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		return nil, ErrOrderAlreadyPaid
	}

	total, err := s.DB.GroupTotal(ctx, order.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to total order group: %w", err)
	}

	callbackURL := s.Paystack.CallbackURL
	if callbackURL != "" {
		callbackURL = strings.TrimRight(callbackURL, "/") + "/" + order.OrderCode
	}

	return s.Gateway.InitializeTransaction(ctx, email, total, order.OrderCode, callbackURL)
}

// ---------------- ORDER VIEWS ----------------

// PurchaseComplete returns the confirmation summary for a paid order.
func (s *TicketService) PurchaseComplete(ctx context.Context, userID, orderCode string) (*models.OrderSummary, error) {
	order, err := s.getOwnedOrder(ctx, userID, orderCode)
	if err != nil {
		return nil, err
	}
	if !order.IsPaid() {
		return nil, ErrOrderNotPaid
	}

	siblings, err := s.DB.GetOrdersByGroup(ctx, order.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order group: %w", err)
	}
	groupSize := 0
	for _, sibling := range siblings {
		if sibling.IsPaid() {
			groupSize++
		}
	}

	return &models.OrderSummary{
		Order:       order.OrderCode,
		Status:      order.Status,
		Quantity:    order.Quantity,
		GroupSize:   groupSize,
		TotalAmount: order.TotalAmount,
		DatePaid:    order.DatePaid,
	}, nil
}

// GetOrderDetail returns an order with its ticket type and any attendees.
func (s *TicketService) GetOrderDetail(ctx context.Context, userID, orderCode string) (*models.OrderDetail, error) {
	order, err := s.getOwnedOrder(ctx, userID, orderCode)
	if err != nil {
		return nil, err
	}

	detail := &models.OrderDetail{Order: order, Attendees: []*models.Attendee{}}

	if order.TicketTypeID != "" {
		if tt, err := s.DB.GetTicketTypeByID(ctx, order.TicketTypeID); err == nil {
			detail.TicketType = tt
		}
	}

	attendees, err := s.DB.GetAttendeesByOrder(ctx, orderCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendees: %w", err)
	}
	for i := range attendees {
		detail.Attendees = append(detail.Attendees, &attendees[i])
	}

	return detail, nil
}

// ListUnassignedOrders returns the caller's paid orders that still need
// attendee details.
func (s *TicketService) ListUnassignedOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.DB.GetPaidOrdersWithoutAttendees(ctx, userID, s.Conference.Year)
}

// ---------------- ATTENDEES ----------------

// AssignAttendees creates one attendee row per purchased ticket, all with
// the posted details, and flips the order's assignment flag. Assigning twice
// is rejected.
func (s *TicketService) AssignAttendees(ctx context.Context, userID, orderCode string, req models.AttendeeRequest) ([]models.Attendee, error) {
	order, err := s.getOwnedOrder(ctx, userID, orderCode)
	if err != nil {
		return nil, err
	}
	if !order.IsPaid() {
		return nil, ErrOrderNotPaid
	}
	if order.CreatedTickets {
		return nil, ErrAttendeesExist
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidAttendee)
	}
	diet := req.Diet
	if diet == "" {
		diet = models.DietOmnivorous
	}
	if !models.ValidDiet(diet) {
		return nil, fmt.Errorf("%w: unknown diet %q", ErrInvalidAttendee, req.Diet)
	}

	attendees := make([]models.Attendee, 0, order.Quantity)
	for i := 0; i < order.Quantity; i++ {
		attendee := models.Attendee{
			ID:        uuid.NewString(),
			OrderCode: order.OrderCode,
			UserID:    userID,
			FullName:  fullName,
			Diet:      diet,
			Tagline:   strings.TrimSpace(req.Tagline),
			CreatedAt: time.Now(),
		}
		attendee.BadgeQR = s.badgeFor(&attendee, order.ConferenceYear)
		attendees = append(attendees, attendee)
	}

	if err := s.DB.CreateAttendees(ctx, order.OrderCode, attendees); err != nil {
		return nil, fmt.Errorf("failed to create attendees: %w", err)
	}
	s.logger.LogOrder("ASSIGN", order.OrderCode, fmt.Sprintf("%d attendee(s) created", len(attendees)))

	if s.Events != nil {
		for _, attendee := range attendees {
			event := models.AttendeeEvent{
				AttendeeID: attendee.ID,
				OrderCode:  order.OrderCode,
				UserID:     userID,
			}
			if err := s.Events.PublishAttendeeAssigned(event); err != nil {
				s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish attendee assigned event: %v", err))
			}
		}
	}

	return attendees, nil
}

// UpdateAttendeeDetails edits an attendee row the caller owns and refreshes
// its badge for the new name.
func (s *TicketService) UpdateAttendeeDetails(ctx context.Context, userID, attendeeID string, req models.AttendeeRequest) (*models.Attendee, error) {
	attendee, err := s.getOwnedAttendee(ctx, userID, attendeeID)
	if err != nil {
		return nil, err
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidAttendee)
	}
	diet := req.Diet
	if diet == "" {
		diet = attendee.Diet
	}
	if !models.ValidDiet(diet) {
		return nil, fmt.Errorf("%w: unknown diet %q", ErrInvalidAttendee, req.Diet)
	}

	order, err := s.getOrder(ctx, attendee.OrderCode)
	if err != nil {
		return nil, err
	}

	attendee.FullName = fullName
	attendee.Diet = diet
	attendee.Tagline = strings.TrimSpace(req.Tagline)
	attendee.BadgeQR = s.badgeFor(attendee, order.ConferenceYear)

	if err := s.DB.UpdateAttendee(ctx, attendee); err != nil {
		return nil, fmt.Errorf("failed to update attendee: %w", err)
	}
	return attendee, nil
}

// GetAttendeeBadge returns the attendee's badge QR PNG, rendering and
// storing it on first access if assignment happened without one.
func (s *TicketService) GetAttendeeBadge(ctx context.Context, userID, attendeeID string) ([]byte, error) {
	attendee, err := s.getOwnedAttendee(ctx, userID, attendeeID)
	if err != nil {
		return nil, err
	}

	if len(attendee.BadgeQR) == 0 {
		order, err := s.getOrder(ctx, attendee.OrderCode)
		if err != nil {
			return nil, err
		}
		attendee.BadgeQR = s.badgeFor(attendee, order.ConferenceYear)
		if len(attendee.BadgeQR) == 0 {
			return nil, ErrAttendeeNotFound
		}
		if err := s.DB.UpdateAttendee(ctx, attendee); err != nil {
			s.logger.Warn("ORDER", fmt.Sprintf("Failed to store badge QR for attendee %s: %v", attendee.ID, err))
		}
	}

	return attendee.BadgeQR, nil
}

// TransferAttendee hands one attendee seat to another user. The recipient
// is notified downstream off the published event.
func (s *TicketService) TransferAttendee(ctx context.Context, userID, attendeeID, recipientID string) (*models.Attendee, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, ErrRecipientRequired
	}

	attendee, err := s.getOwnedAttendee(ctx, userID, attendeeID)
	if err != nil {
		return nil, err
	}

	if err := s.DB.TransferAttendee(ctx, attendee.ID, recipientID); err != nil {
		return nil, fmt.Errorf("failed to transfer attendee: %w", err)
	}
	s.logger.LogOrder("TRANSFER", attendee.OrderCode, fmt.Sprintf("attendee %s -> user %s", attendee.ID, recipientID))

	if s.Events != nil {
		event := models.AttendeeEvent{
			AttendeeID:  attendee.ID,
			OrderCode:   attendee.OrderCode,
			UserID:      userID,
			RecipientID: recipientID,
		}
		if err := s.Events.PublishAttendeeTransferred(event); err != nil {
			s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish attendee transferred event: %v", err))
		}
	}

	attendee.UserID = recipientID
	return attendee, nil
}

// ---------------- HELPERS ----------------

func (s *TicketService) getOrder(ctx context.Context, orderCode string) (*models.Order, error) {
	order, err := s.DB.GetOrderByCode(ctx, orderCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order %s: %w", orderCode, err)
	}
	return order, nil
}

// getOwnedOrder hides other users' orders behind not-found.
func (s *TicketService) getOwnedOrder(ctx context.Context, userID, orderCode string) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *TicketService) getOwnedAttendee(ctx context.Context, userID, attendeeID string) (*models.Attendee, error) {
	attendee, err := s.DB.GetAttendeeByID(ctx, attendeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttendeeNotFound
		}
		return nil, fmt.Errorf("failed to load attendee %s: %w", attendeeID, err)
	}
	if attendee.UserID != userID {
		return nil, ErrAttendeeNotFound
	}
	return attendee, nil
}

// badgeFor renders the attendee's encrypted badge QR. A missing generator or
// a render failure only costs the badge, never the assignment.
func (s *TicketService) badgeFor(attendee *models.Attendee, year int) []byte {
	if s.Badges == nil {
		return nil
	}
	qr, err := s.Badges.GenerateBadgeQR(badge.Payload{
		AttendeeID:     attendee.ID,
		OrderCode:      attendee.OrderCode,
		FullName:       attendee.FullName,
		ConferenceYear: year,
	})
	if err != nil {
		s.logger.Warn("ORDER", fmt.Sprintf("Failed to generate badge QR for attendee %s: %v", attendee.ID, err))
		return nil
	}
	return qr
}
