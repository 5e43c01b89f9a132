package ticket_api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetemi/ng-pycon/internal/auth"
	"github.com/jetemi/ng-pycon/internal/config"
	"github.com/jetemi/ng-pycon/internal/logger"
	"github.com/jetemi/ng-pycon/internal/models"
	"github.com/jetemi/ng-pycon/internal/paystack"
	"github.com/jetemi/ng-pycon/internal/tickets"
	"github.com/jetemi/ng-pycon/internal/tickets/badge"
	"github.com/jetemi/ng-pycon/internal/tickets/ticket_api"
)

const webhookSecret = "sk_test_handler_secret"

// Mock implementations

// StubStore is a map-backed DB layer so handler tests exercise the real
// service and handler code end to end.
type StubStore struct {
	ticketTypes []models.TicketType
	soldCounts  map[string]int
	coupons     map[string]*models.Coupon
	couponUsage map[string]int
	groups      map[string]*models.OrderGroup
	orders      map[string]*models.Order
	attendees   map[string]*models.Attendee

	shouldFailOn  string
	errorToReturn error
}

func NewStubStore() *StubStore {
	return &StubStore{
		soldCounts:  make(map[string]int),
		coupons:     make(map[string]*models.Coupon),
		couponUsage: make(map[string]int),
		groups:      make(map[string]*models.OrderGroup),
		orders:      make(map[string]*models.Order),
		attendees:   make(map[string]*models.Attendee),
	}
}

// SetupFailure configures the stub to fail on a specific operation.
func (s *StubStore) SetupFailure(operation string, err error) {
	s.shouldFailOn = operation
	s.errorToReturn = err
}

func (s *StubStore) failing(operation string) error {
	if s.shouldFailOn == operation {
		return s.errorToReturn
	}
	return nil
}

func (s *StubStore) GetTicketTypeByID(ctx context.Context, id string) (*models.TicketType, error) {
	if err := s.failing("GetTicketTypeByID"); err != nil {
		return nil, err
	}
	for i := range s.ticketTypes {
		if s.ticketTypes[i].ID == id {
			tt := s.ticketTypes[i]
			return &tt, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *StubStore) GetTicketTypeByName(ctx context.Context, name string, year int) (*models.TicketType, error) {
	if err := s.failing("GetTicketTypeByName"); err != nil {
		return nil, err
	}
	for i := range s.ticketTypes {
		if s.ticketTypes[i].Name == name && s.ticketTypes[i].ConferenceYear == year {
			tt := s.ticketTypes[i]
			return &tt, nil
		}
	}
	return nil, nil
}

func (s *StubStore) GetActiveTicketTypes(ctx context.Context, year int) ([]models.TicketType, error) {
	if err := s.failing("GetActiveTicketTypes"); err != nil {
		return nil, err
	}
	var out []models.TicketType
	for i := range s.ticketTypes {
		if s.ticketTypes[i].IsActive && s.ticketTypes[i].ConferenceYear == year {
			out = append(out, s.ticketTypes[i])
		}
	}
	return out, nil
}

func (s *StubStore) CountSoldByType(ctx context.Context, ticketTypeID string) (int, error) {
	if err := s.failing("CountSoldByType"); err != nil {
		return 0, err
	}
	return s.soldCounts[ticketTypeID], nil
}

func (s *StubStore) GetCouponByCode(ctx context.Context, code string, year int) (*models.Coupon, error) {
	if err := s.failing("GetCouponByCode"); err != nil {
		return nil, err
	}
	coupon, ok := s.coupons[strings.ToUpper(code)]
	if !ok || coupon.ConferenceYear != year {
		return nil, nil
	}
	c := *coupon
	return &c, nil
}

func (s *StubStore) CountCouponUsage(ctx context.Context, couponID string) (int, error) {
	return s.couponUsage[couponID], nil
}

func (s *StubStore) CreateOrderGroup(ctx context.Context, group *models.OrderGroup) error {
	if err := s.failing("CreateOrderGroup"); err != nil {
		return err
	}
	g := *group
	s.groups[group.ID] = &g
	return nil
}

func (s *StubStore) GetOrdersByGroup(ctx context.Context, groupID string) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.GroupID == groupID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *StubStore) GroupTotal(ctx context.Context, groupID string) (float64, error) {
	if err := s.failing("GroupTotal"); err != nil {
		return 0, err
	}
	total := 0.0
	for _, order := range s.orders {
		if order.GroupID == groupID {
			total += order.Amount
		}
	}
	return total, nil
}

func (s *StubStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := s.failing("CreateOrder"); err != nil {
		return err
	}
	o := *order
	s.orders[order.OrderCode] = &o
	return nil
}

func (s *StubStore) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	if err := s.failing("GetOrderByCode"); err != nil {
		return nil, err
	}
	order, ok := s.orders[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	o := *order
	return &o, nil
}

func (s *StubStore) OrderCodeExists(ctx context.Context, code string) (bool, error) {
	_, ok := s.orders[code]
	return ok, nil
}

func (s *StubStore) GetIssuedOrder(ctx context.Context, userID, ticketTypeID string, year int) (*models.Order, error) {
	for _, order := range s.orders {
		if order.UserID == userID && order.TicketTypeID == ticketTypeID &&
			order.ConferenceYear == year && order.Status == models.OrderStatusIssued {
			o := *order
			return &o, nil
		}
	}
	return nil, nil
}

func (s *StubStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	if err := s.failing("UpdateOrder"); err != nil {
		return err
	}
	stored, ok := s.orders[order.OrderCode]
	if !ok {
		return sql.ErrNoRows
	}
	// Settlement columns stay untouched, same as the real repository.
	stored.Quantity = order.Quantity
	stored.Amount = order.Amount
	stored.TotalAmount = order.TotalAmount
	stored.CouponID = order.CouponID
	stored.GroupID = order.GroupID
	stored.MultipleTickets = order.MultipleTickets
	stored.CreatedTickets = order.CreatedTickets
	return nil
}

func (s *StubStore) SettleGroup(ctx context.Context, groupID, reference string, totalAmount float64, paidAt time.Time) (int64, error) {
	if err := s.failing("SettleGroup"); err != nil {
		return 0, err
	}
	var rows int64
	for _, order := range s.orders {
		if order.GroupID == groupID && order.Status == models.OrderStatusIssued {
			order.Status = models.OrderStatusPaid
			order.PaystackReference = reference
			order.TotalAmount = totalAmount
			order.DatePaid = paidAt
			rows++
		}
	}
	return rows, nil
}

func (s *StubStore) RotateOrderCode(ctx context.Context, order *models.Order, newCode string) error {
	if err := s.failing("RotateOrderCode"); err != nil {
		return err
	}
	lead, ok := s.orders[order.OrderCode]
	if !ok {
		return sql.ErrNoRows
	}
	for code, sibling := range s.orders {
		if sibling.GroupID == lead.GroupID && code != lead.OrderCode && sibling.Status == models.OrderStatusIssued {
			delete(s.orders, code)
		}
	}
	delete(s.orders, lead.OrderCode)
	lead.OrderCode = newCode
	s.orders[newCode] = lead
	return nil
}

func (s *StubStore) GetPaidOrdersWithoutAttendees(ctx context.Context, userID string, year int) ([]models.Order, error) {
	if err := s.failing("GetPaidOrdersWithoutAttendees"); err != nil {
		return nil, err
	}
	var out []models.Order
	for _, order := range s.orders {
		if order.UserID == userID && order.ConferenceYear == year &&
			order.Status == models.OrderStatusPaid && !order.CreatedTickets {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *StubStore) CreateAttendees(ctx context.Context, orderCode string, attendees []models.Attendee) error {
	if err := s.failing("CreateAttendees"); err != nil {
		return err
	}
	for i := range attendees {
		a := attendees[i]
		s.attendees[a.ID] = &a
	}
	if order, ok := s.orders[orderCode]; ok {
		order.CreatedTickets = true
	}
	return nil
}

func (s *StubStore) GetAttendeesByOrder(ctx context.Context, orderCode string) ([]models.Attendee, error) {
	var out []models.Attendee
	for _, attendee := range s.attendees {
		if attendee.OrderCode == orderCode {
			out = append(out, *attendee)
		}
	}
	return out, nil
}

func (s *StubStore) GetAttendeeByID(ctx context.Context, id string) (*models.Attendee, error) {
	if err := s.failing("GetAttendeeByID"); err != nil {
		return nil, err
	}
	attendee, ok := s.attendees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	a := *attendee
	return &a, nil
}

func (s *StubStore) UpdateAttendee(ctx context.Context, attendee *models.Attendee) error {
	if err := s.failing("UpdateAttendee"); err != nil {
		return err
	}
	a := *attendee
	s.attendees[attendee.ID] = &a
	return nil
}

func (s *StubStore) TransferAttendee(ctx context.Context, id, newUserID string) error {
	if err := s.failing("TransferAttendee"); err != nil {
		return err
	}
	attendee, ok := s.attendees[id]
	if !ok {
		return sql.ErrNoRows
	}
	attendee.UserID = newUserID
	return nil
}

// StubLock grants the checkout lock unless marked busy.
type StubLock struct {
	busy bool
}

func (l *StubLock) LockCheckout(ctx context.Context, userID string, year int) (bool, error) {
	return !l.busy, nil
}

func (l *StubLock) UnlockCheckout(ctx context.Context, userID string, year int) error {
	return nil
}

// StubGateway answers verification and initialization from canned fields.
type StubGateway struct {
	verifyPayment *models.VerifiedPayment
	verifyErr     error
	initData      *models.PaystackInitializeData
	initErr       error

	initEmail     string
	initAmount    float64
	initReference string
}

func (g *StubGateway) VerifyTransaction(ctx context.Context, reference string) (*models.VerifiedPayment, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verifyPayment, nil
}

func (g *StubGateway) InitializeTransaction(ctx context.Context, email string, amount float64, reference, callbackURL string) (*models.PaystackInitializeData, error) {
	g.initEmail = email
	g.initAmount = amount
	g.initReference = reference
	if g.initErr != nil {
		return nil, g.initErr
	}
	return g.initData, nil
}

// StubBadges renders a fixed PNG stand-in.
type StubBadges struct{}

func (b *StubBadges) GenerateBadgeQR(payload badge.Payload) ([]byte, error) {
	return []byte("badge-png"), nil
}

type testEnv struct {
	store   *StubStore
	lock    *StubLock
	gateway *StubGateway
	handler *ticket_api.Handler
}

// setupTestHandler wires a real service and handler over the stubs, seeded
// with one ticket type, one coupon and a few orders for user1.
func setupTestHandler() *testEnv {
	store := NewStubStore()

	store.ticketTypes = []models.TicketType{
		{
			ID:             "tt-student",
			Name:           "Student",
			Description:    "Student admission",
			Price:          20,
			EarlyBirdPrice: 10,
			EarlyBirdCount: 2,
			RegularCount:   10,
			ConferenceYear: 2026,
			IsActive:       true,
			DisplayOrder:   1,
		},
	}
	store.coupons["SAVE10"] = &models.Coupon{
		ID:             "coupon-1",
		Code:           "SAVE10",
		Percentage:     10,
		MaxUsage:       50,
		ConferenceYear: 2026,
	}

	// A paid order still waiting for attendee details.
	store.groups["group-paid"] = &models.OrderGroup{ID: "group-paid", UserID: "user1", ConferenceYear: 2026}
	store.orders["PAIDORDER001"] = &models.Order{
		OrderCode:         "PAIDORDER001",
		UserID:            "user1",
		TicketTypeID:      "tt-student",
		Quantity:          2,
		Amount:            20,
		TotalAmount:       20,
		Status:            models.OrderStatusPaid,
		PaystackReference: "PAIDORDER001",
		ConferenceYear:    2026,
		GroupID:           "group-paid",
		DatePaid:          time.Now(),
	}

	// An issued order awaiting payment.
	store.groups["group-open"] = &models.OrderGroup{ID: "group-open", UserID: "user2", ConferenceYear: 2026}
	store.orders["OPENORDER001"] = &models.Order{
		OrderCode:      "OPENORDER001",
		UserID:         "user2",
		TicketTypeID:   "tt-student",
		Quantity:       1,
		Amount:         10,
		Status:         models.OrderStatusIssued,
		ConferenceYear: 2026,
		GroupID:        "group-open",
	}

	// An attendee already assigned on a settled order.
	store.orders["ASSIGNEDORD1"] = &models.Order{
		OrderCode:      "ASSIGNEDORD1",
		UserID:         "user1",
		TicketTypeID:   "tt-student",
		Quantity:       1,
		Amount:         20,
		TotalAmount:    20,
		Status:         models.OrderStatusPaid,
		ConferenceYear: 2026,
		GroupID:        "group-assigned",
		CreatedTickets: true,
	}
	store.attendees["att-1"] = &models.Attendee{
		ID:        "att-1",
		OrderCode: "ASSIGNEDORD1",
		UserID:    "user1",
		FullName:  "Ada Obi",
		Diet:      models.DietVegetarian,
		BadgeQR:   []byte("badge-png"),
	}

	lock := &StubLock{}
	gateway := &StubGateway{}
	service := tickets.NewTicketService(
		store,
		lock,
		nil,
		gateway,
		&StubBadges{},
		config.PaystackConfig{SecretKey: webhookSecret},
		config.ConferenceConfig{
			Year:        2026,
			SuccessURL:  "/tickets/purchase-complete",
			PurchaseURL: "/tickets/purchase",
		},
		logger.NewLogger(),
	)

	return &testEnv{
		store:   store,
		lock:    lock,
		gateway: gateway,
		handler: ticket_api.NewHandler(service, logger.NewLogger()),
	}
}

// authed stamps the request context the way the auth middleware would.
func authed(req *http.Request, userID, email string) *http.Request {
	return req.WithContext(auth.WithUser(req.Context(), userID, email))
}

// Tests start here

func TestListTicketTypesHandler(t *testing.T) {
	t.Run("Lists active types with computed price", func(t *testing.T) {
		env := setupTestHandler()

		req := httptest.NewRequest("GET", "/tickets", nil)
		w := httptest.NewRecorder()
		env.handler.ListTicketTypes(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var listings []models.TicketTypeListing
		require.NoError(t, json.NewDecoder(w.Body).Decode(&listings))
		require.Len(t, listings, 1)
		assert.Equal(t, "Student", listings[0].Name)
		assert.Equal(t, 10.0, listings[0].CurrentPrice)
		assert.True(t, listings[0].EarlyBird)
		assert.False(t, listings[0].SoldOut)
	})

	t.Run("Database failure", func(t *testing.T) {
		env := setupTestHandler()
		env.store.SetupFailure("GetActiveTicketTypes", fmt.Errorf("database error"))

		req := httptest.NewRequest("GET", "/tickets", nil)
		w := httptest.NewRecorder()
		env.handler.ListTicketTypes(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to load ticket types")
	})
}

func TestCheckCouponHandler(t *testing.T) {
	t.Run("Valid coupon returns percentage", func(t *testing.T) {
		env := setupTestHandler()

		req := httptest.NewRequest("GET", "/tickets/coupons?code=SAVE10", nil)
		w := httptest.NewRecorder()
		env.handler.CheckCoupon(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.CouponCheckResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 10, resp.Status)
	})

	t.Run("Unknown coupon returns zero", func(t *testing.T) {
		env := setupTestHandler()

		req := httptest.NewRequest("GET", "/tickets/coupons?code=NOSUCHCODE", nil)
		w := httptest.NewRecorder()
		env.handler.CheckCoupon(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.CouponCheckResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 0, resp.Status)
	})
}

func TestPlacePurchaseHandler(t *testing.T) {
	t.Run("Successful purchase", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.PurchaseRequest{Tickets: map[string]int{"Student": 2}})
		req := authed(httptest.NewRequest("POST", "/tickets/purchase", bytes.NewBuffer(body)), "buyer-new", "buyer@example.com")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.handler.PlacePurchase(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp models.PurchaseResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Len(t, resp.Order, 12)
		// Both seats land in the early-bird window.
		assert.Equal(t, 20.0, resp.Total)

		stored, err := env.store.GetOrderByCode(context.Background(), resp.Order)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusIssued, stored.Status)
	})

	t.Run("Missing auth", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.PurchaseRequest{Tickets: map[string]int{"Student": 1}})
		req := httptest.NewRequest("POST", "/tickets/purchase", bytes.NewBuffer(body))
		w := httptest.NewRecorder()
		env.handler.PlacePurchase(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("POST", "/tickets/purchase", bytes.NewBufferString(`{"tickets":`)), "buyer-new", "")
		w := httptest.NewRecorder()
		env.handler.PlacePurchase(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid request body")
	})

	t.Run("Empty basket", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.PurchaseRequest{Tickets: map[string]int{}})
		req := authed(httptest.NewRequest("POST", "/tickets/purchase", bytes.NewBuffer(body)), "buyer-new", "")
		w := httptest.NewRecorder()
		env.handler.PlacePurchase(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Checkout already in progress", func(t *testing.T) {
		env := setupTestHandler()
		env.lock.busy = true

		body, _ := json.Marshal(models.PurchaseRequest{Tickets: map[string]int{"Student": 1}})
		req := authed(httptest.NewRequest("POST", "/tickets/purchase", bytes.NewBuffer(body)), "buyer-new", "")
		w := httptest.NewRecorder()
		env.handler.PlacePurchase(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestPurchaseCompleteHandler(t *testing.T) {
	newRouter := func(env *testEnv) *chi.Mux {
		r := chi.NewRouter()
		r.Get("/tickets/purchase-complete/{orderCode}", env.handler.PurchaseComplete)
		return r
	}

	t.Run("Paid order", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("GET", "/tickets/purchase-complete/PAIDORDER001", nil), "user1", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var summary models.OrderSummary
		require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
		assert.Equal(t, "PAIDORDER001", summary.Order)
		assert.Equal(t, models.OrderStatusPaid, summary.Status)
		assert.Equal(t, 1, summary.GroupSize)
	})

	t.Run("Unpaid order", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("GET", "/tickets/purchase-complete/OPENORDER001", nil), "user2", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("Another user's order", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("GET", "/tickets/purchase-complete/PAIDORDER001", nil), "user2", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUnassignedOrdersHandler(t *testing.T) {
	t.Run("Lists paid orders without attendees", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("GET", "/tickets/unassigned", nil), "user1", "")
		w := httptest.NewRecorder()
		env.handler.UnassignedOrders(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var orders []models.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&orders))
		require.Len(t, orders, 1)
		assert.Equal(t, "PAIDORDER001", orders[0].OrderCode)
	})

	t.Run("No unassigned orders yields empty array", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("GET", "/tickets/unassigned", nil), "user-without-orders", "")
		w := httptest.NewRecorder()
		env.handler.UnassignedOrders(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]\n", w.Body.String())
	})
}

func TestGetOrderHandler(t *testing.T) {
	newRouter := func(env *testEnv) *chi.Mux {
		r := chi.NewRouter()
		r.Get("/tickets/{orderCode}", env.handler.GetOrder)
		return r
	}

	t.Run("Order with attendees", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("GET", "/tickets/ASSIGNEDORD1", nil), "user1", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var detail models.OrderDetail
		require.NoError(t, json.NewDecoder(w.Body).Decode(&detail))
		require.NotNil(t, detail.Order)
		assert.Equal(t, "ASSIGNEDORD1", detail.Order.OrderCode)
		require.NotNil(t, detail.TicketType)
		assert.Equal(t, "Student", detail.TicketType.Name)
		require.Len(t, detail.Attendees, 1)
		assert.Equal(t, "Ada Obi", detail.Attendees[0].FullName)
	})

	t.Run("Unknown order", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("GET", "/tickets/DOESNOTEXIST", nil), "user1", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAssignAttendeesHandler(t *testing.T) {
	newRouter := func(env *testEnv) *chi.Mux {
		r := chi.NewRouter()
		r.Post("/tickets/{orderCode}/attendees", env.handler.AssignAttendees)
		return r
	}

	t.Run("Successful assignment", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.AttendeeRequest{FullName: "Ngozi Eze", Diet: models.DietVegetarian})
		req := authed(httptest.NewRequest("POST", "/tickets/PAIDORDER001/attendees", bytes.NewBuffer(body)), "user1", "")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var attendees []models.Attendee
		require.NoError(t, json.NewDecoder(w.Body).Decode(&attendees))
		// One attendee row per purchased seat.
		require.Len(t, attendees, 2)
		assert.Equal(t, "Ngozi Eze", attendees[0].FullName)

		stored, err := env.store.GetOrderByCode(context.Background(), "PAIDORDER001")
		require.NoError(t, err)
		assert.True(t, stored.CreatedTickets)
	})

	t.Run("Missing full name", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.AttendeeRequest{Diet: models.DietOmnivorous})
		req := authed(httptest.NewRequest("POST", "/tickets/PAIDORDER001/attendees", bytes.NewBuffer(body)), "user1", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Attendees already assigned", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.AttendeeRequest{FullName: "Ngozi Eze"})
		req := authed(httptest.NewRequest("POST", "/tickets/ASSIGNEDORD1/attendees", bytes.NewBuffer(body)), "user1", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Unpaid order", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.AttendeeRequest{FullName: "Ngozi Eze"})
		req := authed(httptest.NewRequest("POST", "/tickets/OPENORDER001/attendees", bytes.NewBuffer(body)), "user2", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})
}

func TestUpdateAttendeeHandler(t *testing.T) {
	newRouter := func(env *testEnv) *chi.Mux {
		r := chi.NewRouter()
		r.Put("/attendees/{attendeeID}", env.handler.UpdateAttendee)
		return r
	}

	t.Run("Successful update", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.AttendeeRequest{FullName: "Ada Obi-Eze", Diet: models.DietOthers})
		req := authed(httptest.NewRequest("PUT", "/attendees/att-1", bytes.NewBuffer(body)), "user1", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var attendee models.Attendee
		require.NoError(t, json.NewDecoder(w.Body).Decode(&attendee))
		assert.Equal(t, "Ada Obi-Eze", attendee.FullName)
		assert.Equal(t, models.DietOthers, attendee.Diet)
	})

	t.Run("Unknown attendee", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.AttendeeRequest{FullName: "Ada Obi"})
		req := authed(httptest.NewRequest("PUT", "/attendees/att-missing", bytes.NewBuffer(body)), "user1", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTransferAttendeeHandler(t *testing.T) {
	newRouter := func(env *testEnv) *chi.Mux {
		r := chi.NewRouter()
		r.Post("/attendees/{attendeeID}/transfer", env.handler.TransferAttendee)
		return r
	}

	t.Run("Successful transfer", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.TransferRequest{RecipientID: "user2"})
		req := authed(httptest.NewRequest("POST", "/attendees/att-1/transfer", bytes.NewBuffer(body)), "user1", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var attendee models.Attendee
		require.NoError(t, json.NewDecoder(w.Body).Decode(&attendee))
		assert.Equal(t, "user2", attendee.UserID)

		stored, err := env.store.GetAttendeeByID(context.Background(), "att-1")
		require.NoError(t, err)
		assert.Equal(t, "user2", stored.UserID)
	})

	t.Run("Missing recipient", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.TransferRequest{RecipientID: "   "})
		req := authed(httptest.NewRequest("POST", "/attendees/att-1/transfer", bytes.NewBuffer(body)), "user1", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Not the owner", func(t *testing.T) {
		env := setupTestHandler()

		body, _ := json.Marshal(models.TransferRequest{RecipientID: "user3"})
		req := authed(httptest.NewRequest("POST", "/attendees/att-1/transfer", bytes.NewBuffer(body)), "user2", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAttendeeBadgeHandler(t *testing.T) {
	newRouter := func(env *testEnv) *chi.Mux {
		r := chi.NewRouter()
		r.Get("/attendees/{attendeeID}/badge", env.handler.AttendeeBadge)
		return r
	}

	t.Run("Serves the badge PNG", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("GET", "/attendees/att-1/badge", nil), "user1", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, []byte("badge-png"), w.Body.Bytes())
	})

	t.Run("Another user's badge", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("GET", "/attendees/att-1/badge", nil), "user2", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInitializePaymentHandler(t *testing.T) {
	newRouter := func(env *testEnv) *chi.Mux {
		r := chi.NewRouter()
		r.Post("/tickets/{orderCode}/pay", env.handler.InitializePayment)
		return r
	}

	t.Run("Creates hosted checkout", func(t *testing.T) {
		env := setupTestHandler()
		env.gateway.initData = &models.PaystackInitializeData{
			AuthorizationURL: "https://checkout.paystack.com/xyz",
			AccessCode:       "xyz",
			Reference:        "OPENORDER001",
		}

		req := authed(httptest.NewRequest("POST", "/tickets/OPENORDER001/pay", nil), "user2", "buyer@example.com")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var data models.PaystackInitializeData
		require.NoError(t, json.NewDecoder(w.Body).Decode(&data))
		assert.Equal(t, "https://checkout.paystack.com/xyz", data.AuthorizationURL)

		assert.Equal(t, "buyer@example.com", env.gateway.initEmail)
		assert.Equal(t, 10.0, env.gateway.initAmount)
		assert.Equal(t, "OPENORDER001", env.gateway.initReference)
	})

	t.Run("Missing email claim", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("POST", "/tickets/OPENORDER001/pay", nil), "user2", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Order already paid", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("POST", "/tickets/PAIDORDER001/pay", nil), "user1", "ada@example.com")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestValidatePaymentHandler(t *testing.T) {
	newRouter := func(env *testEnv) *chi.Mux {
		r := chi.NewRouter()
		r.Get("/paystack/validate/{orderCode}/{reference}", env.handler.ValidatePayment)
		return r
	}

	t.Run("Verified payment settles the order", func(t *testing.T) {
		env := setupTestHandler()
		env.gateway.verifyPayment = &models.VerifiedPayment{
			Reference: "OPENORDER001",
			Amount:    10,
			Currency:  "NGN",
		}

		req := authed(httptest.NewRequest("GET", "/paystack/validate/OPENORDER001/OPENORDER001", nil), "user2", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.ValidateResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Status)

		stored, err := env.store.GetOrderByCode(context.Background(), "OPENORDER001")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPaid, stored.Status)
	})

	t.Run("Failed verification rotates the order code", func(t *testing.T) {
		env := setupTestHandler()
		env.gateway.verifyErr = paystack.ErrVerificationFailed

		req := authed(httptest.NewRequest("GET", "/paystack/validate/OPENORDER001/OPENORDER001", nil), "user2", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.ValidateResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.False(t, resp.Status)
		assert.Len(t, resp.Order, 12)
		assert.NotEqual(t, "OPENORDER001", resp.Order)

		_, err := env.store.GetOrderByCode(context.Background(), "OPENORDER001")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("Unknown order", func(t *testing.T) {
		env := setupTestHandler()

		req := authed(httptest.NewRequest("GET", "/paystack/validate/DOESNOTEXIST/DOESNOTEXIST", nil), "user2", "")
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPaystackWebhookHandler(t *testing.T) {
	t.Run("Valid charge.success settles the order", func(t *testing.T) {
		env := setupTestHandler()

		payload := []byte(`{"event":"charge.success","data":{"reference":"OPENORDER001","amount":1000,"currency":"NGN","status":"success"}}`)
		req := httptest.NewRequest("POST", "/paystack/webhook", bytes.NewBuffer(payload))
		req.Header.Set(paystack.SignatureHeader, paystack.ComputeSignature(webhookSecret, payload))
		w := httptest.NewRecorder()
		env.handler.PaystackWebhook(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		stored, err := env.store.GetOrderByCode(context.Background(), "OPENORDER001")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPaid, stored.Status)
		assert.Equal(t, 10.0, stored.TotalAmount)
	})

	t.Run("Invalid signature is rejected", func(t *testing.T) {
		env := setupTestHandler()

		payload := []byte(`{"event":"charge.success","data":{"reference":"OPENORDER001","amount":1000}}`)
		req := httptest.NewRequest("POST", "/paystack/webhook", bytes.NewBuffer(payload))
		req.Header.Set(paystack.SignatureHeader, "forged")
		w := httptest.NewRecorder()
		env.handler.PaystackWebhook(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid webhook signature")

		stored, err := env.store.GetOrderByCode(context.Background(), "OPENORDER001")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusIssued, stored.Status)
	})

	t.Run("Other events are acknowledged without settling", func(t *testing.T) {
		env := setupTestHandler()

		payload := []byte(`{"event":"charge.failed","data":{"reference":"OPENORDER001","amount":1000}}`)
		req := httptest.NewRequest("POST", "/paystack/webhook", bytes.NewBuffer(payload))
		req.Header.Set(paystack.SignatureHeader, paystack.ComputeSignature(webhookSecret, payload))
		w := httptest.NewRecorder()
		env.handler.PaystackWebhook(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		stored, err := env.store.GetOrderByCode(context.Background(), "OPENORDER001")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusIssued, stored.Status)
	})

	t.Run("Unknown reference is still acknowledged", func(t *testing.T) {
		env := setupTestHandler()

		payload := []byte(`{"event":"charge.success","data":{"reference":"DOESNOTEXIST","amount":1000}}`)
		req := httptest.NewRequest("POST", "/paystack/webhook", bytes.NewBuffer(payload))
		req.Header.Set(paystack.SignatureHeader, paystack.ComputeSignature(webhookSecret, payload))
		w := httptest.NewRecorder()
		env.handler.PaystackWebhook(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestPaystackCallbackHandler(t *testing.T) {
	newRouter := func(env *testEnv) *chi.Mux {
		r := chi.NewRouter()
		r.Get("/paystack/callback/{orderCode}", env.handler.PaystackCallback)
		return r
	}

	t.Run("Successful charge redirects to confirmation", func(t *testing.T) {
		env := setupTestHandler()
		env.gateway.verifyPayment = &models.VerifiedPayment{Reference: "OPENORDER001", Amount: 10}

		req := httptest.NewRequest("GET", "/paystack/callback/OPENORDER001?reference=OPENORDER001", nil)
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/tickets/purchase-complete/OPENORDER001", w.Header().Get("Location"))
	})

	t.Run("Failed charge redirects back with a fresh code", func(t *testing.T) {
		env := setupTestHandler()
		env.gateway.verifyErr = paystack.ErrVerificationFailed

		req := httptest.NewRequest("GET", "/paystack/callback/OPENORDER001", nil)
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		location := w.Header().Get("Location")
		assert.True(t, strings.HasPrefix(location, "/tickets/purchase?order="), location)
		assert.NotContains(t, location, "OPENORDER001")
	})

	t.Run("Unknown order falls back to the purchase page", func(t *testing.T) {
		env := setupTestHandler()

		req := httptest.NewRequest("GET", "/paystack/callback/DOESNOTEXIST", nil)
		w := httptest.NewRecorder()
		newRouter(env).ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/tickets/purchase", w.Header().Get("Location"))
	})
}
