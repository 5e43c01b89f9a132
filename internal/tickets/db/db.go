package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/jetemi/ng-pycon/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func New(b *bun.DB) *DB {
	return &DB{Bun: b}
}

// ---------------- TICKET TYPES ----------------

func (d *DB) CreateTicketType(ctx context.Context, tt *models.TicketType) error {
	_, err := d.Bun.NewInsert().Model(tt).Exec(ctx)
	return err
}

// GetTicketTypeByID → fetch one ticket type by its ID
func (d *DB) GetTicketTypeByID(ctx context.Context, id string) (*models.TicketType, error) {
	var tt models.TicketType
	err := d.Bun.NewSelect().
		Model(&tt).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

// GetTicketTypeByName → fetch a ticket type by name within a conference year.
// Returns nil when no such type exists.
func (d *DB) GetTicketTypeByName(ctx context.Context, name string, year int) (*models.TicketType, error) {
	var tt models.TicketType
	err := d.Bun.NewSelect().
		Model(&tt).
		Where("name = ?", name).
		Where("conference_year = ?", year).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

// GetActiveTicketTypes → fetch the sellable ticket types for a year in
// display order
func (d *DB) GetActiveTicketTypes(ctx context.Context, year int) ([]models.TicketType, error) {
	var types []models.TicketType
	err := d.Bun.NewSelect().
		Model(&types).
		Where("is_active = ?", true).
		Where("conference_year = ?", year).
		Order("display_order ASC", "price ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return types, nil
}

// CountSoldByType → total quantity across paid orders for a ticket type.
// Recomputed on every read; nothing caches this.
func (d *DB) CountSoldByType(ctx context.Context, ticketTypeID string) (int, error) {
	var total int
	err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("COALESCE(SUM(quantity), 0)").
		Where("ticket_type_id = ?", ticketTypeID).
		Where("status = ?", models.OrderStatusPaid).
		Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ---------------- COUPONS ----------------

func (d *DB) CreateCoupon(ctx context.Context, c *models.Coupon) error {
	_, err := d.Bun.NewInsert().Model(c).Exec(ctx)
	return err
}

// GetCouponByCode → case-insensitive lookup within a conference year.
// Returns nil when no such code exists; validity is the caller's call.
func (d *DB) GetCouponByCode(ctx context.Context, code string, year int) (*models.Coupon, error) {
	var coupon models.Coupon
	err := d.Bun.NewSelect().
		Model(&coupon).
		Where("lower(code) = lower(?)", code).
		Where("conference_year = ?", year).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// CountCouponUsage → number of order rows referencing the coupon. Usage is
// always derived from orders, never stored on the coupon.
func (d *DB) CountCouponUsage(ctx context.Context, couponID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Where("coupon_id = ?", couponID).
		Count(ctx)
}

// ---------------- ORDER GROUPS ----------------

func (d *DB) CreateOrderGroup(ctx context.Context, g *models.OrderGroup) error {
	_, err := d.Bun.NewInsert().Model(g).Exec(ctx)
	return err
}

// GetOrdersByGroup → all order rows sharing a basket
func (d *DB) GetOrdersByGroup(ctx context.Context, groupID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("group_id = ?", groupID).
		Order("date_created ASC", "order_code ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GroupTotal → sum of line amounts across a basket
func (d *DB) GroupTotal(ctx context.Context, groupID string) (float64, error) {
	var total float64
	err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("group_id = ?", groupID).
		Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ---------------- ORDERS ----------------

func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	return err
}

// GetOrderByCode → fetch one order by its code
func (d *DB) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_code = ?", code).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderCodeExists → whether a code is already taken
func (d *DB) OrderCodeExists(ctx context.Context, code string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Where("order_code = ?", code).
		Exists(ctx)
}

// GetIssuedOrder → the reusable issued row for (user, ticket type, year).
// Returns nil when the user has no issued order for that type.
func (d *DB) GetIssuedOrder(ctx context.Context, userID, ticketTypeID string, year int) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("user_id = ?", userID).
		Where("ticket_type_id = ?", ticketTypeID).
		Where("conference_year = ?", year).
		Where("status = ?", models.OrderStatusIssued).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder → update the basket-mutable fields. Status, payment reference
// and date_paid are deliberately not here; they change only through
// SettleGroup so no code path can walk an order back from paid.
func (d *DB) UpdateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewUpdate().
		Model(order).
		Column("quantity", "amount", "total_amount", "coupon_id", "group_id", "multiple_tickets", "created_tickets").
		Where("order_code = ?", order.OrderCode).
		Exec(ctx)
	return err
}

// SettleGroup → flip every still-issued row of the basket to paid in one
// conditional update. Returns the number of rows transitioned: zero means
// the group was already settled and this call is a no-op.
func (d *DB) SettleGroup(ctx context.Context, groupID, reference string, totalAmount float64, paidAt time.Time) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", models.OrderStatusPaid).
		Set("date_paid = ?", paidAt).
		Set("paystack_reference = ?", reference).
		Set("total_amount = ?", totalAmount).
		Where("group_id = ?", groupID).
		Where("status = ?", models.OrderStatusIssued).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RotateOrderCode → give the lead row a fresh code after a failed payment
// and drop its issued siblings so the stale reference cannot settle them.
func (d *DB) RotateOrderCode(ctx context.Context, order *models.Order, newCode string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.Order)(nil)).
			Where("group_id = ?", order.GroupID).
			Where("status = ?", models.OrderStatusIssued).
			Where("order_code != ?", order.OrderCode).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("order_code = ?", newCode).
			Where("order_code = ?", order.OrderCode).
			Where("status = ?", models.OrderStatusIssued).
			Exec(ctx)
		return err
	})
}

// GetPaidOrdersWithoutAttendees → paid orders still waiting for attendee
// details
func (d *DB) GetPaidOrdersWithoutAttendees(ctx context.Context, userID string, year int) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Where("conference_year = ?", year).
		Where("status = ?", models.OrderStatusPaid).
		Where("NOT EXISTS (SELECT 1 FROM attendees AS a WHERE a.order_code = ?TableAlias.order_code)").
		Order("date_created DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ---------------- ATTENDEES ----------------

// CreateAttendees → insert the attendee rows for an order and mark it as
// having its details assigned, atomically.
func (d *DB) CreateAttendees(ctx context.Context, orderCode string, attendees []models.Attendee) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&attendees).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("created_tickets = ?", true).
			Where("order_code = ?", orderCode).
			Exec(ctx)
		return err
	})
}

// GetAttendeesByOrder → all attendee rows of one order
func (d *DB) GetAttendeesByOrder(ctx context.Context, orderCode string) ([]models.Attendee, error) {
	var attendees []models.Attendee
	err := d.Bun.NewSelect().
		Model(&attendees).
		Where("order_code = ?", orderCode).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return attendees, nil
}

// GetAttendeeByID → fetch one attendee row
func (d *DB) GetAttendeeByID(ctx context.Context, id string) (*models.Attendee, error) {
	var attendee models.Attendee
	err := d.Bun.NewSelect().
		Model(&attendee).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &attendee, nil
}

// UpdateAttendee → update the editable attendee details
func (d *DB) UpdateAttendee(ctx context.Context, attendee *models.Attendee) error {
	_, err := d.Bun.NewUpdate().
		Model(attendee).
		Column("full_name", "diet", "tagline", "badge_qr").
		Where("id = ?", attendee.ID).
		Exec(ctx)
	return err
}

// TransferAttendee → hand an attendee row to another user
func (d *DB) TransferAttendee(ctx context.Context, id, newUserID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Attendee)(nil)).
		Set("user_id = ?", newUserID).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
