package tickets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jetemi/ng-pycon/internal/models"
	"github.com/jetemi/ng-pycon/internal/tickets"
)

func studentType() *models.TicketType {
	return &models.TicketType{
		ID:             "tt-student",
		Name:           "Student",
		Price:          20,
		EarlyBirdPrice: 10,
		EarlyBirdCount: 2,
		RegularCount:   10,
		ConferenceYear: 2026,
		IsActive:       true,
	}
}

func TestCurrentPrice_EarlyBirdWindow(t *testing.T) {
	tt := studentType()

	// First two buyers get the early-bird price, the third pays full.
	assert.Equal(t, 10.0, tickets.CurrentPrice(tt, 0))
	assert.Equal(t, 10.0, tickets.CurrentPrice(tt, 1))
	assert.Equal(t, 20.0, tickets.CurrentPrice(tt, 2))
	assert.Equal(t, 20.0, tickets.CurrentPrice(tt, 11))
}

func TestCurrentPrice_SoldOut(t *testing.T) {
	tt := studentType()

	// 2 early bird + 10 regular = 12 total
	assert.Equal(t, 0.0, tickets.CurrentPrice(tt, 12))
	assert.Equal(t, 0.0, tickets.CurrentPrice(tt, 50))
}

func TestCurrentPrice_NoEarlyBirdConfigured(t *testing.T) {
	// A zero early-bird count means the window never opens.
	tt := studentType()
	tt.EarlyBirdCount = 0
	tt.RegularCount = 12
	assert.Equal(t, 20.0, tickets.CurrentPrice(tt, 0))

	// A zero early-bird price disables the window even with count left.
	tt = studentType()
	tt.EarlyBirdPrice = 0
	assert.Equal(t, 20.0, tickets.CurrentPrice(tt, 0))
}

func TestCurrentPrice_NeverIncreasesAsStockFalls(t *testing.T) {
	tt := studentType()

	prev := tickets.CurrentPrice(tt, 0)
	for sold := 1; sold <= tt.TotalAvailable(); sold++ {
		price := tickets.CurrentPrice(tt, sold)
		if price == 0 {
			// Sold out, nothing left to price.
			continue
		}
		assert.GreaterOrEqual(t, price, prev, "price dropped at sold=%d", sold)
		prev = price
	}
}

func TestRemaining_ClampedAtZero(t *testing.T) {
	tt := studentType()

	assert.Equal(t, 12, tickets.Remaining(tt, 0))
	assert.Equal(t, 1, tickets.Remaining(tt, 11))
	assert.Equal(t, 0, tickets.Remaining(tt, 12))
	assert.Equal(t, 0, tickets.Remaining(tt, 99))
}

func TestEarlyBirdRemaining(t *testing.T) {
	tt := studentType()

	assert.True(t, tickets.EarlyBirdRemaining(tt, 0))
	assert.True(t, tickets.EarlyBirdRemaining(tt, 1))
	assert.False(t, tickets.EarlyBirdRemaining(tt, 2))

	tt.EarlyBirdCount = 0
	assert.False(t, tickets.EarlyBirdRemaining(tt, 0))
}

func TestDiscountedAmount(t *testing.T) {
	// 3 tickets at 20 with a 10% coupon
	assert.Equal(t, 54.0, tickets.DiscountedAmount(3, 20, 10))

	// No coupon
	assert.Equal(t, 60.0, tickets.DiscountedAmount(3, 20, 0))

	// Full discount
	assert.Equal(t, 0.0, tickets.DiscountedAmount(3, 20, 100))

	// Single ticket, odd percentage
	assert.InDelta(t, 17.0, tickets.DiscountedAmount(1, 20, 15), 0.0001)
}
