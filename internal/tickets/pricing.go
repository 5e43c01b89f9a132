package tickets

import (
	"github.com/jetemi/ng-pycon/internal/models"
)

// CurrentPrice returns the price a buyer pays for one ticket of this type
// given how many have been sold so far. Zero means the type is sold out and
// must not be ordered.
//
// The ladder: while fewer tickets have been sold than the early-bird
// allocation and an early-bird price is set, the early-bird price applies;
// afterwards the regular price, until the full allocation is gone.
func CurrentPrice(tt *models.TicketType, sold int) float64 {
	if sold >= tt.TotalAvailable() {
		return 0
	}
	if EarlyBirdRemaining(tt, sold) && tt.EarlyBirdPrice > 0 {
		return tt.EarlyBirdPrice
	}
	return tt.Price
}

// EarlyBirdRemaining reports whether the early-bird window is still open.
// A type without an early-bird allocation never has one.
func EarlyBirdRemaining(tt *models.TicketType, sold int) bool {
	if tt.EarlyBirdCount == 0 {
		return false
	}
	return sold < tt.EarlyBirdCount
}

// Remaining is how many tickets of the type are still available.
func Remaining(tt *models.TicketType, sold int) int {
	remaining := tt.TotalAvailable() - sold
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DiscountedAmount prices a basket line: quantity times unit price, with the
// coupon percentage taken off the whole line.
func DiscountedAmount(quantity int, unitPrice float64, discountPercent int) float64 {
	return float64(quantity) * unitPrice * float64(100-discountPercent) / 100
}
