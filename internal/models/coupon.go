package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Coupon struct {
	bun.BaseModel `bun:"table:coupons"`

	ID             string    `bun:"id,pk" json:"id"`
	Code           string    `bun:"code,unique,notnull" json:"code"`
	Percentage     int       `bun:"percentage" json:"percentage"`
	MaxUsage       int       `bun:"max_usage" json:"max_usage"`
	Expired        bool      `bun:"expired" json:"expired"`
	ConferenceYear int       `bun:"conference_year" json:"conference_year"`
	CreatedAt      time.Time `bun:"created_at" json:"created_at"`
}

// CouponCheckResponse is the AJAX contract for the public coupon check.
// Status carries the discount percentage, zero when the code is unusable.
type CouponCheckResponse struct {
	Status int `json:"status"`
}
