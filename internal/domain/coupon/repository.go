package coupon

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for coupons.
type Repository interface {
	Lookup
	Save(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	FindActive(ctx context.Context, now time.Time) ([]*Coupon, error)
	// IncrementUsage atomically bumps the used count, failing with
	// domain.ErrConflict once the usage limit is reached.
	IncrementUsage(ctx context.Context, couponID uuid.UUID) error
	SaveUsage(ctx context.Context, usage *Usage) error
	// ReleaseUsage undoes a redemption recorded for paymentID.
	ReleaseUsage(ctx context.Context, couponID, paymentID uuid.UUID) error
}

// Usage records one redemption of a coupon at checkout.
type Usage struct {
	ID        uuid.UUID
	CouponID  uuid.UUID
	SessionID string
	PaymentID uuid.UUID
	UsedAt    time.Time
}
