package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source identifies this service in published envelopes.
const Source = "service-checkout"

// Event types.
const (
	CheckoutCompleted = "checkout.completed"
	CheckoutFailed    = "checkout.failed"

	CatalogCourseUpserted = "catalog.course.upserted"
	CatalogCourseDeleted  = "catalog.course.deleted"
)

// CheckoutCompletedEvent is published once a payment succeeds.
type CheckoutCompletedEvent struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	SessionID     string          `json:"session_id"`
	Email         string          `json:"email"`
	Gateway       string          `json:"gateway"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CourseIDs     []string        `json:"course_ids"`
	CouponCodes   []string        `json:"coupon_codes,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// CheckoutFailedEvent is published when a checkout ends without a charge.
type CheckoutFailedEvent struct {
	PaymentID  uuid.UUID       `json:"payment_id"`
	SessionID  string          `json:"session_id"`
	Gateway    string          `json:"gateway"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Reason     string          `json:"reason"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// CourseUpsertedEvent carries a course's sellable state from the catalog.
type CourseUpsertedEvent struct {
	CourseID   string          `json:"course_id"`
	Title      string          `json:"title"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Currency   string          `json:"currency"`
}

// CourseDeletedEvent withdraws a course from sale.
type CourseDeletedEvent struct {
	CourseID string `json:"course_id"`
}
