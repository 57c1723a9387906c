package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/cart"
	"github.com/oponmeta/service-checkout/internal/domain/money"
)

// Status represents the state of a checkout payment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Item is a priced cart line captured at checkout.
type Item struct {
	ProductID  string      `json:"product_id"`
	Title      string      `json:"title"`
	Quantity   int         `json:"quantity"`
	UnitPrice  money.Money `json:"unit_price"`
	CouponCode string      `json:"coupon_code,omitempty"`
}

// Payment is the aggregate root for a checkout attempt.
type Payment struct {
	id            uuid.UUID
	sessionID     string
	email         string
	amount        money.Money
	gateway       string
	transactionID string
	status        Status
	items         []Item
	couponCodes   []string
	failureReason string
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewPayment snapshots the cart into a pending payment for amount.
func NewPayment(c *cart.Cart, email string, amount money.Money, gateway string, couponCodes []string) *Payment {
	now := time.Now().UTC()
	items := make([]Item, 0, len(c.Lines))
	for _, l := range c.Lines {
		it := Item{
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: l.FinalUnitPrice,
		}
		if l.AppliedCoupon != nil {
			it.CouponCode = l.AppliedCoupon.Code
		}
		items = append(items, it)
	}

	return &Payment{
		id:          uuid.New(),
		sessionID:   c.SessionID,
		email:       email,
		amount:      amount,
		gateway:     gateway,
		status:      StatusPending,
		items:       items,
		couponCodes: append([]string(nil), couponCodes...),
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}
}

// --- Getters ---

func (p *Payment) ID() uuid.UUID         { return p.id }
func (p *Payment) SessionID() string     { return p.sessionID }
func (p *Payment) Email() string         { return p.email }
func (p *Payment) Amount() money.Money   { return p.amount }
func (p *Payment) Gateway() string       { return p.gateway }
func (p *Payment) TransactionID() string { return p.transactionID }
func (p *Payment) Status() Status        { return p.status }
func (p *Payment) Items() []Item         { return append([]Item(nil), p.items...) }
func (p *Payment) CouponCodes() []string { return append([]string(nil), p.couponCodes...) }
func (p *Payment) FailureReason() string { return p.failureReason }
func (p *Payment) Version() int64        { return p.version }
func (p *Payment) CreatedAt() time.Time  { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time  { return p.updatedAt }

// IsTerminal reports whether the payment has reached succeeded or failed.
func (p *Payment) IsTerminal() bool {
	return p.status == StatusSucceeded || p.status == StatusFailed
}

// --- State transitions ---

// MarkSucceeded records the gateway transaction after a successful charge.
func (p *Payment) MarkSucceeded(transactionID string) error {
	if p.status != StatusPending {
		return domain.NewInvalidStateError(string(p.status), string(StatusSucceeded))
	}
	p.status = StatusSucceeded
	p.transactionID = transactionID
	p.updatedAt = time.Now().UTC()
	return nil
}

// MarkFailed transitions a pending payment to failed.
func (p *Payment) MarkFailed(reason string) error {
	if p.status != StatusPending {
		return domain.NewInvalidStateError(string(p.status), string(StatusFailed))
	}
	p.status = StatusFailed
	p.failureReason = reason
	p.updatedAt = time.Now().UTC()
	return nil
}

// Void fails a succeeded payment whose charge was cancelled before the
// success could be persisted.
func (p *Payment) Void(reason string) error {
	if p.status != StatusSucceeded {
		return domain.NewInvalidStateError(string(p.status), string(StatusFailed))
	}
	p.status = StatusFailed
	p.transactionID = ""
	p.failureReason = reason
	p.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (p *Payment) IncrementVersion() {
	p.version++
	p.updatedAt = time.Now().UTC()
}

// Reconstitute rebuilds a Payment from persisted data.
func Reconstitute(
	id uuid.UUID,
	sessionID, email string,
	amount money.Money,
	gateway, transactionID string,
	status Status,
	items []Item,
	couponCodes []string,
	failureReason string,
	version int64,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:            id,
		sessionID:     sessionID,
		email:         email,
		amount:        amount,
		gateway:       gateway,
		transactionID: transactionID,
		status:        status,
		items:         items,
		couponCodes:   couponCodes,
		failureReason: failureReason,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}
