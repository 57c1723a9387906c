package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oponmeta/service-checkout/internal/domain/cart"
	"github.com/oponmeta/service-checkout/internal/domain/coupon"
	"github.com/oponmeta/service-checkout/internal/domain/money"
	"github.com/oponmeta/service-checkout/internal/domain/payment"
)

// AddItemRequest adds one unit of a course to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Region    string `json:"region"`
}

// UpdateQuantityRequest sets a line's quantity. Zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// ApplyCouponRequest applies a coupon code to the cart.
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// CheckoutRequest holds buyer metadata for checkout.
type CheckoutRequest struct {
	Email         string `json:"email" binding:"required,email"`
	PaymentMethod string `json:"payment_method"`
}

// CreateCouponRequest holds data to create a coupon.
type CreateCouponRequest struct {
	Code                 string           `json:"code" binding:"required"`
	Kind                 string           `json:"kind" binding:"required,oneof=percentage fixed"`
	Value                decimal.Decimal  `json:"value"`
	Currency             string           `json:"currency"`
	MinPurchase          *decimal.Decimal `json:"min_purchase"`
	MaxDiscount          *decimal.Decimal `json:"max_discount"`
	UsageLimit           int              `json:"usage_limit" binding:"required,min=1"`
	ValidFrom            time.Time        `json:"valid_from" binding:"required"`
	ValidUntil           time.Time        `json:"valid_until" binding:"required"`
	ApplicableProductIDs []string         `json:"applicable_product_ids"`
}

// ValidateCouponRequest previews a coupon against an amount.
type ValidateCouponRequest struct {
	Code     string          `json:"code" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" binding:"required,len=3"`
}

// UpsertCourseRequest sets a course's sellable state.
type UpsertCourseRequest struct {
	Title      string          `json:"title" binding:"required"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Currency   string          `json:"currency" binding:"required,len=3"`
}

// LineDTO is the API representation of a cart line.
type LineDTO struct {
	ProductID      string      `json:"product_id"`
	Title          string      `json:"title"`
	Quantity       int         `json:"quantity"`
	ListPrice      money.Money `json:"list_price"`
	UnitBasePrice  money.Money `json:"unit_base_price"`
	FinalUnitPrice money.Money `json:"final_unit_price"`
	Subtotal       money.Money `json:"subtotal"`
	CouponCode     string      `json:"coupon_code,omitempty"`
}

// CartDTO is the API representation of a cart.
type CartDTO struct {
	SessionID string    `json:"session_id"`
	Lines     []LineDTO `json:"lines"`
	ItemCount int       `json:"item_count"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SummaryDTO prices a cart for display before checkout.
type SummaryDTO struct {
	Cart             CartDTO     `json:"cart"`
	Subtotal         money.Money `json:"subtotal"`
	Savings          money.Money `json:"savings"`
	Total            money.Money `json:"total"`
	CouponCodes      []string    `json:"coupon_codes"`
	Gateway          string      `json:"gateway,omitempty"`
	GatewayIsDefault bool        `json:"gateway_is_default"`
}

// ApplyCouponResultDTO reports how many lines a coupon priced.
type ApplyCouponResultDTO struct {
	Cart         CartDTO `json:"cart"`
	Code         string  `json:"code"`
	MatchedLines int     `json:"matched_lines"`
}

// CouponDTO is the API representation of a coupon.
type CouponDTO struct {
	ID                   uuid.UUID        `json:"id"`
	Code                 string           `json:"code"`
	Kind                 string           `json:"kind"`
	Value                decimal.Decimal  `json:"value"`
	Currency             string           `json:"currency,omitempty"`
	MinPurchase          *decimal.Decimal `json:"min_purchase,omitempty"`
	MaxDiscount          *decimal.Decimal `json:"max_discount,omitempty"`
	UsageLimit           int              `json:"usage_limit"`
	UsedCount            int              `json:"used_count"`
	ValidFrom            time.Time        `json:"valid_from"`
	ValidUntil           time.Time        `json:"valid_until"`
	ApplicableProductIDs []string         `json:"applicable_product_ids,omitempty"`
	Active               bool             `json:"active"`
	CreatedAt            time.Time        `json:"created_at"`
}

// CouponValidationDTO is the result of previewing a coupon.
type CouponValidationDTO struct {
	Valid       bool         `json:"valid"`
	Code        string       `json:"code"`
	Discount    *money.Money `json:"discount,omitempty"`
	FinalAmount *money.Money `json:"final_amount,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// CheckoutResultDTO is the single terminal outcome of a checkout.
type CheckoutResultDTO struct {
	PaymentID     uuid.UUID   `json:"payment_id"`
	Status        string      `json:"status"`
	TransactionID string      `json:"transaction_id,omitempty"`
	Gateway       string      `json:"gateway"`
	Amount        money.Money `json:"amount"`
	FailureReason string      `json:"failure_reason,omitempty"`
}

// PaymentDTO is the API response DTO for payment data.
type PaymentDTO struct {
	ID            uuid.UUID      `json:"id"`
	SessionID     string         `json:"session_id"`
	Email         string         `json:"email"`
	Status        string         `json:"status"`
	Gateway       string         `json:"gateway"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Amount        money.Money    `json:"amount"`
	Items         []payment.Item `json:"items"`
	CouponCodes   []string       `json:"coupon_codes,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
	Version       int64          `json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func toCartDTO(c *cart.Cart) CartDTO {
	lines := make([]LineDTO, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = LineDTO{
			ProductID:      l.ProductID,
			Title:          l.Title,
			Quantity:       l.Quantity,
			ListPrice:      l.ListPrice,
			UnitBasePrice:  l.UnitBasePrice,
			FinalUnitPrice: l.FinalUnitPrice,
			Subtotal:       l.Subtotal().Rounded(),
		}
		if l.AppliedCoupon != nil {
			lines[i].CouponCode = l.AppliedCoupon.Code
		}
	}
	return CartDTO{
		SessionID: c.SessionID,
		Lines:     lines,
		ItemCount: c.ItemCount(),
		Version:   c.Version,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCouponDTO(c *coupon.Coupon) *CouponDTO {
	dto := &CouponDTO{
		ID:                   c.ID(),
		Code:                 c.Code(),
		Kind:                 string(c.Kind()),
		Value:                c.Value(),
		Currency:             c.Currency(),
		UsageLimit:           c.UsageLimit(),
		UsedCount:            c.UsedCount(),
		ValidFrom:            c.ValidFrom(),
		ValidUntil:           c.ValidUntil(),
		ApplicableProductIDs: c.ApplicableProductIDs(),
		Active:               c.Active(),
		CreatedAt:            c.CreatedAt(),
	}
	if mp := c.MinPurchase(); mp != nil {
		dto.MinPurchase = &mp.Amount
	}
	if md := c.MaxDiscount(); md != nil {
		dto.MaxDiscount = &md.Amount
	}
	return dto
}

func toPaymentDTO(p *payment.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID(),
		SessionID:     p.SessionID(),
		Email:         p.Email(),
		Status:        string(p.Status()),
		Gateway:       p.Gateway(),
		TransactionID: p.TransactionID(),
		Amount:        p.Amount(),
		Items:         p.Items(),
		CouponCodes:   p.CouponCodes(),
		FailureReason: p.FailureReason(),
		Version:       p.Version(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}
