package coupon

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/cart"
	"github.com/oponmeta/service-checkout/internal/domain/money"
	"github.com/shopspring/decimal"
)

// MaxCodeLength is the longest code the coupon store accepts.
const MaxCodeLength = 50

// maxAmount is the largest value a numeric(14,2) column holds.
var maxAmount = decimal.RequireFromString("999999999999.99")

// Params holds the fields an administrator supplies when creating a coupon.
type Params struct {
	Code                 string
	Kind                 cart.CouponKind
	Value                decimal.Decimal
	Currency             string
	MinPurchase          *decimal.Decimal
	MaxDiscount          *decimal.Decimal
	UsageLimit           int
	ValidFrom            time.Time
	ValidUntil           time.Time
	ApplicableProductIDs []string
}

// Coupon is the aggregate root for discount codes.
type Coupon struct {
	id                   uuid.UUID
	code                 string
	kind                 cart.CouponKind
	value                decimal.Decimal
	currency             string
	minPurchase          *money.Money
	maxDiscount          *money.Money
	usageLimit           int
	usedCount            int
	validFrom            time.Time
	validUntil           time.Time
	applicableProductIDs []string
	active               bool
	createdAt            time.Time
	updatedAt            time.Time
}

// New creates an active coupon with no uses.
func New(p Params) (*Coupon, error) {
	code := NormalizeCode(p.Code)
	if code == "" {
		return nil, domain.NewValidationError("coupon code is required")
	}
	if len(code) > MaxCodeLength {
		return nil, domain.NewValidationError("coupon code must be at most %d characters", MaxCodeLength)
	}
	if err := checkAmount("value", &p.Value); err != nil {
		return nil, err
	}
	if err := checkAmount("min_purchase", p.MinPurchase); err != nil {
		return nil, err
	}
	if err := checkAmount("max_discount", p.MaxDiscount); err != nil {
		return nil, err
	}
	currency := money.NormalizeCurrency(p.Currency)
	switch p.Kind {
	case cart.CouponPercentage:
		if !p.Value.IsPositive() || p.Value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, domain.NewValidationError("percentage must be in (0, 100]")
		}
	case cart.CouponFixed:
		if !p.Value.IsPositive() {
			return nil, domain.NewValidationError("fixed discount must be positive")
		}
		if currency == "" {
			return nil, domain.NewValidationError("fixed coupons need a currency")
		}
	default:
		return nil, domain.NewValidationError("invalid coupon kind %q", p.Kind)
	}
	if (p.MinPurchase != nil || p.MaxDiscount != nil) && currency == "" {
		return nil, domain.NewValidationError("min_purchase and max_discount need a currency")
	}
	if p.MinPurchase != nil && p.MinPurchase.IsNegative() {
		return nil, domain.NewValidationError("min_purchase must not be negative")
	}
	if p.MaxDiscount != nil && !p.MaxDiscount.IsPositive() {
		return nil, domain.NewValidationError("max_discount must be positive")
	}
	if p.UsageLimit < 1 {
		return nil, domain.NewValidationError("usage_limit must be at least 1")
	}
	if !p.ValidUntil.After(p.ValidFrom) {
		return nil, domain.NewValidationError("valid_until must be after valid_from")
	}

	now := time.Now().UTC()
	return &Coupon{
		id:                   uuid.New(),
		code:                 code,
		kind:                 p.Kind,
		value:                p.Value,
		currency:             currency,
		minPurchase:          optionalMoney(p.MinPurchase, currency),
		maxDiscount:          optionalMoney(p.MaxDiscount, currency),
		usageLimit:           p.UsageLimit,
		validFrom:            p.ValidFrom.UTC(),
		validUntil:           p.ValidUntil.UTC(),
		applicableProductIDs: normalizeProductIDs(p.ApplicableProductIDs),
		active:               true,
		createdAt:            now,
		updatedAt:            now,
	}, nil
}

// Reconstruct rebuilds a Coupon from persistence.
func Reconstruct(
	id uuid.UUID,
	code string,
	kind cart.CouponKind,
	value decimal.Decimal,
	currency string,
	minPurchase, maxDiscount *decimal.Decimal,
	usageLimit, usedCount int,
	validFrom, validUntil time.Time,
	applicableProductIDs []string,
	active bool,
	createdAt, updatedAt time.Time,
) *Coupon {
	return &Coupon{
		id: id, code: code, kind: kind, value: value, currency: currency,
		minPurchase: optionalMoney(minPurchase, currency), maxDiscount: optionalMoney(maxDiscount, currency),
		usageLimit: usageLimit, usedCount: usedCount,
		validFrom: validFrom, validUntil: validUntil,
		applicableProductIDs: normalizeProductIDs(applicableProductIDs),
		active:               active,
		createdAt:            createdAt, updatedAt: updatedAt,
	}
}

// checkAmount rejects amounts that would not survive storage unchanged.
func checkAmount(field string, d *decimal.Decimal) error {
	if d == nil {
		return nil
	}
	if !d.Equal(d.Round(2)) {
		return domain.NewValidationError("%s must have at most 2 decimal places", field)
	}
	if d.Abs().GreaterThan(maxAmount) {
		return domain.NewValidationError("%s is too large", field)
	}
	return nil
}

// NormalizeCode makes codes comparable case-insensitively.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCurrentlyValid checks activity, the validity window and remaining uses.
func (c *Coupon) IsCurrentlyValid(now time.Time) bool {
	return c.active &&
		!now.Before(c.validFrom) &&
		now.Before(c.validUntil) &&
		c.usedCount < c.usageLimit
}

// IsValid reports whether the coupon can be used now on a cart totalling cartTotal.
func (c *Coupon) IsValid(now time.Time, cartTotal money.Money) bool {
	if !c.IsCurrentlyValid(now) {
		return false
	}
	if c.minPurchase != nil {
		below, err := cartTotal.LessThan(*c.minPurchase)
		if err != nil || below {
			return false
		}
	}
	return true
}

// AppliesTo reports whether the coupon covers the product. An empty product
// set covers every product.
func (c *Coupon) AppliesTo(productID string) bool {
	if len(c.applicableProductIDs) == 0 {
		return true
	}
	i := sort.SearchStrings(c.applicableProductIDs, productID)
	return i < len(c.applicableProductIDs) && c.applicableProductIDs[i] == productID
}

// Discount computes the per-unit discount against base, before clamping.
func (c *Coupon) Discount(base money.Money) (money.Money, error) {
	var discount money.Money
	switch c.kind {
	case cart.CouponPercentage:
		discount = base.Mul(c.value.Div(decimal.NewFromInt(100)))
		if c.maxDiscount != nil {
			if !c.maxDiscount.SameCurrency(base) {
				return money.Money{}, domain.NewIncompatibleCurrencyError(base.Currency, c.maxDiscount.Currency)
			}
			if discount.Amount.GreaterThan(c.maxDiscount.Amount) {
				discount.Amount = c.maxDiscount.Amount
			}
		}
	case cart.CouponFixed:
		if c.currency != base.Currency {
			return money.Money{}, domain.NewIncompatibleCurrencyError(base.Currency, c.currency)
		}
		discount = money.New(c.value, c.currency)
	default:
		return money.Money{}, domain.NewValidationError("invalid coupon kind %q", c.kind)
	}
	return discount, nil
}

// IncrementUsage records one redemption.
func (c *Coupon) IncrementUsage() error {
	if c.usedCount >= c.usageLimit {
		return domain.NewConflictError("coupon usage limit reached")
	}
	c.usedCount++
	c.updatedAt = time.Now().UTC()
	return nil
}

// Deactivate stops the coupon from being applied.
func (c *Coupon) Deactivate() {
	c.active = false
	c.updatedAt = time.Now().UTC()
}

// Ref is the snapshot stored on a cart line.
func (c *Coupon) Ref() *cart.AppliedCoupon {
	return &cart.AppliedCoupon{Code: c.code, Kind: c.kind, Value: c.value}
}

// Getters.
func (c *Coupon) ID() uuid.UUID                  { return c.id }
func (c *Coupon) Code() string                   { return c.code }
func (c *Coupon) Kind() cart.CouponKind          { return c.kind }
func (c *Coupon) Value() decimal.Decimal         { return c.value }
func (c *Coupon) Currency() string               { return c.currency }
func (c *Coupon) MinPurchase() *money.Money      { return c.minPurchase }
func (c *Coupon) MaxDiscount() *money.Money      { return c.maxDiscount }
func (c *Coupon) UsageLimit() int                { return c.usageLimit }
func (c *Coupon) UsedCount() int                 { return c.usedCount }
func (c *Coupon) ValidFrom() time.Time           { return c.validFrom }
func (c *Coupon) ValidUntil() time.Time          { return c.validUntil }
func (c *Coupon) ApplicableProductIDs() []string { return append([]string(nil), c.applicableProductIDs...) }
func (c *Coupon) Active() bool                   { return c.active }
func (c *Coupon) CreatedAt() time.Time           { return c.createdAt }
func (c *Coupon) UpdatedAt() time.Time           { return c.updatedAt }

func optionalMoney(d *decimal.Decimal, currency string) *money.Money {
	if d == nil {
		return nil
	}
	m := money.New(*d, currency)
	return &m
}

func normalizeProductIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
