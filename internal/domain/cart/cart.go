package cart

import (
	"time"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/money"
	"github.com/oponmeta/service-checkout/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Product is a catalog course as seen by the cart.
type Product struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	BasePrice money.Money `json:"base_price"`
}

// CouponKind is how a coupon computes its discount.
type CouponKind string

const (
	CouponPercentage CouponKind = "percentage"
	CouponFixed      CouponKind = "fixed"
)

// AppliedCoupon records which coupon priced a line.
type AppliedCoupon struct {
	Code  string          `json:"code"`
	Kind  CouponKind      `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Line is one product's quantity and price within a cart.
// FinalUnitPrice never exceeds UnitBasePrice.
type Line struct {
	ProductID      string         `json:"product_id"`
	Title          string         `json:"title"`
	Quantity       int            `json:"quantity"`
	ListPrice      money.Money    `json:"list_price"`
	UnitBasePrice  money.Money    `json:"unit_base_price"`
	FinalUnitPrice money.Money    `json:"final_unit_price"`
	AppliedCoupon  *AppliedCoupon `json:"applied_coupon,omitempty"`
}

// Subtotal is FinalUnitPrice times quantity.
func (l Line) Subtotal() money.Money {
	return l.FinalUnitPrice.Times(l.Quantity)
}

// ResetPrice drops any coupon from the line.
func (l Line) ResetPrice() Line {
	l.FinalUnitPrice = l.UnitBasePrice
	l.AppliedCoupon = nil
	return l
}

// Cart holds the lines of one buyer session, in the order they were first added.
type Cart struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an empty cart for a session.
func New(sessionID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		SessionID: sessionID,
		Lines:     []Line{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FindLine returns the index of the product's line, or -1.
func (c *Cart) FindLine(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add puts one unit of p in the cart. A product already present has its
// quantity incremented; a new product gets a line priced for region.
func (c *Cart) Add(p Product, region string, rules []pricing.RegionRule) error {
	if i := c.FindLine(p.ID); i >= 0 {
		c.Lines[i].Quantity++
		c.touch()
		return nil
	}

	local, err := pricing.ResolveLocalPrice(p.BasePrice, region, rules)
	if err != nil {
		return err
	}
	c.Lines = append(c.Lines, Line{
		ProductID:      p.ID,
		Title:          p.Title,
		Quantity:       1,
		ListPrice:      p.BasePrice,
		UnitBasePrice:  local,
		FinalUnitPrice: local,
	})
	c.touch()
	return nil
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line. Unknown products are ignored.
func (c *Cart) UpdateQuantity(productID string, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	if i := c.FindLine(productID); i >= 0 {
		c.Lines[i].Quantity = qty
		c.touch()
	}
}

// Remove deletes the product's line. Removing an absent product is a no-op.
func (c *Cart) Remove(productID string) {
	i := c.FindLine(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.touch()
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = []Line{}
	c.touch()
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// Total sums FinalUnitPrice*Quantity. All lines must share a currency.
func (c *Cart) Total() (money.Money, error) {
	return c.sum(func(l Line) money.Money { return l.Subtotal() })
}

// BaseTotal sums UnitBasePrice*Quantity, i.e. the total before coupons.
func (c *Cart) BaseTotal() (money.Money, error) {
	return c.sum(func(l Line) money.Money { return l.UnitBasePrice.Times(l.Quantity) })
}

func (c *Cart) sum(f func(Line) money.Money) (money.Money, error) {
	if len(c.Lines) == 0 {
		return money.Zero(""), nil
	}
	total := money.Zero(c.Lines[0].FinalUnitPrice.Currency)
	for _, l := range c.Lines {
		if l.FinalUnitPrice.Currency != total.Currency {
			return money.Money{}, domain.NewMixedCurrencyCartError(total.Currency, l.FinalUnitPrice.Currency)
		}
		total.Amount = total.Amount.Add(f(l).Amount)
	}
	return total.Rounded(), nil
}

// Currency returns the currency shared by all lines, or "" for an empty cart.
func (c *Cart) Currency() (string, error) {
	t, err := c.Total()
	if err != nil {
		return "", err
	}
	return t.Currency, nil
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Clone returns a deep copy so a mutation can be discarded on failure.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Lines = make([]Line, len(c.Lines))
	for i, l := range c.Lines {
		if l.AppliedCoupon != nil {
			ac := *l.AppliedCoupon
			l.AppliedCoupon = &ac
		}
		cp.Lines[i] = l
	}
	return &cp
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
