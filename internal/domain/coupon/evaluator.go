package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/cart"
	"github.com/oponmeta/service-checkout/internal/domain/money"
)

// Lookup finds coupons by code. Implementations match codes case-insensitively
// and return an error wrapping domain.ErrNotFound for unknown codes.
type Lookup interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}

// Result is the outcome of applying a coupon to a cart.
type Result struct {
	Cart    *cart.Cart
	Coupon  *Coupon
	Matched int
}

// Apply prices one line with the coupon, replacing any coupon already on it.
// Lines outside the coupon's product set are returned unchanged.
func Apply(c *Coupon, line cart.Line) (cart.Line, error) {
	if !c.AppliesTo(line.ProductID) {
		return line, nil
	}
	discount, err := c.Discount(line.UnitBasePrice)
	if err != nil {
		return line, err
	}
	final, err := line.UnitBasePrice.Sub(discount)
	if err != nil {
		return line, err
	}
	line.FinalUnitPrice = final.Rounded()
	line.AppliedCoupon = c.Ref()
	return line, nil
}

// ApplyToCart looks the code up, checks it against the cart total before any
// discount, and applies it to every eligible line. The input cart is never
// modified; on success the returned Result holds an updated copy.
func ApplyToCart(ctx context.Context, code string, c *cart.Cart, lookup Lookup, now time.Time) (*Result, error) {
	code = NormalizeCode(code)
	cp, err := lookup.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewCouponNotFoundError(code)
		}
		return nil, err
	}
	if cp == nil {
		return nil, domain.NewCouponNotFoundError(code)
	}

	baseTotal, err := c.BaseTotal()
	if err != nil {
		return nil, err
	}
	if !cp.IsValid(now, baseTotal) {
		return nil, domain.NewCouponExpiredOrInactiveError(code)
	}

	next := c.Clone()
	matched := 0
	for i, line := range next.Lines {
		if !cp.AppliesTo(line.ProductID) {
			continue
		}
		priced, err := Apply(cp, line.ResetPrice())
		if err != nil {
			return nil, err
		}
		next.Lines[i] = priced
		matched++
	}
	if matched > 0 {
		next.UpdatedAt = time.Now().UTC()
	}
	return &Result{Cart: next, Coupon: cp, Matched: matched}, nil
}

// Remove returns a copy of the cart with every line back at its base price.
func Remove(c *cart.Cart) *cart.Cart {
	next := c.Clone()
	for i, line := range next.Lines {
		next.Lines[i] = line.ResetPrice()
	}
	next.UpdatedAt = time.Now().UTC()
	return next
}

// AppliedCodes lists the distinct coupon codes currently pricing the cart.
func AppliedCodes(c *cart.Cart) []string {
	var codes []string
	seen := make(map[string]struct{})
	for _, l := range c.Lines {
		if l.AppliedCoupon == nil {
			continue
		}
		if _, ok := seen[l.AppliedCoupon.Code]; ok {
			continue
		}
		seen[l.AppliedCoupon.Code] = struct{}{}
		codes = append(codes, l.AppliedCoupon.Code)
	}
	return codes
}

// Savings is the difference between the cart's base total and its total.
func Savings(c *cart.Cart) (money.Money, error) {
	base, err := c.BaseTotal()
	if err != nil {
		return money.Money{}, err
	}
	total, err := c.Total()
	if err != nil {
		return money.Money{}, err
	}
	return base.Sub(total)
}
