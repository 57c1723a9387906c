package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/cart"
	"github.com/oponmeta/service-checkout/internal/domain/catalog"
	"github.com/oponmeta/service-checkout/internal/domain/coupon"
	"github.com/oponmeta/service-checkout/internal/domain/pricing"
	"github.com/oponmeta/service-checkout/internal/repository/cartstore"
)

// CartService handles the cart use cases of one buyer session at a time.
type CartService struct {
	carts   cartstore.Store
	courses catalog.Repository
	coupons coupon.Lookup
	rules   []pricing.RegionRule
	policy  GatewayPolicy
	metrics *Metrics
	clock   func() time.Time
	logger  *zap.Logger
}

// NewCartService creates a new CartService. rules must already be validated.
func NewCartService(
	carts cartstore.Store,
	courses catalog.Repository,
	coupons coupon.Lookup,
	rules []pricing.RegionRule,
	policy GatewayPolicy,
	metrics *Metrics,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		carts:   carts,
		courses: courses,
		coupons: coupons,
		rules:   rules,
		policy:  policy,
		metrics: metrics,
		clock:   time.Now,
		logger:  logger,
	}
}

// GetCart returns the session's cart, empty if it has none yet.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*CartDTO, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	dto := toCartDTO(c)
	return &dto, nil
}

// AddItem adds one unit of a course, priced for region when it is new to the cart.
func (s *CartService) AddItem(ctx context.Context, sessionID string, req AddItemRequest) (*CartDTO, error) {
	course, err := s.courses.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	c, err := s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		if err := c.Add(course.Product(), req.Region, s.rules); err != nil {
			return err
		}
		// Reject the add rather than store a cart that can no longer be totalled.
		_, err := c.Total()
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item added to cart",
		zap.String("session_id", sessionID),
		zap.String("product_id", req.ProductID),
		zap.String("region", req.Region),
	)
	dto := toCartDTO(c)
	return &dto, nil
}

// UpdateQuantity sets a line's quantity; zero or less removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) (*CartDTO, error) {
	c, err := s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		c.UpdateQuantity(productID, qty)
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toCartDTO(c)
	return &dto, nil
}

// RemoveItem drops a line. Removing an absent product succeeds.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (*CartDTO, error) {
	c, err := s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		c.Remove(productID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toCartDTO(c)
	return &dto, nil
}

// ClearCart deletes the session's cart.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if err := s.carts.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.logger.Info("cart cleared", zap.String("session_id", sessionID))
	return nil
}

// ApplyCoupon prices every eligible line with the coupon. On any error the
// stored cart is left as it was.
func (s *CartService) ApplyCoupon(ctx context.Context, sessionID string, req ApplyCouponRequest) (*ApplyCouponResultDTO, error) {
	var res *coupon.Result
	c, err := s.replace(ctx, sessionID, func(c *cart.Cart) (*cart.Cart, error) {
		var err error
		res, err = coupon.ApplyToCart(ctx, req.Code, c, s.coupons, s.clock().UTC())
		if err != nil {
			return nil, err
		}
		return res.Cart, nil
	})
	if err != nil {
		s.metrics.observeCoupon(couponResult(err))
		return nil, err
	}
	s.metrics.observeCoupon("applied")

	s.logger.Info("coupon applied",
		zap.String("session_id", sessionID),
		zap.String("code", res.Coupon.Code()),
		zap.Int("matched_lines", res.Matched),
	)
	return &ApplyCouponResultDTO{
		Cart:         toCartDTO(c),
		Code:         res.Coupon.Code(),
		MatchedLines: res.Matched,
	}, nil
}

// RemoveCoupon restores every line to its region price.
func (s *CartService) RemoveCoupon(ctx context.Context, sessionID string) (*CartDTO, error) {
	c, err := s.replace(ctx, sessionID, func(c *cart.Cart) (*cart.Cart, error) {
		return coupon.Remove(c), nil
	})
	if err != nil {
		return nil, err
	}
	dto := toCartDTO(c)
	return &dto, nil
}

// Summary totals the cart and picks the gateway for its currency.
func (s *CartService) Summary(ctx context.Context, sessionID string) (*SummaryDTO, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	subtotal, err := c.BaseTotal()
	if err != nil {
		return nil, err
	}
	total, err := c.Total()
	if err != nil {
		return nil, err
	}
	savings, err := coupon.Savings(c)
	if err != nil {
		return nil, err
	}

	dto := &SummaryDTO{
		Cart:        toCartDTO(c),
		Subtotal:    subtotal,
		Savings:     savings,
		Total:       total,
		CouponCodes: coupon.AppliedCodes(c),
	}
	if !c.IsEmpty() {
		dto.Gateway, dto.GatewayIsDefault, err = s.policy.Select(total.Currency)
		if err != nil {
			return nil, err
		}
	}
	return dto, nil
}

func (s *CartService) load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return cart.New(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

// mutate applies fn to a copy of the stored cart and saves it if no other
// writer has saved in between.
func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(*cart.Cart) error) (*cart.Cart, error) {
	return s.replace(ctx, sessionID, func(c *cart.Cart) (*cart.Cart, error) {
		next := c.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}
		return next, nil
	})
}

func (s *CartService) replace(ctx context.Context, sessionID string, fn func(*cart.Cart) (*cart.Cart, error)) (*cart.Cart, error) {
	current, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	version := current.Version

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	ok, err := s.carts.SaveIfVersion(ctx, next, version)
	if err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		return nil, domain.NewConflictError("cart was modified concurrently, please retry")
	}
	return next, nil
}

func couponResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrCouponNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCouponExpiredOrInactive):
		return "rejected"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
