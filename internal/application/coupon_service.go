package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/cart"
	"github.com/oponmeta/service-checkout/internal/domain/coupon"
	"github.com/oponmeta/service-checkout/internal/domain/money"
)

// CouponService handles coupon administration and previews.
type CouponService struct {
	repo   coupon.Repository
	clock  func() time.Time
	logger *zap.Logger
}

// NewCouponService creates a new CouponService.
func NewCouponService(repo coupon.Repository, logger *zap.Logger) *CouponService {
	return &CouponService{repo: repo, clock: time.Now, logger: logger}
}

// CreateCoupon creates a new active coupon (admin only).
func (s *CouponService) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*CouponDTO, error) {
	c, err := coupon.New(coupon.Params{
		Code:                 req.Code,
		Kind:                 cart.CouponKind(req.Kind),
		Value:                req.Value,
		Currency:             req.Currency,
		MinPurchase:          req.MinPurchase,
		MaxDiscount:          req.MaxDiscount,
		UsageLimit:           req.UsageLimit,
		ValidFrom:            req.ValidFrom,
		ValidUntil:           req.ValidUntil,
		ApplicableProductIDs: req.ApplicableProductIDs,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save coupon: %w", err)
	}

	s.logger.Info("coupon created", zap.String("code", c.Code()), zap.String("kind", string(c.Kind())))
	return toCouponDTO(c), nil
}

// ValidateCoupon previews the discount a coupon would give on one unit priced
// at the given amount. An unusable coupon is a valid answer, not an error.
func (s *CouponService) ValidateCoupon(ctx context.Context, req ValidateCouponRequest) (*CouponValidationDTO, error) {
	code := coupon.NormalizeCode(req.Code)
	if req.Amount.IsNegative() {
		return nil, domain.NewValidationError("amount must not be negative")
	}
	amount := money.New(req.Amount, req.Currency)

	c, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return &CouponValidationDTO{Valid: false, Code: code, Message: "coupon not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	if !c.IsValid(s.clock().UTC(), amount) {
		return &CouponValidationDTO{Valid: false, Code: code, Message: "coupon is expired, inactive, used up or below its minimum purchase"}, nil
	}

	discount, err := c.Discount(amount)
	if err != nil {
		return &CouponValidationDTO{Valid: false, Code: code, Message: err.Error()}, nil
	}
	final, err := amount.Sub(discount)
	if err != nil {
		return nil, err
	}
	final = final.Rounded()
	// The effective discount never exceeds the amount itself.
	effective, err := amount.Sub(final)
	if err != nil {
		return nil, err
	}
	effective = effective.Rounded()

	return &CouponValidationDTO{
		Valid:       true,
		Code:        c.Code(),
		Discount:    &effective,
		FinalAmount: &final,
	}, nil
}

// ListActive returns coupons usable right now.
func (s *CouponService) ListActive(ctx context.Context) ([]*CouponDTO, error) {
	coupons, err := s.repo.FindActive(ctx, s.clock().UTC())
	if err != nil {
		return nil, err
	}

	dtos := make([]*CouponDTO, len(coupons))
	for i, c := range coupons {
		dtos[i] = toCouponDTO(c)
	}
	return dtos, nil
}

// Deactivate stops a coupon from being applied. Carts already priced with it
// are rejected at checkout.
func (s *CouponService) Deactivate(ctx context.Context, code string) (*CouponDTO, error) {
	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewCouponNotFoundError(coupon.NormalizeCode(code))
		}
		return nil, err
	}

	c.Deactivate()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}

	s.logger.Info("coupon deactivated", zap.String("code", c.Code()))
	return toCouponDTO(c), nil
}
