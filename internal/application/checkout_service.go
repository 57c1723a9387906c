package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oponmeta/service-checkout/internal/adapter"
	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/coupon"
	"github.com/oponmeta/service-checkout/internal/domain/money"
	"github.com/oponmeta/service-checkout/internal/domain/payment"
	"github.com/oponmeta/service-checkout/internal/repository/cartstore"
	"github.com/oponmeta/service-checkout/internal/saga"
)

// CheckoutRunner runs the checkout saga.
type CheckoutRunner interface {
	Run(ctx context.Context, in saga.CheckoutInput) (*payment.Payment, error)
}

// CheckoutService hands a cart's total to the selected gateway and reports
// one terminal outcome.
type CheckoutService struct {
	carts    cartstore.Store
	coupons  coupon.Lookup
	payments payment.PaymentRepository
	gateways *adapter.Registry
	policy   GatewayPolicy
	runner   CheckoutRunner
	metrics  *Metrics
	clock    func() time.Time
	logger   *zap.Logger
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	carts cartstore.Store,
	coupons coupon.Lookup,
	payments payment.PaymentRepository,
	gateways *adapter.Registry,
	policy GatewayPolicy,
	runner CheckoutRunner,
	metrics *Metrics,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		coupons:  coupons,
		payments: payments,
		gateways: gateways,
		policy:   policy,
		runner:   runner,
		metrics:  metrics,
		clock:    time.Now,
		logger:   logger,
	}
}

// Checkout charges the session's cart. A declined or rolled back payment is
// reported as a failed outcome, not an error; errors mean nothing was attempted.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, req CheckoutRequest) (*CheckoutResultDTO, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && c.IsEmpty()) {
		return nil, domain.NewValidationError("cart is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	total, err := c.Total()
	if err != nil {
		return nil, err
	}
	baseTotal, err := c.BaseTotal()
	if err != nil {
		return nil, err
	}

	coupons, err := s.revalidateCoupons(ctx, coupon.AppliedCodes(c), baseTotal)
	if err != nil {
		return nil, err
	}

	var gw adapter.Gateway = adapter.FreeGateway{}
	if !total.IsZero() {
		name, fallback, err := s.policy.Select(total.Currency)
		if err != nil {
			return nil, err
		}
		if fallback {
			s.logger.Info("no gateway for currency, using default",
				zap.String("currency", total.Currency),
				zap.String("gateway", name),
			)
		}
		if gw, err = s.gateways.Get(name); err != nil {
			return nil, err
		}
	}

	s.logger.Info("checkout started",
		zap.String("session_id", sessionID),
		zap.String("amount", total.String()),
		zap.String("gateway", gw.Name()),
	)

	start := time.Now()
	p, err := s.runner.Run(ctx, saga.CheckoutInput{
		Cart:          c,
		Email:         req.Email,
		Amount:        total,
		Gateway:       gw,
		PaymentMethod: req.PaymentMethod,
		Coupons:       coupons,
	})
	if err != nil && (p == nil || p.Status() != payment.StatusFailed) {
		s.metrics.observeCheckout(gw.Name(), "error", time.Since(start).Seconds())
		s.logger.Error("checkout could not be attempted", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	s.metrics.observeCheckout(gw.Name(), string(p.Status()), time.Since(start).Seconds())

	if err != nil {
		s.logger.Warn("checkout failed",
			zap.String("session_id", sessionID),
			zap.String("payment_id", p.ID().String()),
			zap.Error(err),
		)
	} else {
		s.logger.Info("checkout succeeded",
			zap.String("session_id", sessionID),
			zap.String("payment_id", p.ID().String()),
			zap.String("transaction_id", p.TransactionID()),
		)
	}

	return &CheckoutResultDTO{
		PaymentID:     p.ID(),
		Status:        string(p.Status()),
		TransactionID: p.TransactionID(),
		Gateway:       p.Gateway(),
		Amount:        p.Amount(),
		FailureReason: p.FailureReason(),
	}, nil
}

// GetPayment retrieves a payment by its ID.
func (s *CheckoutService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentDTO, error) {
	p, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	dto := toPaymentDTO(p)
	return &dto, nil
}

// revalidateCoupons reloads every applied coupon; one that lapsed since it
// was applied blocks checkout until the buyer removes it.
func (s *CheckoutService) revalidateCoupons(ctx context.Context, codes []string, baseTotal money.Money) ([]*coupon.Coupon, error) {
	now := s.clock().UTC()
	out := make([]*coupon.Coupon, 0, len(codes))
	for _, code := range codes {
		c, err := s.coupons.FindByCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewCouponNotFoundError(code)
		}
		if err != nil {
			return nil, err
		}
		if !c.IsValid(now, baseTotal) {
			return nil, domain.NewCouponExpiredOrInactiveError(code)
		}
		out = append(out, c)
	}
	return out, nil
}
