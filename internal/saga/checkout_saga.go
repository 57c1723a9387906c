package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oponmeta/service-checkout/internal/adapter"
	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/cart"
	"github.com/oponmeta/service-checkout/internal/domain/coupon"
	"github.com/oponmeta/service-checkout/internal/domain/money"
	"github.com/oponmeta/service-checkout/internal/domain/payment"
	"github.com/oponmeta/service-checkout/internal/events"
	"github.com/oponmeta/service-checkout/internal/repository/cartstore"
)

// ErrChargeDeclined is returned when the gateway refuses the charge.
var ErrChargeDeclined = errors.New("charge declined")

const maxCartClearAttempts = 3

// CheckoutInput is everything the saga needs to take payment for a cart.
type CheckoutInput struct {
	Cart          *cart.Cart
	Email         string
	Amount        money.Money
	Gateway       adapter.Gateway
	PaymentMethod string
	// Coupons are the coupons applied to the cart, already re-validated.
	Coupons []*coupon.Coupon
}

// CheckoutSagaService orchestrates checkout: record, charge, redeem coupons, settle.
type CheckoutSagaService struct {
	payments payment.PaymentRepository
	coupons  coupon.Repository
	carts    cartstore.Store
	producer events.Publisher
	topic    string
	logger   *zap.Logger
}

// NewCheckoutSagaService creates a new CheckoutSagaService.
func NewCheckoutSagaService(
	payments payment.PaymentRepository,
	coupons coupon.Repository,
	carts cartstore.Store,
	producer events.Publisher,
	topic string,
	logger *zap.Logger,
) *CheckoutSagaService {
	return &CheckoutSagaService{
		payments: payments,
		coupons:  coupons,
		carts:    carts,
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Run takes payment for the cart. The returned payment is never nil. A
// non-nil error with a failed payment means the checkout ended in a clean
// failure: nothing was charged and the cart is untouched. A non-nil error
// with a pending payment means the payment could not even be recorded.
func (s *CheckoutSagaService) Run(ctx context.Context, in CheckoutInput) (*payment.Payment, error) {
	codes := make([]string, len(in.Coupons))
	for i, c := range in.Coupons {
		codes[i] = c.Code()
	}
	p := payment.NewPayment(in.Cart, in.Email, in.Amount, in.Gateway.Name(), codes)

	var (
		txID     string
		redeemed []uuid.UUID
		reason   string
	)

	sg := NewSaga("checkout", s.logger)

	sg.AddStep(SagaStep{
		Name: "save_payment",
		Execute: func(ctx context.Context) error {
			return s.payments.Save(ctx, p)
		},
		Compensate: func(ctx context.Context) error {
			if p.Status() == payment.StatusSucceeded {
				// mark_succeeded already bumped the version but never persisted it.
				if err := p.Void(reason); err != nil {
					return err
				}
				return s.payments.Update(ctx, p)
			}
			if err := p.MarkFailed(reason); err != nil {
				return err
			}
			p.IncrementVersion()
			return s.payments.Update(ctx, p)
		},
	})

	sg.AddStep(SagaStep{
		Name: "charge_gateway",
		Execute: func(ctx context.Context) error {
			res, err := in.Gateway.Charge(ctx, adapter.ChargeRequest{
				Reference:     p.ID().String(),
				Amount:        in.Amount,
				CustomerEmail: in.Email,
				PaymentMethod: in.PaymentMethod,
				Metadata:      map[string]string{"session_id": in.Cart.SessionID},
			})
			if err != nil {
				return err
			}
			if !res.Succeeded {
				return fmt.Errorf("%w: %s", ErrChargeDeclined, res.Message)
			}
			txID = res.TransactionID
			return nil
		},
		Compensate: func(ctx context.Context) error {
			if txID == "" {
				return nil
			}
			return in.Gateway.Cancel(ctx, txID)
		},
	})

	sg.AddStep(SagaStep{
		Name: "record_coupon_usage",
		Execute: func(ctx context.Context) error {
			for _, c := range in.Coupons {
				if err := s.coupons.IncrementUsage(ctx, c.ID()); err != nil {
					return fmt.Errorf("redeem coupon %s: %w", c.Code(), err)
				}
				redeemed = append(redeemed, c.ID())
				if err := s.coupons.SaveUsage(ctx, &coupon.Usage{
					ID:        uuid.New(),
					CouponID:  c.ID(),
					SessionID: in.Cart.SessionID,
					PaymentID: p.ID(),
					UsedAt:    time.Now().UTC(),
				}); err != nil {
					return fmt.Errorf("record usage of coupon %s: %w", c.Code(), err)
				}
			}
			return nil
		},
		Compensate: func(ctx context.Context) error {
			var errs []error
			for _, id := range redeemed {
				errs = append(errs, s.coupons.ReleaseUsage(ctx, id, p.ID()))
			}
			return errors.Join(errs...)
		},
	})

	sg.AddStep(SagaStep{
		Name: "mark_succeeded",
		Execute: func(ctx context.Context) error {
			if err := p.MarkSucceeded(txID); err != nil {
				return err
			}
			p.IncrementVersion()
			return s.payments.Update(ctx, p)
		},
	})

	sg.OnFailure(func(step string, err error) {
		reason = fmt.Sprintf("%s: %v", step, err)
	})

	if err := sg.Execute(ctx); err != nil {
		s.publishFailed(ctx, p, reason)
		return p, err
	}

	// The charge stands from here on; the rest is best effort.
	if err := s.clearPurchased(ctx, in.Cart); err != nil {
		s.logger.Error("failed to clear cart after checkout",
			zap.String("session_id", in.Cart.SessionID),
			zap.String("payment_id", p.ID().String()),
			zap.Error(err),
		)
	}
	s.publishCompleted(ctx, p, in.Cart)

	return p, nil
}

// clearPurchased drops the paid cart. If the buyer saved a newer version
// while the charge was in flight, only the paid products are removed from it.
func (s *CheckoutSagaService) clearPurchased(ctx context.Context, paid *cart.Cart) error {
	deleted, err := s.carts.DeleteIfVersion(ctx, paid.SessionID, paid.Version)
	if err != nil || deleted {
		return err
	}

	for attempt := 0; attempt < maxCartClearAttempts; attempt++ {
		current, err := s.carts.Get(ctx, paid.SessionID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, l := range paid.Lines {
			current.Remove(l.ProductID)
		}

		var ok bool
		if current.IsEmpty() {
			ok, err = s.carts.DeleteIfVersion(ctx, paid.SessionID, current.Version)
		} else {
			ok, err = s.carts.SaveIfVersion(ctx, current, current.Version)
		}
		if err != nil || ok {
			return err
		}
	}
	return domain.NewConflictError("cart kept changing during checkout")
}

func (s *CheckoutSagaService) publishCompleted(ctx context.Context, p *payment.Payment, c *cart.Cart) {
	courseIDs := make([]string, len(c.Lines))
	for i, l := range c.Lines {
		courseIDs[i] = l.ProductID
	}
	event := events.CheckoutCompletedEvent{
		PaymentID:     p.ID(),
		SessionID:     p.SessionID(),
		Email:         p.Email(),
		Gateway:       p.Gateway(),
		TransactionID: p.TransactionID(),
		Amount:        p.Amount().Amount,
		Currency:      p.Amount().Currency,
		CourseIDs:     courseIDs,
		CouponCodes:   p.CouponCodes(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publish(ctx, events.CheckoutCompleted, p, event)
}

func (s *CheckoutSagaService) publishFailed(ctx context.Context, p *payment.Payment, reason string) {
	event := events.CheckoutFailedEvent{
		PaymentID:  p.ID(),
		SessionID:  p.SessionID(),
		Gateway:    p.Gateway(),
		Amount:     p.Amount().Amount,
		Currency:   p.Amount().Currency,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
	s.publish(ctx, events.CheckoutFailed, p, event)
}

func (s *CheckoutSagaService) publish(ctx context.Context, eventType string, p *payment.Payment, data any) {
	ce, err := events.NewCloudEvent(events.Source, eventType, p.SessionID(), data)
	if err != nil {
		s.logger.Error("failed to create cloud event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.producer.PublishEvent(context.WithoutCancel(ctx), s.topic, ce); err != nil {
		s.logger.Error("failed to publish checkout event",
			zap.String("type", eventType),
			zap.String("payment_id", p.ID().String()),
			zap.Error(err),
		)
	}
}
