package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/oponmeta/service-checkout/internal/domain/catalog"
	"github.com/oponmeta/service-checkout/internal/domain/coupon"
	"github.com/oponmeta/service-checkout/internal/domain/payment"
	"github.com/oponmeta/service-checkout/internal/saga"
)

type mockCourseRepo struct{ mock.Mock }

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*catalog.Course, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*catalog.Course)
	return c, args.Error(1)
}
func (m *mockCourseRepo) Upsert(ctx context.Context, c *catalog.Course) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockCouponRepo struct{ mock.Mock }

func (m *mockCouponRepo) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	args := m.Called(ctx, code)
	c, _ := args.Get(0).(*coupon.Coupon)
	return c, args.Error(1)
}
func (m *mockCouponRepo) Save(ctx context.Context, c *coupon.Coupon) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCouponRepo) Update(ctx context.Context, c *coupon.Coupon) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCouponRepo) FindActive(ctx context.Context, now time.Time) ([]*coupon.Coupon, error) {
	args := m.Called(ctx, now)
	c, _ := args.Get(0).([]*coupon.Coupon)
	return c, args.Error(1)
}
func (m *mockCouponRepo) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockCouponRepo) SaveUsage(ctx context.Context, u *coupon.Usage) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockCouponRepo) ReleaseUsage(ctx context.Context, couponID, paymentID uuid.UUID) error {
	return m.Called(ctx, couponID, paymentID).Error(0)
}

type mockPaymentRepo struct{ mock.Mock }

func (m *mockPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}
func (m *mockPaymentRepo) Save(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockPaymentRepo) Update(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

type mockRunner struct{ mock.Mock }

// Run returns the configured payment, or builds one from the input when the
// expectation was given a func(saga.CheckoutInput) *payment.Payment.
func (m *mockRunner) Run(ctx context.Context, in saga.CheckoutInput) (*payment.Payment, error) {
	args := m.Called(ctx, in)
	if build, ok := args.Get(0).(func(saga.CheckoutInput) *payment.Payment); ok {
		return build(in), args.Error(1)
	}
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}
