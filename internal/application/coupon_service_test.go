package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/cart"
	"github.com/oponmeta/service-checkout/internal/domain/coupon"
)

func newCouponService(repo coupon.Repository) *CouponService {
	svc := NewCouponService(repo, zap.NewNop())
	svc.clock = func() time.Time { return testNow }
	return svc
}

func activeCoupon(t *testing.T, p coupon.Params) *coupon.Coupon {
	t.Helper()
	p.ValidFrom = testNow.Add(-time.Hour)
	p.ValidUntil = testNow.Add(time.Hour)
	if p.UsageLimit == 0 {
		p.UsageLimit = 10
	}
	c, err := coupon.New(p)
	require.NoError(t, err)
	return c
}

func TestCouponService_CreateCoupon(t *testing.T) {
	repo := new(mockCouponRepo)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*coupon.Coupon")).Return(nil)
	svc := newCouponService(repo)

	dto, err := svc.CreateCoupon(context.Background(), CreateCouponRequest{
		Code:       " spring25 ",
		Kind:       "percentage",
		Value:      decimal.NewFromInt(25),
		UsageLimit: 50,
		ValidFrom:  testNow,
		ValidUntil: testNow.Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "SPRING25", dto.Code)
	assert.True(t, dto.Active)
	assert.Equal(t, 0, dto.UsedCount)
	repo.AssertExpectations(t)
}

func TestCouponService_CreateCoupon_Invalid(t *testing.T) {
	repo := new(mockCouponRepo)
	svc := newCouponService(repo)

	_, err := svc.CreateCoupon(context.Background(), CreateCouponRequest{
		Code:       "BROKEN",
		Kind:       "fixed",
		Value:      decimal.NewFromInt(5),
		UsageLimit: 1,
		ValidFrom:  testNow,
		ValidUntil: testNow.Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCouponService_ValidateCoupon(t *testing.T) {
	repo := new(mockCouponRepo)
	minPurchase := decimal.NewFromInt(40)
	repo.On("FindByCode", mock.Anything, "TEN").
		Return(activeCoupon(t, coupon.Params{Code: "TEN", Kind: cart.CouponFixed, Value: decimal.NewFromInt(10), Currency: "USD", MinPurchase: &minPurchase}), nil)
	repo.On("FindByCode", mock.Anything, "BIG").
		Return(activeCoupon(t, coupon.Params{Code: "BIG", Kind: cart.CouponFixed, Value: decimal.NewFromInt(500), Currency: "USD"}), nil)
	repo.On("FindByCode", mock.Anything, "NONE").Return(nil, domain.NewNotFoundError("Coupon", "NONE"))
	svc := newCouponService(repo)
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		res, err := svc.ValidateCoupon(ctx, ValidateCouponRequest{Code: "ten", Amount: decimal.NewFromInt(50), Currency: "usd"})
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Equal(t, "10.00 USD", res.Discount.String())
		assert.Equal(t, "40.00 USD", res.FinalAmount.String())
	})

	t.Run("below minimum purchase", func(t *testing.T) {
		res, err := svc.ValidateCoupon(ctx, ValidateCouponRequest{Code: "TEN", Amount: decimal.NewFromInt(39), Currency: "USD"})
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.NotEmpty(t, res.Message)
	})

	t.Run("discount capped at amount", func(t *testing.T) {
		res, err := svc.ValidateCoupon(ctx, ValidateCouponRequest{Code: "BIG", Amount: decimal.NewFromInt(30), Currency: "USD"})
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Equal(t, "30.00 USD", res.Discount.String())
		assert.True(t, res.FinalAmount.IsZero())
	})

	t.Run("wrong currency", func(t *testing.T) {
		res, err := svc.ValidateCoupon(ctx, ValidateCouponRequest{Code: "BIG", Amount: decimal.NewFromInt(30), Currency: "EUR"})
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})

	t.Run("unknown code", func(t *testing.T) {
		res, err := svc.ValidateCoupon(ctx, ValidateCouponRequest{Code: "none", Amount: decimal.NewFromInt(30), Currency: "USD"})
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, "NONE", res.Code)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := svc.ValidateCoupon(ctx, ValidateCouponRequest{Code: "TEN", Amount: decimal.NewFromInt(-1), Currency: "USD"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestCouponService_ListActive(t *testing.T) {
	repo := new(mockCouponRepo)
	repo.On("FindActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]*coupon.Coupon{
		activeCoupon(t, coupon.Params{Code: "A", Kind: cart.CouponPercentage, Value: decimal.NewFromInt(5)}),
		activeCoupon(t, coupon.Params{Code: "B", Kind: cart.CouponPercentage, Value: decimal.NewFromInt(15)}),
	}, nil)
	svc := newCouponService(repo)

	list, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Code)
}

func TestCouponService_Deactivate(t *testing.T) {
	repo := new(mockCouponRepo)
	c := activeCoupon(t, coupon.Params{Code: "STOP", Kind: cart.CouponPercentage, Value: decimal.NewFromInt(5)})
	repo.On("FindByCode", mock.Anything, "STOP").Return(c, nil)
	repo.On("FindByCode", mock.Anything, "GONE").Return(nil, domain.NewNotFoundError("Coupon", "GONE"))
	repo.On("Update", mock.Anything, c).Return(nil)
	svc := newCouponService(repo)

	dto, err := svc.Deactivate(context.Background(), "STOP")
	require.NoError(t, err)
	assert.False(t, dto.Active)
	assert.False(t, c.IsCurrentlyValid(testNow))

	_, err = svc.Deactivate(context.Background(), "GONE")
	assert.ErrorIs(t, err, domain.ErrCouponNotFound)
}
