package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/oponmeta/service-checkout/internal/application"
	"github.com/oponmeta/service-checkout/internal/domain/catalog"
)

type mockCartService struct{ mock.Mock }

func (m *mockCartService) GetCart(ctx context.Context, sessionID string) (*application.CartDTO, error) {
	args := m.Called(ctx, sessionID)
	dto, _ := args.Get(0).(*application.CartDTO)
	return dto, args.Error(1)
}
func (m *mockCartService) AddItem(ctx context.Context, sessionID string, req application.AddItemRequest) (*application.CartDTO, error) {
	args := m.Called(ctx, sessionID, req)
	dto, _ := args.Get(0).(*application.CartDTO)
	return dto, args.Error(1)
}
func (m *mockCartService) UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) (*application.CartDTO, error) {
	args := m.Called(ctx, sessionID, productID, qty)
	dto, _ := args.Get(0).(*application.CartDTO)
	return dto, args.Error(1)
}
func (m *mockCartService) RemoveItem(ctx context.Context, sessionID, productID string) (*application.CartDTO, error) {
	args := m.Called(ctx, sessionID, productID)
	dto, _ := args.Get(0).(*application.CartDTO)
	return dto, args.Error(1)
}
func (m *mockCartService) ClearCart(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}
func (m *mockCartService) ApplyCoupon(ctx context.Context, sessionID string, req application.ApplyCouponRequest) (*application.ApplyCouponResultDTO, error) {
	args := m.Called(ctx, sessionID, req)
	dto, _ := args.Get(0).(*application.ApplyCouponResultDTO)
	return dto, args.Error(1)
}
func (m *mockCartService) RemoveCoupon(ctx context.Context, sessionID string) (*application.CartDTO, error) {
	args := m.Called(ctx, sessionID)
	dto, _ := args.Get(0).(*application.CartDTO)
	return dto, args.Error(1)
}
func (m *mockCartService) Summary(ctx context.Context, sessionID string) (*application.SummaryDTO, error) {
	args := m.Called(ctx, sessionID)
	dto, _ := args.Get(0).(*application.SummaryDTO)
	return dto, args.Error(1)
}

type mockCheckoutService struct{ mock.Mock }

func (m *mockCheckoutService) Checkout(ctx context.Context, sessionID string, req application.CheckoutRequest) (*application.CheckoutResultDTO, error) {
	args := m.Called(ctx, sessionID, req)
	dto, _ := args.Get(0).(*application.CheckoutResultDTO)
	return dto, args.Error(1)
}
func (m *mockCheckoutService) GetPayment(ctx context.Context, id uuid.UUID) (*application.PaymentDTO, error) {
	args := m.Called(ctx, id)
	dto, _ := args.Get(0).(*application.PaymentDTO)
	return dto, args.Error(1)
}

type mockCouponService struct{ mock.Mock }

func (m *mockCouponService) CreateCoupon(ctx context.Context, req application.CreateCouponRequest) (*application.CouponDTO, error) {
	args := m.Called(ctx, req)
	dto, _ := args.Get(0).(*application.CouponDTO)
	return dto, args.Error(1)
}
func (m *mockCouponService) ValidateCoupon(ctx context.Context, req application.ValidateCouponRequest) (*application.CouponValidationDTO, error) {
	args := m.Called(ctx, req)
	dto, _ := args.Get(0).(*application.CouponValidationDTO)
	return dto, args.Error(1)
}
func (m *mockCouponService) ListActive(ctx context.Context) ([]*application.CouponDTO, error) {
	args := m.Called(ctx)
	dtos, _ := args.Get(0).([]*application.CouponDTO)
	return dtos, args.Error(1)
}
func (m *mockCouponService) Deactivate(ctx context.Context, code string) (*application.CouponDTO, error) {
	args := m.Called(ctx, code)
	dto, _ := args.Get(0).(*application.CouponDTO)
	return dto, args.Error(1)
}

type mockCatalogService struct{ mock.Mock }

func (m *mockCatalogService) UpsertCourse(ctx context.Context, id string, req application.UpsertCourseRequest) (*catalog.Course, error) {
	args := m.Called(ctx, id, req)
	c, _ := args.Get(0).(*catalog.Course)
	return c, args.Error(1)
}
func (m *mockCatalogService) DeleteCourse(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
