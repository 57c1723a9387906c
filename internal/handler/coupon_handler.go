package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/oponmeta/service-checkout/internal/application"
	"github.com/oponmeta/service-checkout/internal/platform/response"
)

// CouponUseCases is the coupon behaviour the HTTP layer needs.
type CouponUseCases interface {
	CreateCoupon(ctx context.Context, req application.CreateCouponRequest) (*application.CouponDTO, error)
	ValidateCoupon(ctx context.Context, req application.ValidateCouponRequest) (*application.CouponValidationDTO, error)
	ListActive(ctx context.Context) ([]*application.CouponDTO, error)
	Deactivate(ctx context.Context, code string) (*application.CouponDTO, error)
}

// CouponHandler handles public coupon lookups.
type CouponHandler struct {
	service CouponUseCases
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(service CouponUseCases) *CouponHandler {
	return &CouponHandler{service: service}
}

// RegisterRoutes registers coupon routes.
func (h *CouponHandler) RegisterRoutes(r *gin.RouterGroup) {
	coupons := r.Group("/coupons")
	{
		coupons.POST("/validate", h.ValidateCoupon)
		coupons.GET("/active", h.ListActive)
	}
}

// ValidateCoupon handles POST /api/v1/coupons/validate
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	var req application.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.ValidateCoupon(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// ListActive handles GET /api/v1/coupons/active
func (h *CouponHandler) ListActive(c *gin.Context) {
	dtos, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dtos)
}
