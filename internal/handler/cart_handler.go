package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/oponmeta/service-checkout/internal/application"
	"github.com/oponmeta/service-checkout/internal/platform/middleware"
	"github.com/oponmeta/service-checkout/internal/platform/response"
)

// CartUseCases is the cart behaviour the HTTP layer needs.
type CartUseCases interface {
	GetCart(ctx context.Context, sessionID string) (*application.CartDTO, error)
	AddItem(ctx context.Context, sessionID string, req application.AddItemRequest) (*application.CartDTO, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) (*application.CartDTO, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*application.CartDTO, error)
	ClearCart(ctx context.Context, sessionID string) error
	ApplyCoupon(ctx context.Context, sessionID string, req application.ApplyCouponRequest) (*application.ApplyCouponResultDTO, error)
	RemoveCoupon(ctx context.Context, sessionID string) (*application.CartDTO, error)
	Summary(ctx context.Context, sessionID string) (*application.SummaryDTO, error)
}

// CartHandler handles HTTP requests for the session cart.
type CartHandler struct {
	service CartUseCases
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service CartUseCases) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes registers all cart routes on the given router group.
func (h *CartHandler) RegisterRoutes(r *gin.RouterGroup) {
	cart := r.Group("/cart")
	cart.Use(middleware.SessionMiddleware())
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.ClearCart)
		cart.GET("/summary", h.Summary)
		cart.POST("/items", h.AddItem)
		cart.PATCH("/items/:productId", h.UpdateQuantity)
		cart.DELETE("/items/:productId", h.RemoveItem)
		cart.POST("/coupon", h.ApplyCoupon)
		cart.DELETE("/coupon", h.RemoveCoupon)
	}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	dto, err := h.service.GetCart(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	var req application.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.AddItem(c.Request.Context(), sessionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// UpdateQuantity handles PATCH /api/v1/cart/items/:productId
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	var req application.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.UpdateQuantity(c.Request.Context(), sessionID, c.Param("productId"), *req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// RemoveItem handles DELETE /api/v1/cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	dto, err := h.service.RemoveItem(c.Request.Context(), sessionID, c.Param("productId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	if err := h.service.ClearCart(c.Request.Context(), sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "cart cleared"})
}

// ApplyCoupon handles POST /api/v1/cart/coupon
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	var req application.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.ApplyCoupon(c.Request.Context(), sessionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// RemoveCoupon handles DELETE /api/v1/cart/coupon
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	dto, err := h.service.RemoveCoupon(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// Summary handles GET /api/v1/cart/summary
func (h *CartHandler) Summary(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	dto, err := h.service.Summary(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
