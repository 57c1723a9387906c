package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oponmeta/service-checkout/internal/application"
	"github.com/oponmeta/service-checkout/internal/platform/middleware"
	"github.com/oponmeta/service-checkout/internal/platform/response"
)

// CheckoutUseCases is the checkout behaviour the HTTP layer needs.
type CheckoutUseCases interface {
	Checkout(ctx context.Context, sessionID string, req application.CheckoutRequest) (*application.CheckoutResultDTO, error)
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*application.PaymentDTO, error)
}

// CheckoutHandler handles HTTP requests for checkout and its payments.
type CheckoutHandler struct {
	service CheckoutUseCases
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service CheckoutUseCases) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes registers checkout and payment routes.
func (h *CheckoutHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/checkout", middleware.SessionMiddleware(), h.Checkout)
	r.GET("/payments/:id", h.GetPayment)
}

// Checkout handles POST /api/v1/checkout. A declined payment is still a 200;
// the outcome's status says what happened.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	var req application.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.Checkout(c.Request.Context(), sessionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *CheckoutHandler) GetPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	dto, err := h.service.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
