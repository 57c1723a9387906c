package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/oponmeta/service-checkout/internal/application"
	"github.com/oponmeta/service-checkout/internal/domain/catalog"
	"github.com/oponmeta/service-checkout/internal/platform/middleware"
	"github.com/oponmeta/service-checkout/internal/platform/response"
)

// CatalogUseCases is the course maintenance the admin API exposes.
type CatalogUseCases interface {
	UpsertCourse(ctx context.Context, id string, req application.UpsertCourseRequest) (*catalog.Course, error)
	DeleteCourse(ctx context.Context, id string) error
}

// AdminHandler handles back-office requests for coupons and course prices.
type AdminHandler struct {
	coupons CouponUseCases
	catalog CatalogUseCases
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(coupons CouponUseCases, catalog CatalogUseCases) *AdminHandler {
	return &AdminHandler{coupons: coupons, catalog: catalog}
}

// RegisterRoutes registers admin routes behind the shared admin token.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, adminToken string) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAdminToken(adminToken))
	{
		admin.POST("/coupons", h.CreateCoupon)
		admin.POST("/coupons/:code/deactivate", h.DeactivateCoupon)
		admin.PUT("/courses/:id", h.UpsertCourse)
		admin.DELETE("/courses/:id", h.DeleteCourse)
	}
}

// CreateCoupon handles POST /api/v1/admin/coupons
func (h *AdminHandler) CreateCoupon(c *gin.Context) {
	var req application.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.coupons.CreateCoupon(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// DeactivateCoupon handles POST /api/v1/admin/coupons/:code/deactivate
func (h *AdminHandler) DeactivateCoupon(c *gin.Context) {
	dto, err := h.coupons.Deactivate(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// UpsertCourse handles PUT /api/v1/admin/courses/:id
func (h *AdminHandler) UpsertCourse(c *gin.Context) {
	var req application.UpsertCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	course, err := h.catalog.UpsertCourse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, course)
}

// DeleteCourse handles DELETE /api/v1/admin/courses/:id
func (h *AdminHandler) DeleteCourse(c *gin.Context) {
	if err := h.catalog.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "course deleted"})
}
