package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/cart"
	"github.com/oponmeta/service-checkout/internal/domain/money"
)

// Course is the local read model of a sellable catalog course.
type Course struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	BasePrice money.Money `json:"base_price"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewCourse validates and builds a course.
func NewCourse(id, title string, basePrice money.Money) (*Course, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("course id is required")
	}
	if basePrice.Currency == "" {
		return nil, domain.NewValidationError("course %s: currency is required", id)
	}
	if basePrice.Amount.IsNegative() {
		return nil, domain.NewValidationError("course %s: price must not be negative", id)
	}
	return &Course{
		ID:        id,
		Title:     strings.TrimSpace(title),
		BasePrice: basePrice.Rounded(),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Product is the view of the course the cart prices.
func (c *Course) Product() cart.Product {
	return cart.Product{ID: c.ID, Title: c.Title, BasePrice: c.BasePrice}
}

// Repository defines persistence operations for the course read model.
type Repository interface {
	// FindByID returns an error wrapping domain.ErrNotFound for unknown ids.
	FindByID(ctx context.Context, id string) (*Course, error)
	Upsert(ctx context.Context, c *Course) error
	Delete(ctx context.Context, id string) error
}
