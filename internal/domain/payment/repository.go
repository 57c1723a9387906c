package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository defines the persistence contract for Payment aggregates.
type PaymentRepository interface {
	// FindByID retrieves a payment by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// Save persists a new payment aggregate.
	Save(ctx context.Context, payment *Payment) error

	// Update persists changes with optimistic locking. The aggregate's
	// version must already have been incremented.
	Update(ctx context.Context, payment *Payment) error
}
