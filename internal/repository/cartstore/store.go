// Package cartstore keeps one cart per buyer session.
package cartstore

import (
	"context"

	"github.com/oponmeta/service-checkout/internal/domain/cart"
)

// Store persists session carts with optimistic versioning.
type Store interface {
	// Get returns the session's cart, or an error wrapping domain.ErrNotFound.
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
	// SaveIfVersion stores c only if the stored version still equals
	// expectedVersion (0 for a cart never saved). On success c.Version is
	// expectedVersion+1. It returns false when another writer got there first.
	SaveIfVersion(ctx context.Context, c *cart.Cart, expectedVersion int) (bool, error)
	// DeleteIfVersion removes the cart only if the stored version still
	// equals expectedVersion. A missing cart counts as deleted.
	DeleteIfVersion(ctx context.Context, sessionID string, expectedVersion int) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}
