package cart

import (
	"context"

	"storefront/internal/domain"
)

// MutateFunc edits a loaded cart in place. Returning an error aborts the
// transaction and nothing is written.
type MutateFunc func(c *domain.Cart) error

type Repository interface {
	// GetByUser returns the user's cart with products attached to each line.
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	// Mutate locks the user's cart, applies fn, recomputes the total and
	// writes the result back in one transaction. With createIfMissing the
	// cart is created first when the user has none; otherwise a missing cart
	// yields domain.ErrNotFound.
	Mutate(ctx context.Context, userID string, createIfMissing bool, fn MutateFunc) (*domain.Cart, error)
}
