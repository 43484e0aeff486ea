package session

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores the single live session of each user.
type Repository interface {
	// Replace drops any existing session of userID and creates a fresh one.
	Replace(ctx context.Context, userID string) (*domain.Session, error)
	Get(ctx context.Context, userID string) (*domain.Session, error)
	Delete(ctx context.Context, userID string) error
}
