package user

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// Update saves every mutable column of u.
	Update(ctx context.Context, u domain.User) (*domain.User, error)
	SetLoggedIn(ctx context.Context, id string, loggedIn bool) error
}
