package category

import (
	"context"

	"storefront/internal/domain"
)

// Repository reads the distinct categories and brands of the product table.
type Repository interface {
	Categories(ctx context.Context) ([]domain.Facet, error)
	Brands(ctx context.Context) ([]domain.Facet, error)
}
