package cart

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"

	"github.com/google/uuid"
)

// Service manages the cart of the authenticated user. Every operation is
// keyed by the user id taken from the request context, never from input.
type Service struct {
	repo     cartRepo
	products productRepo
}

type cartRepo interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Mutate(ctx context.Context, userID string, createIfMissing bool, fn cartrepo.MutateFunc) (*domain.Cart, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

// Get returns the user's cart, or an empty cart when none exists yet.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
		}
		return nil, err
	}
	return c, nil
}

// Add puts one unit of the product in the cart, creating the cart if needed.
func (s *Service) Add(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	productID, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Product not found")
		}
		return nil, err
	}

	c, err := s.repo.Mutate(ctx, userID, true, func(c *domain.Cart) error {
		c.AddProduct(*product)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The product vanished between lookup and write.
			return nil, domain.NotFound("Product not found")
		}
		return nil, err
	}
	return c, nil
}

// UpdateQuantity applies "increase" or "decrease" to an existing line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID, change string) (*domain.Cart, error) {
	productID, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	qc, err := domain.ParseQuantityChange(strings.TrimSpace(change))
	if err != nil {
		return nil, domain.Invalid("type must be increase or decrease")
	}

	c, err := s.repo.Mutate(ctx, userID, false, func(c *domain.Cart) error {
		if err := c.ChangeQuantity(productID, qc); err != nil {
			if errors.Is(err, domain.ErrItemNotFound) {
				return domain.NotFound("Item not found")
			}
			return err
		}
		return nil
	})
	return c, cartErr(err)
}

// Remove drops the product's line. Removing an absent product succeeds and
// leaves the cart unchanged.
func (s *Service) Remove(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	productID, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Mutate(ctx, userID, false, func(c *domain.Cart) error {
		c.Remove(productID)
		return nil
	})
	return c, cartErr(err)
}

// cartErr turns a bare ErrNotFound from the repository into "Cart not found",
// keeping messages produced inside the mutation.
func cartErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.Message(err); ok {
		return err
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Cart not found")
	}
	return err
}

func parseProductID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.Invalid("productId is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", domain.Invalid("Invalid productId")
	}
	return id.String(), nil
}
