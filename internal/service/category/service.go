package category

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

// Facets returns the catalog's categories and brands. Both lists are empty,
// never nil, when the catalog is empty.
func (s *Service) Facets(ctx context.Context) (*domain.Facets, error) {
	cats, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	brands, err := s.repo.Brands(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []domain.Facet{}
	}
	if brands == nil {
		brands = []domain.Facet{}
	}
	return &domain.Facets{Categories: cats, Brands: brands}, nil
}
