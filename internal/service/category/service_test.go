package category

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
)

type stubRepo struct {
	cats   []domain.Facet
	brands []domain.Facet
	err    error
}

func (s *stubRepo) Categories(context.Context) ([]domain.Facet, error) {
	return s.cats, s.err
}

func (s *stubRepo) Brands(context.Context) ([]domain.Facet, error) {
	return s.brands, s.err
}

func TestFacetsNeverNil(t *testing.T) {
	f, err := New(&stubRepo{}).Facets(context.Background())
	if err != nil {
		t.Fatalf("facets: %v", err)
	}
	if f.Categories == nil || f.Brands == nil {
		t.Fatalf("expected empty slices, got %+v", f)
	}
}

func TestFacetsPassThrough(t *testing.T) {
	repo := &stubRepo{
		cats:   []domain.Facet{{Name: "Mobile", Count: 2}},
		brands: []domain.Facet{{Name: "Acme", Count: 1}},
	}
	f, err := New(repo).Facets(context.Background())
	if err != nil {
		t.Fatalf("facets: %v", err)
	}
	if len(f.Categories) != 1 || f.Brands[0].Name != "Acme" {
		t.Fatalf("unexpected facets %+v", f)
	}
}

func TestFacetsError(t *testing.T) {
	if _, err := New(&stubRepo{err: errors.New("boom")}).Facets(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
