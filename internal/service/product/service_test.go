package product

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type memRepo struct {
	products   map[string]domain.Product
	lastFilter domain.ProductFilter
	createErr  error
	deleted    []string
}

func newMemRepo() *memRepo {
	return &memRepo{products: map[string]domain.Product{}}
}

func (m *memRepo) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	p.ID = uuid.NewString()
	m.products[p.ID] = p
	return &p, nil
}

func (m *memRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	m.products[p.ID] = p
	return &p, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memRepo) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	m.lastFilter = f
	return nil, nil
}

func (m *memRepo) Update(_ context.Context, p domain.Product) (*domain.Product, error) {
	if _, ok := m.products[p.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	m.products[p.ID] = p
	return &p, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.products, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type stubImages struct {
	failOn  string
	put     []string
	deleted []string
}

func (s *stubImages) Put(_ context.Context, folder string, up domain.Upload) (domain.Image, error) {
	if up.Filename == s.failOn {
		return domain.Image{}, domain.Invalid("Only image files are allowed")
	}
	key := folder + "/" + up.Filename
	s.put = append(s.put, key)
	return domain.Image{URL: "http://img/" + key, PublicID: key}, nil
}

func (s *stubImages) Delete(_ context.Context, publicID string) error {
	s.deleted = append(s.deleted, publicID)
	return nil
}

func newService() (*Service, *memRepo, *stubImages) {
	repo := newMemRepo()
	images := &stubImages{}
	return New(repo, images, zap.NewNop()), repo, images
}

func validInput() Input {
	return Input{Name: "Phone", Description: "A phone", Price: "199.99", Category: "Mobile", Brand: "Acme"}
}

func uploads(names ...string) []domain.Upload {
	out := make([]domain.Upload, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Upload{Filename: n, ContentType: "image/png", Body: strings.NewReader("x")})
	}
	return out
}

func TestCreateStoresPriceAndImages(t *testing.T) {
	svc, _, images := newService()
	p, err := svc.Create(context.Background(), validInput(), uploads("a.png", "b.png"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.PriceCents != 19999 {
		t.Fatalf("expected 19999 cents, got %d", p.PriceCents)
	}
	if len(p.Images) != 2 || p.Images[0].PublicID != "products/a.png" {
		t.Fatalf("unexpected images: %+v", p.Images)
	}
	if len(images.put) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(images.put))
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newService()
	in := validInput()
	in.Brand = ""
	if _, err := svc.Create(context.Background(), in, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	in = validInput()
	in.Price = "-1"
	if _, err := svc.Create(context.Background(), in, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid price, got %v", err)
	}

	if _, err := svc.Create(context.Background(), validInput(), uploads("1", "2", "3", "4", "5", "6")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected too many images, got %v", err)
	}
}

func TestCreateSanitisesText(t *testing.T) {
	svc, _, _ := newService()
	in := validInput()
	in.Description = `<script>alert(1)</script>Nice <b>phone</b>`
	p, err := svc.Create(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Description != "Nice phone" {
		t.Fatalf("expected sanitised description, got %q", p.Description)
	}
}

func TestCreateCleansUpOnUploadFailure(t *testing.T) {
	svc, repo, images := newService()
	images.failOn = "b.txt"
	if _, err := svc.Create(context.Background(), validInput(), uploads("a.png", "b.txt")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if len(images.deleted) != 1 || images.deleted[0] != "products/a.png" {
		t.Fatalf("expected first image removed, got %v", images.deleted)
	}
	if len(repo.products) != 0 {
		t.Fatalf("expected no product stored")
	}
}

func TestCreateCleansUpOnRepoFailure(t *testing.T) {
	svc, repo, images := newService()
	repo.createErr = errors.New("db down")
	if _, err := svc.Create(context.Background(), validInput(), uploads("a.png")); err == nil {
		t.Fatalf("expected error")
	}
	if len(images.deleted) != 1 {
		t.Fatalf("expected uploaded image removed, got %v", images.deleted)
	}
}

func TestListBuildsFilter(t *testing.T) {
	svc, repo, _ := newService()
	out, err := svc.List(context.Background(), ListQuery{
		Search: " pho ", Category: "All", Brand: "Acme", MinPrice: "10", MaxPrice: "99.5", Sort: "highToLow",
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	f := repo.lastFilter
	if f.Search != "pho" || f.Category != "" || f.Brand != "Acme" || f.Sort != domain.SortHighToLow {
		t.Fatalf("unexpected filter: %+v", f)
	}
	if f.MinPriceCents == nil || *f.MinPriceCents != 1000 || f.MaxPriceCents == nil || *f.MaxPriceCents != 9950 {
		t.Fatalf("unexpected bounds: %+v", f)
	}
}

func TestListRejectsBadParams(t *testing.T) {
	svc, _, _ := newService()
	if _, err := svc.List(context.Background(), ListQuery{MinPrice: "abc"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid minPrice, got %v", err)
	}
	if _, err := svc.List(context.Background(), ListQuery{Sort: "random"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid sort, got %v", err)
	}
}

func TestGetMalformedID(t *testing.T) {
	svc, _, _ := newService()
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateReplacesImages(t *testing.T) {
	svc, repo, images := newService()
	ctx := context.Background()
	p, err := svc.Create(ctx, validInput(), uploads("old.png"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Update(ctx, p.ID, Input{Price: "5"}, uploads("new.png"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Phone" || got.PriceCents != 500 {
		t.Fatalf("expected patched price and kept name, got %+v", got)
	}
	if len(got.Images) != 1 || got.Images[0].PublicID != "products/new.png" {
		t.Fatalf("expected new image, got %+v", got.Images)
	}
	if len(images.deleted) != 1 || images.deleted[0] != "products/old.png" {
		t.Fatalf("expected old image deleted, got %v", images.deleted)
	}
	if repo.products[p.ID].PriceCents != 500 {
		t.Fatalf("expected stored update")
	}
}

func TestUpdateWithoutUploadsKeepsImages(t *testing.T) {
	svc, _, images := newService()
	ctx := context.Background()
	p, _ := svc.Create(ctx, validInput(), uploads("old.png"))
	got, err := svc.Update(ctx, p.ID, Input{Name: "Phone 2"}, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(got.Images) != 1 || len(images.deleted) != 0 {
		t.Fatalf("expected images kept, got %+v deleted=%v", got.Images, images.deleted)
	}
}

func TestDeleteRemovesImages(t *testing.T) {
	svc, repo, images := newService()
	ctx := context.Background()
	p, _ := svc.Create(ctx, validInput(), uploads("a.png", "b.png"))
	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.deleted) != 1 || len(images.deleted) != 2 {
		t.Fatalf("expected row and images removed, got %v %v", repo.deleted, images.deleted)
	}
	if err := svc.Delete(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListAllIsCaseInsensitive(t *testing.T) {
	svc, repo, _ := newService()
	if _, err := svc.List(context.Background(), ListQuery{Category: "all", Brand: "ALL"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilter.Category != "" || repo.lastFilter.Brand != "" {
		t.Fatalf("expected no category or brand filter, got %+v", repo.lastFilter)
	}
}
