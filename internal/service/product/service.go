package product

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// MaxImages caps the number of images attached to one product.
const MaxImages = 5

const imageFolder = "products"

type productRepo interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// ImageStore keeps product pictures.
type ImageStore interface {
	Put(ctx context.Context, folder string, up domain.Upload) (domain.Image, error)
	Delete(ctx context.Context, publicID string) error
}

type Service struct {
	repo   productRepo
	images ImageStore
	logger *zap.Logger
	policy *bluemonday.Policy
}

func New(repo productrepo.Repository, images ImageStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, images: images, logger: logger, policy: bluemonday.StrictPolicy()}
}

// Input carries product fields as received from a form. Price is a decimal
// string such as "19.99".
type Input struct {
	Name        string
	Description string
	Price       string
	Category    string
	Brand       string
}

// ListQuery carries raw listing parameters.
type ListQuery struct {
	Search   string
	Category string
	Brand    string
	MinPrice string
	MaxPrice string
	Sort     string
}

func (s *Service) Create(ctx context.Context, in Input, uploads []domain.Upload) (*domain.Product, error) {
	p := domain.Product{
		Name:        s.clean(in.Name),
		Description: s.clean(in.Description),
		Category:    s.clean(in.Category),
		Brand:       s.clean(in.Brand),
	}
	if p.Name == "" || p.Description == "" || strings.TrimSpace(in.Price) == "" || p.Category == "" || p.Brand == "" {
		return nil, domain.Invalid("All fields are required")
	}
	price, err := domain.ParsePrice(in.Price)
	if err != nil {
		return nil, domain.Invalid("Invalid productPrice")
	}
	p.PriceCents = price

	images, err := s.upload(ctx, uploads)
	if err != nil {
		return nil, err
	}
	p.Images = images

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		s.discard(ctx, images)
		return nil, err
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.Product, error) {
	f := domain.ProductFilter{
		Search:   strings.TrimSpace(q.Search),
		Category: strings.TrimSpace(q.Category),
		Brand:    strings.TrimSpace(q.Brand),
	}
	if strings.EqualFold(f.Category, "all") {
		f.Category = ""
	}
	if strings.EqualFold(f.Brand, "all") {
		f.Brand = ""
	}
	var err error
	if f.MinPriceCents, err = parseBound(q.MinPrice, "minPrice"); err != nil {
		return nil, err
	}
	if f.MaxPriceCents, err = parseBound(q.MaxPrice, "maxPrice"); err != nil {
		return nil, err
	}

	switch sort := domain.ProductSort(strings.TrimSpace(q.Sort)); sort {
	case domain.SortNewest, domain.SortLowToHigh, domain.SortHighToLow:
		f.Sort = sort
	default:
		return nil, domain.Invalid("sort must be lowToHigh or highToLow")
	}

	products, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Product not found")
		}
		return nil, err
	}
	return p, nil
}

// Update patches the supplied fields. New uploads replace every existing
// image; the old objects are removed after the row is saved.
func (s *Service) Update(ctx context.Context, id string, in Input, uploads []domain.Upload) (*domain.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch(&p.Name, s.clean(in.Name))
	patch(&p.Description, s.clean(in.Description))
	patch(&p.Category, s.clean(in.Category))
	patch(&p.Brand, s.clean(in.Brand))
	if strings.TrimSpace(in.Price) != "" {
		price, err := domain.ParsePrice(in.Price)
		if err != nil {
			return nil, domain.Invalid("Invalid productPrice")
		}
		p.PriceCents = price
	}

	var stale []domain.Image
	if len(uploads) > 0 {
		images, err := s.upload(ctx, uploads)
		if err != nil {
			return nil, err
		}
		stale = p.Images
		p.Images = images
	}

	updated, err := s.repo.Update(ctx, *p)
	if err != nil {
		if len(uploads) > 0 {
			s.discard(ctx, p.Images)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Product not found")
		}
		return nil, err
	}
	s.discard(ctx, stale)
	return updated, nil
}

// Delete removes the product and the cart lines referencing it. Image
// removal is best-effort.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("Product not found")
		}
		return err
	}
	s.discard(ctx, p.Images)
	return nil
}

func (s *Service) upload(ctx context.Context, uploads []domain.Upload) ([]domain.Image, error) {
	if len(uploads) > MaxImages {
		return nil, domain.Errorf(domain.ErrInvalidInput, "You can upload up to %d images", MaxImages)
	}
	images := make([]domain.Image, 0, len(uploads))
	for _, up := range uploads {
		img, err := s.images.Put(ctx, imageFolder, up)
		if err != nil {
			s.discard(ctx, images)
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func (s *Service) discard(ctx context.Context, images []domain.Image) {
	for _, img := range images {
		if err := s.images.Delete(ctx, img.PublicID); err != nil {
			s.logger.Warn("delete product image", zap.String("public_id", img.PublicID), zap.Error(err))
		}
	}
}

func (s *Service) clean(v string) string {
	return strings.TrimSpace(s.policy.Sanitize(strings.TrimSpace(v)))
}

func parseID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", domain.NotFound("Product not found")
	}
	return id.String(), nil
}

func parseBound(raw, name string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	cents, err := domain.ParsePrice(raw)
	if err != nil {
		return nil, domain.Errorf(domain.ErrInvalidInput, "Invalid %s", name)
	}
	return &cents, nil
}

func patch(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
