package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type productSeed struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Category    string
	Brand       string
	ImageURL    string
}

// Result reports what Apply wrote.
type Result struct {
	AdminID  string
	Products int
}

var demoProducts = []productSeed{
	{
		ID:          "6f1c2b8e-5d1a-4c7e-9a11-000000000001",
		Name:        "Demo Phone X",
		Description: "6.1 inch display, 128 GB storage",
		PriceCents:  49999,
		Category:    "Mobile",
		Brand:       "Acme",
		ImageURL:    "https://picsum.photos/seed/phone/600/600",
	},
	{
		ID:          "6f1c2b8e-5d1a-4c7e-9a11-000000000002",
		Name:        "Demo Laptop Pro",
		Description: "14 inch laptop with 16 GB RAM",
		PriceCents:  129900,
		Category:    "Laptop",
		Brand:       "Globex",
		ImageURL:    "https://picsum.photos/seed/laptop/600/600",
	},
	{
		ID:          "6f1c2b8e-5d1a-4c7e-9a11-000000000003",
		Name:        "Demo Headphones",
		Description: "Wireless over-ear headphones",
		PriceCents:  8950,
		Category:    "Headphone",
		Brand:       "Initech",
		ImageURL:    "https://picsum.photos/seed/headphones/600/600",
	},
}

// Apply inserts an admin account and demo products for manual testing. It is
// idempotent via ON CONFLICT. The admin is skipped when no password is set.
func Apply(ctx context.Context, pool *pgxpool.Pool, cfg config.SeedConfig) (Result, error) {
	var res Result
	if cfg.AdminPassword != "" {
		id, err := upsertAdmin(ctx, pool, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return res, fmt.Errorf("upsert admin: %w", err)
		}
		res.AdminID = id
	}

	for _, p := range demoProducts {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return res, fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
		res.Products++
	}

	return res, nil
}

func upsertAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("admin email is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	const q = `
INSERT INTO users (first_name, last_name, email, password_hash, role, is_verified)
VALUES ('Store', 'Admin', $1, $2, $3, TRUE)
ON CONFLICT ((lower(email))) DO UPDATE
SET password_hash = EXCLUDED.password_hash,
    role = EXCLUDED.role,
    is_verified = TRUE,
    updated_at = now()
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, email, string(hash), string(domain.RoleAdmin)).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	images, err := json.Marshal([]domain.Image{{URL: p.ImageURL}})
	if err != nil {
		return err
	}

	const q = `
INSERT INTO products (id, name, description, price_cents, category, brand, images)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    category = EXCLUDED.category,
    brand = EXCLUDED.brand,
    images = EXCLUDED.images,
    updated_at = now()
`
	_, err = pool.Exec(ctx, q, p.ID, p.Name, p.Description, p.PriceCents, p.Category, p.Brand, images)
	return err
}
