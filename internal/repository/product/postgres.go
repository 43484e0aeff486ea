package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const productColumns = `id::text, name, description, price_cents, category, brand, images, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	images, err := marshalImages(p.Images)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO products (name, description, price_cents, category, brand, images)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + productColumns
	created, err := scanProduct(r.pool.QueryRow(ctx, q, p.Name, p.Description, p.PriceCents, p.Category, p.Brand, images))
	if err != nil {
		r.logger.Error("product repo: create", zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: created", zap.String("id", created.ID))
	return created, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	images, err := marshalImages(p.Images)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO products (id, name, description, price_cents, category, brand, images)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    category = EXCLUDED.category,
    brand = EXCLUDED.brand,
    images = EXCLUDED.images,
    updated_at = now()
RETURNING ` + productColumns
	res, err := scanProduct(r.pool.QueryRow(ctx, q, p.ID, p.Name, p.Description, p.PriceCents, p.Category, p.Brand, images))
	if err != nil {
		r.logger.Error("product repo: upsert", zap.String("id", p.ID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: upserted", zap.String("id", res.ID))
	return res, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Error("product repo: get", zap.String("id", id), zap.Error(err))
	}
	return p, err
}

func (r *postgresRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	q, args := listQuery(f)
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(result)))
	return result, nil
}

// listQuery builds the filtered catalog query with positional arguments.
func listQuery(f domain.ProductFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		add("name ILIKE $%d", "%"+escapeLike(s)+"%")
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		add("lower(category) = lower($%d)", c)
	}
	if b := strings.TrimSpace(f.Brand); b != "" {
		add("lower(brand) = lower($%d)", b)
	}
	if f.MinPriceCents != nil {
		add("price_cents >= $%d", *f.MinPriceCents)
	}
	if f.MaxPriceCents != nil {
		add("price_cents <= $%d", *f.MaxPriceCents)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + productColumns + ` FROM products`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	switch f.Sort {
	case domain.SortLowToHigh:
		sb.WriteString(" ORDER BY price_cents ASC, created_at DESC")
	case domain.SortHighToLow:
		sb.WriteString(" ORDER BY price_cents DESC, created_at DESC")
	default:
		sb.WriteString(" ORDER BY created_at DESC")
	}
	return sb.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	images, err := marshalImages(p.Images)
	if err != nil {
		return nil, err
	}
	q := `
UPDATE products
SET name = $2,
    description = $3,
    price_cents = $4,
    category = $5,
    brand = $6,
    images = $7,
    updated_at = now()
WHERE id = $1
RETURNING ` + productColumns
	res, err := scanProduct(r.pool.QueryRow(ctx, q, p.ID, p.Name, p.Description, p.PriceCents, p.Category, p.Brand, images))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Error("product repo: update", zap.String("id", p.ID), zap.Error(err))
	}
	return res, err
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Carts holding the product are locked first; a cart mutation in flight
	// finishes before its lines are removed.
	if _, err := tx.Exec(ctx, `
SELECT id FROM carts
WHERE id IN (SELECT cart_id FROM cart_items WHERE product_id = $1)
ORDER BY id
FOR UPDATE
`, id); err != nil {
		return mapErr(err)
	}

	rows, err := tx.Query(ctx, `DELETE FROM cart_items WHERE product_id = $1 RETURNING cart_id::text`, id)
	if err != nil {
		return mapErr(err)
	}
	cartIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return mapErr(err)
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if len(cartIDs) > 0 {
		if _, err := tx.Exec(ctx, `
UPDATE carts c
SET total_cents = COALESCE((
	SELECT SUM(ci.price_cents * ci.quantity)
	FROM cart_items ci
	WHERE ci.cart_id = c.id
), 0),
    updated_at = now()
WHERE c.id::text = ANY($1)
`, cartIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Info("product repo: deleted", zap.String("id", id), zap.Int("carts_touched", len(cartIDs)))
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var images []byte
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Category, &p.Brand, &images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	p.Images = []domain.Image{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images of product %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

func marshalImages(images []domain.Image) ([]byte, error) {
	if images == nil {
		images = []domain.Image{}
	}
	return json.Marshal(images)
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return domain.ErrAlreadyExists
		case "22P02":
			// Malformed uuid in a lookup.
			return domain.ErrNotFound
		}
	}
	return err
}
