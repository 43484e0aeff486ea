package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cartColumns = `id::text, user_id::text, total_cents, created_at, updated_at`

const itemsQuery = `
SELECT ci.product_id::text, ci.quantity, ci.price_cents,
       p.name, p.description, p.price_cents, p.category, p.brand, p.images, p.created_at, p.updated_at
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.position ASC
`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return fetchCart(ctx, r.pool, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID)
}

func (r *postgresRepo) Mutate(ctx context.Context, userID string, createIfMissing bool, fn MutateFunc) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if createIfMissing {
		if _, err := tx.Exec(ctx, `
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO NOTHING
`, userID); err != nil {
			return nil, mapErr(err)
		}
	}

	cart, err := fetchCart(ctx, tx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return nil, err
	}

	if err := fn(cart); err != nil {
		return nil, err
	}
	cart.Recalculate()

	if err := writeItems(ctx, tx, cart); err != nil {
		return nil, err
	}
	if err := tx.QueryRow(ctx, `
UPDATE carts
SET total_cents = $2, updated_at = now()
WHERE id = $1
RETURNING updated_at
`, cart.ID, cart.TotalCents).Scan(&cart.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return cart, nil
}

// writeItems replaces the stored lines of the cart, keeping slice order as position.
func writeItems(ctx context.Context, tx pgx.Tx, cart *domain.Cart) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return err
	}
	if len(cart.Items) == 0 {
		return nil
	}

	cartID, err := pgUUID(cart.ID)
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(cart.Items))
	for i, it := range cart.Items {
		productID, err := pgUUID(it.ProductID)
		if err != nil {
			return err
		}
		rows = append(rows, []any{cartID, productID, int32(i), int32(it.Quantity), it.PriceCents})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"cart_items"},
		[]string{"cart_id", "product_id", "position", "quantity", "price_cents"},
		pgx.CopyFromRows(rows),
	)
	return mapErr(err)
}

func fetchCart(ctx context.Context, q querier, cartQuery string, args ...any) (*domain.Cart, error) {
	var cart domain.Cart
	err := q.QueryRow(ctx, cartQuery, args...).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.TotalCents,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}

	rows, err := q.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var (
			item   domain.CartItem
			p      domain.Product
			images []byte
		)
		if err := rows.Scan(
			&item.ProductID,
			&item.Quantity,
			&item.PriceCents,
			&p.Name,
			&p.Description,
			&p.PriceCents,
			&p.Category,
			&p.Brand,
			&images,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		p.ID = item.ProductID
		if len(images) > 0 {
			if err := json.Unmarshal(images, &p.Images); err != nil {
				return nil, fmt.Errorf("decode images of product %s: %w", p.ID, err)
			}
		}
		item.Product = &p
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func pgUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("%w: id %q", domain.ErrInvalidInput, s)
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			// A line references a product that was deleted meanwhile.
			return domain.NotFound("Product not found")
		case "22P02":
			return domain.ErrNotFound
		}
	}
	return err
}
