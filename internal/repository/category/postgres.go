package category

import (
	"context"
	"fmt"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// Values differing only by case are folded into one facet; the name shown is
// the smallest spelling.
const facetQuery = `
SELECT min(%[1]s), count(*)::int
FROM products
WHERE %[1]s <> ''
GROUP BY lower(%[1]s)
ORDER BY lower(%[1]s) ASC
`

func (r *postgresRepo) Categories(ctx context.Context) ([]domain.Facet, error) {
	return r.facets(ctx, "category")
}

func (r *postgresRepo) Brands(ctx context.Context) ([]domain.Facet, error) {
	return r.facets(ctx, "brand")
}

// column is one of the fixed names above, never user input.
func (r *postgresRepo) facets(ctx context.Context, column string) ([]domain.Facet, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(facetQuery, column))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Facet, error) {
		var f domain.Facet
		err := row.Scan(&f.Name, &f.Count)
		return f, err
	})
}
