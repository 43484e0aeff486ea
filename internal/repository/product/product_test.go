package product

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront/internal/db/dbtest"
	"storefront/internal/domain"
)

func TestListQueryFilters(t *testing.T) {
	lo, hi := int64(100), int64(500)
	q, args := listQuery(domain.ProductFilter{
		Search:        "50%_off",
		Category:      "Mobile",
		Brand:         "Acme",
		MinPriceCents: &lo,
		MaxPriceCents: &hi,
		Sort:          domain.SortHighToLow,
	})
	for _, want := range []string{
		"name ILIKE $1",
		"lower(category) = lower($2)",
		"lower(brand) = lower($3)",
		"price_cents >= $4",
		"price_cents <= $5",
		"ORDER BY price_cents DESC",
	} {
		if !strings.Contains(q, want) {
			t.Fatalf("expected query to contain %q, got %s", want, q)
		}
	}
	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %d", len(args))
	}
	if args[0] != `%50\%\_off%` {
		t.Fatalf("expected escaped search pattern, got %v", args[0])
	}
}

func TestListQueryDefaults(t *testing.T) {
	q, args := listQuery(domain.ProductFilter{Search: "   "})
	if strings.Contains(q, "WHERE") {
		t.Fatalf("expected no WHERE clause, got %s", q)
	}
	if !strings.HasSuffix(q, "ORDER BY created_at DESC") {
		t.Fatalf("expected newest first, got %s", q)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}

func TestPostgres_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	created, err := repo.Create(ctx, domain.Product{
		Name:        "Phone",
		Description: "A phone",
		PriceCents:  19999,
		Category:    "Mobile",
		Brand:       "Acme",
		Images:      []domain.Image{{URL: "http://img/1.jpg", PublicID: "products/1.jpg"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Phone" || got.PriceCents != 19999 || len(got.Images) != 1 || got.Images[0].PublicID != "products/1.jpg" {
		t.Fatalf("unexpected product %+v", got)
	}

	got.PriceCents = 15000
	got.Images = nil
	updated, err := repo.Update(ctx, *got)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.PriceCents != 15000 || len(updated.Images) != 0 {
		t.Fatalf("unexpected updated product %+v", updated)
	}

	if _, err := repo.GetByID(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestPostgres_ListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	for _, p := range []domain.Product{
		{Name: "Budget Phone", PriceCents: 10000, Category: "Mobile", Brand: "Acme"},
		{Name: "Flagship Phone", PriceCents: 90000, Category: "Mobile", Brand: "Zen"},
		{Name: "Laptop", PriceCents: 120000, Category: "Laptop", Brand: "Acme"},
	} {
		if _, err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := repo.List(ctx, domain.ProductFilter{Search: "phone", Sort: domain.SortLowToHigh})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Budget Phone" || list[1].Name != "Flagship Phone" {
		t.Fatalf("unexpected list %+v", list)
	}

	ceiling := int64(100000)
	list, err = repo.List(ctx, domain.ProductFilter{Brand: "acme", MaxPriceCents: &ceiling})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Budget Phone" {
		t.Fatalf("unexpected brand list %+v", list)
	}
}

func TestPostgres_UpsertByID(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	const id = "00000000-0000-0000-0000-000000000001"
	p, err := repo.Upsert(ctx, domain.Product{ID: id, Name: "Prod 1", PriceCents: 100})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if p.ID != id {
		t.Fatalf("expected id %s, got %s", id, p.ID)
	}

	p, err = repo.Upsert(ctx, domain.Product{ID: id, Name: "Prod 1 v2", PriceCents: 200})
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if p.Name != "Prod 1 v2" || p.PriceCents != 200 {
		t.Fatalf("unexpected upserted product %+v", p)
	}

	generated, err := repo.Upsert(ctx, domain.Product{Name: "No id", PriceCents: 50})
	if err != nil {
		t.Fatalf("Upsert generated: %v", err)
	}
	if generated.ID == "" || generated.ID == id {
		t.Fatalf("expected generated id, got %q", generated.ID)
	}
}

func TestPostgres_DeleteRecomputesCartTotals(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	userID := dbtest.InsertUser(t, pool, "delete@example.com")
	keep := dbtest.InsertProduct(t, pool, "Keep", 100)
	drop := dbtest.InsertProduct(t, pool, "Drop", 300)

	var cartID string
	if err := pool.QueryRow(ctx, `INSERT INTO carts (user_id, total_cents) VALUES ($1, 700) RETURNING id::text`, userID).Scan(&cartID); err != nil {
		t.Fatalf("insert cart: %v", err)
	}
	if _, err := pool.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, position, quantity, price_cents)
VALUES ($1, $2, 0, 1, 100), ($1, $3, 1, 2, 300)
`, cartID, keep, drop); err != nil {
		t.Fatalf("insert items: %v", err)
	}

	if err := repo.Delete(ctx, drop); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var total int64
	if err := pool.QueryRow(ctx, `SELECT total_cents FROM carts WHERE id = $1`, cartID).Scan(&total); err != nil {
		t.Fatalf("read total: %v", err)
	}
	if total != 100 {
		t.Fatalf("expected total 100 after delete, got %d", total)
	}

	if err := repo.Delete(ctx, drop); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPostgres_DeleteWaitsForCartLock(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	userID := dbtest.InsertUser(t, pool, "locked@example.com")
	drop := dbtest.InsertProduct(t, pool, "Drop", 300)

	var cartID string
	if err := pool.QueryRow(ctx, `INSERT INTO carts (user_id, total_cents) VALUES ($1, 300) RETURNING id::text`, userID).Scan(&cartID); err != nil {
		t.Fatalf("insert cart: %v", err)
	}
	if _, err := pool.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, position, quantity, price_cents)
VALUES ($1, $2, 0, 1, 300)
`, cartID, drop); err != nil {
		t.Fatalf("insert items: %v", err)
	}

	// Hold the cart row the way a cart mutation does.
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `SELECT id FROM carts WHERE id = $1 FOR UPDATE`, cartID); err != nil {
		t.Fatalf("lock cart: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- repo.Delete(ctx, drop) }()

	select {
	case err := <-done:
		t.Fatalf("expected delete to wait for the cart lock, returned %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("delete did not finish after the lock was released")
	}

	var total int64
	if err := pool.QueryRow(ctx, `SELECT total_cents FROM carts WHERE id = $1`, cartID).Scan(&total); err != nil {
		t.Fatalf("read total: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected total 0 after delete, got %d", total)
	}
}
