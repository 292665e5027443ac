package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Resolver looks up catalog products referenced by order lines. A product
// absent from the returned map is a dangling reference: the product was
// deleted after the order was placed. Callers must treat absence as a
// handled case: dangling lines price at zero but still count as items,
// and renderings label them explicitly instead of dropping them.
type Resolver interface {
	// Resolve returns the products for the given IDs. IDs that no longer
	// resolve are simply missing from the map; that is not an error.
	Resolve(ctx context.Context, productIDs []int) (map[int]Product, error)
}

type catalogResolver struct {
	pool *pgxpool.Pool
}

// NewResolver constructs a Resolver backed by the catalog tables.
func NewResolver(pool *pgxpool.Pool) Resolver {
	return &catalogResolver{pool: pool}
}

func (r *catalogResolver) Resolve(ctx context.Context, productIDs []int) (map[int]Product, error) {
	out := make(map[int]Product, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price, unit, category
		FROM products
		WHERE id = ANY($1)`,
		productIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Unit, &p.Category); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// lineProductIDs collects the distinct product IDs referenced by a set of
// orders, for a single batched Resolve call.
func lineProductIDs(orders []Order) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, o := range orders {
		for _, l := range o.Lines {
			if !seen[l.ProductID] {
				seen[l.ProductID] = true
				ids = append(ids, l.ProductID)
			}
		}
	}
	return ids
}
