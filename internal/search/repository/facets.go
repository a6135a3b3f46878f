package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const categoryFacetsQuery = `
	SELECT c.id, c.name, count(DISTINCT p.id) AS product_count
	FROM catalog_categories c
	JOIN catalog_product_categories pc ON pc.category_id = c.id
	JOIN catalog_products p ON p.id = pc.product_id
	WHERE ` + visibleProductPredicate + `
	GROUP BY c.id, c.name
	ORDER BY product_count DESC, c.name ASC, c.id ASC
	LIMIT $1`

const priceStatsQuery = `
	SELECT
		count(*),
		coalesce(min(p.price_cents), 0),
		coalesce(max(p.price_cents), 0),
		coalesce(round(avg(p.price_cents)), 0)::bigint
	FROM catalog_products p
	WHERE ` + visibleProductPredicate

// CategoryFacets counts distinct visible products per category, largest first.
func (r *Repository) CategoryFacets(ctx context.Context, limit int) ([]CategoryCount, error) {
	rows, err := r.pool.Query(ctx, categoryFacetsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("category facets: %w", err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (CategoryCount, error) {
		var c CategoryCount
		err := row.Scan(&c.ID, &c.Name, &c.ProductCount)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan category facets: %w", err)
	}
	return counts, nil
}

// PriceStats aggregates min, max and rounded average price of visible products.
func (r *Repository) PriceStats(ctx context.Context) (PriceStats, error) {
	var s PriceStats
	if err := r.pool.QueryRow(ctx, priceStatsQuery).Scan(&s.Count, &s.Min, &s.Max, &s.Avg); err != nil {
		return PriceStats{}, fmt.Errorf("price stats: %w", err)
	}
	return s, nil
}
