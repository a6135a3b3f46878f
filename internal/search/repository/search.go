package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const (
	headlineOptions     = `MaxWords=24, MinWords=8, ShortWord=2, StartSel=[, StopSel=]`
	browseExcerptLength = 160
)

type queryArgs struct {
	values []any
}

func (a *queryArgs) add(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

// buildSearchQuery assembles the planner SQL. The inner select applies the
// visibility predicate and filters; the outer select applies the keyset
// continuation so it can reference the computed score.
func buildSearchQuery(p SearchParams) (string, []any) {
	args := &queryArgs{}
	textMode := p.TSQuery != ""

	var inner strings.Builder
	inner.WriteString(`
		SELECT
			p.id,
			p.title,
			p.slug,
			coalesce(p.brand, '') AS brand,
			coalesce(p.tags, '{}'::text[]) AS tags,
			coalesce(p.primary_sku, '') AS sku,
			p.price_cents,
			coalesce(p.primary_image_key, '') AS image_key,
			coalesce(p.description, '') AS description,
			p.created_at,`)

	if textMode {
		tsq := args.add(p.TSQuery)
		inner.WriteString(`
			ts_rank(p.search_document, q.query)::real AS score,
			q.query AS tsq
		FROM catalog_products p
		CROSS JOIN (SELECT to_tsquery('simple', storefront_immutable_unaccent(` + tsq + `)) AS query) q
		WHERE ` + visibleProductPredicate + `
			AND p.search_document @@ q.query`)
	} else {
		inner.WriteString(`
			0::real AS score
		FROM catalog_products p
		WHERE ` + visibleProductPredicate)
	}

	if p.CategoryID != nil {
		inner.WriteString(`
			AND EXISTS (
				SELECT 1 FROM catalog_product_categories pc
				WHERE pc.product_id = p.id AND pc.category_id = ` + args.add(*p.CategoryID) + `
			)`)
	}
	if p.MinPrice != nil {
		inner.WriteString(`
			AND p.price_cents >= ` + args.add(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		inner.WriteString(`
			AND p.price_cents <= ` + args.add(*p.MaxPrice))
	}

	excerpt := fmt.Sprintf("left(ranked.description, %d)", browseExcerptLength)
	if textMode {
		excerpt = `ts_headline('simple', ranked.description, ranked.tsq, '` + headlineOptions + `')`
	}

	var sql strings.Builder
	sql.WriteString(`
		SELECT
			ranked.id,
			ranked.title,
			ranked.slug,
			ranked.brand,
			ranked.tags,
			ranked.sku,
			ranked.price_cents,
			ranked.image_key,
			` + excerpt + ` AS excerpt,
			ranked.score,
			ranked.created_at
		FROM (` + inner.String() + `
		) ranked`)

	if p.After != nil {
		sql.WriteString(`
		WHERE ` + continuationPredicate(p.Sort, p.After, args))
	}

	sql.WriteString(`
		ORDER BY ` + orderByClause(p.Sort) + `
		LIMIT ` + args.add(p.Limit))

	return sql.String(), args.values
}

// continuationPredicate selects rows strictly after the cursor position in
// the order produced by orderByClause.
func continuationPredicate(sort Sort, after *After, args *queryArgs) string {
	switch sort {
	case SortPriceAsc:
		price := args.add(after.Price)
		id := args.add(after.ID)
		return "(ranked.price_cents > " + price + " OR (ranked.price_cents = " + price + " AND ranked.id < " + id + "))"
	case SortPriceDesc:
		return "(ranked.price_cents, ranked.id) < (" + args.add(after.Price) + ", " + args.add(after.ID) + ")"
	case SortNewest:
		return "(ranked.created_at, ranked.id) < (" + args.add(after.Created) + "::timestamptz, " + args.add(after.ID) + ")"
	default:
		return "(ranked.score, ranked.id) < (" + args.add(after.Score) + "::real, " + args.add(after.ID) + ")"
	}
}

func orderByClause(sort Sort) string {
	switch sort {
	case SortPriceAsc:
		return "ranked.price_cents ASC, ranked.id DESC"
	case SortPriceDesc:
		return "ranked.price_cents DESC, ranked.id DESC"
	case SortNewest:
		return "ranked.created_at DESC, ranked.id DESC"
	default:
		return "ranked.score DESC, ranked.id DESC"
	}
}

// Search runs one ranked or browse read and returns at most p.Limit rows.
func (r *Repository) Search(ctx context.Context, p SearchParams) ([]ProductHit, error) {
	query, args := buildSearchQuery(p)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProductHit, error) {
		var h ProductHit
		err := row.Scan(
			&h.ID, &h.Title, &h.Slug, &h.Brand, &h.Tags, &h.SKU,
			&h.PriceCents, &h.ImageKey, &h.Excerpt, &h.Score, &h.CreatedAt,
		)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan search products: %w", err)
	}
	return hits, nil
}
