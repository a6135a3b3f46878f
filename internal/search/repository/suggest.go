package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SuggestSimilarityThreshold is the minimum pg_trgm word similarity for the
// fuzzy tiers.
const SuggestSimilarityThreshold = 0.3

// suggestQuery ranks candidates into three tiers: title prefix, fuzzy title
// and fuzzy brand. The <% prefilter lets the trigram indexes narrow the scan;
// the threshold it uses is set per transaction.
const suggestQuery = `
	WITH input AS (
		SELECT lower(storefront_immutable_unaccent($1)) AS q
	),
	candidates AS (
		SELECT
			p.id,
			p.title,
			p.slug,
			p.price_cents,
			coalesce(p.primary_image_key, '') AS image_key,
			f.title_folded LIKE (
				replace(replace(replace(i.q, '\', '\\'), '%', '\%'), '_', '\_') || '%'
			) AS is_prefix,
			word_similarity(i.q, f.title_folded) AS title_sim,
			word_similarity(i.q, f.brand_folded) AS brand_sim
		FROM catalog_products p
		CROSS JOIN input i
		CROSS JOIN LATERAL (
			SELECT
				lower(storefront_immutable_unaccent(p.title)) AS title_folded,
				lower(storefront_immutable_unaccent(coalesce(p.brand, ''))) AS brand_folded
		) f
		WHERE ` + visibleProductPredicate + `
			AND (
				f.title_folded LIKE (replace(replace(replace(i.q, '\', '\\'), '%', '\%'), '_', '\_') || '%')
				OR i.q <% f.title_folded
				OR i.q <% f.brand_folded
			)
	),
	tiered AS (
		SELECT
			c.*,
			CASE
				WHEN c.is_prefix THEN 1
				WHEN c.title_sim >= $2 THEN 2
				WHEN c.brand_sim >= $2 THEN 3
				ELSE 0
			END AS tier
		FROM candidates c
	)
	SELECT
		t.id,
		t.title,
		t.slug,
		t.price_cents,
		t.image_key,
		t.tier,
		(CASE WHEN t.tier = 3 THEN t.brand_sim ELSE t.title_sim END)::real AS similarity
	FROM tiered t
	WHERE t.tier > 0
	ORDER BY t.tier ASC, similarity DESC, t.id DESC
	LIMIT $3`

// Suggest returns autocomplete candidates for a non-empty query.
func (r *Repository) Suggest(ctx context.Context, query string, limit int) ([]SuggestionHit, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin suggest: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`SELECT set_config('pg_trgm.word_similarity_threshold', $1, true)`,
		fmt.Sprintf("%g", SuggestSimilarityThreshold),
	); err != nil {
		return nil, fmt.Errorf("set similarity threshold: %w", err)
	}

	rows, err := tx.Query(ctx, suggestQuery, query, SuggestSimilarityThreshold, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest products: %w", err)
	}

	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SuggestionHit, error) {
		var h SuggestionHit
		err := row.Scan(&h.ID, &h.Title, &h.Slug, &h.PriceCents, &h.ImageKey, &h.Tier, &h.Similarity)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan suggestions: %w", err)
	}
	return hits, nil
}
