// Package repository holds the SQL behind product search: the ranked and
// browse planners, suggestions, facet aggregates and searchable document
// maintenance. Everything reads the catalog tables; only search_document is
// ever written.
package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrProductNotFound is returned when a document refresh targets a
	// product id that does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrReindexRunning is returned when another session holds the reindex lock.
	ErrReindexRunning = errors.New("reindex already running")
)

// Sort selects the ordering of a product search.
type Sort string

const (
	SortRelevance Sort = "relevance"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortNewest    Sort = "newest"
)

// ParseSort maps user input to a Sort, falling back to relevance.
func ParseSort(raw string) Sort {
	switch Sort(raw) {
	case SortPriceAsc, SortPriceDesc, SortNewest, SortRelevance:
		return Sort(raw)
	default:
		return SortRelevance
	}
}

// visibleProductPredicate restricts every read to products a shopper may
// see right now. Every storefront query embeds it.
const visibleProductPredicate = `p.is_published
		AND (p.publish_at IS NULL OR p.publish_at <= now())
		AND (p.unpublish_at IS NULL OR p.unpublish_at > now())`

// searchDocumentExpr derives the weighted searchable document from a
// product row aliased as p.
const searchDocumentExpr = `
		setweight(to_tsvector('simple', storefront_immutable_unaccent(coalesce(p.title, ''))), 'A') ||
		setweight(to_tsvector('simple', storefront_immutable_unaccent(
			concat_ws(' ', coalesce(p.brand, ''), array_to_string(coalesce(p.tags, '{}'::text[]), ' '))
		)), 'B') ||
		setweight(to_tsvector('simple', storefront_immutable_unaccent(
			concat_ws(' ', coalesce(p.description, ''), coalesce(p.primary_sku, ''))
		)), 'C')`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// After is the continuation point of a paginated search.
type After struct {
	ID      uuid.UUID
	Score   float32
	Price   int64
	Created time.Time
}

// SearchParams describes one planner read. An empty TSQuery selects browse
// mode: no text predicate and a zero score.
type SearchParams struct {
	TSQuery    string
	CategoryID *uuid.UUID
	MinPrice   *int64
	MaxPrice   *int64
	Sort       Sort
	After      *After
	Limit      int
}

// ProductHit is one ranked row.
type ProductHit struct {
	ID         uuid.UUID
	Title      string
	Slug       string
	Brand      string
	Tags       []string
	SKU        string
	PriceCents int64
	ImageKey   string
	Excerpt    string
	Score      float32
	CreatedAt  time.Time
}

// SuggestionHit is one autocomplete candidate.
type SuggestionHit struct {
	ID         uuid.UUID
	Title      string
	Slug       string
	PriceCents int64
	ImageKey   string
	Tier       int
	Similarity float32
}

// CategoryCount is the number of visible products in a category.
type CategoryCount struct {
	ID           uuid.UUID
	Name         string
	ProductCount int64
}

// PriceStats aggregates prices over visible products.
type PriceStats struct {
	Count int64
	Min   int64
	Max   int64
	Avg   int64
}

// ReindexResult reports a completed bulk rebuild.
type ReindexResult struct {
	UpdatedCount int64
	Duration     time.Duration
}
