package service

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"storefront_backend/internal/events"
	"storefront_backend/internal/search/repository"

	"github.com/google/uuid"
)

type testSearchConfig struct {
	timeout time.Duration
}

func (c testSearchConfig) GetSearchQueryTimeout() time.Duration {
	if c.timeout > 0 {
		return c.timeout
	}
	return time.Second
}
func (testSearchConfig) GetSearchReindexTimeout() time.Duration { return time.Minute }
func (testSearchConfig) GetSearchCursorSecret() string          { return "test-cursor-secret-0123" }
func (testSearchConfig) GetSearchFacetCacheTTL() time.Duration  { return time.Minute }
func (testSearchConfig) GetSearchFacetMaxCategories() int       { return 50 }
func (testSearchConfig) GetSearchRateLimitRPS() float64         { return 10 }
func (testSearchConfig) GetSearchRateLimitBurst() int           { return 10 }

// fakeStore keeps products in memory and applies the same ordering and
// continuation rules as the SQL planner.
type fakeStore struct {
	mu sync.Mutex

	products    []repository.ProductHit
	suggestions []repository.SuggestionHit
	categories  []repository.CategoryCount
	prices      repository.PriceStats
	missing     []string
	reindex     repository.ReindexResult

	searchErr  error
	suggestErr error
	facetErr   error
	refreshErr error
	reindexErr error
	healthErr  error

	searchCalls  []repository.SearchParams
	suggestCalls int
	suggestQuery string
	facetCalls   int
	refreshed    []uuid.UUID
}

func (f *fakeStore) Search(_ context.Context, p repository.SearchParams) ([]repository.ProductHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, p)
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	rows := make([]repository.ProductHit, 0, len(f.products))
	for _, h := range f.products {
		if p.MinPrice != nil && h.PriceCents < *p.MinPrice {
			continue
		}
		if p.MaxPrice != nil && h.PriceCents > *p.MaxPrice {
			continue
		}
		rows = append(rows, h)
	}

	sort.SliceStable(rows, func(i, j int) bool { return before(p.Sort, rows[i], rows[j]) })

	if p.After != nil {
		anchor := repository.ProductHit{
			ID:         p.After.ID,
			Score:      p.After.Score,
			PriceCents: p.After.Price,
			CreatedAt:  p.After.Created,
		}
		kept := rows[:0]
		for _, h := range rows {
			if before(p.Sort, anchor, h) {
				kept = append(kept, h)
			}
		}
		rows = kept
	}

	if len(rows) > p.Limit {
		rows = rows[:p.Limit]
	}
	return append([]repository.ProductHit(nil), rows...), nil
}

// before reports whether a sorts ahead of b.
func before(s repository.Sort, a, b repository.ProductHit) bool {
	idDesc := bytes.Compare(a.ID[:], b.ID[:]) > 0
	switch s {
	case repository.SortPriceAsc:
		if a.PriceCents != b.PriceCents {
			return a.PriceCents < b.PriceCents
		}
	case repository.SortPriceDesc:
		if a.PriceCents != b.PriceCents {
			return a.PriceCents > b.PriceCents
		}
	case repository.SortNewest:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	default:
		if a.Score != b.Score {
			return a.Score > b.Score
		}
	}
	return idDesc
}

func (f *fakeStore) Suggest(_ context.Context, query string, limit int) ([]repository.SuggestionHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestCalls++
	f.suggestQuery = query
	if f.suggestErr != nil {
		return nil, f.suggestErr
	}
	if len(f.suggestions) > limit {
		return f.suggestions[:limit], nil
	}
	return f.suggestions, nil
}

func (f *fakeStore) CategoryFacets(_ context.Context, _ int) ([]repository.CategoryCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facetCalls++
	if f.facetErr != nil {
		return nil, f.facetErr
	}
	return f.categories, nil
}

func (f *fakeStore) PriceStats(context.Context) (repository.PriceStats, error) {
	return f.prices, nil
}

func (f *fakeStore) RefreshDocument(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.refreshed = append(f.refreshed, id)
	return nil
}

func (f *fakeStore) ReindexAll(context.Context) (repository.ReindexResult, error) {
	if f.reindexErr != nil {
		return repository.ReindexResult{}, f.reindexErr
	}
	return f.reindex, nil
}

func (f *fakeStore) MissingCapabilities(context.Context) ([]string, error) {
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return f.missing, nil
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newTestService(store *fakeStore) *Service {
	return New(store, testSearchConfig{}, nil, nil, nil, nil)
}
