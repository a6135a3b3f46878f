//go:build integration

package search_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storefront_backend/internal/adapters"
	"storefront_backend/internal/catalog"
	catalogtransport "storefront_backend/internal/catalog/transport"
	"storefront_backend/internal/search"
	"storefront_backend/internal/search/service"
	"storefront_backend/internal/search/transport"
	"storefront_backend/migrations"
	"storefront_backend/platform/config"
	"storefront_backend/platform/db"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type fixture struct {
	pool    *pgxpool.Pool
	search  *service.Service
	catalog *catalog.Module
}

func setupStorefront(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("storefront_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                      "test",
		DatabaseURL:              connStr,
		SearchQueryTimeout:       5 * time.Second,
		SearchReindexTimeout:     time.Minute,
		SearchCursorSecret:       "integration-cursor-secret",
		SearchFacetCacheTTL:      time.Minute,
		SearchFacetMaxCategories: 50,
		SearchRateLimitRPS:       100,
		SearchRateLimitBurst:     100,
	}
	require.NoError(t, db.RunMigrations(ctx, cfg, migrations.FS))

	pool, err := db.NewPool(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log := logger.New("test")
	val := validator.New()
	searchModule := search.NewModule(pool, nil, nil, nil, cfg, val, log)
	catalogModule := catalog.NewModule(pool, adapters.NewCatalogSearchIndexer(searchModule.Service()), nil, nil, val, log)

	return &fixture{pool: pool, search: searchModule.Service(), catalog: catalogModule}
}

func (f *fixture) category(t *testing.T, name string) string {
	t.Helper()
	c, err := f.catalog.Service().CreateCategory(context.Background(), catalogtransport.CreateCategoryRequest{Name: name})
	require.NoError(t, err)
	return c.ID.String()
}

func (f *fixture) product(t *testing.T, req catalogtransport.CreateProductRequest) string {
	t.Helper()
	p, err := f.catalog.Service().CreateProduct(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, p.SearchIndexed)
	require.True(t, *p.SearchIndexed, "product %q was not indexed", req.Title)
	return p.ID.String()
}

func mustUUIDs(t *testing.T, raw ...string) []uuid.UUID {
	t.Helper()
	out := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		require.NoError(t, err)
		out = append(out, id)
	}
	return out
}

func price(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func ids(items []transport.SearchResultItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestSearchIntegration(t *testing.T) {
	f := setupStorefront(t)
	ctx := context.Background()

	health, ok := f.search.Health(ctx)
	require.True(t, ok, "missing capabilities: %v", health.Missing)

	sarees := f.category(t, "Sarees")
	dupattas := f.category(t, "Dupattas")

	banarasi := f.product(t, catalogtransport.CreateProductRequest{
		Title:       "Banarasi Silk Saree",
		Brand:       strPtr("Weavers Guild"),
		Tags:        []string{"silk", "wedding"},
		Description: strPtr("Handwoven silk saree with a zari border."),
		PriceCents:  price(450000),
		IsPublished: true,
		CategoryIDs: mustUUIDs(t, sarees),
	})
	bandhani := f.product(t, catalogtransport.CreateProductRequest{
		Title:       "Bandhani Cotton Dupatta",
		Tags:        []string{"cotton"},
		PriceCents:  price(120000),
		IsPublished: true,
		CategoryIDs: mustUUIDs(t, dupattas),
	})
	hidden := f.product(t, catalogtransport.CreateProductRequest{
		Title:       "Kanjivaram Silk Saree",
		PriceCents:  price(620000),
		IsPublished: false,
		CategoryIDs: mustUUIDs(t, sarees),
	})
	future := time.Now().Add(48 * time.Hour)
	scheduled := f.product(t, catalogtransport.CreateProductRequest{
		Title:       "Tussar Silk Saree",
		PriceCents:  price(380000),
		IsPublished: true,
		PublishAt:   &future,
		CategoryIDs: mustUUIDs(t, sarees),
	})
	pastStart := time.Now().Add(-72 * time.Hour)
	pastEnd := time.Now().Add(-24 * time.Hour)
	expired := f.product(t, catalogtransport.CreateProductRequest{
		Title:       "Banaras Silk Brocade Saree",
		PriceCents:  price(990000),
		IsPublished: true,
		PublishAt:   &pastStart,
		UnpublishAt: &pastEnd,
		CategoryIDs: mustUUIDs(t, sarees),
	})

	t.Run("matches within category only", func(t *testing.T) {
		resp, err := f.search.Search(ctx, transport.SearchRequest{Query: "silk saree", Category: sarees})
		require.NoError(t, err)
		require.Equal(t, []string{banarasi}, ids(resp.Items))
		assert.Greater(t, resp.Items[0].Score, 0.0)

		resp, err = f.search.Search(ctx, transport.SearchRequest{Query: "silk saree", Category: dupattas})
		require.NoError(t, err)
		assert.Empty(t, resp.Items)
	})

	t.Run("hides unpublished, scheduled and expired products", func(t *testing.T) {
		resp, err := f.search.Search(ctx, transport.SearchRequest{Query: "silk"})
		require.NoError(t, err)
		found := ids(resp.Items)
		assert.Contains(t, found, banarasi)
		assert.NotContains(t, found, hidden)
		assert.NotContains(t, found, scheduled)
		assert.NotContains(t, found, expired)

		resp, err = f.search.Search(ctx, transport.SearchRequest{Category: sarees})
		require.NoError(t, err)
		assert.Equal(t, []string{banarasi}, ids(resp.Items))
	})

	t.Run("suggestions skip expired products", func(t *testing.T) {
		suggestions, err := f.search.Suggest(ctx, transport.SuggestRequest{Query: "bana"})
		require.NoError(t, err)
		for _, s := range suggestions {
			assert.NotEqual(t, expired, s.ID)
		}
	})

	t.Run("no match returns an empty page", func(t *testing.T) {
		resp, err := f.search.Search(ctx, transport.SearchRequest{Query: "zzzqqq"})
		require.NoError(t, err)
		assert.Empty(t, resp.Items)
		assert.Nil(t, resp.NextCursor)
	})

	t.Run("price bounds filter browse results", func(t *testing.T) {
		resp, err := f.search.Search(ctx, transport.SearchRequest{MinPrice: price(100000), MaxPrice: price(200000), Sort: "price_asc"})
		require.NoError(t, err)
		assert.Equal(t, []string{bandhani}, ids(resp.Items))
	})

	t.Run("suggestions rank prefix matches first", func(t *testing.T) {
		suggestions, err := f.search.Suggest(ctx, transport.SuggestRequest{Query: "bana"})
		require.NoError(t, err)
		require.NotEmpty(t, suggestions)
		assert.Equal(t, banarasi, suggestions[0].ID)
		require.NotNil(t, suggestions[0].Highlight)
		assert.Equal(t, transport.HighlightSpan{Start: 0, End: 4}, *suggestions[0].Highlight)
		for i, s := range suggestions {
			if s.ID == bandhani {
				assert.Greater(t, i, 0)
			}
		}
	})

	t.Run("facets count visible products", func(t *testing.T) {
		facets, err := f.search.Facets(ctx, transport.FacetsRequest{})
		require.NoError(t, err)
		counts := map[string]int64{}
		for _, c := range facets.Categories {
			counts[c.ID] = c.ProductCount
		}
		assert.Equal(t, int64(1), counts[sarees])
		assert.Equal(t, int64(1), counts[dupattas])
		assert.Equal(t, int64(120000), facets.PriceRange.Min)
		assert.Equal(t, int64(450000), facets.PriceRange.Max)
	})
}

func TestSearchPaginationIntegration(t *testing.T) {
	f := setupStorefront(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		f.product(t, catalogtransport.CreateProductRequest{
			Title:       fmt.Sprintf("Cotton Kurta %02d", i),
			PriceCents:  price(int64(1000 + (i%5)*100)),
			IsPublished: true,
		})
	}

	for _, sort := range []string{"relevance", "price_asc", "price_desc", "newest"} {
		t.Run(sort, func(t *testing.T) {
			seen := map[string]bool{}
			sizes := []int{}
			cursor := ""
			for page := 0; page < 5; page++ {
				resp, err := f.search.Search(ctx, transport.SearchRequest{Query: "kurta", Sort: sort, Limit: 10, Cursor: cursor})
				require.NoError(t, err)
				sizes = append(sizes, len(resp.Items))
				for _, item := range resp.Items {
					require.False(t, seen[item.ID], "duplicate %s across pages", item.ID)
					seen[item.ID] = true
				}
				if resp.NextCursor == nil {
					break
				}
				cursor = *resp.NextCursor
			}
			assert.Equal(t, []int{10, 10, 5}, sizes)
			assert.Len(t, seen, 25)
		})
	}

	t.Run("cursor bound to its query", func(t *testing.T) {
		resp, err := f.search.Search(ctx, transport.SearchRequest{Query: "kurta", Limit: 10})
		require.NoError(t, err)
		require.NotNil(t, resp.NextCursor)

		_, err = f.search.Search(ctx, transport.SearchRequest{Query: "cotton", Limit: 10, Cursor: *resp.NextCursor})
		require.Error(t, err)
	})
}

func TestReindexIntegration(t *testing.T) {
	f := setupStorefront(t)
	ctx := context.Background()

	f.product(t, catalogtransport.CreateProductRequest{Title: "Banarasi Silk Saree", PriceCents: price(450000), IsPublished: true})
	f.product(t, catalogtransport.CreateProductRequest{Title: "Chanderi Silk Saree", PriceCents: price(300000), IsPublished: true})

	before, err := f.search.Search(ctx, transport.SearchRequest{Query: "silk"})
	require.NoError(t, err)

	first, err := f.search.ReindexAll(ctx)
	require.NoError(t, err)
	second, err := f.search.ReindexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.UpdatedCount)
	assert.Equal(t, first.UpdatedCount, second.UpdatedCount)

	after, err := f.search.Search(ctx, transport.SearchRequest{Query: "silk"})
	require.NoError(t, err)
	assert.Equal(t, ids(before.Items), ids(after.Items))
}
