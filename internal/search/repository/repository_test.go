package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEveryStorefrontQueryIsVisibilityScoped(t *testing.T) {
	categoryID := uuid.New()
	minPrice, maxPrice := int64(100), int64(900)

	planner := make([]string, 0)
	for _, sort := range []Sort{SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest} {
		for _, tsq := range []string{"", "silk:* & saree:*"} {
			query, _ := buildSearchQuery(SearchParams{
				TSQuery:    tsq,
				CategoryID: &categoryID,
				MinPrice:   &minPrice,
				MaxPrice:   &maxPrice,
				Sort:       sort,
				After:      &After{ID: uuid.New()},
				Limit:      21,
			})
			planner = append(planner, query)
		}
	}

	queries := append(planner, suggestQuery, categoryFacetsQuery, priceStatsQuery)
	fragments := []string{
		"p.is_published",
		"(p.publish_at is null or p.publish_at <= now())",
		"(p.unpublish_at is null or p.unpublish_at > now())",
	}

	for i, query := range queries {
		lower := strings.ToLower(query)
		for _, fragment := range fragments {
			if !strings.Contains(lower, fragment) {
				t.Fatalf("query %d is missing visibility fragment %q", i, fragment)
			}
		}
	}
}

func TestTextSearchQueryUsesPrefixTSQueryAndRank(t *testing.T) {
	query, args := buildSearchQuery(SearchParams{TSQuery: "silk:*", Sort: SortRelevance, Limit: 11})
	lower := strings.ToLower(query)

	required := []string{
		"to_tsquery('simple', storefront_immutable_unaccent($1))",
		"p.search_document @@ q.query",
		"ts_rank(p.search_document, q.query)::real as score",
		"ts_headline('simple', ranked.description, ranked.tsq",
		"order by ranked.score desc, ranked.id desc",
		"limit $2",
	}
	for _, fragment := range required {
		if !strings.Contains(lower, fragment) {
			t.Fatalf("expected fragment %q in text query:\n%s", fragment, query)
		}
	}
	if len(args) != 2 || args[0] != "silk:*" || args[1] != 11 {
		t.Fatalf("unexpected args %#v", args)
	}
}

func TestBrowseQueryHasNoTextPredicate(t *testing.T) {
	query, args := buildSearchQuery(SearchParams{Sort: SortNewest, Limit: 21})
	lower := strings.ToLower(query)

	if strings.Contains(lower, "@@") || strings.Contains(lower, "to_tsquery") {
		t.Fatalf("browse query must not filter on text:\n%s", query)
	}
	if !strings.Contains(lower, "0::real as score") {
		t.Fatalf("browse query must expose a zero score")
	}
	if !strings.Contains(lower, "order by ranked.created_at desc, ranked.id desc") {
		t.Fatalf("expected newest ordering:\n%s", query)
	}
	if len(args) != 1 {
		t.Fatalf("expected only the limit arg, got %#v", args)
	}
}

func TestFiltersAreBoundAsArguments(t *testing.T) {
	categoryID := uuid.New()
	minPrice, maxPrice := int64(500), int64(1500)
	query, args := buildSearchQuery(SearchParams{
		TSQuery:    "saree:*",
		CategoryID: &categoryID,
		MinPrice:   &minPrice,
		MaxPrice:   &maxPrice,
		Sort:       SortPriceAsc,
		Limit:      5,
	})
	lower := strings.ToLower(query)

	for _, fragment := range []string{
		"pc.category_id = $2",
		"p.price_cents >= $3",
		"p.price_cents <= $4",
		"limit $5",
	} {
		if !strings.Contains(lower, fragment) {
			t.Fatalf("expected fragment %q:\n%s", fragment, query)
		}
	}
	if args[1] != categoryID || args[2] != minPrice || args[3] != maxPrice {
		t.Fatalf("unexpected filter args %#v", args)
	}
}

func TestContinuationPredicatePerSort(t *testing.T) {
	after := &After{ID: uuid.New(), Score: 0.5, Price: 1200, Created: time.Now()}

	cases := map[Sort]string{
		SortRelevance: "(ranked.score, ranked.id) < ($1::real, $2)",
		SortPriceAsc:  "(ranked.price_cents > $1 or (ranked.price_cents = $1 and ranked.id < $2))",
		SortPriceDesc: "(ranked.price_cents, ranked.id) < ($1, $2)",
		SortNewest:    "(ranked.created_at, ranked.id) < ($1::timestamptz, $2)",
	}

	for sort, want := range cases {
		args := &queryArgs{}
		got := strings.ToLower(continuationPredicate(sort, after, args))
		if got != want {
			t.Fatalf("%s: got %q want %q", sort, got, want)
		}
		if len(args.values) != 2 || args.values[1] != after.ID {
			t.Fatalf("%s: unexpected args %#v", sort, args.values)
		}
	}
}

func TestOrderByBreaksTiesByIDDescending(t *testing.T) {
	for _, sort := range []Sort{SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest} {
		if !strings.HasSuffix(orderByClause(sort), "ranked.id DESC") {
			t.Fatalf("%s: missing id tie-break in %q", sort, orderByClause(sort))
		}
	}
}

func TestParseSortFallsBackToRelevance(t *testing.T) {
	if ParseSort("price_desc") != SortPriceDesc {
		t.Fatalf("expected price_desc")
	}
	if ParseSort("rating") != SortRelevance || ParseSort("") != SortRelevance {
		t.Fatalf("unknown sort must fall back to relevance")
	}
}

func TestSuggestQueryTiers(t *testing.T) {
	lower := strings.ToLower(suggestQuery)
	for _, fragment := range []string{
		"when c.is_prefix then 1",
		"when c.title_sim >= $2 then 2",
		"when c.brand_sim >= $2 then 3",
		"order by t.tier asc, similarity desc, t.id desc",
		`replace(replace(replace(i.q, '\', '\\'), '%', '\%'), '_', '\_')`,
	} {
		if !strings.Contains(lower, fragment) {
			t.Fatalf("expected suggest fragment %q", fragment)
		}
	}
}

func TestDocumentExpressionWeights(t *testing.T) {
	for _, query := range []string{refreshDocumentQuery, reindexAllQuery} {
		lower := strings.ToLower(query)
		for _, fragment := range []string{
			"coalesce(p.title, ''))), 'a')",
			"array_to_string(coalesce(p.tags, '{}'::text[]), ' ')",
			"coalesce(p.primary_sku, '')",
			"'c')",
		} {
			if !strings.Contains(lower, fragment) {
				t.Fatalf("expected document fragment %q in:\n%s", fragment, query)
			}
		}
	}
	if !strings.Contains(strings.ToLower(refreshDocumentQuery), "where p.id = $1") {
		t.Fatalf("single refresh must target one product")
	}
	if strings.Contains(strings.ToLower(reindexAllQuery), "where") {
		t.Fatalf("bulk reindex must cover every product")
	}
}
