package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront_backend/internal/search/cursor"
	"storefront_backend/internal/search/repository"
	"storefront_backend/internal/search/transport"
	"storefront_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func seedProducts(n int) []repository.ProductHit {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]repository.ProductHit, n)
	for i := 0; i < n; i++ {
		out[i] = repository.ProductHit{
			ID:         uuid.New(),
			Title:      "Silk saree",
			Slug:       "silk-saree",
			PriceCents: int64(1000 + (i%4)*250),
			Score:      float32(i%5) / 10,
			CreatedAt:  base.Add(time.Duration(i/3) * time.Hour),
		}
	}
	return out
}

func TestSearchClampsLimit(t *testing.T) {
	cases := map[int]int{0: 21, -3: 2, 1: 2, 50: 51, 500: 101}

	for requested, wantFetch := range cases {
		store := &fakeStore{}
		svc := newTestService(store)
		if _, err := svc.Search(context.Background(), transport.SearchRequest{Query: "silk", Limit: requested}); err != nil {
			t.Fatalf("limit %d: unexpected error %v", requested, err)
		}
		if got := store.searchCalls[0].Limit; got != wantFetch {
			t.Fatalf("limit %d: expected store limit %d, got %d", requested, wantFetch, got)
		}
	}
}

func TestSearchPaginatesWithoutGapsOrDuplicates(t *testing.T) {
	for _, sortMode := range []string{"relevance", "price_asc", "price_desc", "newest"} {
		store := &fakeStore{products: seedProducts(25)}
		svc := newTestService(store)

		seen := make(map[string]bool)
		var pageSizes []int
		cursorToken := ""
		for page := 0; page < 5; page++ {
			resp, err := svc.Search(context.Background(), transport.SearchRequest{
				Query:  "silk",
				Sort:   sortMode,
				Limit:  10,
				Cursor: cursorToken,
			})
			if err != nil {
				t.Fatalf("%s page %d: %v", sortMode, page, err)
			}
			pageSizes = append(pageSizes, len(resp.Items))
			for _, item := range resp.Items {
				if seen[item.ID] {
					t.Fatalf("%s: duplicate item %s on page %d", sortMode, item.ID, page)
				}
				seen[item.ID] = true
			}
			if resp.NextCursor == nil {
				break
			}
			cursorToken = *resp.NextCursor
		}

		if len(pageSizes) != 3 || pageSizes[0] != 10 || pageSizes[1] != 10 || pageSizes[2] != 5 {
			t.Fatalf("%s: expected pages 10/10/5, got %v", sortMode, pageSizes)
		}
		if len(seen) != 25 {
			t.Fatalf("%s: expected 25 distinct items, got %d", sortMode, len(seen))
		}
	}
}

func TestSearchOmitsCursorOnExactFinalPage(t *testing.T) {
	svc := newTestService(&fakeStore{products: seedProducts(10)})
	resp, err := svc.Search(context.Background(), transport.SearchRequest{Query: "silk", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 10 || resp.NextCursor != nil {
		t.Fatalf("expected 10 items and no cursor, got %d items cursor=%v", len(resp.Items), resp.NextCursor)
	}
}

func TestSearchNoMatchesIsEmptyPage(t *testing.T) {
	svc := newTestService(&fakeStore{})
	resp, err := svc.Search(context.Background(), transport.SearchRequest{Query: "xyzzy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Items == nil || len(resp.Items) != 0 || resp.NextCursor != nil {
		t.Fatalf("expected empty page, got %+v", resp)
	}
}

func TestSearchRejectsCorruptedCursor(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	_, err := svc.Search(context.Background(), transport.SearchRequest{Query: "silk", Cursor: "bogus.token"})
	assertReason(t, err, apperr.KindValidation, reasonMalformed)
	if len(store.searchCalls) != 0 {
		t.Fatalf("store must not be queried for an invalid cursor")
	}
}

func TestSearchRejectsCursorFromAnotherQuery(t *testing.T) {
	store := &fakeStore{products: seedProducts(15)}
	svc := newTestService(store)

	first, err := svc.Search(context.Background(), transport.SearchRequest{Query: "silk", Limit: 5})
	if err != nil || first.NextCursor == nil {
		t.Fatalf("expected first page with cursor, err=%v", err)
	}

	variants := []transport.SearchRequest{
		{Query: "cotton", Limit: 5, Cursor: *first.NextCursor},
		{Query: "silk", Sort: "price_asc", Limit: 5, Cursor: *first.NextCursor},
		{Query: "silk", Category: uuid.NewString(), Limit: 5, Cursor: *first.NextCursor},
	}
	for _, req := range variants {
		_, err := svc.Search(context.Background(), req)
		assertReason(t, err, apperr.KindValidation, reasonQueryMismatch)
	}
}

func TestSearchCursorSurvivesQueryFormatting(t *testing.T) {
	svc := newTestService(&fakeStore{products: seedProducts(15)})

	first, err := svc.Search(context.Background(), transport.SearchRequest{Query: "Silk  Saree", Limit: 5})
	if err != nil || first.NextCursor == nil {
		t.Fatalf("expected first page with cursor, err=%v", err)
	}
	if _, err := svc.Search(context.Background(), transport.SearchRequest{Query: " silk saree ", Limit: 5, Cursor: *first.NextCursor}); err != nil {
		t.Fatalf("equivalent query should accept the cursor: %v", err)
	}
}

func TestSearchValidatesPriceBounds(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)
	low, high := int64(5000), int64(100)

	_, err := svc.Search(context.Background(), transport.SearchRequest{Query: "silk", MinPrice: &low, MaxPrice: &high})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	negative := int64(-1)
	_, err = svc.Search(context.Background(), transport.SearchRequest{Query: "silk", MinPrice: &negative})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for negative bound, got %v", err)
	}

	equal := int64(100)
	if _, err := svc.Search(context.Background(), transport.SearchRequest{Query: "silk", MinPrice: &equal, MaxPrice: &equal}); err != nil {
		t.Fatalf("equal bounds are inclusive and valid: %v", err)
	}
	if len(store.searchCalls) != 1 {
		t.Fatalf("only the valid request should reach the store, got %d calls", len(store.searchCalls))
	}
}

func TestSearchRejectsMalformedCategory(t *testing.T) {
	_, err := newTestService(&fakeStore{}).Search(context.Background(), transport.SearchRequest{Category: "shoes"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEmptyQueryBrowsesNewest(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	if _, err := svc.Search(context.Background(), transport.SearchRequest{Query: "   "}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := store.searchCalls[0]
	if p.TSQuery != "" {
		t.Fatalf("browse mode must not carry a text query, got %q", p.TSQuery)
	}
	if p.Sort != repository.SortNewest {
		t.Fatalf("relevance should fall back to newest in browse mode, got %s", p.Sort)
	}

	if _, err := svc.Search(context.Background(), transport.SearchRequest{Sort: "price_desc"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.searchCalls[1].Sort != repository.SortPriceDesc {
		t.Fatalf("explicit sorts are kept in browse mode")
	}
}

func TestQueryWithoutIndexableTermsIsEmpty(t *testing.T) {
	store := &fakeStore{products: seedProducts(3)}
	resp, err := newTestService(store).Search(context.Background(), transport.SearchRequest{Query: "!!! ---"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 0 || len(store.searchCalls) != 0 {
		t.Fatalf("expected empty page without store call")
	}
}

func TestSearchBuildsPrefixQueryAndFallsBackOnUnknownSort(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	if _, err := svc.Search(context.Background(), transport.SearchRequest{Query: "Silk <b>Saree</b> silk", Sort: "rating"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := store.searchCalls[0]
	if p.TSQuery != "silk:* & saree:*" {
		t.Fatalf("unexpected tsquery %q", p.TSQuery)
	}
	if p.Sort != repository.SortRelevance {
		t.Fatalf("unknown sort must fall back to relevance, got %s", p.Sort)
	}
}

func TestSearchTruncatesLongQueries(t *testing.T) {
	store := &fakeStore{}
	if _, err := newTestService(store).Search(context.Background(), transport.SearchRequest{Query: strings.Repeat("a", 1000)}); err != nil {
		t.Fatalf("over-long query must not be rejected: %v", err)
	}
	if want := strings.Repeat("a", maxQueryRunes) + ":*"; store.searchCalls[0].TSQuery != want {
		t.Fatalf("expected query truncated to %d runes", maxQueryRunes)
	}
}

func TestSearchClassifiesStoreErrors(t *testing.T) {
	cases := []struct {
		err    error
		kind   apperr.Kind
		reason string
	}{
		{&pgconn.PgError{Code: "42883"}, apperr.KindUnavailable, reasonMissingCapability},
		{&pgconn.PgError{Code: "42P01"}, apperr.KindUnavailable, reasonMissingCapability},
		{context.DeadlineExceeded, apperr.KindUnavailable, reasonTimeout},
		{errors.New("connection reset"), apperr.KindInternal, reasonTransient},
	}

	for _, tc := range cases {
		_, err := newTestService(&fakeStore{searchErr: tc.err}).Search(context.Background(), transport.SearchRequest{Query: "silk"})
		assertReason(t, err, tc.kind, tc.reason)
		if !errors.Is(err, tc.err) {
			t.Fatalf("classified error must wrap the cause %v", tc.err)
		}
	}
}

func TestRankingKeyMatchesSort(t *testing.T) {
	hit := repository.ProductHit{Score: 0.25, PriceCents: 1999, CreatedAt: time.Unix(1700000000, 0)}
	if k := rankingKey(repository.SortRelevance, hit); k.Kind != cursor.KindScore || k.Score != 0.25 {
		t.Fatalf("unexpected relevance key %+v", k)
	}
	if k := rankingKey(repository.SortPriceAsc, hit); k.Kind != cursor.KindPrice || k.Price != 1999 {
		t.Fatalf("unexpected price key %+v", k)
	}
	if k := rankingKey(repository.SortNewest, hit); k.Kind != cursor.KindCreated || !k.Created.Equal(hit.CreatedAt) {
		t.Fatalf("unexpected created key %+v", k)
	}
}

func assertReason(t *testing.T, err error, kind apperr.Kind, reason string) {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %v", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("expected kind %v, got %v", kind, appErr.Kind)
	}
	details, ok := appErr.Details.(map[string]string)
	if !ok || details["reason"] != reason {
		t.Fatalf("expected reason %q, got %#v", reason, appErr.Details)
	}
}
