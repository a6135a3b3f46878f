package service

import (
	"context"
	"strconv"
	"time"

	"storefront_backend/internal/search/cursor"
	"storefront_backend/internal/search/repository"
	"storefront_backend/internal/search/transport"
	"storefront_backend/platform/apperr"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const opSearch = "search.Search"

// searchPlan is a validated request ready to be sent to the store.
type searchPlan struct {
	params      repository.SearchParams
	limit       int
	fingerprint string
	// noTerms is set when the text contained nothing indexable.
	noTerms bool
}

// Search runs the query planner. An empty query browses the visible catalog.
func (s *Service) Search(ctx context.Context, req transport.SearchRequest) (*transport.SearchResponse, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, opSearch, trace.WithAttributes(
		attribute.String("sort", req.Sort),
		attribute.Int("limit", req.Limit),
		attribute.Bool("has_cursor", req.Cursor != ""),
	))
	defer span.End()

	resp, sort, err := s.search(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		observe(opSearch, outcome(err), start, 0)
		return nil, err
	}

	observe(opSearch, "ok", start, len(resp.Items))
	if s.log != nil {
		s.log.SearchQuery(opSearch, string(sort), len(resp.Items), float64(time.Since(start).Milliseconds()))
	}
	return resp, nil
}

func (s *Service) search(ctx context.Context, req transport.SearchRequest) (*transport.SearchResponse, repository.Sort, error) {
	plan, err := s.plan(req)
	if err != nil {
		return nil, "", err
	}
	if plan.noTerms {
		return emptyPage(), plan.params.Sort, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	hits, err := s.store.Search(queryCtx, plan.params)
	if err != nil {
		return nil, "", classifyStoreError(opSearch, err)
	}

	resp := &transport.SearchResponse{Items: make([]transport.SearchResultItem, 0, plan.limit)}
	if len(hits) > plan.limit {
		hits = hits[:plan.limit]
		token, err := s.codec.Encode(cursor.Cursor{
			ID:          hits[len(hits)-1].ID,
			Key:         rankingKey(plan.params.Sort, hits[len(hits)-1]),
			Fingerprint: plan.fingerprint,
		})
		if err != nil {
			return nil, "", apperr.Wrap(apperr.KindInternal, "search failed", err).WithOp(opSearch)
		}
		resp.NextCursor = &token
	}

	for _, h := range hits {
		tags := h.Tags
		if tags == nil {
			tags = []string{}
		}
		resp.Items = append(resp.Items, transport.SearchResultItem{
			ID:       h.ID.String(),
			Title:    h.Title,
			Slug:     h.Slug,
			Price:    h.PriceCents,
			ImageURL: s.imageURL(ctx, h.ImageKey),
			Excerpt:  h.Excerpt,
			Score:    float64(h.Score),
			Brand:    h.Brand,
			Tags:     tags,
			SKU:      h.SKU,
		})
	}
	return resp, plan.params.Sort, nil
}

// plan validates req and resolves sort, filters and the continuation point.
func (s *Service) plan(req transport.SearchRequest) (searchPlan, error) {
	query := normalizeQuery(req.Query, maxQueryRunes)
	limit := clampLimit(req.Limit, defaultSearchLimit, maxSearchLimit)
	sort := repository.ParseSort(req.Sort)

	if req.MinPrice != nil && *req.MinPrice < 0 || req.MaxPrice != nil && *req.MaxPrice < 0 {
		return searchPlan{}, apperr.Validation("price bounds must not be negative").WithOp(opSearch)
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return searchPlan{}, apperr.Validation("min_price must not exceed max_price").WithOp(opSearch)
	}

	params := repository.SearchParams{
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Limit:    limit + 1,
	}

	category := ""
	if req.Category != "" {
		id, err := uuid.Parse(req.Category)
		if err != nil {
			return searchPlan{}, apperr.Validation("invalid category").WithOp(opSearch)
		}
		params.CategoryID = &id
		category = id.String()
	}

	noTerms := false
	if query != "" {
		terms := queryTerms(query)
		if len(terms) == 0 {
			noTerms = true
		} else {
			params.TSQuery = prefixTSQuery(terms)
		}
	} else if sort == repository.SortRelevance {
		// Browse mode has no score to rank by.
		sort = repository.SortNewest
	}
	params.Sort = sort

	fp := cursor.Fingerprint(params.TSQuery, category, formatBound(req.MinPrice), formatBound(req.MaxPrice), string(sort))

	if req.Cursor != "" {
		cur, err := s.codec.Decode(req.Cursor)
		if err != nil {
			return searchPlan{}, cursorError(opSearch, err)
		}
		if cur.Fingerprint != fp || cur.Key.Kind != keyKind(sort) {
			return searchPlan{}, cursorError(opSearch, cursor.ErrMismatch)
		}
		params.After = &repository.After{
			ID:      cur.ID,
			Score:   cur.Key.Score,
			Price:   cur.Key.Price,
			Created: cur.Key.Created,
		}
	}

	return searchPlan{params: params, limit: limit, fingerprint: fp, noTerms: noTerms}, nil
}

func keyKind(sort repository.Sort) cursor.Kind {
	switch sort {
	case repository.SortPriceAsc, repository.SortPriceDesc:
		return cursor.KindPrice
	case repository.SortNewest:
		return cursor.KindCreated
	default:
		return cursor.KindScore
	}
}

func rankingKey(sort repository.Sort, h repository.ProductHit) cursor.Key {
	switch keyKind(sort) {
	case cursor.KindPrice:
		return cursor.PriceKey(h.PriceCents)
	case cursor.KindCreated:
		return cursor.CreatedKey(h.CreatedAt)
	default:
		return cursor.ScoreKey(h.Score)
	}
}

func formatBound(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func emptyPage() *transport.SearchResponse {
	return &transport.SearchResponse{Items: []transport.SearchResultItem{}}
}
