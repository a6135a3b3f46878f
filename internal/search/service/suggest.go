package service

import (
	"context"
	"time"

	"storefront_backend/internal/search/transport"
	"storefront_backend/platform/apperr"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const opSuggest = "search.Suggest"

// Suggest returns tiered autocomplete candidates for a non-empty query.
func (s *Service) Suggest(ctx context.Context, req transport.SuggestRequest) ([]transport.Suggestion, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, opSuggest, trace.WithAttributes(attribute.Int("limit", req.Limit)))
	defer span.End()

	out, err := s.suggest(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "suggest failed")
		observe(opSuggest, outcome(err), start, 0)
		return nil, err
	}

	observe(opSuggest, "ok", start, len(out))
	if s.log != nil {
		s.log.SearchQuery(opSuggest, "tiered", len(out), float64(time.Since(start).Milliseconds()))
	}
	return out, nil
}

func (s *Service) suggest(ctx context.Context, req transport.SuggestRequest) ([]transport.Suggestion, error) {
	query := normalizeQuery(req.Query, maxSuggestQueryRunes)
	if query == "" {
		return nil, apperr.Validation("query is required").WithOp(opSuggest)
	}
	limit := clampLimit(req.Limit, defaultSuggestLimit, maxSuggestLimit)

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	hits, err := s.store.Suggest(queryCtx, query, limit)
	if err != nil {
		return nil, classifyStoreError(opSuggest, err)
	}

	out := make([]transport.Suggestion, 0, len(hits))
	for _, h := range hits {
		out = append(out, transport.Suggestion{
			ID:        h.ID.String(),
			Title:     h.Title,
			Slug:      h.Slug,
			Price:     h.PriceCents,
			ImageURL:  s.imageURL(ctx, h.ImageKey),
			Highlight: highlightSpan(h.Title, query),
		})
	}
	return out, nil
}
