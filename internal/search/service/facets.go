package service

import (
	"context"
	"time"

	"storefront_backend/internal/events"
	"storefront_backend/internal/search/repository"
	"storefront_backend/internal/search/transport"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const opFacets = "search.Facets"

// Facets aggregates category and price facets over the visible catalog. The
// query text is accepted but does not affect the result.
// Store failures degrade to an empty facet set.
func (s *Service) Facets(ctx context.Context, req transport.FacetsRequest) (*transport.FacetsResponse, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, opFacets)
	defer span.End()

	if s.facetCache != nil {
		if cached, ok := s.facetCache.Get(ctx); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			observe(opFacets, "ok", start, len(cached.Categories))
			return cached, nil
		}
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var (
		categories []repository.CategoryCount
		prices     repository.PriceStats
	)
	g, gctx := errgroup.WithContext(queryCtx)
	g.Go(func() error {
		var err error
		categories, err = s.store.CategoryFacets(gctx, s.maxCategories)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = s.store.PriceStats(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		if s.log != nil {
			s.log.Warn("facet aggregation degraded", "error", err)
		}
		observe(opFacets, "degraded", start, 0)
		return emptyFacets(), nil
	}

	facets := &transport.FacetsResponse{
		Categories: make([]transport.CategoryFacet, 0, len(categories)),
		PriceRange: transport.PriceRange{Min: prices.Min, Max: prices.Max, Avg: prices.Avg},
	}
	for _, c := range categories {
		facets.Categories = append(facets.Categories, transport.CategoryFacet{
			ID:           c.ID.String(),
			Name:         c.Name,
			ProductCount: c.ProductCount,
		})
	}

	if s.facetCache != nil {
		s.facetCache.Set(ctx, facets)
	}
	observe(opFacets, "ok", start, len(facets.Categories))
	return facets, nil
}

// InvalidateFacets is subscribed to catalog and reindex events.
func (s *Service) InvalidateFacets(ctx context.Context, _ events.Event) error {
	if s.facetCache != nil {
		s.facetCache.Invalidate(ctx)
	}
	return nil
}

func emptyFacets() *transport.FacetsResponse {
	return &transport.FacetsResponse{Categories: []transport.CategoryFacet{}}
}
