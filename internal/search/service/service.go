// Package service implements product search: the query planner, suggestion
// engine, facet aggregator, searchable document maintenance and the bulk
// reindex orchestrator.
package service

import (
	"context"
	"time"

	"storefront_backend/internal/events"
	"storefront_backend/internal/search/cursor"
	"storefront_backend/internal/search/repository"
	"storefront_backend/internal/search/transport"
	"storefront_backend/platform/config"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("storefront/search/service")

const (
	defaultQueryTimeout   = 3 * time.Second
	defaultReindexTimeout = 5 * time.Minute
	defaultMaxCategories  = 50
)

// Store is the persistence the service reads from.
type Store interface {
	Search(ctx context.Context, p repository.SearchParams) ([]repository.ProductHit, error)
	Suggest(ctx context.Context, query string, limit int) ([]repository.SuggestionHit, error)
	CategoryFacets(ctx context.Context, limit int) ([]repository.CategoryCount, error)
	PriceStats(ctx context.Context) (repository.PriceStats, error)
	RefreshDocument(ctx context.Context, productID uuid.UUID) error
	ReindexAll(ctx context.Context) (repository.ReindexResult, error)
	MissingCapabilities(ctx context.Context) ([]string, error)
}

// ImageURLResolver turns a stored image reference into a URL a browser can
// load. It returns an empty string when nothing can be resolved.
type ImageURLResolver interface {
	ResolveImageURL(ctx context.Context, key string) string
}

// FacetCache stores the last computed facet set.
type FacetCache interface {
	Get(ctx context.Context) (*transport.FacetsResponse, bool)
	Set(ctx context.Context, facets *transport.FacetsResponse)
	Invalidate(ctx context.Context)
}

type Service struct {
	store          Store
	codec          *cursor.Codec
	images         ImageURLResolver
	facetCache     FacetCache
	bus            events.Bus
	log            *logger.Logger
	queryTimeout   time.Duration
	reindexTimeout time.Duration
	maxCategories  int
}

// New wires the search service. images, cache and bus may be nil.
func New(store Store, cfg config.SearchConfig, images ImageURLResolver, cache FacetCache, bus events.Bus, log *logger.Logger) *Service {
	s := &Service{
		store:          store,
		codec:          cursor.NewCodec(cfg.GetSearchCursorSecret()),
		images:         images,
		facetCache:     cache,
		bus:            bus,
		log:            log,
		queryTimeout:   cfg.GetSearchQueryTimeout(),
		reindexTimeout: cfg.GetSearchReindexTimeout(),
		maxCategories:  cfg.GetSearchFacetMaxCategories(),
	}
	if s.queryTimeout <= 0 {
		s.queryTimeout = defaultQueryTimeout
	}
	if s.reindexTimeout <= 0 {
		s.reindexTimeout = defaultReindexTimeout
	}
	if s.maxCategories <= 0 {
		s.maxCategories = defaultMaxCategories
	}
	return s
}

func (s *Service) imageURL(ctx context.Context, key string) string {
	if key == "" || s.images == nil {
		return ""
	}
	return s.images.ResolveImageURL(ctx, key)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

func observe(operation, status string, start time.Time, results int) {
	metrics.SearchRequestsTotal.WithLabelValues(operation, status).Inc()
	metrics.SearchDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if status == "ok" {
		metrics.SearchResults.WithLabelValues(operation).Observe(float64(results))
	}
}
