// Package search is the product search bounded context: ranked full-text
// search, autocomplete, facets and searchable document maintenance over the
// catalog tables.
package search

import (
	"storefront_backend/internal/events"
	apphttp "storefront_backend/internal/http"
	"storefront_backend/internal/search/handler"
	"storefront_backend/internal/search/repository"
	"storefront_backend/internal/search/service"
	"storefront_backend/platform/config"
	"storefront_backend/platform/httpkit"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
	limiter *httpkit.IPRateLimiter
}

// NewModule wires the search module. rdb may be nil, in which case facets are
// only cached in process.
func NewModule(
	pool *pgxpool.Pool,
	rdb *redis.Client,
	images service.ImageURLResolver,
	bus events.Bus,
	cfg config.SearchConfig,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	cache := service.NewFacetCache(rdb, cfg.GetSearchFacetCacheTTL(), log)
	svc := service.New(repo, cfg, images, cache, bus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		limiter: httpkit.NewIPRateLimiter(rate.Limit(cfg.GetSearchRateLimitRPS()), cfg.GetSearchRateLimitBurst(), log),
	}
}

// Service exposes the search service for cross-module adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterHandlers subscribes facet cache invalidation to catalog changes.
func (m *Module) RegisterHandlers(bus events.Bus) {
	invalidate := events.HandlerFunc(m.service.InvalidateFacets)
	bus.Subscribe(events.ProductSaved{}.EventName(), invalidate)
	bus.Subscribe(events.ProductDeleted{}.EventName(), invalidate)
	bus.Subscribe(events.CategorySaved{}.EventName(), invalidate)
	bus.Subscribe(events.SearchReindexed{}.EventName(), invalidate)
}

func (m *Module) Name() string {
	return "search"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/search")
	public.Use(m.limiter.RateLimit())
	m.handler.RegisterRoutes(public)

	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/search"))
}

var _ apphttp.Module = (*Module)(nil)
