// Package catalog provides the catalog bounded context module.
package catalog

import (
	"storefront_backend/internal/catalog/handler"
	"storefront_backend/internal/catalog/ports"
	"storefront_backend/internal/catalog/repository"
	"storefront_backend/internal/catalog/service"
	"storefront_backend/internal/events"
	apphttp "storefront_backend/internal/http"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the catalog module. retry may be nil when
// no task queue is configured; failed index refreshes are then only logged.
func NewModule(
	pool *pgxpool.Pool,
	indexer ports.SearchIndexer,
	retry ports.IndexRetryQueue,
	bus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	svc := service.New(repository.New(pool), indexer, retry, bus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/catalog/categories", m.handler.ListCategories)

	adminGroup := ctx.Admin.Group("/catalog")
	adminGroup.POST("/categories", m.handler.CreateCategory)
	adminGroup.GET("/products/:id", m.handler.GetProductByID)
	adminGroup.POST("/products", m.handler.CreateProduct)
	adminGroup.PUT("/products/:id", m.handler.UpdateProduct)
	adminGroup.DELETE("/products/:id", m.handler.DeleteProduct)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
