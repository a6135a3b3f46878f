package adapters

import (
	"context"

	"github.com/google/uuid"

	"storefront_backend/internal/catalog/ports"
	searchsvc "storefront_backend/internal/search/service"
)

// CatalogSearchIndexer lets the catalog refresh searchable documents without
// importing the search module.
type CatalogSearchIndexer struct {
	search *searchsvc.Service
}

// NewCatalogSearchIndexer creates a new search indexer adapter.
func NewCatalogSearchIndexer(search *searchsvc.Service) *CatalogSearchIndexer {
	return &CatalogSearchIndexer{search: search}
}

// IndexProduct recomputes the searchable document of the given product.
func (a *CatalogSearchIndexer) IndexProduct(ctx context.Context, productID uuid.UUID) error {
	return a.search.IndexProduct(ctx, productID)
}

// Compile-time check that CatalogSearchIndexer implements catalog/ports.SearchIndexer.
var _ ports.SearchIndexer = (*CatalogSearchIndexer)(nil)
