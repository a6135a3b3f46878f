package repository

import (
	"context"
	"fmt"
)

// Capability names reported by MissingCapabilities.
const (
	CapabilityTrigram        = "extension:pg_trgm"
	CapabilityUnaccent       = "extension:unaccent"
	CapabilitySearchDocument = "column:catalog_products.search_document"
	CapabilityUnaccentFunc   = "function:storefront_immutable_unaccent"
)

const capabilitiesQuery = `
	SELECT
		EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'pg_trgm'),
		EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'unaccent'),
		EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = current_schema()
				AND table_name = 'catalog_products'
				AND column_name = 'search_document'
		),
		EXISTS (SELECT 1 FROM pg_proc WHERE proname = 'storefront_immutable_unaccent')`

// MissingCapabilities lists the database features search depends on that are
// not installed. An empty slice means the store is ready.
func (r *Repository) MissingCapabilities(ctx context.Context) ([]string, error) {
	var trgm, unaccent, column, fn bool
	if err := r.pool.QueryRow(ctx, capabilitiesQuery).Scan(&trgm, &unaccent, &column, &fn); err != nil {
		return nil, fmt.Errorf("check search capabilities: %w", err)
	}

	missing := make([]string, 0)
	if !trgm {
		missing = append(missing, CapabilityTrigram)
	}
	if !unaccent {
		missing = append(missing, CapabilityUnaccent)
	}
	if !column {
		missing = append(missing, CapabilitySearchDocument)
	}
	if !fn {
		missing = append(missing, CapabilityUnaccentFunc)
	}
	return missing, nil
}
