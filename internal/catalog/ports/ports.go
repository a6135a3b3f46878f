// Package ports declares what the catalog needs from other bounded contexts.
// Implementations live in internal/adapters so catalog never imports them.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// SearchIndexer refreshes the searchable document of a product after a write.
type SearchIndexer interface {
	IndexProduct(ctx context.Context, productID uuid.UUID) error
}

// IndexRetryQueue schedules a refresh that could not run synchronously.
type IndexRetryQueue interface {
	EnqueueIndexRefresh(ctx context.Context, productID uuid.UUID) error
}
