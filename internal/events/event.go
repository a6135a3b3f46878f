// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"storefront_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Catalog Domain Events
// =============================================================================

// ProductSaved is published after a product was created or updated.
// Indexed is false when the searchable document refresh was deferred.
type ProductSaved struct {
	BaseEvent
	ProductID uuid.UUID `json:"productId"`
	Created   bool      `json:"created"`
	Indexed   bool      `json:"indexed"`
}

func (e ProductSaved) EventName() string { return "catalog.product.saved" }

// ProductDeleted is published after a product was removed.
type ProductDeleted struct {
	BaseEvent
	ProductID uuid.UUID `json:"productId"`
}

func (e ProductDeleted) EventName() string { return "catalog.product.deleted" }

// CategorySaved is published after a category was created.
type CategorySaved struct {
	BaseEvent
	CategoryID uuid.UUID `json:"categoryId"`
}

func (e CategorySaved) EventName() string { return "catalog.category.saved" }

// =============================================================================
// Search Domain Events
// =============================================================================

// SearchReindexed is published after every searchable document was rebuilt.
type SearchReindexed struct {
	BaseEvent
	UpdatedCount int64 `json:"updatedCount"`
	DurationMs   int64 `json:"durationMs"`
}

func (e SearchReindexed) EventName() string { return "search.reindexed" }
