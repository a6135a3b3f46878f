package transport

import (
	"time"

	"github.com/google/uuid"
)

// Categories

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
	Slug string `json:"slug,omitempty" validate:"omitempty,max=120"`
}

type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt string    `json:"createdAt"`
}

type CategoryListResponse struct {
	Items []CategoryResponse `json:"items"`
}

// Products

type CreateProductRequest struct {
	Title           string      `json:"title" validate:"required,notblank,max=200"`
	Slug            string      `json:"slug,omitempty" validate:"omitempty,max=220"`
	Brand           *string     `json:"brand,omitempty" validate:"omitempty,max=100"`
	Tags            []string    `json:"tags,omitempty" validate:"omitempty,max=32,dive,min=1,max=50"`
	Description     *string     `json:"description,omitempty" validate:"omitempty,max=10000"`
	PrimarySKU      *string     `json:"primarySku,omitempty" validate:"omitempty,max=64"`
	PriceCents      *int64      `json:"priceCents" validate:"required,min=0"`
	PrimaryImageKey *string     `json:"primaryImageKey,omitempty" validate:"omitempty,max=500"`
	IsPublished     bool        `json:"isPublished"`
	PublishAt       *time.Time  `json:"publishAt,omitempty"`
	UnpublishAt     *time.Time  `json:"unpublishAt,omitempty"`
	CategoryIDs     []uuid.UUID `json:"categoryIds,omitempty" validate:"omitempty,max=50"`
}

type UpdateProductRequest struct {
	Title           *string     `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Slug            *string     `json:"slug,omitempty" validate:"omitempty,min=1,max=220"`
	Brand           *string     `json:"brand,omitempty" validate:"omitempty,max=100"`
	Tags            []string    `json:"tags,omitempty" validate:"omitempty,max=32,dive,min=1,max=50"`
	Description     *string     `json:"description,omitempty" validate:"omitempty,max=10000"`
	PrimarySKU      *string     `json:"primarySku,omitempty" validate:"omitempty,max=64"`
	PriceCents      *int64      `json:"priceCents,omitempty" validate:"omitempty,min=0"`
	PrimaryImageKey *string     `json:"primaryImageKey,omitempty" validate:"omitempty,max=500"`
	IsPublished     *bool       `json:"isPublished,omitempty"`
	PublishAt       *time.Time  `json:"publishAt,omitempty"`
	UnpublishAt     *time.Time  `json:"unpublishAt,omitempty"`
	CategoryIDs     []uuid.UUID `json:"categoryIds,omitempty" validate:"omitempty,max=50"`
}

type ProductResponse struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
	Brand           *string     `json:"brand,omitempty"`
	Tags            []string    `json:"tags"`
	Description     *string     `json:"description,omitempty"`
	PrimarySKU      *string     `json:"primarySku,omitempty"`
	PriceCents      int64       `json:"priceCents"`
	PrimaryImageKey *string     `json:"primaryImageKey,omitempty"`
	IsPublished     bool        `json:"isPublished"`
	PublishAt       *string     `json:"publishAt,omitempty"`
	UnpublishAt     *string     `json:"unpublishAt,omitempty"`
	CategoryIDs     []uuid.UUID `json:"categoryIds"`
	// SearchIndexed is false when the searchable document refresh was deferred.
	SearchIndexed *bool  `json:"searchIndexed,omitempty"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}
