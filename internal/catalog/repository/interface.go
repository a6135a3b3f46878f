package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Category groups products for navigation and facets.
type Category struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Slug      string    `db:"slug"`
	CreatedAt time.Time `db:"created_at"`
}

// Product is a sellable catalog item.
type Product struct {
	ID              uuid.UUID   `db:"id"`
	Title           string      `db:"title"`
	Slug            string      `db:"slug"`
	Brand           *string     `db:"brand"`
	Tags            []string    `db:"tags"`
	Description     *string     `db:"description"`
	PrimarySKU      *string     `db:"primary_sku"`
	PriceCents      int64       `db:"price_cents"`
	PrimaryImageKey *string     `db:"primary_image_key"`
	IsPublished     bool        `db:"is_published"`
	PublishAt       *time.Time  `db:"publish_at"`
	UnpublishAt     *time.Time  `db:"unpublish_at"`
	CategoryIDs     []uuid.UUID `db:"-"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

// CreateCategoryParams contains data for creating a category.
type CreateCategoryParams struct {
	Name string
	Slug string
}

// CreateProductParams contains data for creating a product.
type CreateProductParams struct {
	Title           string
	Slug            string
	Brand           *string
	Tags            []string
	Description     *string
	PrimarySKU      *string
	PriceCents      int64
	PrimaryImageKey *string
	IsPublished     bool
	PublishAt       *time.Time
	UnpublishAt     *time.Time
	CategoryIDs     []uuid.UUID
}

// UpdateProductParams contains data for updating a product. Nil fields are
// left unchanged; a non-nil CategoryIDs replaces the memberships.
type UpdateProductParams struct {
	ID              uuid.UUID
	Title           *string
	Slug            *string
	Brand           *string
	Tags            []string
	Description     *string
	PrimarySKU      *string
	PriceCents      *int64
	PrimaryImageKey *string
	IsPublished     *bool
	PublishAt       *time.Time
	UnpublishAt     *time.Time
	CategoryIDs     []uuid.UUID
}

// Repository defines catalog storage operations.
type Repository interface {
	CreateCategory(ctx context.Context, params CreateCategoryParams) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateProduct(ctx context.Context, params CreateProductParams) (Product, error)
	UpdateProduct(ctx context.Context, params UpdateProductParams) (Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProductByID(ctx context.Context, id uuid.UUID) (Product, error)
}
