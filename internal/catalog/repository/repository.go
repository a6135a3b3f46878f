package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront_backend/platform/apperr"
)

const (
	productNotFoundMessage = "product not found"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const productColumns = `
	p.id, p.title, p.slug, p.brand, p.tags, p.description, p.primary_sku, p.price_cents,
	p.primary_image_key, p.is_published, p.publish_at, p.unpublish_at, p.created_at, p.updated_at`

// Repo implements the catalog repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// CreateCategory creates a category.
func (r *Repo) CreateCategory(ctx context.Context, params CreateCategoryParams) (Category, error) {
	query := `
		INSERT INTO catalog_categories (name, slug)
		VALUES ($1, $2)
		RETURNING id, name, slug, created_at`

	var c Category
	if err := r.pool.QueryRow(ctx, query, params.Name, params.Slug).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
		if isPgCode(err, pgUniqueViolation) {
			return Category{}, apperr.Conflict("category slug already exists")
		}
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// ListCategories lists every category by name.
func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug, created_at FROM catalog_categories ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate categories: %w", rows.Err())
	}
	return items, nil
}

// CreateProduct inserts a product and its category memberships atomically.
func (r *Repo) CreateProduct(ctx context.Context, params CreateProductParams) (Product, error) {
	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}

	var product Product
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO catalog_products AS p (
				title, slug, brand, tags, description, primary_sku, price_cents,
				primary_image_key, is_published, publish_at, unpublish_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING ` + productColumns

		row := tx.QueryRow(ctx, query,
			params.Title, params.Slug, params.Brand, tags, params.Description, params.PrimarySKU,
			params.PriceCents, params.PrimaryImageKey, params.IsPublished, params.PublishAt, params.UnpublishAt,
		)
		var err error
		if product, err = scanProduct(row); err != nil {
			return err
		}
		if err := replaceCategories(ctx, tx, product.ID, params.CategoryIDs); err != nil {
			return err
		}
		product.CategoryIDs = normalizeIDs(params.CategoryIDs)
		return nil
	})
	if err != nil {
		return Product{}, mapWriteError("create product", err)
	}
	return product, nil
}

// UpdateProduct applies a partial update and optionally replaces memberships.
func (r *Repo) UpdateProduct(ctx context.Context, params UpdateProductParams) (Product, error) {
	var product Product
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE catalog_products AS p
			SET title = COALESCE($2, p.title),
				slug = COALESCE($3, p.slug),
				brand = COALESCE($4, p.brand),
				tags = COALESCE($5, p.tags),
				description = COALESCE($6, p.description),
				primary_sku = COALESCE($7, p.primary_sku),
				price_cents = COALESCE($8, p.price_cents),
				primary_image_key = COALESCE($9, p.primary_image_key),
				is_published = COALESCE($10, p.is_published),
				publish_at = COALESCE($11, p.publish_at),
				unpublish_at = COALESCE($12, p.unpublish_at),
				updated_at = now()
			WHERE p.id = $1
			RETURNING ` + productColumns

		row := tx.QueryRow(ctx, query,
			params.ID, params.Title, params.Slug, params.Brand, params.Tags, params.Description,
			params.PrimarySKU, params.PriceCents, params.PrimaryImageKey, params.IsPublished,
			params.PublishAt, params.UnpublishAt,
		)
		var err error
		if product, err = scanProduct(row); err != nil {
			return err
		}

		if params.CategoryIDs != nil {
			if err := replaceCategories(ctx, tx, product.ID, params.CategoryIDs); err != nil {
				return err
			}
			product.CategoryIDs = normalizeIDs(params.CategoryIDs)
			return nil
		}
		product.CategoryIDs, err = categoryIDs(ctx, tx, product.ID)
		return err
	})
	if err != nil {
		return Product{}, mapWriteError("update product", err)
	}
	return product, nil
}

// DeleteProduct removes a product; memberships cascade with it.
func (r *Repo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM catalog_products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(productNotFoundMessage)
	}
	return nil
}

// GetProductByID retrieves a product with its category ids.
func (r *Repo) GetProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM catalog_products p WHERE p.id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("get product by id: %w", err)
	}

	product.CategoryIDs, err = categoryIDs(ctx, r.pool, id)
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func categoryIDs(ctx context.Context, q querier, productID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, `SELECT category_id FROM catalog_product_categories WHERE product_id = $1 ORDER BY category_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list product categories: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan product categories: %w", err)
	}
	return ids, nil
}

func replaceCategories(ctx context.Context, tx pgx.Tx, productID uuid.UUID, ids []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM catalog_product_categories WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear product categories: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO catalog_product_categories (product_id, category_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING`, productID, normalizeIDs(ids)); err != nil {
		return fmt.Errorf("insert product categories: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Brand, &p.Tags, &p.Description, &p.PrimarySKU, &p.PriceCents,
		&p.PrimaryImageKey, &p.IsPublished, &p.PublishAt, &p.UnpublishAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func normalizeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func mapWriteError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.NotFound(productNotFoundMessage)
	case isPgCode(err, pgUniqueViolation):
		return apperr.Conflict("product slug already exists")
	case isPgCode(err, pgForeignKeyViolation):
		return apperr.Validation("unknown category")
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
