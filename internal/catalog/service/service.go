// Package service holds catalog business logic: product and category writes
// and keeping the searchable document of a product in step with its row.
package service

import (
	"context"
	"strings"
	"time"

	"storefront_backend/internal/catalog/ports"
	"storefront_backend/internal/catalog/repository"
	"storefront_backend/internal/catalog/transport"
	"storefront_backend/internal/events"
	"storefront_backend/platform/apperr"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/metrics"
	"storefront_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Service provides business logic for catalog.
type Service struct {
	repo    repository.Repository
	indexer ports.SearchIndexer
	retry   ports.IndexRetryQueue
	bus     events.Bus
	log     *logger.Logger
}

// New creates a new catalog service. retry and bus may be nil.
func New(repo repository.Repository, indexer ports.SearchIndexer, retry ports.IndexRetryQueue, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, indexer: indexer, retry: retry, bus: bus, log: log}
}

// CreateCategory creates a category, deriving the slug from the name when absent.
func (s *Service) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (transport.CategoryResponse, error) {
	name := sanitize.Text(req.Name)
	if name == "" {
		return transport.CategoryResponse{}, apperr.Validation("name is required")
	}
	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return transport.CategoryResponse{}, apperr.Validation("slug cannot be derived from name")
	}

	category, err := s.repo.CreateCategory(ctx, repository.CreateCategoryParams{Name: name, Slug: slug})
	if err != nil {
		return transport.CategoryResponse{}, err
	}

	s.log.Info("category created", "id", category.ID, "slug", category.Slug)
	s.publish(ctx, events.CategorySaved{BaseEvent: events.NewBaseEvent(), CategoryID: category.ID})
	return toCategoryResponse(category), nil
}

// ListCategories lists all categories.
func (s *Service) ListCategories(ctx context.Context) (transport.CategoryListResponse, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return transport.CategoryListResponse{}, err
	}
	items := make([]transport.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		items = append(items, toCategoryResponse(c))
	}
	return transport.CategoryListResponse{Items: items}, nil
}

// GetProductByID retrieves a product.
func (s *Service) GetProductByID(ctx context.Context, id uuid.UUID) (transport.ProductResponse, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return transport.ProductResponse{}, err
	}
	return toProductResponse(product, nil), nil
}

// CreateProduct creates a product and refreshes its searchable document.
func (s *Service) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (transport.ProductResponse, error) {
	title := sanitize.Text(req.Title)
	if title == "" {
		return transport.ProductResponse{}, apperr.Validation("title is required")
	}
	if req.PriceCents == nil || *req.PriceCents < 0 {
		return transport.ProductResponse{}, apperr.Validation("priceCents must be zero or more")
	}
	if err := validatePublishWindow(req.PublishAt, req.UnpublishAt); err != nil {
		return transport.ProductResponse{}, err
	}
	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(title)
	}

	product, err := s.repo.CreateProduct(ctx, repository.CreateProductParams{
		Title:           title,
		Slug:            slug,
		Brand:           sanitize.TextPtr(req.Brand),
		Tags:            normalizeTags(req.Tags),
		Description:     sanitize.TextPtr(req.Description),
		PrimarySKU:      trimPtr(req.PrimarySKU),
		PriceCents:      *req.PriceCents,
		PrimaryImageKey: trimPtr(req.PrimaryImageKey),
		IsPublished:     req.IsPublished,
		PublishAt:       req.PublishAt,
		UnpublishAt:     req.UnpublishAt,
		CategoryIDs:     req.CategoryIDs,
	})
	if err != nil {
		return transport.ProductResponse{}, err
	}

	indexed := s.refreshSearchDocument(ctx, product.ID)
	s.log.Info("product created", "id", product.ID, "slug", product.Slug, "indexed", indexed)
	s.publish(ctx, events.ProductSaved{BaseEvent: events.NewBaseEvent(), ProductID: product.ID, Created: true, Indexed: indexed})
	return toProductResponse(product, &indexed), nil
}

// UpdateProduct applies a partial update and refreshes the searchable document.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.UpdateProductRequest) (transport.ProductResponse, error) {
	params := repository.UpdateProductParams{
		ID:              id,
		Brand:           sanitize.TextPtr(req.Brand),
		Description:     sanitize.TextPtr(req.Description),
		PrimarySKU:      trimPtr(req.PrimarySKU),
		PriceCents:      req.PriceCents,
		PrimaryImageKey: trimPtr(req.PrimaryImageKey),
		IsPublished:     req.IsPublished,
		PublishAt:       req.PublishAt,
		UnpublishAt:     req.UnpublishAt,
		CategoryIDs:     req.CategoryIDs,
	}
	if req.Title != nil {
		title := sanitize.Text(*req.Title)
		if title == "" {
			return transport.ProductResponse{}, apperr.Validation("title cannot be empty")
		}
		params.Title = &title
	}
	if req.Slug != nil {
		slug := Slugify(*req.Slug)
		if slug == "" {
			return transport.ProductResponse{}, apperr.Validation("slug cannot be empty")
		}
		params.Slug = &slug
	}
	if req.Tags != nil {
		params.Tags = normalizeTags(req.Tags)
	}
	if err := validatePublishWindow(req.PublishAt, req.UnpublishAt); err != nil {
		return transport.ProductResponse{}, err
	}

	product, err := s.repo.UpdateProduct(ctx, params)
	if err != nil {
		return transport.ProductResponse{}, err
	}

	indexed := s.refreshSearchDocument(ctx, product.ID)
	s.log.Info("product updated", "id", product.ID, "indexed", indexed)
	s.publish(ctx, events.ProductSaved{BaseEvent: events.NewBaseEvent(), ProductID: product.ID, Indexed: indexed})
	return toProductResponse(product, &indexed), nil
}

// DeleteProduct removes a product. Its searchable document goes with the row.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", "id", id)
	s.publish(ctx, events.ProductDeleted{BaseEvent: events.NewBaseEvent(), ProductID: id})
	return nil
}

// refreshSearchDocument recomputes the document synchronously. A failure
// never fails the write: the refresh is handed to the retry queue instead.
func (s *Service) refreshSearchDocument(ctx context.Context, productID uuid.UUID) bool {
	err := s.indexer.IndexProduct(ctx, productID)
	if err == nil {
		return true
	}

	deferred := false
	if s.retry != nil {
		if enqueueErr := s.retry.EnqueueIndexRefresh(ctx, productID); enqueueErr != nil {
			s.log.Error("index refresh enqueue failed", "productId", productID, "error", enqueueErr)
		} else {
			deferred = true
		}
	}

	s.log.IndexRefreshFailed(productID.String(), err, deferred)
	if deferred {
		metrics.IndexRefreshTotal.WithLabelValues("deferred").Inc()
	}
	return false
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

func validatePublishWindow(publishAt, unpublishAt *time.Time) error {
	if publishAt != nil && unpublishAt != nil && !unpublishAt.After(*publishAt) {
		return apperr.Validation("unpublishAt must be after publishAt")
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		cleaned := strings.ToLower(sanitize.Text(tag))
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toCategoryResponse(c repository.Category) transport.CategoryResponse {
	return transport.CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toProductResponse(p repository.Product, indexed *bool) transport.ProductResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	categoryIDs := p.CategoryIDs
	if categoryIDs == nil {
		categoryIDs = []uuid.UUID{}
	}
	return transport.ProductResponse{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Brand:           p.Brand,
		Tags:            tags,
		Description:     p.Description,
		PrimarySKU:      p.PrimarySKU,
		PriceCents:      p.PriceCents,
		PrimaryImageKey: p.PrimaryImageKey,
		IsPublished:     p.IsPublished,
		PublishAt:       formatTimePtr(p.PublishAt),
		UnpublishAt:     formatTimePtr(p.UnpublishAt),
		CategoryIDs:     categoryIDs,
		SearchIndexed:   indexed,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
