// Package seed loads catalog fixtures from YAML and writes them through the
// catalog service, so seeded products get searchable documents like any other
// write.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storefront_backend/internal/catalog/service"
	"storefront_backend/internal/catalog/transport"
	"storefront_backend/platform/apperr"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const imageFolder = "products/seed"

// Fixture is the on-disk seed format.
type Fixture struct {
	Categories []CategoryFixture `yaml:"categories"`
	Products   []ProductFixture  `yaml:"products"`
}

type CategoryFixture struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type ProductFixture struct {
	Title       string     `yaml:"title"`
	Slug        string     `yaml:"slug"`
	Brand       string     `yaml:"brand"`
	Tags        []string   `yaml:"tags"`
	Description string     `yaml:"description"`
	SKU         string     `yaml:"sku"`
	PriceCents  int64      `yaml:"priceCents"`
	Published   *bool      `yaml:"published"`
	PublishAt   *time.Time `yaml:"publishAt"`
	UnpublishAt *time.Time `yaml:"unpublishAt"`
	Categories  []string   `yaml:"categories"`
	// ImageKey is a storage key or an absolute URL stored as is.
	ImageKey string `yaml:"imageKey"`
	// ImageFile is a local path, relative to the fixture, uploaded to storage.
	ImageFile string `yaml:"imageFile"`
}

// CatalogWriter is the part of the catalog service the seeder drives.
type CatalogWriter interface {
	CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (transport.CategoryResponse, error)
	ListCategories(ctx context.Context) (transport.CategoryListResponse, error)
	CreateProduct(ctx context.Context, req transport.CreateProductRequest) (transport.ProductResponse, error)
}

// ImageUploader stores a local image and returns its key.
type ImageUploader interface {
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
}

// Result summarizes one seeding run.
type Result struct {
	CategoriesCreated int
	CategoriesReused  int
	ProductsCreated   int
	ProductsSkipped   int
	ProductsDeferred  int
}

// Load parses and validates a fixture.
func Load(r io.Reader) (Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}

	for i, c := range fixture.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return Fixture{}, fmt.Errorf("category %d: name is required", i)
		}
	}
	for i, p := range fixture.Products {
		if strings.TrimSpace(p.Title) == "" {
			return Fixture{}, fmt.Errorf("product %d: title is required", i)
		}
		if p.PriceCents < 0 {
			return Fixture{}, fmt.Errorf("product %q: priceCents must not be negative", p.Title)
		}
		if p.ImageKey != "" && p.ImageFile != "" {
			return Fixture{}, fmt.Errorf("product %q: set imageKey or imageFile, not both", p.Title)
		}
	}
	return fixture, nil
}

// Seeder applies fixtures. Categories are matched by slug and reused;
// products whose slug already exists are skipped.
type Seeder struct {
	catalog  CatalogWriter
	uploader ImageUploader
	bucket   string
	baseDir  string
}

// New creates a seeder. uploader may be nil, in which case imageFile entries
// are rejected.
func New(catalog CatalogWriter, uploader ImageUploader, bucket, baseDir string) *Seeder {
	return &Seeder{catalog: catalog, uploader: uploader, bucket: bucket, baseDir: baseDir}
}

// Apply writes the fixture.
func (s *Seeder) Apply(ctx context.Context, fixture Fixture) (Result, error) {
	var result Result

	existing, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return result, fmt.Errorf("list categories: %w", err)
	}
	bySlug := make(map[string]uuid.UUID, len(existing.Items))
	for _, c := range existing.Items {
		bySlug[c.Slug] = c.ID
	}

	for _, c := range fixture.Categories {
		slug := c.Slug
		if slug == "" {
			slug = service.Slugify(c.Name)
		}
		if _, ok := bySlug[slug]; ok {
			result.CategoriesReused++
			continue
		}
		created, err := s.catalog.CreateCategory(ctx, transport.CreateCategoryRequest{Name: c.Name, Slug: slug})
		if err != nil {
			return result, fmt.Errorf("create category %q: %w", c.Name, err)
		}
		bySlug[created.Slug] = created.ID
		result.CategoriesCreated++
	}

	for _, p := range fixture.Products {
		req, err := s.productRequest(ctx, p, bySlug)
		if err != nil {
			return result, err
		}

		created, err := s.catalog.CreateProduct(ctx, req)
		if isConflict(err) {
			result.ProductsSkipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("create product %q: %w", p.Title, err)
		}
		result.ProductsCreated++
		if created.SearchIndexed != nil && !*created.SearchIndexed {
			result.ProductsDeferred++
		}
	}

	return result, nil
}

func (s *Seeder) productRequest(ctx context.Context, p ProductFixture, categories map[string]uuid.UUID) (transport.CreateProductRequest, error) {
	published := true
	if p.Published != nil {
		published = *p.Published
	}
	price := p.PriceCents

	req := transport.CreateProductRequest{
		Title:       p.Title,
		Slug:        p.Slug,
		Brand:       optional(p.Brand),
		Tags:        p.Tags,
		Description: optional(p.Description),
		PrimarySKU:  optional(p.SKU),
		PriceCents:  &price,
		IsPublished: published,
		PublishAt:   p.PublishAt,
		UnpublishAt: p.UnpublishAt,
	}

	for _, slug := range p.Categories {
		id, ok := categories[slug]
		if !ok {
			return transport.CreateProductRequest{}, fmt.Errorf("product %q: unknown category %q", p.Title, slug)
		}
		req.CategoryIDs = append(req.CategoryIDs, id)
	}

	switch {
	case p.ImageKey != "":
		req.PrimaryImageKey = optional(p.ImageKey)
	case p.ImageFile != "":
		key, err := s.uploadImage(ctx, p.ImageFile)
		if err != nil {
			return transport.CreateProductRequest{}, fmt.Errorf("product %q: %w", p.Title, err)
		}
		req.PrimaryImageKey = &key
	}
	return req, nil
}

func (s *Seeder) uploadImage(ctx context.Context, file string) (string, error) {
	if s.uploader == nil {
		return "", errors.New("imageFile requires object storage")
	}

	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.baseDir, file)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	return s.uploader.UploadFile(ctx, s.bucket, imageFolder, filepath.Base(path), contentType, f, info.Size())
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func isConflict(err error) bool {
	var appErr *apperr.Error
	return errors.As(err, &appErr) && appErr.Kind == apperr.KindConflict
}
