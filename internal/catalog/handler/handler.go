package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront_backend/internal/catalog/transport"
	"storefront_backend/platform/httpkit"
	"storefront_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid product id"
)

// CatalogService is the subset of the catalog service the handler drives.
type CatalogService interface {
	CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (transport.CategoryResponse, error)
	ListCategories(ctx context.Context) (transport.CategoryListResponse, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (transport.ProductResponse, error)
	CreateProduct(ctx context.Context, req transport.CreateProductRequest) (transport.ProductResponse, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req transport.UpdateProductRequest) (transport.ProductResponse, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// Handler handles HTTP requests for catalog.
type Handler struct {
	svc CatalogService
	val *validator.Validator
}

// New creates a new catalog handler.
func New(svc CatalogService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListCategories lists categories.
// GET /api/v1/catalog/categories
func (h *Handler) ListCategories(c *gin.Context) {
	result, err := h.svc.ListCategories(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateCategory creates a category.
// POST /api/v1/admin/catalog/categories
func (h *Handler) CreateCategory(c *gin.Context) {
	var req transport.CreateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.CreateCategory(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// GetProductByID retrieves a product.
// GET /api/v1/admin/catalog/products/:id
func (h *Handler) GetProductByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetProductByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateProduct creates a product.
// POST /api/v1/admin/catalog/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var req transport.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.CreateProduct(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateProduct updates a product.
// PUT /api/v1/admin/catalog/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.UpdateProduct(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteProduct deletes a product.
// DELETE /api/v1/admin/catalog/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteProduct(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
