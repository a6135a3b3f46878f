package handler

import (
	"context"
	"net/http"

	"storefront_backend/internal/search/transport"
	"storefront_backend/platform/httpkit"
	"storefront_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// SearchService is the behaviour the handlers need from the search service.
type SearchService interface {
	Search(ctx context.Context, req transport.SearchRequest) (*transport.SearchResponse, error)
	Suggest(ctx context.Context, req transport.SuggestRequest) ([]transport.Suggestion, error)
	Facets(ctx context.Context, req transport.FacetsRequest) (*transport.FacetsResponse, error)
	Health(ctx context.Context) (*transport.HealthResponse, bool)
	ReindexAll(ctx context.Context) (*transport.ReindexResponse, error)
}

type Handler struct {
	svc SearchService
	val *validator.Validator
}

func New(svc SearchService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the public storefront endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Search)
	rg.GET("/suggest", h.Suggest)
	rg.GET("/facets", h.Facets)
	rg.GET("/health", h.Health)
}

// RegisterAdminRoutes mounts privileged maintenance endpoints.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/reindex", h.Reindex)
}

func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Search(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Suggest(c *gin.Context) {
	var req transport.SuggestRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	result, err := h.svc.Suggest(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Facets(c *gin.Context) {
	var req transport.FacetsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	result, err := h.svc.Facets(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Health(c *gin.Context) {
	result, healthy := h.svc.Health(c.Request.Context())
	if !healthy {
		httpkit.JSON(c, http.StatusServiceUnavailable, result)
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Reindex(c *gin.Context) {
	result, err := h.svc.ReindexAll(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
