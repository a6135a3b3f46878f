package adapters

import (
	"context"
	"strings"

	"storefront_backend/internal/adapters/storage"
	searchsvc "storefront_backend/internal/search/service"
	"storefront_backend/platform/logger"
)

// ProductImageResolver turns stored primary image keys into URLs a browser
// can load. Keys that already are absolute URLs pass through unchanged.
type ProductImageResolver struct {
	storage storage.StorageService
	bucket  string
	log     *logger.Logger
}

// NewProductImageResolver creates a new image resolver. storageSvc may be nil
// when object storage is not configured.
func NewProductImageResolver(storageSvc storage.StorageService, bucket string, log *logger.Logger) *ProductImageResolver {
	return &ProductImageResolver{storage: storageSvc, bucket: bucket, log: log}
}

// ResolveImageURL returns a presigned URL for the key, or "" when none can be produced.
func (r *ProductImageResolver) ResolveImageURL(ctx context.Context, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if isAbsoluteURL(key) {
		return key
	}
	if r.storage == nil {
		return ""
	}

	presigned, err := r.storage.GenerateDownloadURL(ctx, r.bucket, key)
	if err != nil {
		if r.log != nil {
			r.log.Warn("product image presign failed", "key", key, "error", err)
		}
		return ""
	}
	return presigned.URL
}

func isAbsoluteURL(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://")
}

// Compile-time check that ProductImageResolver implements search/service.ImageURLResolver.
var _ searchsvc.ImageURLResolver = (*ProductImageResolver)(nil)
