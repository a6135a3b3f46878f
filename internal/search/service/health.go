package service

import (
	"context"

	"storefront_backend/internal/search/transport"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// Health reports whether the store provides every capability search needs.
// The bool is false when the subsystem cannot serve requests.
func (s *Service) Health(ctx context.Context) (*transport.HealthResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	missing, err := s.store.MissingCapabilities(ctx)
	if err != nil {
		if s.log != nil {
			s.log.Warn("search health check failed", "error", err)
		}
		return &transport.HealthResponse{Status: statusUnhealthy, Reason: "store unreachable"}, false
	}
	if len(missing) > 0 {
		return &transport.HealthResponse{Status: statusUnhealthy, Missing: missing}, false
	}
	return &transport.HealthResponse{Status: statusHealthy}, true
}
