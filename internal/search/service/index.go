package service

import (
	"context"
	"errors"
	"time"

	"storefront_backend/internal/events"
	"storefront_backend/internal/search/repository"
	"storefront_backend/internal/search/transport"
	"storefront_backend/platform/apperr"
	"storefront_backend/platform/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	opIndex   = "search.IndexProduct"
	opReindex = "search.Reindex"
)

// IndexProduct recomputes the searchable document of one product. It is
// idempotent; callers decide whether a failure is retried later.
func (s *Service) IndexProduct(ctx context.Context, productID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	err := s.store.RefreshDocument(ctx, productID)
	switch {
	case err == nil:
		metrics.IndexRefreshTotal.WithLabelValues("ok").Inc()
		return nil
	case errors.Is(err, repository.ErrProductNotFound):
		metrics.IndexRefreshTotal.WithLabelValues("failed").Inc()
		return apperr.NotFound("product not found").WithOp(opIndex)
	default:
		metrics.IndexRefreshTotal.WithLabelValues("failed").Inc()
		return classifyStoreError(opIndex, err)
	}
}

// ReindexAll rebuilds every searchable document in one bulk operation. Any
// failure is returned as is; nothing partial is committed.
func (s *Service) ReindexAll(ctx context.Context) (*transport.ReindexResponse, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, opReindex)
	defer span.End()

	reindexCtx, cancel := context.WithTimeout(ctx, s.reindexTimeout)
	defer cancel()

	result, err := s.store.ReindexAll(reindexCtx)
	if err != nil {
		var appErr *apperr.Error
		if errors.Is(err, repository.ErrReindexRunning) {
			appErr = apperr.Conflict("reindex already running").WithOp(opReindex)
		} else {
			appErr = classifyStoreError(opReindex, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "reindex failed")
		observe(opReindex, outcome(appErr), start, 0)
		if s.log != nil {
			s.log.Error("search reindex failed", "error", err)
		}
		return nil, appErr
	}

	resp := &transport.ReindexResponse{
		UpdatedCount: result.UpdatedCount,
		DurationMs:   result.Duration.Milliseconds(),
	}
	span.SetAttributes(
		attribute.Int64("updated_count", resp.UpdatedCount),
		attribute.Int64("duration_ms", resp.DurationMs),
	)
	observe(opReindex, "ok", start, 0)
	if s.log != nil {
		s.log.Info("search reindex complete", "updatedCount", resp.UpdatedCount, "durationMs", resp.DurationMs)
	}

	s.publish(ctx, events.SearchReindexed{
		BaseEvent:    events.NewBaseEvent(),
		UpdatedCount: resp.UpdatedCount,
		DurationMs:   resp.DurationMs,
	})
	return resp, nil
}
