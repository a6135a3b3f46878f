package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront_backend/internal/search/transport"
	"storefront_backend/platform/apperr"
	"storefront_backend/platform/config"
	"storefront_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// SearchIndexer is the part of the search service the worker drives.
type SearchIndexer interface {
	IndexProduct(ctx context.Context, productID uuid.UUID) error
	ReindexAll(ctx context.Context) (*transport.ReindexResponse, error)
}

type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	indexer   SearchIndexer
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, indexer SearchIndexer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := queueName(cfg)
	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	var periodic *asynq.Scheduler
	if cronSpec := cfg.GetSearchReindexCron(); cronSpec != "" {
		periodic = asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})
		if _, err := periodic.Register(cronSpec, NewReindexTask(), asynq.Queue(queue), asynq.MaxRetry(0)); err != nil {
			return nil, fmt.Errorf("register reindex schedule %q: %w", cronSpec, err)
		}
	}

	w := newWorker(indexer, log)
	w.server = server
	w.scheduler = periodic
	return w, nil
}

func newWorker(indexer SearchIndexer, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:     mux,
		indexer: indexer,
		log:     log,
	}

	mux.HandleFunc(TaskSearchIndexRefresh, w.handleIndexRefresh)
	mux.HandleFunc(TaskSearchReindex, w.handleReindex)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			w.log.Error("reindex scheduler failed to start", "error", err)
		} else {
			defer w.scheduler.Shutdown()
		}
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleIndexRefresh(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseIndexRefreshPayload(task)
	if err != nil {
		return fmt.Errorf("parse index refresh payload: %v: %w", err, asynq.SkipRetry)
	}

	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product id %q: %w", payload.ProductID, asynq.SkipRetry)
	}

	err = w.indexer.IndexProduct(ctx, productID)
	if isKind(err, apperr.KindNotFound) {
		w.log.Info("index refresh skipped, product gone", "productId", productID)
		return fmt.Errorf("product %s not found: %w", productID, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	w.log.Info("index refresh completed", "productId", productID)
	return nil
}

func (w *Worker) handleReindex(ctx context.Context, _ *asynq.Task) error {
	result, err := w.indexer.ReindexAll(ctx)
	if isKind(err, apperr.KindConflict) {
		w.log.Info("scheduled reindex skipped, another run holds the lock")
		return nil
	}
	if err != nil {
		return err
	}

	w.log.Info("scheduled reindex completed", "updated", result.UpdatedCount, "durationMs", result.DurationMs)
	return nil
}

func isKind(err error, kind apperr.Kind) bool {
	var appErr *apperr.Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
