package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// reindexLockKey identifies the advisory lock serializing bulk rebuilds.
const reindexLockKey int64 = 0x53524348_49445831

const refreshDocumentQuery = `
	UPDATE catalog_products AS p
	SET search_document = ` + searchDocumentExpr + `
	WHERE p.id = $1`

const reindexAllQuery = `
	UPDATE catalog_products AS p
	SET search_document = ` + searchDocumentExpr

// RefreshDocument recomputes the searchable document of one product.
func (r *Repository) RefreshDocument(ctx context.Context, productID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, refreshDocumentQuery, productID)
	if err != nil {
		return fmt.Errorf("refresh search document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ReindexAll rebuilds every searchable document in a single transaction.
// It returns ErrReindexRunning without writing when another rebuild holds
// the lock.
func (r *Repository) ReindexAll(ctx context.Context) (ReindexResult, error) {
	start := time.Now()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ReindexResult{}, fmt.Errorf("begin reindex: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked bool
	if err := tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1)`, reindexLockKey).Scan(&locked); err != nil {
		return ReindexResult{}, fmt.Errorf("acquire reindex lock: %w", err)
	}
	if !locked {
		return ReindexResult{}, ErrReindexRunning
	}

	tag, err := tx.Exec(ctx, reindexAllQuery)
	if err != nil {
		return ReindexResult{}, fmt.Errorf("reindex search documents: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ReindexResult{}, fmt.Errorf("commit reindex: %w", err)
	}

	return ReindexResult{UpdatedCount: tag.RowsAffected(), Duration: time.Since(start)}, nil
}
