package service

import (
	"context"
	"errors"

	"storefront_backend/internal/search/cursor"
	"storefront_backend/platform/apperr"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	reasonMalformed         = "malformed"
	reasonQueryMismatch     = "query_mismatch"
	reasonMissingCapability = "missing_capability"
	reasonTimeout           = "timeout"
	reasonTransient         = "transient"
)

// missingCapabilityCodes are Postgres errors raised when an extension,
// function, table or column search relies on is not installed.
var missingCapabilityCodes = map[string]struct{}{
	"42883": {}, // undefined_function
	"42P01": {}, // undefined_table
	"42703": {}, // undefined_column
	"42704": {}, // undefined_object
}

func reasonDetails(reason string) map[string]string {
	return map[string]string{"reason": reason}
}

// classifyStoreError maps a store failure onto the HTTP-facing error kinds.
func classifyStoreError(op string, err error) *apperr.Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindUnavailable, "search timed out", err).WithOp(op).WithDetails(reasonDetails(reasonTimeout))
	case isMissingCapability(err):
		return apperr.Wrap(apperr.KindUnavailable, "search capability unavailable", err).WithOp(op).WithDetails(reasonDetails(reasonMissingCapability))
	default:
		return apperr.Wrap(apperr.KindInternal, "search failed", err).WithOp(op).WithDetails(reasonDetails(reasonTransient))
	}
}

func isMissingCapability(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	_, ok := missingCapabilityCodes[pgErr.Code]
	return ok
}

func cursorError(op string, err error) *apperr.Error {
	reason := reasonMalformed
	if errors.Is(err, cursor.ErrMismatch) {
		reason = reasonQueryMismatch
	}
	return apperr.Wrap(apperr.KindValidation, "invalid cursor", err).WithOp(op).WithDetails(reasonDetails(reason))
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.GetKind(err) {
	case apperr.KindValidation:
		return "invalid"
	case apperr.KindUnavailable:
		return "unavailable"
	case apperr.KindConflict:
		return "conflict"
	default:
		return "error"
	}
}
