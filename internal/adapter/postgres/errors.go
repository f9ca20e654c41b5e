package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/wikibox/internal/domain"
)

// MapError converts pgx/pgconn errors to domain errors, prefixed with the
// entity and key. Context errors pass through unchanged.
func MapError(err error, entity string, key any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, key, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, key, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %v: %w", entity, key, domain.ErrNotFound)
		case "23505", "23514": // unique_violation, check_violation
			return fmt.Errorf("%s %v: %w: %s", entity, key, domain.ErrValidation, pgErr.Message)
		}
	}

	return fmt.Errorf("%s %v: %w", entity, key, err)
}
