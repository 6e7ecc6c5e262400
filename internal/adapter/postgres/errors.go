package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

// SQLSTATE codes with a domain meaning.
var pgCodes = map[string]error{
	"23505": domain.ErrAlreadyExists, // unique_violation
	"23514": domain.ErrValidation,    // check_violation
	"40001": domain.ErrConflict,      // serialization_failure
}

// MapError labels err with the entity and id and translates pgx errors into
// domain sentinels. Context errors keep their identity.
func MapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	mapped := err
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		mapped = domain.ErrNotFound
	case errors.As(err, &pgErr):
		if sentinel, ok := pgCodes[pgErr.Code]; ok {
			mapped = sentinel
		}
	}
	return fmt.Errorf("%s %s: %w", entity, id, mapped)
}
