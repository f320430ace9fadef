// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"folio/internal/apperr"
)

// Postgres error codes we classify. Anything else is an internal error.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classify maps a Postgres constraint violation onto the application
// error taxonomy: unique violations become conflicts, foreign key
// violations become validation errors (the referenced row is missing).
// Other errors pass through unchanged.
func classify(err error, conflictMsg, fkMsg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Conflict(conflictMsg)
		case pgForeignKeyViolation:
			return apperr.Validation(fkMsg)
		}
	}
	return err
}
