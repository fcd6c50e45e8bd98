package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. When constraintName is provided, the helper also
// requires the constraint text to appear in the error.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	matched := false

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		matched = pgErr.Code == pgUniqueViolation
	} else {
		// sqlite (local dev) and simple-protocol errors only carry text.
		matched = strings.Contains(msg, "duplicate key value") ||
			strings.Contains(msg, "UNIQUE constraint failed")
	}

	if matched && constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return matched
}
