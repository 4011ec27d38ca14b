package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// isRetryable reports deadlocks (40P01) and serialization failures (40001).
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}
