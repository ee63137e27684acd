package storage

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	// uniqueViolation is the Postgres error code for a unique constraint breach.
	uniqueViolation = "23505"
	// serializationFailure is raised when serializable transactions conflict
	// and one must be retried.
	serializationFailure = "40001"
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, regardless of which driver surfaced it.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// IsSerializationFailure reports whether err is a serializable-isolation
// conflict that is safe to retry on a fresh transaction.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == serializationFailure
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == serializationFailure
	}
	return false
}
