package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the users.email unique index rejects a write.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrStaleVersion is returned when a versioned update lost a race.
	ErrStaleVersion = errors.New("record was modified concurrently")
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// mapNoRows turns lookup misses into ErrNotFound. An id that is not a valid
// uuid fails the cast in postgres and can never match a row, so it counts too.
func mapNoRows(err error) error {
	var pgErr *pgconn.PgError
	if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation) {
		return ErrNotFound
	}
	return err
}
