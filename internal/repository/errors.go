package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrDuplicatePair   = errors.New("connection request already exists for this pair")
	ErrRequestNotFound = errors.New("connection request not found")
	ErrChatNotFound    = errors.New("chat not found")
	ErrNotParticipant  = errors.New("chat not found or sender is not a participant")
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique_violation,
// optionally restricted to one constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
