package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATEs the repositories map; anything else is ErrorCodeDB
var pgCodes = map[string]ErrorCode{
	"23505": ErrorCodeDuplicateKey,    // unique_violation
	"23503": ErrorCodeInvalidArgument, // foreign_key_violation
	"22P02": ErrorCodeInvalidArgument, // invalid_text_representation, e.g. a bad uuid
	"23502": ErrorCodeValidation,      // not_null_violation
	"23514": ErrorCodeValidation,      // check_violation
	"57P03": ErrorCodeUnavailable,     // cannot_connect_now
}

// SQLSTATEs a transaction may be rerun for
var pgTransient = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57P03": true, // cannot_connect_now
}

// driver messages that mean the same when no SQLSTATE survived wrapping
var pgTransientText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"canceling statement due to lock timeout",
}

// PgError unwraps err to the server error, if there is one
func PgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	ok := stderrs.As(err, &pe)
	return pe, ok
}

// IsDuplicateKey reports a unique constraint violation
func IsDuplicateKey(err error) bool {
	pe, ok := PgError(err)
	return ok && pe.Code == "23505"
}

// IsNoRows reports a single-row read that found nothing
func IsNoRows(err error) bool { return stderrs.Is(err, pgx.ErrNoRows) || stderrs.Is(err, ErrNotFound) }

// DBErrorCode maps a server error to an ErrorCode. ok is false when err did
// not come from the server
func DBErrorCode(err error) (ErrorCode, bool) {
	pe, ok := PgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	if code, known := pgCodes[pe.Code]; known {
		return code, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with msg and a mapped code; pgx.ErrNoRows is NotFound
func FromPostgres(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case stderrs.Is(err, pgx.ErrNoRows):
		return Wrap(err, ErrorCodeNotFound, msg)
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// FromPostgresf is FromPostgres with a formatted message
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports a transient database failure. Context cancellation is
// never retryable
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pe, ok := PgError(err); ok {
		return pgTransient[pe.Code]
	}
	msg := strings.ToLower(Root(err).Error())
	for _, s := range pgTransientText {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
