package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassUniqueViolation
	ErrorClassConstraint
	ErrorClassConnection
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return ErrorClassUniqueViolation
		case pqErr.Code == "23503", pqErr.Code == "23502", pqErr.Code == "23514", pqErr.Code == "22001":
			return ErrorClassConstraint
		case pqErr.Code.Class() == "08":
			return ErrorClassConnection
		}
	}

	if errors.Is(err, sql.ErrConnDone) {
		return ErrorClassConnection
	}

	return ErrorClassPermanent
}

func IsUniqueViolation(err error) bool {
	return ClassifyError(err) == ErrorClassUniqueViolation
}

// IsConnectionError reports a lost or refused database connection.
func IsConnectionError(err error) bool {
	return ClassifyError(err) == ErrorClassConnection
}

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("username or email already exists")
	ErrInvalidUser   = errors.New("user row rejected by table constraints")
)
