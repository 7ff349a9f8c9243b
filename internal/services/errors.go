package services

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Sentinel errors handlers map onto HTTP statuses
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadySettled      = errors.New("buzz already settled")
	ErrDuplicate           = errors.New("already exists")
)

// uniqueViolationCode is the postgres error code for unique_violation
const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a uniqueness-constraint violation.
// Checks the postgres error code, with a string fallback for the sqlite
// driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
