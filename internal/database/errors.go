package database

import (
	"errors"
	"fmt"
)

// Store failures. Every error returned by the storage layer wraps one of these.
var (
	ErrNotFound      = errors.New("not found")
	ErrOpenFailed    = errors.New("open failed")
	ErrPrepareFailed = errors.New("prepare failed")
	ErrQueryFailed   = errors.New("query failed")
	ErrReadOnly      = errors.New("store is read-only")
)

// QueryError wraps a driver failure of operation op
func QueryError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrQueryFailed, err)
}

// PrepareError wraps a statement that could not be built
func PrepareError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPrepareFailed, err)
}

// NotFoundError reports a missing row or file
func NotFoundError(op, what string) error {
	return fmt.Errorf("%s: %s: %w", op, what, ErrNotFound)
}
