// Package apperr defines the error kinds shared across the ledger.
//
// Components wrap one of these kinds together with a more specific error,
// e.g. fmt.Errorf("%w: %w", apperr.ErrSecurity, ErrPathTraversal), so callers
// can match either the broad kind or the exact failure.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrSecurity      = errors.New("rejected")
	ErrCancelled     = errors.New("cancelled")
)
