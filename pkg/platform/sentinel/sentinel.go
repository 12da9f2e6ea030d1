package sentinel

import "errors"

// Sentinel dependency errors. Stores and adapters return these (optionally
// wrapped) so services translate them into domain errors exactly once.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrReadOnly     = errors.New("read only")
)
