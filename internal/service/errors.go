package service

import "errors"

var (
	// ErrValidation is returned when title, content or effective date break the document field rules.
	ErrValidation = errors.New("invalid document fields")
	// ErrNotFound is returned when a referenced version id does not exist.
	ErrNotFound = errors.New("document version not found")
	// ErrForbiddenTransition is returned when a removed version is activated or revised.
	ErrForbiddenTransition = errors.New("removed versions cannot be activated or revised")
	// ErrConflict is returned when the current pointer moved under a concurrent operation.
	ErrConflict = errors.New("document changed concurrently, refetch and retry")
	// ErrStorageUnavailable is returned when the underlying store failed.
	ErrStorageUnavailable = errors.New("document storage unavailable")
)
