package store

import (
	"context"
	"errors"

	"github.com/emrgen/legaldoc/internal/model"
)

var (
	// ErrVersionNotFound is returned when a document version id does not exist.
	ErrVersionNotFound = errors.New("document version not found")
)

type Store interface {
	DocumentVersionStore
	CurrentPointerStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type DocumentVersionStore interface {
	// CreateDocumentVersion appends a new version row.
	CreateDocumentVersion(ctx context.Context, doc *model.DocumentVersion) error
	// GetDocumentVersion retrieves a version by id.
	GetDocumentVersion(ctx context.Context, id string) (*model.DocumentVersion, error)
	// SetDocumentVersionStatus updates the lifecycle status of a version.
	// It performs no invariant checking of its own.
	SetDocumentVersionStatus(ctx context.Context, id string, status model.Status) error
	// ListDocumentVersions retrieves versions of a type ordered by version
	// descending, with the total row count for the same filter.
	ListDocumentVersions(ctx context.Context, typ model.DocumentType, includeRemoved bool, offset, limit int) ([]*model.DocumentVersion, int64, error)
}

type CurrentPointerStore interface {
	// GetCurrentPointer returns the pointer row for a type, or nil when no
	// version is in effect.
	GetCurrentPointer(ctx context.Context, typ model.DocumentType) (*model.CurrentPointer, error)
	// CompareAndSwapPointer conditionally moves the pointer for a type. An
	// empty expectedVersionID asserts that no pointer row exists yet; an empty
	// newVersionID clears the pointer. It reports whether the swap happened,
	// and has no effect when it did not.
	CompareAndSwapPointer(ctx context.Context, typ model.DocumentType, expectedVersionID, newVersionID string, newVersionNumber int64) (bool, error)
}
