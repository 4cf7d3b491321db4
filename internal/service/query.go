package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/emrgen/legaldoc/internal/cache"
	"github.com/emrgen/legaldoc/internal/model"
	"github.com/emrgen/legaldoc/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NewQueryService creates a new QueryService.
func NewQueryService(store store.Store, cache *cache.Redis) *QueryService {
	return &QueryService{
		store: store,
		cache: cache,
	}
}

// QueryService serves read-only projections of the version tables. It
// enforces no invariants; the lifecycle side is the sole writer of truth.
type QueryService struct {
	store store.Store
	cache *cache.Redis
}

// HistoryPage is one page of a type's version history, newest version first.
type HistoryPage struct {
	Versions []*model.DocumentVersion
	Total    int64
	Page     int
	PageSize int
}

// GetCurrent returns the version in legal effect for a type, or nil when no
// version has been activated yet.
func (q *QueryService) GetCurrent(ctx context.Context, typ model.DocumentType) (*model.DocumentVersion, error) {
	if q.cache != nil {
		doc, err := q.cache.GetDocument(ctx, cache.CurrentKey(typ))
		if err != nil {
			logrus.Errorf("error reading current %s from cache: %v", typ, err)
		} else if doc != nil {
			return doc, nil
		}
	}

	ptr, err := q.store.GetCurrentPointer(ctx, typ)
	if err != nil {
		return nil, storageErr(err)
	}
	if ptr == nil {
		return nil, nil
	}

	doc, err := q.store.GetDocumentVersion(ctx, ptr.CurrentVersionID)
	if err != nil {
		return nil, storageErr(err)
	}

	decoded, err := decodeContent(doc)
	if err != nil {
		return nil, err
	}

	if q.cache != nil {
		if err := q.cache.SetDocument(ctx, cache.CurrentKey(typ), decoded); err != nil {
			logrus.Errorf("error caching current %s: %v", typ, err)
		}
	}

	return decoded, nil
}

// GetVersion returns a single version row by id.
func (q *QueryService) GetVersion(ctx context.Context, id string) (*model.DocumentVersion, error) {
	doc, err := q.store.GetDocumentVersion(ctx, id)
	if errors.Is(err, store.ErrVersionNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return decodeContent(doc)
}

// GetHistory pages through a type's versions ordered newest first. Removed
// versions stay visible when includeRemoved is set; they never disappear from
// storage.
func (q *QueryService) GetHistory(ctx context.Context, typ model.DocumentType, includeRemoved bool, page, pageSize int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	docs, total, err := q.store.ListDocumentVersions(ctx, typ, includeRemoved, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, storageErr(err)
	}

	versions := make([]*model.DocumentVersion, 0, len(docs))
	for _, doc := range docs {
		decoded, err := decodeContent(doc)
		if err != nil {
			return nil, err
		}
		versions = append(versions, decoded)
	}

	return &HistoryPage{
		Versions: versions,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetChain walks a version's ancestry back to the chain root, newest first.
// Used for audit display.
func (q *QueryService) GetChain(ctx context.Context, versionID string) ([]*model.DocumentVersion, error) {
	var chain []*model.DocumentVersion

	id := versionID
	for id != "" {
		doc, err := q.store.GetDocumentVersion(ctx, id)
		if errors.Is(err, store.ErrVersionNotFound) {
			if len(chain) == 0 {
				return nil, ErrNotFound
			}
			// a broken link mid-chain means corrupted storage, not bad input
			return nil, storageErr(err)
		}
		if err != nil {
			return nil, storageErr(err)
		}

		decoded, err := decodeContent(doc)
		if err != nil {
			return nil, err
		}
		chain = append(chain, decoded)

		if doc.PreviousVersionID == nil {
			break
		}
		id = *doc.PreviousVersionID
	}

	return chain, nil
}
