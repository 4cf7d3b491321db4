package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/legaldoc/internal/cache"
	"github.com/emrgen/legaldoc/internal/compress"
	"github.com/emrgen/legaldoc/internal/metrics"
	"github.com/emrgen/legaldoc/internal/model"
	"github.com/emrgen/legaldoc/internal/store"
)

// maxSwapAttempts bounds the pointer swap retries of a single operation.
// Losers past this budget surface ErrConflict to the caller.
const maxSwapAttempts = 3

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(compress compress.Compress, store store.Store, cache *cache.Redis, metrics *metrics.Metrics) *LifecycleService {
	return &LifecycleService{
		compress: compress,
		store:    store,
		cache:    cache,
		metrics:  metrics,
	}
}

// LifecycleService owns every status transition and pointer swap. Reads go
// through QueryService; nothing else writes the two tables.
type LifecycleService struct {
	compress compress.Compress
	store    store.Store
	cache    *cache.Redis
	metrics  *metrics.Metrics
}

// Create starts a new chain for a type and promotes the new version to
// current, demoting whatever was in effect before. On swap exhaustion the
// inserted row is kept for audit but demoted to NOT_CURRENT.
func (l *LifecycleService) Create(ctx context.Context, typ model.DocumentType, title, content string, effectiveDate time.Time) (*model.DocumentVersion, error) {
	if err := validateDocumentFields(title, content, effectiveDate, time.Now()); err != nil {
		return nil, err
	}

	encoded, err := l.compress.Encode([]byte(content))
	if err != nil {
		return nil, err
	}

	doc := &model.DocumentVersion{
		ID:            uuid.New().String(),
		Type:          typ,
		Title:         title,
		Content:       string(encoded),
		Compression:   l.compress.Name(),
		Version:       1,
		EffectiveDate: effectiveDate,
		Status:        model.StatusCurrent,
	}

	if err := l.store.CreateDocumentVersion(ctx, doc); err != nil {
		return nil, storageErr(err)
	}

	if err := l.promote(ctx, doc); err != nil {
		l.countConflict("create")
		return nil, err
	}

	l.invalidateCurrent(ctx, typ)
	l.countOp("create", typ)

	return withContent(doc, content), nil
}

// ReviseContent appends a new version on top of the revised one. The swap is
// pinned to the revised row's id: once the pointer has moved elsewhere the
// revision deterministically loses with ErrConflict, because the caller was
// editing text that is no longer in effect.
func (l *LifecycleService) ReviseContent(ctx context.Context, currentVersionID, title, content string, effectiveDate time.Time) (*model.DocumentVersion, error) {
	old, err := l.getVersion(ctx, currentVersionID)
	if err != nil {
		return nil, err
	}
	if old.Status == model.StatusRemoved {
		return nil, ErrForbiddenTransition
	}

	if err := validateDocumentFields(title, content, effectiveDate, time.Now()); err != nil {
		return nil, err
	}

	encoded, err := l.compress.Encode([]byte(content))
	if err != nil {
		return nil, err
	}

	doc := &model.DocumentVersion{
		ID:                uuid.New().String(),
		Type:              old.Type,
		Title:             title,
		Content:           string(encoded),
		Compression:       l.compress.Name(),
		Version:           old.Version + 1,
		EffectiveDate:     effectiveDate,
		Status:            model.StatusCurrent,
		PreviousVersionID: &old.ID,
	}

	if err := l.store.CreateDocumentVersion(ctx, doc); err != nil {
		return nil, storageErr(err)
	}

	swapped := false
	err = l.store.Transaction(ctx, func(tx store.Store) error {
		ok, err := tx.CompareAndSwapPointer(ctx, old.Type, old.ID, doc.ID, doc.Version)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		swapped = true
		return demoteIfLive(ctx, tx, old.ID)
	})
	if err != nil {
		return nil, storageErr(err)
	}

	if !swapped {
		logrus.Warnf("revision of %s lost the pointer for %s", old.ID, old.Type)
		if err := l.store.SetDocumentVersionStatus(ctx, doc.ID, model.StatusNotCurrent); err != nil {
			return nil, storageErr(err)
		}
		l.countConflict("revise")
		return nil, ErrConflict
	}

	l.invalidateCurrent(ctx, old.Type)
	l.countOp("revise", old.Type)

	return withContent(doc, content), nil
}

// Activate puts an existing live version back into effect. Activating the
// version already in effect is a no-op success.
func (l *LifecycleService) Activate(ctx context.Context, targetVersionID string) (*model.DocumentVersion, error) {
	target, err := l.getVersion(ctx, targetVersionID)
	if err != nil {
		return nil, err
	}
	if target.Status == model.StatusRemoved {
		return nil, ErrForbiddenTransition
	}

	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		ptr, err := l.store.GetCurrentPointer(ctx, target.Type)
		if err != nil {
			return nil, storageErr(err)
		}

		expected := ""
		if ptr != nil {
			expected = ptr.CurrentVersionID
		}

		if expected == target.ID {
			// already in effect; heal the status if it drifted
			if target.Status != model.StatusCurrent {
				if err := l.store.SetDocumentVersionStatus(ctx, target.ID, model.StatusCurrent); err != nil {
					return nil, storageErr(err)
				}
				target.Status = model.StatusCurrent
			}
			return decodeContent(target)
		}

		swapped := false
		err = l.store.Transaction(ctx, func(tx store.Store) error {
			ok, err := tx.CompareAndSwapPointer(ctx, target.Type, expected, target.ID, target.Version)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			swapped = true
			if err := tx.SetDocumentVersionStatus(ctx, target.ID, model.StatusCurrent); err != nil {
				return err
			}
			if expected != "" {
				return demoteIfLive(ctx, tx, expected)
			}
			return nil
		})
		if err != nil {
			return nil, storageErr(err)
		}

		if swapped {
			target.Status = model.StatusCurrent
			l.invalidateCurrent(ctx, target.Type)
			l.countOp("activate", target.Type)
			return decodeContent(target)
		}

		logrus.Warnf("pointer for %s moved during activate of %s, retrying (%d/%d)", target.Type, target.ID, attempt+1, maxSwapAttempts)
		l.countRetry()
	}

	l.countConflict("activate")
	return nil, ErrConflict
}

// SoftDelete marks a version REMOVED and keeps the row for audit. Deleting the
// version in effect clears the pointer; if a concurrent activation already
// moved the pointer the clear loses, which is the desired outcome.
func (l *LifecycleService) SoftDelete(ctx context.Context, versionID string) error {
	doc, err := l.getVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if doc.Status == model.StatusRemoved {
		return nil
	}

	wasCurrent := doc.Status == model.StatusCurrent
	err = l.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.SetDocumentVersionStatus(ctx, doc.ID, model.StatusRemoved); err != nil {
			return err
		}
		if wasCurrent {
			if _, err := tx.CompareAndSwapPointer(ctx, doc.Type, doc.ID, "", 0); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr(err)
	}

	l.invalidateCurrent(ctx, doc.Type)
	l.countOp("soft_delete", doc.Type)
	return nil
}

// promote swaps the pointer for a freshly created version, re-reading the live
// value between attempts. The new version wins over whatever is in effect.
func (l *LifecycleService) promote(ctx context.Context, doc *model.DocumentVersion) error {
	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		ptr, err := l.store.GetCurrentPointer(ctx, doc.Type)
		if err != nil {
			return storageErr(err)
		}

		expected := ""
		if ptr != nil {
			expected = ptr.CurrentVersionID
		}

		swapped := false
		err = l.store.Transaction(ctx, func(tx store.Store) error {
			ok, err := tx.CompareAndSwapPointer(ctx, doc.Type, expected, doc.ID, doc.Version)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			swapped = true
			if expected != "" && expected != doc.ID {
				return demoteIfLive(ctx, tx, expected)
			}
			return nil
		})
		if err != nil {
			return storageErr(err)
		}
		if swapped {
			return nil
		}

		logrus.Warnf("pointer for %s moved during create, retrying (%d/%d)", doc.Type, attempt+1, maxSwapAttempts)
		l.countRetry()
	}

	if err := l.store.SetDocumentVersionStatus(ctx, doc.ID, model.StatusNotCurrent); err != nil {
		return storageErr(err)
	}
	return ErrConflict
}

func (l *LifecycleService) getVersion(ctx context.Context, id string) (*model.DocumentVersion, error) {
	doc, err := l.store.GetDocumentVersion(ctx, id)
	if errors.Is(err, store.ErrVersionNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return doc, nil
}

func (l *LifecycleService) invalidateCurrent(ctx context.Context, typ model.DocumentType) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Delete(ctx, cache.CurrentKey(typ)); err != nil {
		logrus.Errorf("error invalidating cache for %s: %v", typ, err)
	}
}

func (l *LifecycleService) countOp(op string, typ model.DocumentType) {
	if l.metrics != nil {
		l.metrics.Operations.WithLabelValues(op, string(typ)).Inc()
	}
}

func (l *LifecycleService) countConflict(op string) {
	if l.metrics != nil {
		l.metrics.Conflicts.WithLabelValues(op).Inc()
	}
}

func (l *LifecycleService) countRetry() {
	if l.metrics != nil {
		l.metrics.SwapRetries.Inc()
	}
}

// demoteIfLive moves a previously current row to NOT_CURRENT, leaving REMOVED
// rows untouched.
func demoteIfLive(ctx context.Context, tx store.Store, id string) error {
	prev, err := tx.GetDocumentVersion(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrVersionNotFound) {
			return nil
		}
		return err
	}
	if prev.Status == model.StatusCurrent {
		return tx.SetDocumentVersionStatus(ctx, id, model.StatusNotCurrent)
	}
	return nil
}

// decodeContent returns a copy of doc with its content decoded from the
// storage codec recorded on the row.
func decodeContent(doc *model.DocumentVersion) (*model.DocumentVersion, error) {
	codec, err := compress.FromName(doc.Compression)
	if err != nil {
		return nil, err
	}

	data, err := codec.Decode([]byte(doc.Content))
	if err != nil {
		return nil, err
	}

	return withContent(doc, string(data)), nil
}

func withContent(doc *model.DocumentVersion, content string) *model.DocumentVersion {
	out := *doc
	out.Content = content
	return &out
}

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	logrus.Errorf("storage error: %v", err)
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
