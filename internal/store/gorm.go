package store

import (
	"context"
	"errors"

	"github.com/emrgen/legaldoc/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateDocumentVersion(ctx context.Context, doc *model.DocumentVersion) error {
	return g.db.WithContext(ctx).Create(doc).Error
}

func (g *GormStore) GetDocumentVersion(ctx context.Context, id string) (*model.DocumentVersion, error) {
	var doc model.DocumentVersion
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (g *GormStore) SetDocumentVersionStatus(ctx context.Context, id string, status model.Status) error {
	res := g.db.WithContext(ctx).Model(&model.DocumentVersion{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionNotFound
	}
	return nil
}

func (g *GormStore) ListDocumentVersions(ctx context.Context, typ model.DocumentType, includeRemoved bool, offset, limit int) ([]*model.DocumentVersion, int64, error) {
	q := g.db.WithContext(ctx).Model(&model.DocumentVersion{}).Where("type = ?", typ)
	if !includeRemoved {
		q = q.Where("status <> ?", model.StatusRemoved)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []*model.DocumentVersion
	q = q.Order("version desc, created_at desc")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

func (g *GormStore) GetCurrentPointer(ctx context.Context, typ model.DocumentType) (*model.CurrentPointer, error) {
	var ptr model.CurrentPointer
	err := g.db.WithContext(ctx).Where("type = ?", typ).First(&ptr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ptr, nil
}

// CompareAndSwapPointer moves the pointer only when it still holds the
// expected value at the instant of the write. The three shapes (insert on
// first activation, conditional update, conditional delete for clearing) all
// report success through the affected row count.
func (g *GormStore) CompareAndSwapPointer(ctx context.Context, typ model.DocumentType, expectedVersionID, newVersionID string, newVersionNumber int64) (bool, error) {
	if newVersionID == "" {
		res := g.db.WithContext(ctx).
			Where("type = ? AND current_version_id = ?", typ, expectedVersionID).
			Delete(&model.CurrentPointer{})
		if res.Error != nil {
			return false, res.Error
		}
		return res.RowsAffected == 1, nil
	}

	if expectedVersionID == "" {
		res := g.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.CurrentPointer{
				Type:                 typ,
				CurrentVersionID:     newVersionID,
				CurrentVersionNumber: newVersionNumber,
			})
		if res.Error != nil {
			return false, res.Error
		}
		return res.RowsAffected == 1, nil
	}

	res := g.db.WithContext(ctx).Model(&model.CurrentPointer{}).
		Where("type = ? AND current_version_id = ?", typ, expectedVersionID).
		Updates(map[string]interface{}{
			"current_version_id":     newVersionID,
			"current_version_number": newVersionNumber,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
