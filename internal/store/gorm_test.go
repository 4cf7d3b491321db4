package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrgen/legaldoc/internal/model"
	"github.com/emrgen/legaldoc/internal/store"
	"github.com/emrgen/legaldoc/internal/tester"
)

func newStore(t *testing.T) *store.GormStore {
	t.Helper()
	tester.Setup()
	return store.NewGormStore(tester.TestDB())
}

func newVersion(typ model.DocumentType, version int64) *model.DocumentVersion {
	return &model.DocumentVersion{
		ID:            uuid.New().String(),
		Type:          typ,
		Title:         "Some document title",
		Content:       "Some document content body.",
		Compression:   "nop",
		Version:       version,
		EffectiveDate: time.Now().AddDate(0, 0, 10),
		Status:        model.StatusCurrent,
	}
}

func TestGormStore_CompareAndSwapPointer_Insert(t *testing.T) {
	docStore := newStore(t)
	ctx := context.TODO()

	v1 := newVersion(model.TypePolicy, 1)
	require.NoError(t, docStore.CreateDocumentVersion(ctx, v1))

	// first swap inserts
	ok, err := docStore.CompareAndSwapPointer(ctx, model.TypePolicy, "", v1.ID, v1.Version)
	require.NoError(t, err)
	assert.True(t, ok)

	// a second insert-shaped swap loses without erroring
	v2 := newVersion(model.TypePolicy, 1)
	require.NoError(t, docStore.CreateDocumentVersion(ctx, v2))
	ok, err = docStore.CompareAndSwapPointer(ctx, model.TypePolicy, "", v2.ID, v2.Version)
	require.NoError(t, err)
	assert.False(t, ok)

	ptr, err := docStore.GetCurrentPointer(ctx, model.TypePolicy)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.Equal(t, v1.ID, ptr.CurrentVersionID)
}

func TestGormStore_CompareAndSwapPointer_Update(t *testing.T) {
	docStore := newStore(t)
	ctx := context.TODO()

	v1 := newVersion(model.TypeTerms, 1)
	v2 := newVersion(model.TypeTerms, 2)
	require.NoError(t, docStore.CreateDocumentVersion(ctx, v1))
	require.NoError(t, docStore.CreateDocumentVersion(ctx, v2))

	ok, err := docStore.CompareAndSwapPointer(ctx, model.TypeTerms, "", v1.ID, v1.Version)
	require.NoError(t, err)
	require.True(t, ok)

	// stale expectation loses
	ok, err = docStore.CompareAndSwapPointer(ctx, model.TypeTerms, v2.ID, v1.ID, v1.Version)
	require.NoError(t, err)
	assert.False(t, ok)

	// matching expectation wins
	ok, err = docStore.CompareAndSwapPointer(ctx, model.TypeTerms, v1.ID, v2.ID, v2.Version)
	require.NoError(t, err)
	assert.True(t, ok)

	ptr, err := docStore.GetCurrentPointer(ctx, model.TypeTerms)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.Equal(t, v2.ID, ptr.CurrentVersionID)
	assert.Equal(t, int64(2), ptr.CurrentVersionNumber)
}

func TestGormStore_CompareAndSwapPointer_Clear(t *testing.T) {
	docStore := newStore(t)
	ctx := context.TODO()

	v1 := newVersion(model.TypeDisclaimer, 1)
	require.NoError(t, docStore.CreateDocumentVersion(ctx, v1))

	ok, err := docStore.CompareAndSwapPointer(ctx, model.TypeDisclaimer, "", v1.ID, v1.Version)
	require.NoError(t, err)
	require.True(t, ok)

	// clearing with the wrong expectation is a no-op
	ok, err = docStore.CompareAndSwapPointer(ctx, model.TypeDisclaimer, uuid.New().String(), "", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = docStore.CompareAndSwapPointer(ctx, model.TypeDisclaimer, v1.ID, "", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ptr, err := docStore.GetCurrentPointer(ctx, model.TypeDisclaimer)
	require.NoError(t, err)
	assert.Nil(t, ptr)
}

func TestGormStore_SetDocumentVersionStatus(t *testing.T) {
	docStore := newStore(t)
	ctx := context.TODO()

	v1 := newVersion(model.TypePolicy, 1)
	require.NoError(t, docStore.CreateDocumentVersion(ctx, v1))

	require.NoError(t, docStore.SetDocumentVersionStatus(ctx, v1.ID, model.StatusRemoved))

	got, err := docStore.GetDocumentVersion(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRemoved, got.Status)

	err = docStore.SetDocumentVersionStatus(ctx, uuid.New().String(), model.StatusCurrent)
	assert.ErrorIs(t, err, store.ErrVersionNotFound)
}

func TestGormStore_ListDocumentVersions(t *testing.T) {
	docStore := newStore(t)
	ctx := context.TODO()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, docStore.CreateDocumentVersion(ctx, newVersion(model.TypeTerms, i)))
	}

	docs, total, err := docStore.ListDocumentVersions(ctx, model.TypeTerms, true, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(3), docs[0].Version)
	assert.Equal(t, int64(2), docs[1].Version)
}
