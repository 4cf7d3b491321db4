package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrgen/legaldoc/internal/compress"
	"github.com/emrgen/legaldoc/internal/model"
	"github.com/emrgen/legaldoc/internal/store"
	"github.com/emrgen/legaldoc/internal/tester"
)

func newServices(t *testing.T) (*LifecycleService, *QueryService, store.Store) {
	t.Helper()
	tester.Setup()

	docStore := store.NewGormStore(tester.TestDB())
	lifecycle := NewLifecycleService(compress.NewNop(), docStore, nil, nil)
	query := NewQueryService(docStore, nil)

	return lifecycle, query, docStore
}

func validDate() time.Time {
	return time.Now().AddDate(0, 0, 10)
}

// assertSingleCurrent checks the core guarantee: at most one CURRENT version
// per type, and the pointer agrees with it.
func assertSingleCurrent(t *testing.T, docStore store.Store, typ model.DocumentType) {
	t.Helper()
	ctx := context.TODO()

	docs, _, err := docStore.ListDocumentVersions(ctx, typ, true, 0, 0)
	require.NoError(t, err)

	var current []*model.DocumentVersion
	for _, doc := range docs {
		if doc.Status == model.StatusCurrent {
			current = append(current, doc)
		}
	}
	require.LessOrEqual(t, len(current), 1, "more than one CURRENT version for %s", typ)

	ptr, err := docStore.GetCurrentPointer(ctx, typ)
	require.NoError(t, err)

	if len(current) == 0 {
		assert.Nil(t, ptr, "pointer set for %s but no CURRENT version", typ)
		return
	}
	require.NotNil(t, ptr, "CURRENT version for %s but no pointer", typ)
	assert.Equal(t, current[0].ID, ptr.CurrentVersionID)
	assert.Equal(t, current[0].Version, ptr.CurrentVersionNumber)
}

func TestLifecycleService_Create(t *testing.T) {
	lifecycle, query, docStore := newServices(t)
	ctx := context.TODO()

	doc, err := lifecycle.Create(ctx, model.TypePolicy, "Privacy Policy", "We collect the following data...", validDate())
	require.NoError(t, err)

	assert.Equal(t, int64(1), doc.Version)
	assert.Equal(t, model.StatusCurrent, doc.Status)
	assert.Nil(t, doc.PreviousVersionID)
	assert.Equal(t, "We collect the following data...", doc.Content)

	got, err := query.GetCurrent(ctx, model.TypePolicy)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, doc.ID, got.ID)

	assertSingleCurrent(t, docStore, model.TypePolicy)
}

func TestLifecycleService_Create_SupersedesExisting(t *testing.T) {
	lifecycle, query, docStore := newServices(t)
	ctx := context.TODO()

	first, err := lifecycle.Create(ctx, model.TypeTerms, "Terms v1", "The first terms and conditions.", validDate())
	require.NoError(t, err)

	second, err := lifecycle.Create(ctx, model.TypeTerms, "Terms rewrite", "A full rewrite of the terms.", validDate())
	require.NoError(t, err)

	// a fresh create starts a new chain and demotes the old one
	assert.Equal(t, int64(1), second.Version)
	assert.Nil(t, second.PreviousVersionID)

	got, err := query.GetCurrent(ctx, model.TypeTerms)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	old, err := query.GetVersion(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotCurrent, old.Status)

	assertSingleCurrent(t, docStore, model.TypeTerms)
}

func TestLifecycleService_Create_Validation(t *testing.T) {
	lifecycle, query, _ := newServices(t)
	ctx := context.TODO()

	tests := []struct {
		name          string
		title         string
		content       string
		effectiveDate time.Time
	}{
		{
			name:          "title too short",
			title:         "T&C",
			content:       "Some long enough content.",
			effectiveDate: validDate(),
		},
		{
			name:          "title too long",
			title:         strings.Repeat("a", 101),
			content:       "Some long enough content.",
			effectiveDate: validDate(),
		},
		{
			name:          "content too short",
			title:         "Terms & Conditions",
			content:       "short",
			effectiveDate: validDate(),
		},
		{
			name:          "effective date too soon",
			title:         "Terms & Conditions",
			content:       "Some long enough content.",
			effectiveDate: time.Now().AddDate(0, 0, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lifecycle.Create(ctx, model.TypeTerms, tt.title, tt.content, tt.effectiveDate)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	// nothing was inserted
	history, err := query.GetHistory(ctx, model.TypeTerms, true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), history.Total)
}

func TestLifecycleService_ReviseContent(t *testing.T) {
	lifecycle, query, docStore := newServices(t)
	ctx := context.TODO()

	v1, err := lifecycle.Create(ctx, model.TypePolicy, "Privacy v1", "The original policy text.", validDate())
	require.NoError(t, err)

	v2, err := lifecycle.ReviseContent(ctx, v1.ID, "Privacy v2", "The revised policy text.", validDate())
	require.NoError(t, err)

	assert.Equal(t, int64(2), v2.Version)
	assert.Equal(t, model.StatusCurrent, v2.Status)
	require.NotNil(t, v2.PreviousVersionID)
	assert.Equal(t, v1.ID, *v2.PreviousVersionID)

	old, err := query.GetVersion(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotCurrent, old.Status)

	assertSingleCurrent(t, docStore, model.TypePolicy)
}

func TestLifecycleService_ReviseContent_Stale(t *testing.T) {
	lifecycle, _, docStore := newServices(t)
	ctx := context.TODO()

	v1, err := lifecycle.Create(ctx, model.TypePolicy, "Privacy v1", "The original policy text.", validDate())
	require.NoError(t, err)

	_, err = lifecycle.ReviseContent(ctx, v1.ID, "Privacy v2", "The revised policy text.", validDate())
	require.NoError(t, err)

	// v1 is no longer in effect, a second revision of it must lose
	_, err = lifecycle.ReviseContent(ctx, v1.ID, "Privacy v2 again", "A competing revision text.", validDate())
	assert.ErrorIs(t, err, ErrConflict)

	assertSingleCurrent(t, docStore, model.TypePolicy)
}

func TestLifecycleService_Activate(t *testing.T) {
	lifecycle, query, docStore := newServices(t)
	ctx := context.TODO()

	v1, err := lifecycle.Create(ctx, model.TypeDisclaimer, "Disclaimer v1", "The original disclaimer.", validDate())
	require.NoError(t, err)
	v2, err := lifecycle.ReviseContent(ctx, v1.ID, "Disclaimer v2", "The revised disclaimer.", validDate())
	require.NoError(t, err)

	// roll back to v1
	got, err := lifecycle.Activate(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCurrent, got.Status)

	current, err := query.GetCurrent(ctx, model.TypeDisclaimer)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, current.ID)

	demoted, err := query.GetVersion(ctx, v2.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotCurrent, demoted.Status)

	assertSingleCurrent(t, docStore, model.TypeDisclaimer)
}

func TestLifecycleService_Activate_Idempotent(t *testing.T) {
	lifecycle, query, docStore := newServices(t)
	ctx := context.TODO()

	v1, err := lifecycle.Create(ctx, model.TypePolicy, "Privacy v1", "The original policy text.", validDate())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := lifecycle.Activate(ctx, v1.ID)
		require.NoError(t, err)
		assert.Equal(t, v1.ID, got.ID)
		assert.Equal(t, model.StatusCurrent, got.Status)
	}

	current, err := query.GetCurrent(ctx, model.TypePolicy)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, current.ID)

	assertSingleCurrent(t, docStore, model.TypePolicy)
}

func TestLifecycleService_Activate_Errors(t *testing.T) {
	lifecycle, _, _ := newServices(t)
	ctx := context.TODO()

	_, err := lifecycle.Activate(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)

	v1, err := lifecycle.Create(ctx, model.TypeTerms, "Terms v1", "The first terms text.", validDate())
	require.NoError(t, err)
	require.NoError(t, lifecycle.SoftDelete(ctx, v1.ID))

	_, err = lifecycle.Activate(ctx, v1.ID)
	assert.ErrorIs(t, err, ErrForbiddenTransition)

	_, err = lifecycle.ReviseContent(ctx, v1.ID, "Terms v2", "A revision of removed text.", validDate())
	assert.ErrorIs(t, err, ErrForbiddenTransition)
}

func TestLifecycleService_SoftDelete(t *testing.T) {
	lifecycle, query, docStore := newServices(t)
	ctx := context.TODO()

	v1, err := lifecycle.Create(ctx, model.TypePolicy, "Privacy v1", "The original policy text.", validDate())
	require.NoError(t, err)
	v2, err := lifecycle.ReviseContent(ctx, v1.ID, "Privacy v2", "The revised policy text.", validDate())
	require.NoError(t, err)

	// deleting a non-current version leaves the current one alone
	require.NoError(t, lifecycle.SoftDelete(ctx, v1.ID))

	current, err := query.GetCurrent(ctx, model.TypePolicy)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, v2.ID, current.ID)

	// removed versions stay in history
	history, err := query.GetHistory(ctx, model.TypePolicy, true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), history.Total)

	visible, err := query.GetHistory(ctx, model.TypePolicy, false, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), visible.Total)

	// deleting the current version clears the pointer
	require.NoError(t, lifecycle.SoftDelete(ctx, v2.ID))
	current, err = query.GetCurrent(ctx, model.TypePolicy)
	require.NoError(t, err)
	assert.Nil(t, current)

	// idempotent
	require.NoError(t, lifecycle.SoftDelete(ctx, v2.ID))

	assertSingleCurrent(t, docStore, model.TypePolicy)
}

func TestLifecycleService_ConcurrentActivate(t *testing.T) {
	lifecycle, query, docStore := newServices(t)
	ctx := context.TODO()

	v1, err := lifecycle.Create(ctx, model.TypePolicy, "Privacy v1", "The original policy text.", validDate())
	require.NoError(t, err)
	v2, err := lifecycle.ReviseContent(ctx, v1.ID, "Privacy v2", "The revised policy text.", validDate())
	require.NoError(t, err)
	v3, err := lifecycle.ReviseContent(ctx, v2.ID, "Privacy v3", "The third policy text.", validDate())
	require.NoError(t, err)
	_ = v3

	targets := []string{v1.ID, v2.ID}
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, id := range targets {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = lifecycle.Activate(ctx, id)
		}(i, id)
	}
	wg.Wait()

	// every racer either won a swap or surfaced a conflict, never a partial state
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrConflict)
		}
	}

	assertSingleCurrent(t, docStore, model.TypePolicy)

	current, err := query.GetCurrent(ctx, model.TypePolicy)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Contains(t, []string{v1.ID, v2.ID}, current.ID)
}

// TestLifecycleService_RandomInterleaving drives the state machine with random
// operations and checks the single-current guarantee after every step.
func TestLifecycleService_RandomInterleaving(t *testing.T) {
	lifecycle, _, docStore := newServices(t)
	ctx := context.TODO()

	rng := rand.New(rand.NewSource(42))
	types := model.DocumentTypes()
	ids := make(map[model.DocumentType][]string)

	randomID := func(typ model.DocumentType) (string, bool) {
		pool := ids[typ]
		if len(pool) == 0 {
			return "", false
		}
		return pool[rng.Intn(len(pool))], true
	}

	allowed := func(err error) bool {
		return err == nil ||
			errors.Is(err, ErrConflict) ||
			errors.Is(err, ErrForbiddenTransition) ||
			errors.Is(err, ErrNotFound)
	}

	for i := 0; i < 200; i++ {
		typ := types[rng.Intn(len(types))]

		switch rng.Intn(4) {
		case 0:
			doc, err := lifecycle.Create(ctx, typ, fmt.Sprintf("Document %d", i), "Generated content for the legal text body.", validDate())
			require.True(t, allowed(err), "create: %v", err)
			if err == nil {
				ids[typ] = append(ids[typ], doc.ID)
			}
		case 1:
			if id, ok := randomID(typ); ok {
				doc, err := lifecycle.ReviseContent(ctx, id, fmt.Sprintf("Revision %d", i), "Generated revision of the legal text body.", validDate())
				require.True(t, allowed(err), "revise: %v", err)
				if err == nil {
					ids[typ] = append(ids[typ], doc.ID)
				}
			}
		case 2:
			if id, ok := randomID(typ); ok {
				_, err := lifecycle.Activate(ctx, id)
				require.True(t, allowed(err), "activate: %v", err)
			}
		case 3:
			if id, ok := randomID(typ); ok {
				err := lifecycle.SoftDelete(ctx, id)
				require.True(t, allowed(err), "soft delete: %v", err)
			}
		}

		for _, typ := range types {
			assertSingleCurrent(t, docStore, typ)
		}
	}
}

// TestLifecycleService_ChainMonotonicity checks that version numbers increase
// by exactly one along every chain link.
func TestLifecycleService_ChainMonotonicity(t *testing.T) {
	lifecycle, query, _ := newServices(t)
	ctx := context.TODO()

	doc, err := lifecycle.Create(ctx, model.TypeTerms, "Terms v1", "The first terms text.", validDate())
	require.NoError(t, err)
	for i := 2; i <= 5; i++ {
		doc, err = lifecycle.ReviseContent(ctx, doc.ID, fmt.Sprintf("Terms v%d", i), "Another round of terms text.", validDate())
		require.NoError(t, err)
	}

	chain, err := query.GetChain(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chain, 5)

	for i := 0; i < len(chain)-1; i++ {
		assert.Equal(t, chain[i+1].Version+1, chain[i].Version)
		require.NotNil(t, chain[i].PreviousVersionID)
		assert.Equal(t, chain[i+1].ID, *chain[i].PreviousVersionID)
	}
	assert.Nil(t, chain[len(chain)-1].PreviousVersionID)
}
