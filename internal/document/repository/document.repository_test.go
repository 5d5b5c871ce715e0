package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"mdviewer/internal/document/model"
	"mdviewer/pkg/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo returns a repository whose clock advances one second per call
// and whose ids are sequential.
func newTestRepo(storage kv.Storage) *DocumentRepository {
	repo := NewDocumentRepository(storage)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ticks := 0
	repo.Now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}
	ids := 0
	repo.NewID = func() string {
		ids++
		return fmt.Sprintf("doc-%d", ids)
	}
	return repo
}

type failingStorage struct {
	kv.Storage
	failGet bool
	failSet bool
}

func (f *failingStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, kv.ErrUnavailable
	}
	return f.Storage.GetItem(ctx, key)
}

func (f *failingStorage) SetItem(ctx context.Context, key, value string) error {
	if f.failSet {
		return kv.ErrQuotaExceeded
	}
	return f.Storage.SetItem(ctx, key, value)
}

func TestListAllEmptyStorage(t *testing.T) {
	repo := newTestRepo(kv.NewMemory())

	docs := repo.ListAll(context.Background())
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(kv.NewMemory())

	doc, err := repo.Create(ctx, "Notes", "# Hi")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Notes", doc.Title)
	assert.Equal(t, "# Hi", doc.Content)
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)

	got, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
	assert.Len(t, repo.ListAll(ctx), 1)
}

func TestCreatePreservesOrderAndUniqueIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(kv.NewMemory())

	var created []model.SavedDocument
	for i := 0; i < 5; i++ {
		doc, err := repo.Create(ctx, "Same title", fmt.Sprintf("body %d", i))
		require.NoError(t, err)
		created = append(created, doc)
	}

	listed := repo.ListAll(ctx)
	require.Len(t, listed, 5)
	seen := map[string]bool{}
	for i, doc := range listed {
		assert.Equal(t, created[i].ID, doc.ID)
		assert.Equal(t, fmt.Sprintf("body %d", i), doc.Content)
		assert.False(t, seen[doc.ID], "duplicate id %s", doc.ID)
		seen[doc.ID] = true
	}
}

func TestUpdateExisting(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(kv.NewMemory())

	doc, err := repo.Create(ctx, "Draft", "one")
	require.NoError(t, err)

	updated, err := repo.Update(ctx, doc.ID, "Final", "two")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, updated.ID)
	assert.Equal(t, doc.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "two", updated.Content)
	assert.True(t, updated.UpdatedAt.After(doc.UpdatedAt))

	got, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestUpdateNeverMovesUpdatedAtBackwards(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(kv.NewMemory())

	doc, err := repo.Create(ctx, "a", "b")
	require.NoError(t, err)

	repo.Now = func() time.Time { return doc.CreatedAt.Add(-time.Hour) }
	updated, err := repo.Update(ctx, doc.ID, "a2", "b2")
	require.NoError(t, err)
	assert.Equal(t, doc.UpdatedAt, updated.UpdatedAt)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
}

func TestUpdateMissingLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	repo := newTestRepo(storage)

	_, err := repo.Create(ctx, "keep", "me")
	require.NoError(t, err)
	before, _, _ := storage.GetItem(ctx, DocumentsKey)

	_, err = repo.Update(ctx, "nope", "x", "y")
	assert.ErrorIs(t, err, ErrNotFound)

	after, _, _ := storage.GetItem(ctx, DocumentsKey)
	assert.Equal(t, before, after)
}

func TestDeleteAndIdempotence(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(kv.NewMemory())

	first, err := repo.Create(ctx, "first", "1")
	require.NoError(t, err)
	second, err := repo.Create(ctx, "second", "2")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, first.ID))
	_, err = repo.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "does-not-exist"))
	assert.Equal(t, []model.SavedDocument{second}, repo.ListAll(ctx))

	require.NoError(t, repo.Delete(ctx, second.ID))
	assert.Empty(t, repo.ListAll(ctx))
}

func TestPersistedCollectionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	repo := newTestRepo(storage)

	_, err := repo.Create(ctx, "one", "# 1")
	require.NoError(t, err)
	two, err := repo.Create(ctx, "two", "# 2")
	require.NoError(t, err)
	_, err = repo.Update(ctx, two.ID, "two!", "# 2!")
	require.NoError(t, err)

	before := repo.ListAll(ctx)
	reloaded := NewDocumentRepository(storage).ListAll(ctx)
	assert.Equal(t, before, reloaded)
}

func TestReadsLegacyBlob(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	legacy := `[{"id":"1709283600000","title":"Old","content":"# Old","createdAt":"2024-03-01T09:00:00.000Z","updatedAt":"2024-03-01T09:05:00.000Z"}]`
	require.NoError(t, storage.SetItem(ctx, DocumentsKey, legacy))

	doc, err := NewDocumentRepository(storage).Get(ctx, "1709283600000")
	require.NoError(t, err)
	assert.Equal(t, "Old", doc.Title)
	assert.Equal(t, 5*time.Minute, doc.UpdatedAt.Sub(doc.CreatedAt))

	// A rewrite keeps the browser's timestamp format byte for byte.
	require.NoError(t, NewDocumentRepository(storage).Delete(ctx, "unknown"))
	raw, _, err := storage.GetItem(ctx, DocumentsKey)
	require.NoError(t, err)
	assert.Equal(t, legacy, raw)
}

func TestMalformedBlobReadsAsEmptyAndIsPreservedOnWrite(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	require.NoError(t, storage.SetItem(ctx, DocumentsKey, "{not json"))
	repo := newTestRepo(storage)

	assert.Empty(t, repo.ListAll(ctx))
	_, err := repo.Get(ctx, "anything")
	assert.ErrorIs(t, err, ErrNotFound)

	doc, err := repo.Create(ctx, "fresh", "start")
	require.NoError(t, err)
	assert.Equal(t, []model.SavedDocument{doc}, repo.ListAll(ctx))

	preserved, ok, err := storage.GetItem(ctx, CorruptKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "{not json", preserved)
}

func TestMalformedBlobTooLargeToPreserveDoesNotBlockWrites(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryWithQuota(1000)
	require.NoError(t, storage.SetItem(ctx, DocumentsKey, "{"+strings.Repeat("x", 600)))
	repo := newTestRepo(storage)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, "Notes", "# Hi")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, repo.Count(ctx))

	_, ok, err := storage.GetItem(ctx, CorruptKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{Storage: kv.NewMemory()}
	repo := newTestRepo(storage)

	doc, err := repo.Create(ctx, "kept", "safe")
	require.NoError(t, err)

	storage.failGet = true
	assert.Empty(t, repo.ListAll(ctx))
	_, err = repo.Create(ctx, "lost", "x")
	assert.ErrorIs(t, err, kv.ErrUnavailable)

	storage.failGet = false
	storage.failSet = true
	_, err = repo.Create(ctx, "too big", "x")
	assert.ErrorIs(t, err, kv.ErrQuotaExceeded)
	assert.ErrorIs(t, repo.Delete(ctx, doc.ID), kv.ErrQuotaExceeded)

	storage.failSet = false
	assert.Equal(t, []model.SavedDocument{doc}, repo.ListAll(ctx))
}

func TestEmptyCollectionPersistsAsArray(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	repo := newTestRepo(storage)

	doc, err := repo.Create(ctx, "a", "b")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, doc.ID))

	raw, ok, err := storage.GetItem(ctx, DocumentsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", raw)
}
