package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mdviewer/internal/document/model"
	"mdviewer/pkg/kv"
	"mdviewer/pkg/logger"

	"github.com/google/uuid"
)

const (
	// DocumentsKey holds the whole collection as one JSON array.
	DocumentsKey = "md-viewer-documents"
	// CorruptKey receives an unparseable collection before it is overwritten.
	CorruptKey = DocumentsKey + ".corrupt"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrMalformedData = errors.New("persisted documents are malformed")
)

// DocumentRepository is the sole owner of DocumentsKey. Every mutation reads the
// full collection, changes it in memory and writes the full collection back.
type DocumentRepository struct {
	Storage kv.Storage
	Now     func() time.Time
	NewID   func() string
}

func NewDocumentRepository(storage kv.Storage) *DocumentRepository {
	return &DocumentRepository{
		Storage: storage,
		Now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		NewID:   uuid.NewString,
	}
}

// ListAll never fails: absent, malformed and unreadable data all read as an empty collection.
func (r *DocumentRepository) ListAll(ctx context.Context) []model.SavedDocument {
	docs, _, err := r.load(ctx)
	if err != nil {
		logger.Sugar.Warnf("Listing documents: %v", err)
		return []model.SavedDocument{}
	}
	return docs
}

func (r *DocumentRepository) Count(ctx context.Context) int {
	return len(r.ListAll(ctx))
}

func (r *DocumentRepository) Get(ctx context.Context, id string) (model.SavedDocument, error) {
	for _, doc := range r.ListAll(ctx) {
		if doc.ID == id {
			return doc, nil
		}
	}
	return model.SavedDocument{}, ErrNotFound
}

func (r *DocumentRepository) Create(ctx context.Context, title, content string) (model.SavedDocument, error) {
	docs, err := r.loadForWrite(ctx)
	if err != nil {
		return model.SavedDocument{}, err
	}

	now := r.Now()
	doc := model.SavedDocument{
		ID:        r.NewID(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	docs = append(docs, doc)
	if err := r.persist(ctx, docs); err != nil {
		return model.SavedDocument{}, err
	}
	return doc, nil
}

func (r *DocumentRepository) Update(ctx context.Context, id, title, content string) (model.SavedDocument, error) {
	docs, err := r.loadForWrite(ctx)
	if err != nil {
		return model.SavedDocument{}, err
	}

	index := -1
	for i, doc := range docs {
		if doc.ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return model.SavedDocument{}, ErrNotFound
	}

	updated := docs[index]
	updated.Title = title
	updated.Content = content
	// The wall clock may step backwards; updatedAt never does.
	if now := r.Now(); now.After(updated.UpdatedAt) {
		updated.UpdatedAt = now
	}

	docs[index] = updated
	if err := r.persist(ctx, docs); err != nil {
		return model.SavedDocument{}, err
	}
	return updated, nil
}

// Delete removes every document with the given id. A missing id is not an error,
// though the collection is still rewritten.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	docs, err := r.loadForWrite(ctx)
	if err != nil {
		return err
	}

	kept := make([]model.SavedDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.ID != id {
			kept = append(kept, doc)
		}
	}
	return r.persist(ctx, kept)
}

// load returns the collection plus the raw blob. A malformed blob yields an
// empty collection alongside ErrMalformedData.
func (r *DocumentRepository) load(ctx context.Context) ([]model.SavedDocument, string, error) {
	raw, ok, err := r.Storage.GetItem(ctx, DocumentsKey)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return []model.SavedDocument{}, "", nil
	}

	var docs []model.SavedDocument
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return []model.SavedDocument{}, raw, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if docs == nil {
		docs = []model.SavedDocument{}
	}
	return docs, raw, nil
}

// loadForWrite refuses to proceed when storage cannot be read. A malformed
// blob is moved aside when there is room and then treated as absent.
func (r *DocumentRepository) loadForWrite(ctx context.Context) ([]model.SavedDocument, error) {
	docs, raw, err := r.load(ctx)
	if err == nil {
		return docs, nil
	}
	if !errors.Is(err, ErrMalformedData) {
		logger.Sugar.Warnf("Reading documents before write: %v", err)
		return nil, err
	}

	logger.Sugar.Warnf("Persisted documents are malformed, preserving them under %s: %v", CorruptKey, err)
	r.preserve(ctx, raw)
	return docs, nil
}

// preserve copies a malformed blob to CorruptKey. Failure is only logged so
// the store stays writable.
func (r *DocumentRepository) preserve(ctx context.Context, raw string) {
	if err := r.Storage.SetItem(ctx, CorruptKey, raw); err != nil {
		logger.Sugar.Errorf("Failed to preserve malformed documents, discarding them: %v", err)
	}
}

func (r *DocumentRepository) persist(ctx context.Context, docs []model.SavedDocument) error {
	payload, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	if err := r.Storage.SetItem(ctx, DocumentsKey, string(payload)); err != nil {
		logger.Sugar.Warnf("Failed to persist %d documents: %v", len(docs), err)
		return err
	}
	return nil
}
