package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"mdviewer/internal/document/model"
	"mdviewer/internal/document/repository"
	"mdviewer/internal/preferences"
	"mdviewer/pkg/logger"
	"mdviewer/pkg/markdown"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultTitle   = "Untitled Document"
	ExportName     = "document.md"
	markdownSuffix = ".md"
)

var (
	ErrNotMarkdown  = errors.New("please upload a Markdown (.md) file")
	ErrInvalidInput = errors.New("invalid input")
)

// Notifier is told about every change that open editors must reflect.
type Notifier interface {
	DocumentsChanged(docs []model.SavedDocument)
	AutosaveChanged(enabled bool)
	// DocumentSaved reports an explicit save so editors can show when it happened.
	DocumentSaved(doc model.SavedDocument)
}

type DocumentService struct {
	Repo     *repository.DocumentRepository
	Prefs    *preferences.Store
	Renderer *markdown.Renderer
	Notifier Notifier
}

func NewDocumentService(repo *repository.DocumentRepository, prefs *preferences.Store, renderer *markdown.Renderer, notifier Notifier) *DocumentService {
	return &DocumentService{Repo: repo, Prefs: prefs, Renderer: renderer, Notifier: notifier}
}

// ListDocuments filters by a case-insensitive substring of title or content.
func (s *DocumentService) ListDocuments(ctx context.Context, query string) []model.SavedDocument {
	docs := s.Repo.ListAll(ctx)
	if query == "" {
		return docs
	}

	needle := strings.ToLower(query)
	matched := make([]model.SavedDocument, 0, len(docs))
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc.Title), needle) || strings.Contains(strings.ToLower(doc.Content), needle) {
			matched = append(matched, doc)
		}
	}
	return matched
}

func (s *DocumentService) GetDocument(ctx context.Context, id string) (model.SavedDocument, error) {
	return s.Repo.Get(ctx, id)
}

func (s *DocumentService) SaveDocument(ctx context.Context, req model.CreateDocRequest) (model.SavedDocument, error) {
	if err := validateTitle(req.Title); err != nil {
		return model.SavedDocument{}, err
	}

	doc, err := s.Repo.Create(ctx, req.Title, req.Content)
	if err != nil {
		return model.SavedDocument{}, err
	}
	s.notifySaved(doc)
	s.notifyDocuments(ctx)
	return doc, nil
}

func (s *DocumentService) UpdateDocument(ctx context.Context, id string, req model.UpdateDocRequest) (model.SavedDocument, error) {
	if err := validateTitle(req.Title); err != nil {
		return model.SavedDocument{}, err
	}

	doc, err := s.Repo.Update(ctx, id, req.Title, req.Content)
	if err != nil {
		return model.SavedDocument{}, err
	}
	s.notifySaved(doc)
	s.notifyDocuments(ctx)
	return doc, nil
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notifyDocuments(ctx)
	return nil
}

// UploadDocument imports a .md file. The title is the file name without its
// suffix unless the file carries a frontmatter title. Content is kept verbatim.
func (s *DocumentService) UploadDocument(ctx context.Context, filename string, data []byte) (model.SavedDocument, error) {
	if !strings.HasSuffix(filename, markdownSuffix) {
		return model.SavedDocument{}, ErrNotMarkdown
	}

	title := strings.TrimSuffix(filename, markdownSuffix)
	if fmTitle := frontMatterTitle(data); fmTitle != "" {
		title = fmTitle
	}
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	doc, err := s.Repo.Create(ctx, title, string(data))
	if err != nil {
		return model.SavedDocument{}, err
	}
	s.notifyDocuments(ctx)
	return doc, nil
}

// ExportDocument returns the download name and the verbatim content.
func (s *DocumentService) ExportDocument(ctx context.Context, id string) (string, string, error) {
	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	return ExportName, doc.Content, nil
}

func (s *DocumentService) Preview(content string) (model.PreviewResponse, error) {
	html, err := s.Renderer.Render(content)
	if err != nil {
		return model.PreviewResponse{}, err
	}
	stats := markdown.Count(content)
	return model.PreviewResponse{HTML: html, Words: stats.Words, Characters: stats.Characters}, nil
}

func (s *DocumentService) ToggleCheckbox(req model.CheckboxRequest) model.CheckboxResponse {
	content, _ := markdown.ToggleCheckbox(req.Content, req.Index)
	return model.CheckboxResponse{Content: content}
}

func (s *DocumentService) GetPreferences(ctx context.Context) model.Preferences {
	return s.Prefs.Snapshot(ctx)
}

func (s *DocumentService) UpdatePreferences(ctx context.Context, patch model.PreferencesPatch) (model.Preferences, error) {
	if patch.Theme != nil {
		if err := s.Prefs.SetTheme(ctx, preferences.Theme(*patch.Theme)); err != nil {
			if errors.Is(err, preferences.ErrInvalidTheme) {
				return model.Preferences{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			return model.Preferences{}, err
		}
	}
	if patch.AutoSave != nil {
		if err := s.Prefs.SetAutoSave(ctx, *patch.AutoSave); err != nil {
			return model.Preferences{}, err
		}
		if s.Notifier != nil {
			s.Notifier.AutosaveChanged(*patch.AutoSave)
		}
	}
	return s.Prefs.Snapshot(ctx), nil
}

func (s *DocumentService) notifySaved(doc model.SavedDocument) {
	if s.Notifier != nil {
		s.Notifier.DocumentSaved(doc)
	}
}

func (s *DocumentService) notifyDocuments(ctx context.Context) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.DocumentsChanged(s.Repo.ListAll(ctx))
}

func validateTitle(title string) error {
	err := validation.Validate(title,
		validation.Required.Error("title is required"),
		validation.By(func(value interface{}) error {
			if strings.TrimSpace(value.(string)) == "" {
				return errors.New("title must not be blank")
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func frontMatterTitle(data []byte) string {
	var meta struct {
		Title string `yaml:"title" toml:"title" json:"title"`
	}
	if _, err := frontmatter.Parse(bytes.NewReader(data), &meta); err != nil {
		logger.Sugar.Debugf("Ignoring unreadable frontmatter: %v", err)
		return ""
	}
	return strings.TrimSpace(meta.Title)
}
