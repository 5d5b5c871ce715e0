package model

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the format of Date.prototype.toISOString: UTC, always
// three fractional digits.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// SavedDocument is the only persisted entity. Its JSON shape is the storage format.
type SavedDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (d SavedDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Content   string `json:"content"`
		CreatedAt string `json:"createdAt"`
		UpdatedAt string `json:"updatedAt"`
	}{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt.UTC().Format(TimestampLayout),
		UpdatedAt: d.UpdatedAt.UTC().Format(TimestampLayout),
	})
}

type CreateDocRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdateDocRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type PreviewRequest struct {
	Content string `json:"content"`
}

type PreviewResponse struct {
	HTML       string `json:"html"`
	Words      int    `json:"words"`
	Characters int    `json:"characters"`
}

type CheckboxRequest struct {
	Content string `json:"content"`
	Index   int    `json:"index"`
}

type CheckboxResponse struct {
	Content string `json:"content"`
}

type Preferences struct {
	AutoSave bool   `json:"auto_save"`
	Theme    string `json:"theme"`
}

// PreferencesPatch leaves fields that are nil untouched.
type PreferencesPatch struct {
	AutoSave *bool   `json:"auto_save,omitempty"`
	Theme    *string `json:"theme,omitempty"`
}
