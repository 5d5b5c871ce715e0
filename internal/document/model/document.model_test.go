package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavedDocumentTimestampsAlwaysCarryMilliseconds(t *testing.T) {
	doc := SavedDocument{
		ID:        "1",
		Title:     "t",
		Content:   "c",
		CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 3, 1, 9, 0, 0, 120*int(time.Millisecond), time.FixedZone("CET", 3600)),
	}

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","title":"t","content":"c","createdAt":"2024-03-01T09:00:00.000Z","updatedAt":"2024-03-01T08:00:00.120Z"}`, string(raw))

	var decoded SavedDocument
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, doc.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, doc.UpdatedAt.Equal(decoded.UpdatedAt))
}
