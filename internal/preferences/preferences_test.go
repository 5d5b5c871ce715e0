package preferences

import (
	"context"
	"testing"

	"mdviewer/internal/document/model"
	"mdviewer/pkg/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	store := NewStore(kv.NewMemory())
	ctx := context.Background()

	assert.False(t, store.AutoSave(ctx))
	assert.Equal(t, ThemeDark, store.Theme(ctx))
}

func TestAutoSaveStoredAsString(t *testing.T) {
	storage := kv.NewMemory()
	store := NewStore(storage)
	ctx := context.Background()

	require.NoError(t, store.SetAutoSave(ctx, true))
	raw, _, _ := storage.GetItem(ctx, AutoSaveKey)
	assert.Equal(t, "true", raw)
	assert.True(t, store.AutoSave(ctx))

	require.NoError(t, store.SetAutoSave(ctx, false))
	assert.False(t, store.AutoSave(ctx))

	require.NoError(t, storage.SetItem(ctx, AutoSaveKey, "yes"))
	assert.False(t, store.AutoSave(ctx))
}

func TestTheme(t *testing.T) {
	store := NewStore(kv.NewMemory())
	ctx := context.Background()

	require.NoError(t, store.SetTheme(ctx, ThemeLight))
	assert.Equal(t, model.Preferences{AutoSave: false, Theme: "light"}, store.Snapshot(ctx))

	assert.ErrorIs(t, store.SetTheme(ctx, "sepia"), ErrInvalidTheme)
	assert.Equal(t, ThemeLight, store.Theme(ctx))
}
