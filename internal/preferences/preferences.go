// Package preferences owns the user preference keys that share the document
// storage substrate: the autosave flag and the color theme.
package preferences

import (
	"context"
	"errors"
	"strconv"

	"mdviewer/internal/document/model"
	"mdviewer/pkg/kv"
	"mdviewer/pkg/logger"
)

const (
	AutoSaveKey = "autoSave"
	ThemeKey    = "theme"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

var ErrInvalidTheme = errors.New("theme must be dark or light")

type Store struct {
	Storage kv.Storage
}

func NewStore(storage kv.Storage) *Store {
	return &Store{Storage: storage}
}

// AutoSave reports the persisted flag. Anything other than "true" is off.
func (s *Store) AutoSave(ctx context.Context) bool {
	raw, ok, err := s.Storage.GetItem(ctx, AutoSaveKey)
	if err != nil {
		logger.Sugar.Warnf("Reading autosave preference: %v", err)
		return false
	}
	return ok && raw == "true"
}

func (s *Store) SetAutoSave(ctx context.Context, enabled bool) error {
	return s.Storage.SetItem(ctx, AutoSaveKey, strconv.FormatBool(enabled))
}

// Theme defaults to dark when unset or unreadable.
func (s *Store) Theme(ctx context.Context) Theme {
	raw, ok, err := s.Storage.GetItem(ctx, ThemeKey)
	if err != nil {
		logger.Sugar.Warnf("Reading theme preference: %v", err)
		return ThemeDark
	}
	if ok && Theme(raw) == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

func (s *Store) SetTheme(ctx context.Context, theme Theme) error {
	if theme != ThemeDark && theme != ThemeLight {
		return ErrInvalidTheme
	}
	return s.Storage.SetItem(ctx, ThemeKey, string(theme))
}

func (s *Store) Snapshot(ctx context.Context) model.Preferences {
	return model.Preferences{
		AutoSave: s.AutoSave(ctx),
		Theme:    string(s.Theme(ctx)),
	}
}
