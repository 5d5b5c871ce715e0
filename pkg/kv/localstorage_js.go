//go:build js && wasm

package kv

import (
	"context"
	"fmt"
	"syscall/js"
)

// LocalStorage adapts window.localStorage. Browsers throw on access in some
// private modes and on quota overflow; those exceptions come back as errors.
type LocalStorage struct {
	v js.Value
}

func NewLocalStorage() (*LocalStorage, error) {
	var ls js.Value
	if err := guard(func() { ls = js.Global().Get("localStorage") }); err != nil {
		return nil, err
	}
	if ls.IsUndefined() || ls.IsNull() {
		return nil, fmt.Errorf("%w: localStorage is not defined", ErrUnavailable)
	}
	return &LocalStorage{v: ls}, nil
}

func (l *LocalStorage) GetItem(_ context.Context, key string) (value string, ok bool, err error) {
	err = guard(func() {
		item := l.v.Call("getItem", key)
		if item.IsNull() || item.IsUndefined() {
			return
		}
		value, ok = item.String(), true
	})
	return value, ok, err
}

func (l *LocalStorage) SetItem(_ context.Context, key, value string) error {
	return guard(func() { l.v.Call("setItem", key, value) })
}

func (l *LocalStorage) RemoveItem(_ context.Context, key string) error {
	return guard(func() { l.v.Call("removeItem", key) })
}

func guard(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if jsErr, ok := r.(js.Error); ok {
			if jsErr.Value.Get("name").String() == "QuotaExceededError" {
				err = ErrQuotaExceeded
				return
			}
			err = fmt.Errorf("%w: %s", ErrUnavailable, jsErr.Error())
			return
		}
		err = fmt.Errorf("%w: %v", ErrUnavailable, r)
	}()
	fn()
	return nil
}
