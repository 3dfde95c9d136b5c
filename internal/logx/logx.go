// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package logx holds the logger shared by every package
// of the module.
// By default, nothing is logged.
package logx

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards all records.
// Enabled returns false so that callers skip formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var logger atomic.Pointer[slog.Logger]

func init() { logger.Store(slog.New(nopHandler{})) }

// Set replaces the shared logger.
// A nil l restores the silent default.
func Set(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	logger.Store(l)
}

// L returns the shared logger.
func L() *slog.Logger { return logger.Load() }
