// SPDX-License-Identifier: GPL-3.0-or-later

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/lmittmann/tint"
)

// newHandler picks the colored handler for an interactive stderr and the logfmt handler otherwise.
func newHandler(w io.Writer) slog.Handler {
	if f, ok := w.(*os.File); ok && f == os.Stderr && isTerminal {
		return tint.NewHandler(w, &tint.Options{
			NoColor:     runtime.GOOS == "windows",
			AddSource:   true,
			Level:       Level.lvl,
			ReplaceAttr: replaceTerminalAttr,
		})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       Level.lvl,
		ReplaceAttr: replaceTextAttr,
	})
}

func replaceTextAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		// journald stamps every entry itself
		if isJournal {
			return slog.Attr{}
		}
	case slog.LevelKey:
		lvl, _ := a.Value.Any().(slog.Level)
		name, ok := customLevels[lvl]
		if !ok {
			name = lvl.String()
		}
		return slog.String(a.Key, strings.ToLower(name))
	}
	return a
}

func replaceTerminalAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		return slog.Attr{}
	case slog.SourceKey:
		if !Level.Enabled(slog.LevelDebug) {
			return slog.Attr{}
		}
	case slog.LevelKey:
		lvl, _ := a.Value.Any().(slog.Level)
		if name, ok := customLevelsTerm[lvl]; ok {
			return slog.String(a.Key, name)
		}
	}
	return a
}

// sourceHandler reports the caller of the Logger method as the record source
// instead of the Logger method itself.
type sourceHandler struct {
	skip int
	next slog.Handler
}

func withSource(skip int, h slog.Handler) slog.Handler {
	if sh, ok := h.(*sourceHandler); ok {
		h = sh.next
	}
	return &sourceHandler{skip: skip, next: h}
}

func (h *sourceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *sourceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return withSource(h.skip, h.next.WithAttrs(attrs))
}

func (h *sourceHandler) WithGroup(name string) slog.Handler {
	return withSource(h.skip, h.next.WithGroup(name))
}

func (h *sourceHandler) Handle(ctx context.Context, r slog.Record) error {
	var pcs [1]uintptr
	// +2 for runtime.Callers and Handle
	runtime.Callers(h.skip+2, pcs[:])
	r.PC = pcs[0]

	return h.next.Handle(ctx, r)
}
