package gateway

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/starford/kornell/internal/apperr"
	"github.com/starford/kornell/internal/storage"
)

// FS implements Files on top of the workspace storage.
type FS struct {
	store  storage.Provider
	logger *slog.Logger
}

// NewFS wraps store. Failure details go to logger only.
func NewFS(store storage.Provider, logger *slog.Logger) *FS {
	if logger == nil {
		logger = slog.Default()
	}
	return &FS{store: store, logger: logger}
}

// Open reads path as UTF-8 text.
func (f *FS) Open(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", apperr.ErrIO
	}
	if err := ctx.Err(); err != nil {
		f.logger.Error("gateway: open aborted", slog.String("path", path), slog.String("error", err.Error()))
		return "", apperr.ErrIO
	}
	data, err := f.store.Read(path)
	if err != nil {
		f.logger.Error("gateway: file failed to load", slog.String("path", path), slog.String("error", err.Error()))
		return "", apperr.ErrIO
	}
	if !utf8.Valid(data) {
		f.logger.Error("gateway: file is not valid UTF-8", slog.String("path", path))
		return "", apperr.ErrIO
	}
	return string(data), nil
}

// Save writes content to path atomically.
func (f *FS) Save(ctx context.Context, path, content string) error {
	if path == "" {
		return apperr.ErrIO
	}
	if err := ctx.Err(); err != nil {
		f.logger.Error("gateway: save aborted", slog.String("path", path), slog.String("error", err.Error()))
		return apperr.ErrIO
	}
	if err := f.store.Write(path, []byte(content)); err != nil {
		f.logger.Error("gateway: file failed to save", slog.String("path", path), slog.String("error", err.Error()))
		return apperr.ErrIO
	}
	return nil
}
