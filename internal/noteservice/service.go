// Package noteservice manages Kornell files in the workspace and keeps the
// index in step with every write.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/kornell/internal/apperr"
	"github.com/starford/kornell/internal/checksum"
	"github.com/starford/kornell/internal/document"
	"github.com/starford/kornell/internal/index"
	"github.com/starford/kornell/internal/storage"
)

// NoteDetail is a workspace note with its index data.
type NoteDetail struct {
	Path      string            `json:"path"`
	Title     string            `json:"title"`
	Document  document.Document `json:"document"`
	Checksum  string            `json:"checksum"`
	Tags      []string          `json:"tags"`
	Backlinks []string          `json:"backlinks"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store  storage.Provider
	db     index.NoteIndex
	logger *slog.Logger
}

// NewService creates a new note service.
func NewService(store storage.Provider, db index.NoteIndex, logger *slog.Logger) *Service {
	return &Service{store: store, db: db, logger: logger}
}

// ValidatePath rejects paths that are empty or lack the Kornell extension.
func ValidatePath(path string) error {
	if path == "" || !storage.IsKornellFile(path) {
		return fmt.Errorf("%w: %q is not a %s file", apperr.ErrInvalidPath, path, document.Extension)
	}
	return nil
}

// key validates path and returns its workspace-relative, slash-separated
// form, which is how the index and the watcher name files. Absolute paths
// inside the workspace map to the same key as their relative form.
func (s *Service) key(path string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", err
	}
	abs, err := s.store.Abs(path)
	if err != nil {
		return "", err
	}
	root, err := s.store.Abs("")
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidPath, path)
	}
	return filepath.ToSlash(rel), nil
}

// GetNote reads a note and enriches it with index data. A file the index
// has not seen yet is indexed on the way.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	path, err := s.key(path)
	if err != nil {
		return nil, err
	}
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return s.detail(path, data)
}

// CreateNote writes doc to a new file. Existing files are never overwritten.
func (s *Service) CreateNote(_ context.Context, path string, doc document.Document) (*NoteDetail, error) {
	path, err := s.key(path)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if doc.Metadata.FormatVersion == 0 {
		doc.Metadata.FormatVersion = document.CurrentFormatVersion
	}
	data, err := document.Encode(doc)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	s.logger.Info("note created", slog.String("path", path))
	return s.detail(path, data)
}

// UpdateNote replaces a note. A non-empty ifMatch must equal the checksum
// of the file on disk, otherwise apperr.ErrConflict is returned.
func (s *Service) UpdateNote(_ context.Context, path string, doc document.Document, ifMatch string) (*NoteDetail, error) {
	path, err := s.key(path)
	if err != nil {
		return nil, err
	}
	existing, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && !checksum.Equal(existing, ifMatch) {
		return nil, apperr.ErrConflict
	}
	data, err := document.Encode(doc)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	return s.detail(path, data)
}

// MoveNote renames a note and re-indexes it under the new path.
func (s *Service) MoveNote(_ context.Context, from, to string) (*NoteDetail, error) {
	from, err := s.key(from)
	if err != nil {
		return nil, err
	}
	to, err = s.key(to)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Read(to); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Move(from, to); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if err := s.db.DeleteNote(from); err != nil {
		return nil, err
	}
	data, err := s.read(to)
	if err != nil {
		return nil, err
	}
	return s.detail(to, data)
}

// DeleteNote removes a note from storage and index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	path, err := s.key(path)
	if err != nil {
		return err
	}
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	s.logger.Info("note deleted", slog.String("path", path))
	return s.db.DeleteNote(path)
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	return nonNilSlice(res), err
}

// Backlinks returns all note paths that link to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	target, err := s.key(target)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(target)
	return nonNilSlice(bl), err
}

// Sync reconciles the index with the workspace.
func (s *Service) Sync(_ context.Context) error {
	return index.Sync(s.db, s.store, s.logger)
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.ErrNotFound
	}
	return data, err
}

// detail indexes data if the stored checksum is stale, then assembles the
// response from the decoded document and the index row.
func (s *Service) detail(path string, data []byte) (*NoteDetail, error) {
	doc, err := document.Decode(data)
	if err != nil {
		return nil, err
	}
	sum := checksum.Sum(data)
	cs, err := s.db.GetChecksum(path)
	if err != nil {
		return nil, err
	}
	if cs != sum {
		if err := index.IndexFile(s.db, path, data, time.Now()); err != nil {
			return nil, err
		}
	}
	row, err := s.db.GetNote(path)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Path:      path,
		Title:     row.Title,
		Document:  doc,
		Checksum:  sum,
		Tags:      nonNilSlice(row.Tags),
		Backlinks: nonNilSlice(bl),
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
