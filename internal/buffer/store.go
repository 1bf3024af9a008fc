// Package buffer holds the in-memory document of one editor session.
package buffer

import (
	"log/slog"

	"github.com/starford/kornell/internal/document"
)

// Store is the single source of truth for a session's document content.
// It is not safe for concurrent use; the owning session serializes access.
type Store struct {
	doc    document.Document
	logger *slog.Logger
}

// New returns a store holding an empty document.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{doc: document.New(), logger: logger}
}

// SetField updates the named text field. Unknown names are logged and
// rejected without touching the document.
func (s *Store) SetField(name, value string) error {
	f, err := document.ParseField(name)
	if err != nil {
		s.logger.Error("buffer: rejected field update", slog.String("field", name))
		return err
	}
	s.doc.Set(f, value)
	return nil
}

// Field returns the text of the named field.
func (s *Store) Field(name string) (string, error) {
	f, err := document.ParseField(name)
	if err != nil {
		return "", err
	}
	return s.doc.Get(f), nil
}

// Document returns a copy of the current document.
func (s *Store) Document() document.Document {
	return s.doc
}

// Replace swaps in doc wholesale.
func (s *Store) Replace(doc document.Document) {
	s.doc = doc
}

// Reset replaces the content with an empty document.
func (s *Store) Reset() {
	s.doc = document.New()
}

// SetHideSource records the rendered-mode flag in the document metadata.
func (s *Store) SetHideSource(v bool) { s.doc.Metadata.HideSource = v }

// SetHideNotes records the notes visibility flag in the document metadata.
func (s *Store) SetHideNotes(v bool) { s.doc.Metadata.HideNotes = v }

// Serialize encodes the whole document in the Kornell file format.
func (s *Store) Serialize() ([]byte, error) {
	return document.Encode(s.doc)
}

// Deserialize parses data and, only if it is a valid document, replaces
// the current content with it.
func (s *Store) Deserialize(data []byte) error {
	doc, err := document.Decode(data)
	if err != nil {
		return err
	}
	s.doc = doc
	return nil
}
