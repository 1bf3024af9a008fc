// Package document defines the Kornell note and its on-disk JSON format.
package document

import (
	"fmt"

	"github.com/starford/kornell/internal/apperr"
)

// CurrentFormatVersion is stamped on newly created documents.
// It is informational only; no migration reads it.
const CurrentFormatVersion = 1

// Extension is the file extension of Kornell documents.
const Extension = ".kornell"

// Field names one of the four text areas of a note.
type Field string

const (
	FieldTitle   Field = "title"
	FieldCues    Field = "cues"
	FieldNotes   Field = "notes"
	FieldSummary Field = "summary"
)

// Fields lists every text field in display order.
var Fields = []Field{FieldTitle, FieldCues, FieldNotes, FieldSummary}

// ParseField validates a field name.
func ParseField(name string) (Field, error) {
	switch f := Field(name); f {
	case FieldTitle, FieldCues, FieldNotes, FieldSummary:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", apperr.ErrUnknownField, name)
}

// Metadata carries view state persisted alongside the text.
type Metadata struct {
	HideSource    bool `json:"hideSource"`
	HideNotes     bool `json:"hideNotes"`
	FormatVersion int  `json:"kornellFormatVersion"`
}

// Document is one .kornell file. Field order here is the key order on disk.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Title    string   `json:"title"`
	Cues     string   `json:"cues"`
	Notes    string   `json:"notes"`
	Summary  string   `json:"summary"`
}

// New returns an empty document at the current format version.
func New() Document {
	return Document{Metadata: Metadata{FormatVersion: CurrentFormatVersion}}
}

// Get returns the text of f.
func (d Document) Get(f Field) string {
	switch f {
	case FieldTitle:
		return d.Title
	case FieldCues:
		return d.Cues
	case FieldNotes:
		return d.Notes
	case FieldSummary:
		return d.Summary
	}
	return ""
}

// Set replaces the text of f. It reports false for an unknown field.
func (d *Document) Set(f Field, value string) bool {
	switch f {
	case FieldTitle:
		d.Title = value
	case FieldCues:
		d.Cues = value
	case FieldNotes:
		d.Notes = value
	case FieldSummary:
		d.Summary = value
	default:
		return false
	}
	return true
}
