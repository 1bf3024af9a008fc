package api

import (
	"github.com/starford/kornell/internal/document"
	"github.com/starford/kornell/internal/index"
	"github.com/starford/kornell/internal/noteservice"
	"github.com/starford/kornell/internal/session"
)

// CreateNoteRequest is the request body for POST /api/notes.
type CreateNoteRequest struct {
	Path     string            `json:"path"`
	Document document.Document `json:"document"`
}

// MoveNoteRequest is the request body for POST /api/move.
type MoveNoteRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []noteservice.NoteListItem `json:"notes"`
	Total int                        `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// BacklinksResponse lists the notes linking to a path.
type BacklinksResponse struct {
	Path      string   `json:"path"`
	Backlinks []string `json:"backlinks"`
}

// FieldRequest is the body of PUT /api/sessions/{id}/fields/{field}.
type FieldRequest struct {
	Value string `json:"value"`
}

// DialogRequest carries the user's file dialog choice. An empty path
// means the dialog was cancelled.
type DialogRequest struct {
	Path string `json:"path"`
}

// DialogResponse reports the outcome of save, save-as or open together
// with the session state afterwards.
type DialogResponse struct {
	Result  session.Result   `json:"result"`
	Session session.Snapshot `json:"session"`
}

// SessionListResponse lists open session IDs.
type SessionListResponse struct {
	Sessions []string `json:"sessions"`
}

// ToggleResponse reports the new flag value and the session state.
type ToggleResponse struct {
	Hidden  bool             `json:"hidden"`
	Session session.Snapshot `json:"session"`
}

// RenderRequest is the body of POST /api/render.
type RenderRequest struct {
	Markdown string `json:"markdown"`
}

// RenderResponse holds rendered HTML.
type RenderResponse struct {
	HTML string `json:"html"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
}
