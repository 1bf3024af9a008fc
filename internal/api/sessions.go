package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/kornell/internal/apperr"
	"github.com/starford/kornell/internal/gateway"
	"github.com/starford/kornell/internal/session"
)

// session resolves {id} or writes a 404.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get session", err)
		return nil, false
	}
	return s, true
}

// CreateSession handles POST /api/sessions. Each session is one editor window.
func (h *Handler) CreateSession(w http.ResponseWriter, _ *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// ListSessions handles GET /api/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: h.sessions.IDs()})
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// CloseSession handles DELETE /api/sessions/{id}.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "id")); err != nil {
		h.fail(w, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NewDocument handles POST /api/sessions/{id}/new.
func (h *Handler) NewDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.New()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// SetField handles PUT /api/sessions/{id}/fields/{field}.
func (h *Handler) SetField(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req FieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.SetField(chi.URLParam(r, "field"), req.Value); err != nil {
		h.fail(w, "set field", err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// ToggleSource handles POST /api/sessions/{id}/toggle/source.
func (h *Handler) ToggleSource(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, (*session.Session).ToggleSource)
}

// ToggleNotes handles POST /api/sessions/{id}/toggle/notes.
func (h *Handler) ToggleNotes(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, (*session.Session).ToggleNotes)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, flip func(*session.Session) bool) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	hidden := flip(s)
	writeJSON(w, http.StatusOK, ToggleResponse{Hidden: hidden, Session: s.Snapshot()})
}

// Save handles POST /api/sessions/{id}/save. The path is only consulted
// when the session has no file yet, so a bound session may send no body.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	h.dialog(w, r, "save", (*session.Session).Save, unbound)
}

// SaveAs handles POST /api/sessions/{id}/save-as.
func (h *Handler) SaveAs(w http.ResponseWriter, r *http.Request) {
	h.dialog(w, r, "save as", (*session.Session).SaveAs, always)
}

// Open handles POST /api/sessions/{id}/open.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	h.dialog(w, r, "open", (*session.Session).Open, always)
}

type dialogOp func(*session.Session, context.Context, gateway.Dialogs) (session.Result, error)

// prompts reports whether an operation will ask the dialog for a path.
type prompts func(*session.Session) bool

func always(*session.Session) bool { return true }

func unbound(s *session.Session) bool { return s.Path() == "" }

// dialog runs a save/open operation with the dialog answer carried in the
// request body. A missing body cancels the dialog. Paths outside the file
// filters are rejected when the dialog is going to be consulted.
func (h *Handler) dialog(w http.ResponseWriter, r *http.Request, op string, run dialogOp, asks prompts) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req DialogRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	if req.Path != "" && asks(s) && !gateway.MatchesFilter(req.Path) {
		h.fail(w, op, apperr.ErrInvalidPath)
		return
	}
	res, err := run(s, r.Context(), gateway.Answer(req.Path))
	if err != nil {
		h.fail(w, op, err, slog.String("session", s.ID()), slog.String("path", req.Path))
		return
	}
	writeJSON(w, http.StatusOK, DialogResponse{Result: res, Session: s.Snapshot()})
}
