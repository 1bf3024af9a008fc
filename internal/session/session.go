// Package session implements one editor window: a buffer store bound to an
// optional file path, the save/open protocol and the view toggles.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/kornell/internal/buffer"
	"github.com/starford/kornell/internal/checksum"
	"github.com/starford/kornell/internal/document"
	"github.com/starford/kornell/internal/gateway"
	"github.com/starford/kornell/internal/render"
	"github.com/starford/kornell/internal/view"
)

// DefaultFileName is suggested by the save dialog when nothing else is known.
const DefaultFileName = "file.kornell"

// State is the persistence state of a session.
type State string

const (
	StateUnsaved  State = "unsaved"
	StateSaved    State = "saved"
	StateModified State = "modified"
)

// EventKind names a session lifecycle event.
type EventKind string

const (
	EventNew      EventKind = "new"
	EventOpened   EventKind = "opened"
	EventSaved    EventKind = "saved"
	EventModified EventKind = "modified"
	EventClosed   EventKind = "closed"
)

// Event is delivered to the Notifier. Notifiers run while the session is
// locked and must not call back into it.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session"`
	Path      string    `json:"path,omitempty"`
}

type Notifier func(Event)

// Options configure new sessions.
type Options struct {
	DefaultFileName string
	Renderer        render.Renderer
	Logger          *slog.Logger
	Notify          Notifier
}

// Result reports the outcome of a save or open that did not fail.
type Result struct {
	Path      string `json:"path,omitempty"`
	Cancelled bool   `json:"cancelled"`
}

// Snapshot is a point-in-time copy of everything a front-end displays.
type Snapshot struct {
	ID         string                       `json:"id"`
	Path       string                       `json:"path,omitempty"`
	State      State                        `json:"state"`
	Breadcrumb []string                     `json:"breadcrumb"`
	Document   document.Document            `json:"document"`
	Panes      map[document.Field]view.Pane `json:"panes"`
}

// Session is one editor window. All methods are safe for concurrent use;
// operations run one at a time, each to completion.
type Session struct {
	id          string
	files       gateway.Files
	defaultName string
	logger      *slog.Logger
	notify      Notifier

	mu       sync.Mutex
	store    *buffer.Store
	panes    *view.Panes
	path     string
	savedSum string // checksum of the content last written or read at path
}

// New creates a session holding an empty, unsaved document.
func New(id string, files gateway.Files, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultFileName == "" {
		opts.DefaultFileName = DefaultFileName
	}
	logger := opts.Logger.With(slog.String("session", id))
	return &Session{
		id:          id,
		files:       files,
		defaultName: opts.DefaultFileName,
		logger:      logger,
		notify:      opts.Notify,
		store:       buffer.New(logger),
		panes:       view.New(opts.Renderer),
	}
}

func (s *Session) ID() string { return s.id }

// Path returns the bound file path, or "" before the first save or open.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// State returns the current persistence state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Document returns a copy of the buffer content.
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Document()
}

// Snapshot captures the session for display.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:         s.id,
		Path:       s.path,
		State:      s.stateLocked(),
		Breadcrumb: render.Breadcrumb(s.path),
		Document:   s.store.Document(),
		Panes:      s.panes.All(),
	}
}

// New discards the buffer and starts an empty, unbound document.
func (s *Session) New() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset()
	s.panes.Reset()
	s.path = ""
	s.savedSum = ""
	s.emit(EventNew)
}

// SetField updates one text field. Unknown names are rejected.
func (s *Session) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.stateLocked()
	if err := s.store.SetField(name, value); err != nil {
		return err
	}
	s.panes.Refresh(document.Field(name), s.store.Document())
	s.emitIfModified(before)
	return nil
}

// ToggleSource flips between raw and rendered mode and returns the new
// value of hideSource.
func (s *Session) ToggleSource() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.stateLocked()
	v := !s.panes.HideSource()
	s.store.SetHideSource(v)
	s.panes.SetHideSource(v, s.store.Document())
	s.emitIfModified(before)
	return v
}

// ToggleNotes flips notes visibility and returns the new value of hideNotes.
func (s *Session) ToggleNotes() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.stateLocked()
	v := !s.panes.HideNotes()
	s.store.SetHideNotes(v)
	s.panes.SetHideNotes(v, s.store.Document())
	s.emitIfModified(before)
	return v
}

// Save writes the buffer to the bound path. Without a binding it asks
// dialogs for a location first; a cancelled dialog is a no-op. A failed
// write returns apperr.ErrIO and leaves path and state untouched.
func (s *Session) Save(ctx context.Context, dialogs gateway.Dialogs) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.path
	if path == "" {
		p, ok := dialogs.SaveFileDialog(ctx, s.defaultName)
		if !ok {
			return Result{Cancelled: true}, nil
		}
		path = p
	}
	return s.writeLocked(ctx, path)
}

// SaveAs always asks for a location and rebinds the session on success.
func (s *Session) SaveAs(ctx context.Context, dialogs gateway.Dialogs) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := s.defaultName
	if s.path != "" {
		name = baseName(s.path)
	}
	p, ok := dialogs.SaveFileDialog(ctx, name)
	if !ok {
		return Result{Cancelled: true}, nil
	}
	return s.writeLocked(ctx, p)
}

// Open asks for a file and replaces the buffer with its content. If the
// file cannot be read or is not a Kornell document, the current document
// and binding are kept and the error is returned.
func (s *Session) Open(ctx context.Context, dialogs gateway.Dialogs) (Result, error) {
	p, ok := dialogs.OpenFileDialog(ctx)
	if !ok {
		return Result{Cancelled: true}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	content, err := s.files.Open(ctx, p)
	if err != nil {
		return Result{}, err
	}
	doc, err := document.Decode([]byte(content))
	if err != nil {
		s.logger.Error("session: open failed", slog.String("path", p), slog.String("error", err.Error()))
		return Result{}, err
	}
	s.store.Replace(doc)
	s.panes.Sync(doc)
	s.path = p
	s.savedSum = s.sumLocked()
	s.logger.Info("session: opened", slog.String("path", p))
	s.emit(EventOpened)
	return Result{Path: p}, nil
}

// Close announces the end of the session. The buffer is not saved.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit(EventClosed)
}

func (s *Session) writeLocked(ctx context.Context, path string) (Result, error) {
	data, err := s.store.Serialize()
	if err != nil {
		return Result{}, err
	}
	if err := s.files.Save(ctx, path, string(data)); err != nil {
		return Result{}, err
	}
	s.path = path
	s.savedSum = checksum.Sum(data)
	s.logger.Info("session: saved", slog.String("path", path))
	s.emit(EventSaved)
	return Result{Path: path}, nil
}

func (s *Session) stateLocked() State {
	if s.path == "" {
		return StateUnsaved
	}
	if s.sumLocked() != s.savedSum {
		return StateModified
	}
	return StateSaved
}

func (s *Session) sumLocked() string {
	data, err := s.store.Serialize()
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}

func (s *Session) emitIfModified(before State) {
	if before != StateModified && s.stateLocked() == StateModified {
		s.emit(EventModified)
	}
}

func (s *Session) emit(kind EventKind) {
	if s.notify == nil {
		return
	}
	s.notify(Event{Kind: kind, SessionID: s.id, Path: s.path})
}

// baseName returns the last element of either a slash or backslash path.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
