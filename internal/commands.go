package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/kornell/internal/document"
	"github.com/starford/kornell/internal/gateway"
	"github.com/starford/kornell/internal/render"
	"github.com/starford/kornell/internal/session"
)

const searchLimit = 20

// Pane names accepted by ToggleNote.
const (
	PaneSource = "source"
	PaneNotes  = "notes"
)

// withWorkspace runs fn against an opened workspace. Command logs go to
// stderr so stdout only carries command output.
func withWorkspace(opts []Option, fn func(app *application, ws *workspace) error) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	ws, err := openWorkspace(app.config, logger)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(app, ws)
}

// openSession loads path into a fresh session.
func openSession(ctx context.Context, app *application, ws *workspace, path string) (*session.Session, error) {
	s := ws.sessions(app.config, nil).Create()
	if _, err := s.Open(ctx, gateway.Answer(path)); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return s, nil
}

// saveSession writes s back to its bound path and refreshes the index row.
func saveSession(ctx context.Context, ws *workspace, s *session.Session) error {
	res, err := s.Save(ctx, gateway.Cancel)
	if err != nil {
		return fmt.Errorf("save %s: %w", s.Path(), err)
	}
	if _, err := ws.notes.GetNote(ctx, res.Path); err != nil {
		ws.logger.Warn("reindex after save failed", slog.String("path", res.Path), slog.String("error", err.Error()))
	}
	return nil
}

// NewNote writes an empty document to path. Existing files are kept.
func NewNote(ctx context.Context, path string, opts ...Option) error {
	return withWorkspace(opts, func(app *application, ws *workspace) error {
		note, err := ws.notes.CreateNote(ctx, path, document.New())
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		_, err = fmt.Fprintf(app.stdout, "created %s\n", note.Path)
		return err
	})
}

// ShowNote prints path rendered for the terminal.
func ShowNote(ctx context.Context, path string, opts ...Option) error {
	return withWorkspace(opts, func(app *application, ws *workspace) error {
		s, err := openSession(ctx, app, ws, path)
		if err != nil {
			return err
		}
		out, err := render.Terminal(s.Document(), app.config.Render.TerminalOptions())
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(app.stdout, out)
		return err
	})
}

// SetNoteField replaces one field of path and saves it.
func SetNoteField(ctx context.Context, path, field, value string, opts ...Option) error {
	return withWorkspace(opts, func(app *application, ws *workspace) error {
		s, err := openSession(ctx, app, ws, path)
		if err != nil {
			return err
		}
		if err := s.SetField(field, value); err != nil {
			return err
		}
		if s.State() != session.StateModified {
			_, err = fmt.Fprintf(app.stdout, "%s unchanged\n", path)
			return err
		}
		if err := saveSession(ctx, ws, s); err != nil {
			return err
		}
		_, err = fmt.Fprintf(app.stdout, "saved %s\n", path)
		return err
	})
}

// ToggleNote flips the source or notes visibility flag of path and saves it.
func ToggleNote(ctx context.Context, path, pane string, opts ...Option) error {
	return withWorkspace(opts, func(app *application, ws *workspace) error {
		s, err := openSession(ctx, app, ws, path)
		if err != nil {
			return err
		}
		var hidden bool
		switch pane {
		case PaneSource:
			hidden = s.ToggleSource()
		case PaneNotes:
			hidden = s.ToggleNotes()
		default:
			return fmt.Errorf("unknown pane %q (want %s or %s)", pane, PaneSource, PaneNotes)
		}
		if err := saveSession(ctx, ws, s); err != nil {
			return err
		}
		_, err = fmt.Fprintf(app.stdout, "%s hidden=%t\n", pane, hidden)
		return err
	})
}

// SearchNotes syncs the index and prints the matching notes.
func SearchNotes(ctx context.Context, query string, opts ...Option) error {
	return withWorkspace(opts, func(app *application, ws *workspace) error {
		ws.sync()
		results, err := ws.notes.Search(ctx, query, searchLimit)
		if err != nil {
			return err
		}
		for _, r := range results {
			if _, err := fmt.Fprintf(app.stdout, "%s\t%s\n", r.Path, r.Title); err != nil {
				return err
			}
		}
		return nil
	})
}
