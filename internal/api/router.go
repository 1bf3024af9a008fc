package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/kornell/internal/noteservice"
	"github.com/starford/kornell/internal/render"
	"github.com/starford/kornell/internal/session"
)

// Deps are the collaborators of the API router.
type Deps struct {
	Notes         *noteservice.Service
	Sessions      *session.Manager
	Renderer      render.Renderer
	Events        http.Handler // mounted at GET /events when non-nil
	WorkspaceRoot string
	AuthEnabled   bool
	Token         string
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted. Every route
// sits behind the bearer token middleware.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Notes, d.Sessions, d.Renderer, d.Logger)
	ah := NewAttachmentHandler(d.WorkspaceRoot, d.Logger)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(d.AuthEnabled, d.Token))

	// Editor sessions.
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/", h.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.CloseSession)
			r.Post("/new", h.NewDocument)
			r.Put("/fields/{field}", h.SetField)
			r.Post("/save", h.Save)
			r.Post("/save-as", h.SaveAs)
			r.Post("/open", h.Open)
			r.Post("/toggle/source", h.ToggleSource)
			r.Post("/toggle/notes", h.ToggleNotes)
		})
	})

	// Workspace notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)
	r.Post("/move", h.MoveNote)
	r.Get("/search", h.Search)
	r.Get("/backlinks/*", h.Backlinks)

	r.Post("/render", h.Render)
	r.Post("/attachments", ah.Upload)

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
