// Package mcpserver exposes the Kornell workspace to LLM clients as an MCP
// (Model Context Protocol) server over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/kornell/internal/document"
	"github.com/starford/kornell/internal/gateway"
	"github.com/starford/kornell/internal/noteservice"
	"github.com/starford/kornell/internal/render"
	"github.com/starford/kornell/internal/session"
	"github.com/starford/kornell/internal/storage"
)

const (
	formatURI     = "kornell://format"
	defaultLimit  = 20
	serverName    = "Kornell"
	serverVersion = "1.0.0"
)

// Deps are the collaborators of the MCP server.
type Deps struct {
	Notes    *noteservice.Service
	Store    storage.Provider
	Sessions *session.Manager
	Renderer render.Renderer
	Logger   *slog.Logger
}

// Server wraps the MCP server with Kornell tools.
type Server struct {
	mcp      *server.MCPServer
	notes    *noteservice.Service
	store    storage.Provider
	sessions *session.Manager
	renderer render.Renderer
	logger   *slog.Logger
}

// New creates a new MCP server with all Kornell tools registered.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	s := &Server{
		notes:    d.Notes,
		store:    d.Store,
		sessions: d.Sessions,
		renderer: d.Renderer,
		logger:   d.Logger,
	}

	s.mcp = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search across the title, cues, notes and summary of every note."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a Kornell note: its four fields, view flags, tags and backlinks."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. biology/cells.kornell)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes in the workspace, optionally filtered by tag."),
		mcp.WithString("tag", mcp.Description("Only notes carrying this #tag")),
		mcp.WithString("sort", mcp.Description("updated_at (default), title or path")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new Kornell note. Existing files are never overwritten. "+
			"Read the format via get_format_contract or the "+formatURI+" resource first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new note (must end with .kornell)")),
		mcp.WithString("title", mcp.Description("Markdown title")),
		mcp.WithString("cues", mcp.Description("Markdown cues column")),
		mcp.WithString("notes", mcp.Description("Markdown notes column")),
		mcp.WithString("summary", mcp.Description("Markdown summary")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("set_field",
		mcp.WithDescription("Replace one field of an existing note and save it."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithString("field", mcp.Required(), mcp.Description("title, cues, notes or summary")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New Markdown content of the field")),
	), s.setField)

	s.mcp.AddTool(mcp.NewTool("render_note",
		mcp.WithDescription("Render a note. Without field, returns the whole note as one Markdown page "+
			"(notes omitted when hidden). With field, returns that field as HTML."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithString("field", mcp.Description("Optional field to render as HTML")),
	), s.renderNote)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("attach_image",
		mcp.WithDescription("Store an image in attachments/ and return Markdown to embed it in a note."),
		mcp.WithString("data_uri", mcp.Required(), mcp.Description("data:image/<type>;base64,<payload>")),
		mcp.WithString("filename", mcp.Description("Optional file name; the extension follows the image type")),
	), s.attachImage)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the Kornell file format. Call this before creating or editing notes."),
	), s.getFormatContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Kornell Format",
			mcp.WithResourceDescription("Structure of .kornell note files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// Listen serves MCP over the given streams until ctx is cancelled or in
// reaches EOF.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func optString(req mcp.CallToolRequest, key string) string {
	v, _ := req.RequireString(key)
	return v
}

func optInt(req mcp.CallToolRequest, key string, def int) int {
	if v, err := req.RequireFloat(key); err == nil && v > 0 {
		return int(v)
	}
	return def
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.notes.Search(ctx, query, optInt(req, "limit", defaultLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", path, err)), nil
	}
	return jsonResult(note), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.notes.ListNotes(ctx, optInt(req, "limit", 0), 0, optString(req, "tag"), optString(req, "sort"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"notes": items, "total": total}), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc := document.New()
	for _, f := range document.Fields {
		doc.Set(f, optString(req, string(f)))
	}
	if _, err := s.notes.CreateNote(ctx, path, doc); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

// setField edits through a short-lived session so the write goes through
// the same open/save path as the editor.
func (s *Server) setField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := noteservice.ValidatePath(path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess := s.sessions.Create()
	defer func() { _ = s.sessions.Close(sess.ID()) }()

	if _, err := sess.Open(ctx, gateway.Answer(path)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("open %s: %v", path, err)), nil
	}
	if err := sess.SetField(field, value); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := sess.Save(ctx, gateway.Cancel); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save %s: %v", path, err)), nil
	}
	if _, err := s.notes.GetNote(ctx, path); err != nil {
		s.logger.Warn("mcp: reindex after set_field failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", path)), nil
}

func (s *Server) renderNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", path, err)), nil
	}
	name := optString(req, "field")
	if name == "" {
		return mcp.NewToolResultText(render.Compose(note.Document)), nil
	}
	f, err := document.ParseField(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.renderer.Render(note.Document.Get(f))), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.notes.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) getFormatContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormatContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     FormatContract,
		},
	}, nil
}
