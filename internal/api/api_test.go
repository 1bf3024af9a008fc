package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/kornell/internal/document"
	"github.com/starford/kornell/internal/gateway"
	"github.com/starford/kornell/internal/noteservice"
	"github.com/starford/kornell/internal/render"
	"github.com/starford/kornell/internal/session"
	"github.com/starford/kornell/internal/testutil"
)

type testEnv struct {
	router http.Handler
	root   string
	svc    *noteservice.Service
}

// newTestEnv sets up a temp workspace, SQLite index, session manager and
// router. An empty token means auth is disabled.
func newTestEnv(t *testing.T, token string, events http.Handler) *testEnv {
	t.Helper()
	root, store := testutil.TestWorkspace(t)
	logger := testutil.Logger()
	svc := noteservice.NewService(store, testutil.TestDB(t), logger)
	mgr := session.NewManager(gateway.NewFS(store, logger), session.Options{
		Renderer: render.NewHTML(),
		Logger:   logger,
	})
	router := NewRouter(Deps{
		Notes:         svc,
		Sessions:      mgr,
		Renderer:      render.NewHTML(),
		Events:        events,
		WorkspaceRoot: root,
		AuthEnabled:   token != "",
		Token:         token,
		Logger:        logger,
	})
	return &testEnv{router: router, root: root, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestSaveBoundSessionWithoutBody(t *testing.T) {
	e := newTestEnv(t, "", nil)
	base := "/sessions/" + decode[session.Snapshot](t, e.do(t, http.MethodPost, "/sessions", nil)).ID

	// Unbound sessions still check the answer against the file filters.
	w := e.do(t, http.MethodPost, base+"/save", DialogRequest{Path: "one.txt"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unbound save to .txt = %d, want 400", w.Code)
	}
	// No body on an unbound session is a cancelled dialog.
	w = e.do(t, http.MethodPost, base+"/save", nil)
	if res := decode[DialogResponse](t, w); w.Code != http.StatusOK || !res.Result.Cancelled {
		t.Fatalf("bodyless unbound save = %d %+v", w.Code, res)
	}

	w = e.do(t, http.MethodPost, base+"/save", DialogRequest{Path: "one.kornell"})
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d, body = %s", w.Code, w.Body.String())
	}
	e.do(t, http.MethodPut, base+"/fields/cues", FieldRequest{Value: "why?"})

	w = e.do(t, http.MethodPost, base+"/save", nil)
	res := decode[DialogResponse](t, w)
	if w.Code != http.StatusOK || res.Result.Path != "one.kornell" || res.Session.State != session.StateSaved {
		t.Fatalf("bodyless save = %d %+v", w.Code, res)
	}
	doc := readFile(t, filepath.Join(e.root, "one.kornell"))
	if doc.Cues != "why?" {
		t.Errorf("cues on disk = %q", doc.Cues)
	}

	// The answer of a bound save is ignored, so it is not filtered either.
	w = e.do(t, http.MethodPost, base+"/save", DialogRequest{Path: "ignored.txt"})
	if w.Code != http.StatusOK {
		t.Errorf("bound save with leftover path = %d, body = %s", w.Code, w.Body.String())
	}
	w = e.do(t, http.MethodPost, base+"/save-as", DialogRequest{Path: "copy.txt"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("save-as to .txt = %d, want 400", w.Code)
	}
}

func readFile(t *testing.T, path string) document.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := document.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSessionLifecycle(t *testing.T) {
	e := newTestEnv(t, "", nil)

	w := e.do(t, http.MethodPost, "/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session = %d, body = %s", w.Code, w.Body.String())
	}
	snap := decode[session.Snapshot](t, w)
	if snap.ID == "" || snap.State != session.StateUnsaved {
		t.Fatalf("new session = %+v", snap)
	}
	base := "/sessions/" + snap.ID

	w = e.do(t, http.MethodPut, base+"/fields/title", FieldRequest{Value: "# Hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("set title = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[session.Snapshot](t, w).Document.Title; got != "# Hello" {
		t.Errorf("title = %q", got)
	}

	w = e.do(t, http.MethodPut, base+"/fields/margin", FieldRequest{Value: "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown field = %d, want 400", w.Code)
	}

	// Cancelled dialog: nothing written, still unsaved.
	w = e.do(t, http.MethodPost, base+"/save", DialogRequest{})
	res := decode[DialogResponse](t, w)
	if w.Code != http.StatusOK || !res.Result.Cancelled || res.Session.State != session.StateUnsaved {
		t.Fatalf("cancelled save = %d %+v", w.Code, res)
	}

	w = e.do(t, http.MethodPost, base+"/save", DialogRequest{Path: "lectures/one.kornell"})
	res = decode[DialogResponse](t, w)
	if w.Code != http.StatusOK || res.Result.Path != "lectures/one.kornell" || res.Session.State != session.StateSaved {
		t.Fatalf("save = %d %+v", w.Code, res)
	}
	if len(res.Session.Breadcrumb) != 2 || res.Session.Breadcrumb[1] != "one.kornell" {
		t.Errorf("breadcrumb = %v", res.Session.Breadcrumb)
	}
	onDisk, err := os.ReadFile(filepath.Join(e.root, "lectures", "one.kornell"))
	if err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	want, _ := document.Encode(res.Session.Document)
	if !bytes.Equal(onDisk, want) {
		t.Errorf("file content = %s, want %s", onDisk, want)
	}

	w = e.do(t, http.MethodPut, base+"/fields/notes", FieldRequest{Value: "mitosis"})
	if got := decode[session.Snapshot](t, w).State; got != session.StateModified {
		t.Errorf("state after edit = %q, want modified", got)
	}

	// A bound session saves in place; the dialog answer is ignored.
	w = e.do(t, http.MethodPost, base+"/save", DialogRequest{Path: "elsewhere.kornell"})
	res = decode[DialogResponse](t, w)
	if res.Result.Path != "lectures/one.kornell" || res.Session.State != session.StateSaved {
		t.Errorf("resave = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(e.root, "elsewhere.kornell")); !os.IsNotExist(err) {
		t.Error("save of a bound session must not prompt")
	}

	w = e.do(t, http.MethodPost, base+"/save-as", DialogRequest{Path: "copy.kornell"})
	res = decode[DialogResponse](t, w)
	if w.Code != http.StatusOK || res.Session.Path != "copy.kornell" {
		t.Fatalf("save-as = %d %+v", w.Code, res)
	}

	w = e.do(t, http.MethodDelete, base, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("close = %d", w.Code)
	}
	w = e.do(t, http.MethodGet, base, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get closed session = %d, want 404", w.Code)
	}
}

func TestSessionToggles(t *testing.T) {
	e := newTestEnv(t, "", nil)
	snap := decode[session.Snapshot](t, e.do(t, http.MethodPost, "/sessions", nil))
	base := "/sessions/" + snap.ID

	e.do(t, http.MethodPut, base+"/fields/title", FieldRequest{Value: "# Hello"})
	e.do(t, http.MethodPut, base+"/fields/notes", FieldRequest{Value: "**bold**"})

	w := e.do(t, http.MethodPost, base+"/toggle/source", nil)
	tr := decode[ToggleResponse](t, w)
	if !tr.Hidden || !tr.Session.Document.Metadata.HideSource {
		t.Fatalf("toggle source = %+v", tr)
	}
	title := tr.Session.Panes[document.FieldTitle]
	if title.Raw || !title.Rendered || !strings.Contains(title.HTML, "<h1>Hello</h1>") {
		t.Errorf("title pane = %+v", title)
	}
	if !strings.Contains(tr.Session.Panes[document.FieldNotes].HTML, "<strong>bold</strong>") {
		t.Errorf("notes pane = %+v", tr.Session.Panes[document.FieldNotes])
	}

	tr = decode[ToggleResponse](t, e.do(t, http.MethodPost, base+"/toggle/notes", nil))
	notes := tr.Session.Panes[document.FieldNotes]
	if !tr.Hidden || notes.Raw || notes.Rendered || notes.HTML != "" {
		t.Errorf("hidden notes pane = %+v", notes)
	}

	tr = decode[ToggleResponse](t, e.do(t, http.MethodPost, base+"/toggle/source", nil))
	if tr.Hidden || tr.Session.Panes[document.FieldTitle].HTML != "" {
		t.Errorf("source shown again = %+v", tr.Session.Panes)
	}
}

func TestSessionOpen(t *testing.T) {
	e := newTestEnv(t, "", nil)
	testutil.WriteDocument(t, e.root, "saved.kornell", document.Document{Title: "Saved", Notes: "body"})
	_ = os.WriteFile(filepath.Join(e.root, "broken.kornell"), []byte("{not json"), 0o644)

	snap := decode[session.Snapshot](t, e.do(t, http.MethodPost, "/sessions", nil))
	base := "/sessions/" + snap.ID

	w := e.do(t, http.MethodPost, base+"/open", DialogRequest{Path: "saved.kornell"})
	res := decode[DialogResponse](t, w)
	if w.Code != http.StatusOK || res.Session.Document.Title != "Saved" || res.Session.State != session.StateSaved {
		t.Fatalf("open = %d %+v", w.Code, res)
	}

	w = e.do(t, http.MethodPost, base+"/open", DialogRequest{Path: "missing.kornell"})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("open missing = %d, want 500", w.Code)
	}
	if msg := decode[errResponse](t, w).Error; msg != "file operation failed" {
		t.Errorf("error = %q", msg)
	}

	w = e.do(t, http.MethodPost, base+"/open", DialogRequest{Path: "broken.kornell"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("open broken = %d, want 422", w.Code)
	}

	w = e.do(t, http.MethodPost, base+"/open", DialogRequest{Path: "picture.png"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("open filtered = %d, want 400", w.Code)
	}

	// Failed opens keep the previous document and binding.
	got := decode[session.Snapshot](t, e.do(t, http.MethodGet, base, nil))
	if got.Path != "saved.kornell" || got.Document.Notes != "body" {
		t.Errorf("after failed opens = %+v", got)
	}

	got = decode[session.Snapshot](t, e.do(t, http.MethodPost, base+"/new", nil))
	if got.Path != "" || got.State != session.StateUnsaved || got.Document.Title != "" {
		t.Errorf("new = %+v", got)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	e := newTestEnv(t, "", nil)
	a := decode[session.Snapshot](t, e.do(t, http.MethodPost, "/sessions", nil))
	b := decode[session.Snapshot](t, e.do(t, http.MethodPost, "/sessions", nil))

	e.do(t, http.MethodPut, "/sessions/"+a.ID+"/fields/cues", FieldRequest{Value: "only in a"})

	got := decode[session.Snapshot](t, e.do(t, http.MethodGet, "/sessions/"+b.ID, nil))
	if got.Document.Cues != "" {
		t.Errorf("session b sees %q", got.Document.Cues)
	}
	list := decode[SessionListResponse](t, e.do(t, http.MethodGet, "/sessions", nil))
	if len(list.Sessions) != 2 {
		t.Errorf("sessions = %v", list.Sessions)
	}
	if w := e.do(t, http.MethodPost, "/sessions/nope/toggle/notes", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown session = %d, want 404", w.Code)
	}
}

func TestCreateAndGetNote(t *testing.T) {
	e := newTestEnv(t, "", nil)

	w := e.do(t, http.MethodPost, "/notes", CreateNoteRequest{
		Path:     "hello.kornell",
		Document: document.Document{Title: "Hello", Notes: "#greeting world"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/notes/hello.kornell", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	note := decode[noteservice.NoteDetail](t, w)
	if note.Title != "Hello" || note.Document.Notes != "#greeting world" {
		t.Errorf("note = %+v", note)
	}
	if w.Header().Get("ETag") != `"`+note.Checksum+`"` {
		t.Errorf("etag = %q", w.Header().Get("ETag"))
	}
}

func TestCreateNote_Errors(t *testing.T) {
	e := newTestEnv(t, "", nil)
	req := CreateNoteRequest{Path: "dup.kornell", Document: document.New()}
	e.do(t, http.MethodPost, "/notes", req)

	if w := e.do(t, http.MethodPost, "/notes", req); w.Code != http.StatusConflict {
		t.Errorf("duplicate = %d, want 409", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Path: "plain.md"}); w.Code != http.StatusBadRequest {
		t.Errorf("wrong extension = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/notes", CreateNoteRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing path = %d, want 400", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	e := newTestEnv(t, "", nil)
	created := decode[noteservice.NoteDetail](t, e.do(t, http.MethodPost, "/notes", CreateNoteRequest{
		Path:     "lock.kornell",
		Document: document.Document{Title: "v1"},
	}))

	body, _ := json.Marshal(document.Document{Title: "v2"})
	req := httptest.NewRequest(http.MethodPut, "/notes/lock.kornell", bytes.NewReader(body))
	req.Header.Set("If-Match", `"`+created.Checksum+`"`)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, "/notes/lock.kornell", bytes.NewReader(body))
	req.Header.Set("If-Match", created.Checksum)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("stale update = %d, want 409", w.Code)
	}

	if w := e.do(t, http.MethodPut, "/notes/missing.kornell", document.New()); w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	e := newTestEnv(t, "", nil)
	e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Path: "del.kornell", Document: document.New()})

	if w := e.do(t, http.MethodDelete, "/notes/del.kornell", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/notes/del.kornell", nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/notes/del.kornell", nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestMoveNote(t *testing.T) {
	e := newTestEnv(t, "", nil)
	e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Path: "a.kornell", Document: document.Document{Title: "A"}})

	w := e.do(t, http.MethodPost, "/move", MoveNoteRequest{From: "a.kornell", To: "topics/b.kornell"})
	if w.Code != http.StatusOK {
		t.Fatalf("move = %d, body = %s", w.Code, w.Body.String())
	}
	if w := e.do(t, http.MethodGet, "/notes/topics%2Fb.kornell", nil); w.Code != http.StatusOK {
		t.Errorf("get moved with encoded slash = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/notes/a.kornell", nil); w.Code != http.StatusNotFound {
		t.Errorf("get old path = %d, want 404", w.Code)
	}
}

func TestListSearchBacklinks(t *testing.T) {
	e := newTestEnv(t, "", nil)
	e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Path: "one.kornell", Document: document.Document{Title: "One", Notes: "#exam links to [[two]]"}})
	e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Path: "two.kornell", Document: document.Document{Title: "Two", Summary: "osmosis"}})

	list := decode[NoteListResponse](t, e.do(t, http.MethodGet, "/notes?tag=exam", nil))
	if list.Total != 1 || list.Notes[0].Path != "one.kornell" {
		t.Errorf("list by tag = %+v", list)
	}

	sr := decode[SearchResponse](t, e.do(t, http.MethodGet, "/search?q=osmosis", nil))
	if len(sr.Results) != 1 || sr.Results[0].Path != "two.kornell" {
		t.Errorf("search = %+v", sr)
	}
	if w := e.do(t, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}

	bl := decode[BacklinksResponse](t, e.do(t, http.MethodGet, "/backlinks/two.kornell", nil))
	if len(bl.Backlinks) != 1 || bl.Backlinks[0] != "one.kornell" {
		t.Errorf("backlinks = %+v", bl)
	}
}

func TestRenderEndpoint(t *testing.T) {
	e := newTestEnv(t, "", nil)
	w := e.do(t, http.MethodPost, "/render", RenderRequest{Markdown: "*hi* <script>x</script>"})
	out := decode[RenderResponse](t, w)
	if !strings.Contains(out.HTML, "<em>hi</em>") || strings.Contains(out.HTML, "<script>") {
		t.Errorf("render = %q", out.HTML)
	}
}

func TestAuthMiddleware(t *testing.T) {
	e := newTestEnv(t, "secret", nil)

	cases := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"valid header", "Bearer secret", "", http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", "", http.StatusUnauthorized},
		{"query token", "", "?access_token=secret", http.StatusOK},
		{"wrong query token", "", "?access_token=nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sessions"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			e.router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}

	// The query token is only honoured on GET.
	req := httptest.NewRequest(http.MethodPost, "/sessions?access_token=secret", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("POST with query token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	e := newTestEnv(t, "", nil)
	if w := e.do(t, http.MethodGet, "/sessions", nil); w.Code != http.StatusOK {
		t.Errorf("disabled auth = %d, want 200", w.Code)
	}
}

// stubEvents writes stream headers and blocks until the client leaves.
var stubEvents = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	e := newTestEnv(t, "secret", stubEvents)
	if w := e.do(t, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	e := newTestEnv(t, "tok", stubEvents)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAndServeAttachment(t *testing.T) {
	e := newTestEnv(t, "", nil)

	w := uploadFile(t, e.router, "cell.png", []byte("fake-png-data"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[AttachmentUploadResponse](t, w)
	if resp.Filename != "cell.png" || resp.Markdown != "![cell.png](/attachments/cell.png)" {
		t.Errorf("upload response = %+v", resp)
	}

	data, err := os.ReadFile(filepath.Join(e.root, "attachments", "cell.png"))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if string(data) != "fake-png-data" {
		t.Errorf("content mismatch")
	}

	if w := uploadFile(t, e.router, "cell.png", []byte("other")); w.Code != http.StatusConflict {
		t.Errorf("duplicate upload = %d, want 409", w.Code)
	}

	r := chi.NewRouter()
	r.Get("/attachments/{filename}", NewAttachmentHandler(e.root, nil).ServeFile)
	req := httptest.NewRequest(http.MethodGet, "/attachments/cell.png", nil)
	sw := httptest.NewRecorder()
	r.ServeHTTP(sw, req)
	if sw.Code != http.StatusOK || sw.Body.String() != "fake-png-data" {
		t.Errorf("serve = %d %q", sw.Code, sw.Body.String())
	}
}

func TestServeAttachment_NotFound(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", NewAttachmentHandler(t.TempDir(), nil).ServeFile)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attachments/nope.png", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing attachment = %d, want 404", w.Code)
	}
}

func TestServeAttachment_TraversalBlocked(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", NewAttachmentHandler(t.TempDir(), nil).ServeFile)

	for _, name := range []string{"../secret.kornell", "../../etc/passwd", "..%2Fsecret.kornell"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attachments/"+name, nil))
		if w.Code == http.StatusOK {
			t.Errorf("traversal %q should not return 200", name)
		}
	}
}

func TestUploadAttachment_InvalidFilename(t *testing.T) {
	e := newTestEnv(t, "", nil)
	w := uploadFile(t, e.router, "../escape.txt", []byte("bad"))
	if w.Code == http.StatusCreated {
		if _, err := os.Stat(filepath.Join(e.root, "..", "escape.txt")); err == nil {
			t.Error("file escaped workspace directory")
		}
	}
}

func TestUploadAttachment_MissingFileField(t *testing.T) {
	e := newTestEnv(t, "", nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}
