package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/kornell/internal/apperr"
)

func tempWorkspace(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempWorkspace(t)
	content := []byte(`{"title": "Hello"}`)
	if err := s.Write("note.kornell", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.kornell")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempWorkspace(t)
	if err := s.Write("a/b/c.kornell", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.kornell")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestDeleteAndMove(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("old.kornell", []byte("data"))
	if err := s.Move("old.kornell", "sub/new.kornell"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := s.Read("old.kornell"); err == nil {
		t.Error("old path should not exist")
	}
	if err := s.Delete("sub/new.kornell"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("sub/new.kornell"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestList_OnlyKornellFiles(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("a.kornell", []byte("a"))
	_ = s.Write("sub/b.kornell", []byte("b"))
	_ = s.Write("readme.md", []byte("markdown is not indexed"))
	_ = s.Write(".hidden/c.kornell", []byte("skipped"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2 (%+v)", len(items), items)
	}
	for _, it := range items {
		if it.Path != "a.kornell" && it.Path != "sub/b.kornell" {
			t.Errorf("unexpected path %q", it.Path)
		}
		if it.Checksum == "" {
			t.Errorf("missing checksum for %s", it.Path)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempWorkspace(t)
	for _, p := range []string{"../../etc/passwd", "../outside.kornell", "/etc/shadow"} {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Read(%q) err = %v, want ErrInvalidPath", p, err)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAbs_AcceptsPathInsideRoot(t *testing.T) {
	s := tempWorkspace(t)
	inside := filepath.Join(s.Root(), "x", "doc.kornell")
	got, err := s.Abs(inside)
	if err != nil {
		t.Fatalf("Abs: %v", err)
	}
	if got != inside {
		t.Errorf("Abs = %q, want %q", got, inside)
	}
	rel, err := s.Rel(got)
	if err != nil || rel != "x/doc.kornell" {
		t.Errorf("Rel = %q, %v", rel, err)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := tempWorkspace(t)
	_ = s.Write("atomic.kornell", []byte("original"))
	if err := s.Write("atomic.kornell", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.kornell")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.root, ".kornell-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_Errors(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for non-existent dir")
	}
	f, _ := os.CreateTemp(t.TempDir(), "kornell-test-*")
	_ = f.Close()
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
