// Package gateway is the persistence boundary of an editor session: file
// reads and writes plus the user-driven path selection dialogs.
package gateway

import (
	"context"
	"path/filepath"
	"strings"
)

// Files reads and writes document text. Every failure is reported as
// apperr.ErrIO; callers cannot tell a missing file from a permission error.
type Files interface {
	Open(ctx context.Context, path string) (string, error)
	Save(ctx context.Context, path, content string) error
}

// Dialogs lets the user pick a path. ok is false when the user cancelled.
type Dialogs interface {
	OpenFileDialog(ctx context.Context) (path string, ok bool)
	SaveFileDialog(ctx context.Context, defaultName string) (path string, ok bool)
}

// Filters are the extensions offered by the file dialogs.
// .md is listed for parity with the desktop app even though its content
// must still be Kornell JSON.
var Filters = []string{".kornell", ".md"}

// MatchesFilter reports whether path carries one of the dialog extensions.
func MatchesFilter(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Filters {
		if ext == f {
			return true
		}
	}
	return false
}

// Answer is a dialog whose outcome was decided up front, e.g. by a path in
// an HTTP request or a CLI argument. The empty answer cancels.
type Answer string

// Cancel is a dialog the user always dismisses.
const Cancel = Answer("")

func (a Answer) OpenFileDialog(context.Context) (string, bool) {
	return string(a), a != ""
}

func (a Answer) SaveFileDialog(context.Context, string) (string, bool) {
	return string(a), a != ""
}
