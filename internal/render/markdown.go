// Package render turns note text into HTML for the browser front-end and
// into styled text for the terminal.
package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown source into display HTML.
type Renderer interface {
	Render(src string) string
}

// HTML renders GitHub-flavoured Markdown. Raw HTML in the source is
// dropped and dangerous link schemes are filtered, so the output can be
// injected into the page as-is.
type HTML struct {
	md goldmark.Markdown
}

// NewHTML returns the default HTML renderer.
func NewHTML() *HTML {
	return &HTML{md: goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			emoji.Emoji,
		),
		goldmark.WithRendererOptions(
			// html.WithUnsafe is deliberately absent.
			html.WithHardWraps(),
		),
	)}
}

// Render converts src. Blank input renders to the empty string.
func (h *HTML) Render(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var b bytes.Buffer
	if err := h.md.Convert([]byte(src), &b); err != nil {
		return "<pre>" + template.HTMLEscapeString(src) + "</pre>"
	}
	return b.String()
}
