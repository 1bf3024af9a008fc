package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/starford/kornell/internal/document"
)

// Terminal styles. All but StyleAuto are glamour standard style names.
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
	StyleASCII = "ascii"
)

// TerminalOptions controls glamour output.
type TerminalOptions struct {
	Style    string
	WordWrap int
}

// Compose lays a document out as one Markdown page: title heading, then
// cues, notes and summary sections. Notes are left out when the document
// hides them. Empty sections are skipped.
func Compose(doc document.Document) string {
	var b strings.Builder
	if t := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(doc.Title), "#")); t != "" {
		b.WriteString("# ")
		b.WriteString(t)
		b.WriteString("\n\n")
	}
	section := func(name, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		b.WriteString("## ")
		b.WriteString(name)
		b.WriteString("\n\n")
		b.WriteString(strings.TrimRight(body, "\n"))
		b.WriteString("\n\n")
	}
	section("Cues", doc.Cues)
	if !doc.Metadata.HideNotes {
		section("Notes", doc.Notes)
	}
	section("Summary", doc.Summary)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Terminal renders doc for a terminal.
func Terminal(doc document.Document, opts TerminalOptions) (string, error) {
	styleOpt := glamour.WithAutoStyle()
	if opts.Style != "" && opts.Style != StyleAuto {
		styleOpt = glamour.WithStandardStyle(opts.Style)
	}
	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(opts.WordWrap))
	if err != nil {
		return "", fmt.Errorf("render: terminal renderer: %w", err)
	}
	out, err := tr.Render(Compose(doc))
	if err != nil {
		return "", fmt.Errorf("render: terminal: %w", err)
	}
	return out, nil
}
