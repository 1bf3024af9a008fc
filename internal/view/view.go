// Package view tracks which form of each note field is on screen: the raw
// text area or its rendered HTML.
package view

import (
	"github.com/starford/kornell/internal/document"
	"github.com/starford/kornell/internal/render"
)

// Pane is the display state of one field.
type Pane struct {
	Raw      bool   `json:"raw"`
	Rendered bool   `json:"rendered"`
	HTML     string `json:"html"`
}

// Visible applies the visibility rules for field f. Notes are additionally
// governed by hideNotes; the other fields only by hideSource.
func Visible(f document.Field, hideSource, hideNotes bool) (raw, rendered bool) {
	if f == document.FieldNotes {
		return !hideSource && !hideNotes, hideSource && !hideNotes
	}
	return !hideSource, hideSource
}

// Panes holds the rendered HTML containers and the two view flags.
type Panes struct {
	hideSource bool
	hideNotes  bool
	html       map[document.Field]string
	renderer   render.Renderer
}

// New returns panes in source mode with nothing rendered.
func New(r render.Renderer) *Panes {
	if r == nil {
		r = render.NewHTML()
	}
	return &Panes{html: make(map[document.Field]string, len(document.Fields)), renderer: r}
}

// HideSource reports whether fields are shown rendered.
func (p *Panes) HideSource() bool { return p.hideSource }

// HideNotes reports whether the notes pane is hidden.
func (p *Panes) HideNotes() bool { return p.hideNotes }

// Pane returns the display state of f.
func (p *Panes) Pane(f document.Field) Pane {
	raw, rendered := Visible(f, p.hideSource, p.hideNotes)
	return Pane{Raw: raw, Rendered: rendered, HTML: p.html[f]}
}

// All returns every pane keyed by field name.
func (p *Panes) All() map[document.Field]Pane {
	out := make(map[document.Field]Pane, len(document.Fields))
	for _, f := range document.Fields {
		out[f] = p.Pane(f)
	}
	return out
}

// SetHideSource switches between raw and rendered mode. Entering rendered
// mode renders every visible field from doc; hidden notes stay empty.
// Leaving it clears every container.
func (p *Panes) SetHideSource(v bool, doc document.Document) {
	p.hideSource = v
	clear(p.html)
	if !v {
		return
	}
	for _, f := range document.Fields {
		if f == document.FieldNotes && p.hideNotes {
			continue
		}
		p.html[f] = p.renderer.Render(doc.Get(f))
	}
}

// SetHideNotes changes only the notes pane. Notes are re-rendered when
// they become visible in rendered mode and cleared when hidden.
func (p *Panes) SetHideNotes(v bool, doc document.Document) {
	p.hideNotes = v
	switch {
	case v:
		delete(p.html, document.FieldNotes)
	case p.hideSource:
		p.html[document.FieldNotes] = p.renderer.Render(doc.Notes)
	}
}

// Refresh re-renders f after its text changed, if it is shown rendered.
func (p *Panes) Refresh(f document.Field, doc document.Document) {
	if _, rendered := Visible(f, p.hideSource, p.hideNotes); rendered {
		p.html[f] = p.renderer.Render(doc.Get(f))
	}
}

// Sync adopts the flags stored in doc and rebuilds the containers, as
// after loading a file.
func (p *Panes) Sync(doc document.Document) {
	p.hideNotes = doc.Metadata.HideNotes
	p.SetHideSource(doc.Metadata.HideSource, doc)
}

// Reset returns to source mode with empty containers.
func (p *Panes) Reset() {
	p.hideSource = false
	p.hideNotes = false
	clear(p.html)
}
