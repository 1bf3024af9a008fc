// Package parser extracts the indexable parts of a Kornell document:
// display title, searchable body, #tags and [[wikilinks]].
package parser

import (
	"path"
	"regexp"
	"strings"

	"github.com/starford/kornell/internal/document"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Result holds the parsed output of a Kornell file.
type Result struct {
	Document document.Document
	Title    string
	Body     string
	Tags     []string
	Links    []string
}

// Parse decodes data and extracts index data from every text field.
func Parse(data []byte) (*Result, error) {
	doc, err := document.Decode(data)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc), nil
}

// FromDocument extracts index data from an already decoded document.
func FromDocument(doc document.Document) *Result {
	var all strings.Builder
	for _, f := range document.Fields {
		all.WriteString(doc.Get(f))
		all.WriteByte('\n')
	}
	text := all.String()
	return &Result{
		Document: doc,
		Title:    deriveTitle(doc.Title),
		Body:     body(doc),
		Tags:     extractTags(text),
		Links:    extractLinks(text),
	}
}

// body is the searchable text outside the title.
func body(doc document.Document) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{doc.Cues, doc.Notes, doc.Summary} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// extractLinks returns deduplicated wikilink targets as file paths.
// [[Target|Alias]] links to Target; a target without an extension gets
// the Kornell one.
func extractLinks(text string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if path.Ext(target) == "" {
			target += document.Extension
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

func extractTags(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		t := m[1]
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// deriveTitle returns the first non-blank line of the title field with
// any Markdown heading marks removed.
func deriveTitle(title string) string {
	for _, line := range strings.Split(title, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line != "" {
			return line
		}
	}
	return ""
}
