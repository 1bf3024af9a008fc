package render

import (
	"html"
	"strings"
)

// Breadcrumb splits a file path into HTML-escaped segments. Both slash
// styles are separators so Windows paths render the same on every host.
func Breadcrumb(path string) []string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	if len(parts) == 0 {
		return nil
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = html.EscapeString(p)
	}
	return out
}

// BreadcrumbHTML renders the path as a Bootstrap breadcrumb list.
func BreadcrumbHTML(path string) string {
	segs := Breadcrumb(path)
	if len(segs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ol class="breadcrumb">`)
	for i, s := range segs {
		if i == len(segs)-1 {
			b.WriteString(`<li class="breadcrumb-item active" aria-current="page">`)
		} else {
			b.WriteString(`<li class="breadcrumb-item">`)
		}
		b.WriteString(s)
		b.WriteString(`</li>`)
	}
	b.WriteString(`</ol>`)
	return b.String()
}
