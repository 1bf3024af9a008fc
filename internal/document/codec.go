package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/starford/kornell/internal/apperr"
)

// Encode renders doc as tab-indented JSON with a stable key order.
// HTML characters are written as-is so files diff cleanly.
func Encode(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("document: encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a Kornell file. Any JSON object is accepted; missing text
// fields decode as "" and missing flags as false. Keys match exactly, so
// "Notes" or "NOTES" are unknown keys and ignored. Malformed JSON or a
// top-level value that is not an object yields apperr.ErrParse.
func Decode(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Document{}, fmt.Errorf("%w: top-level value is not an object", apperr.ErrParse)
	}
	var doc Document
	var meta json.RawMessage
	err := decodeKeys(trimmed, map[string]any{
		"metadata": &meta,
		"title":    &doc.Title,
		"cues":     &doc.Cues,
		"notes":    &doc.Notes,
		"summary":  &doc.Summary,
	})
	if err == nil && meta != nil {
		err = decodeKeys(meta, map[string]any{
			"hideSource":           &doc.Metadata.HideSource,
			"hideNotes":            &doc.Metadata.HideNotes,
			"kornellFormatVersion": &doc.Metadata.FormatVersion,
		})
	}
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", apperr.ErrParse, err)
	}
	return doc, nil
}

// decodeKeys unmarshals the object in data and stores each listed key into
// its destination. encoding/json folds case when matching struct fields;
// looking keys up in a map does not.
func decodeKeys(data []byte, dst map[string]any) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, v := range dst {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(msg, v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}
