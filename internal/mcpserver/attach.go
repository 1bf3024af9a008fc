package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	attachDir    = "attachments"
	maxImageSize = 10 << 20 // 10 MB
)

var (
	mimeToExt = map[string]string{
		"image/png":     ".png",
		"image/jpeg":    ".jpg",
		"image/gif":     ".gif",
		"image/webp":    ".webp",
		"image/svg+xml": ".svg",
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

type attachResult struct {
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
}

// attachImage stores a base64 data URI under attachments/. Only inline
// data is accepted; the server never fetches remote URLs.
func (s *Server) attachImage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, err := req.RequireString("data_uri")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, ext, err := decodeDataURI(uri)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) > maxImageSize {
		return mcp.NewToolResultError(fmt.Sprintf("image too large: %d bytes (max %d)", len(data), maxImageSize)), nil
	}
	if err := checkContent(data, ext); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := attachmentName(optString(req, "filename"), ext)
	rel := attachDir + "/" + name
	if _, readErr := s.store.Read(rel); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("attachment already exists: %s", name)), nil
	}
	if err := s.store.Write(rel, data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save attachment: %v", err)), nil
	}

	u := "/" + rel
	out, _ := json.Marshal(attachResult{URL: u, Markdown: fmt.Sprintf("![%s](%s)", name, u)})
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses data:<mime>;base64,<payload> and returns the bytes
// and the extension for the MIME type.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("expected a data: URI")
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	ext := mimeToExt[mime]
	if ext == "" {
		return nil, "", fmt.Errorf("unsupported image type: %s", mime)
	}
	return data, ext, nil
}

// attachmentName sanitizes the requested name and forces ext. Without a
// name a random one is generated.
func attachmentName(requested, ext string) string {
	base := strings.TrimSuffix(filepath.Base(requested), filepath.Ext(requested))
	base = safeFilenameRe.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == "_" {
		base = uuid.NewString()
	}
	return base + ext
}

// checkContent verifies the bytes match the declared image type.
func checkContent(data []byte, ext string) error {
	if ext == ".svg" {
		prefix := data[:min(len(data), 1024)]
		if !bytes.Contains(prefix, []byte("<svg")) {
			return fmt.Errorf("content does not appear to be a valid SVG")
		}
		return nil
	}
	detected := http.DetectContentType(data)
	if mimeToExt[strings.Split(detected, ";")[0]] != ext {
		return fmt.Errorf("content does not match %s (detected: %s)", ext, detected)
	}
	return nil
}
