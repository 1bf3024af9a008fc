// Package storage defines the workspace file-system abstraction.
package storage

import "time"

// FileMetadata describes one Kornell file found in the workspace.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for workspace file operations.
// All paths are relative to the workspace root.
type Provider interface {
	// List returns metadata for every .kornell file under dir.
	List(dir string) ([]FileMetadata, error)
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path, creating parent dirs.
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string) error
	// Abs resolves path inside the workspace, rejecting escapes.
	Abs(path string) (string, error)
}
