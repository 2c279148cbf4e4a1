// Package storage defines the file-system abstraction over inbox and export directories.
package storage

import "github.com/starford/mnemo/internal/models"

// Provider is the interface for directory file operations.
// All paths are relative to the provider's root.
type Provider interface {
	// List returns metadata for every importable file under dir, skipping hidden entries.
	List(dir string) ([]models.InboxFile, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
