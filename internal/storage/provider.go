// Package storage defines the vault file-system abstraction.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// FileInfo describes one vault file in a listing.
type FileInfo struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// Checksum returns the hex-encoded SHA-256 digest of content. The index
// compares these digests to skip re-parsing unchanged notes.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Provider is the interface for vault file operations. All paths are
// slash-separated and relative to the vault root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath. Works for files and directories.
	Move(oldPath, newPath string) error
}
