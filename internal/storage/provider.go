// Package storage defines the output-directory abstraction for collection artifacts.
package storage

import "time"

// Entry describes one complete item (image and metadata) found on disk.
type Entry struct {
	Index         int
	ImageChecksum string
	UpdatedAt     time.Time
}

// Provider is the interface for output file operations.
type Provider interface {
	// List returns every index whose image and metadata files both exist.
	List() ([]Entry, error)
	// Incomplete returns every index where only one of the image and
	// metadata files exists.
	Incomplete() ([]int, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// WriteItem writes the image and metadata of one item. Either both
	// files end up on disk or neither does.
	WriteItem(index int, image, metadata []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
}
