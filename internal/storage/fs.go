package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/chessboards/internal/checksum"
	"github.com/starford/chessboards/internal/models"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to output directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute output directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative path against the root and rejects any
// result that escapes it.
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes output root: %s", rel)
	}
	return abs, nil
}

// List scans the root for "<index>.png" files that have a matching
// "<index>.json" and returns them sorted by index.
func (f *FS) List() ([]Entry, error) {
	dirents, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []Entry
	for _, d := range dirents {
		name := d.Name()
		if d.IsDir() || !strings.HasSuffix(name, ".png") {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(name, ".png"))
		if err != nil || idx < 0 || models.ImageName(idx) != name {
			continue
		}
		if _, err := os.Stat(filepath.Join(f.root, models.MetadataName(idx))); err != nil {
			continue
		}
		info, err := d.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		data, err := os.ReadFile(filepath.Join(f.root, name))
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		out = append(out, Entry{
			Index:         idx,
			ImageChecksum: checksum.Sum(data),
			UpdatedAt:     info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// Incomplete reports indices left with an image but no metadata, or the
// reverse.
func (f *FS) Incomplete() ([]int, error) {
	dirents, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: incomplete: %w", err)
	}
	images := make(map[int]bool)
	metas := make(map[int]bool)
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		name := d.Name()
		ext := filepath.Ext(name)
		idx, err := strconv.Atoi(strings.TrimSuffix(name, ext))
		if err != nil || idx < 0 {
			continue
		}
		switch name {
		case models.ImageName(idx):
			images[idx] = true
		case models.MetadataName(idx):
			metas[idx] = true
		}
	}

	var out []int
	for idx := range images {
		if !metas[idx] {
			out = append(out, idx)
		}
	}
	for idx := range metas {
		if !images[idx] {
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out, nil
}

// Read returns the raw bytes of an output file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".chessboards-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// WriteItem writes the image first and the metadata second. List only
// reports an index once its metadata exists, and a failed metadata write
// removes the image again.
func (f *FS) WriteItem(index int, image, metadata []byte) error {
	imgPath := models.ImageName(index)
	if err := f.Write(imgPath, image); err != nil {
		return err
	}
	if err := f.Write(models.MetadataName(index), metadata); err != nil {
		if delErr := f.Delete(imgPath); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}
	return nil
}

// Delete removes a file from the output directory. Missing files are not
// an error.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}
