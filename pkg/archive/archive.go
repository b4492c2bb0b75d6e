// Package archive opens Zapier export bundles and normalizes their contents
// into models.WorkflowExport regardless of the export generation.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ErrMalformedArchive is returned when no usable workflow document can be read
var ErrMalformedArchive = errors.New("malformed archive")

// Archive is the minimal container capability the normalizer needs
type Archive interface {
	Entries() []string
	ReadEntry(name string) ([]byte, error)
}

type zipArchive struct {
	reader *zip.Reader
	names  []string
}

// OpenZip reads a zip container held in memory
func OpenZip(data []byte) (Archive, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArchive, err)
	}
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	return &zipArchive{reader: r, names: names}, nil
}

func (z *zipArchive) Entries() []string {
	return z.names
}

func (z *zipArchive) ReadEntry(name string) ([]byte, error) {
	for _, f := range z.reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("entry not found: %s", name)
}

type dirArchive struct {
	root  string
	names []string
}

// OpenDir exposes an unpacked export directory as an Archive
func OpenDir(root string) (Archive, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var names []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	return &dirArchive{root: root, names: names}, nil
}

func (d *dirArchive) Entries() []string {
	return d.names
}

func (d *dirArchive) ReadEntry(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.root, filepath.FromSlash(name)))
}

// MapArchive is an in-memory archive keyed by entry name
type MapArchive map[string][]byte

func (m MapArchive) Entries() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m MapArchive) ReadEntry(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("entry not found: %s", name)
	}
	return data, nil
}

// Open picks the archive implementation for a path on disk
func Open(path string) (Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return OpenDir(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenZip(data)
}
