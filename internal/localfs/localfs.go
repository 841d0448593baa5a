// Package localfs adapts a go-billy filesystem to the operations the deploy
// engine needs on the upload directory.
package localfs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Filesystem is the read side of the local tree being deployed.
type Filesystem interface {
	// Walk walks the file tree rooted at root, calling fn for each entry.
	Walk(root string, fn filepath.WalkFunc) error

	// ReadFile reads the named file.
	ReadFile(path string) ([]byte, error)

	// Open opens the named file for reading.
	Open(path string) (billy.File, error)
}

// FS implements Filesystem using go-billy.
type FS struct {
	fs billy.Filesystem
}

// New wraps an existing billy filesystem.
func New(fs billy.Filesystem) *FS {
	return &FS{fs: fs}
}

// NewOSFS returns a filesystem backed by the OS, rooted at root.
func NewOSFS(root string) *FS {
	return &FS{fs: osfs.New(root)}
}

// NewInMemoryFS returns an empty in-memory filesystem.
func NewInMemoryFS() *FS {
	return &FS{fs: memfs.New()}
}

// Walk implements Filesystem.Walk.
func (b *FS) Walk(root string, fn filepath.WalkFunc) error {
	if err := util.Walk(b.fs, root, fn); err != nil {
		return fmt.Errorf("billy: walk %q: %w", root, err)
	}
	return nil
}

// ReadFile implements Filesystem.ReadFile.
func (b *FS) ReadFile(path string) ([]byte, error) {
	bts, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, fmt.Errorf("billy: readfile %q: %w", path, err)
	}
	return bts, nil
}

// Open implements Filesystem.Open.
//
//nolint:ireturn // billy.File is the natural return type here.
func (b *FS) Open(path string) (billy.File, error) {
	f, err := b.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("billy: open %q: %w", path, err)
	}
	return f, nil
}

// WriteFile writes data to the named file, creating parent directories.
func (b *FS) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := b.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("billy: mkdirall %q: %w", filepath.Dir(path), err)
	}
	if err := util.WriteFile(b.fs, path, data, perm); err != nil {
		return fmt.Errorf("billy: writefile %q: %w", path, err)
	}
	return nil
}

// Raw returns the underlying billy filesystem.
//
//nolint:ireturn // exposes the wrapped implementation.
func (b *FS) Raw() billy.Filesystem {
	return b.fs
}
