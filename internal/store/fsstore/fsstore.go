// Package fsstore implements store.FileSource over a plain OS directory;
// it is the sync engine's file source, not a store.Store backend. It is
// kept minimal (listing + reading bytes) since the
// sync engine only needs the read side of the workspace's file tree; the
// write side (asset generation) is CLI/caller responsibility per spec.md
// §1's "thin glue ... is explicitly excluded."
package fsstore

import (
	"context"
	"os"
	"path/filepath"

	"contractkit/internal/core"
)

// FileSource reads a workspace's asset files from root on the local
// filesystem.
type FileSource struct {
	root string
}

// New returns a FileSource rooted at root.
func New(root string) *FileSource {
	return &FileSource{root: root}
}

// ListFiles walks root and returns every regular file's path relative to
// root, using forward slashes regardless of OS.
func (f *FileSource) ListFiles(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(f.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(f.root, path)
		if relErr != nil {
			return relErr
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &core.IOError{Op: "list workspace files", Err: err}
	}
	return paths, nil
}

// ReadFile reads one file's bytes by its ListFiles-relative path.
func (f *FileSource) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, &core.IOError{Op: "read workspace file " + path, Err: err}
	}
	return data, nil
}
