// Package localfs implements the workspace file-system port over a local
// directory tree. Local workspaces are never rate-limited, so full content
// fetch is always available.
package localfs

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Victoria423/vscode-anycode/internal/domain"
)

// FS is a local-disk workspace rooted at a single directory.
type FS struct {
	root string
	docs *Documents
}

// New creates a workspace FS rooted at the given directory.
func New(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", abs)
	}
	return &FS{root: abs, docs: NewDocuments()}, nil
}

// Root returns the workspace root path.
func (f *FS) Root() string { return f.root }

// Virtual reports false: local workspaces are on disk.
func (f *FS) Virtual() bool { return false }

// Documents returns the open-document table attached editors write into.
func (f *FS) Documents() *Documents { return f.docs }

// ContentFetchable always reports true for local workspaces.
func (f *FS) ContentFetchable(_ context.Context) (bool, error) {
	return true, nil
}

// Enumerate walks the workspace and returns file URIs matching any of the
// given suffixes, minus exclusions. Discovery order is the lexicographic
// directory-walk order, which keeps truncation-by-cap deterministic.
func (f *FS) Enumerate(ctx context.Context, suffixes, excludes []string) ([]string, error) {
	want := make(map[string]bool, len(suffixes))
	for _, s := range suffixes {
		want[strings.ToLower(s)] = true
	}

	var uris []string
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, relErr := filepath.Rel(f.root, path)
		if relErr != nil || rel == "." {
			return nil
		}

		if d.IsDir() {
			if excluded(rel, excludes) {
				return fs.SkipDir
			}
			return nil
		}

		if excluded(rel, excludes) {
			return nil
		}

		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(rel)), ".")
		if ext == "" || !want[ext] {
			return nil
		}

		uris = append(uris, PathToURI(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", f.root, err)
	}
	return uris, nil
}

// Stat returns the size of the file at the given URI.
func (f *FS) Stat(_ context.Context, uri string) (int64, error) {
	path, err := URIToPath(uri)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// Read returns the full content of the file at the given URI.
func (f *FS) Read(_ context.Context, uri string) ([]byte, error) {
	path, err := URIToPath(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: URIs come from our own enumeration or the trusted server
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// OpenDocument returns the editor-held content for the given URI.
func (f *FS) OpenDocument(_ context.Context, uri string) ([]byte, error) {
	data, ok := f.docs.Get(uri)
	if !ok {
		return nil, fmt.Errorf("document not open: %s: %w", uri, domain.ErrNotFound)
	}
	return data, nil
}

// Documents is the table of editor-held document contents. Notebook cells
// only exist here: they have no on-disk file to read.
type Documents struct {
	mu   sync.RWMutex
	open map[string][]byte
}

// NewDocuments creates an empty open-document table.
func NewDocuments() *Documents {
	return &Documents{open: make(map[string][]byte)}
}

// Put stores the current content for a document URI.
func (d *Documents) Put(uri string, content []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open[uri] = content
}

// Remove drops a document, typically when the editor closes it.
func (d *Documents) Remove(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.open, uri)
}

// Get returns the content for an open document.
func (d *Documents) Get(uri string) ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, ok := d.open[uri]
	return data, ok
}

// PathToURI converts an absolute path to a file URI.
func PathToURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// URIToPath converts a file URI to a local path.
func URIToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("not a file uri: %s", uri)
	}
	return filepath.FromSlash(u.Path), nil
}
