// Package extensions implements the companion-extension catalog over a
// directory of installed extensions, one subdirectory per extension ID.
// Install and remove events invalidate the language registry.
package extensions

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Catalog reports installed extensions from a directory listing.
type Catalog struct {
	dir string

	mu        sync.RWMutex
	installed map[string]bool

	watcher *fsnotify.Watcher
}

// Open reads the extensions directory and returns a catalog. A missing or
// empty directory yields an empty catalog, not an error: absence of
// companion extensions is the normal case.
func Open(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir, installed: make(map[string]bool)}
	c.rescan()
	return c, nil
}

// Installed reports whether the given extension ID is installed.
func (c *Catalog) Installed(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.installed[id]
}

// Watch rescans the directory on any change and invokes onChange once per
// event batch. The returned function stops the watcher.
func (c *Catalog) Watch(onChange func()) (func(), error) {
	if c.dir == "" {
		return func() {}, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(c.dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	c.watcher = w

	go func() {
		for {
			select {
			case _, ok := <-w.Events:
				if !ok {
					return
				}
				c.rescan()
				onChange()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("extension catalog watcher error", "error", err)
			}
		}
	}()

	return func() { _ = w.Close() }, nil
}

// rescan rebuilds the installed set from the directory listing.
func (c *Catalog) rescan() {
	installed := make(map[string]bool)
	if c.dir != "" {
		entries, err := os.ReadDir(c.dir)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("extension catalog scan failed", "dir", c.dir, "error", err)
			}
		} else {
			for _, e := range entries {
				if e.IsDir() {
					installed[extensionID(e.Name())] = true
				}
			}
		}
	}

	c.mu.Lock()
	c.installed = installed
	c.mu.Unlock()
}

// extensionID strips the trailing version from an installed extension
// directory name, e.g. "golang.go-0.41.2" becomes "golang.go".
func extensionID(dirName string) string {
	if i := strings.LastIndex(dirName, "-"); i > 0 {
		rest := dirName[i+1:]
		if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
			return dirName[:i]
		}
	}
	return dirName
}
