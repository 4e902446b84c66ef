// Package workspace defines the port over the workspace file system the
// host operates on. Local disk is the common case; virtual workspaces are
// backed by rate-limited remote providers.
package workspace

import "context"

// FS abstracts file access for one workspace root.
type FS interface {
	// Root returns the workspace root path.
	Root() string

	// Virtual reports whether the workspace is backed by a non-local,
	// possibly rate-limited provider.
	Virtual() bool

	// ContentFetchable reports whether full workspace contents can be
	// fetched without rate limits. Callers treat an error as "no".
	ContentFetchable(ctx context.Context) (bool, error)

	// Enumerate returns URIs of all files matching any of the given
	// suffixes, minus exclusion globs, in discovery order. No cap is
	// applied; callers need the true total.
	Enumerate(ctx context.Context, suffixes, excludes []string) ([]string, error)

	// Stat returns the size in bytes of the file at the given URI.
	Stat(ctx context.Context, uri string) (int64, error)

	// Read returns the full content of the file at the given URI.
	Read(ctx context.Context, uri string) ([]byte, error)

	// OpenDocument returns the current content of a document held open by
	// the editor (interactive/notebook cells resolve only here).
	OpenDocument(ctx context.Context, uri string) ([]byte, error)
}
