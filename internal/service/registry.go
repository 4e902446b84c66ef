package service

import (
	"sync"

	"github.com/Victoria423/vscode-anycode/internal/domain/language"
	"github.com/Victoria423/vscode-anycode/internal/port/editor"
)

// Registry resolves the currently enabled languages. The static table is
// filtered at read time by the installed-extension catalog and the
// per-language configuration flags; the filtered view is cached and
// recomputed lazily after an invalidation.
type Registry struct {
	settings editor.Settings
	catalog  editor.Catalog

	mu     sync.Mutex
	cached []language.Resolved // nil means invalid
	valid  bool

	subs   map[int]func()
	nextID int
}

// NewRegistry creates a registry over the given settings and catalog.
func NewRegistry(settings editor.Settings, catalog editor.Catalog) *Registry {
	return &Registry{
		settings: settings,
		catalog:  catalog,
		subs:     make(map[int]func()),
	}
}

// Enabled returns the enabled languages with their resolved feature flags.
// The result is cached until the next Invalidate.
func (r *Registry) Enabled() []language.Resolved {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.valid {
		r.cached = r.resolve()
		r.valid = true
	}
	return r.cached
}

// Selector returns the document-matching predicate for the enabled set.
func (r *Registry) Selector() *language.Selector {
	return language.NewSelector(r.Enabled())
}

// Subscribe registers a change listener. The returned function removes it;
// callers must unsubscribe when their own lifecycle ends so listeners do
// not leak across supervisor restarts.
func (r *Registry) Subscribe(fn func()) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.subs[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

// Invalidate drops the cached view and notifies every subscriber exactly
// once. Called when the extension catalog or the configuration changes.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	r.valid = false
	r.cached = nil
	fns := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	// Notify outside the lock: subscribers typically read Enabled().
	for _, fn := range fns {
		fn()
	}
}

// resolve filters the static table. A language is enabled iff no shadowing
// extension is installed and its enabled flag is true or absent.
func (r *Registry) resolve() []language.Resolved {
	var out []language.Resolved
	for _, info := range language.Table {
		if r.shadowed(info) {
			continue
		}
		if !r.settings.LanguageEnabled(info.ID) {
			continue
		}
		out = append(out, language.Resolved{
			Info:  info,
			Flags: r.flags(info.ID),
		})
	}
	return out
}

func (r *Registry) shadowed(info language.Info) bool {
	for _, ext := range info.ShadowedBy {
		if r.catalog.Installed(ext) {
			return true
		}
	}
	return false
}

func (r *Registry) flags(id string) language.Flags {
	return language.Flags{
		Completions:      r.settings.FeatureEnabled(id, language.FeatureCompletions),
		Definitions:      r.settings.FeatureEnabled(id, language.FeatureDefinitions),
		References:       r.settings.FeatureEnabled(id, language.FeatureReferences),
		Highlights:       r.settings.FeatureEnabled(id, language.FeatureHighlights),
		Outline:          r.settings.FeatureEnabled(id, language.FeatureOutline),
		WorkspaceSymbols: r.settings.FeatureEnabled(id, language.FeatureWorkspaceSymbols),
		Folding:          r.settings.FeatureEnabled(id, language.FeatureFolding),
	}
}
