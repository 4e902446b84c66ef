package config

import (
	"sync/atomic"

	"github.com/Victoria423/vscode-anycode/internal/domain/language"
)

// View is a hot-swappable read view over a Config. It implements the
// editor.Settings port; Replace installs a reloaded configuration without
// disturbing readers.
type View struct {
	p atomic.Pointer[Config]
}

// NewView creates a View over the given configuration.
func NewView(cfg *Config) *View {
	v := &View{}
	v.p.Store(cfg)
	return v
}

// Replace swaps in a new configuration.
func (v *View) Replace(cfg *Config) {
	v.p.Store(cfg)
}

// Config returns the current configuration.
func (v *View) Config() *Config {
	return v.p.Load()
}

// LanguageEnabled reports the languages.<id>.enabled flag. Absent means true.
func (v *View) LanguageEnabled(id string) bool {
	lang, ok := v.Config().Languages[id]
	if !ok || lang.Enabled == nil {
		return true
	}
	return *lang.Enabled
}

// FeatureEnabled reports the languages.<id>.features.<feature> flag.
// Absent means true.
func (v *View) FeatureEnabled(id string, feat language.Feature) bool {
	lang, ok := v.Config().Languages[id]
	if !ok {
		return true
	}
	on, ok := lang.Features[string(feat)]
	if !ok || on == nil {
		return true
	}
	return *on
}
