// Package editor defines the ports through which the language registry
// observes host state: configuration and the installed-extension catalog.
// Both are injected so tests can substitute deterministic fakes.
package editor

import "github.com/Victoria423/vscode-anycode/internal/domain/language"

// Settings provides read-only access to the anycode configuration scope.
type Settings interface {
	// LanguageEnabled reports the per-language toggle. Absent means enabled.
	LanguageEnabled(id string) bool

	// FeatureEnabled reports the per-language feature toggle.
	// Absent means enabled.
	FeatureEnabled(id string, feat language.Feature) bool
}

// Catalog reports which companion extensions are installed. A language with
// an installed shadowing extension is excluded from the enabled set.
type Catalog interface {
	Installed(id string) bool
}
