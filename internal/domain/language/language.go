// Package language defines the static table of languages the analysis server
// can handle, their grammar assets, and their file-suffix associations.
package language

// Feature identifies one language-intelligence capability.
type Feature string

// All features the analysis server can provide per language.
const (
	FeatureCompletions      Feature = "completions"
	FeatureDefinitions      Feature = "definitions"
	FeatureReferences       Feature = "references"
	FeatureHighlights       Feature = "highlights"
	FeatureOutline          Feature = "outline"
	FeatureWorkspaceSymbols Feature = "workspaceSymbols"
	FeatureFolding          Feature = "folding"
)

// indexingFeatures are the capabilities that require bulk workspace indexing.
var indexingFeatures = []Feature{
	FeatureWorkspaceSymbols,
	FeatureReferences,
	FeatureDefinitions,
}

// Info describes one supported language. Immutable after construction.
type Info struct {
	ID           string   // language identifier, e.g. "go"
	GrammarAsset string   // grammar file name relative to the grammars dir
	Suffixes     []string // file suffixes without the leading dot
	ShadowedBy   []string // extension IDs that provide richer support
}

// Flags holds the resolved per-feature enablement for one language.
type Flags struct {
	Completions      bool `json:"completions"`
	Definitions      bool `json:"definitions"`
	References       bool `json:"references"`
	Highlights       bool `json:"highlights"`
	Outline          bool `json:"outline"`
	WorkspaceSymbols bool `json:"workspaceSymbols"`
	Folding          bool `json:"folding"`
}

// Enabled reports whether the given feature flag is set.
func (f Flags) Enabled(feat Feature) bool {
	switch feat {
	case FeatureCompletions:
		return f.Completions
	case FeatureDefinitions:
		return f.Definitions
	case FeatureReferences:
		return f.References
	case FeatureHighlights:
		return f.Highlights
	case FeatureOutline:
		return f.Outline
	case FeatureWorkspaceSymbols:
		return f.WorkspaceSymbols
	case FeatureFolding:
		return f.Folding
	default:
		return false
	}
}

// NeedsIndex reports whether any indexing-relevant capability is enabled.
func (f Flags) NeedsIndex() bool {
	for _, feat := range indexingFeatures {
		if f.Enabled(feat) {
			return true
		}
	}
	return false
}

// Resolved pairs a static language entry with its resolved feature flags.
type Resolved struct {
	Info  Info
	Flags Flags
}

// Table is the static language table. Created once; never mutated.
// A language is excluded at read time when a shadowing extension is
// installed or its enabled flag is off.
var Table = []Info{
	{ID: "c", GrammarAsset: "tree-sitter-c.wasm", Suffixes: []string{"c", "h"}, ShadowedBy: []string{"ms-vscode.cpptools"}},
	{ID: "cpp", GrammarAsset: "tree-sitter-cpp.wasm", Suffixes: []string{"cpp", "cc", "cxx", "hpp", "hh"}, ShadowedBy: []string{"ms-vscode.cpptools"}},
	{ID: "csharp", GrammarAsset: "tree-sitter-c_sharp.wasm", Suffixes: []string{"cs"}, ShadowedBy: []string{"ms-dotnettools.csharp"}},
	{ID: "go", GrammarAsset: "tree-sitter-go.wasm", Suffixes: []string{"go"}, ShadowedBy: []string{"golang.go"}},
	{ID: "java", GrammarAsset: "tree-sitter-java.wasm", Suffixes: []string{"java"}, ShadowedBy: []string{"redhat.java"}},
	{ID: "php", GrammarAsset: "tree-sitter-php.wasm", Suffixes: []string{"php", "php4", "php5", "phtml"}, ShadowedBy: []string{"bmewburn.vscode-intelephense-client"}},
	{ID: "python", GrammarAsset: "tree-sitter-python.wasm", Suffixes: []string{"py", "pyi"}, ShadowedBy: []string{"ms-python.python", "ms-python.vscode-pylance"}},
	{ID: "rust", GrammarAsset: "tree-sitter-rust.wasm", Suffixes: []string{"rs"}, ShadowedBy: []string{"rust-lang.rust-analyzer"}},
	{ID: "typescript", GrammarAsset: "tree-sitter-typescript.wasm", Suffixes: []string{"ts", "tsx", "js", "jsx"}, ShadowedBy: []string{"vscode.typescript-language-features"}},
}

// Lookup returns the table entry for the given language ID.
func Lookup(id string) (Info, bool) {
	for _, info := range Table {
		if info.ID == id {
			return info, true
		}
	}
	return Info{}, false
}
