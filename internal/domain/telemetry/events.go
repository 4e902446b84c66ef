// Package telemetry defines the telemetry event names and payload shapes.
// Event names and field names are frozen for compatibility with existing
// dashboards; do not rename them.
package telemetry

// Event names.
const (
	EventFeature = "feature"
	EventInit    = "init"
)

// FeatureEvent is fired the first time a feature is used for a language.
type FeatureEvent struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}

// InitEvent is fired once per bulk workspace initialization run.
type InitEvent struct {
	NumOfFiles           int   `json:"numOfFiles"`
	IndexSize            int   `json:"indexSize"`
	HasWorkspaceContents bool  `json:"hasWorkspaceContents"`
	Duration             int64 `json:"duration"` // milliseconds
}
