package service

import (
	"context"
	"encoding/json"
	"sync"

	domtel "github.com/Victoria423/vscode-anycode/internal/domain/telemetry"
	"github.com/Victoria423/vscode-anycode/internal/port/telemetry"
)

// FeatureTracker reports the first use of each (feature, language) pair.
// The analysis server notifies feature/used when a provider answers its
// first query; subsequent uses of the same pair are not re-reported.
type FeatureTracker struct {
	reporter telemetry.Reporter

	mu   sync.Mutex
	seen map[string]bool
}

// NewFeatureTracker creates a tracker over the given reporter.
func NewFeatureTracker(reporter telemetry.Reporter) *FeatureTracker {
	return &FeatureTracker{
		reporter: reporter,
		seen:     make(map[string]bool),
	}
}

// Used records one feature use, firing the telemetry event on first sight.
func (t *FeatureTracker) Used(ctx context.Context, name, lang string) {
	key := name + "|" + lang

	t.mu.Lock()
	first := !t.seen[key]
	t.seen[key] = true
	t.mu.Unlock()

	if !first {
		return
	}
	t.reporter.Event(ctx, domtel.EventFeature, domtel.FeatureEvent{
		Name:     name,
		Language: lang,
	})
}

// HandleNotification adapts the tracker to the feature/used notification
// issued by the analysis server.
func (t *FeatureTracker) HandleNotification(ctx context.Context, params json.RawMessage) (any, error) {
	var ev domtel.FeatureEvent
	if err := json.Unmarshal(params, &ev); err != nil {
		return nil, err
	}
	t.Used(ctx, ev.Name, ev.Language)
	return nil, nil
}
