package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Victoria423/vscode-anycode/internal/adapter/otel"
	"github.com/Victoria423/vscode-anycode/internal/adapter/ws"
	"github.com/Victoria423/vscode-anycode/internal/domain/language"
	domtel "github.com/Victoria423/vscode-anycode/internal/domain/telemetry"
	"github.com/Victoria423/vscode-anycode/internal/port/broadcast"
	"github.com/Victoria423/vscode-anycode/internal/port/telemetry"
	"github.com/Victoria423/vscode-anycode/internal/port/workspace"
)

// capRaiseThreshold is the discovery count above which the configured index
// cap is lifted, provided the workspace supports unlimited content fetching.
// Small workspaces are always indexed whole, so probing the capability for
// them is pointless.
const capRaiseThreshold = 50

// Bootstrap enumerates the workspace and submits the file list to a freshly
// started analysis server for bulk indexing.
type Bootstrap struct {
	fs       workspace.FS
	reporter telemetry.Reporter
	hub      broadcast.Broadcaster // optional
	metrics  *otel.Metrics         // optional

	indexCap int
	excludes []string
}

// NewBootstrap creates a bootstrap runner. indexCap must already be
// normalized to >= 0; zero submits nothing.
func NewBootstrap(fs workspace.FS, reporter telemetry.Reporter, hub broadcast.Broadcaster, metrics *otel.Metrics, indexCap int, excludes []string) *Bootstrap {
	return &Bootstrap{
		fs:       fs,
		reporter: reporter,
		hub:      hub,
		metrics:  metrics,
		indexCap: indexCap,
		excludes: excludes,
	}
}

var _ Indexer = (*Bootstrap)(nil)

// Run enumerates files for every language whose enabled features require an
// index, applies the cap, and submits the remainder in discovery order.
func (b *Bootstrap) Run(ctx context.Context, inst Instance, langs []language.Resolved) error {
	start := time.Now()

	suffixes := indexedSuffixes(langs)
	if len(suffixes) == 0 {
		slog.Info("no enabled language requires an index, skipping bulk initialization")
		return nil
	}

	found, err := b.fs.Enumerate(ctx, suffixes, b.excludes)
	if err != nil {
		return fmt.Errorf("enumerate workspace: %w", err)
	}

	limit := b.indexCap
	fetchable := false
	if len(found) > capRaiseThreshold {
		fetchable, err = b.fs.ContentFetchable(ctx)
		if err != nil {
			// Fail closed: without the capability confirmed, the cap stands.
			slog.Warn("content-fetch capability probe failed", "error", err)
			fetchable = false
		}
		if fetchable {
			limit = len(found)
		}
	}

	sent := found
	if len(sent) > limit {
		sent = sent[:limit]
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := inst.QueueInit(ctx, sent); err != nil {
		return fmt.Errorf("queue/init: %w", err)
	}

	duration := time.Since(start)
	slog.Info("workspace initialized",
		"found", len(found),
		"sent", len(sent),
		"duration", duration,
	)

	b.reporter.Event(ctx, domtel.EventInit, domtel.InitEvent{
		NumOfFiles:           len(found),
		IndexSize:            len(sent),
		HasWorkspaceContents: fetchable,
		Duration:             duration.Milliseconds(),
	})

	if b.metrics != nil {
		b.metrics.FilesDiscovered.Add(ctx, int64(len(found)))
		b.metrics.FilesSubmitted.Add(ctx, int64(len(sent)))
		b.metrics.InitDuration.Record(ctx, duration.Seconds())
	}

	if b.hub != nil {
		b.hub.BroadcastEvent(ctx, ws.EventIndexProgress, ws.IndexProgressEvent{
			Found: len(found),
			Sent:  len(sent),
		})
		if len(sent) < len(found) {
			b.hub.BroadcastEvent(ctx, ws.EventSupportNotice, ws.SupportNoticeEvent{
				Message: fmt.Sprintf("Only %d of %d files are being indexed. Increase anycode.symbolIndexSize to index more.", len(sent), len(found)),
				Remote:  b.fs.Virtual(),
			})
		}
	}
	return nil
}

// indexedSuffixes returns the deduplicated suffix union of every language
// that needs the symbol index, preserving table order.
func indexedSuffixes(langs []language.Resolved) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range langs {
		if !l.Flags.NeedsIndex() {
			continue
		}
		for _, s := range l.Info.Suffixes {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
