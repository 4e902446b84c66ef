package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Victoria423/vscode-anycode/internal/adapter/otel"
	"github.com/Victoria423/vscode-anycode/internal/port/cache"
	"github.com/Victoria423/vscode-anycode/internal/port/workspace"
)

// Schemes the analysis server may read through file/read. Anything else is
// answered with an empty sequence: unknown, not an error.
var readableSchemes = map[string]bool{
	"file":       true,
	"vscode-vfs": true,
}

// Notebook and interactive-window cells have no on-disk file; they resolve
// only through the open-document table.
var cellSchemes = map[string]bool{
	"vscode-notebook-cell": true,
	"vscode-interactive":   true,
}

// byteSeq marshals as a JSON array of unsigned 8-bit values, the wire shape
// the analysis server expects for file contents.
type byteSeq []byte

func (b byteSeq) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.Grow(len(b)*4 + 2)
	sb.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	sb.WriteByte(']')
	return []byte(sb.String()), nil
}

// FileReader answers server-issued file/read requests. It never propagates
// an error across the process boundary: every failure degrades to an empty
// byte sequence, so "unreadable" and "empty" are indistinguishable to the
// server.
type FileReader struct {
	fs       workspace.FS
	cache    cache.Cache   // optional
	metrics  *otel.Metrics // optional
	maxSize  int64
	cacheTTL time.Duration
}

// NewFileReader creates a reader over the given workspace. cache may be
// nil. maxSize is the largest file, in bytes, ever transmitted.
func NewFileReader(fs workspace.FS, c cache.Cache, maxSize int64) *FileReader {
	return &FileReader{
		fs:       fs,
		cache:    c,
		maxSize:  maxSize,
		cacheTTL: time.Minute,
	}
}

// SetMetrics installs the optional request counter.
func (r *FileReader) SetMetrics(m *otel.Metrics) { r.metrics = m }

// Handle is the rpc handler for file/read. Params is one location string.
func (r *FileReader) Handle(ctx context.Context, params json.RawMessage) (any, error) {
	if r.metrics != nil {
		r.metrics.FileReads.Add(ctx, 1)
	}
	var uri string
	if err := json.Unmarshal(params, &uri); err != nil {
		slog.Warn("file/read: bad params", "error", err)
		return byteSeq{}, nil
	}
	return r.Read(ctx, uri), nil
}

// Read resolves one location to its content per the degradation policy.
func (r *FileReader) Read(ctx context.Context, uri string) byteSeq {
	u, err := url.Parse(uri)
	if err != nil {
		slog.Warn("file/read: unparseable uri", "uri", uri, "error", err)
		return byteSeq{}
	}

	if cellSchemes[u.Scheme] {
		data, err := r.fs.OpenDocument(ctx, uri)
		if err != nil {
			slog.Warn("file/read: cell not open", "uri", uri, "error", err)
			return byteSeq{}
		}
		return byteSeq(data)
	}

	if !readableSchemes[u.Scheme] {
		slog.Debug("file/read: unknown scheme", "uri", uri, "scheme", u.Scheme)
		return byteSeq{}
	}

	if r.cache != nil {
		if data, ok, err := r.cache.Get(ctx, uri); err == nil && ok {
			return byteSeq(data)
		}
	}

	size, err := r.fs.Stat(ctx, uri)
	if err != nil {
		slog.Warn("file/read: stat failed", "uri", uri, "error", err)
		return byteSeq{}
	}
	if size > r.maxSize {
		slog.Warn("file/read: file too large, not transmitted", "uri", uri, "size", size, "max", r.maxSize)
		return byteSeq{}
	}

	data, err := r.fs.Read(ctx, uri)
	if err != nil {
		slog.Warn("file/read: read failed", "uri", uri, "error", err)
		return byteSeq{}
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, uri, data, r.cacheTTL)
	}
	return byteSeq(data)
}
