package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Victoria423/vscode-anycode/internal/port/workspace"
)

type readFS struct {
	contents map[string][]byte
	docs     map[string][]byte
	statErr  error
	readErr  error
}

var _ workspace.FS = (*readFS)(nil)

func (f *readFS) Root() string                                   { return "/workspace" }
func (f *readFS) Virtual() bool                                  { return false }
func (f *readFS) ContentFetchable(_ context.Context) (bool, error) { return false, nil }

func (f *readFS) Enumerate(_ context.Context, _, _ []string) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (f *readFS) Stat(_ context.Context, uri string) (int64, error) {
	if f.statErr != nil {
		return 0, f.statErr
	}
	data, ok := f.contents[uri]
	if !ok {
		return 0, errors.New("no such file")
	}
	return int64(len(data)), nil
}

func (f *readFS) Read(_ context.Context, uri string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	data, ok := f.contents[uri]
	if !ok {
		return nil, errors.New("no such file")
	}
	return data, nil
}

func (f *readFS) OpenDocument(_ context.Context, uri string) ([]byte, error) {
	data, ok := f.docs[uri]
	if !ok {
		return nil, errors.New("document not open")
	}
	return data, nil
}

func TestFileReaderReadsRegularFile(t *testing.T) {
	fs := &readFS{contents: map[string][]byte{"file:///workspace/main.go": []byte("package main")}}
	r := NewFileReader(fs, nil, 1<<20)

	got := r.Read(t.Context(), "file:///workspace/main.go")
	if !bytes.Equal(got, []byte("package main")) {
		t.Errorf("Read() = %q", got)
	}
}

func TestFileReaderDegradesToEmpty(t *testing.T) {
	base := map[string][]byte{"file:///workspace/big.go": make([]byte, 2048)}

	tests := []struct {
		name string
		fs   *readFS
		uri  string
	}{
		{name: "unknown scheme", fs: &readFS{contents: base}, uri: "ftp://example.com/x.go"},
		{name: "oversize file", fs: &readFS{contents: base}, uri: "file:///workspace/big.go"},
		{name: "stat failure", fs: &readFS{statErr: errors.New("io error")}, uri: "file:///workspace/a.go"},
		{name: "read failure", fs: &readFS{contents: base, readErr: errors.New("io error")}, uri: "file:///workspace/big.go"},
		{name: "missing file", fs: &readFS{contents: map[string][]byte{}}, uri: "file:///workspace/gone.go"},
		{name: "closed notebook cell", fs: &readFS{}, uri: "vscode-notebook-cell://nb/cell0"},
		{name: "unparseable uri", fs: &readFS{}, uri: "::not a uri::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewFileReader(tt.fs, nil, 1024)
			if got := r.Read(t.Context(), tt.uri); len(got) != 0 {
				t.Errorf("Read() = %d bytes, want empty", len(got))
			}
		})
	}
}

func TestFileReaderNotebookCellFromOpenDocuments(t *testing.T) {
	fs := &readFS{docs: map[string][]byte{"vscode-notebook-cell://nb/cell0": []byte("x = 1")}}
	r := NewFileReader(fs, nil, 1<<20)

	got := r.Read(t.Context(), "vscode-notebook-cell://nb/cell0")
	if !bytes.Equal(got, []byte("x = 1")) {
		t.Errorf("Read() = %q, want cell content", got)
	}
}

func TestFileReaderHandleNeverErrors(t *testing.T) {
	r := NewFileReader(&readFS{}, nil, 1<<20)

	tests := []struct {
		name   string
		params json.RawMessage
	}{
		{name: "valid uri for missing file", params: json.RawMessage(`"file:///nope.go"`)},
		{name: "malformed params", params: json.RawMessage(`{"not":"a string"}`)},
		{name: "empty params", params: json.RawMessage(`""`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Handle(t.Context(), tt.params)
			if err != nil {
				t.Fatalf("Handle() error = %v, must never error", err)
			}
			seq, ok := result.(byteSeq)
			if !ok {
				t.Fatalf("Handle() result type %T", result)
			}
			if len(seq) != 0 {
				t.Errorf("Handle() = %d bytes, want empty", len(seq))
			}
		})
	}
}

func TestByteSeqMarshalsAsNumberArray(t *testing.T) {
	tests := []struct {
		in   byteSeq
		want string
	}{
		{in: byteSeq{}, want: "[]"},
		{in: byteSeq{0}, want: "[0]"},
		{in: byteSeq{104, 105, 255}, want: "[104,105,255]"},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(data) != tt.want {
			t.Errorf("marshal(%v) = %s, want %s", []byte(tt.in), data, tt.want)
		}
	}
}

func TestFileReaderCachesSuccessfulReads(t *testing.T) {
	fs := &readFS{contents: map[string][]byte{"file:///workspace/a.go": []byte("package a")}}
	c := &countingCache{data: map[string][]byte{}}
	r := NewFileReader(fs, c, 1<<20)

	first := r.Read(t.Context(), "file:///workspace/a.go")
	second := r.Read(t.Context(), "file:///workspace/a.go")

	if !bytes.Equal(first, second) {
		t.Error("cached read differs from original")
	}
	if c.sets != 1 {
		t.Errorf("cache sets = %d, want 1", c.sets)
	}
	if c.hits != 1 {
		t.Errorf("cache hits = %d, want 1", c.hits)
	}
}

type countingCache struct {
	data map[string][]byte
	sets int
	hits int
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *countingCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.sets++
	c.data[key] = value
	return nil
}

func (c *countingCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}
