package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Victoria423/vscode-anycode/internal/adapter/localfs"
	"github.com/Victoria423/vscode-anycode/internal/adapter/ws"
	"github.com/Victoria423/vscode-anycode/internal/domain/language"
	"github.com/Victoria423/vscode-anycode/internal/service"
)

type stubRegistry struct {
	enabled     []language.Resolved
	invalidated int
}

var _ Registry = (*stubRegistry)(nil)

func (r *stubRegistry) Enabled() []language.Resolved { return r.enabled }
func (r *stubRegistry) Invalidate()                  { r.invalidated++ }

func newTestServer(t *testing.T, reg *stubRegistry) (*httptest.Server, *stubRegistry, *localfs.Documents) {
	t.Helper()
	if reg == nil {
		reg = &stubRegistry{}
	}
	docs := localfs.NewDocuments()
	sup := service.NewSupervisor(nil, nil, nil, nil, service.SupervisorConfig{
		StartTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	})

	h := NewHandlers(reg, sup, ws.NewHub(), docs)
	r := chi.NewRouter()
	MountRoutes(r, h)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, reg, docs
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test server URL
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	var body map[string]string
	if code := getJSON(t, srv.URL+"/health", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestStatusStoppedByDefault(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	var body statusResponse
	if code := getJSON(t, srv.URL+"/api/status", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.State != "stopped" {
		t.Errorf("state = %q, want stopped", body.State)
	}
}

func TestLanguagesListsEnabledSet(t *testing.T) {
	goInfo, _ := language.Lookup("go")
	reg := &stubRegistry{enabled: []language.Resolved{
		{Info: goInfo, Flags: language.Flags{Outline: true}},
	}}
	srv, _, _ := newTestServer(t, reg)

	var body []languageResponse
	if code := getJSON(t, srv.URL+"/api/languages", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(body) != 1 || body[0].ID != "go" {
		t.Fatalf("body = %+v", body)
	}
	if !body[0].Features.Outline {
		t.Error("outline flag lost")
	}
}

func TestReindexInvalidatesRegistry(t *testing.T) {
	srv, reg, _ := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/reindex", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want 202", resp.StatusCode)
	}
	if reg.invalidated != 1 {
		t.Errorf("invalidations = %d, want 1", reg.invalidated)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	srv, _, docs := newTestServer(t, nil)
	client := srv.Client()

	body := strings.NewReader(`{"uri":"vscode-notebook-cell://nb/cell0","content":"x = 1"}`)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/documents", body)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}

	data, ok := docs.Get("vscode-notebook-cell://nb/cell0")
	if !ok || string(data) != "x = 1" {
		t.Fatalf("document not stored: %q ok=%v", data, ok)
	}

	req, _ = http.NewRequest(http.MethodDelete,
		srv.URL+"/api/documents?uri="+"vscode-notebook-cell%3A%2F%2Fnb%2Fcell0", nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", resp.StatusCode)
	}

	if _, ok := docs.Get("vscode-notebook-cell://nb/cell0"); ok {
		t.Error("document not removed")
	}
}

func TestPutDocumentValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	client := srv.Client()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing uri", body: `{"content":"x"}`, want: http.StatusBadRequest},
		{name: "malformed json", body: `{`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/documents", strings.NewReader(tt.body))
			resp, err := client.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
