package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Victoria423/vscode-anycode/internal/adapter/rpc"
	"github.com/Victoria423/vscode-anycode/internal/adapter/ws"
	"github.com/Victoria423/vscode-anycode/internal/domain/language"
	"github.com/Victoria423/vscode-anycode/internal/port/broadcast"
	"github.com/Victoria423/vscode-anycode/internal/port/state"
)

// stateKeyDatabase prefixes the persisted-state key holding the symbol
// database name. The full key is scoped by workspace identity so daemons
// on different roots sharing one bucket never resolve each other's name.
const stateKeyDatabase = "databaseName"

// Instance is one running analysis server. *rpc.Server satisfies it; tests
// substitute fakes.
type Instance interface {
	QueueInit(ctx context.Context, uris []string) error
	Stop(ctx context.Context) error
	PID() int
}

var _ Instance = (*rpc.Server)(nil)

// StartFunc launches one analysis server with the given initialization
// payload and inbound-request handlers.
type StartFunc func(ctx context.Context, opts rpc.InitOptions, handlers map[string]rpc.Handler) (Instance, error)

// ProcessStarter returns the production StartFunc: it spawns the configured
// command and speaks JSON-RPC to it over stdio.
func ProcessStarter(command []string) StartFunc {
	return func(ctx context.Context, opts rpc.InitOptions, handlers map[string]rpc.Handler) (Instance, error) {
		srv := rpc.NewServer(command, opts)
		for method, h := range handlers {
			srv.Handle(method, h)
		}
		if err := srv.Start(ctx); err != nil {
			return nil, err
		}
		return srv, nil
	}
}

// Indexer feeds a freshly started instance the workspace file list.
type Indexer interface {
	Run(ctx context.Context, inst Instance, langs []language.Resolved) error
}

// SupervisorConfig carries the launch parameters that do not change at
// runtime.
type SupervisorConfig struct {
	GrammarsBase    string
	Workspace       string // workspace root, scopes persisted state
	StartTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Supervisor keeps at most one analysis server alive and restarts it when
// the enabled-language set changes. Every reconciliation stops all prior
// instances before starting a new one; with zero enabled languages nothing
// is started.
type Supervisor struct {
	registry *Registry
	store    state.Store
	start    StartFunc
	hub      broadcast.Broadcaster
	cfg      SupervisorConfig

	indexer  Indexer
	handlers map[string]rpc.Handler

	mu       sync.Mutex
	current  []running
	langs    []language.Resolved
	database string

	trigger  chan struct{}
	restarts func(ctx context.Context) // optional restart hook, set by main for metrics
}

type running struct {
	inst   Instance
	cancel context.CancelFunc // cancels the instance's indexing context
}

// NewSupervisor creates a supervisor. hub may be nil.
func NewSupervisor(registry *Registry, store state.Store, start StartFunc, hub broadcast.Broadcaster, cfg SupervisorConfig) *Supervisor {
	return &Supervisor{
		registry: registry,
		store:    store,
		start:    start,
		hub:      hub,
		cfg:      cfg,
		handlers: make(map[string]rpc.Handler),
		trigger:  make(chan struct{}, 1),
	}
}

// SetIndexer installs the bulk-initialization runner. Must be called before
// Run.
func (s *Supervisor) SetIndexer(ix Indexer) { s.indexer = ix }

// OnRestart installs a hook invoked on every reconciliation after the
// first. Must be called before Run.
func (s *Supervisor) OnRestart(fn func(ctx context.Context)) { s.restarts = fn }

// Handle registers a handler passed to every future instance. Must be
// called before Run.
func (s *Supervisor) Handle(method string, h rpc.Handler) {
	s.handlers[method] = h
}

// Run reconciles once immediately, then again after every registry change,
// until ctx is done. Rapid change bursts coalesce into a single restart.
// The current instance is stopped before Run returns.
func (s *Supervisor) Run(ctx context.Context) error {
	unsubscribe := s.registry.Subscribe(func() {
		select {
		case s.trigger <- struct{}{}:
		default: // a reconcile is already pending
		}
	})
	defer unsubscribe()

	first := true
	s.kick()
	for {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
			err := s.stopAll(stopCtx)
			cancel()
			s.broadcastStatus(context.Background(), "stopped")
			return err
		case <-s.trigger:
			if !first && s.restarts != nil {
				s.restarts(ctx)
			}
			first = false
			if err := s.reconcile(ctx); err != nil {
				slog.Error("analysis server reconcile failed", "error", err)
			}
		}
	}
}

// kick queues a reconciliation without blocking.
func (s *Supervisor) kick() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Status reports the supervisor state for the HTTP surface.
func (s *Supervisor) Status() (state string, languages []string, pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.langs {
		languages = append(languages, l.Info.ID)
	}
	if len(s.current) == 0 {
		return "stopped", languages, 0
	}
	return "running", languages, s.current[0].inst.PID()
}

// Database returns the persisted symbol database name, or "" before the
// first start.
func (s *Supervisor) Database() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.database
}

// reconcile stops every prior instance, then starts one for the current
// enabled-language set. An empty set leaves nothing running.
func (s *Supervisor) reconcile(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	stopErr := s.stopAll(stopCtx)
	cancel()
	if stopErr != nil {
		// Old instances that refused to die were killed; starting the
		// replacement is still safe.
		slog.Warn("stopping prior analysis servers reported errors", "error", stopErr)
	}

	langs := s.registry.Enabled()

	s.mu.Lock()
	s.langs = langs
	s.mu.Unlock()

	if len(langs) == 0 {
		slog.Info("no languages enabled, analysis server not started")
		s.broadcastStatus(ctx, "disabled")
		return nil
	}

	dbName, err := s.databaseName(ctx)
	if err != nil {
		return fmt.Errorf("resolve database name: %w", err)
	}
	s.mu.Lock()
	s.database = dbName
	s.mu.Unlock()

	opts := rpc.InitOptions{
		GrammarsBase: s.cfg.GrammarsBase,
		Languages:    rpc.LanguageInits(langs),
		DatabaseName: dbName,
	}

	startCtx, cancelStart := context.WithTimeout(ctx, s.cfg.StartTimeout)
	inst, err := s.start(startCtx, opts, s.handlers)
	cancelStart()
	if err != nil {
		s.broadcastStatus(ctx, "failed")
		return fmt.Errorf("start analysis server: %w", err)
	}

	indexCtx, cancelIndex := context.WithCancel(context.Background())
	s.mu.Lock()
	s.current = append(s.current, running{inst: inst, cancel: cancelIndex})
	s.mu.Unlock()

	s.broadcastStatus(ctx, "running")

	if s.indexer != nil {
		go func() {
			if err := s.indexer.Run(indexCtx, inst, langs); err != nil && indexCtx.Err() == nil {
				slog.Error("workspace initialization failed", "error", err)
			}
		}()
	}
	return nil
}

// stopAll stops every tracked instance concurrently and waits for all of
// them, returning the first error.
func (s *Supervisor) stopAll(ctx context.Context) error {
	s.mu.Lock()
	prior := s.current
	s.current = nil
	s.mu.Unlock()

	if len(prior) == 0 {
		return nil
	}

	var g errgroup.Group
	for _, r := range prior {
		r.cancel()
		g.Go(func() error { return r.inst.Stop(ctx) })
	}
	return g.Wait()
}

// stateKey returns the database-name key for this supervisor's workspace.
func (s *Supervisor) stateKey() string {
	sum := sha256.Sum256([]byte(s.cfg.Workspace))
	return stateKeyDatabase + "." + hex.EncodeToString(sum[:8])
}

// databaseName returns the persisted symbol database name for this
// workspace, generating and storing one on first use.
func (s *Supervisor) databaseName(ctx context.Context) (string, error) {
	key := s.stateKey()
	if name, ok, err := s.store.Get(ctx, key); err != nil {
		return "", err
	} else if ok {
		return name, nil
	}

	name := "anycode_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.store.Set(ctx, key, name); err != nil {
		return "", err
	}
	slog.Info("created symbol database name", "name", name, "workspace", s.cfg.Workspace)
	return name, nil
}

func (s *Supervisor) broadcastStatus(ctx context.Context, st string) {
	if s.hub == nil {
		return
	}
	state, languages, pid := s.Status()
	if st != "" {
		state = st
	}
	s.hub.BroadcastEvent(ctx, ws.EventServerStatus, ws.ServerStatusEvent{
		State:     state,
		Languages: languages,
		PID:       pid,
	})
}
