// Package rpc manages a single analysis-server process, communicating via
// JSON-RPC 2.0 over stdio. The server holds the parsers and the symbol
// index; this side only launches it, feeds it files, and answers its
// file-read requests.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/Victoria423/vscode-anycode/internal/domain"
	"github.com/Victoria423/vscode-anycode/internal/domain/language"
)

// Handler answers one inbound server-issued request (or notification,
// in which case the returned value is discarded).
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// LanguageInit is one (language, capability flags) pair of the
// initialization payload.
type LanguageInit struct {
	LanguageID string         `json:"languageId"`
	Grammar    string         `json:"grammar"`
	Suffixes   []string       `json:"suffixes"`
	Features   language.Flags `json:"features"`
}

// InitOptions is the payload sent once to a newly started server. It is
// generated fresh per start; only DatabaseName is stable across restarts.
type InitOptions struct {
	GrammarsBase string         `json:"grammarsBase"`
	Languages    []LanguageInit `json:"languages"`
	DatabaseName string         `json:"databaseName"`
}

// LanguageInits maps resolved registry entries into the wire shape,
// preserving order.
func LanguageInits(langs []language.Resolved) []LanguageInit {
	out := make([]LanguageInit, 0, len(langs))
	for _, l := range langs {
		out = append(out, LanguageInit{
			LanguageID: l.Info.ID,
			Grammar:    l.Info.GrammarAsset,
			Suffixes:   l.Info.Suffixes,
			Features:   l.Flags,
		})
	}
	return out
}

// Server manages one analysis-server process.
type Server struct {
	command []string
	opts    InitOptions

	cmd  *exec.Cmd
	conn *Conn

	mu      sync.Mutex
	stopped bool

	nextID  atomic.Int64
	pending map[int]chan *Message
	pendMu  sync.Mutex

	handlers  map[string]Handler
	handlerMu sync.RWMutex

	done chan struct{} // closed when readLoop exits
}

// NewServer creates a server client for the given launch command and
// initialization payload. Nothing is spawned until Start.
func NewServer(command []string, opts InitOptions) *Server {
	return &Server{
		command:  command,
		opts:     opts,
		pending:  make(map[int]chan *Message),
		handlers: make(map[string]Handler),
		done:     make(chan struct{}),
	}
}

// Handle registers a handler for an inbound server-issued method.
// Must be called before Start so no early request is missed.
func (s *Server) Handle(method string, h Handler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.handlers[method] = h
}

// Start spawns the analysis-server process and sends the initialization
// payload.
func (s *Server) Start(ctx context.Context) error {
	if len(s.command) == 0 {
		return fmt.Errorf("no analysis server command configured")
	}

	if _, err := exec.LookPath(s.command[0]); err != nil {
		return fmt.Errorf("analysis server binary not found: %s", s.command[0])
	}

	cmd := exec.Command(s.command[0], s.command[1:]...) //nolint:gosec // command from trusted config
	cmd.Stderr = os.Stderr // let server stderr pass through for debugging

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start process: %w", err)
	}

	s.cmd = cmd
	s.conn = NewConn(stdioPipe{stdin: stdin, stdout: stdout})

	// Start the read loop before sending initialize: the server may issue
	// file/read requests while still handling initialization.
	go s.readLoop()

	if _, err := s.Call(ctx, "initialize", s.opts); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("initialize: %w", err)
	}
	if err := s.conn.Notify("initialized", map[string]any{}); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("initialized notification: %w", err)
	}

	slog.Info("analysis server started",
		"pid", cmd.Process.Pid,
		"languages", len(s.opts.Languages),
		"database", s.opts.DatabaseName,
	)
	return nil
}

// PID returns the process ID of the analysis server, or 0 if not running.
func (s *Server) PID() int {
	if s.cmd != nil && s.cmd.Process != nil {
		return s.cmd.Process.Pid
	}
	return 0
}

// QueueInit submits the ordered file list for bulk indexing.
func (s *Server) QueueInit(ctx context.Context, uris []string) error {
	_, err := s.Call(ctx, "queue/init", uris)
	return err
}

// Stop performs a graceful shutdown (shutdown request + exit notification)
// and kills the process if it does not exit before ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	if s.conn != nil {
		if _, err := s.Call(ctx, "shutdown", nil); err != nil {
			slog.Warn("analysis server shutdown request failed", "error", err)
		}
		_ = s.conn.Notify("exit", nil)
		_ = s.conn.Close()
	}

	if s.cmd != nil && s.cmd.Process != nil {
		exited := make(chan error, 1)
		go func() { exited <- s.cmd.Wait() }()
		select {
		case <-exited:
		case <-ctx.Done():
			slog.Warn("analysis server did not exit gracefully, killing", "pid", s.cmd.Process.Pid)
			_ = s.cmd.Process.Kill()
		}
	}

	// The read loop only runs once a connection exists; without one there
	// is nothing to wait for and done never closes.
	if s.conn != nil {
		<-s.done
	}
	slog.Info("analysis server stopped")
	return nil
}

// Done is closed when the connection read loop has exited.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Call sends a JSON-RPC request and waits for the response.
func (s *Server) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := int(s.nextID.Add(1))
	ch := make(chan *Message, 1)

	s.pendMu.Lock()
	s.pending[id] = ch
	s.pendMu.Unlock()

	defer func() {
		s.pendMu.Lock()
		delete(s.pending, id)
		s.pendMu.Unlock()
	}()

	if err := s.conn.Send(id, method, params); err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case msg := <-ch:
		if msg.Error != nil {
			return nil, msg.Error
		}
		return msg.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, domain.ErrServerStopped
	}
}

// readLoop continuously reads messages from the analysis server. Responses
// are dispatched to pending callers; server-issued requests are answered
// through the handler table.
func (s *Server) readLoop() {
	defer close(s.done)

	for {
		msg, err := s.conn.ReadMessage()
		if err != nil {
			// Connection closed — normal during shutdown.
			return
		}

		switch {
		case msg.Method != "" && msg.ID != nil:
			// Server-issued request, e.g. file/read.
			go s.dispatch(msg)
		case msg.Method != "":
			// Server-issued notification.
			go s.notifyHandler(msg)
		case msg.ID != nil:
			// Response to a request we sent.
			s.pendMu.Lock()
			ch, ok := s.pending[*msg.ID]
			s.pendMu.Unlock()
			if ok {
				ch <- msg
			}
		}
	}
}

// dispatch answers one server-issued request. Handler failures degrade to a
// JSON-RPC error response; nothing propagates across the process boundary.
func (s *Server) dispatch(msg *Message) {
	s.handlerMu.RLock()
	h, ok := s.handlers[msg.Method]
	s.handlerMu.RUnlock()

	if !ok {
		slog.Debug("no handler for server request", "method", msg.Method)
		_ = s.conn.RespondError(*msg.ID, -32601, "method not found: "+msg.Method)
		return
	}

	result, err := h(context.Background(), msg.Params)
	if err != nil {
		_ = s.conn.RespondError(*msg.ID, -32000, err.Error())
		return
	}
	_ = s.conn.Respond(*msg.ID, result)
}

func (s *Server) notifyHandler(msg *Message) {
	s.handlerMu.RLock()
	h, ok := s.handlers[msg.Method]
	s.handlerMu.RUnlock()

	if !ok {
		slog.Debug("server notification ignored", "method", msg.Method)
		return
	}
	if _, err := h(context.Background(), msg.Params); err != nil {
		slog.Warn("notification handler failed", "method", msg.Method, "error", err)
	}
}

// stdioPipe combines a stdin (writer) and stdout (reader) into an io.ReadWriteCloser.
type stdioPipe struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (p stdioPipe) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p stdioPipe) Write(b []byte) (int, error) { return p.stdin.Write(b) }
func (p stdioPipe) Close() error {
	_ = p.stdin.Close()
	return p.stdout.Close()
}
