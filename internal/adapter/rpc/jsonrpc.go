package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Message represents a JSON-RPC 2.0 message (request, response, or notification).
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int            `json:"id,omitempty"`     // nil for notifications
	Method  string          `json:"method,omitempty"` // present for requests/notifications
	Params  json.RawMessage `json:"params,omitempty"` // request/notification params
	Result  json.RawMessage `json:"result,omitempty"` // response result
	Error   *Error          `json:"error,omitempty"`  // response error
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Conn wraps an io.ReadWriteCloser (the stdin/stdout of the analysis-server
// process) and implements JSON-RPC 2.0 over stdio with Content-Length
// header framing.
type Conn struct {
	rwc    io.ReadWriteCloser
	reader *bufio.Reader
	mu     sync.Mutex // protects writes
}

// NewConn creates a JSON-RPC connection over the given stream.
func NewConn(rwc io.ReadWriteCloser) *Conn {
	return &Conn{
		rwc:    rwc,
		reader: bufio.NewReaderSize(rwc, 64*1024),
	}
}

// Send sends a JSON-RPC request with the given ID, method and params.
func (c *Conn) Send(id int, method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	return c.write(Message{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
		Params:  raw,
	})
}

// Notify sends a JSON-RPC notification (no ID, no response expected).
func (c *Conn) Notify(method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	return c.write(Message{
		JSONRPC: "2.0",
		Method:  method,
		Params:  raw,
	})
}

// Respond answers an inbound request with a result.
func (c *Conn) Respond(id int, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	return c.write(Message{
		JSONRPC: "2.0",
		ID:      &id,
		Result:  raw,
	})
}

// RespondError answers an inbound request with an error.
func (c *Conn) RespondError(id, code int, message string) error {
	return c.write(Message{
		JSONRPC: "2.0",
		ID:      &id,
		Error:   &Error{Code: code, Message: message},
	})
}

// ReadMessage reads one JSON-RPC message from the connection.
// Blocks until a full message is available or the connection is closed.
func (c *Conn) ReadMessage() (*Message, error) {
	data, err := c.readFramed()
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}

	return &msg, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.rwc.Close()
}

// write marshals and writes a message with Content-Length header framing.
func (c *Conn) write(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))
	if _, err := io.WriteString(c.rwc, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := c.rwc.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// readFramed reads one Content-Length-framed message from the connection.
func (c *Conn) readFramed() ([]byte, error) {
	// Read headers until empty line.
	contentLength := -1
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break // End of headers
		}
		if strings.HasPrefix(line, "Content-Length: ") {
			val := strings.TrimPrefix(line, "Content-Length: ")
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("parse Content-Length %q: %w", val, err)
			}
			contentLength = n
		}
		// Ignore other headers (e.g. Content-Type).
	}

	if contentLength < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(c.reader, body); err != nil {
		return nil, fmt.Errorf("read body (%d bytes): %w", contentLength, err)
	}

	return body, nil
}
