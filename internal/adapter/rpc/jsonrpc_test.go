package rpc

import (
	"encoding/json"
	"net"
	"testing"
	"time"
)

// pipePair returns two connected JSON-RPC connections.
func pipePair(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	ca := NewConn(a)
	cb := NewConn(b)
	t.Cleanup(func() {
		_ = ca.Close()
		_ = cb.Close()
	})
	return ca, cb
}

func readAsync(t *testing.T, c *Conn) <-chan *Message {
	t.Helper()
	ch := make(chan *Message, 1)
	go func() {
		msg, err := c.ReadMessage()
		if err != nil {
			close(ch)
			return
		}
		ch <- msg
	}()
	return ch
}

func recv(t *testing.T, ch <-chan *Message) *Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("connection closed before message arrived")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func TestConnSendRoundTrip(t *testing.T) {
	client, server := pipePair(t)

	ch := readAsync(t, server)
	if err := client.Send(7, "initialize", map[string]int{"x": 1}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	msg := recv(t, ch)
	if msg.JSONRPC != "2.0" {
		t.Errorf("jsonrpc = %q, want 2.0", msg.JSONRPC)
	}
	if msg.ID == nil || *msg.ID != 7 {
		t.Errorf("id = %v, want 7", msg.ID)
	}
	if msg.Method != "initialize" {
		t.Errorf("method = %q, want initialize", msg.Method)
	}

	var params map[string]int
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	if params["x"] != 1 {
		t.Errorf("params = %v, want x=1", params)
	}
}

func TestConnNotifyHasNoID(t *testing.T) {
	client, server := pipePair(t)

	ch := readAsync(t, server)
	if err := client.Notify("initialized", map[string]any{}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	msg := recv(t, ch)
	if msg.ID != nil {
		t.Errorf("notification carried id %d", *msg.ID)
	}
	if msg.Method != "initialized" {
		t.Errorf("method = %q, want initialized", msg.Method)
	}
}

func TestConnRespondRoundTrip(t *testing.T) {
	client, server := pipePair(t)

	ch := readAsync(t, client)
	if err := server.Respond(3, []int{104, 105}); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	msg := recv(t, ch)
	if msg.ID == nil || *msg.ID != 3 {
		t.Errorf("id = %v, want 3", msg.ID)
	}
	if msg.Method != "" {
		t.Errorf("response carried method %q", msg.Method)
	}

	var result []int
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(result) != 2 || result[0] != 104 {
		t.Errorf("result = %v, want [104 105]", result)
	}
}

func TestConnRespondError(t *testing.T) {
	client, server := pipePair(t)

	ch := readAsync(t, client)
	if err := server.RespondError(9, -32601, "method not found: nope"); err != nil {
		t.Fatalf("RespondError() error = %v", err)
	}

	msg := recv(t, ch)
	if msg.Error == nil {
		t.Fatal("expected error object")
	}
	if msg.Error.Code != -32601 {
		t.Errorf("code = %d, want -32601", msg.Error.Code)
	}
}

func TestConnReadAfterClose(t *testing.T) {
	_, server := pipePair(t)

	_ = server.Close()
	if _, err := server.ReadMessage(); err == nil {
		t.Fatal("expected read error on closed connection")
	}
}

func TestConnSequentialMessages(t *testing.T) {
	client, server := pipePair(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 3; i++ {
			_ = client.Send(i, "queue/init", []string{"file:///a.go"})
		}
	}()

	for i := 1; i <= 3; i++ {
		msg, err := server.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() #%d error = %v", i, err)
		}
		if msg.ID == nil || *msg.ID != i {
			t.Fatalf("message #%d id = %v", i, msg.ID)
		}
	}
	<-done
}
