package rpc

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestServerNotInitializedBeforeInitialize(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(&buf)
	d.HandleRequest("textDocument/hover", func(id, params json.RawMessage) (any, error) {
		return "should not run", nil
	})

	d.Dispatch(&Request{ID: json.RawMessage("1"), Method: "textDocument/hover"})

	var resp Response
	mustDecodeOneFrame(t, &buf, &resp)
	if resp.Error == nil || resp.Error.Code != ServerNotInitialized {
		t.Fatalf("expected ServerNotInitialized, got %+v", resp.Error)
	}
}

func TestUnknownMethodNotFound(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(&buf)
	d.HandleRequest("initialize", func(id, params json.RawMessage) (any, error) { return nil, nil })
	d.Dispatch(&Request{ID: json.RawMessage("1"), Method: "initialize"})
	buf.Reset()

	d.Dispatch(&Request{ID: json.RawMessage("2"), Method: "bogus/method"})
	var resp Response
	mustDecodeOneFrame(t, &buf, &resp)
	if resp.Error == nil || resp.Error.Code != MethodNotFound {
		t.Fatalf("expected MethodNotFound, got %+v", resp.Error)
	}
}

func TestHandlerPanicBecomesInternalError(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(&buf)
	d.HandleRequest("initialize", func(id, params json.RawMessage) (any, error) { return nil, nil })
	d.Dispatch(&Request{ID: json.RawMessage("1"), Method: "initialize"})
	buf.Reset()

	d.HandleRequest("textDocument/hover", func(id, params json.RawMessage) (any, error) {
		panic("boom")
	})
	d.Dispatch(&Request{ID: json.RawMessage("2"), Method: "textDocument/hover"})
	var resp Response
	mustDecodeOneFrame(t, &buf, &resp)
	if resp.Error == nil || resp.Error.Code != InternalError {
		t.Fatalf("expected InternalError, got %+v", resp.Error)
	}
}

func TestNotificationNeverResponds(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(&buf)
	called := false
	d.HandleNotification("textDocument/didOpen", func(params json.RawMessage) error {
		called = true
		return nil
	})
	d.Dispatch(&Request{Method: "textDocument/didOpen"})
	if !called {
		t.Fatalf("handler was not invoked")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no wire output for a notification")
	}
}

func TestExitCodeReflectsShutdown(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(&buf)
	d.HandleRequest("initialize", func(id, params json.RawMessage) (any, error) { return nil, nil })
	d.HandleRequest("shutdown", func(id, params json.RawMessage) (any, error) { return nil, nil })
	d.HandleNotification("exit", func(params json.RawMessage) error { return nil })

	d.Dispatch(&Request{ID: json.RawMessage("1"), Method: "initialize"})
	d.Dispatch(&Request{ID: json.RawMessage("2"), Method: "shutdown"})
	d.Dispatch(&Request{Method: "exit"})

	if d.ExitCode() != 0 {
		t.Fatalf("expected exit code 0 after shutdown, got %d", d.ExitCode())
	}
}

func TestExitCodeWithoutShutdown(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(&buf)
	if d.ExitCode() != 1 {
		t.Fatalf("expected exit code 1 without shutdown, got %d", d.ExitCode())
	}
}

func TestExitCodeExitWithoutPriorShutdown(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(&buf)
	d.HandleRequest("initialize", func(id, params json.RawMessage) (any, error) { return nil, nil })
	d.HandleNotification("exit", func(params json.RawMessage) error { return nil })

	d.Dispatch(&Request{ID: json.RawMessage("1"), Method: "initialize"})
	d.Dispatch(&Request{Method: "exit"})

	if d.Phase() != Exited {
		t.Fatalf("expected phase Exited, got %v", d.Phase())
	}
	if d.ExitCode() != 1 {
		t.Fatalf("expected exit code 1 when exit is not preceded by shutdown, got %d", d.ExitCode())
	}
}

func mustDecodeOneFrame(t *testing.T, buf *bytes.Buffer, v any) {
	t.Helper()
	data := buf.Bytes()
	i := bytes.Index(data, []byte("\r\n\r\n"))
	if i < 0 {
		t.Fatalf("no frame header found in %q", data)
	}
	body := data[i+4:]
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode frame body: %v", err)
	}
}
