package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/HendryAvila/houdini-mcp/internal/protocol"
)

func TestDispatchUnknownCommand(t *testing.T) {
	d := New()
	resp := d.Dispatch(context.Background(), protocol.Request{Type: "unknown_cmd"})

	data, _ := json.Marshal(resp)
	want := `{"status":"error","message":"unknown command: unknown_cmd"}`
	if string(data) != want {
		t.Errorf("response = %s, want %s", data, want)
	}
}

func TestDispatchSuccess(t *testing.T) {
	d := New()
	d.Register("echo", func(_ context.Context, params json.RawMessage) (any, error) {
		var p map[string]any
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return p, nil
	})

	resp := d.Dispatch(context.Background(), protocol.Request{
		Type:   "echo",
		Params: json.RawMessage(`{"path":"/obj/geo1"}`),
	})
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("status = %s (%s), want success", resp.Status, resp.Message)
	}
	if string(resp.Result) != `{"path":"/obj/geo1"}` {
		t.Errorf("result = %s", resp.Result)
	}
}

func TestDispatchHandlerError(t *testing.T) {
	d := New()
	d.Register("boom", func(context.Context, json.RawMessage) (any, error) {
		return nil, errors.New("node not found: /obj/missing")
	})

	resp := d.Dispatch(context.Background(), protocol.Request{Type: "boom"})
	if resp.Status != protocol.StatusError {
		t.Fatalf("status = %s, want error", resp.Status)
	}
	if resp.Message != "node not found: /obj/missing" {
		t.Errorf("message = %q", resp.Message)
	}

	// The dispatcher must keep working after a failed exchange.
	d.Register("ok", func(context.Context, json.RawMessage) (any, error) {
		return "fine", nil
	})
	resp = d.Dispatch(context.Background(), protocol.Request{Type: "ok"})
	if resp.Status != protocol.StatusSuccess {
		t.Errorf("subsequent dispatch failed: %s", resp.Message)
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	d := New()
	d.Register("panic", func(context.Context, json.RawMessage) (any, error) {
		panic("nil pointer somewhere in the host binding")
	})

	resp := d.Dispatch(context.Background(), protocol.Request{Type: "panic"})
	if resp.Status != protocol.StatusError {
		t.Fatalf("status = %s, want error", resp.Status)
	}
	if resp.Message == "" {
		t.Error("panic produced an empty error message")
	}
}

func TestDispatchSerializesHandlers(t *testing.T) {
	d := New()
	running := 0
	maxRunning := 0
	var mu sync.Mutex
	d.Register("slow", func(context.Context, json.RawMessage) (any, error) {
		mu.Lock()
		running++
		if running > maxRunning {
			maxRunning = running
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return nil, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(context.Background(), protocol.Request{Type: "slow"})
		}()
	}
	wg.Wait()

	if maxRunning > 1 {
		t.Errorf("observed %d handlers running concurrently, want at most 1", maxRunning)
	}
}

func TestCommands(t *testing.T) {
	d := New()
	d.Register("b", func(context.Context, json.RawMessage) (any, error) { return nil, nil })
	d.Register("a", func(context.Context, json.RawMessage) (any, error) { return nil, nil })

	if got, want := d.Commands(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Commands() = %v, want %v", got, want)
	}
}
