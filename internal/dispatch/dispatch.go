// Package dispatch routes decoded protocol requests to named command
// handlers and converts every handler outcome — return value, error, or
// panic — into the uniform response envelope. A bad request must never
// take down the instance serving it.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/HendryAvila/houdini-mcp/internal/protocol"
)

// Handler executes one command. Params is the raw JSON params object
// from the request (nil when the request omitted it). The returned
// value must be JSON-encodable.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Dispatcher maps command names to handlers. The table is built once at
// startup (Register is not safe to call concurrently with Dispatch);
// handler execution is mutually exclusive because the host application
// behind the handlers is not safe for concurrent mutation.
type Dispatcher struct {
	execMu   sync.Mutex
	handlers map[string]Handler
}

// New creates an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register binds a command name to its handler, replacing any previous
// binding for that name.
func (d *Dispatcher) Register(name string, h Handler) {
	d.handlers[name] = h
}

// Commands returns the registered command names, sorted. The set of
// valid commands is explicit and enumerable — no reflection.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch looks up the request's command and runs it, holding the
// execution lock so at most one handler mutates host state at a time.
// Handler errors and panics become error responses; they never
// propagate to the accept loop.
func (d *Dispatcher) Dispatch(ctx context.Context, req protocol.Request) protocol.Response {
	h, ok := d.handlers[req.Type]
	if !ok {
		return protocol.ErrorResponse("unknown command: %s", req.Type)
	}

	d.execMu.Lock()
	defer d.execMu.Unlock()

	result, err := d.run(ctx, h, req.Params)
	if err != nil {
		return protocol.ErrorResponse("%s", err.Error())
	}
	return protocol.SuccessResponse(result)
}

// run invokes the handler with panic recovery.
func (d *Dispatcher) run(ctx context.Context, h Handler, params json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, params)
}
