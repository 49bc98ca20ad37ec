// Package bridge is the client side of the Houdini connection: it owns
// at most one live socket at a time and decides which instance that
// socket points at. Selection runs in strict priority order — explicit
// target, then reuse of a healthy connection, then the newest
// discovered instance, then the legacy default port — and any transport
// failure invalidates the cached connection so the next call re-runs
// the full selection. There is no automatic retry inside a call: one
// invocation, one clear failure signal.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/HendryAvila/houdini-mcp/internal/instances"
	"github.com/HendryAvila/houdini-mcp/internal/protocol"
)

// DefaultTimeout bounds how long one command waits for its response,
// matching the 15-second socket timeout the Python bridge used.
const DefaultTimeout = 15 * time.Second

var (
	// ErrInstanceNotFound means an explicitly requested port has no
	// live instance behind it. Explicit requests never fall back.
	ErrInstanceNotFound = errors.New("no Houdini instance on the requested port")

	// ErrNoInstance means neither discovery nor the legacy default port
	// produced a connection. The user needs to start Houdini (or the
	// addon inside it).
	ErrNoInstance = errors.New("no running Houdini instance found")
)

// CommandError is a failure reported by the Houdini side — the command
// reached an instance and came back as {"status":"error"}. The
// connection itself is still good.
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// Commander is the one-method surface most MCP tools need.
type Commander interface {
	SendCommand(ctx context.Context, cmdType string, params any) (json.RawMessage, error)
}

// Client is the connection manager. All state lives behind one mutex;
// the protocol is not pipelined, so holding the lock for the duration
// of an exchange also enforces the one-request-in-flight rule.
type Client struct {
	discovery *instances.Discovery
	timeout   time.Duration
	host      string

	// dial is injectable for tests.
	dial func(host string, port int) (net.Conn, error)

	mu     sync.Mutex
	conn   *protocol.Conn
	port   int // port of the current connection
	target int // explicitly selected port (0 = automatic)
}

// New creates a Client that selects instances via discovery. A zero
// timeout selects DefaultTimeout.
func New(discovery *instances.Discovery, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		discovery: discovery,
		timeout:   timeout,
		host:      "localhost",
		dial: func(host string, port int) (net.Conn, error) {
			return net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), 5*time.Second)
		},
	}
}

// SendCommand connects (or reuses the existing connection), sends one
// request, and waits for its response within the client's timeout. Any
// transport-level failure tears down the cached connection; the error
// is surfaced as-is and the next call starts selection from scratch.
func (c *Client) SendCommand(ctx context.Context, cmdType string, params any) (json.RawMessage, error) {
	req, err := protocol.NewRequest(cmdType, params)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.acquireLocked()
	if err != nil {
		return nil, err
	}

	if err := conn.Send(req); err != nil {
		c.invalidateLocked()
		return nil, fmt.Errorf("sending %s: %w", cmdType, err)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	raw, err := conn.Receive(deadline)
	if err != nil {
		// Timeouts leave the instance mid-command with no way to know
		// when the stream re-synchronizes; discard the connection too.
		c.invalidateLocked()
		return nil, fmt.Errorf("awaiting %s response: %w", cmdType, err)
	}

	var resp protocol.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.invalidateLocked()
		return nil, fmt.Errorf("%w: response is not an envelope: %v", protocol.ErrProtocol, err)
	}
	if resp.Status == protocol.StatusError {
		return nil, &CommandError{Command: cmdType, Message: resp.Message}
	}
	return resp.Result, nil
}

// ConnectTo pins the client to the instance on the given port. The port
// must belong to a currently discovered instance; no fallback happens
// on an explicit request. The pin persists until the next ConnectTo.
func (c *Client) ConnectTo(ctx context.Context, port int) error {
	recs, err := c.discovery.Discover()
	if err != nil {
		return fmt.Errorf("discovering instances: %w", err)
	}
	known := false
	for _, rec := range recs {
		if rec.Port == port {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: port %d (live ports: %s)", ErrInstanceNotFound, port, knownPorts(recs))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.target = port
	c.invalidateLocked()
	_, err = c.acquireLocked()
	return err
}

// Instances lists the currently live instances, newest first.
func (c *Client) Instances() ([]instances.Record, error) {
	return c.discovery.Discover()
}

// ConnectedPort returns the port of the live connection, or 0 when
// disconnected.
func (c *Client) ConnectedPort() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return 0
	}
	return c.port
}

// Close drops the current connection, if any.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

// acquireLocked applies the selection policy and returns a connected
// channel. Caller holds c.mu.
//
//  1. An explicit target always wins: connect to exactly that port
//     (reusing the current connection only when it already points
//     there), failing with ErrInstanceNotFound and no fallback.
//  2. Otherwise reuse the existing connection if it passes the
//     liveness probe.
//  3. Otherwise discover and connect to the newest instance.
//  4. Otherwise try the legacy default port; ErrNoInstance if that
//     also refuses.
func (c *Client) acquireLocked() (*protocol.Conn, error) {
	if c.target != 0 {
		if c.conn != nil && c.port == c.target && c.conn.Healthy() {
			return c.conn, nil
		}
		conn, err := c.connectLocked(c.target)
		if err != nil {
			return nil, fmt.Errorf("%w: port %d: %v", ErrInstanceNotFound, c.target, err)
		}
		return conn, nil
	}

	if c.conn != nil {
		if c.conn.Healthy() {
			return c.conn, nil
		}
		log.Printf("cached connection to port %d is no longer healthy, reselecting", c.port)
		c.invalidateLocked()
	}

	recs, err := c.discovery.Discover()
	if err != nil {
		return nil, fmt.Errorf("discovering instances: %w", err)
	}
	if len(recs) > 0 {
		newest := recs[0]
		if len(recs) > 1 {
			log.Printf("found %d Houdini instances, connecting to the most recent on port %d", len(recs), newest.Port)
		}
		conn, err := c.connectLocked(newest.Port)
		if err != nil {
			return nil, fmt.Errorf("connecting to discovered instance on port %d: %w", newest.Port, err)
		}
		return conn, nil
	}

	// Backward-compatibility path: instances started by addon versions
	// that predate discovery records listen on the fixed default port.
	conn, err := c.connectLocked(instances.DefaultPort)
	if err != nil {
		return nil, fmt.Errorf("%w (default port %d refused: %v)", ErrNoInstance, instances.DefaultPort, err)
	}
	return conn, nil
}

// connectLocked dials port and swaps the new connection in, closing the
// old one first — the manager never holds two open sockets.
func (c *Client) connectLocked(port int) (*protocol.Conn, error) {
	nc, err := c.dial(c.host, port)
	if err != nil {
		return nil, err
	}
	c.invalidateLocked()
	c.conn = protocol.NewConn(nc)
	c.port = port
	return c.conn, nil
}

// invalidateLocked closes and forgets the cached connection.
func (c *Client) invalidateLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.port = 0
	}
}

func knownPorts(recs []instances.Record) string {
	if len(recs) == 0 {
		return "none"
	}
	ports := make([]int, len(recs))
	for i, r := range recs {
		ports[i] = r.Port
	}
	sort.Ints(ports)
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
