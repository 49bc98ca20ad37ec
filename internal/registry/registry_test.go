package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/HendryAvila/houdini-mcp/internal/dispatch"
	"github.com/HendryAvila/houdini-mcp/internal/instances"
	"github.com/HendryAvila/houdini-mcp/internal/protocol"
)

// freePorts finds n currently-free TCP ports to use as a candidate
// range, so tests never collide with a real 9877-9886 user.
func freePorts(t *testing.T, n int) []int {
	t.Helper()
	ports := make([]int, 0, n)
	listeners := make([]net.Listener, 0, n)
	for len(ports) < n {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			t.Fatal(err)
		}
		listeners = append(listeners, l)
		ports = append(ports, l.Addr().(*net.TCPAddr).Port)
	}
	for _, l := range listeners {
		l.Close()
	}
	return ports
}

func pingDispatcher() *dispatch.Dispatcher {
	d := dispatch.New()
	d.Register("ping", func(context.Context, json.RawMessage) (any, error) {
		return "pong", nil
	})
	return d
}

func startServer(t *testing.T, store instances.Store, ports []int, info InstanceInfo) *Server {
	t.Helper()
	s := New(pingDispatcher(), Options{Ports: ports, Store: store, Info: info})
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s
}

func TestStartPublishesRecord(t *testing.T) {
	store := instances.NewFileStore(t.TempDir())
	ports := freePorts(t, 2)
	s := startServer(t, store, ports, InstanceInfo{
		HipFile:        "/tmp/untitled.hip",
		HipName:        "untitled.hip",
		HoudiniVersion: "20.5.445",
	})

	if s.Port() != ports[0] {
		t.Errorf("bound port %d, want first candidate %d", s.Port(), ports[0])
	}

	recs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("published %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Port != s.Port() || rec.PID != os.Getpid() || rec.HipName != "untitled.hip" {
		t.Errorf("record = %+v", rec)
	}
	if _, err := time.Parse(time.RFC3339, rec.StartedAt); err != nil {
		t.Errorf("started_at %q is not RFC 3339: %v", rec.StartedAt, err)
	}
}

func TestConcurrentInstancesGetDistinctPorts(t *testing.T) {
	store := instances.NewFileStore(t.TempDir())
	ports := freePorts(t, 3)

	seen := make(map[int]bool)
	for i := 0; i < 3; i++ {
		s := startServer(t, store, ports, InstanceInfo{HipName: "scene" + strconv.Itoa(i) + ".hip"})
		if seen[s.Port()] {
			t.Fatalf("port %d claimed twice", s.Port())
		}
		seen[s.Port()] = true
	}

	recs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Errorf("published %d records, want 3 distinct", len(recs))
	}
}

func TestStartFailsWhenRangeExhausted(t *testing.T) {
	store := instances.NewFileStore(t.TempDir())
	ports := freePorts(t, 2)

	// Occupy every candidate with plain listeners.
	for _, p := range ports {
		l, err := net.Listen("tcp", "localhost:"+strconv.Itoa(p))
		if err != nil {
			t.Skipf("could not re-bind scratch port %d: %v", p, err)
		}
		defer l.Close()
	}

	s := New(pingDispatcher(), Options{Ports: ports, Store: store})
	_, err := s.Start()
	if !errors.Is(err, ErrNoPortAvailable) {
		t.Fatalf("err = %v, want ErrNoPortAvailable", err)
	}

	recs, _ := store.List()
	if len(recs) != 0 {
		t.Errorf("failed startup still published a record: %+v", recs)
	}
}

func TestStopRemovesRecord(t *testing.T) {
	store := instances.NewFileStore(t.TempDir())
	s := startServer(t, store, freePorts(t, 1), InstanceInfo{})

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	recs, _ := store.List()
	if len(recs) != 0 {
		t.Errorf("record remains after Stop: %+v", recs)
	}

	// Stop is idempotent.
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestServeDispatchesCommands(t *testing.T) {
	store := instances.NewFileStore(t.TempDir())
	d := dispatch.New()
	d.Register("echo", func(_ context.Context, params json.RawMessage) (any, error) {
		var p map[string]any
		_ = json.Unmarshal(params, &p)
		return p, nil
	})
	d.Register("fail", func(context.Context, json.RawMessage) (any, error) {
		return nil, errors.New("handler exploded")
	})

	s := New(d, Options{Ports: freePorts(t, 1), Store: store})
	port, err := s.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	nc, err := net.Dial("tcp", "localhost:"+strconv.Itoa(port))
	if err != nil {
		t.Fatal(err)
	}
	pc := protocol.NewConn(nc)
	defer pc.Close()

	exchange := func(req protocol.Request) protocol.Response {
		t.Helper()
		if err := pc.Send(req); err != nil {
			t.Fatalf("Send: %v", err)
		}
		raw, err := pc.Receive(time.Now().Add(2 * time.Second))
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		var resp protocol.Response
		if err := json.Unmarshal(raw, &resp); err != nil {
			t.Fatalf("bad response frame: %v", err)
		}
		return resp
	}

	// Success, with a brace-in-string payload for good measure.
	resp := exchange(protocol.Request{Type: "echo", Params: json.RawMessage(`{"note":"a { b"}`)})
	if resp.Status != protocol.StatusSuccess || string(resp.Result) != `{"note":"a { b"}` {
		t.Errorf("echo response = %+v", resp)
	}

	// Unknown command.
	resp = exchange(protocol.Request{Type: "unknown_cmd"})
	if resp.Status != protocol.StatusError || resp.Message != "unknown command: unknown_cmd" {
		t.Errorf("unknown command response = %+v", resp)
	}

	// Handler failure, then a healthy exchange on the same connection.
	resp = exchange(protocol.Request{Type: "fail"})
	if resp.Status != protocol.StatusError || resp.Message != "handler exploded" {
		t.Errorf("failure response = %+v", resp)
	}
	resp = exchange(protocol.Request{Type: "echo", Params: json.RawMessage(`{"ok":true}`)})
	if resp.Status != protocol.StatusSuccess {
		t.Errorf("connection unusable after handler failure: %+v", resp)
	}
}

func TestStopWithIdleConnectedClient(t *testing.T) {
	store := instances.NewFileStore(t.TempDir())
	s := startServer(t, store, freePorts(t, 1), InstanceInfo{})

	nc, err := net.Dial("tcp", "localhost:"+strconv.Itoa(s.Port()))
	if err != nil {
		t.Fatal(err)
	}
	pc := protocol.NewConn(nc)
	defer pc.Close()

	// One exchange proves the server is in its read loop for this
	// client, which then goes idle. The bridge holds its connection
	// exactly like this between commands.
	if err := pc.Send(protocol.Request{Type: "ping"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := pc.Receive(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	stopped := make(chan error, 1)
	go func() { stopped <- s.Stop() }()

	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Stop: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return while a client connection was open")
	}

	// The client's next read sees the connection torn down.
	if _, err := pc.Receive(time.Now().Add(2 * time.Second)); err == nil {
		t.Error("client read succeeded after Stop")
	}
}

// flakyListener fails every Accept, flagging the server as stopped once
// the quota is spent so the loop can drain.
type flakyListener struct {
	mu       sync.Mutex
	failures int
	stop     func()
}

func (l *flakyListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	l.failures--
	spent := l.failures < 0
	l.mu.Unlock()
	if spent {
		l.stop()
	}
	return nil, errors.New("accept: too many open files")
}

func (l *flakyListener) Close() error   { return nil }
func (l *flakyListener) Addr() net.Addr { return &net.TCPAddr{} }

func TestAcceptLoopBacksOffOnPersistentErrors(t *testing.T) {
	s := New(pingDispatcher(), Options{
		Ports: freePorts(t, 1),
		Store: instances.NewFileStore(t.TempDir()),
	})
	s.done = make(chan struct{})
	fl := &flakyListener{failures: 3, stop: func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
	}}

	start := time.Now()
	go s.acceptLoop(fl)

	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("accept loop did not drain after persistent errors")
	}

	// Three consecutive failures must accumulate at least the first
	// three backoff steps (50+100+150ms); a hot loop finishes in
	// microseconds.
	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Errorf("loop retried without backoff, drained in %v", elapsed)
	}
}

func TestStartSweepsStaleRecords(t *testing.T) {
	store := instances.NewFileStore(t.TempDir())
	// A record for a PID that cannot exist.
	_ = store.Put(instances.Record{Port: 9877, PID: 1 << 30, StartedAt: "2026-01-01T00:00:00Z"})

	s := startServer(t, store, freePorts(t, 1), InstanceInfo{})

	recs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Port != s.Port() {
		t.Errorf("stale record not swept at startup: %+v", recs)
	}
}
