// Package registry runs the server side of the bridge: it claims one
// port from the shared candidate range, advertises the instance with a
// discovery record, and serves framed JSON commands through a
// dispatcher. Multiple instances coexist on one machine with zero
// configuration because each simply takes the next free candidate port.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/HendryAvila/houdini-mcp/internal/dispatch"
	"github.com/HendryAvila/houdini-mcp/internal/instances"
	"github.com/HendryAvila/houdini-mcp/internal/protocol"
)

// ErrNoPortAvailable means every candidate port is already bound.
// Fatal to this instance's startup; nothing gets advertised.
var ErrNoPortAvailable = errors.New("all candidate ports are in use")

// InstanceInfo is the host-application metadata advertised in the
// discovery record.
type InstanceInfo struct {
	HipFile        string
	HipName        string
	HoudiniVersion string
}

// Options configures a Server. Zero values select the shared defaults.
type Options struct {
	Host  string          // bind host, default "localhost"
	Ports []int           // candidate ports in priority order, default instances.PortRange()
	Store instances.Store // discovery record store, default file store
	Info  InstanceInfo
}

// Server owns one listening socket, one published discovery record,
// and an accept loop that feeds the dispatcher. Commands from a client
// are executed strictly one at a time (the dispatcher serializes), and
// the loop accepts one client connection at a time, matching the
// host-side addon's behavior.
type Server struct {
	opts       Options
	dispatcher *dispatch.Dispatcher

	mu      sync.Mutex
	ln      net.Listener
	client  net.Conn
	port    int
	stopped bool
	done    chan struct{}
}

// New creates a Server that routes commands through d.
func New(d *dispatch.Dispatcher, opts Options) *Server {
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if len(opts.Ports) == 0 {
		opts.Ports = instances.PortRange()
	}
	if opts.Store == nil {
		opts.Store = instances.NewFileStore("")
	}
	return &Server{opts: opts, dispatcher: d}
}

// Start claims the first free candidate port, publishes this instance's
// discovery record, and begins accepting connections in the background.
// It returns the bound port. Startup also sweeps records left behind by
// instances that died without deregistering.
func (s *Server) Start() (int, error) {
	// Best-effort sweep; a failed sweep never blocks startup.
	if _, err := instances.NewDiscovery(s.opts.Store, nil).Discover(); err != nil {
		log.Printf("WARNING: stale record sweep: %v", err)
	}

	var ln net.Listener
	port := 0
	for _, p := range s.opts.Ports {
		l, err := net.Listen("tcp", net.JoinHostPort(s.opts.Host, strconv.Itoa(p)))
		if err == nil {
			ln, port = l, p
			break
		}
	}
	if ln == nil {
		return 0, fmt.Errorf("%w (%d candidates from %d)", ErrNoPortAvailable, len(s.opts.Ports), s.opts.Ports[0])
	}

	rec := instances.Record{
		Port:           port,
		PID:            os.Getpid(),
		HipFile:        s.opts.Info.HipFile,
		HipName:        s.opts.Info.HipName,
		HoudiniVersion: s.opts.Info.HoudiniVersion,
		StartedAt:      time.Now().UTC().Format(time.RFC3339),
		Hostname:       s.opts.Host,
	}
	if err := s.opts.Store.Put(rec); err != nil {
		ln.Close()
		return 0, fmt.Errorf("publishing instance record: %w", err)
	}

	s.mu.Lock()
	s.ln = ln
	s.port = port
	s.stopped = false
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.acceptLoop(ln)

	log.Printf("instance registered on %s:%d", s.opts.Host, port)
	return port, nil
}

// Port returns the bound port (0 before Start).
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Stop closes the listener and removes this instance's discovery
// record. It must run on every shutdown path; discovery-side pruning
// exists only for the crashes where it cannot.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.stopped || s.ln == nil {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	ln, port, done, client := s.ln, s.port, s.done, s.client
	s.mu.Unlock()

	err := ln.Close()
	// An idle client sits in an indefinite read; closing the listener
	// alone leaves serve blocked and the accept loop never drains.
	if client != nil {
		_ = client.Close()
	}
	if derr := s.opts.Store.Delete(port); derr != nil {
		log.Printf("WARNING: removing instance record: %v", derr)
	}
	<-done
	return err
}

// acceptLoop serves one client connection at a time until the listener
// closes. A failed client never stops the loop.
func (s *Server) acceptLoop(ln net.Listener) {
	defer close(s.doneCh())
	var errDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isStopped() {
				return
			}
			log.Printf("WARNING: accept: %v", err)
			// Bound the retry rate; a persistent accept failure
			// (fd exhaustion) must not spin the loop.
			if errDelay < time.Second {
				errDelay += 50 * time.Millisecond
			}
			time.Sleep(errDelay)
			continue
		}
		errDelay = 0
		if !s.trackClient(conn) {
			conn.Close()
			return
		}
		s.serve(conn)
		s.trackClient(nil)
	}
}

// trackClient records the active client connection so Stop can close
// it out from under a blocked read. Returns false when Stop already
// ran and the fresh connection must be discarded.
func (s *Server) trackClient(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped && conn != nil {
		return false
	}
	s.client = conn
	return true
}

// serve runs the request/response loop for one client. Exchanges are
// strictly ordered: read one frame, dispatch, write one response.
func (s *Server) serve(nc net.Conn) {
	pc := protocol.NewConn(nc)
	defer pc.Close()

	for {
		raw, err := pc.Receive(time.Time{})
		if err != nil {
			// EOF and resets are normal client departures; a framing
			// error poisons the stream either way.
			if !errors.Is(err, protocol.ErrTransport) {
				log.Printf("WARNING: dropping client: %v", err)
			}
			return
		}

		var req protocol.Request
		resp := protocol.Response{}
		if jerr := json.Unmarshal(raw, &req); jerr != nil {
			// A valid JSON frame that isn't a request object fails this
			// one exchange only.
			resp = protocol.ErrorResponse("invalid request: %v", jerr)
		} else {
			resp = s.dispatcher.Dispatch(context.Background(), req)
		}

		if err := pc.Send(resp); err != nil {
			log.Printf("WARNING: writing response: %v", err)
			return
		}
	}
}

func (s *Server) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Server) doneCh() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
