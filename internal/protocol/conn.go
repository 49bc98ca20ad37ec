package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// readChunkSize matches the 8 KiB recv buffer the Houdini addon uses.
const readChunkSize = 8192

// Conn is a framed channel over a byte-stream socket: one complete JSON
// value per Send, one per Receive. Bytes read past the end of a frame
// stay buffered for the next Receive, so back-to-back frames on the
// same connection are handled correctly.
//
// Conn is not safe for concurrent use; the protocol is strictly
// request/response, one exchange at a time.
type Conn struct {
	nc  net.Conn
	buf []byte // unconsumed bytes carried across Receive calls
}

// NewConn wraps an established socket in a framed channel.
func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc}
}

// Send encodes v to its JSON text form and writes all bytes to the
// socket. Write failures (closed socket, short write) surface as
// ErrTransport.
func (c *Conn) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding frame: %v", ErrProtocol, err)
	}
	if _, err := c.nc.Write(data); err != nil {
		return fmt.Errorf("%w: write: %v", ErrTransport, err)
	}
	return nil
}

// Receive reads until one structurally complete JSON value has arrived
// and returns its bytes. A zero deadline means block indefinitely.
//
// On deadline expiry it returns ErrTimeout with the partial buffer left
// intact, so a retry on the same connection could in principle resume —
// though callers should treat a timeout as connection-invalidating.
// A peer close mid-frame is ErrTransport; a complete frame that fails
// to parse as JSON is ErrProtocol.
func (c *Conn) Receive(deadline time.Time) (json.RawMessage, error) {
	if err := c.nc.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%w: set deadline: %v", ErrTransport, err)
	}

	var scan frameScanner
	pos := 0 // bytes of c.buf already fed to the scanner

	for {
		// Scan whatever is buffered (leftover from a previous frame,
		// or appended below) before touching the socket.
		if pos < len(c.buf) {
			pos += scan.feed(c.buf[pos:])
		}
		if scan.badByte {
			c.buf = nil
			return nil, fmt.Errorf("%w: stream does not begin with a JSON object", ErrProtocol)
		}
		if scan.complete {
			frame := c.buf[:pos]
			c.buf = append([]byte(nil), c.buf[pos:]...)
			if !json.Valid(frame) {
				return nil, fmt.Errorf("%w: balanced but invalid JSON (%d bytes)", ErrProtocol, len(frame))
			}
			return json.RawMessage(frame), nil
		}

		chunk := make([]byte, readChunkSize)
		n, err := c.nc.Read(chunk)
		if n > 0 {
			c.buf = append(c.buf, chunk[:n]...)
			continue
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(c.buf) > 0 {
				return nil, fmt.Errorf("%w: connection closed mid-frame (%d bytes buffered)", ErrTransport, len(c.buf))
			}
			return nil, fmt.Errorf("%w: connection closed", ErrTransport)
		}
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: no complete frame before deadline", ErrTimeout)
		}
		return nil, fmt.Errorf("%w: read: %v", ErrTransport, err)
	}
}

// Healthy reports whether the connection still looks usable without
// running a full exchange. It does a near-zero-length read: a healthy
// idle peer yields a deadline timeout, a dead one yields EOF or reset.
// Any stray bytes mean the request/response framing is desynced, which
// also counts as unhealthy.
func (c *Conn) Healthy() bool {
	if len(c.buf) != 0 {
		return false
	}
	if err := c.nc.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return false
	}
	defer c.nc.SetReadDeadline(time.Time{}) //nolint:errcheck

	var probe [1]byte
	n, err := c.nc.Read(probe[:])
	if n > 0 {
		// Unsolicited data outside an exchange: keep it (it belongs to
		// the stream) but report the connection unusable.
		c.buf = append(c.buf, probe[:n]...)
		return false
	}
	return isTimeout(err)
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.nc.Close()
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
