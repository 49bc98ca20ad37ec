// Package protocol implements the JSON-over-TCP wire protocol spoken
// between the MCP bridge and a Houdini instance.
//
// The protocol has no length prefix and no delimiter byte: each side
// writes one UTF-8 JSON object per exchange and the receiver detects
// completeness structurally, by tracking brace/bracket depth outside of
// quoted strings (see frame.go). Requests look like
// {"type":"create_node","params":{...}} and responses are exactly one of
// {"status":"success","result":...} or {"status":"error","message":"..."}.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Response status values on the wire.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error taxonomy. Callers branch with errors.Is; everything below the
// framed channel is recovered into one of these, never surfaced as a raw
// net or json error.
var (
	// ErrTransport covers socket-level failures: refused, reset, closed,
	// or the peer hanging up mid-frame.
	ErrTransport = errors.New("transport failure")

	// ErrProtocol covers payloads that reached structural completeness
	// but are not valid JSON, or bytes that can never frame.
	ErrProtocol = errors.New("malformed frame")

	// ErrTimeout is returned when no complete frame arrives before the
	// receive deadline.
	ErrTimeout = errors.New("receive deadline exceeded")
)

// Request is one command sent to a Houdini instance. Params is kept raw
// so the bridge never needs to understand individual command payloads.
type Request struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the uniform reply envelope. Exactly one of Result or
// Message is meaningful, selected by Status.
type Response struct {
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

// NewRequest builds a Request, marshaling params to JSON. A nil params
// value yields a request with no params field (the receiver treats that
// as an empty object).
func NewRequest(cmdType string, params any) (Request, error) {
	req := Request{Type: cmdType}
	if params == nil {
		return req, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return Request{}, fmt.Errorf("marshaling params for %q: %w", cmdType, err)
	}
	req.Params = raw
	return req, nil
}

// SuccessResponse wraps a handler result in the success envelope.
// A result that cannot be marshaled is reported as an error response
// rather than killing the exchange.
func SuccessResponse(result any) Response {
	raw, err := json.Marshal(result)
	if err != nil {
		return ErrorResponse("marshaling result: %v", err)
	}
	return Response{Status: StatusSuccess, Result: raw}
}

// ErrorResponse builds an error envelope with a formatted message.
func ErrorResponse(format string, args ...any) Response {
	return Response{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}
