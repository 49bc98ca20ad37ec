// Package tools implements the MCP tool handlers that drive Houdini.
//
// Each tool is a struct holding its dependencies, with Definition()
// returning the mcp.Tool schema and Handle() processing the call.
// Tools depend on the bridge.Commander interface, not the concrete
// client, so tests can fake the Houdini side.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/mark3labs/mcp-go/mcp"
)

// sendCommand relays one command to Houdini and folds every failure
// into a tool error result, so a dead instance never breaks the MCP
// session itself.
func sendCommand(ctx context.Context, c bridge.Commander, cmdType string, params any) (json.RawMessage, *mcp.CallToolResult) {
	raw, err := c.SendCommand(ctx, cmdType, params)
	if err == nil {
		return raw, nil
	}

	var cmdErr *bridge.CommandError
	switch {
	case errors.As(err, &cmdErr):
		return nil, mcp.NewToolResultError(fmt.Sprintf("Houdini error: %s", cmdErr.Message))
	case errors.Is(err, bridge.ErrNoInstance):
		return nil, mcp.NewToolResultError(
			"No running Houdini instance found. Start Houdini with the HoudiniMCP plugin enabled.")
	case errors.Is(err, bridge.ErrInstanceNotFound):
		return nil, mcp.NewToolResultError(err.Error())
	default:
		return nil, mcp.NewToolResultError(fmt.Sprintf("connection to Houdini failed: %v", err))
	}
}

// formatJSON pretty-prints a raw result for tool output.
func formatJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// resultField pulls one field out of a raw result map as a string.
func resultField(raw json.RawMessage, key string) string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// intArg extracts an integer argument, returning defaultVal if the key
// is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// floatsArg extracts a number-array argument, or nil when absent.
func floatsArg(req mcp.CallToolRequest, key string) []float64 {
	arr, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(arr))
	for _, v := range arr {
		f, ok := v.(float64)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

// intsArg extracts a number-array argument as ints, or nil when absent.
func intsArg(req mcp.CallToolRequest, key string) []int {
	fs := floatsArg(req, key)
	if fs == nil {
		return nil
	}
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = int(f)
	}
	return out
}

// mapArg extracts an object argument, or nil when absent.
func mapArg(req mcp.CallToolRequest, key string) map[string]any {
	m, ok := req.GetArguments()[key].(map[string]any)
	if !ok {
		return nil
	}
	return m
}
