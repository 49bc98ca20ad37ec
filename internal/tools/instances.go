package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/HendryAvila/houdini-mcp/internal/instances"
	"github.com/mark3labs/mcp-go/mcp"
)

// Connector is the instance-management side of the bridge client:
// listing live Houdini sessions and pinning the connection to one.
type Connector interface {
	Instances() ([]instances.Record, error)
	ConnectTo(ctx context.Context, port int) error
	ConnectedPort() int
}

// ListInstancesTool handles the list_houdini_instances MCP tool.
type ListInstancesTool struct {
	conn Connector
}

// NewListInstancesTool creates a ListInstancesTool backed by the given connector.
func NewListInstancesTool(conn Connector) *ListInstancesTool {
	return &ListInstancesTool{conn: conn}
}

// Definition returns the MCP tool definition for registration.
func (t *ListInstancesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_houdini_instances",
		mcp.WithDescription(
			"List the running Houdini instances this server can talk to, newest "+
				"first, with their port, PID and open hip file.",
		),
	)
}

// Handle processes the list_houdini_instances tool call.
func (t *ListInstancesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := t.conn.Instances()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing instances failed: %v", err)), nil
	}
	if len(recs) == 0 {
		return mcp.NewToolResultText(
			"No running Houdini instances found. Start Houdini with the HoudiniMCP plugin enabled.",
		), nil
	}

	current := t.conn.ConnectedPort()
	var b strings.Builder
	fmt.Fprintf(&b, "%d running Houdini instance(s):\n", len(recs))
	for _, r := range recs {
		marker := " "
		if r.Port == current {
			marker = "*"
		}
		hip := r.HipName
		if hip == "" {
			hip = r.HipFile
		}
		if hip == "" {
			hip = "untitled"
		}
		fmt.Fprintf(&b, "%s port %d: %s (pid %d, Houdini %s, started %s)\n",
			marker, r.Port, hip, r.PID, r.HoudiniVersion, r.StartedAt)
	}
	if current != 0 {
		fmt.Fprintf(&b, "\n* currently connected (port %d)", current)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ConnectTool handles the connect_to_houdini MCP tool.
type ConnectTool struct {
	conn Connector
}

// NewConnectTool creates a ConnectTool backed by the given connector.
func NewConnectTool(conn Connector) *ConnectTool {
	return &ConnectTool{conn: conn}
}

// Definition returns the MCP tool definition for registration.
func (t *ConnectTool) Definition() mcp.Tool {
	return mcp.NewTool("connect_to_houdini",
		mcp.WithDescription(
			"Pin the connection to a specific Houdini instance by port. Later "+
				"commands go only to that instance; if it dies they fail instead "+
				"of falling back to another one.",
		),
		mcp.WithNumber("port",
			mcp.Required(),
			mcp.Description("Port of the instance, as shown by list_houdini_instances"),
		),
	)
}

// Handle processes the connect_to_houdini tool call.
func (t *ConnectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	port := intArg(req, "port", 0)
	if port <= 0 {
		return mcp.NewToolResultError("'port' is required"), nil
	}

	if err := t.conn.ConnectTo(ctx, port); err != nil {
		if errors.Is(err, bridge.ErrInstanceNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"no running Houdini instance on port %d; run list_houdini_instances to see what is available", port,
			)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("connection to port %d failed: %v", port, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Connected to Houdini instance on port %d", port)), nil
}
