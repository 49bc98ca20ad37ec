package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/mark3labs/mcp-go/mcp"
)

// SceneInfoTool handles the get_scene_info MCP tool.
type SceneInfoTool struct {
	client bridge.Commander
}

// NewSceneInfoTool creates a SceneInfoTool backed by the given client.
func NewSceneInfoTool(client bridge.Commander) *SceneInfoTool {
	return &SceneInfoTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *SceneInfoTool) Definition() mcp.Tool {
	return mcp.NewTool("get_scene_info",
		mcp.WithDescription(
			"Get detailed information about the current Houdini scene: "+
				"hip file, FPS, frame range, current frame and the top-level networks.",
		),
	)
}

// Handle processes the get_scene_info tool call.
func (t *SceneInfoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, errRes := sendCommand(ctx, t.client, "get_scene_info", nil)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(formatJSON(raw)), nil
}

// NodeInfoTool handles the get_node_info MCP tool.
type NodeInfoTool struct {
	client bridge.Commander
}

// NewNodeInfoTool creates a NodeInfoTool backed by the given client.
func NewNodeInfoTool(client bridge.Commander) *NodeInfoTool {
	return &NodeInfoTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *NodeInfoTool) Definition() mcp.Tool {
	return mcp.NewTool("get_node_info",
		mcp.WithDescription(
			"Get detailed information about a specific node: type, category, "+
				"position, children, flags and parameter values.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path of the node, e.g. '/obj/geo1'"),
		),
	)
}

// Handle processes the get_node_info tool call.
func (t *NodeInfoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("'path' is required — the full node path, e.g. '/obj/geo1'"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "get_node_info", map[string]any{"path": path})
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(formatJSON(raw)), nil
}

// ParameterInfoTool handles the get_parameter_info MCP tool.
type ParameterInfoTool struct {
	client bridge.Commander
}

// NewParameterInfoTool creates a ParameterInfoTool backed by the given client.
func NewParameterInfoTool(client bridge.Commander) *ParameterInfoTool {
	return &ParameterInfoTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *ParameterInfoTool) Definition() mcp.Tool {
	return mcp.NewTool("get_parameter_info",
		mcp.WithDescription(
			"Get parameter details for a node. With 'parameter_name' it returns "+
				"one parameter (including vector components); without it, all parameters.",
		),
		mcp.WithString("node_path",
			mcp.Required(),
			mcp.Description("Full path of the node to inspect"),
		),
		mcp.WithString("parameter_name",
			mcp.Description("Optional: a single parameter to look up, e.g. 'tx' or 't'"),
		),
	)
}

// Handle processes the get_parameter_info tool call.
func (t *ParameterInfoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodePath := req.GetString("node_path", "")
	if strings.TrimSpace(nodePath) == "" {
		return mcp.NewToolResultError("'node_path' is required"), nil
	}

	params := map[string]any{"node_path": nodePath}
	if name := req.GetString("parameter_name", ""); name != "" {
		params["parameter_name"] = name
	}

	raw, errRes := sendCommand(ctx, t.client, "get_parameter_info", params)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(formatJSON(raw)), nil
}
