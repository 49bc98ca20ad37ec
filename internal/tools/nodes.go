package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/HendryAvila/houdini-mcp/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateNodeTool handles the create_node MCP tool.
type CreateNodeTool struct {
	client bridge.Commander
}

// NewCreateNodeTool creates a CreateNodeTool backed by the given client.
func NewCreateNodeTool(client bridge.Commander) *CreateNodeTool {
	return &CreateNodeTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateNodeTool) Definition() mcp.Tool {
	return mcp.NewTool("create_node",
		mcp.WithDescription(
			"Create a node of any type inside a network. "+
				"Use create_geometry for primitive shapes — it also builds the geo container.",
		),
		mcp.WithString("node_type",
			mcp.Required(),
			mcp.Description("Houdini node type, e.g. 'geo', 'box', 'merge', 'dopnet'"),
		),
		mcp.WithString("parent_path",
			mcp.Required(),
			mcp.Description("Network to create the node in, e.g. '/obj' or '/obj/geo1'"),
		),
		mcp.WithString("node_name",
			mcp.Description("Optional name for the node; Houdini numbers duplicates"),
		),
		mcp.WithArray("position",
			mcp.Description("Optional [x, y] position in the network editor"),
		),
	)
}

// Handle processes the create_node tool call.
func (t *CreateNodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.CreateNodeParams{
		NodeType:   req.GetString("node_type", ""),
		ParentPath: req.GetString("parent_path", ""),
		NodeName:   req.GetString("node_name", ""),
		Position:   floatsArg(req, "position"),
	}
	if p.NodeType == "" || p.ParentPath == "" {
		return mcp.NewToolResultError("'node_type' and 'parent_path' are required"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "create_node", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Created %s node %q at %s", p.NodeType, resultField(raw, "name"), resultField(raw, "path"),
	)), nil
}

// ModifyNodeTool handles the modify_node MCP tool.
type ModifyNodeTool struct {
	client bridge.Commander
}

// NewModifyNodeTool creates a ModifyNodeTool backed by the given client.
func NewModifyNodeTool(client bridge.Commander) *ModifyNodeTool {
	return &ModifyNodeTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *ModifyNodeTool) Definition() mcp.Tool {
	return mcp.NewTool("modify_node",
		mcp.WithDescription("Modify an existing node: move, recolor, rename, bypass or display flags."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path of the node to modify"),
		),
		mcp.WithArray("position",
			mcp.Description("Optional [x, y] network editor position"),
		),
		mcp.WithArray("color",
			mcp.Description("Optional [r, g, b] node color, each 0-1"),
		),
		mcp.WithString("name",
			mcp.Description("Optional new name for the node"),
		),
		mcp.WithBoolean("bypass",
			mcp.Description("Optional: set the bypass flag"),
		),
		mcp.WithBoolean("display",
			mcp.Description("Optional: set the display flag"),
		),
	)
}

// Handle processes the modify_node tool call.
func (t *ModifyNodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	p := catalog.ModifyNodeParams{
		Path:     path,
		Position: floatsArg(req, "position"),
		Color:    floatsArg(req, "color"),
		Name:     req.GetString("name", ""),
	}
	args := req.GetArguments()
	if v, ok := args["bypass"].(bool); ok {
		p.Bypass = &v
	}
	if v, ok := args["display"].(bool); ok {
		p.Display = &v
	}

	raw, errRes := sendCommand(ctx, t.client, "modify_node", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Modified node %s:\n%s", resultField(raw, "path"), formatJSON(raw),
	)), nil
}

// DeleteNodeTool handles the delete_node MCP tool.
type DeleteNodeTool struct {
	client bridge.Commander
}

// NewDeleteNodeTool creates a DeleteNodeTool backed by the given client.
func NewDeleteNodeTool(client bridge.Commander) *DeleteNodeTool {
	return &DeleteNodeTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteNodeTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_node",
		mcp.WithDescription("Delete a node and everything inside it."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path of the node to delete"),
		),
	)
}

// Handle processes the delete_node tool call.
func (t *DeleteNodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "delete_node", map[string]any{"path": path})
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Deleted node %q at %s", resultField(raw, "name"), path,
	)), nil
}

// SetParameterTool handles the set_parameter MCP tool.
type SetParameterTool struct {
	client bridge.Commander
}

// NewSetParameterTool creates a SetParameterTool backed by the given client.
func NewSetParameterTool(client bridge.Commander) *SetParameterTool {
	return &SetParameterTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *SetParameterTool) Definition() mcp.Tool {
	return mcp.NewTool("set_parameter",
		mcp.WithDescription(
			"Set a parameter on a node. Accepts numbers, strings, booleans and "+
				"arrays for vector parameters like 't' or 'r'.",
		),
		mcp.WithString("node_path",
			mcp.Required(),
			mcp.Description("Full path of the node"),
		),
		mcp.WithString("parameter_name",
			mcp.Required(),
			mcp.Description("Parameter name, e.g. 'tx', 'scale', 'file'"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Value to set; numbers and arrays are passed through as JSON"),
		),
	)
}

// Handle processes the set_parameter tool call.
func (t *SetParameterTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodePath := req.GetString("node_path", "")
	parameterName := req.GetString("parameter_name", "")
	if nodePath == "" || parameterName == "" {
		return mcp.NewToolResultError("'node_path' and 'parameter_name' are required"), nil
	}
	value, ok := req.GetArguments()["value"]
	if !ok {
		return mcp.NewToolResultError("'value' is required"), nil
	}
	// The schema types value as a string; decode JSON literals so
	// "2.5" arrives as a number and "[1,2,3]" as a vector.
	if s, isStr := value.(string); isStr {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			value = decoded
		}
	}

	p := catalog.SetParameterParams{
		NodePath:      nodePath,
		ParameterName: parameterName,
		Value:         value,
	}
	raw, errRes := sendCommand(ctx, t.client, "set_parameter", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Set %s.%s = %v", nodePath, parameterName, resultField(raw, "value"),
	)), nil
}

// ConnectNodesTool handles the connect_nodes MCP tool.
type ConnectNodesTool struct {
	client bridge.Commander
}

// NewConnectNodesTool creates a ConnectNodesTool backed by the given client.
func NewConnectNodesTool(client bridge.Commander) *ConnectNodesTool {
	return &ConnectNodesTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *ConnectNodesTool) Definition() mcp.Tool {
	return mcp.NewTool("connect_nodes",
		mcp.WithDescription("Wire the output of one node into the input of another in the same network."),
		mcp.WithString("from_path",
			mcp.Required(),
			mcp.Description("Node providing the output"),
		),
		mcp.WithString("to_path",
			mcp.Required(),
			mcp.Description("Node receiving the input"),
		),
		mcp.WithNumber("from_output",
			mcp.Description("Output index on the source node (default 0)"),
		),
		mcp.WithNumber("to_input",
			mcp.Description("Input index on the destination node (default 0)"),
		),
	)
}

// Handle processes the connect_nodes tool call.
func (t *ConnectNodesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.ConnectNodesParams{
		FromPath:   req.GetString("from_path", ""),
		ToPath:     req.GetString("to_path", ""),
		FromOutput: intArg(req, "from_output", 0),
		ToInput:    intArg(req, "to_input", 0),
	}
	if p.FromPath == "" || p.ToPath == "" {
		return mcp.NewToolResultError("'from_path' and 'to_path' are required"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "connect_nodes", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Connected %s (output %s) to %s (input %s)",
		p.FromPath, resultField(raw, "from_output"), p.ToPath, resultField(raw, "to_input"),
	)), nil
}

// LayoutNetworkTool handles the layout_network MCP tool.
type LayoutNetworkTool struct {
	client bridge.Commander
}

// NewLayoutNetworkTool creates a LayoutNetworkTool backed by the given client.
func NewLayoutNetworkTool(client bridge.Commander) *LayoutNetworkTool {
	return &LayoutNetworkTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *LayoutNetworkTool) Definition() mcp.Tool {
	return mcp.NewTool("layout_network",
		mcp.WithDescription("Automatically arrange the children of a network node."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Network whose children get laid out, e.g. '/obj/geo1'"),
		),
	)
}

// Handle processes the layout_network tool call.
func (t *LayoutNetworkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "layout_network", map[string]any{"path": path})
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Laid out network %s", resultField(raw, "path"),
	)), nil
}

// CreateSubnetTool handles the create_subnet MCP tool.
type CreateSubnetTool struct {
	client bridge.Commander
}

// NewCreateSubnetTool creates a CreateSubnetTool backed by the given client.
func NewCreateSubnetTool(client bridge.Commander) *CreateSubnetTool {
	return &CreateSubnetTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateSubnetTool) Definition() mcp.Tool {
	return mcp.NewTool("create_subnet",
		mcp.WithDescription("Create a subnet (or another container type) to group nodes."),
		mcp.WithString("parent_path",
			mcp.Required(),
			mcp.Description("Network to create the subnet in"),
		),
		mcp.WithString("name",
			mcp.Description("Optional subnet name"),
		),
		mcp.WithString("node_type",
			mcp.Description("Container type (default 'subnet')"),
		),
		mcp.WithArray("position",
			mcp.Description("Optional [x, y] network editor position"),
		),
	)
}

// Handle processes the create_subnet tool call.
func (t *CreateSubnetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.CreateSubnetParams{
		ParentPath: req.GetString("parent_path", ""),
		Name:       req.GetString("name", ""),
		NodeType:   req.GetString("node_type", ""),
		Position:   floatsArg(req, "position"),
	}
	if p.ParentPath == "" {
		return mcp.NewToolResultError("'parent_path' is required"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "create_subnet", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Created subnet %q at %s", resultField(raw, "name"), resultField(raw, "path"),
	)), nil
}
