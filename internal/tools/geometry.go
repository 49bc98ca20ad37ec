package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/HendryAvila/houdini-mcp/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateGeometryTool handles the create_geometry MCP tool.
type CreateGeometryTool struct {
	client bridge.Commander
}

// NewCreateGeometryTool creates a CreateGeometryTool backed by the given client.
func NewCreateGeometryTool(client bridge.Commander) *CreateGeometryTool {
	return &CreateGeometryTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateGeometryTool) Definition() mcp.Tool {
	return mcp.NewTool("create_geometry",
		mcp.WithDescription(
			"Create primitive geometry. When the parent is an object network this "+
				"builds a geo container with the primitive SOP inside; inside an "+
				"existing container it adds the SOP directly.",
		),
		mcp.WithString("geo_type",
			mcp.Required(),
			mcp.Description("Primitive type: box, sphere, grid, torus, tube, cylinder, circle, curve, line, platonic"),
		),
		mcp.WithString("parent_path",
			mcp.Description("Where to create it (default '/obj')"),
		),
		mcp.WithString("name",
			mcp.Description("Optional name for the geometry"),
		),
		mcp.WithArray("position",
			mcp.Description("Optional [x, y] network editor position"),
		),
		mcp.WithObject("parameters",
			mcp.Description("Optional parameter values to set on the new SOP, e.g. {\"radx\": 2}"),
		),
	)
}

// Handle processes the create_geometry tool call.
func (t *CreateGeometryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.CreateGeometryParams{
		GeoType:    req.GetString("geo_type", ""),
		ParentPath: req.GetString("parent_path", "/obj"),
		Name:       req.GetString("name", ""),
		Position:   floatsArg(req, "position"),
		Parameters: mapArg(req, "parameters"),
	}
	if p.GeoType == "" {
		return mcp.NewToolResultError("'geo_type' is required, e.g. 'box' or 'sphere'"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "create_geometry", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Created %s geometry %q at %s (inside %s)",
		p.GeoType, resultField(raw, "name"), resultField(raw, "path"), resultField(raw, "parent"),
	)), nil
}
