package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/HendryAvila/houdini-mcp/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateCameraTool handles the create_camera MCP tool.
type CreateCameraTool struct {
	client bridge.Commander
}

// NewCreateCameraTool creates a CreateCameraTool backed by the given client.
func NewCreateCameraTool(client bridge.Commander) *CreateCameraTool {
	return &CreateCameraTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateCameraTool) Definition() mcp.Tool {
	return mcp.NewTool("create_camera",
		mcp.WithDescription("Create a camera, optionally positioned and aimed at a target point."),
		mcp.WithString("parent_path",
			mcp.Description("Network to create the camera in (default '/obj')"),
		),
		mcp.WithString("name",
			mcp.Description("Optional camera name"),
		),
		mcp.WithArray("position",
			mcp.Description("Optional [x, y, z] world position"),
		),
		mcp.WithArray("look_at",
			mcp.Description("Optional [x, y, z] point to aim the camera at"),
		),
	)
}

// Handle processes the create_camera tool call.
func (t *CreateCameraTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.CreateCameraParams{
		ParentPath: req.GetString("parent_path", "/obj"),
		Name:       req.GetString("name", ""),
		Position:   floatsArg(req, "position"),
		LookAt:     floatsArg(req, "look_at"),
	}

	raw, errRes := sendCommand(ctx, t.client, "create_camera", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Created camera %q at %s", resultField(raw, "name"), resultField(raw, "path"),
	)), nil
}

// CreateLightTool handles the create_light MCP tool.
type CreateLightTool struct {
	client bridge.Commander
}

// NewCreateLightTool creates a CreateLightTool backed by the given client.
func NewCreateLightTool(client bridge.Commander) *CreateLightTool {
	return &CreateLightTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateLightTool) Definition() mcp.Tool {
	return mcp.NewTool("create_light",
		mcp.WithDescription("Create a light of the given type."),
		mcp.WithString("light_type",
			mcp.Required(),
			mcp.Description("Light type: point, spot, directional, area, environment — or a raw Houdini node type"),
		),
		mcp.WithString("parent_path",
			mcp.Description("Network to create the light in (default '/obj')"),
		),
		mcp.WithString("name",
			mcp.Description("Optional light name"),
		),
		mcp.WithArray("position",
			mcp.Description("Optional [x, y, z] world position"),
		),
		mcp.WithObject("parameters",
			mcp.Description("Optional light parameter values, e.g. {\"light_intensity\": 2}"),
		),
	)
}

// Handle processes the create_light tool call.
func (t *CreateLightTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.CreateLightParams{
		LightType:  req.GetString("light_type", ""),
		ParentPath: req.GetString("parent_path", "/obj"),
		Name:       req.GetString("name", ""),
		Position:   floatsArg(req, "position"),
		Parameters: mapArg(req, "parameters"),
	}
	if p.LightType == "" {
		return mcp.NewToolResultError("'light_type' is required, e.g. 'point' or 'environment'"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "create_light", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Created %s light %q at %s",
		resultField(raw, "light_type"), resultField(raw, "name"), resultField(raw, "path"),
	)), nil
}
