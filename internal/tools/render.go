package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/HendryAvila/houdini-mcp/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
)

// RenderSceneTool handles the render_scene MCP tool.
type RenderSceneTool struct {
	client bridge.Commander
}

// NewRenderSceneTool creates a RenderSceneTool backed by the given client.
func NewRenderSceneTool(client bridge.Commander) *RenderSceneTool {
	return &RenderSceneTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *RenderSceneTool) Definition() mcp.Tool {
	return mcp.NewTool("render_scene",
		mcp.WithDescription("Render the current frame through a ROP of the chosen renderer."),
		mcp.WithString("renderer",
			mcp.Description("Renderer: mantra, karma, arnold, redshift, renderman (default mantra)"),
			mcp.Enum("mantra", "karma", "arnold", "redshift", "renderman"),
		),
		mcp.WithString("output_path",
			mcp.Description("Optional image output path (.exr/.png/.jpg/.tif)"),
		),
		mcp.WithArray("resolution",
			mcp.Description("Optional [width, height] override"),
		),
		mcp.WithString("camera_path",
			mcp.Description("Optional camera to render through"),
		),
	)
}

// Handle processes the render_scene tool call.
func (t *RenderSceneTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.RenderSceneParams{
		Renderer:   req.GetString("renderer", "mantra"),
		OutputPath: req.GetString("output_path", ""),
		Resolution: intsArg(req, "resolution"),
		CameraPath: req.GetString("camera_path", ""),
	}

	raw, errRes := sendCommand(ctx, t.client, "render_scene", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Rendered with %s to %s", p.Renderer, resultField(raw, "file_path"),
	)), nil
}

// RenderCOPTool handles the render_cop MCP tool.
type RenderCOPTool struct {
	client bridge.Commander
}

// NewRenderCOPTool creates a RenderCOPTool backed by the given client.
func NewRenderCOPTool(client bridge.Commander) *RenderCOPTool {
	return &RenderCOPTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *RenderCOPTool) Definition() mcp.Tool {
	return mcp.NewTool("render_cop",
		mcp.WithDescription("Render a COP (compositing) node to an image file."),
		mcp.WithString("node_path",
			mcp.Required(),
			mcp.Description("Path of the COP node to render"),
		),
		mcp.WithString("output_path",
			mcp.Description("Optional image output path (defaults next to the hip file)"),
		),
		mcp.WithNumber("frame",
			mcp.Description("Optional frame to render (defaults to the current frame)"),
		),
	)
}

// Handle processes the render_cop tool call.
func (t *RenderCOPTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.RenderCOPParams{
		NodePath:   req.GetString("node_path", ""),
		OutputPath: req.GetString("output_path", ""),
	}
	if p.NodePath == "" {
		return mcp.NewToolResultError("'node_path' is required"), nil
	}
	if _, ok := req.GetArguments()["frame"]; ok {
		frame := intArg(req, "frame", 0)
		p.Frame = &frame
	}

	raw, errRes := sendCommand(ctx, t.client, "render_cop", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Rendered COP %s to %s (frame %s)",
		p.NodePath, resultField(raw, "file_path"), resultField(raw, "frame"),
	)), nil
}

// ScreenshotViewportTool handles the screenshot_viewport MCP tool.
type ScreenshotViewportTool struct {
	client bridge.Commander
}

// NewScreenshotViewportTool creates a ScreenshotViewportTool backed by the given client.
func NewScreenshotViewportTool(client bridge.Commander) *ScreenshotViewportTool {
	return &ScreenshotViewportTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *ScreenshotViewportTool) Definition() mcp.Tool {
	return mcp.NewTool("screenshot_viewport",
		mcp.WithDescription("Capture the current scene viewport to an image file."),
		mcp.WithString("output_path",
			mcp.Description("Optional image output path (defaults next to the hip file)"),
		),
	)
}

// Handle processes the screenshot_viewport tool call.
func (t *ScreenshotViewportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{}
	if out := req.GetString("output_path", ""); out != "" {
		params["output_path"] = out
	}

	raw, errRes := sendCommand(ctx, t.client, "screenshot_viewport", params)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Viewport captured to %s", resultField(raw, "file_path"),
	)), nil
}
