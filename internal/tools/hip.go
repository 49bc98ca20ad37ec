package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/mark3labs/mcp-go/mcp"
)

// SaveHipTool handles the save_hip MCP tool.
type SaveHipTool struct {
	client bridge.Commander
}

// NewSaveHipTool creates a SaveHipTool backed by the given client.
func NewSaveHipTool(client bridge.Commander) *SaveHipTool {
	return &SaveHipTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *SaveHipTool) Definition() mcp.Tool {
	return mcp.NewTool("save_hip",
		mcp.WithDescription(
			"Save the current Houdini scene. Without a path it saves in place; "+
				"an untitled scene goes to the temp directory.",
		),
		mcp.WithString("file_path",
			mcp.Description("Optional .hip path to save to"),
		),
	)
}

// Handle processes the save_hip tool call.
func (t *SaveHipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{}
	if fp := req.GetString("file_path", ""); fp != "" {
		params["file_path"] = fp
	}

	raw, errRes := sendCommand(ctx, t.client, "save_hip", params)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Saved scene to %s", resultField(raw, "file_path"),
	)), nil
}

// LoadHipTool handles the load_hip MCP tool.
type LoadHipTool struct {
	client bridge.Commander
}

// NewLoadHipTool creates a LoadHipTool backed by the given client.
func NewLoadHipTool(client bridge.Commander) *LoadHipTool {
	return &LoadHipTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *LoadHipTool) Definition() mcp.Tool {
	return mcp.NewTool("load_hip",
		mcp.WithDescription(
			"Load a Houdini scene file. Unsaved changes in the current scene are "+
				"backed up to the temp directory first.",
		),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path of the .hip file to load"),
		),
	)
}

// Handle processes the load_hip tool call.
func (t *LoadHipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath := req.GetString("file_path", "")
	if strings.TrimSpace(filePath) == "" {
		return mcp.NewToolResultError("'file_path' is required"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "load_hip", map[string]any{"file_path": filePath})
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Loaded scene %s", resultField(raw, "name"),
	)), nil
}
