package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/HendryAvila/houdini-mcp/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
)

// ExportTool handles the export_fbx, export_abc and export_usd MCP
// tools. The three commands share the same parameters, so one struct
// covers them, parameterized by format.
type ExportTool struct {
	client bridge.Commander
	format string // "fbx", "abc" or "usd"
}

// NewExportTool creates an ExportTool for one of the formats fbx, abc
// or usd.
func NewExportTool(client bridge.Commander, format string) *ExportTool {
	return &ExportTool{client: client, format: strings.ToLower(format)}
}

var exportFormatNames = map[string]string{
	"fbx": "FBX",
	"abc": "Alembic",
	"usd": "USD",
}

// Definition returns the MCP tool definition for registration.
func (t *ExportTool) Definition() mcp.Tool {
	label := exportFormatNames[t.format]
	return mcp.NewTool("export_"+t.format,
		mcp.WithDescription(fmt.Sprintf(
			"Export a node to %s, as a single frame or over the playbar range.", label,
		)),
		mcp.WithString("node_path",
			mcp.Required(),
			mcp.Description("Node to export"),
		),
		mcp.WithString("file_path",
			mcp.Description(fmt.Sprintf("Optional .%s output path (defaults to the temp directory)", t.format)),
		),
		mcp.WithBoolean("animation",
			mcp.Description("Export the full frame range instead of the current frame (default false)"),
		),
	)
}

// Handle processes the export tool call.
func (t *ExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.ExportParams{
		NodePath:  req.GetString("node_path", ""),
		FilePath:  req.GetString("file_path", ""),
		Animation: boolArg(req, "animation", false),
	}
	if p.NodePath == "" {
		return mcp.NewToolResultError("'node_path' is required"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "export_"+t.format, p)
	if errRes != nil {
		return errRes, nil
	}

	what := "current frame"
	if p.Animation {
		what = "animation"
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Exported %s of %s to %s", what, p.NodePath, resultField(raw, "file_path"),
	)), nil
}
