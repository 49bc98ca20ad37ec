package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/HendryAvila/houdini-mcp/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateDigitalAssetTool handles the create_digital_asset MCP tool.
type CreateDigitalAssetTool struct {
	client bridge.Commander
}

// NewCreateDigitalAssetTool creates a CreateDigitalAssetTool backed by the given client.
func NewCreateDigitalAssetTool(client bridge.Commander) *CreateDigitalAssetTool {
	return &CreateDigitalAssetTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateDigitalAssetTool) Definition() mcp.Tool {
	return mcp.NewTool("create_digital_asset",
		mcp.WithDescription("Collapse a node into a reusable digital asset (HDA)."),
		mcp.WithString("node_path",
			mcp.Required(),
			mcp.Description("Node to turn into the asset"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Internal asset name, e.g. 'rock_generator'"),
		),
		mcp.WithString("label",
			mcp.Description("Optional human-readable label (derived from the name when omitted)"),
		),
		mcp.WithString("save_path",
			mcp.Description("Optional .hda file path (defaults to the temp directory)"),
		),
	)
}

// Handle processes the create_digital_asset tool call.
func (t *CreateDigitalAssetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.CreateDigitalAssetParams{
		NodePath: req.GetString("node_path", ""),
		Name:     req.GetString("name", ""),
		Label:    req.GetString("label", ""),
		SavePath: req.GetString("save_path", ""),
	}
	if p.NodePath == "" || strings.TrimSpace(p.Name) == "" {
		return mcp.NewToolResultError("'node_path' and 'name' are required"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "create_digital_asset", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Created digital asset %q at %s (saved to %s)",
		p.Name, resultField(raw, "path"), resultField(raw, "hda_file"),
	)), nil
}

// SetMaterialTool handles the set_material MCP tool.
type SetMaterialTool struct {
	client bridge.Commander
}

// NewSetMaterialTool creates a SetMaterialTool backed by the given client.
func NewSetMaterialTool(client bridge.Commander) *SetMaterialTool {
	return &SetMaterialTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *SetMaterialTool) Definition() mcp.Tool {
	return mcp.NewTool("set_material",
		mcp.WithDescription(
			"Create (or reuse) a material in /mat and assign it to a node. "+
				"Materials with the same name are shared between nodes.",
		),
		mcp.WithString("node_path",
			mcp.Required(),
			mcp.Description("Node to assign the material to"),
		),
		mcp.WithString("material_type",
			mcp.Required(),
			mcp.Description("Material node type, e.g. 'principledshader'"),
		),
		mcp.WithString("material_name",
			mcp.Description("Optional material name (default '<node>_material')"),
		),
		mcp.WithObject("parameters",
			mcp.Description("Optional material parameter values, e.g. {\"basecolorr\": 0.8}"),
		),
	)
}

// Handle processes the set_material tool call.
func (t *SetMaterialTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.SetMaterialParams{
		NodePath:     req.GetString("node_path", ""),
		MaterialType: req.GetString("material_type", ""),
		MaterialName: req.GetString("material_name", ""),
		Parameters:   mapArg(req, "parameters"),
	}
	if p.NodePath == "" || p.MaterialType == "" {
		return mcp.NewToolResultError("'node_path' and 'material_type' are required"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "set_material", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Assigned material %q (%s) to %s",
		resultField(raw, "material_name"), resultField(raw, "material"), p.NodePath,
	)), nil
}
