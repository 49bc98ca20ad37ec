package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/HendryAvila/houdini-mcp/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateSimTool handles the create_simulation MCP tool.
type CreateSimTool struct {
	client bridge.Commander
}

// NewCreateSimTool creates a CreateSimTool backed by the given client.
func NewCreateSimTool(client bridge.Commander) *CreateSimTool {
	return &CreateSimTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateSimTool) Definition() mcp.Tool {
	return mcp.NewTool("create_simulation",
		mcp.WithDescription(
			"Create a simulation network: pyro, fluid, flip, cloth, rigid, wire, "+
				"grains, particles or crowd.",
		),
		mcp.WithString("sim_type",
			mcp.Required(),
			mcp.Description("Simulation type; unrecognized types get a plain DOP network"),
		),
		mcp.WithString("parent_path",
			mcp.Description("Network to create the simulation in (default '/obj')"),
		),
		mcp.WithString("name",
			mcp.Description("Optional name (default '<sim_type>_sim')"),
		),
		mcp.WithArray("position",
			mcp.Description("Optional [x, y] network editor position"),
		),
	)
}

// Handle processes the create_simulation tool call.
func (t *CreateSimTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.CreateSimParams{
		SimType:    req.GetString("sim_type", ""),
		ParentPath: req.GetString("parent_path", "/obj"),
		Name:       req.GetString("name", ""),
		Position:   floatsArg(req, "position"),
	}
	if p.SimType == "" {
		return mcp.NewToolResultError("'sim_type' is required, e.g. 'pyro' or 'flip'"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "create_sim", p)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Created %s simulation %q at %s",
		resultField(raw, "sim_type"), resultField(raw, "name"), resultField(raw, "path"),
	)), nil
}

// RunSimulationTool handles the run_simulation MCP tool.
type RunSimulationTool struct {
	client bridge.Commander
}

// NewRunSimulationTool creates a RunSimulationTool backed by the given client.
func NewRunSimulationTool(client bridge.Commander) *RunSimulationTool {
	return &RunSimulationTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *RunSimulationTool) Definition() mcp.Tool {
	return mcp.NewTool("run_simulation",
		mcp.WithDescription(
			"Cook a simulation network over a frame range. This can take a while "+
				"for heavy setups.",
		),
		mcp.WithString("node_path",
			mcp.Required(),
			mcp.Description("Path of the DOP/POP/crowd network to cook"),
		),
		mcp.WithNumber("start_frame",
			mcp.Description("First frame to simulate (default 1)"),
		),
		mcp.WithNumber("end_frame",
			mcp.Description("Last frame to simulate (default 10)"),
		),
		mcp.WithBoolean("save_to_disk",
			mcp.Description("Cache the simulation to disk (default false)"),
		),
	)
}

// Handle processes the run_simulation tool call.
func (t *RunSimulationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := catalog.RunSimulationParams{
		NodePath:   req.GetString("node_path", ""),
		StartFrame: intArg(req, "start_frame", 1),
		EndFrame:   intArg(req, "end_frame", 10),
		SaveToDisk: boolArg(req, "save_to_disk", false),
	}
	if p.NodePath == "" {
		return mcp.NewToolResultError("'node_path' is required"), nil
	}
	if p.EndFrame < p.StartFrame {
		return mcp.NewToolResultError("'end_frame' must not be before 'start_frame'"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "run_simulation", p)
	if errRes != nil {
		return errRes, nil
	}

	msg := fmt.Sprintf("Simulated %s frames (%d-%d) on %s",
		resultField(raw, "frames_simulated"), p.StartFrame, p.EndFrame, p.NodePath)
	if cache := resultField(raw, "cache_path"); cache != "" {
		msg += fmt.Sprintf(", cached to %s", cache)
	}
	return mcp.NewToolResultText(msg), nil
}
