// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the concrete bridge client
// and injects it into the tools, prompts and resources that depend on
// abstractions. No business logic lives here, only wiring.
package server

import (
	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/HendryAvila/houdini-mcp/internal/config"
	"github.com/HendryAvila/houdini-mcp/internal/instances"
	"github.com/HendryAvila/houdini-mcp/internal/prompts"
	"github.com/HendryAvila/houdini-mcp/internal/resources"
	"github.com/HendryAvila/houdini-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the connection to Houdini and
// must be called on shutdown (typically via defer).
func New(cfg config.Config) (*server.MCPServer, func()) {
	// --- Create shared dependencies ---

	store := instances.NewFileStore(cfg.InstanceDir)
	discovery := instances.NewDiscovery(store, nil)
	client := bridge.New(discovery, cfg.RequestTimeout)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"houdini-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register scene inspection tools ---

	sceneInfoTool := tools.NewSceneInfoTool(client)
	s.AddTool(sceneInfoTool.Definition(), sceneInfoTool.Handle)

	nodeInfoTool := tools.NewNodeInfoTool(client)
	s.AddTool(nodeInfoTool.Definition(), nodeInfoTool.Handle)

	parameterInfoTool := tools.NewParameterInfoTool(client)
	s.AddTool(parameterInfoTool.Definition(), parameterInfoTool.Handle)

	// --- Register node editing tools ---

	createNodeTool := tools.NewCreateNodeTool(client)
	s.AddTool(createNodeTool.Definition(), createNodeTool.Handle)

	modifyNodeTool := tools.NewModifyNodeTool(client)
	s.AddTool(modifyNodeTool.Definition(), modifyNodeTool.Handle)

	deleteNodeTool := tools.NewDeleteNodeTool(client)
	s.AddTool(deleteNodeTool.Definition(), deleteNodeTool.Handle)

	setParameterTool := tools.NewSetParameterTool(client)
	s.AddTool(setParameterTool.Definition(), setParameterTool.Handle)

	connectNodesTool := tools.NewConnectNodesTool(client)
	s.AddTool(connectNodesTool.Definition(), connectNodesTool.Handle)

	layoutNetworkTool := tools.NewLayoutNetworkTool(client)
	s.AddTool(layoutNetworkTool.Definition(), layoutNetworkTool.Handle)

	createSubnetTool := tools.NewCreateSubnetTool(client)
	s.AddTool(createSubnetTool.Definition(), createSubnetTool.Handle)

	createGeometryTool := tools.NewCreateGeometryTool(client)
	s.AddTool(createGeometryTool.Definition(), createGeometryTool.Handle)

	createDigitalAssetTool := tools.NewCreateDigitalAssetTool(client)
	s.AddTool(createDigitalAssetTool.Definition(), createDigitalAssetTool.Handle)

	setMaterialTool := tools.NewSetMaterialTool(client)
	s.AddTool(setMaterialTool.Definition(), setMaterialTool.Handle)

	// --- Register scene setup tools ---

	createCameraTool := tools.NewCreateCameraTool(client)
	s.AddTool(createCameraTool.Definition(), createCameraTool.Handle)

	createLightTool := tools.NewCreateLightTool(client)
	s.AddTool(createLightTool.Definition(), createLightTool.Handle)

	// --- Register simulation tools ---

	createSimTool := tools.NewCreateSimTool(client)
	s.AddTool(createSimTool.Definition(), createSimTool.Handle)

	runSimulationTool := tools.NewRunSimulationTool(client)
	s.AddTool(runSimulationTool.Definition(), runSimulationTool.Handle)

	// --- Register render and export tools ---

	renderSceneTool := tools.NewRenderSceneTool(client)
	s.AddTool(renderSceneTool.Definition(), renderSceneTool.Handle)

	renderCOPTool := tools.NewRenderCOPTool(client)
	s.AddTool(renderCOPTool.Definition(), renderCOPTool.Handle)

	screenshotTool := tools.NewScreenshotViewportTool(client)
	s.AddTool(screenshotTool.Definition(), screenshotTool.Handle)

	for _, format := range []string{"fbx", "abc", "usd"} {
		exportTool := tools.NewExportTool(client, format)
		s.AddTool(exportTool.Definition(), exportTool.Handle)
	}

	// --- Register scene file and code tools ---

	saveHipTool := tools.NewSaveHipTool(client)
	s.AddTool(saveHipTool.Definition(), saveHipTool.Handle)

	loadHipTool := tools.NewLoadHipTool(client)
	s.AddTool(loadHipTool.Definition(), loadHipTool.Handle)

	executeCodeTool := tools.NewExecuteCodeTool(client)
	s.AddTool(executeCodeTool.Definition(), executeCodeTool.Handle)

	// --- Register instance management tools ---

	listInstancesTool := tools.NewListInstancesTool(client)
	s.AddTool(listInstancesTool.Definition(), listInstancesTool.Handle)

	connectTool := tools.NewConnectTool(client)
	s.AddTool(connectTool.Definition(), connectTool.Handle)

	// --- Register prompts ---

	modelingPrompt := prompts.NewModelingStrategyPrompt()
	s.AddPrompt(modelingPrompt.Definition(), modelingPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(client)
	s.AddResource(resourceHandler.InstancesResource(), resourceHandler.HandleInstances)

	cleanup := func() { client.Close() }
	return s, cleanup
}

// serverInstructions returns the system instructions that tell the AI
// host how to use this server.
func serverInstructions() string {
	return `This server controls SideFX Houdini through a live session plugin.

Houdini is node-based and procedural: scenes are networks of nodes
(/obj for objects, /mat for materials, /out for render drivers). Build
content by creating and wiring nodes, not by editing geometry directly.

Start with get_scene_info to see what is open. Use create_geometry for
primitive shapes, create_node plus connect_nodes for everything else,
and set_parameter to configure nodes. The modeling-strategy prompt
describes the full recommended workflow.

Several Houdini sessions can run at once. Commands go to the most
recently started instance by default; use list_houdini_instances and
connect_to_houdini to target a specific one. If a command fails with
"No running Houdini instance", ask the user to start Houdini with the
HoudiniMCP plugin enabled.

execute_houdini_code runs arbitrary Python in the session. Prefer the
dedicated tools; use code only for things they cannot express.`
}
