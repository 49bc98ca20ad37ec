// Package prompts implements the MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI how to approach a task. Unlike tools (which the AI
// calls), prompts are initiated by the user.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ModelingStrategyPrompt handles the modeling-strategy MCP prompt.
// It teaches the AI the preferred procedural workflow for building
// content in Houdini with the available tools.
type ModelingStrategyPrompt struct{}

// NewModelingStrategyPrompt creates a ModelingStrategyPrompt.
func NewModelingStrategyPrompt() *ModelingStrategyPrompt {
	return &ModelingStrategyPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ModelingStrategyPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("modeling-strategy",
		mcp.WithPromptDescription(
			"The preferred strategy for creating 3D content in Houdini: "+
				"procedural node networks, materials, lighting, simulation, "+
				"rendering and export.",
		),
	)
}

// Handle processes the modeling-strategy prompt request.
func (p *ModelingStrategyPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Houdini modeling strategy",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(modelingStrategy),
			},
		},
	}, nil
}

const modelingStrategy = `When creating 3D content in Houdini, follow these guidelines:

1. First use get_scene_info() to understand the current scene structure

2. For basic modeling:
   - Use create_geometry() with an appropriate geo_type for primitive shapes
   - For complex models, build node networks by connecting multiple nodes
   - Use create_subnet() to organize nodes into containers
   - Use layout_network() to auto-arrange nodes neatly
   - Remember Houdini is procedural: focus on building node chains rather than direct modeling

3. For materials:
   - Use set_material() with an appropriate material_type
   - Common material types: principledshader, phong, constant

4. For scene setup:
   - Create lights using create_light() with appropriate light types
   - Set up cameras with create_camera()
   - Position elements using modify_node() or set_parameter()
   - Use get_parameter_info() to inspect parameter details on any node

5. For simulations:
   - Create simulation networks with create_simulation()
   - Configure them using set_parameter()
   - Run them with run_simulation()

6. For rendering:
   - Use render_scene() to create final images
   - Use render_cop() to render COP/compositing node output to image files
   - Typically use Mantra (the default) or Karma renderers

7. For data export:
   - Use export_fbx() for FBX exchange with other 3D applications
   - Use export_abc() for Alembic format export
   - Use export_usd() for USD format export

8. For scene management:
   - Use save_hip() to save the current scene
   - Use load_hip() to load a scene file
   - Use create_digital_asset() to package nodes into reusable HDAs

9. For multi-instance workflows:
   - Use list_houdini_instances() to see all running Houdini sessions
   - Use connect_to_houdini(port=XXXX) to switch between instances
   - The server auto-discovers instances and connects to the most recent

Remember that Houdini is node-based and procedural, so focus on building networks rather than direct manipulation of geometry.`
