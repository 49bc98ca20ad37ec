package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/houdini-mcp/internal/bridge"
	"github.com/mark3labs/mcp-go/mcp"
)

// ExecuteCodeTool handles the execute_houdini_code MCP tool.
type ExecuteCodeTool struct {
	client bridge.Commander
}

// NewExecuteCodeTool creates an ExecuteCodeTool backed by the given client.
func NewExecuteCodeTool(client bridge.Commander) *ExecuteCodeTool {
	return &ExecuteCodeTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *ExecuteCodeTool) Definition() mcp.Tool {
	return mcp.NewTool("execute_houdini_code",
		mcp.WithDescription(
			"Run arbitrary Python code inside the Houdini session, with the hou "+
				"module available. Use for anything the dedicated tools do not cover. "+
				"Assign to a variable named 'result' to get a value back.",
		),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Python source to execute"),
		),
	)
}

// Handle processes the execute_houdini_code tool call.
func (t *ExecuteCodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := req.GetString("code", "")
	if strings.TrimSpace(code) == "" {
		return mcp.NewToolResultError("'code' is required"), nil
	}

	raw, errRes := sendCommand(ctx, t.client, "execute_code", map[string]any{"code": code})
	if errRes != nil {
		return errRes, nil
	}

	var parts []string
	if out := resultField(raw, "output"); out != "" {
		parts = append(parts, "Output:\n"+out)
	}
	if res := resultField(raw, "result"); res != "" {
		parts = append(parts, "Result: "+res)
	}
	if len(parts) == 0 {
		parts = append(parts, "Code executed successfully.")
	}
	return mcp.NewToolResultText(strings.Join(parts, "\n\n")), nil
}
