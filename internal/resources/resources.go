// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data the host can pull in for context,
// addressed by URI (houdini://...).
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/houdini-mcp/internal/instances"
	"github.com/mark3labs/mcp-go/mcp"
)

// Lister enumerates the running Houdini instances.
type Lister interface {
	Instances() ([]instances.Record, error)
}

// Handler manages the Houdini resource endpoints.
type Handler struct {
	lister Lister
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(lister Lister) *Handler {
	return &Handler{lister: lister}
}

// InstancesResource returns the MCP resource definition for the
// instance list.
func (h *Handler) InstancesResource() mcp.Resource {
	return mcp.NewResource(
		"houdini://instances",
		"Running Houdini Instances",
		mcp.WithResourceDescription("Live Houdini sessions reachable by this server, newest first"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleInstances returns the discovered instance records as JSON.
func (h *Handler) HandleInstances(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	recs, err := h.lister.Instances()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if recs == nil {
		recs = []instances.Record{}
	}

	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling instances: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource carrying an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
