// Package catalog binds the full set of Houdini command names to a
// Host implementation. It is the seam between the protocol core and
// the host application: the dispatcher sees opaque names and raw JSON
// params, the Host sees typed values, and this package does the
// decoding in between.
//
// Param field names match the JSON the MCP-side tools send, which in
// turn matches what the Python addon accepted — the two implementations
// stay wire compatible.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/houdini-mcp/internal/dispatch"
)

// Host is the host application binding. Each method executes one
// command against the live document and returns a JSON-encodable
// result. Implementations are not required to be safe for concurrent
// calls; the dispatcher serializes.
type Host interface {
	SceneInfo() (any, error)
	NodeInfo(path string) (any, error)
	ParameterInfo(nodePath, parameterName string) (any, error)

	CreateNode(p CreateNodeParams) (any, error)
	ModifyNode(p ModifyNodeParams) (any, error)
	DeleteNode(path string) (any, error)
	SetParameter(p SetParameterParams) (any, error)
	ConnectNodes(p ConnectNodesParams) (any, error)
	LayoutNetwork(path string) (any, error)
	CreateSubnet(p CreateSubnetParams) (any, error)
	CreateGeometry(p CreateGeometryParams) (any, error)
	CreateDigitalAsset(p CreateDigitalAssetParams) (any, error)
	SetMaterial(p SetMaterialParams) (any, error)

	CreateCamera(p CreateCameraParams) (any, error)
	CreateLight(p CreateLightParams) (any, error)
	CreateSim(p CreateSimParams) (any, error)
	RunSimulation(p RunSimulationParams) (any, error)

	RenderScene(p RenderSceneParams) (any, error)
	RenderCOP(p RenderCOPParams) (any, error)
	ScreenshotViewport(outputPath string) (any, error)

	ExportFBX(p ExportParams) (any, error)
	ExportABC(p ExportParams) (any, error)
	ExportUSD(p ExportParams) (any, error)

	SaveHip(filePath string) (any, error)
	LoadHip(filePath string) (any, error)

	ExecuteCode(code string) (any, error)
}

// --- Param payloads -------------------------------------------------

type CreateNodeParams struct {
	NodeType   string    `json:"node_type"`
	ParentPath string    `json:"parent_path"`
	NodeName   string    `json:"node_name,omitempty"`
	Position   []float64 `json:"position,omitempty"`
}

type ModifyNodeParams struct {
	Path     string    `json:"path"`
	Position []float64 `json:"position,omitempty"`
	Color    []float64 `json:"color,omitempty"`
	Name     string    `json:"name,omitempty"`
	Bypass   *bool     `json:"bypass,omitempty"`
	Display  *bool     `json:"display,omitempty"`
}

type SetParameterParams struct {
	NodePath      string `json:"node_path"`
	ParameterName string `json:"parameter_name"`
	Value         any    `json:"value"`
}

type ConnectNodesParams struct {
	FromPath   string `json:"from_path"`
	ToPath     string `json:"to_path"`
	FromOutput int    `json:"from_output"`
	ToInput    int    `json:"to_input"`
}

type CreateSubnetParams struct {
	ParentPath string    `json:"parent_path"`
	NodeType   string    `json:"node_type,omitempty"` // default "subnet"
	Name       string    `json:"name,omitempty"`
	Position   []float64 `json:"position,omitempty"`
}

type CreateGeometryParams struct {
	GeoType    string         `json:"geo_type"`
	ParentPath string         `json:"parent_path"`
	Name       string         `json:"name,omitempty"`
	Position   []float64      `json:"position,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type CreateDigitalAssetParams struct {
	NodePath string `json:"node_path"`
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	SavePath string `json:"save_path,omitempty"`
}

type SetMaterialParams struct {
	NodePath     string         `json:"node_path"`
	MaterialType string         `json:"material_type"`
	MaterialName string         `json:"material_name,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

type CreateCameraParams struct {
	ParentPath string    `json:"parent_path"`
	Name       string    `json:"name,omitempty"`
	Position   []float64 `json:"position,omitempty"`
	LookAt     []float64 `json:"look_at,omitempty"`
}

type CreateLightParams struct {
	LightType  string         `json:"light_type"`
	ParentPath string         `json:"parent_path"`
	Name       string         `json:"name,omitempty"`
	Position   []float64      `json:"position,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type CreateSimParams struct {
	SimType    string    `json:"sim_type"`
	ParentPath string    `json:"parent_path"`
	Name       string    `json:"name,omitempty"`
	Position   []float64 `json:"position,omitempty"`
}

type RunSimulationParams struct {
	NodePath   string `json:"node_path"`
	StartFrame int    `json:"start_frame"`
	EndFrame   int    `json:"end_frame"`
	SaveToDisk bool   `json:"save_to_disk"`
}

type RenderSceneParams struct {
	Renderer   string `json:"renderer"`
	OutputPath string `json:"output_path,omitempty"`
	Resolution []int  `json:"resolution,omitempty"`
	CameraPath string `json:"camera_path,omitempty"`
}

type RenderCOPParams struct {
	NodePath   string `json:"node_path"`
	OutputPath string `json:"output_path,omitempty"`
	Frame      *int   `json:"frame,omitempty"`
}

type ExportParams struct {
	NodePath  string `json:"node_path"`
	FilePath  string `json:"file_path,omitempty"`
	Animation bool   `json:"animation"`
}

// --- Registration ----------------------------------------------------

// Register wires every command name onto d, backed by h.
func Register(d *dispatch.Dispatcher, h Host) {
	d.Register("get_scene_info", noParams(h.SceneInfo))

	d.Register("get_node_info", func(_ context.Context, raw json.RawMessage) (any, error) {
		var p struct {
			Path string `json:"path"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return h.NodeInfo(p.Path)
	})

	d.Register("get_parameter_info", func(_ context.Context, raw json.RawMessage) (any, error) {
		var p struct {
			NodePath      string `json:"node_path"`
			ParameterName string `json:"parameter_name"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return h.ParameterInfo(p.NodePath, p.ParameterName)
	})

	d.Register("create_node", typed(h.CreateNode))
	d.Register("modify_node", typed(h.ModifyNode))

	d.Register("delete_node", func(_ context.Context, raw json.RawMessage) (any, error) {
		var p struct {
			Path string `json:"path"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return h.DeleteNode(p.Path)
	})

	d.Register("set_parameter", typed(h.SetParameter))
	d.Register("connect_nodes", typed(h.ConnectNodes))

	d.Register("layout_network", func(_ context.Context, raw json.RawMessage) (any, error) {
		var p struct {
			Path string `json:"path"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return h.LayoutNetwork(p.Path)
	})

	d.Register("create_subnet", typed(h.CreateSubnet))
	d.Register("create_geometry", typed(h.CreateGeometry))
	d.Register("create_digital_asset", typed(h.CreateDigitalAsset))
	d.Register("set_material", typed(h.SetMaterial))

	d.Register("create_camera", typed(h.CreateCamera))
	d.Register("create_light", typed(h.CreateLight))
	d.Register("create_sim", typed(h.CreateSim))
	d.Register("run_simulation", typed(h.RunSimulation))

	d.Register("render_scene", typed(h.RenderScene))
	d.Register("render_cop", typed(h.RenderCOP))

	d.Register("screenshot_viewport", func(_ context.Context, raw json.RawMessage) (any, error) {
		var p struct {
			OutputPath string `json:"output_path"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return h.ScreenshotViewport(p.OutputPath)
	})

	d.Register("export_fbx", typed(h.ExportFBX))
	d.Register("export_abc", typed(h.ExportABC))
	d.Register("export_usd", typed(h.ExportUSD))

	d.Register("save_hip", func(_ context.Context, raw json.RawMessage) (any, error) {
		var p struct {
			FilePath string `json:"file_path"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return h.SaveHip(p.FilePath)
	})

	d.Register("load_hip", func(_ context.Context, raw json.RawMessage) (any, error) {
		var p struct {
			FilePath string `json:"file_path"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return h.LoadHip(p.FilePath)
	})

	d.Register("execute_code", func(_ context.Context, raw json.RawMessage) (any, error) {
		var p struct {
			Code string `json:"code"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return h.ExecuteCode(p.Code)
	})
}

// typed adapts a Host method taking one params struct.
func typed[T any](fn func(T) (any, error)) dispatch.Handler {
	return func(_ context.Context, raw json.RawMessage) (any, error) {
		var p T
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return fn(p)
	}
}

// noParams adapts a Host method that ignores its params.
func noParams(fn func() (any, error)) dispatch.Handler {
	return func(context.Context, json.RawMessage) (any, error) {
		return fn()
	}
}

// decode unmarshals the raw params object into v. A request with no
// params decodes as the zero value.
func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
