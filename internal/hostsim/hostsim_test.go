package hostsim

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/HendryAvila/houdini-mcp/internal/catalog"
	"github.com/HendryAvila/houdini-mcp/internal/dispatch"
	"github.com/HendryAvila/houdini-mcp/internal/protocol"
)

func newSim(t *testing.T) *Sim {
	t.Helper()
	s, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func asMap(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("result is %T, want map", v)
	}
	return m
}

func TestSceneInfoFreshSession(t *testing.T) {
	s := newSim(t)

	res, err := s.SceneInfo()
	if err != nil {
		t.Fatalf("SceneInfo: %v", err)
	}
	info := asMap(t, res)

	if got := info["name"]; got != "untitled.hip" {
		t.Errorf("name = %v, want untitled.hip", got)
	}
	if got := info["modified"]; got != false {
		t.Errorf("modified = %v, want false", got)
	}
	top, ok := info["top_level_nodes"].([]map[string]any)
	if !ok {
		t.Fatalf("top_level_nodes is %T", info["top_level_nodes"])
	}
	found := false
	for _, n := range top {
		if n["path"] == "/obj" {
			found = true
		}
	}
	if !found {
		t.Errorf("top_level_nodes missing /obj: %v", top)
	}
}

func TestCreateNodeAndNodeInfo(t *testing.T) {
	s := newSim(t)

	res, err := s.CreateNode(catalog.CreateNodeParams{
		NodeType:   "geo",
		ParentPath: "/obj",
		NodeName:   "terrain",
		Position:   []float64{1, 2},
	})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	created := asMap(t, res)
	if created["path"] != "/obj/terrain" {
		t.Errorf("path = %v, want /obj/terrain", created["path"])
	}
	if created["category"] != "Object" {
		t.Errorf("category = %v, want Object", created["category"])
	}

	res, err = s.NodeInfo("/obj/terrain")
	if err != nil {
		t.Fatalf("NodeInfo: %v", err)
	}
	info := asMap(t, res)
	pos, ok := info["position"].([]float64)
	if !ok || pos[0] != 1 || pos[1] != 2 {
		t.Errorf("position = %v, want [1 2]", info["position"])
	}

	if _, err := s.NodeInfo("/obj/missing"); err == nil {
		t.Error("NodeInfo on missing node should fail")
	}
}

func TestCreateNodeNamesStayUnique(t *testing.T) {
	s := newSim(t)

	p := catalog.CreateNodeParams{NodeType: "geo", ParentPath: "/obj", NodeName: "geo"}
	names := []string{}
	for i := 0; i < 3; i++ {
		res, err := s.CreateNode(p)
		if err != nil {
			t.Fatalf("CreateNode %d: %v", i, err)
		}
		names = append(names, asMap(t, res)["name"].(string))
	}
	want := []string{"geo", "geo1", "geo2"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestCreateGeometryBuildsContainer(t *testing.T) {
	s := newSim(t)

	res, err := s.CreateGeometry(catalog.CreateGeometryParams{
		GeoType:    "cylinder",
		ParentPath: "/obj",
		Name:       "pillar",
		Parameters: map[string]any{"radius": 0.5},
	})
	if err != nil {
		t.Fatalf("CreateGeometry: %v", err)
	}
	geo := asMap(t, res)

	if geo["type"] != "tube" {
		t.Errorf("type = %v, want tube (cylinder maps to tube)", geo["type"])
	}
	if geo["parent"] != "/obj/pillar_geo" {
		t.Errorf("parent = %v, want /obj/pillar_geo", geo["parent"])
	}
	if geo["category"] != "Sop" {
		t.Errorf("category = %v, want Sop", geo["category"])
	}

	v, ok, err := s.param(geo["path"].(string), "radius")
	if err != nil || !ok {
		t.Fatalf("param radius: ok=%v err=%v", ok, err)
	}
	if v != 0.5 {
		t.Errorf("radius = %v, want 0.5", v)
	}

	// A second SOP inside an existing container skips the wrapper.
	res, err = s.CreateGeometry(catalog.CreateGeometryParams{
		GeoType:    "sphere",
		ParentPath: "/obj/pillar_geo",
	})
	if err != nil {
		t.Fatalf("CreateGeometry in container: %v", err)
	}
	if got := asMap(t, res)["parent"]; got != "/obj/pillar_geo" {
		t.Errorf("parent = %v, want /obj/pillar_geo", got)
	}
}

func TestSetParameterAndParameterInfo(t *testing.T) {
	s := newSim(t)

	if _, err := s.CreateNode(catalog.CreateNodeParams{
		NodeType: "geo", ParentPath: "/obj", NodeName: "props",
	}); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	if _, err := s.SetParameter(catalog.SetParameterParams{
		NodePath: "/obj/props", ParameterName: "scale", Value: 2.5,
	}); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	if _, err := s.SetParameter(catalog.SetParameterParams{
		NodePath: "/obj/props", ParameterName: "t", Value: []any{1.0, 2.0, 3.0},
	}); err != nil {
		t.Fatalf("SetParameter vector: %v", err)
	}

	res, err := s.ParameterInfo("/obj/props", "scale")
	if err != nil {
		t.Fatalf("ParameterInfo: %v", err)
	}
	info := asMap(t, res)
	if info["value"] != 2.5 || info["is_vector"] != false {
		t.Errorf("scale info = %v", info)
	}

	res, err = s.ParameterInfo("/obj/props", "t")
	if err != nil {
		t.Fatalf("ParameterInfo vector: %v", err)
	}
	info = asMap(t, res)
	if info["is_vector"] != true {
		t.Errorf("t should be a vector: %v", info)
	}

	if _, err := s.ParameterInfo("/obj/props", "nope"); err == nil {
		t.Error("unknown parameter should fail")
	}

	res, err = s.ParameterInfo("/obj/props", "")
	if err != nil {
		t.Fatalf("ParameterInfo all: %v", err)
	}
	all := asMap(t, asMap(t, res)["parameters"])
	if len(all) != 2 {
		t.Errorf("got %d parameters, want 2", len(all))
	}
}

func TestConnectNodesRequiresSameNetwork(t *testing.T) {
	s := newSim(t)

	mk := func(parent, name string) {
		t.Helper()
		if _, err := s.CreateNode(catalog.CreateNodeParams{
			NodeType: "geo", ParentPath: parent, NodeName: name,
		}); err != nil {
			t.Fatalf("CreateNode %s/%s: %v", parent, name, err)
		}
	}
	mk("/obj", "a")
	mk("/obj", "b")

	res, err := s.ConnectNodes(catalog.ConnectNodesParams{
		FromPath: "/obj/a", ToPath: "/obj/b",
	})
	if err != nil {
		t.Fatalf("ConnectNodes: %v", err)
	}
	if asMap(t, res)["success"] != true {
		t.Errorf("result = %v", res)
	}

	mk("/obj/a", "inner")
	if _, err := s.ConnectNodes(catalog.ConnectNodesParams{
		FromPath: "/obj/a/inner", ToPath: "/obj/b",
	}); err == nil {
		t.Error("cross-network connection should fail")
	}
}

func TestDeleteNodeRemovesSubtree(t *testing.T) {
	s := newSim(t)

	if _, err := s.CreateNode(catalog.CreateNodeParams{
		NodeType: "geo", ParentPath: "/obj", NodeName: "rig",
	}); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if _, err := s.CreateNode(catalog.CreateNodeParams{
		NodeType: "box", ParentPath: "/obj/rig",
	}); err != nil {
		t.Fatalf("CreateNode child: %v", err)
	}

	res, err := s.DeleteNode("/obj/rig")
	if err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if asMap(t, res)["deleted"] != true {
		t.Errorf("result = %v", res)
	}
	if _, err := s.NodeInfo("/obj/rig/box"); err == nil {
		t.Error("child should be gone with its parent")
	}

	if _, err := s.DeleteNode("/obj"); err == nil {
		// Managers are real nodes in the sim; deleting them is allowed,
		// only the root is protected.
		t.Log("manager deleted")
	}
	if _, err := s.DeleteNode("/"); err == nil {
		t.Error("deleting the root should fail")
	}
}

func TestDeleteNodeUnderscoreNameIsLiteral(t *testing.T) {
	s := newSim(t)

	// "_" is a SQL LIKE wildcard; a sibling differing only at that
	// character must not be swept into the subtree cascade.
	for _, name := range []string{"box_geo", "boxXgeo"} {
		if _, err := s.CreateNode(catalog.CreateNodeParams{
			NodeType: "geo", ParentPath: "/obj", NodeName: name,
		}); err != nil {
			t.Fatalf("CreateNode %s: %v", name, err)
		}
	}
	if _, err := s.CreateNode(catalog.CreateNodeParams{
		NodeType: "box", ParentPath: "/obj/boxXgeo",
	}); err != nil {
		t.Fatalf("CreateNode child: %v", err)
	}

	if _, err := s.DeleteNode("/obj/box_geo"); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if _, err := s.NodeInfo("/obj/boxXgeo/box"); err != nil {
		t.Errorf("sibling subtree deleted: %v", err)
	}

	res, err := s.NodeInfo("/obj/boxXgeo")
	if err != nil {
		t.Fatalf("NodeInfo: %v", err)
	}
	if got := asMap(t, res)["child_count"]; got != 1 {
		t.Errorf("child_count = %v, want 1", got)
	}

	// Rename cascades use the same match; the sibling's subtree must
	// not be rewritten under the renamed node.
	if _, err := s.CreateNode(catalog.CreateNodeParams{
		NodeType: "geo", ParentPath: "/obj", NodeName: "box_geo",
	}); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if _, err := s.ModifyNode(catalog.ModifyNodeParams{Path: "/obj/box_geo", Name: "renamed"}); err != nil {
		t.Fatalf("ModifyNode: %v", err)
	}
	if _, err := s.NodeInfo("/obj/boxXgeo/box"); err != nil {
		t.Errorf("sibling subtree rewritten by rename: %v", err)
	}
}

func TestModifyNodeRename(t *testing.T) {
	s := newSim(t)

	if _, err := s.CreateNode(catalog.CreateNodeParams{
		NodeType: "geo", ParentPath: "/obj", NodeName: "old",
	}); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if _, err := s.CreateNode(catalog.CreateNodeParams{
		NodeType: "box", ParentPath: "/obj/old",
	}); err != nil {
		t.Fatalf("CreateNode child: %v", err)
	}

	bypass := true
	res, err := s.ModifyNode(catalog.ModifyNodeParams{
		Path: "/obj/old", Name: "new", Color: []float64{1, 0, 0}, Bypass: &bypass,
	})
	if err != nil {
		t.Fatalf("ModifyNode: %v", err)
	}
	mod := asMap(t, res)
	if mod["path"] != "/obj/new" || mod["is_bypassed"] != true {
		t.Errorf("result = %v", mod)
	}

	// Descendant paths follow the rename.
	if _, err := s.NodeInfo("/obj/new/box"); err != nil {
		t.Errorf("child did not follow rename: %v", err)
	}
}

func TestSetMaterialReusesExisting(t *testing.T) {
	s := newSim(t)

	if _, err := s.CreateNode(catalog.CreateNodeParams{
		NodeType: "geo", ParentPath: "/obj", NodeName: "hero",
	}); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	p := catalog.SetMaterialParams{
		NodePath:     "/obj/hero",
		MaterialType: "principledshader",
		MaterialName: "skin",
		Parameters:   map[string]any{"basecolorr": 0.8},
	}
	res, err := s.SetMaterial(p)
	if err != nil {
		t.Fatalf("SetMaterial: %v", err)
	}
	first := asMap(t, res)["material"]

	res, err = s.SetMaterial(p)
	if err != nil {
		t.Fatalf("SetMaterial again: %v", err)
	}
	if got := asMap(t, res)["material"]; got != first {
		t.Errorf("material = %v, want reused %v", got, first)
	}

	v, ok, _ := s.param("/obj/hero", "shop_materialpath")
	if !ok || v != first {
		t.Errorf("shop_materialpath = %v, want %v", v, first)
	}
}

func TestRunSimulationChecksNodeType(t *testing.T) {
	s := newSim(t)

	if _, err := s.CreateSim(catalog.CreateSimParams{
		SimType: "pyro", ParentPath: "/obj",
	}); err != nil {
		t.Fatalf("CreateSim: %v", err)
	}

	res, err := s.RunSimulation(catalog.RunSimulationParams{
		NodePath: "/obj/pyro_sim", StartFrame: 1, EndFrame: 24, SaveToDisk: true,
	})
	if err != nil {
		t.Fatalf("RunSimulation: %v", err)
	}
	out := asMap(t, res)
	if out["frames_simulated"] != 24 {
		t.Errorf("frames_simulated = %v, want 24", out["frames_simulated"])
	}
	if out["cache_path"] == nil {
		t.Error("cache_path should be set when saving to disk")
	}

	if _, err := s.CreateNode(catalog.CreateNodeParams{
		NodeType: "geo", ParentPath: "/obj", NodeName: "notasim",
	}); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if _, err := s.RunSimulation(catalog.RunSimulationParams{
		NodePath: "/obj/notasim", StartFrame: 1, EndFrame: 5,
	}); err == nil {
		t.Error("non-simulation node should be rejected")
	}
}

func TestCreateCameraLookAt(t *testing.T) {
	s := newSim(t)

	res, err := s.CreateCamera(catalog.CreateCameraParams{
		ParentPath: "/obj",
		Name:       "shotcam",
		Position:   []float64{0, 0, 10},
		LookAt:     []float64{0, 0, 0},
	})
	if err != nil {
		t.Fatalf("CreateCamera: %v", err)
	}
	cam := asMap(t, res)
	rot := cam["rotation"].([]float64)
	// Looking down -Z from +Z is a 180 degree yaw.
	if math.Abs(math.Abs(rot[1])-180) > 1e-9 {
		t.Errorf("yaw = %v, want +-180", rot[1])
	}
}

func TestExecuteCodeRejected(t *testing.T) {
	s := newSim(t)
	if _, err := s.ExecuteCode("print('hi')"); err == nil {
		t.Error("ExecuteCode should fail on the simulated host")
	}
}

func TestSaveAndLoadHip(t *testing.T) {
	s := newSim(t)

	res, err := s.SaveHip("")
	if err != nil {
		t.Fatalf("SaveHip: %v", err)
	}
	saved := asMap(t, res)
	if !strings.HasSuffix(saved["file_path"].(string), ".hip") {
		t.Errorf("file_path = %v, want .hip suffix", saved["file_path"])
	}

	res, err = s.LoadHip("/tmp/other_scene.hip")
	if err != nil {
		t.Fatalf("LoadHip: %v", err)
	}
	if asMap(t, res)["name"] != "other_scene.hip" {
		t.Errorf("name = %v", asMap(t, res)["name"])
	}

	if _, err := s.LoadHip(""); err == nil {
		t.Error("LoadHip without a path should fail")
	}
}

// The full command path: dispatcher decodes raw params, the catalog
// routes them, the sim answers.
func TestDispatcherIntegration(t *testing.T) {
	s := newSim(t)
	d := dispatch.New()
	catalog.Register(d, s)

	run := func(cmd string, params string) protocol.Response {
		t.Helper()
		var raw json.RawMessage
		if params != "" {
			raw = json.RawMessage(params)
		}
		return d.Dispatch(context.Background(), protocol.Request{Type: cmd, Params: raw})
	}

	resp := run("create_node", `{"node_type":"geo","parent_path":"/obj","node_name":"env"}`)
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("create_node failed: %s", resp.Message)
	}

	resp = run("set_parameter", `{"node_path":"/obj/env","parameter_name":"scale","value":3}`)
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("set_parameter failed: %s", resp.Message)
	}

	resp = run("get_node_info", `{"path":"/obj/env"}`)
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("get_node_info failed: %s", resp.Message)
	}
	var info struct {
		Name       string         `json:"name"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal(resp.Result, &info); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if info.Name != "env" || info.Parameters["scale"] != 3.0 {
		t.Errorf("info = %+v", info)
	}

	resp = run("get_scene_info", "")
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("get_scene_info failed: %s", resp.Message)
	}

	resp = run("delete_node", `{"path":"/obj/missing"}`)
	if resp.Status != protocol.StatusError {
		t.Fatal("delete of missing node should report an error")
	}
	if !strings.Contains(resp.Message, "node not found") {
		t.Errorf("message = %q", resp.Message)
	}
}
