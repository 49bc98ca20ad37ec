package hostsim

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/houdini-mcp/internal/catalog"
)

var lightTypeMap = map[string]string{
	"point":       "hlight",
	"spot":        "hlight",
	"directional": "hlight",
	"area":        "hlight",
	"environment": "envlight",
}

var lightTypeIndex = map[string]int{
	"point":       0,
	"spot":        1,
	"directional": 2,
	"area":        3,
}

var simTypeMap = map[string]string{
	"pyro":      "dopnet",
	"fluid":     "dopnet",
	"cloth":     "dopnet",
	"rigid":     "dopnet",
	"wire":      "dopnet",
	"grains":    "dopnet",
	"flip":      "dopnet",
	"popnet":    "popnet",
	"particles": "popnet",
	"crowd":     "crowdsim",
}

var rendererMap = map[string]string{
	"mantra":    "ifd",
	"karma":     "karma",
	"arnold":    "arnold",
	"redshift":  "redshift_rop",
	"renderman": "renderman_rop",
}

// CreateCamera creates a camera, optionally aimed at a target point.
func (s *Sim) CreateCamera(p catalog.CreateCameraParams) (any, error) {
	parentPath := p.ParentPath
	if parentPath == "" {
		parentPath = "/obj"
	}
	parent, err := s.node(parentPath)
	if err != nil {
		return nil, err
	}

	name := p.Name
	if name == "" {
		name = "cam"
	}
	n, err := s.addNode(parent, "cam", name, nil)
	if err != nil {
		return nil, err
	}

	pos := []float64{0, 0, 0}
	if len(p.Position) >= 3 {
		pos = p.Position[:3]
	}
	if err := s.setParam(n.Path, "t", pos); err != nil {
		return nil, err
	}

	rot := []float64{0, 0, 0}
	if len(p.LookAt) >= 3 {
		rot = lookAtRotation(pos, p.LookAt[:3])
	}
	if err := s.setParam(n.Path, "r", rot); err != nil {
		return nil, err
	}

	return map[string]any{
		"path":     n.Path,
		"name":     n.Name,
		"type":     n.Type,
		"position": pos,
		"rotation": rot,
	}, nil
}

// lookAtRotation derives pitch and yaw, in degrees, to aim from one
// point at another.
func lookAtRotation(from, to []float64) []float64 {
	dx := to[0] - from[0]
	dy := to[1] - from[1]
	dz := to[2] - from[2]
	pitch := -math.Atan2(dy, math.Sqrt(dx*dx+dz*dz))
	yaw := math.Atan2(dx, dz)
	return []float64{
		pitch * 180 / math.Pi,
		yaw * 180 / math.Pi,
		0,
	}
}

// CreateLight creates a light, mapping friendly type names onto
// Houdini light nodes.
func (s *Sim) CreateLight(p catalog.CreateLightParams) (any, error) {
	parentPath := p.ParentPath
	if parentPath == "" {
		parentPath = "/obj"
	}
	parent, err := s.node(parentPath)
	if err != nil {
		return nil, err
	}

	lightType := strings.ToLower(p.LightType)
	if lightType == "" {
		lightType = "point"
	}
	houdiniType, ok := lightTypeMap[lightType]
	if !ok {
		houdiniType = lightType
	}

	name := p.Name
	if name == "" {
		name = houdiniType
	}
	n, err := s.addNode(parent, houdiniType, name, nil)
	if err != nil {
		return nil, err
	}

	pos := []float64{0, 0, 0}
	if len(p.Position) >= 3 {
		pos = p.Position[:3]
	}
	if err := s.setParam(n.Path, "t", pos); err != nil {
		return nil, err
	}

	if houdiniType == "hlight" {
		if idx, ok := lightTypeIndex[lightType]; ok {
			if err := s.setParam(n.Path, "light_type", idx); err != nil {
				return nil, err
			}
		}
	}

	for pname, pval := range p.Parameters {
		if err := s.setParam(n.Path, pname, pval); err != nil {
			return nil, err
		}
	}

	return map[string]any{
		"path":       n.Path,
		"name":       n.Name,
		"type":       n.Type,
		"light_type": lightType,
		"position":   pos,
	}, nil
}

// CreateSim creates a simulation network for the given sim type.
func (s *Sim) CreateSim(p catalog.CreateSimParams) (any, error) {
	parentPath := p.ParentPath
	if parentPath == "" {
		parentPath = "/obj"
	}
	parent, err := s.node(parentPath)
	if err != nil {
		return nil, err
	}

	simType := strings.ToLower(p.SimType)
	if simType == "" {
		return nil, fmt.Errorf("sim_type is required")
	}
	houdiniType, ok := simTypeMap[simType]
	if !ok {
		houdiniType = "dopnet"
	}

	name := p.Name
	if name == "" {
		name = simType + "_sim"
	}
	n, err := s.addNode(parent, houdiniType, name, p.Position)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"path":     n.Path,
		"name":     n.Name,
		"type":     n.Type,
		"sim_type": simType,
		"position": []float64{n.PosX, n.PosY},
	}, nil
}

// RunSimulation cooks a simulation network over a frame range.
func (s *Sim) RunSimulation(p catalog.RunSimulationParams) (any, error) {
	n, err := s.node(p.NodePath)
	if err != nil {
		return nil, err
	}

	typ := strings.ToLower(n.Type)
	isSim := false
	for _, marker := range []string{"dop", "pop", "crowd", "sim"} {
		if strings.Contains(typ, marker) {
			isSim = true
			break
		}
	}
	if !isSim {
		return nil, fmt.Errorf("node is not a simulation network: %s", p.NodePath)
	}

	start, end := p.StartFrame, p.EndFrame
	if start == 0 {
		start = 1
	}
	if end == 0 {
		end = 10
	}
	if end < start {
		return nil, fmt.Errorf("end_frame %d is before start_frame %d", end, start)
	}

	var cachePath any
	if p.SaveToDisk {
		path := filepath.Join(os.TempDir(), n.Name+"_cache")
		if err := s.setParam(n.Path, "dopoutput", path); err != nil {
			return nil, err
		}
		cachePath = path
	}

	if _, err := s.db.Exec(
		`UPDATE scene SET current_frame = ? WHERE id = 1`, float64(end)); err != nil {
		return nil, err
	}

	return map[string]any{
		"success":          true,
		"node":             p.NodePath,
		"start_frame":      start,
		"end_frame":        end,
		"frames_simulated": end - start + 1,
		"cache_path":       cachePath,
	}, nil
}

// RenderScene records a render of the current frame through a ROP of
// the requested renderer type.
func (s *Sim) RenderScene(p catalog.RenderSceneParams) (any, error) {
	renderer := strings.ToLower(p.Renderer)
	if renderer == "" {
		renderer = "mantra"
	}
	ropType, ok := rendererMap[renderer]
	if !ok {
		ropType = "ifd"
	}

	outputPath := p.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(os.TempDir(), "houdinimcp_render.exr")
	}
	if !hasSuffix(outputPath, ".exr", ".jpg", ".png", ".tif", ".tiff") {
		outputPath += ".exr"
	}

	if p.CameraPath != "" {
		if _, err := s.node(p.CameraPath); err != nil {
			return nil, err
		}
	}

	out, err := s.node("/out")
	if err != nil {
		return nil, err
	}
	var rop *nodeRow
	kids, err := s.children("/out")
	if err != nil {
		return nil, err
	}
	for i := range kids {
		if kids[i].Type == ropType {
			rop = &kids[i]
			break
		}
	}
	if rop == nil {
		rop, err = s.addNode(out, ropType, ropType, nil)
		if err != nil {
			return nil, err
		}
	}

	outputParm := "output"
	if ropType == "ifd" {
		outputParm = "vm_picture"
	}
	if err := s.setParam(rop.Path, outputParm, outputPath); err != nil {
		return nil, err
	}
	if p.CameraPath != "" {
		if err := s.setParam(rop.Path, "camera", p.CameraPath); err != nil {
			return nil, err
		}
	}

	resolution := p.Resolution
	if len(resolution) != 2 {
		resolution = []int{1280, 720}
	}

	return map[string]any{
		"success":    true,
		"file_path":  outputPath,
		"renderer":   renderer,
		"resolution": resolution,
	}, nil
}

// RenderCOP records an image render of a COP node.
func (s *Sim) RenderCOP(p catalog.RenderCOPParams) (any, error) {
	if _, err := s.node(p.NodePath); err != nil {
		return nil, err
	}

	sc, err := s.scene()
	if err != nil {
		return nil, err
	}

	outputPath := p.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(sc.HipFile), "mcp_cop_render.png")
	}
	if !hasSuffix(outputPath, ".png", ".jpg", ".jpeg", ".exr", ".tif", ".tiff") {
		outputPath += ".png"
	}

	frame := sc.CurrentFrame
	if p.Frame != nil {
		frame = float64(*p.Frame)
		if _, err := s.db.Exec(
			`UPDATE scene SET current_frame = ? WHERE id = 1`, frame); err != nil {
			return nil, err
		}
	}

	return map[string]any{
		"success":   true,
		"file_path": outputPath,
		"method":    "composite_rop",
		"frame":     frame,
	}, nil
}

// ScreenshotViewport records a viewport capture at the current frame.
func (s *Sim) ScreenshotViewport(outputPath string) (any, error) {
	sc, err := s.scene()
	if err != nil {
		return nil, err
	}

	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(sc.HipFile), "mcp_viewport_screenshot.png")
	}
	if !hasSuffix(outputPath, ".png", ".jpg", ".jpeg") {
		outputPath += ".png"
	}

	return map[string]any{
		"success":     true,
		"file_path":   outputPath,
		"viewer_type": "scene",
		"frame":       sc.CurrentFrame,
	}, nil
}

// ExportFBX records an FBX export of a node.
func (s *Sim) ExportFBX(p catalog.ExportParams) (any, error) {
	return s.export(p, ".fbx")
}

// ExportABC records an Alembic export of a node.
func (s *Sim) ExportABC(p catalog.ExportParams) (any, error) {
	return s.export(p, ".abc")
}

// ExportUSD records a USD export of a node.
func (s *Sim) ExportUSD(p catalog.ExportParams) (any, error) {
	if p.FilePath != "" && hasSuffix(p.FilePath, ".usd", ".usda", ".usdc") {
		return s.exportAs(p, p.FilePath)
	}
	return s.export(p, ".usd")
}

func (s *Sim) export(p catalog.ExportParams, ext string) (any, error) {
	n, err := s.node(p.NodePath)
	if err != nil {
		return nil, err
	}
	filePath := p.FilePath
	if filePath == "" {
		filePath = filepath.Join(os.TempDir(), n.Name+ext)
	}
	if !strings.HasSuffix(filePath, ext) {
		filePath += ext
	}
	return s.exportAs(p, filePath)
}

func (s *Sim) exportAs(p catalog.ExportParams, filePath string) (any, error) {
	if _, err := s.node(p.NodePath); err != nil {
		return nil, err
	}
	return map[string]any{
		"success":   true,
		"node":      p.NodePath,
		"file_path": filePath,
		"animation": p.Animation,
	}, nil
}
