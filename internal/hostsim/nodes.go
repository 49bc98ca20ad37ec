package hostsim

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/houdini-mcp/internal/catalog"
)

// geoTypeMap maps friendly geometry names onto SOP types.
var geoTypeMap = map[string]string{
	"box":      "box",
	"cube":     "box",
	"sphere":   "sphere",
	"grid":     "grid",
	"plane":    "grid",
	"torus":    "torus",
	"tube":     "tube",
	"cylinder": "tube",
	"cone":     "tube",
	"circle":   "circle",
	"curve":    "curve",
	"line":     "line",
	"platonic": "platonic",
}

// CreateNode creates a node of the given type under parent_path.
func (s *Sim) CreateNode(p catalog.CreateNodeParams) (any, error) {
	parent, err := s.node(p.ParentPath)
	if err != nil {
		return nil, err
	}
	if p.NodeType == "" {
		return nil, fmt.Errorf("node_type is required")
	}

	name := p.NodeName
	if name == "" {
		name = p.NodeType
	}
	n, err := s.addNode(parent, p.NodeType, name, p.Position)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"path":     n.Path,
		"name":     n.Name,
		"type":     n.Type,
		"category": n.Category,
		"position": []float64{n.PosX, n.PosY},
	}, nil
}

// ModifyNode updates position, color, name and flags of a node.
func (s *Sim) ModifyNode(p catalog.ModifyNodeParams) (any, error) {
	n, err := s.node(p.Path)
	if err != nil {
		return nil, err
	}

	if len(p.Position) >= 2 {
		n.PosX, n.PosY = p.Position[0], p.Position[1]
		if _, err := s.db.Exec(
			`UPDATE nodes SET pos_x = ?, pos_y = ? WHERE path = ?`,
			n.PosX, n.PosY, n.Path); err != nil {
			return nil, err
		}
	}

	if len(p.Color) >= 3 {
		n.Color = p.Color[:3]
		if _, err := s.db.Exec(
			`UPDATE nodes SET color_r = ?, color_g = ?, color_b = ? WHERE path = ?`,
			p.Color[0], p.Color[1], p.Color[2], n.Path); err != nil {
			return nil, err
		}
	}

	if p.Bypass != nil {
		n.Bypassed = *p.Bypass
		if _, err := s.db.Exec(
			`UPDATE nodes SET bypassed = ? WHERE path = ?`, n.Bypassed, n.Path); err != nil {
			return nil, err
		}
	}

	if p.Display != nil {
		n.Displayed = *p.Display
		if _, err := s.db.Exec(
			`UPDATE nodes SET displayed = ? WHERE path = ?`, n.Displayed, n.Path); err != nil {
			return nil, err
		}
	}

	if p.Name != "" && p.Name != n.Name {
		if err := s.renameNode(n, p.Name); err != nil {
			return nil, err
		}
	}

	if err := s.touch(); err != nil {
		return nil, err
	}

	return map[string]any{
		"path":         n.Path,
		"name":         n.Name,
		"position":     []float64{n.PosX, n.PosY},
		"color":        n.Color,
		"is_bypassed":  n.Bypassed,
		"is_displayed": n.Displayed,
	}, nil
}

// renameNode rewrites the node row and every descendant path.
func (s *Sim) renameNode(n *nodeRow, newName string) error {
	name, err := s.uniqueName(n.Parent, newName)
	if err != nil {
		return err
	}
	oldPath := n.Path
	newPath := childPath(n.Parent, name)

	stmts := []struct {
		q    string
		args []any
	}{
		{`UPDATE nodes SET path = ?, name = ? WHERE path = ?`, []any{newPath, name, oldPath}},
		{`UPDATE nodes SET path = ? || SUBSTR(path, ?), parent = CASE WHEN parent = ? THEN ? ELSE ? || SUBSTR(parent, ?) END
		  WHERE path LIKE ? ESCAPE '\'`,
			[]any{newPath, len(oldPath) + 1, oldPath, newPath, newPath, len(oldPath) + 1, likeSubtree(oldPath)}},
		{`UPDATE params SET node_path = ? WHERE node_path = ?`, []any{newPath, oldPath}},
		{`UPDATE wires SET from_path = ? WHERE from_path = ?`, []any{newPath, oldPath}},
		{`UPDATE wires SET to_path = ? WHERE to_path = ?`, []any{newPath, oldPath}},
	}
	for _, st := range stmts {
		if _, err := s.db.Exec(st.q, st.args...); err != nil {
			return err
		}
	}
	n.Path = newPath
	n.Name = name
	return nil
}

// DeleteNode removes a node and everything beneath it.
func (s *Sim) DeleteNode(path string) (any, error) {
	n, err := s.node(path)
	if err != nil {
		return nil, err
	}
	if n.Parent == "" {
		return nil, fmt.Errorf("cannot delete the root node")
	}
	sub := likeSubtree(path)

	stmts := []struct {
		q    string
		args []any
	}{
		{`DELETE FROM nodes WHERE path = ? OR path LIKE ? ESCAPE '\'`, []any{path, sub}},
		{`DELETE FROM params WHERE node_path = ? OR node_path LIKE ? ESCAPE '\'`, []any{path, sub}},
		{`DELETE FROM wires WHERE from_path = ? OR from_path LIKE ? ESCAPE '\'
		                       OR to_path = ? OR to_path LIKE ? ESCAPE '\'`,
			[]any{path, sub, path, sub}},
	}
	for _, st := range stmts {
		if _, err := s.db.Exec(st.q, st.args...); err != nil {
			return nil, err
		}
	}
	if err := s.touch(); err != nil {
		return nil, err
	}

	return map[string]any{"deleted": true, "name": n.Name, "path": path}, nil
}

// SetParameter stores a parameter value on a node.
func (s *Sim) SetParameter(p catalog.SetParameterParams) (any, error) {
	if _, err := s.node(p.NodePath); err != nil {
		return nil, err
	}
	if p.ParameterName == "" {
		return nil, fmt.Errorf("parameter_name is required")
	}
	if err := s.setParam(p.NodePath, p.ParameterName, p.Value); err != nil {
		return nil, err
	}
	if err := s.touch(); err != nil {
		return nil, err
	}
	return map[string]any{
		"node":      p.NodePath,
		"parameter": p.ParameterName,
		"value":     p.Value,
	}, nil
}

// ConnectNodes wires from_path's output into to_path's input.
func (s *Sim) ConnectNodes(p catalog.ConnectNodesParams) (any, error) {
	from, err := s.node(p.FromPath)
	if err != nil {
		return nil, err
	}
	to, err := s.node(p.ToPath)
	if err != nil {
		return nil, err
	}
	if from.Parent != to.Parent {
		return nil, fmt.Errorf("nodes are not in the same network: %s, %s", p.FromPath, p.ToPath)
	}

	_, err = s.db.Exec(
		`INSERT INTO wires (from_path, to_path, from_output, to_input)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (to_path, to_input) DO UPDATE
		 SET from_path = excluded.from_path, from_output = excluded.from_output`,
		p.FromPath, p.ToPath, p.FromOutput, p.ToInput)
	if err != nil {
		return nil, err
	}
	if err := s.touch(); err != nil {
		return nil, err
	}

	return map[string]any{
		"success":     true,
		"from":        p.FromPath,
		"to":          p.ToPath,
		"from_output": p.FromOutput,
		"to_input":    p.ToInput,
	}, nil
}

// LayoutNetwork re-grids the children of a network node.
func (s *Sim) LayoutNetwork(path string) (any, error) {
	n, err := s.node(path)
	if err != nil {
		return nil, err
	}
	kids, err := s.children(path)
	if err != nil {
		return nil, err
	}
	for i, k := range kids {
		if _, err := s.db.Exec(
			`UPDATE nodes SET pos_x = ?, pos_y = ? WHERE path = ?`,
			float64(i%4)*3, -float64(i/4)*2, k.Path); err != nil {
			return nil, err
		}
	}
	return map[string]any{"success": true, "path": n.Path, "name": n.Name}, nil
}

// CreateSubnet creates a subnet (or other container type) node.
func (s *Sim) CreateSubnet(p catalog.CreateSubnetParams) (any, error) {
	parent, err := s.node(p.ParentPath)
	if err != nil {
		return nil, err
	}

	nodeType := p.NodeType
	if nodeType == "" {
		nodeType = "subnet"
	}
	name := p.Name
	if name == "" {
		name = nodeType
	}
	n, err := s.addNode(parent, nodeType, name, p.Position)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"path":     n.Path,
		"name":     n.Name,
		"type":     n.Type,
		"category": n.Category,
		"position": []float64{n.PosX, n.PosY},
	}, nil
}

// CreateGeometry makes a geo container with a primitive SOP inside.
// When the parent is already a geo container the SOP goes straight in.
func (s *Sim) CreateGeometry(p catalog.CreateGeometryParams) (any, error) {
	parentPath := p.ParentPath
	if parentPath == "" {
		parentPath = "/obj"
	}
	parent, err := s.node(parentPath)
	if err != nil {
		return nil, err
	}

	sopType, ok := geoTypeMap[strings.ToLower(p.GeoType)]
	if !ok {
		sopType = "box"
	}

	container := parent
	if parent.Type != "geo" && parent.Category != "Sop" {
		containerName := p.Name
		if containerName == "" {
			containerName = p.GeoType
		}
		container, err = s.addNode(parent, "geo", containerName+"_geo", p.Position)
		if err != nil {
			return nil, err
		}
	}

	name := p.Name
	if name == "" {
		name = sopType
	}
	n, err := s.addNode(container, sopType, name, nil)
	if err != nil {
		return nil, err
	}

	for pname, pval := range p.Parameters {
		if err := s.setParam(n.Path, pname, pval); err != nil {
			return nil, err
		}
	}

	return map[string]any{
		"path":     n.Path,
		"name":     n.Name,
		"type":     n.Type,
		"category": n.Category,
		"position": []float64{n.PosX, n.PosY},
		"parent":   container.Path,
	}, nil
}

// CreateDigitalAsset records a node collapsed into an HDA definition.
func (s *Sim) CreateDigitalAsset(p catalog.CreateDigitalAssetParams) (any, error) {
	n, err := s.node(p.NodePath)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	savePath := p.SavePath
	if savePath == "" {
		savePath = filepath.Join(os.TempDir(), p.Name+".hda")
	}

	if _, err := s.db.Exec(
		`UPDATE nodes SET type = ? WHERE path = ?`, p.Name, n.Path); err != nil {
		return nil, err
	}
	if err := s.touch(); err != nil {
		return nil, err
	}

	return map[string]any{
		"success":  true,
		"path":     n.Path,
		"name":     n.Name,
		"type":     p.Name,
		"hda_file": savePath,
	}, nil
}

// SetMaterial builds (or reuses) a material under /mat and assigns it.
func (s *Sim) SetMaterial(p catalog.SetMaterialParams) (any, error) {
	target, err := s.node(p.NodePath)
	if err != nil {
		return nil, err
	}
	matType := p.MaterialType
	if matType == "" {
		matType = "principledshader"
	}

	matContext, err := s.node("/mat")
	if err != nil {
		return nil, err
	}

	matName := p.MaterialName
	if matName == "" {
		matName = target.Name + "_material"
	}

	var material *nodeRow
	kids, err := s.children("/mat")
	if err != nil {
		return nil, err
	}
	for i := range kids {
		if kids[i].Name == matName {
			material = &kids[i]
			break
		}
	}
	if material == nil {
		material, err = s.addNode(matContext, matType, matName, nil)
		if err != nil {
			return nil, err
		}
	}

	for pname, pval := range p.Parameters {
		if err := s.setParam(material.Path, pname, pval); err != nil {
			return nil, err
		}
	}

	if err := s.setParam(target.Path, "shop_materialpath", material.Path); err != nil {
		return nil, err
	}
	if err := s.touch(); err != nil {
		return nil, err
	}

	return map[string]any{
		"success":       true,
		"node":          p.NodePath,
		"material":      material.Path,
		"material_name": material.Name,
		"material_type": material.Type,
	}, nil
}
