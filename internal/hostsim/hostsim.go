// Package hostsim implements a simulated Houdini host backed by SQLite.
//
// It answers the same command set as a live Houdini session, keeping a
// small scene graph (nodes, parameters, wires) in a database so the
// stub server and end-to-end tests can exercise the full command path
// without a Houdini install. Render and export commands record their
// outputs without producing files.
package hostsim

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Sim is a simulated Houdini session. It is not safe for concurrent
// use; the command dispatcher serializes calls.
type Sim struct {
	db *sql.DB
}

// New opens a simulated session stored at dbPath. An empty path keeps
// the scene in memory.
func New(dbPath string) (*Sim, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("hostsim: create data dir: %w", err)
	}

	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("hostsim: open database: %w", err)
	}
	// The in-memory database vanishes if the pool opens a second
	// connection, so pin it to one.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("hostsim: pragma %q: %w", p, err)
		}
	}

	s := &Sim{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("hostsim: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Sim) Close() error {
	return s.db.Close()
}

func (s *Sim) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scene (
			id            INTEGER PRIMARY KEY CHECK (id = 1),
			hip_file      TEXT NOT NULL,
			modified      INTEGER NOT NULL DEFAULT 0,
			fps           REAL NOT NULL DEFAULT 24,
			frame_start   REAL NOT NULL DEFAULT 1,
			frame_end     REAL NOT NULL DEFAULT 240,
			current_frame REAL NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS nodes (
			path      TEXT PRIMARY KEY,
			parent    TEXT NOT NULL,
			name      TEXT NOT NULL,
			type      TEXT NOT NULL,
			category  TEXT NOT NULL,
			pos_x     REAL NOT NULL DEFAULT 0,
			pos_y     REAL NOT NULL DEFAULT 0,
			color_r   REAL,
			color_g   REAL,
			color_b   REAL,
			bypassed  INTEGER NOT NULL DEFAULT 0,
			displayed INTEGER NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent);

		CREATE TABLE IF NOT EXISTS params (
			node_path TEXT NOT NULL,
			name      TEXT NOT NULL,
			value     TEXT NOT NULL,
			PRIMARY KEY (node_path, name)
		);

		CREATE TABLE IF NOT EXISTS wires (
			from_path   TEXT NOT NULL,
			to_path     TEXT NOT NULL,
			from_output INTEGER NOT NULL DEFAULT 0,
			to_input    INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (to_path, to_input)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO scene (id, hip_file) VALUES (1, 'untitled.hip')`,
	); err != nil {
		return err
	}

	// Seed the manager networks a fresh Houdini session starts with.
	seed := []struct{ path, parent, name, typ string }{
		{"/", "", "/", "root"},
		{"/obj", "/", "obj", "obj"},
		{"/out", "/", "out", "out"},
		{"/mat", "/", "mat", "mat"},
		{"/ch", "/", "ch", "ch"},
		{"/stage", "/", "stage", "stage"},
	}
	for _, n := range seed {
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO nodes (path, parent, name, type, category)
			 VALUES (?, ?, ?, ?, 'Manager')`,
			n.path, n.parent, n.name, n.typ,
		); err != nil {
			return err
		}
	}
	return nil
}

// --- Node helpers -----------------------------------------------------

type nodeRow struct {
	Path      string
	Parent    string
	Name      string
	Type      string
	Category  string
	PosX      float64
	PosY      float64
	Color     []float64
	Bypassed  bool
	Displayed bool
}

func (s *Sim) node(path string) (*nodeRow, error) {
	row := s.db.QueryRow(
		`SELECT path, parent, name, type, category, pos_x, pos_y,
		        color_r, color_g, color_b, bypassed, displayed
		 FROM nodes WHERE path = ?`, path)

	var n nodeRow
	var cr, cg, cb sql.NullFloat64
	err := row.Scan(&n.Path, &n.Parent, &n.Name, &n.Type, &n.Category,
		&n.PosX, &n.PosY, &cr, &cg, &cb, &n.Bypassed, &n.Displayed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("node not found: %s", path)
	}
	if err != nil {
		return nil, err
	}
	if cr.Valid {
		n.Color = []float64{cr.Float64, cg.Float64, cb.Float64}
	}
	return &n, nil
}

func (s *Sim) children(path string) ([]nodeRow, error) {
	rows, err := s.db.Query(
		`SELECT path, parent, name, type, category, pos_x, pos_y,
		        color_r, color_g, color_b, bypassed, displayed
		 FROM nodes WHERE parent = ? ORDER BY path`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []nodeRow
	for rows.Next() {
		var n nodeRow
		var cr, cg, cb sql.NullFloat64
		if err := rows.Scan(&n.Path, &n.Parent, &n.Name, &n.Type, &n.Category,
			&n.PosX, &n.PosY, &cr, &cg, &cb, &n.Bypassed, &n.Displayed); err != nil {
			return nil, err
		}
		if cr.Valid {
			n.Color = []float64{cr.Float64, cg.Float64, cb.Float64}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Sim) childCount(path string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM nodes WHERE path LIKE ? ESCAPE '\' AND path != ?`,
		likeSubtree(path), path).Scan(&n)
	return n, err
}

// likeSubtree builds a LIKE pattern matching every path strictly
// beneath path. Node names routinely contain "_", which is a LIKE
// wildcard, so the prefix is escaped and queries must use ESCAPE '\'.
func likeSubtree(path string) string {
	prefix := path + "/"
	if path == "/" {
		prefix = "/"
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

// uniqueName picks a child name that is free under parent, numbering
// from 1 the way Houdini does.
func (s *Sim) uniqueName(parentPath, base string) (string, error) {
	if base == "" {
		base = "node"
	}
	taken := map[string]bool{}
	kids, err := s.children(parentPath)
	if err != nil {
		return "", err
	}
	for _, k := range kids {
		taken[k.Name] = true
	}
	if !taken[base] {
		return base, nil
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", base, i)
		if !taken[name] {
			return name, nil
		}
	}
}

func childPath(parentPath, name string) string {
	if parentPath == "/" {
		return "/" + name
	}
	return parentPath + "/" + name
}

// categoryFor resolves the network category a new child lands in.
func categoryFor(parent *nodeRow) string {
	switch {
	case parent.Path == "/obj" || parent.Category == "Object" && parent.Type != "geo":
		return "Object"
	case parent.Type == "geo" || parent.Category == "Sop":
		return "Sop"
	case parent.Path == "/mat" || parent.Category == "Vop":
		return "Vop"
	case parent.Path == "/out" || parent.Category == "Driver":
		return "Driver"
	case parent.Type == "dopnet" || parent.Category == "Dop":
		return "Dop"
	case parent.Path == "/stage" || parent.Category == "Lop":
		return "Lop"
	default:
		return "Sop"
	}
}

// addNode inserts a child under parent, auto-placing it below the
// current children when no position is given.
func (s *Sim) addNode(parent *nodeRow, nodeType, name string, position []float64) (*nodeRow, error) {
	name, err := s.uniqueName(parent.Path, name)
	if err != nil {
		return nil, err
	}

	var x, y float64
	if len(position) >= 2 {
		x, y = position[0], position[1]
	} else {
		kids, err := s.children(parent.Path)
		if err != nil {
			return nil, err
		}
		y = -float64(len(kids))
	}

	n := &nodeRow{
		Path:      childPath(parent.Path, name),
		Parent:    parent.Path,
		Name:      name,
		Type:      nodeType,
		Category:  categoryFor(parent),
		PosX:      x,
		PosY:      y,
		Displayed: true,
	}
	_, err = s.db.Exec(
		`INSERT INTO nodes (path, parent, name, type, category, pos_x, pos_y)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.Path, n.Parent, n.Name, n.Type, n.Category, n.PosX, n.PosY)
	if err != nil {
		return nil, err
	}
	if err := s.touch(); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Sim) setParam(nodePath, name string, value any) error {
	enc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode parameter %s: %w", name, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO params (node_path, name, value) VALUES (?, ?, ?)
		 ON CONFLICT (node_path, name) DO UPDATE SET value = excluded.value`,
		nodePath, name, string(enc))
	return err
}

func (s *Sim) param(nodePath, name string) (any, bool, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT value FROM params WHERE node_path = ? AND name = ?`,
		nodePath, name).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *Sim) params(nodePath string) (map[string]any, error) {
	rows, err := s.db.Query(
		`SELECT name, value FROM params WHERE node_path = ?`, nodePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]any{}
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, rows.Err()
}

// touch marks the scene as having unsaved changes.
func (s *Sim) touch() error {
	_, err := s.db.Exec(`UPDATE scene SET modified = 1 WHERE id = 1`)
	return err
}

type sceneRow struct {
	HipFile      string
	Modified     bool
	FPS          float64
	FrameStart   float64
	FrameEnd     float64
	CurrentFrame float64
}

func (s *Sim) scene() (*sceneRow, error) {
	var sc sceneRow
	err := s.db.QueryRow(
		`SELECT hip_file, modified, fps, frame_start, frame_end, current_frame
		 FROM scene WHERE id = 1`).Scan(
		&sc.HipFile, &sc.Modified, &sc.FPS, &sc.FrameStart, &sc.FrameEnd, &sc.CurrentFrame)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// --- Introspection commands -------------------------------------------

// SceneInfo reports the hip file, playbar state and top-level networks.
func (s *Sim) SceneInfo() (any, error) {
	sc, err := s.scene()
	if err != nil {
		return nil, err
	}

	total, err := s.childCount("/")
	if err != nil {
		return nil, err
	}

	top := []map[string]any{}
	kids, err := s.children("/")
	if err != nil {
		return nil, err
	}
	for _, k := range kids {
		cc, err := s.childCount(k.Path)
		if err != nil {
			return nil, err
		}
		top = append(top, map[string]any{
			"name":        k.Name,
			"type":        k.Type,
			"path":        k.Path,
			"child_count": cc,
		})
	}

	return map[string]any{
		"hip_file":        sc.HipFile,
		"name":            filepath.Base(sc.HipFile),
		"modified":        sc.Modified,
		"fps":             sc.FPS,
		"frame_range":     []float64{sc.FrameStart, sc.FrameEnd},
		"current_frame":   sc.CurrentFrame,
		"node_count":      total,
		"top_level_nodes": top,
	}, nil
}

// NodeInfo reports one node with its children, flags and parameters.
func (s *Sim) NodeInfo(path string) (any, error) {
	n, err := s.node(path)
	if err != nil {
		return nil, err
	}

	kids, err := s.children(path)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, k := range kids {
		names = append(names, k.Name)
	}

	parms, err := s.params(path)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"name":            n.Name,
		"type":            n.Type,
		"category":        n.Category,
		"path":            n.Path,
		"position":        []float64{n.PosX, n.PosY},
		"child_count":     len(kids),
		"children":        names,
		"parameter_count": len(parms),
		"parameters":      parms,
		"is_bypassed":     n.Bypassed,
		"is_displayed":    n.Displayed,
	}, nil
}

// ParameterInfo reports one parameter, or all of them when
// parameterName is empty.
func (s *Sim) ParameterInfo(nodePath, parameterName string) (any, error) {
	if _, err := s.node(nodePath); err != nil {
		return nil, err
	}

	if parameterName != "" {
		v, ok, err := s.param(nodePath, parameterName)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("parameter not found: %s", parameterName)
		}
		vec, isVec := v.([]any)
		info := map[string]any{
			"name":      parameterName,
			"label":     parmLabel(parameterName),
			"type":      parmType(v),
			"value":     v,
			"is_vector": isVec,
		}
		if isVec {
			comps := make([]string, len(vec))
			for i := range vec {
				comps[i] = fmt.Sprintf("%s%d", parameterName, i+1)
			}
			info["components"] = comps
		}
		return info, nil
	}

	all, err := s.params(nodePath)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for name, v := range all {
		out[name] = map[string]any{
			"label": parmLabel(name),
			"type":  parmType(v),
			"value": v,
		}
	}
	return map[string]any{"node": nodePath, "parameters": out}, nil
}

func parmLabel(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func parmType(v any) string {
	switch t := v.(type) {
	case bool:
		return "Toggle"
	case string:
		return "String"
	case float64:
		if t == float64(int64(t)) {
			return "Int"
		}
		return "Float"
	case []any:
		return "Float"
	default:
		return "Data"
	}
}

// --- Hip file commands -------------------------------------------------

// SaveHip marks the scene saved under filePath. An empty path reuses
// the current hip file, or a temp path for an untitled scene.
func (s *Sim) SaveHip(filePath string) (any, error) {
	sc, err := s.scene()
	if err != nil {
		return nil, err
	}
	if filePath == "" {
		filePath = sc.HipFile
		if filePath == "" || filePath == "untitled.hip" {
			filePath = filepath.Join(os.TempDir(), "houdinimcp_save.hip")
		}
	}
	if !hasSuffix(filePath, ".hip", ".hipnc", ".hiplc") {
		filePath += ".hip"
	}
	if _, err := s.db.Exec(
		`UPDATE scene SET hip_file = ?, modified = 0 WHERE id = 1`, filePath); err != nil {
		return nil, err
	}
	return map[string]any{
		"success":   true,
		"file_path": filePath,
		"name":      filepath.Base(filePath),
	}, nil
}

// LoadHip switches the session to filePath. The simulated scene graph
// carries over; only the hip identity changes.
func (s *Sim) LoadHip(filePath string) (any, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file_path is required")
	}
	if _, err := s.db.Exec(
		`UPDATE scene SET hip_file = ?, modified = 0 WHERE id = 1`, filePath); err != nil {
		return nil, err
	}
	return map[string]any{
		"success":   true,
		"file_path": filePath,
		"name":      filepath.Base(filePath),
	}, nil
}

// ExecuteCode is not available without a live Houdini interpreter.
func (s *Sim) ExecuteCode(string) (any, error) {
	return nil, fmt.Errorf("execute_code requires a live Houdini session")
}

func hasSuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
