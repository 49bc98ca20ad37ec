package catalog

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeMissingParams(t *testing.T) {
	var p CreateNodeParams
	if err := decode(nil, &p); err != nil {
		t.Fatalf("decode(nil): %v", err)
	}
	if p.NodeType != "" || p.ParentPath != "" {
		t.Errorf("zero value expected, got %+v", p)
	}
}

func TestDecodeRejectsMalformedParams(t *testing.T) {
	var p CreateNodeParams
	err := decode(json.RawMessage(`{"node_type": 7}`), &p)
	if err == nil {
		t.Fatal("want error for wrong field type")
	}
	if !strings.Contains(err.Error(), "invalid params") {
		t.Errorf("error = %v", err)
	}
}

func TestDecodeFillsTypedStruct(t *testing.T) {
	var p ConnectNodesParams
	raw := json.RawMessage(`{"from_path":"/obj/a","to_path":"/obj/b","from_output":1,"to_input":2}`)
	if err := decode(raw, &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.FromPath != "/obj/a" || p.ToInput != 2 {
		t.Errorf("decoded = %+v", p)
	}
}
