package dag

import "testing"

func TestValidateDuplicateID(t *testing.T) {
	reg := NewRegistry()
	g := &Graph{Nodes: []NodeSpec{{ID: "a", Type: "echo"}, {ID: "a", Type: "echo"}}}
	err := Validate(g, reg)
	if ee, ok := err.(*EngineError); !ok || ee.Code != CodeDuplicateID {
		t.Fatalf("want CodeDuplicateID, got %v", err)
	}
}

func TestValidateUnknownType(t *testing.T) {
	reg := NewRegistry()
	g := &Graph{Nodes: []NodeSpec{{ID: "a", Type: "nonexistent"}}}
	err := Validate(g, reg)
	if ee, ok := err.(*EngineError); !ok || ee.Code != CodeUnknownType {
		t.Fatalf("want CodeUnknownType, got %v", err)
	}
}

func TestValidateDanglingEdge(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Descriptor{Type: "echo"}, func() Node { return nil }); err != nil {
		t.Fatal(err)
	}
	g := &Graph{
		Nodes: []NodeSpec{{ID: "a", Type: "echo"}},
		Edges: []Edge{{From: "a", To: "ghost"}},
	}
	err := Validate(g, reg)
	if ee, ok := err.(*EngineError); !ok || ee.Code != CodeDanglingEdge {
		t.Fatalf("want CodeDanglingEdge, got %v", err)
	}
}

func TestValidateCycleRejected(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Descriptor{Type: "echo"}, func() Node { return nil }); err != nil {
		t.Fatal(err)
	}
	g := &Graph{
		Nodes: []NodeSpec{{ID: "a", Type: "echo"}, {ID: "b", Type: "echo"}, {ID: "c", Type: "echo"}},
		Edges: []Edge{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "a"}},
	}
	err := Validate(g, reg)
	if ee, ok := err.(*EngineError); !ok || ee.Code != CodeCycle {
		t.Fatalf("want CodeCycle, got %v", err)
	}
}

func TestValidateDiamondAccepted(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Descriptor{Type: "echo"}, func() Node { return nil }); err != nil {
		t.Fatal(err)
	}
	g := &Graph{
		Nodes: []NodeSpec{{ID: "a", Type: "echo"}, {ID: "b", Type: "echo"}, {ID: "c", Type: "echo"}, {ID: "d", Type: "echo"}},
		Edges: []Edge{{From: "a", To: "b"}, {From: "a", To: "c"}, {From: "b", To: "d"}, {From: "c", To: "d"}},
	}
	if err := Validate(g, reg); err != nil {
		t.Fatalf("diamond graph should validate, got %v", err)
	}
}
