package nodes

import (
	"context"
	"testing"
)

func TestAddExecute(t *testing.T) {
	out, err := (Add{}).Execute(context.Background(), map[string]interface{}{"a": 2.0, "b": 3.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["result"] != 5.0 {
		t.Fatalf("want 5, got %v", out["result"])
	}
}

func TestAddExecuteMissingParam(t *testing.T) {
	if _, err := (Add{}).Execute(context.Background(), map[string]interface{}{"a": 2.0}); err == nil {
		t.Fatalf("want error for missing b")
	}
}

func TestMultiplyExecute(t *testing.T) {
	out, err := (Multiply{}).Execute(context.Background(), map[string]interface{}{"a": 4.0, "b": 5.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["result"] != 20.0 {
		t.Fatalf("want 20, got %v", out["result"])
	}
}

func TestMultiplyExecuteWrongType(t *testing.T) {
	if _, err := (Multiply{}).Execute(context.Background(), map[string]interface{}{"a": "nope", "b": 5.0}); err == nil {
		t.Fatalf("want error for non-numeric a")
	}
}
