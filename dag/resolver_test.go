package dag

import (
	"reflect"
	"testing"
)

func TestResolveParamsSingleExpression(t *testing.T) {
	progress := Progress{
		"fetch": {NodeID: "fetch", Success: true, Status: StatusCompleted, Data: map[string]interface{}{"status_code": float64(200)}},
	}
	params := map[string]interface{}{"code": "$fetch.status_code"}

	out, err := ResolveParams(params, progress, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["code"] != float64(200) {
		t.Fatalf("want 200, got %v", out["code"])
	}
}

func TestResolveParamsEmbeddedExpression(t *testing.T) {
	progress := Progress{
		"search": {NodeID: "search", Success: true, Status: StatusCompleted, Data: map[string]interface{}{"results": "3 hits"}},
	}
	params := map[string]interface{}{"prompt": "Summarize: $search.results"}

	out, err := ResolveParams(params, progress, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["prompt"] != "Summarize: 3 hits" {
		t.Fatalf("want embedded substitution, got %q", out["prompt"])
	}
}

func TestResolveParamsContextTakesPrecedence(t *testing.T) {
	progress := Progress{
		"item": {NodeID: "item", Success: true, Status: StatusCompleted, Data: map[string]interface{}{"name": "from-progress"}},
	}
	ctx := map[string]interface{}{"item": map[string]interface{}{"name": "widget"}}
	params := map[string]interface{}{"label": "$item.name"}

	out, err := ResolveParams(params, progress, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["label"] != "widget" {
		t.Fatalf("want widget, got %v", out["label"])
	}
}

func TestResolveParamsUnresolvedRef(t *testing.T) {
	_, err := ResolveParams(map[string]interface{}{"x": "$missing.field"}, Progress{}, nil)
	ee, ok := err.(*EngineError)
	if !ok || ee.Code != CodeUnresolvedRef {
		t.Fatalf("want CodeUnresolvedRef, got %v", err)
	}
}

func TestResolveParamsFailedDependencyHasNoData(t *testing.T) {
	progress := Progress{
		"a": {NodeID: "a", Success: false, Status: StatusFailed, Error: "boom"},
	}
	_, err := ResolveParams(map[string]interface{}{"x": "$a.field"}, progress, nil)
	ee, ok := err.(*EngineError)
	if !ok || ee.Code != CodeNoData {
		t.Fatalf("want CodeNoData, got %v", err)
	}
}

func TestResolveParamsRecursesIntoNestedStructures(t *testing.T) {
	progress := Progress{
		"a": {NodeID: "a", Success: true, Status: StatusCompleted, Data: map[string]interface{}{"value": "v"}},
	}
	params := map[string]interface{}{
		"nested": map[string]interface{}{"list": []interface{}{"$a.value", "literal"}},
	}
	out, err := ResolveParams(params, progress, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]interface{}{"list": []interface{}{"v", "literal"}}
	if !reflect.DeepEqual(out["nested"], want) {
		t.Fatalf("want %#v, got %#v", want, out["nested"])
	}
}
