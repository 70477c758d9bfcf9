package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dshills/agentgraph-go/dag"
	"github.com/dshills/agentgraph-go/emit"
	"github.com/dshills/agentgraph-go/stream"
)

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	reg := dag.NewRegistry()
	_ = reg.Register(dag.Descriptor{Type: "pass"}, func() dag.Node {
		return dag.NodeFunc(func(_ context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{"ok": true}, nil
		})
	})
	pool := dag.NewWorkerPool(2)
	return New(reg, pool, emit.NewNullEmitter(), stream.New(), nil, nil)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["success"] != true {
		t.Fatalf("want success=true, got %v", body)
	}
}

func TestHandleExecuteWorkflowDiamond(t *testing.T) {
	srv := newTestServer()
	payload := map[string]interface{}{
		"workflow": map[string]interface{}{
			"nodes": []map[string]interface{}{
				{"id": "a", "type": "pass"}, {"id": "b", "type": "pass"},
				{"id": "c", "type": "pass"}, {"id": "d", "type": "pass"},
			},
			"edges": []map[string]interface{}{
				{"from": "a", "to": "b"}, {"from": "a", "to": "c"},
				{"from": "b", "to": "d"}, {"from": "c", "to": "d"},
			},
		},
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/execute_workflow", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["success"] != true {
		t.Fatalf("want success=true, got %v", resp)
	}
}

func TestHandleExecuteWorkflowRejectsCycle(t *testing.T) {
	srv := newTestServer()
	payload := map[string]interface{}{
		"workflow": map[string]interface{}{
			"nodes": []map[string]interface{}{{"id": "a", "type": "pass"}, {"id": "b", "type": "pass"}},
			"edges": []map[string]interface{}{{"from": "a", "to": "b"}, {"from": "b", "to": "a"}},
		},
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/execute_workflow", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for cyclic graph, got %d", rec.Code)
	}
}

func TestHandleChatRejectsUnknownModel(t *testing.T) {
	srv := newTestServer()
	body, _ := json.Marshal(map[string]string{"text": "hi", "model": "not-a-mode"})

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for unknown model, got %d", rec.Code)
	}
}

func TestHandleChatRejectsAgentModeWithoutController(t *testing.T) {
	srv := newTestServer()
	body, _ := json.Marshal(map[string]string{"text": "hi", "model": "agent"})

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 when agent mode has no controller, got %d", rec.Code)
	}
}
