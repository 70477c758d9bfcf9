package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dshills/agentgraph-go/dag"
)

type chatRequest struct {
	Text  string `json:"text" binding:"required"`
	Model string `json:"model"`
}

// handleChat creates a session and launches its producer in the
// background, returning the chat_id the caller subscribes to at
// /stream/:id. The response returns before the producer has published
// anything.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Model == "" {
		req.Model = "workflow"
	}
	if req.Model != "workflow" && req.Model != "agent" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("unknown model %q, want \"workflow\" or \"agent\"", req.Model)})
		return
	}
	if req.Model == "agent" && s.Controller == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "agent mode is not configured on this server"})
		return
	}

	chatID := uuid.New().String()
	if err := s.Streams.Create(chatID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	// The producer must outlive this request: a client fetches chat_id
	// here and subscribes to /stream/:id in a later, separate request,
	// so the goroutine below cannot be tied to c.Request.Context(),
	// which gin cancels the moment this handler returns.
	ctx := context.Background()
	switch req.Model {
	case "agent":
		go s.processAgent(ctx, chatID, req.Text)
	default:
		go s.processWorkflow(ctx, chatID, req.Text)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "chat_id": chatID})
}

// handleStream subscribes the caller to chatID's event queue and relays
// each event as an SSE frame until a terminal event closes the channel
// or the client disconnects.
func (s *Server) handleStream(c *gin.Context) {
	chatID := c.Param("id")
	events, err := s.Streams.Subscribe(chatID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, ev.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

type executeWorkflowRequest struct {
	Workflow     dag.Graph              `json:"workflow"`
	GlobalParams map[string]interface{} `json:"global_params"`
}

// handleExecuteWorkflow validates and runs a caller-supplied graph to
// completion synchronously, returning every node's final result. Unlike
// /chat, there is no session and no SSE stream: the whole run happens
// within the request.
func (s *Server) handleExecuteWorkflow(c *gin.Context) {
	var req executeWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := dag.Validate(&req.Workflow, s.Registry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	executor := dag.NewExecutor(s.Pool, s.Emitter)
	scheduler := dag.NewScheduler(&req.Workflow, s.Registry, executor, s.Emitter, uuid.New().String())
	progress, status := scheduler.Execute(c.Request.Context(), map[string]interface{}{"global": req.GlobalParams})

	events := make([]gin.H, 0, len(progress))
	for _, n := range req.Workflow.Nodes {
		r, ok := progress[n.ID]
		if !ok {
			continue
		}
		events = append(events, gin.H{
			"node_id": n.ID,
			"success": r.Success,
			"data":    r.Data,
			"error":   r.Error,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"event":   "execute_workflow",
		"success": status == dag.WorkflowCompleted,
		"data": gin.H{
			"workflow": req.Workflow,
			"events":   events,
		},
	})
}
