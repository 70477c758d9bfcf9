// Package server exposes the DAG workflow engine and ReAct agent
// controller over HTTP: a health check, a session-based chat endpoint
// backed by Server-Sent Events, and a synchronous workflow-execution
// endpoint for direct programmatic callers.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/dshills/agentgraph-go/agent"
	"github.com/dshills/agentgraph-go/dag"
	"github.com/dshills/agentgraph-go/emit"
	"github.com/dshills/agentgraph-go/llm"
	"github.com/dshills/agentgraph-go/stream"
)

// Server wires every request-serving dependency into gin routes. It owns
// no process-lifecycle state beyond what's passed in — main() builds and
// closes everything it holds.
type Server struct {
	Registry   *dag.Registry
	Pool       *dag.WorkerPool
	Emitter    emit.Emitter
	Streams    *stream.Multiplexer
	Transport  *llm.Transport // workflow synthesis and direct-answer fallback
	Controller *agent.Controller

	engine *gin.Engine
}

// New builds a Server. A nil Controller is valid: agent-mode chat
// requests fail with a 400 until one is configured.
func New(registry *dag.Registry, pool *dag.WorkerPool, emitter emit.Emitter, streams *stream.Multiplexer, transport *llm.Transport, controller *agent.Controller) *Server {
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	s := &Server{Registry: registry, Pool: pool, Emitter: emitter, Streams: streams, Transport: transport, Controller: controller}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), otelgin.Middleware("agentgraph-go"))
	s.routes()
	return s
}

// Engine returns the underlying gin.Engine, for http.ListenAndServe or
// tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/chat", s.handleChat)
	s.engine.GET("/stream/:id", s.handleStream)
	s.engine.POST("/execute_workflow", s.handleExecuteWorkflow)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"event": "health_check", "success": true, "data": gin.H{"status": "healthy"}})
}
