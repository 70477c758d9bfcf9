// Command server runs the workflow/agent HTTP surface: node registry,
// worker pool, stream multiplexer, and the gin router that exposes them.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/dshills/agentgraph-go/agent"
	"github.com/dshills/agentgraph-go/config"
	"github.com/dshills/agentgraph-go/dag"
	"github.com/dshills/agentgraph-go/emit"
	"github.com/dshills/agentgraph-go/llm"
	"github.com/dshills/agentgraph-go/llm/anthropic"
	"github.com/dshills/agentgraph-go/llm/google"
	"github.com/dshills/agentgraph-go/llm/openai"
	"github.com/dshills/agentgraph-go/nodes"
	"github.com/dshills/agentgraph-go/server"
	"github.com/dshills/agentgraph-go/stream"
	"github.com/dshills/agentgraph-go/tool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	emitter := buildEmitter(cfg)
	transport := buildTransport(cfg)
	pool := dag.NewWorkerPool(cfg.WorkerPoolSize)
	streams := stream.New()

	registry, err := buildRegistry(cfg, transport, pool, emitter)
	if err != nil {
		log.Fatalf("build node registry: %v", err)
	}

	controller, err := buildController(cfg, registry, transport, emitter, streams)
	if err != nil {
		log.Printf("agent mode disabled: %v", err)
	}

	srv := server.New(registry, pool, emitter, streams, transport, controller)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Engine(),
	}

	go func() {
		log.Printf("listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	_ = emitter.Flush(ctx)
}

// buildTransport picks the configured provider's chat model as Primary.
// All three adapters are wired because the registry's chat node and the
// agent controller share one Transport; switching providers is a config
// change, not a rebuild.
func buildTransport(cfg config.Config) *llm.Transport {
	var primary llm.ChatModel
	switch cfg.Provider {
	case "anthropic":
		primary = anthropic.NewChatModel(cfg.AnthropicAPIKey, cfg.ModelName)
	case "google":
		primary = google.NewChatModel(cfg.GoogleAPIKey, cfg.ModelName)
	default:
		primary = openai.NewChatModel(cfg.APIKey, cfg.ModelName)
	}

	transport := llm.NewTransport(primary)
	transport.Timeout = cfg.LLMTimeout
	transport.ContextLengthThreshold = cfg.ContextLengthThreshold
	if cfg.LongContextModel != "" {
		transport.LongContext = openai.NewChatModel(cfg.APIKey, cfg.LongContextModel)
	}
	return transport
}

// buildEmitter fans every event out to a rotating log file, an OTel
// tracer, and the process's default Prometheus registry, matching the
// three observability concerns the node executor and agent controller
// were built to drive (see emit package doc).
func buildEmitter(cfg config.Config) emit.Emitter {
	logEmitter := emit.NewRotatingLogEmitter(cfg.LogFilePath)
	tracer := otel.Tracer("agentgraph-go")
	otelEmitter := emit.NewOTelEmitter(tracer)
	promEmitter := emit.NewPrometheusEmitter(nil)
	return emit.NewMulti(logEmitter, otelEmitter, promEmitter)
}

// buildRegistry registers every node type, including loop_node against a
// sub-registry that excludes itself so a loop body can never re-enter the
// loop node.
func buildRegistry(cfg config.Config, transport *llm.Transport, pool *dag.WorkerPool, emitter emit.Emitter) (*dag.Registry, error) {
	registry := dag.NewRegistry()

	if err := registry.Register(nodes.AddDescriptor, func() dag.Node { return &nodes.Add{} }); err != nil {
		return nil, err
	}
	if err := registry.Register(nodes.MultiplyDescriptor, func() dag.Node { return &nodes.Multiply{} }); err != nil {
		return nil, err
	}
	if err := registry.Register(nodes.FileWriteDescriptor, func() dag.Node { return &nodes.FileWrite{} }); err != nil {
		return nil, err
	}
	if err := registry.Register(nodes.HTTPFetchDescriptor, func() dag.Node { return nodes.NewHTTPFetch() }); err != nil {
		return nil, err
	}
	if err := registry.Register(nodes.ChatDescriptor, func() dag.Node { return nodes.NewChat(transport) }); err != nil {
		return nil, err
	}

	indexBuild, err := nodes.NewIndexBuild(cfg.DocDir, cfg.IndexDir)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(nodes.IndexBuildDescriptor, func() dag.Node { return indexBuild }); err != nil {
		return nil, err
	}
	if err := registry.Register(nodes.SerperSearchDescriptor, func() dag.Node { return nodes.NewSerperSearch(cfg.SerperAPIKey, indexBuild) }); err != nil {
		return nil, err
	}

	if cfg.MySQLDSN != "" {
		dbExecute, err := nodes.NewDBExecute(cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(nodes.DBExecuteDescriptor, func() dag.Node { return dbExecute }); err != nil {
			return nil, err
		}
	}

	loopRegistry := registry.WithoutType(nodes.LoopNodeDescriptor.Type)
	if err := registry.Register(nodes.LoopNodeDescriptor, func() dag.Node { return nodes.NewLoopNode(loopRegistry, pool, emitter) }); err != nil {
		return nil, err
	}

	return registry, nil
}

// publishToStream builds the PublishFunc both the agent controller and
// its tools use to forward their lifecycle events onto a session's SSE
// stream, alongside whatever emitter already records for observability.
func publishToStream(streams *stream.Multiplexer) func(sessionID, eventTag string, data interface{}) {
	return func(sessionID, eventTag string, data interface{}) {
		_ = streams.Publish(sessionID, stream.NewEvent(eventTag, data))
	}
}

// buildController builds the agent's tool set from every registered node
// and wraps it in a Controller. A registry with no nodes never happens in
// practice (buildRegistry always registers at least the arithmetic
// nodes), but NewController's own nil-tools guard is what actually
// enforces it.
func buildController(cfg config.Config, registry *dag.Registry, transport *llm.Transport, emitter emit.Emitter, streams *stream.Multiplexer) (*agent.Controller, error) {
	publish := publishToStream(streams)

	var tools []*tool.Tool
	for _, d := range registry.Descriptors() {
		node, err := registry.New(d.Type)
		if err != nil {
			return nil, err
		}
		t := tool.New(d, node, cfg.ToolMaxRetries, cfg.ToolRetryDelay, emitter)
		t.Publish = publish
		tools = append(tools, t)
	}

	toolSet := tool.NewSet(tools...)
	controller, err := agent.NewController(toolSet, "Answer the user's question, using tools as needed.", transport)
	if err != nil {
		return nil, err
	}
	controller.Emitter = emitter
	controller.Publish = publish
	return controller, nil
}
