package emit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusEmitter records the handful of counters/histograms that make
// a running service's workflow and agent health visible: run outcomes,
// per-node latency, agent iteration count, and cache hit rate. It
// interprets Event.Msg the way the scheduler and agent controller name
// their events (see dag.Scheduler and agent.Controller).
type PrometheusEmitter struct {
	runsTotal       *prometheus.CounterVec
	nodeDuration    *prometheus.HistogramVec
	agentIterations prometheus.Counter
	cacheHitsTotal  *prometheus.CounterVec
}

// NewPrometheusEmitter registers its metrics with registry; a nil
// registry means prometheus.DefaultRegisterer. The server package does
// not serve a /metrics endpoint.
func NewPrometheusEmitter(registry prometheus.Registerer) *PrometheusEmitter {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusEmitter{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgraph",
			Name:      "workflow_runs_total",
			Help:      "Completed workflow runs by terminal status.",
		}, []string{"status"}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentgraph",
			Name:      "node_duration_seconds",
			Help:      "Node execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node_type", "status"}),
		agentIterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "agentgraph",
			Name:      "agent_iterations_total",
			Help:      "Think/act cycles executed by the agent controller.",
		}),
		cacheHitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgraph",
			Name:      "cache_hits_total",
			Help:      "Agent LLM-response cache hits by tier.",
		}, []string{"tier"}),
	}
}

func (p *PrometheusEmitter) Emit(event Event) {
	switch event.Msg {
	case "workflow_complete":
		if status, ok := event.Meta["status"].(string); ok {
			p.runsTotal.WithLabelValues(status).Inc()
		}
	case "node_end":
		status, _ := event.Meta["status"].(string)
		nodeType, _ := event.Meta["node_type"].(string)
		if d, ok := event.Meta["duration"].(time.Duration); ok {
			p.nodeDuration.WithLabelValues(nodeType, status).Observe(d.Seconds())
		}
	case "agent_thinking":
		p.agentIterations.Inc()
	case "cache_hit":
		if tier, ok := event.Meta["tier"].(string); ok {
			p.cacheHitsTotal.WithLabelValues(tier).Inc()
		}
	}
}

func (p *PrometheusEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		p.Emit(e)
	}
	return nil
}

func (p *PrometheusEmitter) Flush(context.Context) error { return nil }
