package agent

import (
	"sync"
	"time"
)

// Metrics accumulates per-process agent performance counters, read
// through Snapshot. Of these, only cache hits also reach
// PrometheusEmitter, via the controller's cache_hit events.
type Metrics struct {
	mu                sync.Mutex
	totalCalls        int
	totalTime         time.Duration
	errorCount        int
	lastResponseTime  time.Duration
	toolUsage         map[string]int
	cacheHits         int
	cacheMisses       int
	semanticCacheHits int
	retryCount        int
}

// NewMetrics returns a zeroed Metrics ready to record.
func NewMetrics() *Metrics {
	return &Metrics{toolUsage: make(map[string]int)}
}

func (m *Metrics) RecordCall(d time.Duration, isError bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalCalls++
	m.totalTime += d
	m.lastResponseTime = d
	if isError {
		m.errorCount++
	}
}

func (m *Metrics) RecordToolUsage(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolUsage[name]++
}

func (m *Metrics) RecordCacheAccess(hit, semantic bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
		if semantic {
			m.semanticCacheHits++
		}
	} else {
		m.cacheMisses++
	}
}

func (m *Metrics) RecordRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryCount++
}

// Snapshot is an immutable copy of Metrics' derived and raw figures, safe
// to read without the lock.
type Snapshot struct {
	TotalCalls            int
	AverageResponseTime   time.Duration
	ErrorRate             float64
	CacheHitRate          float64
	SemanticCacheHitRate  float64
	RetryCount            int
	ToolUsage             map[string]int
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		TotalCalls: m.totalCalls,
		RetryCount: m.retryCount,
		ToolUsage:  make(map[string]int, len(m.toolUsage)),
	}
	for k, v := range m.toolUsage {
		s.ToolUsage[k] = v
	}
	if m.totalCalls > 0 {
		s.AverageResponseTime = m.totalTime / time.Duration(m.totalCalls)
		s.ErrorRate = float64(m.errorCount) / float64(m.totalCalls)
	}
	if total := m.cacheHits + m.cacheMisses; total > 0 {
		s.CacheHitRate = float64(m.cacheHits) / float64(total)
	}
	if m.cacheHits > 0 {
		s.SemanticCacheHitRate = float64(m.semanticCacheHits) / float64(m.cacheHits)
	}
	return s
}
