package emit

import (
	"context"
	"sync"
)

// BufferedEmitter keeps every event in memory, keyed by RunID. Intended
// for tests that want to assert on the exact event sequence a run
// produced without standing up a real logging/tracing backend.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.RunID] = append(b.events[event.RunID], event)
}

func (b *BufferedEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		b.Emit(e)
	}
	return nil
}

func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// History returns the events recorded for runID, in publication order.
func (b *BufferedEmitter) History(runID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Event, len(b.events[runID]))
	copy(out, b.events[runID])
	return out
}

// Clear discards recorded events for runID.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.events, runID)
}
