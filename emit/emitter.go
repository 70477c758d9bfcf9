package emit

import "context"

// Emitter receives observability events from the scheduler, executor, and
// agent controller. Implementations must not block the caller for long
// and must never panic — a broken observability sink must not break a
// workflow run.
type Emitter interface {
	// Emit sends a single event. Must not panic.
	Emit(event Event)

	// EmitBatch sends several events at once, preserving order. Returns
	// an error only for catastrophic, non-per-event failures.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events have been sent. Safe to
	// call more than once.
	Flush(ctx context.Context) error
}

// Multi fans one event out to several emitters, in order, so a run can
// log, trace, and record metrics for the same event without the caller
// choosing just one sink.
type Multi struct {
	emitters []Emitter
}

// NewMulti builds a fan-out Emitter over the given sinks.
func NewMulti(emitters ...Emitter) *Multi {
	return &Multi{emitters: emitters}
}

func (m *Multi) Emit(event Event) {
	for _, e := range m.emitters {
		e.Emit(event)
	}
}

func (m *Multi) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range m.emitters {
		if err := e.EmitBatch(ctx, events); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) Flush(ctx context.Context) error {
	for _, e := range m.emitters {
		if err := e.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}
