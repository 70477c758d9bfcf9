package stream

import (
	"errors"
	"sync"
)

// ErrNoSuchSession is returned by Publish and Subscribe for a session_id
// that was never created, or that already terminated and was reaped.
var ErrNoSuchSession = errors.New("no such session")

// ErrDuplicateSession is returned by Create when session_id already
// exists.
var ErrDuplicateSession = errors.New("session already exists")

// ErrAlreadySubscribed is returned by Subscribe when a session already
// has a live subscriber; the contract allows at most one.
var ErrAlreadySubscribed = errors.New("session already has a subscriber")

type session struct {
	mu         sync.Mutex
	cond       *sync.Cond
	events     []Event
	terminated bool
	subscribed bool
}

// Multiplexer is the process-wide registry of session queues. One
// Multiplexer is shared by every workflow and agent run in the process;
// it holds no reference to any particular scheduler.
type Multiplexer struct {
	mu       sync.Mutex
	sessions map[string]*session
}

// New builds an empty Multiplexer.
func New() *Multiplexer {
	return &Multiplexer{sessions: make(map[string]*session)}
}

// Create registers a new, empty queue for sessionID.
func (m *Multiplexer) Create(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; ok {
		return ErrDuplicateSession
	}
	s := &session{}
	s.cond = sync.NewCond(&s.mu)
	m.sessions[sessionID] = s
	return nil
}

// Publish appends event to sessionID's queue and wakes any blocked
// subscriber. It never blocks on the subscriber draining the queue.
func (m *Multiplexer) Publish(sessionID string, event Event) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return ErrNoSuchSession
	}
	s.events = append(s.events, event)
	if event.terminal() {
		s.terminated = true
	}
	s.cond.Broadcast()
	return nil
}

// Subscribe returns a channel that yields sessionID's events in
// publication order, starting from the beginning of the buffered queue
// regardless of how much was published before this call. The channel is
// closed once a terminal event has been delivered. Only one subscriber
// may be live on a session at a time.
func (m *Multiplexer) Subscribe(sessionID string) (<-chan Event, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.subscribed {
		s.mu.Unlock()
		return nil, ErrAlreadySubscribed
	}
	s.subscribed = true
	s.mu.Unlock()

	out := make(chan Event)
	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			s.subscribed = false
			s.mu.Unlock()
		}()

		idx := 0
		for {
			s.mu.Lock()
			for idx >= len(s.events) && !s.terminated {
				s.cond.Wait()
			}
			var pending []Event
			if idx < len(s.events) {
				pending = append(pending, s.events[idx:]...)
				idx = len(s.events)
			}
			terminated := s.terminated
			s.mu.Unlock()

			for _, ev := range pending {
				out <- ev
			}
			if terminated {
				return
			}
		}
	}()
	return out, nil
}

// Destroy removes sessionID's queue immediately, regardless of whether it
// reached a terminal event. Subsequent Publish/Subscribe calls for it
// report ErrNoSuchSession.
func (m *Multiplexer) Destroy(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.mu.Lock()
		s.terminated = true
		s.cond.Broadcast()
		s.mu.Unlock()
		delete(m.sessions, sessionID)
	}
}

func (m *Multiplexer) lookup(sessionID string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNoSuchSession
	}
	return s, nil
}
