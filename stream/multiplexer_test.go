package stream

import "testing"

func TestPublishBeforeSubscribeReplaysBuffer(t *testing.T) {
	m := New()
	if err := m.Create("sess-1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Publish("sess-1", Event{Event: "status", Data: "early"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := m.Publish("sess-1", Event{Event: "complete", Data: "done"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	events, err := m.Subscribe("sess-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	first := <-events
	if first.Event != "status" || first.Data != "early" {
		t.Fatalf("want replayed status event, got %+v", first)
	}
	second := <-events
	if second.Event != "complete" {
		t.Fatalf("want complete event, got %+v", second)
	}
	if _, ok := <-events; ok {
		t.Fatalf("channel should close after terminal event")
	}
}

func TestSecondSubscriberRejected(t *testing.T) {
	m := New()
	_ = m.Create("sess-2")

	events, err := m.Subscribe("sess-2")
	if err != nil {
		t.Fatalf("first subscribe: %v", err)
	}

	if _, err := m.Subscribe("sess-2"); err != ErrAlreadySubscribed {
		t.Fatalf("want ErrAlreadySubscribed, got %v", err)
	}

	_ = m.Publish("sess-2", Event{Event: "complete", Data: "done"})
	<-events
}

func TestPublishToUnknownSession(t *testing.T) {
	m := New()
	if err := m.Publish("ghost", Event{Event: "status", Data: "x"}); err != ErrNoSuchSession {
		t.Fatalf("want ErrNoSuchSession, got %v", err)
	}
}

func TestDuplicateCreateRejected(t *testing.T) {
	m := New()
	_ = m.Create("dup")
	if err := m.Create("dup"); err != ErrDuplicateSession {
		t.Fatalf("want ErrDuplicateSession, got %v", err)
	}
}

func TestDestroyStopsFurtherPublish(t *testing.T) {
	m := New()
	_ = m.Create("sess-3")
	m.Destroy("sess-3")
	if err := m.Publish("sess-3", Event{Event: "status", Data: "x"}); err != ErrNoSuchSession {
		t.Fatalf("want ErrNoSuchSession after destroy, got %v", err)
	}
}
