package wsfanout

import "testing"

func TestHubRegisterThenSnapshotReturnsClient(t *testing.T) {
	h := NewHub()
	c := &Client{sessionID: "s1", playerID: "p1", send: make(chan []byte, 4)}
	h.register(c)

	got := h.snapshot("s1")
	if len(got) != 1 || got[0] != c {
		t.Fatalf("expected the registered client back, got %v", got)
	}
}

func TestHubUnregisterRemovesClientAndEmptySessionEntry(t *testing.T) {
	h := NewHub()
	c := &Client{sessionID: "s1", playerID: "p1", send: make(chan []byte, 4)}
	h.register(c)
	h.unregister(c)

	if got := h.snapshot("s1"); len(got) != 0 {
		t.Fatalf("expected no subscribers after unregister, got %d", len(got))
	}
	h.mu.Lock()
	_, stillPresent := h.subs["s1"]
	h.mu.Unlock()
	if stillPresent {
		t.Fatal("expected the empty session's subscriber set to be pruned")
	}
}

func TestHubBroadcastExcludesGivenPlayer(t *testing.T) {
	h := NewHub()
	c1 := &Client{sessionID: "s1", playerID: "p1", send: make(chan []byte, 4)}
	c2 := &Client{sessionID: "s1", playerID: "p2", send: make(chan []byte, 4)}
	h.register(c1)
	h.register(c2)

	h.Broadcast("s1", map[string]any{"type": "ping"}, "p1")

	select {
	case <-c1.send:
		t.Fatal("expected excluded player p1 to receive nothing")
	default:
	}
	select {
	case <-c2.send:
	default:
		t.Fatal("expected p2 to receive the broadcast message")
	}
}

func TestHubBroadcastToTargetsSinglePlayer(t *testing.T) {
	h := NewHub()
	c1 := &Client{sessionID: "s1", playerID: "p1", send: make(chan []byte, 4)}
	c2 := &Client{sessionID: "s1", playerID: "p2", send: make(chan []byte, 4)}
	h.register(c1)
	h.register(c2)

	h.BroadcastTo("s1", "p2", map[string]any{"type": "resync"})

	select {
	case <-c1.send:
		t.Fatal("expected p1 to receive nothing from a targeted send")
	default:
	}
	select {
	case <-c2.send:
	default:
		t.Fatal("expected p2 to receive the targeted message")
	}
}

func TestHubEnqueueDropsWhenSendBufferFull(t *testing.T) {
	c := &Client{sessionID: "s1", playerID: "p1", send: make(chan []byte, 1)}
	c.enqueue([]byte("a"))
	c.enqueue([]byte("b")) // buffer full, should drop rather than block

	if len(c.send) != 1 {
		t.Fatalf("expected exactly 1 buffered message, got %d", len(c.send))
	}
}
