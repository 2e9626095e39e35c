package auxstore

import "testing"

type rawEntry = struct {
	SessionID string
	Event     string
	Payload   map[string]any
}

func TestAppendBatchAcceptsValidEntries(t *testing.T) {
	g := NewGameLog(10)
	raws := []rawEntry{
		{SessionID: "s1", Event: "turn_started"},
		{SessionID: "s1", Event: "turn_ended"},
	}
	results := g.AppendBatch("p1", raws)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Failed || r.LogID == "" || r.Index != i {
			t.Fatalf("expected result %d to succeed with a log id, got %+v", i, r)
		}
	}
	if g.Len() != 2 {
		t.Fatalf("expected 2 entries queued, got %d", g.Len())
	}
}

func TestAppendBatchRejectsMissingEvent(t *testing.T) {
	g := NewGameLog(10)
	raws := []rawEntry{{SessionID: "s1", Event: ""}}
	results := g.AppendBatch("p1", raws)

	if len(results) != 1 || !results[0].Failed || results[0].Reason == "" {
		t.Fatalf("expected a failed result with a reason, got %+v", results)
	}
	if g.Len() != 0 {
		t.Fatalf("expected nothing queued, got %d", g.Len())
	}
}

func TestAppendBatchEvictsOldestOnceOverCap(t *testing.T) {
	g := NewGameLog(2)
	g.AppendBatch("p1", []rawEntry{
		{Event: "a"}, {Event: "b"}, {Event: "c"},
	})
	if g.Len() != 2 {
		t.Fatalf("expected queue capped at 2, got %d", g.Len())
	}
}

func TestGameLogSnapshotRestoreRoundTrip(t *testing.T) {
	g := NewGameLog(10)
	g.AppendBatch("p1", []rawEntry{{Event: "a"}, {Event: "b"}})

	entries, order := g.Snapshot()

	restored := NewGameLog(10)
	restored.Restore(entries, order)

	if restored.Len() != 2 {
		t.Fatalf("expected 2 restored entries, got %d", restored.Len())
	}
}

func TestGameLogRestoreTrimsToCapacity(t *testing.T) {
	g := NewGameLog(10)
	g.AppendBatch("p1", []rawEntry{{Event: "a"}, {Event: "b"}, {Event: "c"}})
	entries, order := g.Snapshot()

	restored := NewGameLog(1)
	restored.Restore(entries, order)

	if restored.Len() != 1 {
		t.Fatalf("expected restore to trim to cap of 1, got %d", restored.Len())
	}
}
