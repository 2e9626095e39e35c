package auxstore

import "testing"

func TestSubmitKeepsBetterExistingScore(t *testing.T) {
	l := NewLeaderboard(10)
	l.Submit("uid-1", "Alice", 50, 1000, 5)
	second := l.Submit("uid-1", "Alice", 80, 2000, 8)

	if second.Score != 50 {
		t.Fatalf("expected the better (lower) existing score 50 to be kept, got %d", second.Score)
	}
	if l.Len() != 1 {
		t.Fatalf("expected exactly 1 entry tracked for uid-1, got %d", l.Len())
	}
}

func TestSubmitReplacesWorseExistingScore(t *testing.T) {
	l := NewLeaderboard(10)
	l.Submit("uid-1", "Alice", 80, 2000, 8)
	better := l.Submit("uid-1", "Alice", 50, 1000, 5)

	if better.Score != 50 {
		t.Fatalf("expected new better score to replace the old one, got %d", better.Score)
	}
	if l.Len() != 1 {
		t.Fatalf("expected exactly 1 entry tracked for uid-1, got %d", l.Len())
	}
}

func TestTopOrdersAscendingByScoreThenTieBreaks(t *testing.T) {
	l := NewLeaderboard(10)
	l.Submit("uid-1", "Alice", 50, 1000, 5)
	l.Submit("uid-2", "Bob", 30, 1000, 5)
	l.Submit("uid-3", "Carl", 30, 500, 5)

	top := l.Top(10)
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].UID != "uid-3" {
		t.Fatalf("expected uid-3 (lower duration tiebreak) first, got %q", top[0].UID)
	}
	if top[1].UID != "uid-2" {
		t.Fatalf("expected uid-2 second, got %q", top[1].UID)
	}
	if top[2].UID != "uid-1" {
		t.Fatalf("expected uid-1 (highest score) last, got %q", top[2].UID)
	}
}

func TestTopDefaultsLimitWhenNonPositive(t *testing.T) {
	l := NewLeaderboard(50)
	for i := 0; i < 15; i++ {
		l.Submit(string(rune('a'+i)), "p", i, 0, 0)
	}
	top := l.Top(0)
	if len(top) != 10 {
		t.Fatalf("expected default limit of 10, got %d", len(top))
	}
}

func TestLeaderboardEvictsWorstEntryOverCapacity(t *testing.T) {
	l := NewLeaderboard(2)
	l.Submit("uid-1", "Alice", 10, 0, 0)
	l.Submit("uid-2", "Bob", 20, 0, 0)
	l.Submit("uid-3", "Carl", 5, 0, 0)

	if l.Len() != 2 {
		t.Fatalf("expected cap of 2 entries, got %d", l.Len())
	}
	top := l.Top(10)
	for _, e := range top {
		if e.UID == "uid-2" {
			t.Fatal("expected the worst (highest score) entry to be evicted")
		}
	}
}

func TestLeaderboardSnapshotRestoreRoundTrip(t *testing.T) {
	l := NewLeaderboard(10)
	l.Submit("uid-1", "Alice", 10, 0, 0)

	entries, byUID := l.Snapshot()

	restored := NewLeaderboard(10)
	restored.Restore(entries, byUID)

	if restored.Len() != 1 {
		t.Fatalf("expected 1 restored entry, got %d", restored.Len())
	}
}
