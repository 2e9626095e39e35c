package auxstore

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScoreEntry is one leaderboard submission. Lower Score ranks better,
// matching the dice game's own win condition (fewest points,
// mirroring turnengine.Standings' own tie-break order).
type ScoreEntry struct {
	ScoreID     string `json:"scoreId"`
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	DurationMs  int64  `json:"durationMs"`
	Rolls       int    `json:"rolls"`
	Timestamp   int64  `json:"ts"`
}

func less(a, b ScoreEntry) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.DurationMs != b.DurationMs {
		return a.DurationMs < b.DurationMs
	}
	if a.Rolls != b.Rolls {
		return a.Rolls < b.Rolls
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.ScoreID < b.ScoreID
}

// Leaderboard is a size-capped collection of score entries, one
// current best per uid, sorted by (score asc, duration asc, rolls
// asc, ts asc, id).
type Leaderboard struct {
	mu      sync.Mutex
	cap     int
	entries map[string]ScoreEntry // scoreId -> entry
	byUID   map[string]string     // uid -> scoreId of their current best
}

func NewLeaderboard(cap int) *Leaderboard {
	if cap < 1 {
		cap = 1
	}
	return &Leaderboard{cap: cap, entries: make(map[string]ScoreEntry), byUID: make(map[string]string)}
}

// Submit records a score for uid, enforcing a
// single display name per uid: subsequent submissions overwrite the
// stored display name for that uid's existing entries.
func (l *Leaderboard) Submit(uid, displayName string, score int, durationMs int64, rolls int) ScoreEntry {
	entry := ScoreEntry{
		ScoreID:     uuid.New().String(),
		UID:         uid,
		DisplayName: displayName,
		Score:       score,
		DurationMs:  durationMs,
		Rolls:       rolls,
		Timestamp:   time.Now().UnixMilli(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if prevID, ok := l.byUID[uid]; ok {
		prev := l.entries[prevID]
		if less(prev, entry) {
			// existing entry already ranks better; keep it but sync
			// the display name for consistency across all of uid's rows.
			prev.DisplayName = displayName
			l.entries[prevID] = prev
			return prev
		}
		delete(l.entries, prevID)
	}

	l.entries[entry.ScoreID] = entry
	l.byUID[uid] = entry.ScoreID
	l.evictLocked()
	return entry
}

func (l *Leaderboard) evictLocked() {
	for len(l.entries) > l.cap {
		worstID := ""
		var worst ScoreEntry
		first := true
		for id, e := range l.entries {
			if first || less(worst, e) {
				worst, worstID, first = e, id, false
			}
		}
		if worstID == "" {
			return
		}
		delete(l.entries, worstID)
		if l.byUID[worst.UID] == worstID {
			delete(l.byUID, worst.UID)
		}
	}
}

// Len reports the current number of tracked entries.
func (l *Leaderboard) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Top returns the best n entries in ranked order.
func (l *Leaderboard) Top(n int) []ScoreEntry {
	if n <= 0 {
		n = 10
	}
	l.mu.Lock()
	out := make([]ScoreEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Snapshot returns a copy of the backing maps, for persistence.
func (l *Leaderboard) Snapshot() (entries map[string]ScoreEntry, byUID map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries = make(map[string]ScoreEntry, len(l.entries))
	for k, v := range l.entries {
		entries[k] = v
	}
	byUID = make(map[string]string, len(l.byUID))
	for k, v := range l.byUID {
		byUID[k] = v
	}
	return entries, byUID
}

// Restore replaces the leaderboard's contents with a persisted snapshot.
func (l *Leaderboard) Restore(entries map[string]ScoreEntry, byUID map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entries == nil {
		entries = make(map[string]ScoreEntry)
	}
	if byUID == nil {
		byUID = make(map[string]string)
	}
	l.entries = entries
	l.byUID = byUID
	l.evictLocked()
}
