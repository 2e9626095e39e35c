// Package auxstore holds the two auxiliary, size-capped collections
// that ride alongside the room catalog but are not part of its
// invariants: the game-log queue and the leaderboard.
package auxstore

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogEntry is one accepted game-log record. Payload is left opaque —
// the core does not interpret client telemetry, it only queues and
// caps it.
type LogEntry struct {
	LogID     string         `json:"logId"`
	PlayerID  string         `json:"playerId"`
	SessionID string         `json:"sessionId,omitempty"`
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// LogAppendResult is the per-entry accept/fail outcome for a batch.
type LogAppendResult struct {
	Index  int    `json:"index"`
	LogID  string `json:"logId,omitempty"`
	Failed bool   `json:"failed,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// GameLog is a FIFO queue of log entries capped at a fixed size; the
// oldest entry is evicted once the cap is reached.
type GameLog struct {
	mu      sync.Mutex
	cap     int
	order   []string
	entries map[string]LogEntry
}

func NewGameLog(cap int) *GameLog {
	if cap < 1 {
		cap = 1
	}
	return &GameLog{cap: cap, entries: make(map[string]LogEntry)}
}

// AppendBatch appends each raw entry, validating event is non-empty,
// and returns a per-index accept/fail result. Accepted entries are
// given fresh log ids and timestamps.
func (g *GameLog) AppendBatch(playerID string, raws []struct {
	SessionID string
	Event     string
	Payload   map[string]any
}) []LogAppendResult {
	now := time.Now().UnixMilli()
	results := make([]LogAppendResult, 0, len(raws))

	g.mu.Lock()
	defer g.mu.Unlock()

	for i, raw := range raws {
		if raw.Event == "" {
			results = append(results, LogAppendResult{Index: i, Failed: true, Reason: "missing event"})
			continue
		}
		id := uuid.New().String()
		g.entries[id] = LogEntry{
			LogID:     id,
			PlayerID:  playerID,
			SessionID: raw.SessionID,
			Event:     raw.Event,
			Payload:   raw.Payload,
			Timestamp: now,
		}
		g.order = append(g.order, id)
		g.evictLocked()
		results = append(results, LogAppendResult{Index: i, LogID: id})
	}
	return results
}

func (g *GameLog) evictLocked() {
	for len(g.order) > g.cap {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.entries, oldest)
	}
}

// Len reports the current number of queued entries.
func (g *GameLog) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.order)
}

// Snapshot returns a copy of the entries map plus the FIFO order slice
// (oldest id first), for persistence.
func (g *GameLog) Snapshot() (entries map[string]LogEntry, order []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entries = make(map[string]LogEntry, len(g.entries))
	for k, v := range g.entries {
		entries[k] = v
	}
	order = append([]string(nil), g.order...)
	return entries, order
}

// Restore replaces the queue's contents with a previously persisted
// snapshot, trimming to cap if the snapshot somehow exceeds it.
func (g *GameLog) Restore(entries map[string]LogEntry, order []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if entries == nil {
		entries = make(map[string]LogEntry)
	}
	g.entries = entries
	g.order = append([]string(nil), order...)
	g.evictLocked()
}
