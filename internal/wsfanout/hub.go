// Package wsfanout handles authenticated WebSocket upgrades,
// per-session subscriber sets, and broadcast fan-out, built around
// gorilla/websocket's Client/readPump/writePump pattern.
package wsfanout

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Close codes used when the server tears down a connection.
const (
	CloseNormal          = 1000
	CloseInternal         = 1011
	CloseBadRequest       = 4400
	CloseUnauthorized     = 4401
	CloseForbidden        = 4403
	CloseSessionExpired   = 4408
)

// Hub tracks, per session id, the set of currently-subscribed clients
// (one per connected socket; a player may hold more than one). It
// satisfies both catalog.SocketNotifier and scheduler.Broadcaster.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Client]bool // sessionId -> client set
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Client]bool)}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[c.sessionID]
	if !ok {
		set = make(map[*Client]bool)
		h.subs[c.sessionID] = set
	}
	set[c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[c.sessionID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, c.sessionID)
		}
	}
}

// snapshot returns the current subscriber set for sessionID, taken
// under the lock so broadcast iteration is consistent even if a
// client disconnects concurrently.
func (h *Hub) snapshot(sessionID string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sessionID]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Broadcast implements scheduler.Broadcaster: sends msg (JSON-encoded
// once) to every subscriber of sessionID except the one whose
// playerId equals excludePlayerID, if non-empty.
func (h *Hub) Broadcast(sessionID string, msg any, excludePlayerID string) {
	raw, err := json.Marshal(msg)
	if err != nil {
		log.Printf("wsfanout: failed to marshal broadcast message: %v", err)
		return
	}
	for _, c := range h.snapshot(sessionID) {
		if excludePlayerID != "" && c.playerID == excludePlayerID {
			continue
		}
		c.enqueue(raw)
	}
}

// DisconnectParticipant implements catalog.SocketNotifier: closes
// every socket belonging to playerID within sessionID with closeCode
// and reason.
func (h *Hub) DisconnectParticipant(sessionID, playerID string, closeCode int, reason string) {
	for _, c := range h.snapshot(sessionID) {
		if c.playerID == playerID {
			c.closeWith(closeCode, reason)
		}
	}
}

// BroadcastTo sends msg to a single playerId within sessionID, used
// for error/resync frames addressed to one client.
func (h *Hub) BroadcastTo(sessionID, playerID string, msg any) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for _, c := range h.snapshot(sessionID) {
		if c.playerID == playerID {
			c.enqueue(raw)
		}
	}
}

// idleCheckInterval is how often a client's access-token expiry timer
// is polled; kept short relative to token TTLs (15 min) without being
// wasteful.
const idleCheckInterval = 30 * time.Second
