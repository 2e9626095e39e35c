package wsfanout

import (
	"net/http"

	"github.com/gorilla/websocket"

	"dicehall/internal/auth"
	"dicehall/internal/catalog"
	"dicehall/internal/scheduler"
)

// upgrader accepts any origin (CORS is permissive across the whole
// API) and otherwise relies on gorilla's own handshake
// validation — including rejecting any Sec-WebSocket-Version other
// than 13 —
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// UpgradeHandler is the single accepted upgrade path ("/")
type UpgradeHandler struct {
	Hub           *Hub
	Catalog       *catalog.Catalog
	Vault         *auth.Vault
	Scheduler     *scheduler.Scheduler
	TurnTimeoutMs int64
}

func (h *UpgradeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("session")
	playerID := q.Get("playerId")
	token := q.Get("token")

	if sessionID == "" || playerID == "" || token == "" {
		http.Error(w, "session, playerId and token query params are required", http.StatusBadRequest)
		return
	}

	rec, ok := h.Vault.Verify(token)
	if !ok {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	if rec.PlayerID != playerID || (rec.SessionID != "" && rec.SessionID != sessionID) {
		http.Error(w, "token does not match session/player", http.StatusForbidden)
		return
	}

	sess, expired, found := h.Catalog.GetLive(sessionID)
	if !found {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if expired {
		http.Error(w, "session expired", http.StatusGone)
		return
	}
	if _, isParticipant := sess.Participants[playerID]; !isParticipant {
		http.Error(w, "player is not a participant of this session", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &Client{
		hub:                  h.Hub,
		conn:                 conn,
		send:                 make(chan []byte, 64),
		sessionID:            sessionID,
		playerID:             playerID,
		cat:                  h.Catalog,
		sched:                h.Scheduler,
		turnTimeoutMs:        h.TurnTimeoutMs,
		accessTokenExpiresAt: rec.ExpiresAt,
	}

	h.Hub.register(client)
	h.Catalog.MarkConnected(sessionID, playerID)
	h.Scheduler.Reconcile(sessionID)

	go client.writePump()
	client.sendResync()
	client.readPump()
}
