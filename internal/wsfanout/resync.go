package wsfanout

import (
	"dicehall/internal/catalog"
	"dicehall/internal/turnengine"
)

// sendResync pushes a session_state snapshot followed by a turn_start
// (if a turn is active) to this client alone, so the client can
// idempotently reconstruct state after any rejected message.
func (c *Client) sendResync() {
	now := catalog.Now()
	var state map[string]any

	c.cat.View(c.sessionID, func(sess *catalog.Session) {
		turnengine.EnsureTurnState(sess, now, c.turnTimeoutMs)
		state = map[string]any{
			"type":        "session_state",
			"sessionId":   c.sessionID,
			"timestamp":   now,
			"source":      "server",
			"roomCode":    sess.RoomCode,
			"roomKind":    sess.RoomKind,
			"difficulty":  sess.GameDifficulty,
			"turnState":   sess.TurnState,
			"standings":   turnengine.Standings(sess),
		}
	})
	if state == nil {
		return
	}
	c.enqueueRaw(state)

	var activePlayer string
	c.cat.View(c.sessionID, func(sess *catalog.Session) {
		if sess.TurnState != nil {
			activePlayer = sess.TurnState.ActiveTurnPlayerID
		}
	})
	if activePlayer == "" {
		return
	}
	c.enqueueRaw(map[string]any{
		"type":      "turn_start",
		"sessionId": c.sessionID,
		"playerId":  activePlayer,
		"timestamp": now,
		"source":    "server",
	})
}
