package wsfanout

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dicehall/internal/apperr"
	"dicehall/internal/catalog"
	"dicehall/internal/scheduler"
	"dicehall/internal/turnengine"
)

const (
	// MaxWSMessageBytes caps inbound client frames
	MaxWSMessageBytes = 16 * 1024

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is one authenticated WebSocket connection, with the familiar
// Client/readPump/writePump pairing of fields and goroutines.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	sessionID string
	playerID  string

	cat           *catalog.Catalog
	sched         *scheduler.Scheduler
	turnTimeoutMs int64

	accessTokenExpiresAt int64 // epoch ms

	closeOnce sync.Once
}

func (c *Client) enqueue(raw []byte) {
	select {
	case c.send <- raw:
	default:
		// slow consumer; drop rather than block the hub.
		log.Printf("wsfanout: dropping message for session=%s player=%s, send buffer full", c.sessionID, c.playerID)
	}
}

func (c *Client) closeWith(code int, reason string) {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(writeWait)
		msg := websocket.FormatCloseMessage(code, reason)
		c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		c.conn.Close()
	})
}

// readPump decodes inbound frames and dispatches them; exits (and
// unregisters) on any read error or clean close.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.cat.MarkDisconnected(c.sessionID, c.playerID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxWSMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("wsfanout: read error session=%s player=%s: %v", c.sessionID, c.playerID, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			c.sendError("invalid_frame_type", "only text frames are accepted")
			continue
		}
		if time.Now().UnixMilli() > c.accessTokenExpiresAt {
			c.sendError("session_expired", "access token expired")
			c.closeWith(CloseUnauthorized, "session_expired")
			return
		}
		c.handleFrame(raw)
	}
}

// writePump writes each queued outbound frame as its own message, keeps
// the connection alive with periodic pings, and every idleCheckInterval
// closes the socket with 4401 once the access token has expired.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	expiry := time.NewTicker(idleCheckInterval)
	defer func() {
		ticker.Stop()
		expiry.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-expiry.C:
			if time.Now().UnixMilli() <= c.accessTokenExpiresAt {
				continue
			}
			raw, _ := json.Marshal(outboundError{Type: "error", SessionID: c.sessionID, Timestamp: catalog.Now(), Source: "server", Error: "session_expired", Reason: "access token expired"})
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.TextMessage, raw)
			c.closeWith(CloseUnauthorized, "session_expired")
			return
		}
	}
}

func (c *Client) sendError(code, reason string) {
	c.enqueueRaw(outboundError{
		Type:      "error",
		SessionID: c.sessionID,
		Timestamp: catalog.Now(),
		Source:    "server",
		Error:     code,
		Reason:    reason,
	})
}

func (c *Client) enqueueRaw(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.enqueue(raw)
}

// handleFrame decodes and dispatches one validated text frame.
func (c *Client) handleFrame(raw []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError("invalid_message", "malformed json")
		return
	}

	switch env.Type {
	case msgChaosAttack, msgParticleEmit:
		c.hub.Broadcast(c.sessionID, c.fillOrigin(env.Type, env.Payload), c.playerID)

	case msgGameUpdate, msgPlayerNotification:
		c.hub.Broadcast(c.sessionID, c.fillOrigin(env.Type, env.Payload), c.playerID)

	case msgTurnAction:
		c.handleTurnAction(env)

	case msgTurnEnd:
		c.handleTurnEnd()

	case msgMarkReady:
		c.handleMarkReady()

	default:
		c.sendError("unknown_message_type", "unrecognized type "+env.Type)
	}
}

func (c *Client) fillOrigin(msgType string, payload json.RawMessage) map[string]any {
	return map[string]any{
		"type":           msgType,
		"sessionId":      c.sessionID,
		"playerId":       c.playerID,
		"sourcePlayerId": c.playerID,
		"timestamp":      catalog.Now(),
		"source":         "player",
		"payload":        payload,
	}
}

func (c *Client) handleTurnAction(env inboundEnvelope) {
	now := catalog.Now()

	switch env.Action {
	case actionRoll:
		var snap *catalog.RollSnapshot
		var appErr *apperr.Error
		err := c.cat.Mutate(c.sessionID, func(sess *catalog.Session) error {
			snap, appErr = turnengine.ApplyRoll(sess, c.playerID, turnengine.RollRequest{
				RollIndex: env.RollIndex,
				Dice:      env.Dice,
			}, now, c.turnTimeoutMs)
			if appErr != nil {
				return appErr
			}
			return nil
		})
		if err != nil || appErr != nil {
			if appErr != nil {
				c.rejectAndResync(appErr)
			} else {
				c.rejectAndResync(mapCatalogErr(err))
			}
			return
		}
		c.hub.Broadcast(c.sessionID, map[string]any{
			"type":      msgTurnAction,
			"action":    actionRoll,
			"sessionId": c.sessionID,
			"playerId":  c.playerID,
			"timestamp": now,
			"source":    "player",
			"roll":      snap,
		}, "")
		c.sched.Reconcile(c.sessionID)

	case actionScore:
		var summary *catalog.ScoreSummary
		var mismatch *turnengine.ScoreMismatchError
		var appErr error
		err := c.cat.Mutate(c.sessionID, func(sess *catalog.Session) error {
			s, serr := turnengine.ApplyScore(sess, c.playerID, turnengine.ScoreRequest{
				SelectedDiceIDs: env.SelectedDiceIDs,
				Points:          env.Points,
				RollServerID:    env.RollServerID,
			}, now, c.turnTimeoutMs)
			if serr != nil {
				appErr = serr
				return serr
			}
			summary = s
			return nil
		})
		if err != nil || appErr != nil {
			if m, ok := appErr.(*turnengine.ScoreMismatchError); ok {
				mismatch = m
			} else if appErr == nil {
				appErr = mapCatalogErr(err)
			}
			c.rejectScoreAndResync(appErr, mismatch)
			return
		}
		c.hub.Broadcast(c.sessionID, map[string]any{
			"type":      msgTurnAction,
			"action":    actionScore,
			"sessionId": c.sessionID,
			"playerId":  c.playerID,
			"timestamp": now,
			"source":    "player",
			"score":     summary,
		}, "")
		c.sched.Reconcile(c.sessionID)

	default:
		c.sendError("invalid_turn_action", "unrecognized action "+env.Action)
	}
}

func (c *Client) handleTurnEnd() {
	now := catalog.Now()
	err := c.cat.Mutate(c.sessionID, func(sess *catalog.Session) error {
		return turnengine.EndTurn(sess, c.playerID, now, c.turnTimeoutMs)
	})
	if err != nil {
		c.rejectAndResync(mapCatalogErr(err))
		return
	}

	c.hub.Broadcast(c.sessionID, map[string]any{
		"type":      msgTurnEnd,
		"sessionId": c.sessionID,
		"playerId":  c.playerID,
		"timestamp": now,
		"source":    "player",
	}, "")

	var nextPlayer string
	c.cat.View(c.sessionID, func(sess *catalog.Session) {
		if sess.TurnState != nil {
			nextPlayer = sess.TurnState.ActiveTurnPlayerID
		}
	})
	if nextPlayer != "" {
		c.hub.Broadcast(c.sessionID, map[string]any{
			"type":      "turn_start",
			"sessionId": c.sessionID,
			"playerId":  nextPlayer,
			"timestamp": now,
			"source":    "player",
		}, "")
	}
	c.sched.Reconcile(c.sessionID)
}

func (c *Client) handleMarkReady() {
	now := catalog.Now()
	var appErr *apperr.Error
	err := c.cat.Mutate(c.sessionID, func(sess *catalog.Session) error {
		appErr = turnengine.MarkReady(sess, c.playerID, now, c.turnTimeoutMs)
		if appErr != nil {
			return appErr
		}
		return nil
	})
	if err != nil || appErr != nil {
		if appErr != nil {
			c.rejectAndResync(appErr)
		} else {
			c.rejectAndResync(mapCatalogErr(err))
		}
		return
	}

	c.hub.Broadcast(c.sessionID, map[string]any{
		"type":      msgMarkReady,
		"sessionId": c.sessionID,
		"playerId":  c.playerID,
		"timestamp": now,
		"source":    "ready",
	}, "")
	c.sched.Reconcile(c.sessionID)
}

// mapCatalogErr translates catalog sentinel errors (session not
// found/expired, room full/not found) into the wire {code, reason}
// shape; anything else falls back to apperr.From's internal-error default.
func mapCatalogErr(err error) *apperr.Error {
	switch {
	case errors.Is(err, catalog.ErrSessionExpired):
		return apperr.ErrSessionExpired
	case errors.Is(err, catalog.ErrSessionNotFound), errors.Is(err, catalog.ErrRoomNotFound):
		return apperr.ErrRoomNotFound
	case errors.Is(err, catalog.ErrRoomFull):
		return apperr.ErrRoomFull
	case errors.Is(err, catalog.ErrPlayerNotFound):
		return apperr.ErrPlayerNotFound
	default:
		return apperr.From(err)
	}
}

// rejectAndResync sends an error frame followed by a full resync:
// an invalid payload yields an error frame and a resync.
func (c *Client) rejectAndResync(appErr *apperr.Error) {
	if appErr == nil {
		appErr = apperr.ErrInternal
	}
	c.sendError(appErr.Code, appErr.Reason)
	c.sendResync()
}

func (c *Client) rejectScoreAndResync(err error, mismatch *turnengine.ScoreMismatchError) {
	if mismatch != nil {
		c.enqueueRaw(outboundError{
			Type:      "error",
			SessionID: c.sessionID,
			Timestamp: catalog.Now(),
			Source:    "server",
			Error:     mismatch.Code,
			Reason:    mismatch.Reason,
			Expected:  mismatch.Expected,
		})
		c.sendResync()
		return
	}
	c.rejectAndResync(mapCatalogErr(err))
}
