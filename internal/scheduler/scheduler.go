// Package scheduler, for every live session, keeps
// two independent timers reconciled — the bot-tick loop and the
// turn-timeout loop — and re-arms them after every mutation that
// might change their deadlines.
package scheduler

import (
	"math/rand"
	"sync"
	"time"

	"dicehall/internal/catalog"
	"dicehall/internal/turnengine"
)

// Broadcaster is how the scheduler emits messages without importing
// the fan-out package directly (same inversion as catalog.SocketNotifier).
type Broadcaster interface {
	Broadcast(sessionID string, msg any, excludePlayerID string)
}

// Config carries the turn-timeout and warning-threshold knobs.
type Config struct {
	TurnTimeoutMs        int64
	TurnTimeoutWarningMs int64
}

// turnKey is the tuple that makes re-reconciliation idempotent:
// re-arming with the same key is a no-op.
type turnKey struct {
	activePlayerID string
	round          int
	turnNumber     int
}

type sessionTimers struct {
	key         turnKey
	warnTimer   *time.Timer
	expireTimer *time.Timer
	botTimer    *time.Timer
	botTickStop chan struct{}
}

// Scheduler owns per-session timers. All fired callbacks re-enter the
// catalog through Mutate/View, so they serialize through the same
// lock as HTTP/WS handlers.
type Scheduler struct {
	cat     *catalog.Catalog
	cfg     Config
	bcast   Broadcaster

	mu     sync.Mutex
	timers map[string]*sessionTimers
}

func New(cat *catalog.Catalog, cfg Config, bcast Broadcaster) *Scheduler {
	return &Scheduler{
		cat:    cat,
		cfg:    cfg,
		bcast:  bcast,
		timers: make(map[string]*sessionTimers),
	}
}

func (s *Scheduler) timersFor(sessionID string) *sessionTimers {
	t, ok := s.timers[sessionID]
	if !ok {
		t = &sessionTimers{}
		s.timers[sessionID] = t
	}
	return t
}

// Forget cancels and drops all timers for a deleted session.
func (s *Scheduler) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[sessionID]; ok {
		stopTimer(t.warnTimer)
		stopTimer(t.expireTimer)
		stopTimer(t.botTimer)
		if t.botTickStop != nil {
			close(t.botTickStop)
		}
		delete(s.timers, sessionID)
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// Reconcile inspects sessionID's current turn state and re-arms the
// turn-timeout and bot timers as needed. Call after every mutating
// handler and after EnsureTurnState runs.
func (s *Scheduler) Reconcile(sessionID string) {
	var (
		hasBots        bool
		humanConnected bool
		activeIsBot    bool
		key            turnKey
		armed          bool
	)

	s.cat.View(sessionID, func(sess *catalog.Session) {
		for _, p := range sess.Participants {
			if p.IsBot {
				hasBots = true
			} else if p.Connected() {
				humanConnected = true
			}
		}
		ts := sess.TurnState
		if ts == nil || ts.ActiveTurnPlayerID == "" {
			return
		}
		if len(ts.Order) >= 2 && humanConnected {
			armed = true
			key = turnKey{ts.ActiveTurnPlayerID, ts.Round, ts.TurnNumber}
		}
		if p, ok := sess.Participants[ts.ActiveTurnPlayerID]; ok {
			activeIsBot = p.IsBot
		}
	})

	s.mu.Lock()
	t := s.timersFor(sessionID)

	if armed && key != t.key {
		stopTimer(t.warnTimer)
		stopTimer(t.expireTimer)
		t.key = key

		var expiresAt int64
		s.cat.View(sessionID, func(sess *catalog.Session) { expiresAt = sess.TurnState.TurnExpiresAt })
		now := catalog.Now()
		delay := time.Duration(expiresAt-now) * time.Millisecond
		warnDelay := delay - time.Duration(s.cfg.TurnTimeoutWarningMs)*time.Millisecond

		if warnDelay > 0 {
			t.warnTimer = time.AfterFunc(warnDelay, func() { s.fireWarning(sessionID, key) })
		}
		if delay > 0 {
			t.expireTimer = time.AfterFunc(delay, func() { s.fireExpiry(sessionID, key) })
		}
	} else if !armed {
		stopTimer(t.warnTimer)
		stopTimer(t.expireTimer)
		t.key = turnKey{}
	}

	if armed && activeIsBot && humanConnected {
		if t.key != key || t.botTimer == nil {
			stopTimer(t.botTimer)
			s.cat.View(sessionID, func(sess *catalog.Session) {
				p := sess.Participants[sess.TurnState.ActiveTurnPlayerID]
				d := botTurnDelay(string(p.BotProfile))
				t.botTimer = time.AfterFunc(d, func() { s.fireBotTurn(sessionID, key) })
			})
		}
	} else {
		stopTimer(t.botTimer)
		t.botTimer = nil
	}

	if hasBots && t.botTickStop == nil {
		stop := make(chan struct{})
		t.botTickStop = stop
		go s.runBotTickLoop(sessionID, stop)
	} else if !hasBots && t.botTickStop != nil {
		close(t.botTickStop)
		t.botTickStop = nil
	}

	s.mu.Unlock()
}

func (s *Scheduler) fireWarning(sessionID string, key turnKey) {
	s.mu.Lock()
	t, ok := s.timers[sessionID]
	stillCurrent := ok && t.key == key
	s.mu.Unlock()
	if !stillCurrent {
		return
	}
	s.bcast.Broadcast(sessionID, map[string]any{
		"type":               "turn_timeout_warning",
		"sessionId":          sessionID,
		"timestamp":          catalog.Now(),
		"source":             "server",
		"activeTurnPlayerId": key.activePlayerID,
	}, "")
}

func (s *Scheduler) fireExpiry(sessionID string, key turnKey) {
	s.mu.Lock()
	t, ok := s.timers[sessionID]
	stillCurrent := ok && t.key == key
	s.mu.Unlock()
	if !stillCurrent {
		return
	}

	now := catalog.Now()
	err := s.cat.Mutate(sessionID, func(sess *catalog.Session) error {
		turnengine.EnsureTurnState(sess, now, s.cfg.TurnTimeoutMs)
		if sess.TurnState.ActiveTurnPlayerID != key.activePlayerID {
			return nil // already moved on
		}
		return turnengine.EndTurn(sess, "", now, s.cfg.TurnTimeoutMs)
	})
	if err != nil {
		return
	}

	s.bcast.Broadcast(sessionID, map[string]any{
		"type":      "turn_auto_advanced",
		"sessionId": sessionID,
		"timestamp": now,
		"source":    "timeout_auto",
	}, "")
	s.broadcastTurnEndAndStart(sessionID, key.activePlayerID, "timeout_auto")
	s.Reconcile(sessionID)
}

func (s *Scheduler) broadcastTurnEndAndStart(sessionID, endedPlayerID, source string) {
	now := catalog.Now()
	s.bcast.Broadcast(sessionID, map[string]any{
		"type":      "turn_end",
		"sessionId": sessionID,
		"timestamp": now,
		"source":    source,
		"playerId":  endedPlayerID,
	}, "")

	var nextPlayer string
	s.cat.View(sessionID, func(sess *catalog.Session) {
		if sess.TurnState != nil {
			nextPlayer = sess.TurnState.ActiveTurnPlayerID
		}
	})
	if nextPlayer == "" {
		return
	}
	s.bcast.Broadcast(sessionID, map[string]any{
		"type":      "turn_start",
		"sessionId": sessionID,
		"timestamp": now,
		"source":    source,
		"playerId":  nextPlayer,
	}, "")
}

// botTurnDelay derives a one-shot delay from botProfile:
// cautious bots wait 2.3-4.2s, aggressive bots 0.9-2.2s.
func botTurnDelay(profile string) time.Duration {
	var lo, hi float64
	switch catalog.BotProfile(profile) {
	case catalog.BotAggressive:
		lo, hi = 0.9, 2.2
	case catalog.BotBalanced:
		lo, hi = 1.5, 3.0
	default: // cautious, or unknown
		lo, hi = 2.3, 4.2
	}
	secs := lo + rand.Float64()*(hi-lo)
	return time.Duration(secs * float64(time.Second))
}
