package scheduler

import (
	"fmt"
	"math/rand"
	"time"

	"dicehall/internal/catalog"
	"dicehall/internal/turnengine"
)

// runBotTickLoop periodically picks a bot and a connected human and
// emits a cosmetic "flavor" message It exits once
// stop is closed (session deleted, or no bots remain).
func (s *Scheduler) runBotTickLoop(sessionID string, stop chan struct{}) {
	for {
		wait := time.Duration(4500+rand.Intn(4500)) * time.Millisecond
		select {
		case <-stop:
			return
		case <-time.After(wait):
		}
		s.fireBotFlavor(sessionID)
	}
}

func (s *Scheduler) fireBotFlavor(sessionID string) {
	var bot, human *catalog.Participant
	s.cat.View(sessionID, func(sess *catalog.Session) {
		for _, p := range sess.Participants {
			if p.IsBot && bot == nil {
				bot = p
			}
			if !p.IsBot && p.Connected() && human == nil {
				human = p
			}
		}
	})
	if bot == nil || human == nil {
		return
	}

	now := catalog.Now()
	roll := rand.Float64()
	msgType := "player_notification"
	switch {
	case roll < 0.04:
		msgType = "chaos_attack"
	case roll < 0.5:
		msgType = "game_update"
	}

	s.bcast.Broadcast(sessionID, map[string]any{
		"type":           msgType,
		"sessionId":      sessionID,
		"timestamp":      now,
		"source":         "bot_auto",
		"playerId":       bot.PlayerID,
		"sourcePlayerId": bot.PlayerID,
		"targetPlayerId": human.PlayerID,
	}, "")
}

// diceCountForProfile derives how many dice a bot rolls on its turn.
// Aggressive bots push for more points per roll; cautious bots bank
// smaller, safer rolls.
func diceCountForProfile(profile catalog.BotProfile, remaining int) int {
	n := 3
	switch profile {
	case catalog.BotAggressive:
		n = 6
	case catalog.BotBalanced:
		n = 4
	case catalog.BotCautious:
		n = 2
	}
	if n > remaining {
		n = remaining
	}
	if n > turnengine.MaxTurnRollDice {
		n = turnengine.MaxTurnRollDice
	}
	if n < 1 {
		n = 1
	}
	return n
}

// fireBotTurn executes one full bot turn (roll, score, end) and
// broadcasts the resulting sequence of action messages plus the next
// turn_start
func (s *Scheduler) fireBotTurn(sessionID string, key turnKey) {
	s.mu.Lock()
	t, ok := s.timers[sessionID]
	stillCurrent := ok && t.key == key
	s.mu.Unlock()
	if !stillCurrent {
		return
	}

	now := catalog.Now()
	botID := key.activePlayerID

	var rollSnap *catalog.RollSnapshot
	err := s.cat.Mutate(sessionID, func(sess *catalog.Session) error {
		turnengine.EnsureTurnState(sess, now, s.cfg.TurnTimeoutMs)
		if sess.TurnState.ActiveTurnPlayerID != botID {
			return nil
		}
		p := sess.Participants[botID]
		if p == nil {
			return nil
		}
		count := diceCountForProfile(p.BotProfile, p.RemainingDice)
		dice := make([]turnengine.RollDieRequest, count)
		for i := range dice {
			dice[i] = turnengine.RollDieRequest{DieID: fmt.Sprintf("d6-%d", i), Sides: 6}
		}
		snap, apperr := turnengine.ApplyRoll(sess, botID, turnengine.RollRequest{Dice: dice}, now, s.cfg.TurnTimeoutMs)
		if apperr != nil {
			return apperr
		}
		rollSnap = snap
		return nil
	})
	if err != nil || rollSnap == nil {
		return
	}
	s.bcast.Broadcast(sessionID, map[string]any{
		"type":      "turn_action",
		"action":    "roll",
		"sessionId": sessionID,
		"timestamp": now,
		"source":    "bot_auto",
		"playerId":  botID,
		"roll":      rollSnap,
	}, "")

	var scoreSummary *catalog.ScoreSummary
	err = s.cat.Mutate(sessionID, func(sess *catalog.Session) error {
		selected := make([]string, len(rollSnap.Dice))
		points := 0
		for i, d := range rollSnap.Dice {
			selected[i] = d.DieID
			points += d.Sides - d.Value
		}
		summary, serr := turnengine.ApplyScore(sess, botID, turnengine.ScoreRequest{
			SelectedDiceIDs: selected,
			Points:          points,
			RollServerID:    rollSnap.ServerRollID,
		}, now, s.cfg.TurnTimeoutMs)
		if serr != nil {
			return serr
		}
		scoreSummary = summary
		return nil
	})
	if err != nil || scoreSummary == nil {
		return
	}
	s.bcast.Broadcast(sessionID, map[string]any{
		"type":      "turn_action",
		"action":    "score",
		"sessionId": sessionID,
		"timestamp": now,
		"source":    "bot_auto",
		"playerId":  botID,
		"score":     scoreSummary,
	}, "")

	err = s.cat.Mutate(sessionID, func(sess *catalog.Session) error {
		return turnengine.EndTurn(sess, botID, now, s.cfg.TurnTimeoutMs)
	})
	if err != nil {
		return
	}

	s.broadcastTurnEndAndStart(sessionID, botID, "bot_auto")
	s.Reconcile(sessionID)
}
