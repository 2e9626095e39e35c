package turnengine

import (
	"dicehall/internal/apperr"
	"dicehall/internal/catalog"
)

// EndTurnSource tags why a turn ended, carried into the outbound
// message's "source" field by the caller.
type EndTurnSource string

const (
	SourcePlayer      EndTurnSource = "player"
	SourceTimeoutAuto EndTurnSource = "timeout_auto"
	SourceBotAuto      EndTurnSource = "bot_auto"
)

// EndTurn advances from ready_to_end to the next non-complete
// participant by modular rotation requirePlayerID, if
// non-empty, must match the current active player (player-initiated
// end); the scheduler calls with an empty requirePlayerID for
// timeout/bot-driven advances.
func EndTurn(s *catalog.Session, requirePlayerID string, now int64, turnTimeoutMs int64) error {
	EnsureTurnState(s, now, turnTimeoutMs)
	ts := s.TurnState

	if requirePlayerID != "" && ts.ActiveTurnPlayerID != requirePlayerID {
		return apperr.ErrNotActivePlayer
	}
	if ts.Phase != catalog.PhaseReadyToEnd {
		return apperr.ErrWrongPhase
	}

	order := ts.Order
	startIdx := -1
	for i, id := range order {
		if id == ts.ActiveTurnPlayerID {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		startIdx = -1 // treat as "before the start" so rotation begins at 0
	}

	next := ""
	wrapped := false
	for step := 1; step <= len(order); step++ {
		idx := (startIdx + step) % len(order)
		if idx <= startIdx {
			wrapped = true
		}
		candidate := order[idx]
		p := s.Participants[candidate]
		if p != nil && !p.IsComplete {
			next = candidate
			break
		}
	}

	if next == "" {
		ts.ActiveTurnPlayerID = ""
		ts.TurnExpiresAt = 0
		ts.LastRollSnapshot = nil
		ts.LastScoreSummary = nil
		ts.Phase = catalog.PhaseAwaitRoll
		ts.UpdatedAt = now
		return nil
	}

	ts.ActiveTurnPlayerID = next
	ts.TurnNumber++
	if wrapped {
		ts.Round++
	}
	ts.Phase = catalog.PhaseAwaitRoll
	ts.LastRollSnapshot = nil
	ts.LastScoreSummary = nil
	ts.TurnExpiresAt = now + turnTimeoutMs
	ts.UpdatedAt = now
	return nil
}
