package turnengine

import (
	"dicehall/internal/apperr"
	"dicehall/internal/catalog"
)

// ScoreRequest is the client payload for turn_action{action=score}.
type ScoreRequest struct {
	SelectedDiceIDs []string `json:"selectedDiceIds"`
	Points          int      `json:"points"`
	RollServerID    string   `json:"rollServerId"`
}

// ScoreMismatchError carries the server-computed expected point value
// alongside the wire error, so the caller's {error, reason} body can
// include it: a mismatch yields score_points_mismatch with the
// expected value.
type ScoreMismatchError struct {
	*apperr.Error
	Expected int `json:"expectedPoints"`
}

// ApplyScore validates and applies a score in phase await_score.
func ApplyScore(s *catalog.Session, playerID string, req ScoreRequest, now int64, turnTimeoutMs int64) (*catalog.ScoreSummary, error) {
	EnsureTurnState(s, now, turnTimeoutMs)
	ts := s.TurnState

	if ts.ActiveTurnPlayerID != playerID {
		return nil, apperr.ErrNotActivePlayer
	}
	if ts.Phase != catalog.PhaseAwaitScore || ts.LastRollSnapshot == nil {
		return nil, apperr.ErrWrongPhase
	}
	if len(req.SelectedDiceIDs) == 0 {
		return nil, apperr.ErrMissingSelectedDice
	}
	if req.RollServerID != ts.LastRollSnapshot.ServerRollID {
		return nil, apperr.ErrScoreRollMismatch
	}

	byID := make(map[string]catalog.Die, len(ts.LastRollSnapshot.Dice))
	for _, d := range ts.LastRollSnapshot.Dice {
		byID[d.DieID] = d
	}

	seen := make(map[string]bool, len(req.SelectedDiceIDs))
	expected := 0
	for _, id := range req.SelectedDiceIDs {
		if seen[id] {
			return nil, apperr.ErrMissingSelectedDice
		}
		seen[id] = true
		d, ok := byID[id]
		if !ok {
			return nil, apperr.ErrMissingSelectedDice
		}
		expected += d.Sides - d.Value
	}

	if req.Points != expected {
		return nil, &ScoreMismatchError{Error: apperr.ErrScorePointsMismatch, Expected: expected}
	}

	p := s.Participants[playerID]
	p.Score += req.Points
	selectedCount := len(req.SelectedDiceIDs)
	if selectedCount > p.RemainingDice {
		selectedCount = p.RemainingDice
	}
	p.RemainingDice -= selectedCount
	if p.RemainingDice < 0 {
		p.RemainingDice = 0
	}
	wasComplete := p.IsComplete
	p.IsComplete = p.RemainingDice == 0
	if p.IsComplete && !wasComplete {
		p.CompletedAt = now
	}

	summary := &catalog.ScoreSummary{
		SelectedDiceIDs:     append([]string(nil), req.SelectedDiceIDs...),
		Points:              req.Points,
		ExpectedPoints:      expected,
		RollServerID:        req.RollServerID,
		ProjectedTotalScore: p.Score,
		RemainingDice:       p.RemainingDice,
		IsComplete:          p.IsComplete,
		UpdatedAt:           now,
	}
	ts.LastScoreSummary = summary
	ts.Phase = catalog.PhaseReadyToEnd
	ts.UpdatedAt = now

	return summary, nil
}
