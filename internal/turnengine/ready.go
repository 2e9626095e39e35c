package turnengine

import (
	"dicehall/internal/apperr"
	"dicehall/internal/catalog"
)

// MarkReady flips a human participant's ready flag and re-runs turn-state
// healing so a newly-all-ready session can start its first turn. Bots are
// always ready already (newBotParticipant); calling this for a bot id is a
// harmless no-op beyond the re-ensure.
func MarkReady(s *catalog.Session, playerID string, now int64, turnTimeoutMs int64) *apperr.Error {
	p, ok := s.Participants[playerID]
	if !ok {
		return apperr.ErrPlayerNotFound
	}

	if !p.IsBot {
		p.IsReady = true
	}

	EnsureTurnState(s, now, turnTimeoutMs)
	return nil
}
