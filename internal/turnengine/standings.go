package turnengine

import (
	"sort"

	"dicehall/internal/catalog"
)

// Standing is one row of the final/interim ranking.
type Standing struct {
	PlayerID      string `json:"playerId"`
	Score         int    `json:"score"`
	RemainingDice int    `json:"remainingDice"`
	IsComplete    bool   `json:"isComplete"`
	CompletedAt   int64  `json:"completedAt,omitempty"`
	JoinedAt      int64  `json:"joinedAt"`
}

// Standings orders participants complete-first, then ascending score,
// ascending remaining-dice, earlier completedAt, earlier joinedAt, lex
// playerId —
func Standings(s *catalog.Session) []Standing {
	out := make([]Standing, 0, len(s.Participants))
	for id, p := range s.Participants {
		out = append(out, Standing{
			PlayerID:      id,
			Score:         p.Score,
			RemainingDice: p.RemainingDice,
			IsComplete:    p.IsComplete,
			CompletedAt:   p.CompletedAt,
			JoinedAt:      p.JoinedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsComplete != b.IsComplete {
			return a.IsComplete
		}
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.RemainingDice != b.RemainingDice {
			return a.RemainingDice < b.RemainingDice
		}
		if a.IsComplete && a.CompletedAt != b.CompletedAt {
			return a.CompletedAt < b.CompletedAt
		}
		if a.JoinedAt != b.JoinedAt {
			return a.JoinedAt < b.JoinedAt
		}
		return a.PlayerID < b.PlayerID
	})
	return out
}
