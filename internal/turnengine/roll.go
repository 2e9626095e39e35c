package turnengine

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"dicehall/internal/apperr"
	"dicehall/internal/catalog"
)

// RollDieRequest is one client-supplied die descriptor for a roll.
type RollDieRequest struct {
	DieID string `json:"dieId"`
	Sides int    `json:"sides"`
}

// RollRequest is the client payload for turn_action{action=roll}.
type RollRequest struct {
	RollIndex int              `json:"rollIndex"`
	Dice      []RollDieRequest `json:"dice"`
}

// ApplyRoll validates and applies a roll in phase await_roll.
// The server — never the client — draws each die's value.
func ApplyRoll(s *catalog.Session, playerID string, req RollRequest, now int64, turnTimeoutMs int64) (*catalog.RollSnapshot, *apperr.Error) {
	EnsureTurnState(s, now, turnTimeoutMs)
	ts := s.TurnState

	if ts.ActiveTurnPlayerID != playerID {
		return nil, apperr.ErrNotActivePlayer
	}
	if ts.Phase != catalog.PhaseAwaitRoll {
		return nil, apperr.ErrWrongPhase
	}
	if len(req.Dice) == 0 || len(req.Dice) > MaxTurnRollDice {
		return nil, apperr.ErrInvalidRollPayload
	}

	seen := make(map[string]bool, len(req.Dice))
	dice := make([]catalog.Die, len(req.Dice))
	for i, d := range req.Dice {
		if d.DieID == "" || seen[d.DieID] {
			return nil, apperr.ErrInvalidRollDieID
		}
		seen[d.DieID] = true
		if d.Sides < minDieSides || d.Sides > maxDieSides {
			return nil, apperr.ErrInvalidRollPayload
		}
		if embedded, ok := embeddedSides(d.DieID); ok && embedded != d.Sides {
			return nil, apperr.ErrRollDieSidesMismatch
		}
		value, err := rollOne(d.Sides)
		if err != nil {
			return nil, apperr.ErrInternal
		}
		dice[i] = catalog.Die{DieID: d.DieID, Sides: d.Sides, Value: value}
	}

	snap := &catalog.RollSnapshot{
		RollIndex:    req.RollIndex,
		ServerRollID: uuid.New().String(),
		Dice:         dice,
		UpdatedAt:    now,
	}
	ts.LastRollSnapshot = snap
	ts.LastScoreSummary = nil
	ts.Phase = catalog.PhaseAwaitScore
	ts.UpdatedAt = now

	return snap, nil
}

// embeddedSides parses the "d<N>-" prefix convention a die id must
// satisfy
func embeddedSides(dieID string) (int, bool) {
	if !strings.HasPrefix(dieID, "d") {
		return 0, false
	}
	rest := dieID[1:]
	dash := strings.IndexByte(rest, '-')
	if dash < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:dash])
	if err != nil {
		return 0, false
	}
	return n, true
}

func rollOne(sides int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(sides)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + 1, nil
}
