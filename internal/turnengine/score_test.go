package turnengine

import (
	"testing"

	"dicehall/internal/apperr"
	"dicehall/internal/catalog"
)

func rolledSession(now int64, dice []catalog.Die) *catalog.Session {
	sess := newTwoPlayerSession(now)
	EnsureTurnState(sess, now, 45_000)
	sess.TurnState.Phase = catalog.PhaseAwaitScore
	sess.TurnState.LastRollSnapshot = &catalog.RollSnapshot{
		RollIndex:    1,
		ServerRollID: "roll-1",
		Dice:         dice,
		UpdatedAt:    now,
	}
	return sess
}

func TestApplyScoreRejectsRollMismatch(t *testing.T) {
	sess := rolledSession(1000, []catalog.Die{{DieID: "d6-1", Sides: 6, Value: 2}})
	req := ScoreRequest{SelectedDiceIDs: []string{"d6-1"}, Points: 4, RollServerID: "stale-roll"}

	_, err := ApplyScore(sess, "p1", req, 1000, 45_000)
	if err != apperr.ErrScoreRollMismatch {
		t.Fatalf("expected score_roll_mismatch, got %v", err)
	}
}

func TestApplyScoreComputesMismatch(t *testing.T) {
	sess := rolledSession(1000, []catalog.Die{{DieID: "d6-1", Sides: 6, Value: 2}})
	req := ScoreRequest{SelectedDiceIDs: []string{"d6-1"}, Points: 99, RollServerID: "roll-1"}

	_, err := ApplyScore(sess, "p1", req, 1000, 45_000)
	mismatch, ok := err.(*ScoreMismatchError)
	if !ok {
		t.Fatalf("expected *ScoreMismatchError, got %T: %v", err, err)
	}
	if mismatch.Expected != 4 {
		t.Fatalf("expected 4 (sides=6, value=2), got %d", mismatch.Expected)
	}
}

func TestApplyScoreSuccessAdvancesToReadyToEnd(t *testing.T) {
	sess := rolledSession(1000, []catalog.Die{
		{DieID: "d6-1", Sides: 6, Value: 1},
		{DieID: "d6-2", Sides: 6, Value: 6},
	})
	req := ScoreRequest{SelectedDiceIDs: []string{"d6-1", "d6-2"}, Points: 5, RollServerID: "roll-1"}

	summary, err := ApplyScore(sess, "p1", req, 1000, 45_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ExpectedPoints != 5 {
		t.Fatalf("expected 5 points, got %d", summary.ExpectedPoints)
	}
	if sess.TurnState.Phase != catalog.PhaseReadyToEnd {
		t.Fatalf("expected ready_to_end, got %q", sess.TurnState.Phase)
	}
	p := sess.Participants["p1"]
	if p.Score != 5 {
		t.Fatalf("expected score 5, got %d", p.Score)
	}
	if p.RemainingDice != 13 {
		t.Fatalf("expected 13 remaining dice (15-2), got %d", p.RemainingDice)
	}
}

func TestApplyScoreCompletesParticipantWhenDiceExhausted(t *testing.T) {
	sess := rolledSession(1000, []catalog.Die{{DieID: "d6-1", Sides: 6, Value: 3}})
	sess.Participants["p1"].RemainingDice = 1
	req := ScoreRequest{SelectedDiceIDs: []string{"d6-1"}, Points: 3, RollServerID: "roll-1"}

	summary, err := ApplyScore(sess, "p1", req, 1000, 45_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.IsComplete {
		t.Fatal("expected participant to be marked complete")
	}
	if sess.Participants["p1"].CompletedAt != 1000 {
		t.Fatalf("expected CompletedAt to be stamped, got %d", sess.Participants["p1"].CompletedAt)
	}
}

func TestApplyScoreRejectsDuplicateSelection(t *testing.T) {
	sess := rolledSession(1000, []catalog.Die{{DieID: "d6-1", Sides: 6, Value: 3}})
	req := ScoreRequest{SelectedDiceIDs: []string{"d6-1", "d6-1"}, Points: 3, RollServerID: "roll-1"}

	_, err := ApplyScore(sess, "p1", req, 1000, 45_000)
	if err == nil {
		t.Fatal("expected error for duplicate selected die id")
	}
}
