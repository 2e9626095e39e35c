package turnengine

import (
	"testing"

	"dicehall/internal/catalog"
)

func newTwoPlayerSession(now int64) *catalog.Session {
	sess := &catalog.Session{
		SessionID:    "sess-1",
		RoomCode:     "ABCDEF",
		RoomKind:     catalog.RoomPrivate,
		Participants: make(map[string]*catalog.Participant),
	}
	opts := []struct {
		id   string
		join int64
	}{
		{"p1", now},
		{"p2", now + 1},
	}
	for _, o := range opts {
		sess.Participants[o.id] = &catalog.Participant{
			PlayerID:      o.id,
			JoinedAt:      o.join,
			IsReady:       true,
			RemainingDice: 15,
		}
	}
	return sess
}

func TestEnsureTurnStatePicksFirstJoinedActive(t *testing.T) {
	sess := newTwoPlayerSession(1000)
	EnsureTurnState(sess, 1000, 45_000)

	if sess.TurnState.ActiveTurnPlayerID != "p1" {
		t.Fatalf("expected p1 active, got %q", sess.TurnState.ActiveTurnPlayerID)
	}
	if sess.TurnState.Phase != catalog.PhaseAwaitRoll {
		t.Fatalf("expected await_roll, got %q", sess.TurnState.Phase)
	}
	if sess.TurnState.TurnExpiresAt != 1000+45_000 {
		t.Fatalf("expected deadline armed at now+timeout")
	}
}

func TestEnsureTurnStateClearsActiveWhenHumanNotReady(t *testing.T) {
	sess := newTwoPlayerSession(1000)
	sess.Participants["p2"].IsReady = false
	EnsureTurnState(sess, 1000, 45_000)

	if sess.TurnState.ActiveTurnPlayerID != "" {
		t.Fatalf("expected no active player while a human is not ready")
	}
}

func TestApplyRollRejectsWrongPlayer(t *testing.T) {
	sess := newTwoPlayerSession(1000)
	EnsureTurnState(sess, 1000, 45_000)

	_, appErr := ApplyRoll(sess, "p2", RollRequest{Dice: []RollDieRequest{{DieID: "d6-1", Sides: 6}}}, 1000, 45_000)
	if appErr == nil || appErr.Reason != "not_active_player" {
		t.Fatalf("expected not_active_player, got %v", appErr)
	}
}

func TestApplyRollRejectsDuplicateDieID(t *testing.T) {
	sess := newTwoPlayerSession(1000)
	EnsureTurnState(sess, 1000, 45_000)

	dice := []RollDieRequest{{DieID: "d6-1", Sides: 6}, {DieID: "d6-1", Sides: 6}}
	_, appErr := ApplyRoll(sess, "p1", RollRequest{Dice: dice}, 1000, 45_000)
	if appErr == nil || appErr.Reason != "invalid_roll_die_id" {
		t.Fatalf("expected invalid_roll_die_id, got %v", appErr)
	}
}

func TestApplyRollRejectsEmbeddedSidesMismatch(t *testing.T) {
	sess := newTwoPlayerSession(1000)
	EnsureTurnState(sess, 1000, 45_000)

	dice := []RollDieRequest{{DieID: "d8-1", Sides: 6}}
	_, appErr := ApplyRoll(sess, "p1", RollRequest{Dice: dice}, 1000, 45_000)
	if appErr == nil || appErr.Reason != "roll_die_sides_mismatch" {
		t.Fatalf("expected roll_die_sides_mismatch, got %v", appErr)
	}
}

func TestApplyRollSuccessTransitionsToAwaitScore(t *testing.T) {
	sess := newTwoPlayerSession(1000)
	EnsureTurnState(sess, 1000, 45_000)

	dice := []RollDieRequest{{DieID: "d6-1", Sides: 6}, {DieID: "d6-2", Sides: 6}, {DieID: "d10-3", Sides: 10}}
	snap, appErr := ApplyRoll(sess, "p1", RollRequest{RollIndex: 1, Dice: dice}, 1000, 45_000)
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if len(snap.Dice) != 3 {
		t.Fatalf("expected 3 dice in snapshot, got %d", len(snap.Dice))
	}
	for _, d := range snap.Dice {
		if d.Value < 1 || d.Value > d.Sides {
			t.Fatalf("die value %d out of range for %d sides", d.Value, d.Sides)
		}
	}
	if sess.TurnState.Phase != catalog.PhaseAwaitScore {
		t.Fatalf("expected await_score, got %q", sess.TurnState.Phase)
	}
	if sess.TurnState.LastRollSnapshot.ServerRollID == "" {
		t.Fatalf("expected a generated server roll id")
	}
}

func TestApplyRollRejectsTooManyDice(t *testing.T) {
	sess := newTwoPlayerSession(1000)
	EnsureTurnState(sess, 1000, 45_000)

	dice := make([]RollDieRequest, MaxTurnRollDice+1)
	for i := range dice {
		dice[i] = RollDieRequest{DieID: "d6-" + itoa(i), Sides: 6}
	}
	_, appErr := ApplyRoll(sess, "p1", RollRequest{Dice: dice}, 1000, 45_000)
	if appErr == nil || appErr.Reason != "invalid_roll_payload" {
		t.Fatalf("expected invalid_roll_payload, got %v", appErr)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
