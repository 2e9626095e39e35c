package turnengine

import (
	"testing"

	"dicehall/internal/catalog"
)

func TestStandingsOrdersCompleteFirst(t *testing.T) {
	sess := newTwoPlayerSession(1000)
	sess.Participants["p1"].Score = 100
	sess.Participants["p1"].IsComplete = false
	sess.Participants["p2"].Score = 10
	sess.Participants["p2"].IsComplete = true
	sess.Participants["p2"].CompletedAt = 5000

	rows := Standings(sess)
	if rows[0].PlayerID != "p2" {
		t.Fatalf("expected completed player first, got %q", rows[0].PlayerID)
	}
}

func TestStandingsRanksLowerScoreFirst(t *testing.T) {
	sess := newTwoPlayerSession(1000)
	sess.Participants["p1"].Score = 20
	sess.Participants["p1"].RemainingDice = 3
	sess.Participants["p2"].Score = 10
	sess.Participants["p2"].RemainingDice = 3

	rows := Standings(sess)
	if rows[0].PlayerID != "p2" || rows[1].PlayerID != "p1" {
		t.Fatalf("expected p2 (lower score) ranked first, got %v", rows)
	}
}

func TestStandingsTieBreaksByJoinedAt(t *testing.T) {
	sess := newTwoPlayerSession(1000)
	sess.Participants["p1"].Score = 10
	sess.Participants["p2"].Score = 10
	sess.Participants["p1"].RemainingDice = 5
	sess.Participants["p2"].RemainingDice = 5

	rows := Standings(sess)
	if rows[0].PlayerID != "p1" {
		t.Fatalf("expected earlier-joined p1 ranked first on a full tie, got %v", rows)
	}
}
