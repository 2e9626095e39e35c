package catalog

import "testing"

func TestSessionIsCompleteRequiresAllHumansDone(t *testing.T) {
	s := &Session{Participants: map[string]*Participant{
		"p1": {PlayerID: "p1", IsComplete: true},
		"p2": {PlayerID: "p2", IsComplete: false},
		"bot-1": {PlayerID: "bot-1", IsBot: true, IsComplete: false},
	}}
	if s.IsComplete() {
		t.Fatal("expected incomplete while a human participant remains unfinished")
	}
	s.Participants["p2"].IsComplete = true
	if !s.IsComplete() {
		t.Fatal("expected complete once every human participant is finished")
	}
}

func TestSessionIsCompleteFalseWithNoHumans(t *testing.T) {
	s := &Session{Participants: map[string]*Participant{
		"bot-1": {PlayerID: "bot-1", IsBot: true, IsComplete: true},
	}}
	if s.IsComplete() {
		t.Fatal("a bot-only session should never report complete")
	}
}

func TestSessionAllHumansReadyIgnoresBots(t *testing.T) {
	s := &Session{Participants: map[string]*Participant{
		"p1":    {PlayerID: "p1", IsReady: true},
		"bot-1": {PlayerID: "bot-1", IsBot: true, IsReady: false},
	}}
	if !s.AllHumansReady() {
		t.Fatal("expected bots to be excluded from the readiness check")
	}
}

func TestSessionConnectedHumanCount(t *testing.T) {
	s := &Session{Participants: map[string]*Participant{
		"p1": {PlayerID: "p1", connected: true},
		"p2": {PlayerID: "p2", connected: false},
		"bot-1": {PlayerID: "bot-1", IsBot: true, connected: true},
	}}
	if got := s.ConnectedHumanCount(); got != 1 {
		t.Fatalf("expected 1 connected human, got %d", got)
	}
}
