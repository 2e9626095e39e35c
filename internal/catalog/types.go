// Package catalog owns the room/session data model exclusively.
// Sessions are mutated only through Catalog's methods,
// always under its single coarse lock; the turn engine and scheduler
// packages operate on the *Session values handed back by those methods
// but never hold their own copy of the catalog's bookkeeping maps.
package catalog

import "time"

// RoomKind is the closed set a session's roomKind normalizes to.
type RoomKind string

const (
	RoomPrivate        RoomKind = "private"
	RoomPublicDefault  RoomKind = "public_default"
	RoomPublicOverflow RoomKind = "public_overflow"
)

// GameDifficulty controls bot timing and scoring bias.
type GameDifficulty string

const (
	DifficultyEasy   GameDifficulty = "easy"
	DifficultyNormal GameDifficulty = "normal"
	DifficultyHard   GameDifficulty = "hard"
)

// BotProfile is a behavioral class affecting bot turn latency and bias.
type BotProfile string

const (
	BotCautious  BotProfile = "cautious"
	BotBalanced  BotProfile = "balanced"
	BotAggressive BotProfile = "aggressive"
)

// Phase is one state of the per-session turn machine.
type Phase string

const (
	PhaseAwaitRoll  Phase = "await_roll"
	PhaseAwaitScore Phase = "await_score"
	PhaseReadyToEnd Phase = "ready_to_end"
)

// Die is one server-generated die outcome.
type Die struct {
	DieID string `json:"dieId"`
	Sides int    `json:"sides"`
	Value int    `json:"value"`
}

// RollSnapshot is the most recent roll outcome in a turn.
type RollSnapshot struct {
	RollIndex    int    `json:"rollIndex"`
	ServerRollID string `json:"serverRollId"`
	Dice         []Die  `json:"dice"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// ScoreSummary is the most recent scoring decision in a turn.
type ScoreSummary struct {
	SelectedDiceIDs    []string `json:"selectedDiceIds"`
	Points             int      `json:"points"`
	ExpectedPoints     int      `json:"expectedPoints"`
	RollServerID       string   `json:"rollServerId"`
	ProjectedTotalScore int     `json:"projectedTotalScore"`
	RemainingDice      int      `json:"remainingDice"`
	IsComplete         bool     `json:"isComplete"`
	UpdatedAt          int64    `json:"updatedAt"`
}

// TurnState is the canonical per-session turn machine state.
type TurnState struct {
	Order               []string      `json:"order"`
	ActiveTurnPlayerID  string        `json:"activeTurnPlayerId,omitempty"`
	Round               int           `json:"round"`
	TurnNumber          int           `json:"turnNumber"`
	Phase               Phase         `json:"phase"`
	LastRollSnapshot    *RollSnapshot `json:"lastRollSnapshot,omitempty"`
	LastScoreSummary    *ScoreSummary `json:"lastScoreSummary,omitempty"`
	TurnTimeoutMs       int64         `json:"turnTimeoutMs"`
	TurnExpiresAt       int64         `json:"turnExpiresAt,omitempty"`
	UpdatedAt           int64         `json:"updatedAt"`
}

// Participant is one player (human or bot) seated in a session.
type Participant struct {
	PlayerID        string     `json:"playerId"`
	DisplayName     string     `json:"displayName,omitempty"`
	JoinedAt        int64      `json:"joinedAt"`
	LastHeartbeatAt int64      `json:"lastHeartbeatAt"`
	IsBot           bool       `json:"isBot"`
	BotProfile      BotProfile `json:"botProfile,omitempty"`
	IsReady         bool       `json:"isReady"`
	Score           int        `json:"score"`
	RemainingDice   int        `json:"remainingDice"`
	IsComplete      bool       `json:"isComplete"`
	CompletedAt     int64      `json:"completedAt,omitempty"`

	// connected tracks whether a socket currently subscribes to this
	// participant; owned by the catalog, updated by the fan-out layer
	// through MarkConnected/MarkDisconnected.
	connected bool
}

// Connected reports whether a socket currently subscribes to this participant.
func (p *Participant) Connected() bool { return p.connected }

const startingDice = 15

func newParticipant(playerID, displayName string, now int64) *Participant {
	return &Participant{
		PlayerID:        playerID,
		DisplayName:     displayName,
		JoinedAt:        now,
		LastHeartbeatAt: now,
		IsReady:         false,
		RemainingDice:   startingDice,
	}
}

func newBotParticipant(playerID, displayName string, profile BotProfile, now int64) *Participant {
	p := newParticipant(playerID, displayName, now)
	p.IsBot = true
	p.BotProfile = profile
	p.IsReady = true
	return p
}

// Session is the server-side match container. It carries no
// mutex of its own; all access happens through the owning Catalog's lock.
type Session struct {
	SessionID      string                  `json:"sessionId"`
	RoomCode       string                  `json:"roomCode"`
	RoomKind       RoomKind                `json:"roomKind"`
	PublicRoomSlot *int                    `json:"publicRoomSlot,omitempty"`
	GameDifficulty GameDifficulty          `json:"gameDifficulty"`
	CreatedAt      int64                   `json:"createdAt"`
	LastActivityAt int64                   `json:"lastActivityAt"`
	ExpiresAt      int64                   `json:"expiresAt"`
	Participants   map[string]*Participant `json:"participants"`
	TurnState      *TurnState              `json:"turnState,omitempty"`
}

func nowMs() int64 { return time.Now().UnixMilli() }

// HumanCount returns the number of non-bot participants.
func (s *Session) HumanCount() int {
	n := 0
	for _, p := range s.Participants {
		if !p.IsBot {
			n++
		}
	}
	return n
}

// ConnectedHumanCount returns the number of socket-connected humans.
func (s *Session) ConnectedHumanCount() int {
	n := 0
	for _, p := range s.Participants {
		if !p.IsBot && p.connected {
			n++
		}
	}
	return n
}

// IsComplete reports whether every human participant has finished.
func (s *Session) IsComplete() bool {
	any := false
	for _, p := range s.Participants {
		if p.IsBot {
			continue
		}
		any = true
		if !p.IsComplete {
			return false
		}
	}
	return any
}

// AllHumansReady reports whether every human participant is ready.
func (s *Session) AllHumansReady() bool {
	for _, p := range s.Participants {
		if !p.IsBot && !p.IsReady {
			return false
		}
	}
	return true
}
