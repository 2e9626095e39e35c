package wsfanout

import (
	"encoding/json"

	"dicehall/internal/turnengine"
)

// inboundEnvelope is the shape every client frame is decoded into
// first; Type selects how the remaining fields are interpreted.
type inboundEnvelope struct {
	Type string `json:"type"`

	// passthrough payload for chaos_attack / particle:emit / game_update
	// / player_notification — opaque beyond the fields the server fills in.
	Payload json.RawMessage `json:"payload,omitempty"`

	// turn_action
	Action          string                     `json:"action,omitempty"`
	RollIndex       int                        `json:"rollIndex,omitempty"`
	Dice            []turnengine.RollDieRequest `json:"dice,omitempty"`
	SelectedDiceIDs []string                    `json:"selectedDiceIds,omitempty"`
	Points          int                         `json:"points,omitempty"`
	RollServerID    string                      `json:"rollServerId,omitempty"`
}

// outboundError is the {error, reason} frame sent on any rejected
// client message
type outboundError struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Source    string `json:"source"`
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	Expected  int    `json:"expectedPoints,omitempty"`
}

const (
	msgChaosAttack        = "chaos_attack"
	msgParticleEmit        = "particle:emit"
	msgGameUpdate          = "game_update"
	msgPlayerNotification  = "player_notification"
	msgTurnAction          = "turn_action"
	msgTurnEnd             = "turn_end"
	msgMarkReady           = "mark_ready"

	actionRoll  = "roll"
	actionScore = "score"
)
