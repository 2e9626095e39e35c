// Package store implements the store adapter: a
// load()/save(snapshot) boundary around whichever durable backend is
// configured. The core treats it as an opaque interface and never
// blocks a handler on a save.
package store

import (
	"context"

	"dicehall/internal/auth"
	"dicehall/internal/auxstore"
	"dicehall/internal/catalog"
)

// SnapshotVersion is bumped whenever the persisted shape changes.
const SnapshotVersion = 1

// Snapshot is the single JSON-serializable object persisted to the
// store: every top-level state map plus the game-log order,
// version-tagged.
type Snapshot struct {
	Version int `json:"version"`

	Players         map[string]auxstore.Profile `json:"players"`
	FirebasePlayers map[string]auxstore.Profile `json:"firebasePlayers"`

	AccessTokens  map[string]auth.TokenRecord `json:"accessTokens"`
	RefreshTokens map[string]auth.TokenRecord `json:"refreshTokens"`

	MultiplayerSessions map[string]*catalog.Session `json:"multiplayerSessions"`

	LeaderboardScores    map[string]auxstore.ScoreEntry `json:"leaderboardScores"`
	LeaderboardByUID     map[string]string              `json:"leaderboardByUid"`

	GameLogs     map[string]auxstore.LogEntry `json:"gameLogs"`
	GameLogOrder []string                     `json:"gameLogOrder"`
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Version:             SnapshotVersion,
		Players:             make(map[string]auxstore.Profile),
		FirebasePlayers:     make(map[string]auxstore.Profile),
		AccessTokens:        make(map[string]auth.TokenRecord),
		RefreshTokens:       make(map[string]auth.TokenRecord),
		MultiplayerSessions: make(map[string]*catalog.Session),
		LeaderboardScores:   make(map[string]auxstore.ScoreEntry),
		LeaderboardByUID:    make(map[string]string),
		GameLogs:            make(map[string]auxstore.LogEntry),
		GameLogOrder:        nil,
	}
}

// Adapter is the persistence boundary the core depends on.
// Implementations may debounce saves internally; Save must never
// block the caller on slow I/O for longer than is unavoidable, and
// failures are the caller's to log — they are never fatal.
type Adapter interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}
