// Package httpapi is the JSON HTTP surface, wired together from the
// core pieces built in the sibling packages.
// Routing follows its own plain net/http style, generalized
// from a single DefaultServeMux to a path-param-aware router since the
// player/session/room id segments need it.
package httpapi

import (
	"time"

	"dicehall/internal/auth"
	"dicehall/internal/auxstore"
	"dicehall/internal/catalog"
	"dicehall/internal/scheduler"
	"dicehall/internal/store"
)

// Deps is every collaborator a handler might need. Handlers are plain
// methods on *Deps so they share one receiver without a god-object
// server struct leaking into this package.
type Deps struct {
	Catalog  *catalog.Catalog
	Vault    *auth.Vault
	Verifier *auth.Verifier
	Native   *auth.NativeVerifier

	Store store.Adapter

	Scheduler *scheduler.Scheduler

	GameLog     *auxstore.GameLog
	Leaderboard *auxstore.Leaderboard
	Profiles    *auxstore.ProfileStore

	TurnTimeoutMs     int64
	MaxMultiplayerBots int
	IdentityTimeout   time.Duration
}
