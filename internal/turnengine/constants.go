// Package turnengine implements the per-session turn-phase state
// machine: ensureTurnState, roll/score validation,
// end-turn rotation, and standings ordering. It operates on
// *catalog.Session values under the catalog's lock — callers invoke
// these functions from inside a catalog.Mutate closure.
package turnengine

const (
	// MaxTurnRollDice caps the number of dice a single roll payload may carry.
	MaxTurnRollDice = 64
	minDieSides     = 2
	maxDieSides     = 1000
)
