package turnengine

import (
	"sort"

	"dicehall/internal/catalog"
)

// EnsureTurnState produces the canonical TurnState given the current
// participants It is called before every read and
// after every mutation, and is idempotent: calling it twice with no
// intervening change is a no-op.
func EnsureTurnState(s *catalog.Session, now int64, turnTimeoutMs int64) {
	if s.TurnState == nil {
		s.TurnState = &catalog.TurnState{
			Phase:         catalog.PhaseAwaitRoll,
			TurnNumber:    1,
			Round:         1,
			TurnTimeoutMs: turnTimeoutMs,
		}
	}
	ts := s.TurnState

	joinOrder := joinOrderedIDs(s)

	// Step 1: non-complete participants in join order, keeping a
	// transiently-complete active player during ready_to_end so the
	// turn_end message can still reference them.
	ordered := make([]string, 0, len(joinOrder))
	for _, id := range joinOrder {
		p := s.Participants[id]
		if p == nil {
			continue
		}
		if !p.IsComplete {
			ordered = append(ordered, id)
			continue
		}
		if ts.Phase == catalog.PhaseReadyToEnd && ts.ActiveTurnPlayerID == id {
			ordered = append(ordered, id)
		}
	}

	// Step 2: merge with prior order — keep prior ordering for
	// still-present ids, append newcomers.
	merged := mergeOrder(ts.Order, ordered)
	ts.Order = merged

	// Step 3: no participants, or humans not all ready -> clear active +
	// snapshots.
	if len(merged) == 0 || !s.AllHumansReady() {
		ts.ActiveTurnPlayerID = ""
		ts.TurnExpiresAt = 0
		ts.LastRollSnapshot = nil
		ts.LastScoreSummary = nil
		ts.Phase = catalog.PhaseAwaitRoll
		ts.UpdatedAt = now
		return
	}

	// Step 4: if prior active player missing or now complete (outside
	// the transient ready_to_end carve-out above), advance to the next.
	activeStillValid := false
	if ts.ActiveTurnPlayerID != "" {
		for _, id := range merged {
			if id == ts.ActiveTurnPlayerID {
				activeStillValid = true
				break
			}
		}
	}
	if ts.ActiveTurnPlayerID == "" || !activeStillValid {
		ts.ActiveTurnPlayerID = merged[0]
		ts.Phase = catalog.PhaseAwaitRoll
		ts.LastRollSnapshot = nil
		ts.LastScoreSummary = nil
		ts.TurnExpiresAt = now + turnTimeoutMs
	}

	// Step 5: heal inconsistent phases.
	switch ts.Phase {
	case catalog.PhaseAwaitScore:
		if ts.LastRollSnapshot == nil {
			ts.Phase = catalog.PhaseAwaitRoll
		}
	case catalog.PhaseReadyToEnd:
		if ts.LastScoreSummary == nil || ts.LastRollSnapshot == nil ||
			ts.LastScoreSummary.RollServerID != ts.LastRollSnapshot.ServerRollID {
			if ts.LastRollSnapshot != nil {
				ts.Phase = catalog.PhaseAwaitScore
			} else {
				ts.Phase = catalog.PhaseAwaitRoll
			}
		}
	}

	// Step 6: arm a fresh deadline if the active player's is stale.
	if ts.ActiveTurnPlayerID != "" && ts.TurnExpiresAt <= now {
		ts.TurnExpiresAt = now + turnTimeoutMs
	}

	ts.TurnTimeoutMs = turnTimeoutMs
	ts.UpdatedAt = now
}

func joinOrderedIDs(s *catalog.Session) []string {
	ids := make([]string, 0, len(s.Participants))
	for id := range s.Participants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := s.Participants[ids[i]], s.Participants[ids[j]]
		if pi.JoinedAt != pj.JoinedAt {
			return pi.JoinedAt < pj.JoinedAt
		}
		return ids[i] < ids[j]
	})
	return ids
}

// mergeOrder preserves prior ordering for ids still present in
// current, then appends any newcomers in current's own order.
func mergeOrder(prior, current []string) []string {
	currentSet := make(map[string]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}

	out := make([]string, 0, len(current))
	seen := make(map[string]bool, len(current))
	for _, id := range prior {
		if currentSet[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	for _, id := range current {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}
