package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// ReconcilePublicRooms runs the idempotent public-room inventory pass
// It normalizes roomKind, prunes stale public
// participants, demotes stale public-default sessions, fills every
// base slot, and tops up overflow rooms until the minimum-joinable
// guarantee holds.
func (c *Catalog) ReconcilePublicRooms() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconcilePublicRoomsLocked()
}

func (c *Catalog) reconcilePublicRoomsLocked() {
	now := nowMs()

	// Step 1+3: normalize roomKind, demote bad/duplicate/out-of-range
	// slots to overflow.
	slotOwner := make(map[int]string) // slot -> sessionId
	for id, s := range c.sessions {
		switch s.RoomKind {
		case RoomPrivate, RoomPublicDefault, RoomPublicOverflow:
		default:
			s.RoomKind = RoomPublicOverflow
			s.PublicRoomSlot = nil
		}

		if s.RoomKind != RoomPublicDefault {
			continue
		}
		if s.PublicRoomSlot == nil || *s.PublicRoomSlot < 0 || *s.PublicRoomSlot >= c.cfg.PublicRoomBaseCount {
			s.RoomKind = RoomPublicOverflow
			s.PublicRoomSlot = nil
			continue
		}
		if owner, taken := slotOwner[*s.PublicRoomSlot]; taken && owner != id {
			s.RoomKind = RoomPublicOverflow
			s.PublicRoomSlot = nil
			continue
		}
		slotOwner[*s.PublicRoomSlot] = id
	}

	// Step 2: prune stale public participants (neither connected nor
	// heartbeated within the stale window).
	for _, s := range c.sessions {
		if s.RoomKind == RoomPrivate {
			continue
		}
		for pid, p := range s.Participants {
			if p.IsBot || p.connected {
				continue
			}
			if now-p.LastHeartbeatAt > c.cfg.StaleParticipantMs {
				delete(s.Participants, pid)
			}
		}
		if s.HumanCount() == 0 && len(s.Participants) == 0 {
			c.resetInPlaceLocked(s, now)
		}
	}

	// Step 4: fill every base slot not currently claimed.
	for slot := 0; slot < c.cfg.PublicRoomBaseCount; slot++ {
		if _, taken := slotOwner[slot]; taken {
			continue
		}
		s := c.newPublicDefaultLocked(slot, now)
		c.sessions[s.SessionID] = s
		c.byCode[s.RoomCode] = s.SessionID
		slotOwner[slot] = s.SessionID
	}

	// Step 5: top up overflow rooms until the joinable minimum holds.
	for c.countJoinablePublicLocked(now) < c.cfg.PublicRoomMinJoinable {
		s := c.newPublicOverflowLocked(now)
		c.sessions[s.SessionID] = s
		c.byCode[s.RoomCode] = s.SessionID
	}
}

func (c *Catalog) countJoinablePublicLocked(now int64) int {
	n := 0
	for _, s := range c.sessions {
		if s.RoomKind == RoomPrivate {
			continue
		}
		if c.isExpiredLocked(s, now) {
			continue
		}
		if s.IsComplete() {
			continue
		}
		if s.HumanCount() >= c.cfg.MaxHumanPlayers {
			continue
		}
		n++
	}
	return n
}

func (c *Catalog) newPublicDefaultLocked(slot int, now int64) *Session {
	slotCopy := slot
	return &Session{
		SessionID:      uuid.New().String(),
		RoomCode:       fmt.Sprintf("%s%d", c.cfg.PublicRoomCodePrefix, slot+1),
		RoomKind:       RoomPublicDefault,
		PublicRoomSlot: &slotCopy,
		GameDifficulty: DifficultyNormal,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now + c.cfg.SessionIdleTTLMs,
		Participants:   make(map[string]*Participant),
	}
}

func (c *Catalog) newPublicOverflowLocked(now int64) *Session {
	code := ""
	for attempt := 0; attempt < 24; attempt++ {
		candidate := randomCode(6)
		if !c.codeInUseLocked(candidate, now) {
			code = candidate
			break
		}
	}
	if code == "" {
		// Collision on every attempt: fall back to one more random code
		// rather than failing the reconciliation pass outright.
		code = randomCode(6)
	}
	return &Session{
		SessionID:      uuid.New().String(),
		RoomCode:       code,
		RoomKind:       RoomPublicOverflow,
		GameDifficulty: DifficultyNormal,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now + c.cfg.PublicOverflowEmptyTTLMs,
		Participants:   make(map[string]*Participant),
	}
}
