package catalog

import (
	"crypto/rand"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SocketNotifier is how the catalog asks the WebSocket fan-out layer to
// drop a participant's sockets on leave/kick, without importing it —
// the scheduler/wsfanout packages depend on catalog, never the reverse.
type SocketNotifier interface {
	DisconnectParticipant(sessionID, playerID string, closeCode int, reason string)
}

type noopNotifier struct{}

func (noopNotifier) DisconnectParticipant(string, string, int, string) {}

// Config is the subset of server configuration the catalog needs.
type Config struct {
	SessionIdleTTLMs       int64
	MaxHumanPlayers        int
	MaxBots                int
	PublicRoomBaseCount    int
	PublicRoomMinJoinable  int
	PublicOverflowEmptyTTLMs int64
	StaleParticipantMs     int64
	PublicRoomCodePrefix   string
}

// Catalog is the in-memory map of sessions keyed by id, with a
// secondary lookup by room code. A single mutex
// guards every mutation path, matching the single serialization
// domain.
type Catalog struct {
	mu sync.Mutex

	cfg Config

	sessions map[string]*Session
	byCode   map[string]string // roomCode -> sessionId

	notifier SocketNotifier
}

var botRotation = []struct {
	name    string
	profile BotProfile
}{
	{"Gravel Pete", BotCautious},
	{"Lucky Mo", BotAggressive},
	{"Steady Ruth", BotBalanced},
	{"Wildcard Finch", BotAggressive},
	{"Patient Yara", BotCautious},
	{"Even-Keel Sal", BotBalanced},
}

// New builds an empty Catalog bound to cfg. Call Restore before serving
// traffic if a snapshot was loaded from the store.
func New(cfg Config) *Catalog {
	return &Catalog{
		cfg:      cfg,
		sessions: make(map[string]*Session),
		byCode:   make(map[string]string),
		notifier: noopNotifier{},
	}
}

// SetNotifier wires the live fan-out hub in; server.go calls this once
// during startup wiring.
func (c *Catalog) SetNotifier(n SocketNotifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n == nil {
		n = noopNotifier{}
	}
	c.notifier = n
}

// Restore replaces the catalog's contents with a snapshot loaded from
// the store, rebuilding the room-code index.
func (c *Catalog) Restore(sessions map[string]*Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = make(map[string]*Session, len(sessions))
	c.byCode = make(map[string]string, len(sessions))
	for id, s := range sessions {
		c.sessions[id] = s
		c.byCode[s.RoomCode] = id
	}
}

// Snapshot returns a shallow copy of the session map suitable for
// handing to the store adapter. Callers must not mutate the returned
// sessions directly.
func (c *Catalog) Snapshot() map[string]*Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*Session, len(c.sessions))
	for id, s := range c.sessions {
		out[id] = s
	}
	return out
}

func randomCode(n int) string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, n)
	rand.Read(buf)
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = charset[int(b)%len(charset)]
	}
	return string(out)
}

// codeInUseLocked reports whether code is held by any live (non-expired)
// session. Caller must hold c.mu.
func (c *Catalog) codeInUseLocked(code string, now int64) bool {
	id, ok := c.byCode[code]
	if !ok {
		return false
	}
	s, ok := c.sessions[id]
	return ok && !c.isExpiredLocked(s, now)
}

func (c *Catalog) isExpiredLocked(s *Session, now int64) bool {
	if s.RoomKind == RoomPublicDefault {
		return false
	}
	return s.ExpiresAt > 0 && s.ExpiresAt <= now
}

// CreateOptions configures a new session.
type CreateOptions struct {
	CreatorPlayerID   string
	CreatorDisplayName string
	RequestedRoomCode string
	Difficulty        GameDifficulty
	BotCount          int
}

// Create allocates a new private session seeded with the creator and up
// to cfg.MaxBots bots drawn from the fixed rotation.
func (c *Catalog) Create(opts CreateOptions) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := nowMs()

	code := opts.RequestedRoomCode
	if code != "" {
		if c.codeInUseLocked(code, now) {
			return nil, fmt.Errorf("room_code_taken")
		}
	} else {
		for attempt := 0; attempt < 24; attempt++ {
			candidate := randomCode(6)
			if !c.codeInUseLocked(candidate, now) {
				code = candidate
				break
			}
		}
		if code == "" {
			code = randomCode(6)
		}
	}

	difficulty := opts.Difficulty
	if difficulty == "" {
		difficulty = DifficultyNormal
	}

	sess := &Session{
		SessionID:      uuid.New().String(),
		RoomCode:       code,
		RoomKind:       RoomPrivate,
		GameDifficulty: difficulty,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now + c.cfg.SessionIdleTTLMs,
		Participants:   make(map[string]*Participant),
	}

	sess.Participants[opts.CreatorPlayerID] = newParticipant(opts.CreatorPlayerID, opts.CreatorDisplayName, now)

	botCount := opts.BotCount
	if botCount > c.cfg.MaxBots {
		botCount = c.cfg.MaxBots
	}
	for i := 0; i < botCount; i++ {
		rot := botRotation[i%len(botRotation)]
		botID := fmt.Sprintf("bot-%s-%d", sess.SessionID[:8], i)
		sess.Participants[botID] = newBotParticipant(botID, rot.name, rot.profile, now)
	}

	c.sessions[sess.SessionID] = sess
	c.byCode[sess.RoomCode] = sess.SessionID

	return sess, nil
}

// Get returns the session by id, or ok=false if it is missing. Expiry is
// not checked; GetLive reports it.
func (c *Catalog) Get(sessionID string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return s, true
}

// GetLive is like Get but also reports whether the session has expired.
func (c *Catalog) GetLive(sessionID string) (sess *Session, expired bool, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return nil, false, false
	}
	return s, c.isExpiredLocked(s, nowMs()), true
}

// JoinByID upserts a participant into an existing session by id.
func (c *Catalog) JoinByID(sessionID, playerID, displayName string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return nil, errSessionNotFound
	}
	now := nowMs()
	if c.isExpiredLocked(s, now) {
		return nil, errSessionExpiredErr
	}

	if existing, already := s.Participants[playerID]; already {
		existing.IsReady = false
		existing.LastHeartbeatAt = now
		if displayName != "" {
			existing.DisplayName = displayName
		}
		s.LastActivityAt = now
		return s, nil
	}

	if s.HumanCount() >= c.cfg.MaxHumanPlayers {
		return nil, errRoomFullErr
	}

	s.Participants[playerID] = newParticipant(playerID, displayName, now)
	s.LastActivityAt = now
	return s, nil
}

// JoinByCode resolves a room code to a live session by priority
// (private > public-overflow > public-default), tie-broken by most
// recent activity then creation time, and joins it.
func (c *Catalog) JoinByCode(code, playerID, displayName string) (*Session, error) {
	c.mu.Lock()
	candidates := make([]*Session, 0, 4)
	now := nowMs()
	for _, s := range c.sessions {
		if s.RoomCode == code && !c.isExpiredLocked(s, now) {
			candidates = append(candidates, s)
		}
	}
	c.mu.Unlock()

	if len(candidates) == 0 {
		return nil, errRoomNotFoundErr
	}

	sort.Slice(candidates, func(i, j int) bool {
		pi, pj := codePriority(candidates[i].RoomKind), codePriority(candidates[j].RoomKind)
		if pi != pj {
			return pi < pj
		}
		if candidates[i].LastActivityAt != candidates[j].LastActivityAt {
			return candidates[i].LastActivityAt > candidates[j].LastActivityAt
		}
		return candidates[i].CreatedAt > candidates[j].CreatedAt
	})

	return c.JoinByID(candidates[0].SessionID, playerID, displayName)
}

func codePriority(k RoomKind) int {
	switch k {
	case RoomPrivate:
		return 0
	case RoomPublicOverflow:
		return 1
	case RoomPublicDefault:
		return 2
	default:
		return 3
	}
}

// Leave removes a participant and applies the room-lifecycle leave rules:
// private rooms with no humans left expire; public rooms with no
// humans left reset in place.
func (c *Catalog) Leave(sessionID, playerID string) error {
	c.mu.Lock()
	s, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return errSessionNotFound
	}

	delete(s.Participants, playerID)
	now := nowMs()
	s.LastActivityAt = now

	var expire, reset bool
	if s.HumanCount() == 0 {
		switch s.RoomKind {
		case RoomPrivate:
			expire = true
		case RoomPublicDefault, RoomPublicOverflow:
			reset = true
		}
	}
	if expire {
		delete(c.sessions, sessionID)
		delete(c.byCode, s.RoomCode)
	}
	if reset {
		c.resetInPlaceLocked(s, now)
	}
	notifier := c.notifier
	c.mu.Unlock()

	notifier.DisconnectParticipant(sessionID, playerID, 1000, "left")
	return nil
}

// resetInPlaceLocked clears a public session's participants and
// refreshes its TTL lifecycle rules. Caller holds c.mu.
func (c *Catalog) resetInPlaceLocked(s *Session, now int64) {
	s.Participants = make(map[string]*Participant)
	s.TurnState = nil
	if s.RoomKind == RoomPublicDefault {
		s.ExpiresAt = now + c.cfg.SessionIdleTTLMs
	} else {
		s.ExpiresAt = now + c.cfg.PublicOverflowEmptyTTLMs
	}
}

// Heartbeat refreshes a participant's last-seen time and extends the
// session TTL.
func (c *Catalog) Heartbeat(sessionID, playerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return errSessionNotFound
	}
	now := nowMs()
	if c.isExpiredLocked(s, now) {
		return errSessionExpiredErr
	}
	p, ok := s.Participants[playerID]
	if !ok {
		return errPlayerNotFound
	}
	p.LastHeartbeatAt = now
	s.LastActivityAt = now
	s.ExpiresAt = now + c.cfg.SessionIdleTTLMs
	return nil
}

// MarkConnected/MarkDisconnected track socket presence for stale-
// participant pruning and scheduler arming decisions.
func (c *Catalog) MarkConnected(sessionID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[sessionID]; ok {
		if p, ok := s.Participants[playerID]; ok {
			p.connected = true
		}
	}
}

func (c *Catalog) MarkDisconnected(sessionID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[sessionID]; ok {
		if p, ok := s.Participants[playerID]; ok {
			p.connected = false
		}
	}
}

// Mutate runs fn with the catalog lock held and the live session for
// sessionID, if any. This is the seam the turn engine and the HTTP/WS
// handlers use to apply business-logic mutations under the single
// serialization domain requires.
func (c *Catalog) Mutate(sessionID string, fn func(s *Session) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return errSessionNotFound
	}
	if c.isExpiredLocked(s, nowMs()) {
		return errSessionExpiredErr
	}
	return fn(s)
}

// View runs fn with the catalog lock held read-side; fn must not
// mutate s.
func (c *Catalog) View(sessionID string, fn func(s *Session)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return false
	}
	fn(s)
	return true
}

// Now exposes the catalog's notion of "now" (wall clock, ms) so other
// packages stay consistent with it in tests.
func Now() int64 { return nowMs() }

// This blank reference to time.Now is kept for documentation purposes;
// time.Now is used directly everywhere else.
var _ = time.Now
