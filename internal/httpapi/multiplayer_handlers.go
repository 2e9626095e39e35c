package httpapi

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"dicehall/internal/apperr"
	"dicehall/internal/catalog"
)

type createSessionRequest struct {
	PlayerID          string                `json:"playerId"`
	DisplayName       string                `json:"displayName"`
	RequestedRoomCode string                `json:"requestedRoomCode"`
	Difficulty        catalog.GameDifficulty `json:"difficulty"`
	BotCount          int                   `json:"botCount"`
}

type sessionAuthResponse struct {
	SessionID string     `json:"sessionId"`
	RoomCode  string     `json:"roomCode"`
	PlayerID  string     `json:"playerId"`
	Auth      authBundle `json:"auth"`
}

type authBundle struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// CreateSession answers POST /multiplayer/sessions
func (d *Deps) CreateSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body createSessionRequest
	decodeJSON(r, &body)

	playerID := body.PlayerID
	if playerID == "" {
		playerID = uuid.New().String()
	}
	botCount := body.BotCount
	if botCount <= 0 {
		botCount = d.MaxMultiplayerBots
	}

	sess, err := d.Catalog.Create(catalog.CreateOptions{
		CreatorPlayerID:    playerID,
		CreatorDisplayName: body.DisplayName,
		RequestedRoomCode:  body.RequestedRoomCode,
		Difficulty:         body.Difficulty,
		BotCount:           botCount,
	})
	if err != nil {
		writeAppErr(w, apperr.ErrRoomCodeTaken)
		return
	}

	bundle, err := d.Vault.IssueBundle(playerID, sess.SessionID)
	if err != nil {
		writeAppErr(w, apperr.ErrInternal)
		return
	}

	d.Scheduler.Reconcile(sess.SessionID)
	writeJSON(w, http.StatusOK, sessionAuthResponse{
		SessionID: sess.SessionID,
		RoomCode:  sess.RoomCode,
		PlayerID:  playerID,
		Auth:      authBundle(bundle),
	})
}

// ListRooms answers GET /multiplayer/rooms: joinable public rooms.
func (d *Deps) ListRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := 24
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": d.Catalog.ListPublicRooms(limit)})
}

type joinRequest struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

// JoinRoomByCode answers POST /multiplayer/rooms/{code}/join.
func (d *Deps) JoinRoomByCode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	var body joinRequest
	decodeJSON(r, &body)
	playerID := body.PlayerID
	if playerID == "" {
		playerID = uuid.New().String()
	}

	sess, err := d.Catalog.JoinByCode(code, playerID, body.DisplayName)
	d.respondJoin(w, sess, playerID, err)
}

// JoinSessionByID answers POST /multiplayer/sessions/{id}/join.
func (d *Deps) JoinSessionByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sessionID := ps.ByName("id")
	var body joinRequest
	decodeJSON(r, &body)
	playerID := body.PlayerID
	if playerID == "" {
		playerID = uuid.New().String()
	}

	sess, err := d.Catalog.JoinByID(sessionID, playerID, body.DisplayName)
	d.respondJoin(w, sess, playerID, err)
}

func (d *Deps) respondJoin(w http.ResponseWriter, sess *catalog.Session, playerID string, err error) {
	if err != nil {
		writeAppErr(w, mapCatalogErrHTTP(err))
		return
	}
	bundle, err := d.Vault.IssueBundle(playerID, sess.SessionID)
	if err != nil {
		writeAppErr(w, apperr.ErrInternal)
		return
	}
	d.Scheduler.Reconcile(sess.SessionID)
	writeJSON(w, http.StatusOK, sessionAuthResponse{
		SessionID: sess.SessionID,
		RoomCode:  sess.RoomCode,
		PlayerID:  playerID,
		Auth:      authBundle(bundle),
	})
}

type playerIDOnlyRequest struct {
	PlayerID string `json:"playerId"`
}

// Heartbeat answers POST /multiplayer/sessions/{id}/heartbeat: session
// bearer required
func (d *Deps) Heartbeat(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sessionID := ps.ByName("id")
	token := bearerToken(r)
	rec, ok := d.Vault.Verify(token)
	if !ok || rec.SessionID != sessionID {
		writeAppErr(w, apperr.ErrUnauthorized)
		return
	}
	if err := d.Catalog.Heartbeat(sessionID, rec.PlayerID); err != nil {
		writeAppErr(w, mapCatalogErrHTTP(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Leave answers POST /multiplayer/sessions/{id}/leave
// ("none" auth — the body carries the departing playerId).
func (d *Deps) Leave(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sessionID := ps.ByName("id")
	var body playerIDOnlyRequest
	if !decodeJSON(r, &body) || body.PlayerID == "" {
		writeAppErr(w, apperr.New("validation", "missing_player_id", http.StatusBadRequest, 0))
		return
	}
	if err := d.Catalog.Leave(sessionID, body.PlayerID); err != nil {
		writeAppErr(w, mapCatalogErrHTTP(err))
		return
	}
	d.Scheduler.Reconcile(sessionID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// RefreshSessionAuth answers POST /multiplayer/sessions/{id}/auth/refresh:
// reissues tokens for a known participant without requiring the old
// bearer
func (d *Deps) RefreshSessionAuth(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sessionID := ps.ByName("id")
	var body playerIDOnlyRequest
	if !decodeJSON(r, &body) || body.PlayerID == "" {
		writeAppErr(w, apperr.New("validation", "missing_player_id", http.StatusBadRequest, 0))
		return
	}

	sess, expired, found := d.Catalog.GetLive(sessionID)
	if !found {
		writeAppErr(w, apperr.ErrRoomNotFound)
		return
	}
	if expired {
		writeAppErr(w, apperr.ErrSessionExpired)
		return
	}
	if _, isParticipant := sess.Participants[body.PlayerID]; !isParticipant {
		writeAppErr(w, apperr.ErrPlayerNotFound)
		return
	}

	bundle, err := d.Vault.IssueBundle(body.PlayerID, sessionID)
	if err != nil {
		writeAppErr(w, apperr.ErrInternal)
		return
	}
	writeJSON(w, http.StatusOK, sessionAuthResponse{
		SessionID: sessionID,
		RoomCode:  sess.RoomCode,
		PlayerID:  body.PlayerID,
		Auth:      authBundle(bundle),
	})
}
