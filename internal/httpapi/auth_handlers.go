package httpapi

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"dicehall/internal/apperr"
	"dicehall/internal/auth"
)

func nowMs() int64 { return time.Now().UnixMilli() }

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken answers POST /auth/token/refresh: single-use refresh,
// so the presented refresh token is deleted before the new bundle is
// issued and cannot be used again.
func (d *Deps) RefreshToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body refreshRequest
	if !decodeJSON(r, &body) || body.RefreshToken == "" {
		writeAppErr(w, apperr.New("validation", "missing_refresh_token", http.StatusBadRequest, 0))
		return
	}
	bundle, err := d.Vault.Refresh(body.RefreshToken)
	if err != nil {
		writeAppErr(w, apperr.From(err))
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

type meResponse struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// Me answers GET /auth/me: the caller's own identity claims plus the
// leaderboard display name on file for their uid
func (d *Deps) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := d.requireIdentity(w, r)
	if !ok {
		return
	}
	displayName := claims.DisplayName
	if prof, ok := d.Profiles.GetExternal(claims.UID); ok && prof.DisplayName != "" {
		displayName = prof.DisplayName
	}
	writeJSON(w, http.StatusOK, meResponse{
		UID:         claims.UID,
		DisplayName: displayName,
		Email:       claims.Email,
		IsAnonymous: claims.IsAnonymous,
	})
}

type meUpdateRequest struct {
	DisplayName string `json:"displayName"`
}

// UpdateMe answers PUT /auth/me: updates the caller's leaderboard
// display name.
func (d *Deps) UpdateMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := d.requireIdentity(w, r)
	if !ok {
		return
	}
	var body meUpdateRequest
	if !decodeJSON(r, &body) || body.DisplayName == "" {
		writeAppErr(w, apperr.New("validation", "missing_display_name", http.StatusBadRequest, 0))
		return
	}
	prof, _ := d.Profiles.GetExternal(claims.UID)
	prof.PlayerID = claims.UID
	prof.DisplayName = body.DisplayName
	prof.UpdatedAt = nowMs()
	d.Profiles.PutExternal(prof)
	writeJSON(w, http.StatusOK, meResponse{
		UID:         claims.UID,
		DisplayName: prof.DisplayName,
		Email:       claims.Email,
		IsAnonymous: claims.IsAnonymous,
	})
}

// requireIdentity resolves the bearer token into Claims, writing a 401
// and returning ok=false on any failure.
func (d *Deps) requireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	token := bearerToken(r)
	if token == "" {
		writeAppErr(w, apperr.ErrUnauthorized)
		return nil, false
	}
	claims, err := d.Verifier.Resolve(r.Context(), token)
	if err != nil {
		writeAppErr(w, apperr.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// EnrollQR answers GET /auth/enroll/{playerId}/qr: issues a fresh TOTP
// secret for playerId, replacing any secret enrolled earlier, and returns
// the pairing QR code as a PNG, for clients using the native identity
// verifier.
func (d *Deps) EnrollQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if d.Native == nil {
		writeAppErr(w, apperr.New("validation", "native_identity_disabled", http.StatusBadRequest, 0))
		return
	}
	playerID := ps.ByName("playerId")
	if playerID == "" {
		writeAppErr(w, apperr.New("validation", "missing_player_id", http.StatusBadRequest, 0))
		return
	}
	_, png, err := d.Native.Enroll(playerID)
	if err != nil {
		writeAppErr(w, apperr.ErrInternal)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
