package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"dicehall/internal/apperr"
	"dicehall/internal/auxstore"
)

// optionalSessionBearer resolves an optional session bearer token to a
// playerId via the vault (not the identity verifier — these endpoints
// accept the multiplayer session's own access token's
// "optional session bearer (must match id)"). Absence is not an error;
// a present-but-invalid token is.
func (d *Deps) optionalSessionBearer(w http.ResponseWriter, r *http.Request) (playerID string, ok bool) {
	token := bearerToken(r)
	if token == "" {
		return "", true
	}
	rec, valid := d.Vault.Verify(token)
	if !valid {
		writeAppErr(w, apperr.ErrUnauthorized)
		return "", false
	}
	return rec.PlayerID, true
}

// GetProfile answers GET /players/{id}/profile: 204 when absent.
func (d *Deps) GetProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	bearerPlayerID, ok := d.optionalSessionBearer(w, r)
	if !ok {
		return
	}
	if bearerPlayerID != "" && bearerPlayerID != id {
		writeAppErr(w, apperr.ErrForbidden)
		return
	}
	prof, found := d.Profiles.GetPlayer(id)
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

// PutProfile answers PUT /players/{id}/profile: whole-object upsert.
func (d *Deps) PutProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	bearerPlayerID, ok := d.optionalSessionBearer(w, r)
	if !ok {
		return
	}
	if bearerPlayerID != "" && bearerPlayerID != id {
		writeAppErr(w, apperr.ErrForbidden)
		return
	}

	var prof auxstore.Profile
	if !decodeJSON(r, &prof) {
		writeAppErr(w, apperr.New("validation", "invalid_profile_body", http.StatusBadRequest, 0))
		return
	}
	prof.PlayerID = id
	prof.UpdatedAt = nowMs()
	d.Profiles.PutPlayer(prof)
	writeJSON(w, http.StatusOK, prof)
}
