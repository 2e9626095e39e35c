package httpapi

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"dicehall/internal/apperr"
)

type scoreSubmitRequest struct {
	Score      int   `json:"score"`
	DurationMs int64 `json:"durationMs"`
	Rolls      int   `json:"rolls"`
}

// SubmitScore answers POST /leaderboard/scores: identity bearer,
// non-anonymous only
func (d *Deps) SubmitScore(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := d.requireIdentity(w, r)
	if !ok {
		return
	}
	if claims.IsAnonymous {
		writeAppErr(w, apperr.ErrForbidden)
		return
	}

	var body scoreSubmitRequest
	if !decodeJSON(r, &body) {
		writeAppErr(w, apperr.New("validation", "invalid_score_body", http.StatusBadRequest, 0))
		return
	}

	displayName := claims.DisplayName
	if prof, ok := d.Profiles.GetExternal(claims.UID); ok && prof.DisplayName != "" {
		displayName = prof.DisplayName
	}

	entry := d.Leaderboard.Submit(claims.UID, displayName, body.Score, body.DurationMs, body.Rolls)
	writeJSON(w, http.StatusOK, entry)
}

// GlobalLeaderboard answers GET /leaderboard/global: top N entries,
// ("compare by (score asc, duration asc, rolls asc, ts
// asc, id)" — enforced inside auxstore.Leaderboard itself).
func (d *Deps) GlobalLeaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": d.Leaderboard.Top(n)})
}
