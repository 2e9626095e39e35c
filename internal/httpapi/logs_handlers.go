package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"dicehall/internal/apperr"
)

type logBatchEntry struct {
	SessionID string         `json:"sessionId,omitempty"`
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload,omitempty"`
}

type logBatchRequest struct {
	PlayerID string          `json:"playerId"`
	Entries  []logBatchEntry `json:"entries"`
}

// AppendLogBatch answers POST /logs/batch with per-entry accept/fail.
func (d *Deps) AppendLogBatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bearerPlayerID, ok := d.optionalSessionBearer(w, r)
	if !ok {
		return
	}

	var body logBatchRequest
	if !decodeJSON(r, &body) {
		writeAppErr(w, apperr.New("validation", "invalid_log_batch", http.StatusBadRequest, 0))
		return
	}
	playerID := body.PlayerID
	if bearerPlayerID != "" {
		playerID = bearerPlayerID
	}
	if playerID == "" {
		writeAppErr(w, apperr.New("validation", "missing_player_id", http.StatusBadRequest, 0))
		return
	}

	raws := make([]struct {
		SessionID string
		Event     string
		Payload   map[string]any
	}, len(body.Entries))
	for i, e := range body.Entries {
		raws[i].SessionID = e.SessionID
		raws[i].Event = e.Event
		raws[i].Payload = e.Payload
	}

	results := d.GameLog.AppendBatch(playerID, raws)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
