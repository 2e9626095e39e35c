package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type healthResponse struct {
	Status        string `json:"status"`
	RoomCount     int    `json:"roomCount"`
	GameLogCount  int    `json:"gameLogCount"`
	LeaderboardCount int `json:"leaderboardCount"`
}

// Health answers GET /health with liveness counts
func (d *Deps) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms := d.Catalog.Snapshot()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:           "ok",
		RoomCount:        len(rooms),
		GameLogCount:     d.GameLog.Len(),
		LeaderboardCount: d.Leaderboard.Len(),
	})
}
