package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// NewRouter builds the full routing table, prefixed with /api and
// wrapped in permissive CORS.
func NewRouter(d *Deps) http.Handler {
	r := httprouter.New()

	r.GET("/api/health", d.Health)

	r.POST("/api/auth/token/refresh", d.RefreshToken)
	r.GET("/api/auth/me", d.Me)
	r.PUT("/api/auth/me", d.UpdateMe)
	r.GET("/api/auth/enroll/:playerId/qr", d.EnrollQR)

	r.GET("/api/players/:id/profile", d.GetProfile)
	r.PUT("/api/players/:id/profile", d.PutProfile)

	r.POST("/api/logs/batch", d.AppendLogBatch)

	r.POST("/api/leaderboard/scores", d.SubmitScore)
	r.GET("/api/leaderboard/global", d.GlobalLeaderboard)

	r.POST("/api/multiplayer/sessions", d.CreateSession)
	r.GET("/api/multiplayer/rooms", d.ListRooms)
	r.POST("/api/multiplayer/rooms/:code/join", d.JoinRoomByCode)
	r.POST("/api/multiplayer/sessions/:id/join", d.JoinSessionByID)
	r.POST("/api/multiplayer/sessions/:id/heartbeat", d.Heartbeat)
	r.POST("/api/multiplayer/sessions/:id/leave", d.Leave)
	r.POST("/api/multiplayer/sessions/:id/auth/refresh", d.RefreshSessionAuth)

	return WithCORS(r)
}
