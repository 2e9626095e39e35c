// Package server wires every component into one running instance: the
// room catalog, token vault, identity verifier, store adapter,
// scheduler, WebSocket hub, and HTTP router, the way its own
// cmd/server/main.go built and owned a single *Server value.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"dicehall/internal/auth"
	"dicehall/internal/auxstore"
	"dicehall/internal/catalog"
	"dicehall/internal/config"
	"dicehall/internal/httpapi"
	"dicehall/internal/scheduler"
	"dicehall/internal/store"
	"dicehall/internal/wsfanout"
)

const (
	reconcileInterval = 15 * time.Second
	autosaveInterval  = 20 * time.Second
)

// Server owns every long-lived collaborator and the background
// goroutines that keep them reconciled and persisted.
type Server struct {
	cfg *config.Config

	catalog  *catalog.Catalog
	vault    *auth.Vault
	verifier *auth.Verifier
	native   *auth.NativeVerifier

	gameLog     *auxstore.GameLog
	leaderboard *auxstore.Leaderboard
	profiles    *auxstore.ProfileStore

	store     store.Adapter
	scheduler *scheduler.Scheduler
	hub       *wsfanout.Hub

	httpServer *http.Server

	stopBackground chan struct{}
	bgWG           sync.WaitGroup
}

// New constructs every collaborator and loads a persisted snapshot, if
// any, before returning. It does not yet start serving.
func New(cfg *config.Config) (*Server, error) {
	adapter, err := store.Open(store.BackendConfig{
		Backend:       cfg.StoreBackend,
		DataDir:       cfg.DataDir,
		DataFile:      cfg.DataFile,
		EncryptionKey: cfg.StoreEncryptionKey,
		Postgres: store.PostgresConfig{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			Name:     cfg.DBName,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
		},
	})
	if err != nil {
		return nil, err
	}

	cat := catalog.New(catalog.Config{
		SessionIdleTTLMs:         cfg.MultiplayerSessionIdleTTLMs,
		MaxHumanPlayers:          cfg.MaxMultiplayerHumanPlayers,
		MaxBots:                  cfg.MaxMultiplayerBots,
		PublicRoomBaseCount:      cfg.PublicRoomBaseCount,
		PublicRoomMinJoinable:    cfg.PublicRoomMinJoinable,
		PublicOverflowEmptyTTLMs: cfg.PublicRoomOverflowEmptyTTLMs,
		StaleParticipantMs:       cfg.PublicRoomStaleParticipantMs,
		PublicRoomCodePrefix:     cfg.PublicRoomCodePrefix,
	})

	vault := auth.NewVault()
	gameLog := auxstore.NewGameLog(cfg.GameLogCap)
	leaderboard := auxstore.NewLeaderboard(cfg.LeaderboardCap)
	profiles := auxstore.NewProfileStore()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	snap, err := adapter.Load(ctx)
	if err != nil {
		log.Printf("server: failed to load persisted state, starting empty: %v", err)
	} else {
		cat.Restore(snap.MultiplayerSessions)
		vault.Restore(snap.AccessTokens, snap.RefreshTokens)
		profiles.Restore(snap.Players, snap.FirebasePlayers)
		leaderboard.Restore(snap.LeaderboardScores, snap.LeaderboardByUID)
		gameLog.Restore(snap.GameLogs, snap.GameLogOrder)
	}

	var native *auth.NativeVerifier
	if cfg.IdentityMode == "native" || cfg.IdentityMode == "auto" {
		native = auth.NewNativeVerifier("dicehall")
	}

	var cache auth.ClaimCache
	if cfg.IdentityCacheBackend == "redis" {
		cache = auth.NewRedisClaimCache(cfg.RedisAddrs)
	} else {
		cache = auth.NewMemClaimCache()
	}

	verifier := auth.NewVerifier(auth.VerifierConfig{
		Mode:        auth.VerifierMode(cfg.IdentityMode),
		ProjectID:   cfg.IdentityProjectID,
		ProviderURL: cfg.IdentityProviderURL,
		Timeout:     time.Duration(cfg.IdentityTimeoutSecs) * time.Second,
	}, cache, native)

	hub := wsfanout.NewHub()
	cat.SetNotifier(hub)

	sched := scheduler.New(cat, scheduler.Config{
		TurnTimeoutMs:        cfg.TurnTimeoutMs,
		TurnTimeoutWarningMs: cfg.TurnTimeoutWarningMs,
	}, hub)

	cat.ReconcilePublicRooms()

	return &Server{
		cfg:            cfg,
		catalog:        cat,
		vault:          vault,
		verifier:       verifier,
		native:         native,
		gameLog:        gameLog,
		leaderboard:    leaderboard,
		profiles:       profiles,
		store:          adapter,
		scheduler:      sched,
		hub:            hub,
		stopBackground: make(chan struct{}),
	}, nil
}

// Run starts the HTTP+WebSocket listener and the background
// reconciliation/autosave loops; it blocks until the listener stops.
func (s *Server) Run() error {
	deps := &httpapi.Deps{
		Catalog:            s.catalog,
		Vault:              s.vault,
		Verifier:           s.verifier,
		Native:             s.native,
		Store:              s.store,
		Scheduler:          s.scheduler,
		GameLog:            s.gameLog,
		Leaderboard:        s.leaderboard,
		Profiles:           s.profiles,
		TurnTimeoutMs:      s.cfg.TurnTimeoutMs,
		MaxMultiplayerBots: s.cfg.MaxMultiplayerBots,
		IdentityTimeout:    time.Duration(s.cfg.IdentityTimeoutSecs) * time.Second,
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", httpapi.NewRouter(deps))
	mux.Handle("/", &wsfanout.UpgradeHandler{
		Hub:           s.hub,
		Catalog:       s.catalog,
		Vault:         s.vault,
		Scheduler:     s.scheduler,
		TurnTimeoutMs: s.cfg.TurnTimeoutMs,
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.startBackgroundLoops()

	log.Printf("dicehall ready on %s (ws and http share the same listener)", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) startBackgroundLoops() {
	s.bgWG.Add(2)
	go s.reconcileLoop()
	go s.autosaveLoop()
}

func (s *Server) reconcileLoop() {
	defer s.bgWG.Done()
	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.catalog.ReconcilePublicRooms()
			for _, sess := range s.catalog.Snapshot() {
				s.scheduler.Reconcile(sess.SessionID)
			}
		case <-s.stopBackground:
			return
		}
	}
}

func (s *Server) autosaveLoop() {
	defer s.bgWG.Done()
	ticker := time.NewTicker(autosaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.saveSnapshot()
		case <-s.stopBackground:
			return
		}
	}
}

func (s *Server) saveSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	access, refresh := s.vault.Snapshot()
	players, externals := s.profiles.Snapshot()
	scores, byUID := s.leaderboard.Snapshot()
	logs, order := s.gameLog.Snapshot()

	snap := &store.Snapshot{
		Version:             store.SnapshotVersion,
		Players:             players,
		FirebasePlayers:     externals,
		AccessTokens:        access,
		RefreshTokens:       refresh,
		MultiplayerSessions: s.catalog.Snapshot(),
		LeaderboardScores:   scores,
		LeaderboardByUID:    byUID,
		GameLogs:            logs,
		GameLogOrder:        order,
	}
	if err := s.store.Save(ctx, snap); err != nil {
		log.Printf("server: snapshot save failed: %v", err)
	}
}

// Shutdown performs the staged graceful shutdown sequence: stop the
// background loops, save a final snapshot, shut down the HTTP/WS
// listener (waiting up to timeout), then close the store. Upgraded
// WebSocket connections are not closed by the listener shutdown.
func (s *Server) Shutdown(timeout time.Duration) {
	log.Println("[1/4] stopping background reconciliation and autosave")
	close(s.stopBackground)
	s.bgWG.Wait()

	log.Println("[2/4] saving final snapshot")
	s.saveSnapshot()

	log.Println("[3/4] shutting down HTTP/WS listener")
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("server: http shutdown error: %v", err)
		}
	}

	log.Println("[4/4] closing store adapter")
	if err := s.store.Close(); err != nil {
		log.Printf("server: store close error: %v", err)
	}
}
