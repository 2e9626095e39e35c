// Package config loads server configuration from a .env file and the
// process environment, the way its MUD engine loads its own
// bootstrap .env — but backed by godotenv instead of a hand-rolled
// line scanner, and carrying the room-server's own knobs.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every environment-tunable knob the server reads at startup.
type Config struct {
	Port    int
	WSBaseURL string

	DataDir     string
	DataFile    string
	StoreBackend string // "file", "sqlite", "postgres"
	StoreEncryptionKey string

	DBHost string
	DBPort int
	DBName string
	DBUser string
	DBPassword string

	RedisAddrs []string
	IdentityCacheBackend string // "memory" or "redis"

	IdentityMode      string // "native", "http", "auto"
	IdentityProjectID string
	IdentityProviderURL string
	IdentityTimeoutSecs int

	MultiplayerSessionIdleTTLMs   int64
	MultiplayerRoomActiveWindowMs int64
	MaxMultiplayerHumanPlayers    int
	MaxMultiplayerBots            int

	PublicRoomBaseCount          int
	PublicRoomMinJoinable        int
	PublicRoomOverflowEmptyTTLMs int64
	PublicRoomStaleParticipantMs int64
	PublicRoomCodePrefix         string

	TurnTimeoutMs        int64
	TurnTimeoutWarningMs int64

	GameLogCap      int
	LeaderboardCap  int

	ShutdownTimeoutSecs int
}

// defaults mirror the baseline defaulting style used throughout.
var defaults = Config{
	Port:      8080,
	WSBaseURL: "ws://localhost:8080",

	DataDir:      "data",
	DataFile:     "state.json",
	StoreBackend: "file",

	DBHost: "localhost",
	DBPort: 5432,
	DBName: "dicehall",
	DBUser: "dicehall",

	IdentityCacheBackend: "memory",

	IdentityMode:        "auto",
	IdentityProjectID:   "dicehall-dev",
	IdentityTimeoutSecs: 6,

	MultiplayerSessionIdleTTLMs:   30 * 60 * 1000,
	MultiplayerRoomActiveWindowMs: 5 * 60 * 1000,
	MaxMultiplayerHumanPlayers:    8,
	MaxMultiplayerBots:            4,

	PublicRoomBaseCount:          4,
	PublicRoomMinJoinable:        6,
	PublicRoomOverflowEmptyTTLMs: 10 * 60 * 1000,
	PublicRoomStaleParticipantMs: 2 * 60 * 1000,
	PublicRoomCodePrefix:         "LBY",

	TurnTimeoutMs:        45_000,
	TurnTimeoutWarningMs: 10_000,

	GameLogCap:     5000,
	LeaderboardCap: 2000,

	ShutdownTimeoutSecs: 30,
}

// Load reads envFile (if present; a missing file is logged and is not
// an error) then overlays the process environment.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
		log.Printf("config: %s not found, using defaults + process environment", envFile)
	}

	cfg := defaults

	cfg.Port = envInt("PORT", cfg.Port)
	cfg.WSBaseURL = envStr("WS_BASE_URL", cfg.WSBaseURL)

	cfg.DataDir = envStr("API_DATA_DIR", cfg.DataDir)
	cfg.DataFile = envStr("API_DATA_FILE", cfg.DataFile)
	cfg.StoreBackend = envStr("API_STORE_BACKEND", cfg.StoreBackend)
	cfg.StoreEncryptionKey = envStr("API_STORE_ENCRYPTION_KEY", cfg.StoreEncryptionKey)

	cfg.DBHost = envStr("DB_HOST", cfg.DBHost)
	cfg.DBPort = envInt("DB_PORT", cfg.DBPort)
	cfg.DBName = envStr("DB_NAME", cfg.DBName)
	cfg.DBUser = envStr("DB_USER", cfg.DBUser)
	cfg.DBPassword = envStr("DB_PASSWORD", cfg.DBPassword)

	cfg.IdentityCacheBackend = envStr("API_IDENTITY_CACHE_BACKEND", cfg.IdentityCacheBackend)
	if addrs := os.Getenv("REDIS_ADDRS"); addrs != "" {
		cfg.RedisAddrs = splitCSV(addrs)
	} else if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddrs = []string{addr}
	} else {
		cfg.RedisAddrs = []string{"localhost:6379"}
	}

	cfg.IdentityMode = envStr("IDENTITY_VERIFIER_MODE", cfg.IdentityMode)
	cfg.IdentityProjectID = envStr("IDENTITY_PROJECT_ID", cfg.IdentityProjectID)
	cfg.IdentityProviderURL = envStr("IDENTITY_PROVIDER_URL", cfg.IdentityProviderURL)
	cfg.IdentityTimeoutSecs = envInt("IDENTITY_VERIFY_TIMEOUT_SECS", cfg.IdentityTimeoutSecs)

	cfg.MultiplayerSessionIdleTTLMs = envInt64("MULTIPLAYER_SESSION_IDLE_TTL_MS", cfg.MultiplayerSessionIdleTTLMs)
	cfg.MultiplayerRoomActiveWindowMs = envInt64("MULTIPLAYER_ROOM_ACTIVE_WINDOW_MS", cfg.MultiplayerRoomActiveWindowMs)
	cfg.MaxMultiplayerHumanPlayers = envInt("MULTIPLAYER_MAX_HUMAN_PLAYERS", cfg.MaxMultiplayerHumanPlayers)
	cfg.MaxMultiplayerBots = envInt("MULTIPLAYER_MAX_BOTS", cfg.MaxMultiplayerBots)

	cfg.PublicRoomBaseCount = envInt("PUBLIC_ROOM_BASE_COUNT", cfg.PublicRoomBaseCount)
	cfg.PublicRoomMinJoinable = envInt("PUBLIC_ROOM_MIN_JOINABLE", cfg.PublicRoomMinJoinable)
	cfg.PublicRoomOverflowEmptyTTLMs = envInt64("PUBLIC_ROOM_OVERFLOW_EMPTY_TTL_MS", cfg.PublicRoomOverflowEmptyTTLMs)
	cfg.PublicRoomStaleParticipantMs = envInt64("PUBLIC_ROOM_STALE_PARTICIPANT_MS", cfg.PublicRoomStaleParticipantMs)
	cfg.PublicRoomCodePrefix = envStr("PUBLIC_ROOM_CODE_PREFIX", cfg.PublicRoomCodePrefix)

	cfg.TurnTimeoutMs = envInt64("TURN_TIMEOUT_MS", cfg.TurnTimeoutMs)
	cfg.TurnTimeoutWarningMs = envInt64("TURN_TIMEOUT_WARNING_MS", cfg.TurnTimeoutWarningMs)

	cfg.GameLogCap = envInt("GAME_LOG_CAP", cfg.GameLogCap)
	cfg.LeaderboardCap = envInt("LEADERBOARD_CAP", cfg.LeaderboardCap)

	cfg.ShutdownTimeoutSecs = envInt("SHUTDOWN_TIMEOUT_SECS", cfg.ShutdownTimeoutSecs)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: must be between 1 and 65535")
	}
	switch c.StoreBackend {
	case "file", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid API_STORE_BACKEND: %q", c.StoreBackend)
	}
	switch c.IdentityMode {
	case "native", "http", "auto":
	default:
		return fmt.Errorf("invalid IDENTITY_VERIFIER_MODE: %q", c.IdentityMode)
	}
	if c.PublicRoomBaseCount < 1 {
		return fmt.Errorf("PUBLIC_ROOM_BASE_COUNT must be at least 1")
	}
	if c.PublicRoomMinJoinable < c.PublicRoomBaseCount {
		return fmt.Errorf("PUBLIC_ROOM_MIN_JOINABLE must be >= PUBLIC_ROOM_BASE_COUNT")
	}
	return nil
}

// LogConfig logs the current configuration without sensitive data,
// matching its own LogConfig banner.
func (c *Config) LogConfig() {
	log.Println("=== dicehall server configuration ===")
	log.Printf("Port: %d", c.Port)
	log.Printf("Store backend: %s (dir=%s file=%s)", c.StoreBackend, c.DataDir, c.DataFile)
	log.Printf("Identity mode: %s (project=%s, cache=%s)", c.IdentityMode, c.IdentityProjectID, c.IdentityCacheBackend)
	log.Printf("Public rooms: base=%d min_joinable=%d prefix=%s", c.PublicRoomBaseCount, c.PublicRoomMinJoinable, c.PublicRoomCodePrefix)
	log.Printf("Turn timeout: %dms (warning %dms before)", c.TurnTimeoutMs, c.TurnTimeoutWarningMs)
	log.Println("======================================")
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("config: invalid int for %s=%q, keeping default %d", key, v, def)
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		log.Printf("config: invalid int64 for %s=%q, keeping default %d", key, v, def)
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
