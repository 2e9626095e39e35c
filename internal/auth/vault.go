// Package auth implements the token vault and the
// identity verifier.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sync"
	"time"

	"dicehall/internal/apperr"
)

// TokenRecord is what a token hash resolves to.
type TokenRecord struct {
	PlayerID  string `json:"playerId"`
	SessionID string `json:"sessionId,omitempty"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Bundle is the pair of tokens handed back on issue/refresh.
type Bundle struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

// Vault issues, hashes, stores, verifies, and expires access and
// refresh tokens. Its two maps are the State singleton's
// accessTokens/refreshTokens
type Vault struct {
	mu      sync.Mutex
	access  map[string]TokenRecord // hash -> record
	refresh map[string]TokenRecord
}

// NewVault builds an empty vault. Call Restore after loading a snapshot.
func NewVault() *Vault {
	return &Vault{
		access:  make(map[string]TokenRecord),
		refresh: make(map[string]TokenRecord),
	}
}

func randomToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IssueBundle generates a fresh access/refresh token pair for playerID,
// optionally bound to sessionID.
func (v *Vault) IssueBundle(playerID string, sessionID string) (Bundle, error) {
	access, err := randomToken()
	if err != nil {
		return Bundle{}, err
	}
	refresh, err := randomToken()
	if err != nil {
		return Bundle{}, err
	}

	now := time.Now()
	accessExp := now.Add(accessTTL).UnixMilli()
	refreshExp := now.Add(refreshTTL).UnixMilli()

	v.mu.Lock()
	v.access[hashToken(access)] = TokenRecord{PlayerID: playerID, SessionID: sessionID, IssuedAt: now.UnixMilli(), ExpiresAt: accessExp}
	v.refresh[hashToken(refresh)] = TokenRecord{PlayerID: playerID, SessionID: sessionID, IssuedAt: now.UnixMilli(), ExpiresAt: refreshExp}
	v.mu.Unlock()

	return Bundle{AccessToken: access, RefreshToken: refresh, ExpiresAt: accessExp}, nil
}

// Verify looks up an access token by hash; expired records are deleted
// and treated as absent.
func (v *Vault) Verify(token string) (*TokenRecord, bool) {
	h := hashToken(token)
	now := time.Now().UnixMilli()

	v.mu.Lock()
	defer v.mu.Unlock()
	rec, ok := v.access[h]
	if !ok {
		return nil, false
	}
	if rec.ExpiresAt <= now {
		delete(v.access, h)
		return nil, false
	}
	return &rec, true
}

// Refresh rotates a refresh token: the old hash is deleted before the
// new pair is issued, making refresh tokens single-use.
func (v *Vault) Refresh(refreshToken string) (Bundle, error) {
	h := hashToken(refreshToken)
	now := time.Now().UnixMilli()

	v.mu.Lock()
	rec, ok := v.refresh[h]
	if ok {
		delete(v.refresh, h)
	}
	v.mu.Unlock()

	if !ok || rec.ExpiresAt <= now {
		return Bundle{}, apperr.ErrRefreshExpired
	}

	return v.IssueBundle(rec.PlayerID, rec.SessionID)
}

// Snapshot returns copies of the vault's maps for persistence.
func (v *Vault) Snapshot() (access, refresh map[string]TokenRecord) {
	v.mu.Lock()
	defer v.mu.Unlock()
	access = make(map[string]TokenRecord, len(v.access))
	for k, val := range v.access {
		access[k] = val
	}
	refresh = make(map[string]TokenRecord, len(v.refresh))
	for k, val := range v.refresh {
		refresh[k] = val
	}
	return access, refresh
}

// Restore replaces the vault's maps with a previously persisted snapshot.
func (v *Vault) Restore(access, refresh map[string]TokenRecord) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if access == nil {
		access = make(map[string]TokenRecord)
	}
	if refresh == nil {
		refresh = make(map[string]TokenRecord)
	}
	v.access = access
	v.refresh = refresh
}
