package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// VerifierMode selects how bearer tokens presented by clients are
// resolved to claims.
type VerifierMode string

const (
	ModeNative VerifierMode = "native"
	ModeHTTP   VerifierMode = "http"
	ModeAuto   VerifierMode = "auto"
)

// VerifierConfig configures a Verifier.
type VerifierConfig struct {
	Mode        VerifierMode
	ProjectID   string
	ProviderURL string
	Timeout     time.Duration
}

// Verifier resolves a bearer token to Claims, using a cache keyed by
// the raw token string In native mode it validates a
// "<playerId>:<code>" pairing token against a per-player TOTP secret.
// In http mode it calls out to an external introspection endpoint. In
// auto mode it tries native first (cheap, structural check) and falls
// back to http.
type Verifier struct {
	cfg    VerifierConfig
	cache  ClaimCache
	native *NativeVerifier
	client *http.Client
}

func NewVerifier(cfg VerifierConfig, cache ClaimCache, native *NativeVerifier) *Verifier {
	return &Verifier{
		cfg:    cfg,
		cache:  cache,
		native: native,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Resolve verifies token and returns its claims. For tokens resolved
// over HTTP, a non-empty audience must equal cfg.ProjectID; the issuer
// is not compared with cfg.ProjectID and is only recorded in
// Claims.Provider. Native pairing tokens are implicitly scoped to this
// process's own enrollment table and get no audience check.
func (v *Verifier) Resolve(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("empty bearer token")
	}

	if claims, ok := v.cache.Get(ctx, token); ok {
		return claims, nil
	}

	var (
		claims *Claims
		err    error
	)

	switch v.cfg.Mode {
	case ModeNative:
		claims, err = v.resolveNative(token)
	case ModeHTTP:
		claims, err = v.resolveHTTP(ctx, token)
	case ModeAuto:
		if LooksLikePairingToken(token) {
			claims, err = v.resolveNative(token)
		} else {
			claims, err = v.resolveHTTP(ctx, token)
		}
	default:
		return nil, fmt.Errorf("unknown identity verifier mode %q", v.cfg.Mode)
	}
	if err != nil {
		return nil, err
	}

	skew := 30 * time.Second
	ttl := time.Until(time.UnixMilli(claims.ExpiresAt)) - skew
	v.cache.Set(ctx, token, claims, ttl)

	return claims, nil
}

func (v *Verifier) resolveNative(token string) (*Claims, error) {
	if v.native == nil {
		return nil, fmt.Errorf("native identity verifier not configured")
	}
	playerID, ok := v.native.VerifyPairingToken(token)
	if !ok {
		return nil, fmt.Errorf("invalid pairing token")
	}
	return &Claims{
		UID:         playerID,
		IsAnonymous: false,
		Provider:    "native",
		ExpiresAt:   time.Now().Add(accessTTL).UnixMilli(),
	}, nil
}

// introspectionResponse is the shape expected from ProviderURL.
type introspectionResponse struct {
	Active      bool   `json:"active"`
	Sub         string `json:"sub"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	Anonymous   bool   `json:"anonymous"`
	Audience    string `json:"aud"`
	Issuer      string `json:"iss"`
	ExpiresAt   int64  `json:"exp"`
}

func (v *Verifier) resolveHTTP(ctx context.Context, token string) (*Claims, error) {
	if v.cfg.ProviderURL == "" {
		return nil, fmt.Errorf("identity provider url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.ProviderURL, strings.NewReader("token="+token))
	if err != nil {
		return nil, fmt.Errorf("build introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introspection request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("introspection endpoint returned %d", resp.StatusCode)
	}

	var body introspectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode introspection response: %w", err)
	}
	if !body.Active {
		return nil, fmt.Errorf("token is not active")
	}
	if body.Audience != "" && body.Audience != v.cfg.ProjectID {
		return nil, fmt.Errorf("token audience %q does not match project %q", body.Audience, v.cfg.ProjectID)
	}

	exp := body.ExpiresAt
	if exp == 0 {
		exp = time.Now().Add(accessTTL).UnixMilli()
	} else if exp < 1_000_000_000_000 {
		// provider sent seconds, not milliseconds
		exp *= 1000
	}

	return &Claims{
		UID:         body.Sub,
		Email:       body.Email,
		DisplayName: body.DisplayName,
		IsAnonymous: body.Anonymous,
		Provider:    "http:" + body.Issuer,
		ExpiresAt:   exp,
	}, nil
}
