package auth

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"
	"sync"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// NativeVerifier is the preferred native verifier path: first-party
// clients (service accounts, test harnesses, the
// ops enrollment flow) present a pairing token of the form
// "<playerId>:<code>" where code is a live TOTP code bound to a
// per-player secret issued at enrollment time.
type NativeVerifier struct {
	issuer string
	mu     sync.Mutex
	secrets map[string]string // playerID -> base32 secret
}

func NewNativeVerifier(issuer string) *NativeVerifier {
	return &NativeVerifier{issuer: issuer, secrets: make(map[string]string)}
}

// Enroll issues a fresh TOTP secret for playerID and renders a
// provisioning QR code as PNG bytes, via boombuler/barcode.
func (n *NativeVerifier) Enroll(playerID string) (secret string, qrPNG []byte, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      n.issuer,
		AccountName: playerID,
	})
	if err != nil {
		return "", nil, fmt.Errorf("generate totp key: %w", err)
	}

	img, err := key.Image(256, 256)
	if err != nil {
		return "", nil, fmt.Errorf("render qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", nil, fmt.Errorf("encode qr png: %w", err)
	}

	n.mu.Lock()
	n.secrets[playerID] = key.Secret()
	n.mu.Unlock()

	return key.Secret(), buf.Bytes(), nil
}

// VerifyPairingToken parses a "<playerId>:<code>" pairing token and
// validates the TOTP code against that player's enrolled secret.
func (n *NativeVerifier) VerifyPairingToken(token string) (playerID string, ok bool) {
	idx := strings.LastIndexByte(token, ':')
	if idx <= 0 || idx == len(token)-1 {
		return "", false
	}
	playerID, code := token[:idx], token[idx+1:]

	n.mu.Lock()
	secret, enrolled := n.secrets[playerID]
	n.mu.Unlock()
	if !enrolled {
		return "", false
	}

	valid, err := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !valid {
		return "", false
	}
	return playerID, true
}

// LooksLikePairingToken is a cheap structural check the auto-mode
// verifier uses to decide whether to try the native path before
// falling back to HTTP — it never treats a real third-party bearer
// token as a pairing token.
func LooksLikePairingToken(token string) bool {
	idx := strings.LastIndexByte(token, ':')
	if idx <= 0 || idx == len(token)-1 {
		return false
	}
	code := token[idx+1:]
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
