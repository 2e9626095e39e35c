package auth

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestEnrollThenVerifyPairingToken(t *testing.T) {
	n := NewNativeVerifier("dicehall-test")
	secret, png, err := n.Enroll("player-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret == "" {
		t.Fatal("expected a non-empty secret")
	}
	if len(png) == 0 {
		t.Fatal("expected non-empty PNG bytes")
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("unexpected error generating code: %v", err)
	}

	playerID, ok := n.VerifyPairingToken("player-1:" + code)
	if !ok || playerID != "player-1" {
		t.Fatalf("expected a valid pairing token to verify, got ok=%v playerID=%q", ok, playerID)
	}
}

func TestVerifyPairingTokenRejectsUnenrolledPlayer(t *testing.T) {
	n := NewNativeVerifier("dicehall-test")
	if _, ok := n.VerifyPairingToken("ghost:123456"); ok {
		t.Fatal("expected verification to fail for an unenrolled player")
	}
}

func TestVerifyPairingTokenRejectsMalformedToken(t *testing.T) {
	n := NewNativeVerifier("dicehall-test")
	n.Enroll("player-1")
	if _, ok := n.VerifyPairingToken("no-colon-here"); ok {
		t.Fatal("expected malformed token (no colon) to be rejected")
	}
	if _, ok := n.VerifyPairingToken("player-1:"); ok {
		t.Fatal("expected malformed token (empty code) to be rejected")
	}
}

func TestLooksLikePairingToken(t *testing.T) {
	cases := []struct {
		token string
		want  bool
	}{
		{"player-1:123456", true},
		{"player-1:12a456", false},
		{"no-colon", false},
		{"player-1:", false},
		{"player-1:1234567", false},
	}
	for _, c := range cases {
		if got := LooksLikePairingToken(c.token); got != c.want {
			t.Errorf("LooksLikePairingToken(%q) = %v, want %v", c.token, got, c.want)
		}
	}
}
