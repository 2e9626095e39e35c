package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pquerna/otp/totp"

	"dicehall/internal/catalog"
)

func TestRefreshTokenRejectsMissingBody(t *testing.T) {
	d := testDeps()
	w := doRequest(t, d.RefreshToken, http.MethodPost, "/auth/token/refresh", `{}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRefreshTokenRotatesBundle(t *testing.T) {
	d := testDeps()
	sess, _ := d.Catalog.Create(catalog.CreateOptions{CreatorPlayerID: "p1"})
	bundle, err := d.Vault.IssueBundle("p1", sess.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := doRequest(t, d.RefreshToken, http.MethodPost, "/auth/token/refresh",
		fmt.Sprintf(`{"refreshToken":%q}`, bundle.RefreshToken), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func pairingToken(t *testing.T, d *Deps, playerID string) string {
	t.Helper()
	secret, _, err := d.Native.Enroll(playerID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	return playerID + ":" + code
}

func TestMeRequiresBearer(t *testing.T) {
	d := testDeps()
	w := doRequest(t, d.Me, http.MethodGet, "/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMeReturnsClaimsForValidToken(t *testing.T) {
	d := testDeps()
	token := pairingToken(t, d, "uid-1")

	w := doRequestWithAuth(t, d.Me, http.MethodGet, "/auth/me", "", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp meResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.UID != "uid-1" {
		t.Fatalf("expected uid-1, got %q", resp.UID)
	}
}

func TestUpdateMeRejectsEmptyDisplayName(t *testing.T) {
	d := testDeps()
	token := pairingToken(t, d, "uid-1")

	w := doRequestWithAuth(t, d.UpdateMe, http.MethodPut, "/auth/me", `{}`, nil, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpdateMePersistsDisplayName(t *testing.T) {
	d := testDeps()
	token := pairingToken(t, d, "uid-1")

	w := doRequestWithAuth(t, d.UpdateMe, http.MethodPut, "/auth/me", `{"displayName":"New Name"}`, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	prof, found := d.Profiles.GetExternal("uid-1")
	if !found || prof.DisplayName != "New Name" {
		t.Fatalf("expected persisted display name, got %+v (found=%v)", prof, found)
	}
}

func TestEnrollQRRejectsMissingPlayerID(t *testing.T) {
	d := testDeps()
	ps := httprouter.Params{{Key: "playerId", Value: ""}}
	w := doRequest(t, d.EnrollQR, http.MethodGet, "/auth/enroll//qr", "", ps)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestEnrollQRReturnsPNG(t *testing.T) {
	d := testDeps()
	ps := httprouter.Params{{Key: "playerId", Value: "p1"}}
	w := doRequest(t, d.EnrollQR, http.MethodGet, "/auth/enroll/p1/qr", "", ps)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("expected image/png content type, got %q", w.Header().Get("Content-Type"))
	}
	if w.Body.Len() == 0 {
		t.Fatal("expected non-empty PNG body")
	}
}
