package httpapi

import (
	"net/http"
	"testing"

	"github.com/julienschmidt/httprouter"

	"dicehall/internal/catalog"
)

func TestGetProfileReturnsNoContentWhenAbsent(t *testing.T) {
	d := testDeps()
	ps := httprouter.Params{{Key: "id", Value: "p1"}}
	w := doRequest(t, d.GetProfile, http.MethodGet, "/players/p1/profile", "", ps)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestPutProfileThenGetProfileRoundTrips(t *testing.T) {
	d := testDeps()
	ps := httprouter.Params{{Key: "id", Value: "p1"}}
	w := doRequest(t, d.PutProfile, http.MethodPut, "/players/p1/profile",
		`{"displayName":"Alice","settings":{"theme":"dark"}}`, ps)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	g := doRequest(t, d.GetProfile, http.MethodGet, "/players/p1/profile", "", ps)
	if g.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", g.Code)
	}
}

func TestGetProfileRejectsMismatchedBearer(t *testing.T) {
	d := testDeps()
	sess, _ := d.Catalog.Create(catalog.CreateOptions{CreatorPlayerID: "p1"})
	bundle, _ := d.Vault.IssueBundle("p1", sess.SessionID)

	ps := httprouter.Params{{Key: "id", Value: "someone-else"}}
	w := doRequestWithAuth(t, d.GetProfile, http.MethodGet, "/players/someone-else/profile", "", ps, bundle.AccessToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestGetProfileAllowsMatchingBearer(t *testing.T) {
	d := testDeps()
	sess, _ := d.Catalog.Create(catalog.CreateOptions{CreatorPlayerID: "p1"})
	bundle, _ := d.Vault.IssueBundle("p1", sess.SessionID)

	ps := httprouter.Params{{Key: "id", Value: "p1"}}
	w := doRequestWithAuth(t, d.GetProfile, http.MethodGet, "/players/p1/profile", "", ps, bundle.AccessToken)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for an absent profile, got %d", w.Code)
	}
}

func TestGetProfileRejectsInvalidBearer(t *testing.T) {
	d := testDeps()
	ps := httprouter.Params{{Key: "id", Value: "p1"}}
	w := doRequestWithAuth(t, d.GetProfile, http.MethodGet, "/players/p1/profile", "", ps, "garbage-token")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
