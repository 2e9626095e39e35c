package httpapi

import (
	"net/http"
	"testing"

	"dicehall/internal/catalog"
)

func TestAppendLogBatchRejectsMissingPlayerID(t *testing.T) {
	d := testDeps()
	w := doRequest(t, d.AppendLogBatch, http.MethodPost, "/logs/batch",
		`{"entries":[{"event":"turn_started"}]}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAppendLogBatchAcceptsEntriesWithExplicitPlayerID(t *testing.T) {
	d := testDeps()
	w := doRequest(t, d.AppendLogBatch, http.MethodPost, "/logs/batch",
		`{"playerId":"p1","entries":[{"event":"turn_started"},{"event":""}]}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if d.GameLog.Len() != 1 {
		t.Fatalf("expected 1 accepted entry queued, got %d", d.GameLog.Len())
	}
}

func TestAppendLogBatchPrefersBearerPlayerID(t *testing.T) {
	d := testDeps()
	sess, _ := d.Catalog.Create(catalog.CreateOptions{CreatorPlayerID: "p1"})
	bundle, _ := d.Vault.IssueBundle("p1", sess.SessionID)

	w := doRequestWithAuth(t, d.AppendLogBatch, http.MethodPost, "/logs/batch",
		`{"playerId":"ignored","entries":[{"event":"turn_started"}]}`, nil, bundle.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	entries, _ := d.GameLog.Snapshot()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry queued, got %d", len(entries))
	}
	for _, e := range entries {
		if e.PlayerID != "p1" {
			t.Fatalf("expected the bearer's player id p1 on the entry, got %q", e.PlayerID)
		}
	}
}
