package store

import (
	"context"
	"path/filepath"
	"testing"

	"dicehall/internal/auxstore"
)

func TestFileAdapterLoadReturnsEmptySnapshotWhenMissing(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileAdapter(dir, "snapshot.json", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	snap, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Version != SnapshotVersion {
		t.Fatalf("expected version %d, got %d", SnapshotVersion, snap.Version)
	}
	if len(snap.Players) != 0 {
		t.Fatal("expected an empty snapshot")
	}
}

func TestFileAdapterSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileAdapter(dir, "snapshot.json", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	snap := emptySnapshot()
	snap.Players["p1"] = auxstore.Profile{PlayerID: "p1", DisplayName: "Alice"}

	ctx := context.Background()
	if err := f.Save(ctx, snap); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	loaded, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if loaded.Players["p1"].DisplayName != "Alice" {
		t.Fatalf("expected round-tripped player, got %+v", loaded.Players["p1"])
	}
}

func TestFileAdapterSaveThenLoadWithEncryption(t *testing.T) {
	dir := t.TempDir()
	crypto, err := NewCryptor("a-test-passphrase")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := NewFileAdapter(dir, "snapshot.json", crypto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	snap := emptySnapshot()
	snap.Players["p1"] = auxstore.Profile{PlayerID: "p1", DisplayName: "Encrypted"}

	ctx := context.Background()
	if err := f.Save(ctx, snap); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	loaded, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if loaded.Players["p1"].DisplayName != "Encrypted" {
		t.Fatalf("expected round-tripped player, got %+v", loaded.Players["p1"])
	}
}

func TestFileAdapterCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	if _, err := NewFileAdapter(dir, "snapshot.json", nil); err != nil {
		t.Fatalf("expected nested data dir to be created, got error: %v", err)
	}
}
