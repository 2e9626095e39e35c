package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteAdapter persists the snapshot as a single blob row, the same
// whole-snapshot model as FileAdapter, backed by database/sql instead
// of a bare file — useful once callers want transactional writes or a
// shared volume. It does not attempt to normalize the snapshot into
// relational tables; the room catalog's shape does not suit a schema.
type SQLiteAdapter struct {
	db     *sql.DB
	crypto *Cryptor
}

func NewSQLiteAdapter(dataDir, dataFile string, crypto *Cryptor) (*SQLiteAdapter, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	path := filepath.Join(dataDir, dataFile)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database %s: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		fmt.Fprintf(os.Stderr, "store: warning: failed to set WAL mode: %v\n", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}

	return &SQLiteAdapter{db: db, crypto: crypto}, nil
}

func (s *SQLiteAdapter) Load(ctx context.Context) (*Snapshot, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return emptySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot row: %w", err)
	}

	if s.crypto != nil {
		raw, err = s.crypto.Decrypt(raw)
		if err != nil {
			return nil, fmt.Errorf("decrypt snapshot: %w", err)
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SQLiteAdapter) Save(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if s.crypto != nil {
		raw, err = s.crypto.Encrypt(raw)
		if err != nil {
			return fmt.Errorf("encrypt snapshot: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, payload) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload
	`, raw)
	if err != nil {
		return fmt.Errorf("upsert snapshot row: %w", err)
	}
	return nil
}

func (s *SQLiteAdapter) Close() error { return s.db.Close() }
