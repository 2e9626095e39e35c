package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresAdapter is the single-row-blob backend for deployments that
// already run postgres for everything else. Same shape as
// SQLiteAdapter: one row, upserted whole.
type PostgresAdapter struct {
	db     *sql.DB
	crypto *Cryptor
}

// PostgresConfig is the subset of server config needed to build a
// connection string.
type PostgresConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

func NewPostgresAdapter(cfg PostgresConfig, crypto *Cryptor) (*PostgresAdapter, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.Password,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres database: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY,
			payload BYTEA NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}

	return &PostgresAdapter{db: db, crypto: crypto}, nil
}

func (p *PostgresAdapter) Load(ctx context.Context) (*Snapshot, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return emptySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot row: %w", err)
	}

	if p.crypto != nil {
		raw, err = p.crypto.Decrypt(raw)
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

func (p *PostgresAdapter) Save(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if p.crypto != nil {
		raw, err = p.crypto.Encrypt(raw)
		if err != nil {
			return fmt.Errorf("encrypt snapshot: %w", err)
		}
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, payload) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload
	`, raw)
	if err != nil {
		return fmt.Errorf("upsert snapshot row: %w", err)
	}
	return nil
}

func (p *PostgresAdapter) Close() error { return p.db.Close() }
