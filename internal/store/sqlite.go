package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/seantiz/vaultchain/internal/model"

	_ "modernc.org/sqlite"
)

const memoryDSN = ":memory:"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vaults (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    owner_id     TEXT NOT NULL,
    access_tier  TEXT NOT NULL,
    network      TEXT NOT NULL,
    rpc_endpoint TEXT NOT NULL,
    created_at   DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS assets (
    seq            INTEGER PRIMARY KEY AUTOINCREMENT,
    id             TEXT NOT NULL,
    vault_id       TEXT NOT NULL,
    name           TEXT NOT NULL,
    kind           TEXT NOT NULL,
    encrypted_size TEXT NOT NULL,
    created_at     DATETIME NOT NULL,
    status         TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_assets_vault ON assets (vault_id, seq)`,
	`CREATE TABLE IF NOT EXISTS vault_logs (
    seq      INTEGER PRIMARY KEY AUTOINCREMENT,
    id       TEXT NOT NULL,
    vault_id TEXT NOT NULL,
    at       DATETIME NOT NULL,
    actor    TEXT NOT NULL,
    action   TEXT NOT NULL,
    detail   TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_vault_logs_vault ON vault_logs (vault_id, seq)`,
}

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite. Collection order is the
// insertion sequence, read back in descending order.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every pooled connection to :memory: would get its own database.
	if dbPath == memoryDSN {
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// sqliteDSN applies the connection settings through the DSN so that every
// pooled connection gets them, not only the first. Transactions begin
// IMMEDIATE so concurrent writers queue on busy_timeout instead of failing
// to upgrade a read lock.
func sqliteDSN(dbPath string) string {
	params := url.Values{}
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_txlock", "immediate")
	if dbPath == memoryDSN {
		return dbPath + "?" + params.Encode()
	}
	params.Add("_pragma", "journal_mode(WAL)")
	if !strings.HasPrefix(dbPath, "file:") {
		dbPath = "file:" + dbPath
	}
	return dbPath + "?" + params.Encode()
}

// Ping checks that the database answers a query.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PutVault inserts a vault record, or replaces the fields of an existing one.
func (s *SQLiteStore) PutVault(ctx context.Context, v *model.Vault) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO vaults (id, name, owner_id, access_tier, network, rpc_endpoint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		v.ID, v.Name, v.OwnerID, v.AccessTier, v.Network, v.RPCEndpoint, v.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert vault: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert vault: %w", err)
	}
	created := n == 1

	if !created {
		if _, err := tx.ExecContext(ctx,
			`UPDATE vaults SET name = ?, owner_id = ?, access_tier = ?, network = ?,
				rpc_endpoint = ?, created_at = ?
			WHERE id = ?`,
			v.Name, v.OwnerID, v.AccessTier, v.Network, v.RPCEndpoint, v.CreatedAt.UTC(), v.ID,
		); err != nil {
			return false, fmt.Errorf("update vault: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit vault: %w", err)
	}
	return created, nil
}

// GetVault retrieves a vault by ID.
func (s *SQLiteStore) GetVault(ctx context.Context, id string) (*model.Vault, error) {
	v := &model.Vault{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, access_tier, network, rpc_endpoint, created_at
		FROM vaults WHERE id = ?`, id,
	).Scan(&v.ID, &v.Name, &v.OwnerID, &v.AccessTier, &v.Network, &v.RPCEndpoint, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vault: %w", err)
	}
	return v, nil
}

// PrependAssets inserts assets so that assets[0] ends up with the highest sequence.
func (s *SQLiteStore) PrependAssets(ctx context.Context, vaultID string, assets ...model.Asset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i := len(assets) - 1; i >= 0; i-- {
		a := assets[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assets (id, vault_id, name, kind, encrypted_size, created_at, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, vaultID, a.Name, a.Kind, a.EncryptedSize, a.CreatedAt.UTC(), a.Status,
		); err != nil {
			return fmt.Errorf("insert asset: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assets: %w", err)
	}
	return nil
}

// PrependLogs inserts entries so that entries[0] ends up with the highest sequence.
func (s *SQLiteStore) PrependLogs(ctx context.Context, vaultID string, entries ...model.LogEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vault_logs (id, vault_id, at, actor, action, detail)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, vaultID, e.At.UTC(), e.Actor, e.Action, e.Detail,
		); err != nil {
			return fmt.Errorf("insert log entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit log entries: %w", err)
	}
	return nil
}

// ListAssets returns the vault's assets, newest first.
func (s *SQLiteStore) ListAssets(ctx context.Context, vaultID string) ([]model.Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, encrypted_size, created_at, status
		FROM assets WHERE vault_id = ? ORDER BY seq DESC`, vaultID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.Kind, &a.EncryptedSize, &a.CreatedAt, &a.Status); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return assets, nil
}

// ListLogs returns the vault's log entries, newest first.
func (s *SQLiteStore) ListLogs(ctx context.Context, vaultID string) ([]model.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, actor, action, detail
		FROM vault_logs WHERE vault_id = ? ORDER BY seq DESC`, vaultID,
	)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	defer rows.Close()

	entries := []model.LogEntry{}
	for rows.Next() {
		var e model.LogEntry
		if err := rows.Scan(&e.ID, &e.At, &e.Actor, &e.Action, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}
	return entries, nil
}
