// Package store holds vault records together with their asset and log
// collections. Collections are kept newest first.
package store

import (
	"context"
	"errors"

	"github.com/seantiz/vaultchain/internal/model"
)

// ErrNotFound is returned when a vault is not found.
var ErrNotFound = errors.New("vault not found")

// Store defines the persistence operations for vaults.
type Store interface {
	// PutVault inserts or replaces a vault record. It reports whether the id
	// was unknown before the call; only then are empty collections created.
	PutVault(ctx context.Context, v *model.Vault) (bool, error)
	GetVault(ctx context.Context, id string) (*model.Vault, error)
	// PrependAssets puts assets at the front of the vault's list, keeping
	// their argument order: assets[0] becomes the newest.
	PrependAssets(ctx context.Context, vaultID string, assets ...model.Asset) error
	PrependLogs(ctx context.Context, vaultID string, entries ...model.LogEntry) error
	ListAssets(ctx context.Context, vaultID string) ([]model.Asset, error)
	ListLogs(ctx context.Context, vaultID string) ([]model.LogEntry, error)
	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
	Close() error
}
