package store

import (
	"context"
	"slices"
	"sync"

	"github.com/seantiz/vaultchain/internal/model"
)

// Compile-time interface satisfaction check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store with maps. A single mutex guards every
// read-modify-write, so concurrent prepends to one vault are never lost.
type MemoryStore struct {
	mu     sync.Mutex
	vaults map[string]model.Vault
	assets map[string][]model.Asset
	logs   map[string][]model.LogEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vaults: make(map[string]model.Vault),
		assets: make(map[string][]model.Asset),
		logs:   make(map[string][]model.LogEntry),
	}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// PutVault inserts or replaces a vault record.
func (s *MemoryStore) PutVault(_ context.Context, v *model.Vault) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.vaults[v.ID]
	s.vaults[v.ID] = *v
	if _, ok := s.assets[v.ID]; !ok {
		s.assets[v.ID] = []model.Asset{}
	}
	if _, ok := s.logs[v.ID]; !ok {
		s.logs[v.ID] = []model.LogEntry{}
	}
	return !exists, nil
}

// GetVault returns a copy of the vault record.
func (s *MemoryStore) GetVault(_ context.Context, id string) (*model.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vaults[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

// PrependAssets puts assets at the front of the vault's asset list.
func (s *MemoryStore) PrependAssets(_ context.Context, vaultID string, assets ...model.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assets[vaultID] = append(slices.Clone(assets), s.assets[vaultID]...)
	return nil
}

// PrependLogs puts entries at the front of the vault's log list.
func (s *MemoryStore) PrependLogs(_ context.Context, vaultID string, entries ...model.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs[vaultID] = append(slices.Clone(entries), s.logs[vaultID]...)
	return nil
}

// ListAssets returns a snapshot of the vault's assets, newest first.
func (s *MemoryStore) ListAssets(_ context.Context, vaultID string) ([]model.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.assets[vaultID])
	if out == nil {
		out = []model.Asset{}
	}
	return out, nil
}

// ListLogs returns a snapshot of the vault's log entries, newest first.
func (s *MemoryStore) ListLogs(_ context.Context, vaultID string) ([]model.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.logs[vaultID])
	if out == nil {
		out = []model.LogEntry{}
	}
	return out, nil
}
