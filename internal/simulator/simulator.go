package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/seantiz/vaultchain/internal/model"
	"github.com/seantiz/vaultchain/internal/store"
)

// VaultFields are the optional inputs to CreateVault. Empty fields take the
// package defaults and a zero CreatedAt means now.
type VaultFields struct {
	Name        string
	OwnerID     string
	AccessTier  string
	Network     string
	RPCEndpoint string
	CreatedAt   time.Time
}

// Simulator implements the vault tasks in-process.
type Simulator struct {
	store  store.Store
	broker *LogBroker
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// New creates a simulator backed by the given store.
func New(s store.Store, logger *slog.Logger, opts ...Option) *Simulator {
	sim := &Simulator{
		store:  s,
		broker: NewLogBroker(),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(sim)
	}
	return sim
}

// Broker returns the simulator's log broker for SSE subscription.
func (s *Simulator) Broker() *LogBroker {
	return s.broker
}

func (s *Simulator) clock() time.Time {
	return s.now().UTC()
}

// CreateVault stores a vault record built from f. The ten seed assets and
// the vault.init entry are written only when the id is new; re-creating an
// existing id replaces the record alone.
func (s *Simulator) CreateVault(ctx context.Context, id string, f VaultFields) (*model.Vault, error) {
	v := &model.Vault{
		ID:          id,
		Name:        orDefault(f.Name, DefaultVaultName),
		OwnerID:     orDefault(f.OwnerID, DefaultOwnerID),
		AccessTier:  orDefault(f.AccessTier, DefaultAccessTier),
		Network:     orDefault(f.Network, DefaultNetwork),
		RPCEndpoint: orDefault(f.RPCEndpoint, DefaultRPCEndpoint),
		CreatedAt:   f.CreatedAt.UTC(),
	}
	if f.CreatedAt.IsZero() {
		v.CreatedAt = s.clock()
	}

	created, err := s.store.PutVault(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("put vault: %w", err)
	}
	if !created {
		return v, nil
	}

	if err := s.store.PrependAssets(ctx, id, newSeedAssets(v.CreatedAt)...); err != nil {
		return nil, fmt.Errorf("seed assets: %w", err)
	}
	if err := s.appendLog(ctx, id, newSeedLog(v)); err != nil {
		return nil, fmt.Errorf("seed log: %w", err)
	}

	s.logger.Debug("vault created", "vault_id", id, "network", v.Network)
	return v, nil
}

// InitVault creates a vault under a fresh id. Secret material in the input
// is not stored.
func (s *Simulator) InitVault(ctx context.Context, in model.VaultInitInput) (*model.InitResult, error) {
	id := model.NewID()
	if _, err := s.CreateVault(ctx, id, VaultFields{
		Name:        in.VaultName,
		OwnerID:     orDefault(in.OwnerID, initOwnerID),
		AccessTier:  in.AccessTier,
		Network:     in.Network,
		RPCEndpoint: in.RPCEndpoint,
	}); err != nil {
		return nil, err
	}
	return &model.InitResult{VaultID: id}, nil
}

// FetchDashboard returns the vault with its assets, logs and a freshly
// synthesized security series. An unknown id gets a Prime vault backdated by
// a day.
func (s *Simulator) FetchDashboard(ctx context.Context, id string) (*model.Dashboard, error) {
	v, err := s.store.GetVault(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		v, err = s.CreateVault(ctx, id, VaultFields{
			OwnerID:    primeOwnerID,
			AccessTier: primeAccessTier,
			CreatedAt:  s.clock().Add(-primeBackdate),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("load vault: %w", err)
	}

	assets, err := s.store.ListAssets(ctx, id)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.ListLogs(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.Dashboard{
		Vault:    v,
		Assets:   assets,
		Logs:     logs,
		Security: SecuritySeries(s.clock()),
	}, nil
}

// SecuritySeries returns hourly samples ending at now. The score follows
// 88 + round(4·sin(i)) and anomalies are always zero.
func SecuritySeries(now time.Time) []model.SecuritySample {
	samples := make([]model.SecuritySample, securitySamples)
	for i := range samples {
		samples[i] = model.SecuritySample{
			At:        now.Add(-time.Duration(securitySamples-1-i) * time.Hour),
			Score:     securityBaseline + int(math.Round(securityAmp*math.Sin(float64(i)))),
			Anomalies: 0,
		}
	}
	return samples
}

// AddAsset seals a new asset at the front of the vault's list and records
// an asset.seal log entry.
func (s *Simulator) AddAsset(ctx context.Context, id string, in model.AssetInput) (*model.AddAssetResult, error) {
	if err := s.ensureVault(ctx, id); err != nil {
		return nil, err
	}

	now := s.clock()
	a := model.Asset{
		ID:            model.NewID(),
		Name:          orDefault(in.Name, defaultAssetName),
		Kind:          orDefault(in.Kind, defaultAssetKind),
		EncryptedSize: fmt.Sprintf("%.1f MB", 1+rand.Float64()*4),
		CreatedAt:     now,
		Status:        model.AssetSealed,
	}
	if err := s.store.PrependAssets(ctx, id, a); err != nil {
		return nil, fmt.Errorf("add asset: %w", err)
	}

	if err := s.appendLog(ctx, id, model.LogEntry{
		ID:     model.NewID(),
		At:     now,
		Actor:  actorCore,
		Action: ActionAssetSeal,
		Detail: fmt.Sprintf("Secured %s with AES-GCM-256", a.Name),
	}); err != nil {
		return nil, err
	}

	return &model.AddAssetResult{OK: true, AssetID: a.ID}, nil
}

// RunAudit records a full-scan log entry. It never reports findings.
func (s *Simulator) RunAudit(ctx context.Context, id string) (*model.AuditResult, error) {
	if err := s.ensureVault(ctx, id); err != nil {
		return nil, err
	}

	if err := s.appendLog(ctx, id, model.LogEntry{
		ID:     model.NewID(),
		At:     s.clock(),
		Actor:  actorAuditor,
		Action: ActionAuditScan,
		Detail: auditDetail,
	}); err != nil {
		return nil, err
	}

	return &model.AuditResult{OK: true, Findings: 0}, nil
}

// ExportVault returns an opaque export handle. No archive is produced.
func (s *Simulator) ExportVault(_ context.Context, id string) (*model.ExportResult, error) {
	res := &model.ExportResult{OK: true, ExportID: model.NewExportID()}
	s.logger.Debug("vault export requested", "vault_id", id, "export_id", res.ExportID)
	return res, nil
}

// ensureVault creates a vault with default fields when id is unknown.
func (s *Simulator) ensureVault(ctx context.Context, id string) error {
	_, err := s.store.GetVault(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		_, err = s.CreateVault(ctx, id, VaultFields{})
	}
	if err != nil {
		return fmt.Errorf("ensure vault: %w", err)
	}
	return nil
}

func (s *Simulator) appendLog(ctx context.Context, id string, e model.LogEntry) error {
	if err := s.store.PrependLogs(ctx, id, e); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	s.broker.Publish(id, e)
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
