package simulator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seantiz/vaultchain/internal/model"
	"github.com/seantiz/vaultchain/internal/task"
)

// Register binds every known task name to its simulator operation.
func (s *Simulator) Register(reg *task.Registry) {
	reg.Register(task.InitVault, "create a vault with seeded demo assets", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var in model.VaultInitInput
		if err := decodePayload(payload, &in); err != nil {
			return nil, err
		}
		return s.InitVault(ctx, in)
	})

	reg.Register(task.FetchDashboard, "read a vault with assets, logs and security samples", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var in model.VaultRef
		if err := decodePayload(payload, &in); err != nil {
			return nil, err
		}
		return s.FetchDashboard(ctx, in.VaultID)
	})

	reg.Register(task.AddAsset, "seal a new asset into a vault", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var in model.AddAssetInput
		if err := decodePayload(payload, &in); err != nil {
			return nil, err
		}
		return s.AddAsset(ctx, in.VaultID, in.Asset)
	})

	reg.Register(task.RunAudit, "record a full integrity scan", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var in model.VaultRef
		if err := decodePayload(payload, &in); err != nil {
			return nil, err
		}
		return s.RunAudit(ctx, in.VaultID)
	})

	reg.Register(task.ExportVault, "issue an export handle for a vault", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var in model.VaultRef
		if err := decodePayload(payload, &in); err != nil {
			return nil, err
		}
		return s.ExportVault(ctx, in.VaultID)
	})
}

func decodePayload(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
