package simulator

import (
	"fmt"
	"time"

	"github.com/seantiz/vaultchain/internal/model"
)

// Vault defaults.
const (
	DefaultVaultName   = "VaultChain Prime"
	DefaultOwnerID     = "agent_system"
	DefaultAccessTier  = model.TierOperator
	DefaultNetwork     = model.NetworkSolana
	DefaultRPCEndpoint = "https://api.mainnet-beta.solana.com"

	initOwnerID     = "owner_demo"
	primeOwnerID    = "agent_admin"
	primeAccessTier = model.TierMaximum
	primeBackdate   = 24 * time.Hour

	defaultAssetName = "Enclave Asset Bundle"
	defaultAssetKind = "encrypted_blob"
)

// Log actors and actions.
const (
	actorSystem  = "system"
	actorCore    = "agent:v-core"
	actorAuditor = "system:auditor"

	ActionVaultInit = "vault.init"
	ActionAssetSeal = "asset.seal"
	ActionAuditScan = "audit.full_scan"

	auditDetail = "Zero-knowledge proofs verified. Integrity status: POSITIVE."
)

// Security graph parameters.
const (
	securitySamples  = 14
	securityBaseline = 88
	securityAmp      = 4
)

type seedAsset struct {
	name string
	kind string
	size string
}

var seedAssets = []seedAsset{
	{"Infrastructure Identity Key", "signing_key", "248 B"},
	{"Security Policy Manifest", "policy", "14 KB"},
	{"Neural Link Encryption", "neural_vault", "1.2 MB"},
	{"Biometric Hash Store", "biometric", "45 KB"},
	{"Quantum-Resistant Layer", "quantum_mod", "890 KB"},
	{"Vault Access Token #04", "auth_token", "1.1 KB"},
	{"Encrypted Ledger Backup", "ledger", "3.4 MB"},
	{"API Gateway Secrets", "secrets", "12 KB"},
	{"Recovery Phrase Fragment", "recovery", "512 B"},
	{"System Integrity Root", "root_at", "2.5 KB"},
}

// SeedAssetCount is the number of assets every new vault starts with.
var SeedAssetCount = len(seedAssets)

// newSeedAssets builds the canned asset list, in display order, stamped with
// the vault's creation time.
func newSeedAssets(createdAt time.Time) []model.Asset {
	assets := make([]model.Asset, len(seedAssets))
	for i, a := range seedAssets {
		assets[i] = model.Asset{
			ID:            model.NewID(),
			Name:          a.name,
			Kind:          a.kind,
			EncryptedSize: a.size,
			CreatedAt:     createdAt,
			Status:        model.AssetSealed,
		}
	}
	return assets
}

func newSeedLog(v *model.Vault) model.LogEntry {
	return model.LogEntry{
		ID:     model.NewID(),
		At:     v.CreatedAt,
		Actor:  actorSystem,
		Action: ActionVaultInit,
		Detail: fmt.Sprintf("Vault parameters hardened on %s L1", v.Network),
	}
}
