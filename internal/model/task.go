package model

// VaultInitInput is the payload of the init task. Only the vault fields are
// kept; the secret material and permission flags are accepted and dropped.
type VaultInitInput struct {
	VaultName      string      `json:"vault_name"`
	OwnerID        string      `json:"owner_id"`
	AccessTier     string      `json:"access_tier"`
	RPCEndpoint    string      `json:"rpc_endpoint"`
	APIKey         string      `json:"api_key"`
	Network        string      `json:"network"`
	EncryptionKey  string      `json:"encryption_key"`
	RecoveryPhrase string      `json:"recovery_phrase"`
	BackupEmail    string      `json:"backup_email"`
	Permissions    Permissions `json:"permissions"`
}

// Permissions are the agent flags chosen during setup.
type Permissions struct {
	AgentSigning bool `json:"agent_signing"`
	AuditTrail   bool `json:"audit_trail"`
}

// VaultRef is the payload of tasks that only name a vault.
type VaultRef struct {
	VaultID string `json:"vault_id"`
}

// AssetInput describes an asset to seal.
type AssetInput struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// AddAssetInput is the payload of the add-asset task.
type AddAssetInput struct {
	VaultID string     `json:"vault_id"`
	Asset   AssetInput `json:"asset"`
}

// InitResult is returned by the init task.
type InitResult struct {
	VaultID string `json:"vault_id"`
}

// AddAssetResult is returned by the add-asset task.
type AddAssetResult struct {
	OK      bool   `json:"ok"`
	AssetID string `json:"asset_id"`
}

// AuditResult is returned by the audit task.
type AuditResult struct {
	OK       bool `json:"ok"`
	Findings int  `json:"findings"`
}

// ExportResult is returned by the export task. DownloadURL is always nil in
// the simulator.
type ExportResult struct {
	OK          bool    `json:"ok"`
	ExportID    string  `json:"export_id"`
	DownloadURL *string `json:"download_url"`
}
