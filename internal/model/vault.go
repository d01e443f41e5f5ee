package model

import "time"

// Asset status constants.
const (
	AssetSealed   = "sealed"
	AssetPending  = "pending"
	AssetExported = "exported"
)

// Access tier constants.
const (
	TierViewer   = "Viewer"
	TierOperator = "Operator"
	TierAdmin    = "Admin"
	TierMaximum  = "Maximum"
)

// Network constants.
const (
	NetworkSolana   = "Solana"
	NetworkEthereum = "Ethereum"
	NetworkPolygon  = "Polygon"
	NetworkArbitrum = "Arbitrum"
	NetworkBase     = "Base"
)

// Vault is a named custody unit.
type Vault struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerID     string    `json:"owner_id"`
	AccessTier  string    `json:"access_tier"`
	Network     string    `json:"network"`
	RPCEndpoint string    `json:"rpc_endpoint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Asset is a sealed object stored in a vault.
type Asset struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Kind          string    `json:"kind"`
	EncryptedSize string    `json:"encrypted_size"`
	CreatedAt     time.Time `json:"created_at"`
	Status        string    `json:"status"`
}

// LogEntry is an append-only audit record for a vault.
type LogEntry struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Detail string    `json:"detail,omitempty"`
}

// SecuritySample is a synthesized point on the dashboard security graph.
type SecuritySample struct {
	At        time.Time `json:"at"`
	Score     int       `json:"score"`
	Anomalies int       `json:"anomalies"`
}

// Dashboard is the snapshot returned for a vault.
type Dashboard struct {
	Vault    *Vault           `json:"vault"`
	Assets   []Asset          `json:"assets"`
	Logs     []LogEntry       `json:"logs"`
	Security []SecuritySample `json:"security"`
}
