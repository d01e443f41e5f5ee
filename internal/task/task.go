// Package task names the operations the dispatcher can run and holds the
// registry that maps each name to its in-process handler.
package task

// Known task names. Matching is case sensitive.
const (
	InitVault      = "vaultchain_init_vault"
	FetchDashboard = "vaultchain_fetch_dashboard"
	AddAsset       = "vaultchain_add_asset"
	RunAudit       = "vaultchain_run_audit"
	ExportVault    = "vaultchain_export_vault"
)

// Known reports whether name is one of the built-in task names.
func Known(name string) bool {
	switch name {
	case InitVault, FetchDashboard, AddAsset, RunAudit, ExportVault:
		return true
	}
	return false
}
