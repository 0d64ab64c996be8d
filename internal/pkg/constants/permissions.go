package constants

const (
	ViewFinance    = "view_finance"
	ExportFinance  = "export_finance"
	ViewLogs       = "view_logs"
	ManageClients  = "manage_clients"
	EditPricing    = "edit_pricing"
	PurgeClients   = "purge_clients"
	RecordPayments = "record_payments"
	RecordLedger   = "record_ledger"
	Recalculate    = "recalculate"
)

// PermissionRoles maps each permission to roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewFinance:    {Viewer, Admin},
	ExportFinance:  {Viewer, Admin},
	ViewLogs:       {Viewer, Admin},
	ManageClients:  {Admin},
	EditPricing:    {Admin},
	PurgeClients:   {Admin},
	RecordPayments: {Admin},
	RecordLedger:   {Admin},
	Recalculate:    {Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
