package auth

// Permission name constants. The role_permissions relation is the sole
// source of truth for which role holds which of these; nothing is granted
// implicitly.
const (
	PermReadBill   = "read:bill"
	PermCreateBill = "create:bill"
	PermUpdateBill = "update:bill"
	PermDeleteBill = "delete:bill"

	PermReadBudget   = "read:budget"
	PermCreateBudget = "create:budget"

	PermReadDocument   = "read:document"
	PermCreateDocument = "create:document"
	PermUpdateDocument = "update:document"
	PermDeleteDocument = "delete:document"

	PermReadPermission = "read:permission"
	PermManageUsers    = "manage:users"
)

// BuiltinPermissions is the catalog ensured at startup. Role bindings are
// seeded by migrations and administered out-of-band.
var BuiltinPermissions = []Permission{
	{Name: PermReadBill},
	{Name: PermCreateBill},
	{Name: PermUpdateBill},
	{Name: PermDeleteBill},
	{Name: PermReadBudget},
	{Name: PermCreateBudget},
	{Name: PermReadDocument},
	{Name: PermCreateDocument},
	{Name: PermUpdateDocument},
	{Name: PermDeleteDocument},
	{Name: PermReadPermission},
	{Name: PermManageUsers},
}
