package auth

// Operation names a protected action in the system. Every handler that
// mutates or reads gated data names its operation and asks Authorize
// before doing anything else.
type Operation string

// Operation constants.
const (
	OpCulvertRead   Operation = "culvert:read"
	OpCulvertCreate Operation = "culvert:create"
	OpCulvertUpdate Operation = "culvert:update"
	OpCulvertDelete Operation = "culvert:delete"
	OpUserList      Operation = "user:list"
	OpAuditRead     Operation = "audit:read"
)

// operationRoles maps each operation to the roles permitted to perform it.
// This is the single source of truth for the authorisation model.
// Registry reads are open to every authenticated role; mutations need
// ENGINEER or ADMIN; account and audit visibility is ADMIN only.
var operationRoles = map[Operation][]Role{
	OpCulvertRead:   {RoleViewer, RoleEngineer, RoleAdmin},
	OpCulvertCreate: {RoleEngineer, RoleAdmin},
	OpCulvertUpdate: {RoleEngineer, RoleAdmin},
	OpCulvertDelete: {RoleEngineer, RoleAdmin},
	OpUserList:      {RoleAdmin},
	OpAuditRead:     {RoleAdmin},
}

// Authorize returns true if the role may perform the operation.
// Unmapped operations are denied for every role.
func Authorize(role Role, op Operation) bool {
	roles, ok := operationRoles[op]
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

// OperationsForRole returns all operations the role may perform.
// Returns nil for unknown roles.
func OperationsForRole(role Role) []Operation {
	var ops []Operation
	for op, roles := range operationRoles {
		for _, r := range roles {
			if r == role {
				ops = append(ops, op)
				break
			}
		}
	}
	return ops
}
