package teamconfig

import "strings"

const (
	pullPermissionValueConstant     = "pull"
	triagePermissionValueConstant   = "triage"
	pushPermissionValueConstant     = "push"
	maintainPermissionValueConstant = "maintain"
	adminPermissionValueConstant    = "admin"
)

// Permission identifies one of the fixed repository permission levels.
type Permission string

// Supported permission levels, ordered from least to most privileged.
const (
	PermissionPull     Permission = Permission(pullPermissionValueConstant)
	PermissionTriage   Permission = Permission(triagePermissionValueConstant)
	PermissionPush     Permission = Permission(pushPermissionValueConstant)
	PermissionMaintain Permission = Permission(maintainPermissionValueConstant)
	PermissionAdmin    Permission = Permission(adminPermissionValueConstant)
)

// DefaultPermission is the permission applied when a document does not override it.
const DefaultPermission = PermissionPush

var orderedPermissions = []Permission{
	PermissionPull,
	PermissionTriage,
	PermissionPush,
	PermissionMaintain,
	PermissionAdmin,
}

// PermissionNames returns the valid permission values in their fixed order.
func PermissionNames() []string {
	permissionNames := make([]string, 0, len(orderedPermissions))
	for _, permission := range orderedPermissions {
		permissionNames = append(permissionNames, string(permission))
	}
	return permissionNames
}

// IsValidPermission reports whether the candidate names a recognized permission level.
func IsValidPermission(candidate string) bool {
	normalizedCandidate := strings.ToLower(strings.TrimSpace(candidate))
	for _, permission := range orderedPermissions {
		if normalizedCandidate == string(permission) {
			return true
		}
	}
	return false
}

// NormalizePermission maps the candidate onto the fixed permission set, collapsing
// unrecognized values to the supplied fallback.
func NormalizePermission(candidate string, fallback Permission) Permission {
	normalizedCandidate := strings.ToLower(strings.TrimSpace(candidate))
	if IsValidPermission(normalizedCandidate) {
		return Permission(normalizedCandidate)
	}
	return fallback
}

// roleGroupDefinition binds a role-group document key to the permission it grants.
type roleGroupDefinition struct {
	RoleKey    string
	Permission Permission
}

// roleGroupDefinitions is the fixed role synonym table. Documents are scanned in
// exactly this order so first-seen-wins deduplication stays deterministic.
var roleGroupDefinitions = []roleGroupDefinition{
	{RoleKey: "admins", Permission: PermissionAdmin},
	{RoleKey: "admin", Permission: PermissionAdmin},
	{RoleKey: "maintainers", Permission: PermissionMaintain},
	{RoleKey: "maintainer", Permission: PermissionMaintain},
	{RoleKey: "developers", Permission: PermissionPush},
	{RoleKey: "developer", Permission: PermissionPush},
	{RoleKey: "contributors", Permission: PermissionPush},
	{RoleKey: "contributor", Permission: PermissionPush},
	{RoleKey: "reviewers", Permission: PermissionPull},
	{RoleKey: "reviewer", Permission: PermissionPull},
	{RoleKey: "triagers", Permission: PermissionTriage},
	{RoleKey: "triager", Permission: PermissionTriage},
	{RoleKey: "readers", Permission: PermissionPull},
	{RoleKey: "reader", Permission: PermissionPull},
}
