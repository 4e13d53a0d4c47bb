package gate

import "strings"

// Permission represents an allowed operation on a resource type.
// Format: "resource:action" (e.g., "job:assign", "invoice:create").
type Permission string

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType, action string) {
	parts := strings.SplitN(string(p), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

// Wildcards for super permissions.
const (
	WildcardAll                     = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// Matches checks if this permission matches a requested permission.
// Supports wildcards: "*:*" matches all, "job:*" matches all job actions.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin {
		return true
	}
	if p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res == reqRes && act == WildcardAll
}
