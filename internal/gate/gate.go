// Package gate is the central authorization checkpoint. Instead of role
// string comparisons scattered across handlers, every state-changing
// operation is declared once in the capability table below and checked
// through Authorize. Read-only, garage-scoped listings are left open to
// any authenticated staff member.
package gate

import "github.com/amos-netizen/MotoTrack/internal/apperr"

// Operations gated by role. Reads are intentionally absent.
const (
	JobCreate        Permission = "job:create"
	JobAssign        Permission = "job:assign"
	JobUpdate        Permission = "job:update"
	JobComplete      Permission = "job:complete"
	JobManagerReview Permission = "job:manager_review"
	JobMoveToBilling Permission = "job:move_to_billing"
	JobCancel        Permission = "job:cancel"

	JobTaskAdd      Permission = "job_task:add"
	JobTaskComplete Permission = "job_task:complete"

	PartRequestCreate   Permission = "part_request:create"
	PartRequestApprove  Permission = "part_request:approve"
	PartRequestReject   Permission = "part_request:reject"
	PartRequestIssue    Permission = "part_request:issue"
	PartRequestComplete Permission = "part_request:complete"

	WarehouseItemCreate Permission = "warehouse_item:create"
	WarehouseItemUpdate Permission = "warehouse_item:update"

	TaskActionCreate Permission = "task_action:create"
	TaskActionUpdate Permission = "task_action:update"

	InvoiceCreate   Permission = "invoice:create"
	InvoiceMarkPaid Permission = "invoice:mark_paid"

	GarageCreate    Permission = "garage:create"
	UserCreateStaff Permission = "user:create_staff"
	UserList        Permission = "user:list"
)

// rolePermissions is the capability table: role -> granted permissions.
// Admin holds the superadmin wildcard and passes every check.
var rolePermissions = map[string][]Permission{
	"admin": {PermissionSuperAdmin},
	"site_manager": {
		JobCreate, JobAssign, JobCancel, UserList,
	},
	"technician": {
		JobUpdate, JobComplete,
		JobTaskAdd, JobTaskComplete,
		PartRequestCreate, PartRequestComplete,
	},
	"workshop_manager": {
		JobManagerReview, JobMoveToBilling, JobCancel,
		PartRequestApprove, PartRequestReject, UserList,
	},
	"warehouse_manager": {
		PartRequestIssue, PartRequestComplete,
		WarehouseItemCreate, WarehouseItemUpdate,
	},
	"billing": {
		InvoiceCreate, InvoiceMarkPaid,
	},
}

// Can reports whether role is granted the requested permission.
func Can(role string, requested Permission) bool {
	for _, p := range rolePermissions[role] {
		if p.Matches(requested) {
			return true
		}
	}
	return false
}

// Authorize returns a Forbidden error when role lacks the permission.
func Authorize(role string, requested Permission) error {
	if !Can(role, requested) {
		return apperr.Forbidden("forbidden", "role %q may not perform %s", role, requested)
	}
	return nil
}
