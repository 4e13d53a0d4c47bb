package models

import "time"

// Staff roles. Every authenticated user carries exactly one role; the
// gate package maps roles to the operations they may perform.
const (
	RoleAdmin            = "admin"
	RoleSiteManager      = "site_manager"
	RoleWorkshopManager  = "workshop_manager"
	RoleWarehouseManager = "warehouse_manager"
	RoleTechnician       = "technician"
	RoleBilling          = "billing"
)

// StaffRoles lists every role an admin may provision.
var StaffRoles = []string{
	RoleTechnician, RoleSiteManager, RoleWorkshopManager,
	RoleWarehouseManager, RoleBilling, RoleAdmin,
}

// ValidStaffRole reports whether role names a known staff role.
func ValidStaffRole(role string) bool {
	for _, r := range StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"unique;not null;index" json:"email"`
	Password string `gorm:"not null" json:"-"` // bcrypt hash
	Role     string `gorm:"size:32;not null;index" json:"role"`
	GarageID uint   `gorm:"index" json:"garage_id"`
	FullName string `gorm:"size:128" json:"full_name"`
	Phone    string `gorm:"size:32" json:"phone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

type Garage struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:128;unique;not null" json:"name"`
	Address string `gorm:"size:256" json:"address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
