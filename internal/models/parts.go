package models

import "time"

// Spare part request statuses. Lifecycle is strictly forward:
// pending -> approved -> issued -> completed, or pending -> rejected.
const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestIssued    = "issued"
	RequestCompleted = "completed"
	RequestRejected  = "rejected"
)

type WarehouseItem struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	Name            string  `gorm:"size:128;not null" json:"name"`
	PartNumber      string  `gorm:"size:64;index" json:"part_number"`
	Description     string  `json:"description"`
	QuantityInStock int     `gorm:"not null;default:0" json:"quantity_in_stock"`
	UnitPrice       float64 `gorm:"not null;default:0" json:"unit_price"`
	ReorderLevel    int     `gorm:"not null;default:0" json:"reorder_level"`
	IsActive        bool    `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// SparePartRequest is a requisition linking a job to a warehouse item.
// An open request (pending or approved) blocks job completion.
type SparePartRequest struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	JobID           uint   `gorm:"not null;index" json:"job_id"`
	WarehouseItemID uint   `gorm:"not null;index" json:"warehouse_item_id"`
	Quantity        int    `gorm:"not null" json:"quantity"`
	Status          string `gorm:"size:32;not null;index;default:'pending'" json:"status"`
	RequestedByID   uint   `gorm:"not null" json:"requested_by_id"`
	ApprovedByID    *uint  `json:"approved_by_id"`
	IssuedByID      *uint  `json:"issued_by_id"`
	Notes           string `json:"notes"`

	WarehouseItem *WarehouseItem `gorm:"foreignKey:WarehouseItemID" json:"warehouse_item,omitempty"`

	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	ApprovedAt  *time.Time `json:"approved_at"`
	IssuedAt    *time.Time `json:"issued_at"`
	UpdatedAt   time.Time  `json:"-"`
}

// OpenRequestStatuses are the statuses that count as outstanding for the
// completion guard and the awaiting_parts resume check.
var OpenRequestStatuses = []string{RequestPending, RequestApproved}
