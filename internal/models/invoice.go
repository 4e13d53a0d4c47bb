package models

import "time"

// Invoice line item types.
const (
	ItemTypeLabor   = "labor"
	ItemTypePart    = "part"
	ItemTypeService = "service"
)

// ItemTypes lists every known invoice item type.
var ItemTypes = []string{ItemTypeLabor, ItemTypePart, ItemTypeService}

// Invoice is an immutable snapshot once created. One per job.
type Invoice struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	JobID         uint    `gorm:"not null;uniqueIndex" json:"job_id"`
	InvoiceNumber string  `gorm:"size:64;unique;not null;index" json:"invoice_number"`
	Subtotal      float64 `gorm:"not null;default:0" json:"subtotal"`
	Tax           float64 `gorm:"not null;default:0" json:"tax"`
	Total         float64 `gorm:"not null;default:0" json:"total"`
	Paid          bool    `gorm:"not null;default:false" json:"paid"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at"`
}

type InvoiceItem struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	InvoiceID       uint    `gorm:"not null;index" json:"invoice_id"`
	WarehouseItemID *uint   `json:"warehouse_item_id"`
	Description     string  `gorm:"size:256;not null" json:"description"`
	Quantity        int     `gorm:"not null;default:1" json:"quantity"`
	UnitPrice       float64 `gorm:"not null" json:"unit_price"`
	Total           float64 `gorm:"not null" json:"total"`
	ItemType        string  `gorm:"size:32;not null" json:"item_type"`
}
