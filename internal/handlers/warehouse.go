package handlers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/gate"
	"github.com/amos-netizen/MotoTrack/internal/httpx"
	"github.com/amos-netizen/MotoTrack/internal/models"
)

// WarehouseHandler is plain catalog CRUD; stock decrements happen in the
// parts issue flow, never here.
type WarehouseHandler struct {
	db *gorm.DB
}

func NewWarehouseHandler(db *gorm.DB) *WarehouseHandler {
	return &WarehouseHandler{db: db}
}

type warehouseItemRequest struct {
	Name            string  `json:"name"`
	PartNumber      string  `json:"part_number"`
	Description     string  `json:"description"`
	QuantityInStock int     `json:"quantity_in_stock"`
	UnitPrice       float64 `json:"unit_price"`
	ReorderLevel    int     `json:"reorder_level"`
}

func (h *WarehouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.WarehouseItemCreate); err != nil {
		httpx.Err(w, err)
		return
	}
	var req warehouseItemRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Err(w, err)
		return
	}
	if req.Name == "" {
		httpx.Err(w, apperr.Validation("missing_name", "name is required"))
		return
	}
	if req.QuantityInStock < 0 || req.UnitPrice < 0 || req.ReorderLevel < 0 {
		httpx.Err(w, apperr.Validation("invalid_values", "stock, price and reorder level must not be negative"))
		return
	}
	item := models.WarehouseItem{
		Name:            req.Name,
		PartNumber:      req.PartNumber,
		Description:     req.Description,
		QuantityInStock: req.QuantityInStock,
		UnitPrice:       req.UnitPrice,
		ReorderLevel:    req.ReorderLevel,
		IsActive:        true,
	}
	if err := h.db.WithContext(r.Context()).Create(&item).Error; err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

type updateWarehouseItemRequest struct {
	Name            *string  `json:"name"`
	PartNumber      *string  `json:"part_number"`
	Description     *string  `json:"description"`
	QuantityInStock *int     `json:"quantity_in_stock"`
	UnitPrice       *float64 `json:"unit_price"`
	ReorderLevel    *int     `json:"reorder_level"`
	IsActive        *bool    `json:"is_active"`
}

func (h *WarehouseHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.WarehouseItemUpdate); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var req updateWarehouseItemRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Err(w, err)
		return
	}

	var item models.WarehouseItem
	err = h.db.WithContext(r.Context()).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.Err(w, apperr.NotFound("warehouse_item_not_found", "warehouse item %d not found", id))
		return
	}
	if err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.PartNumber != nil {
		item.PartNumber = *req.PartNumber
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.QuantityInStock != nil {
		if *req.QuantityInStock < 0 {
			httpx.Err(w, apperr.Validation("invalid_values", "quantity_in_stock must not be negative"))
			return
		}
		item.QuantityInStock = *req.QuantityInStock
	}
	if req.UnitPrice != nil {
		if *req.UnitPrice < 0 {
			httpx.Err(w, apperr.Validation("invalid_values", "unit_price must not be negative"))
			return
		}
		item.UnitPrice = *req.UnitPrice
	}
	if req.ReorderLevel != nil {
		item.ReorderLevel = *req.ReorderLevel
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	if err := h.db.WithContext(r.Context()).Save(&item).Error; err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *WarehouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var item models.WarehouseItem
	err = h.db.WithContext(r.Context()).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.Err(w, apperr.NotFound("warehouse_item_not_found", "warehouse item %d not found", id))
		return
	}
	if err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// List supports a name search and a low_stock filter for the reorder
// report.
func (h *WarehouseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := h.db.WithContext(r.Context()).Model(&models.WarehouseItem{})
	if search := r.URL.Query().Get("q"); search != "" {
		q = q.Where("name LIKE ? OR part_number LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if r.URL.Query().Get("low_stock") == "true" {
		q = q.Where("quantity_in_stock <= reorder_level AND is_active = ?", true)
	}
	var items []models.WarehouseItem
	if err := q.Order("name asc").Find(&items).Error; err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

// LowStock lists active items at or below their reorder level.
func (h *WarehouseHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	var items []models.WarehouseItem
	err := h.db.WithContext(r.Context()).
		Where("quantity_in_stock <= reorder_level AND is_active = ?", true).
		Order("name asc").
		Find(&items).Error
	if err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}
