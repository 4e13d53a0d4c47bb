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

type GarageHandler struct {
	db *gorm.DB
}

func NewGarageHandler(db *gorm.DB) *GarageHandler {
	return &GarageHandler{db: db}
}

type garageRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (h *GarageHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.GarageCreate); err != nil {
		httpx.Err(w, err)
		return
	}
	var req garageRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Err(w, err)
		return
	}
	if req.Name == "" {
		httpx.Err(w, apperr.Validation("missing_name", "name is required"))
		return
	}
	var count int64
	if err := h.db.WithContext(r.Context()).Model(&models.Garage{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	if count > 0 {
		httpx.Err(w, apperr.Conflict("garage_exists", "garage %q already exists", req.Name))
		return
	}
	garage := models.Garage{Name: req.Name, Address: req.Address}
	if err := h.db.WithContext(r.Context()).Create(&garage).Error; err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, garage)
}

func (h *GarageHandler) List(w http.ResponseWriter, r *http.Request) {
	var garages []models.Garage
	if err := h.db.WithContext(r.Context()).Order("name asc").Find(&garages).Error; err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	httpx.JSON(w, http.StatusOK, garages)
}

func (h *GarageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var garage models.Garage
	err = h.db.WithContext(r.Context()).First(&garage, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.Err(w, apperr.NotFound("garage_not_found", "garage %d not found", id))
		return
	}
	if err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	httpx.JSON(w, http.StatusOK, garage)
}
