package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/gate"
	"github.com/amos-netizen/MotoTrack/internal/httpx"
	"github.com/amos-netizen/MotoTrack/internal/models"
)

type AuthHandler struct {
	db     *gorm.DB
	tokens *auth.Service
}

func NewAuthHandler(db *gorm.DB, tokens *auth.Service) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens}
}

// Verifier returns the token middleware's user lookup, so identities
// always reflect the current user row.
func (h *AuthHandler) Verifier() auth.Verifier {
	return func(ctx context.Context, userID uint) (auth.Identity, bool) {
		var user models.User
		if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
			return auth.Identity{}, false
		}
		return auth.Identity{UserID: user.ID, Role: user.Role, GarageID: user.GarageID}, true
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *AuthHandler) createUser(ctx context.Context, email, password, role string, garageID uint, fullName, phone string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("invalid_email", "a valid email is required")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("weak_password", "password must be at least 8 characters")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	user := &models.User{
		Email:    email,
		Password: hash,
		Role:     role,
		GarageID: garageID,
		FullName: fullName,
		Phone:    phone,
	}
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return apperr.Internal(err)
		}
		if count > 0 {
			return apperr.Conflict("email_taken", "email %s is already registered", email)
		}
		if err := tx.Create(user).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Signup is the public registration endpoint. It only provisions
// technicians, attached to the default garage; other roles are created
// by an administrator through CreateStaff.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Err(w, err)
		return
	}
	var garage models.Garage
	if err := h.db.WithContext(r.Context()).Order("id asc").First(&garage).Error; err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	user, err := h.createUser(r.Context(), req.Email, req.Password, models.RoleTechnician, garage.ID, req.FullName, req.Phone)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	token, err := h.tokens.GenerateToken(auth.Identity{UserID: user.ID, Role: user.Role, GarageID: user.GarageID})
	if err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, tokenResponse{Token: token, User: *user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Err(w, err)
		return
	}
	var user models.User
	err := h.db.WithContext(r.Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !auth.CheckPassword(req.Password, user.Password)) {
		// Same response for unknown email and wrong password.
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	token, err := h.tokens.GenerateToken(auth.Identity{UserID: user.ID, Role: user.Role, GarageID: user.GarageID})
	if err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, ident.UserID).Error; err != nil {
		httpx.Err(w, apperr.NotFound("user_not_found", "user %d not found", ident.UserID))
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type createStaffRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	GarageID uint   `json:"garage_id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// CreateStaff provisions a staff account with any role.
func (h *AuthHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.UserCreateStaff); err != nil {
		httpx.Err(w, err)
		return
	}
	var req createStaffRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Err(w, err)
		return
	}
	if !models.ValidStaffRole(req.Role) {
		httpx.Err(w, apperr.Validation("invalid_role", "unknown role %q", req.Role))
		return
	}
	garageID := req.GarageID
	if garageID == 0 {
		garageID = ident.GarageID
	}
	var count int64
	if err := h.db.WithContext(r.Context()).Model(&models.Garage{}).Where("id = ?", garageID).Count(&count).Error; err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	if count == 0 {
		httpx.Err(w, apperr.NotFound("garage_not_found", "garage %d not found", garageID))
		return
	}
	user, err := h.createUser(r.Context(), req.Email, req.Password, req.Role, garageID, req.FullName, req.Phone)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

// ListUsers returns the garage's staff, optionally filtered by role.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.UserList); err != nil {
		httpx.Err(w, err)
		return
	}
	q := h.db.WithContext(r.Context()).Where("garage_id = ?", ident.GarageID)
	if role := r.URL.Query().Get("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Order("full_name asc").Find(&users).Error; err != nil {
		httpx.Err(w, apperr.Internal(err))
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}
