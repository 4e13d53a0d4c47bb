package handlers

import (
	"net/http"

	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/gate"
	"github.com/amos-netizen/MotoTrack/internal/httpx"
	"github.com/amos-netizen/MotoTrack/internal/services"
)

type PartsHandler struct {
	parts *services.PartsService
}

func NewPartsHandler(parts *services.PartsService) *PartsHandler {
	return &PartsHandler{parts: parts}
}

func (h *PartsHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.PartRequestCreate); err != nil {
		httpx.Err(w, err)
		return
	}
	jobID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var in services.CreateRequestInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Err(w, err)
		return
	}
	req, err := h.parts.CreateRequest(r.Context(), ident, jobID, in)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, req)
}

func (h *PartsHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	jobID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	reqs, err := h.parts.ListForJob(r.Context(), ident, jobID)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reqs)
}

// ListPending returns the caller's work queue: the requests awaiting
// their role's action.
func (h *PartsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	reqs, err := h.parts.ListPending(r.Context(), ident)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reqs)
}

func (h *PartsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.PartRequestApprove); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	req, err := h.parts.Approve(r.Context(), ident, id)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *PartsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.PartRequestReject); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var body rejectRequest
	if err := httpx.Decode(r, &body); err != nil {
		httpx.Err(w, err)
		return
	}
	req, err := h.parts.Reject(r.Context(), ident, id, body.Reason)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *PartsHandler) Issue(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.PartRequestIssue); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	req, err := h.parts.Issue(r.Context(), ident, id)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *PartsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.PartRequestComplete); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	req, err := h.parts.Complete(r.Context(), ident, id)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}
