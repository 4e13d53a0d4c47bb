package handlers

import (
	"net/http"

	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/gate"
	"github.com/amos-netizen/MotoTrack/internal/httpx"
	"github.com/amos-netizen/MotoTrack/internal/services"
)

type JobHandler struct {
	jobs *services.JobService
}

func NewJobHandler(jobs *services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.JobCreate); err != nil {
		httpx.Err(w, err)
		return
	}
	var in services.CreateJobInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Err(w, err)
		return
	}
	job, err := h.jobs.Create(r.Context(), ident, in)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, job)
}

func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	filter := services.JobFilter{
		Status:           r.URL.Query().Get("status"),
		OperationsStream: r.URL.Query().Get("operations_stream"),
		RevenueStream:    r.URL.Query().Get("revenue_stream"),
	}
	jobs, err := h.jobs.List(r.Context(), ident, filter)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jobs)
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	job, err := h.jobs.Get(r.Context(), ident, id)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

type assignRequest struct {
	TechnicianID uint `json:"technician_id"`
}

func (h *JobHandler) Assign(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.JobAssign); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var req assignRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Err(w, err)
		return
	}
	job, err := h.jobs.Assign(r.Context(), ident, id, req.TechnicianID)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.JobUpdate); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var in services.UpdateJobInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Err(w, err)
		return
	}
	job, err := h.jobs.Update(r.Context(), ident, id, in)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *JobHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.JobComplete); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	job, err := h.jobs.Complete(r.Context(), ident, id)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

type reviewRequest struct {
	Notes string `json:"notes"`
}

func (h *JobHandler) ManagerReview(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.JobManagerReview); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var req reviewRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Err(w, err)
		return
	}
	job, err := h.jobs.ManagerReview(r.Context(), ident, id, req.Notes)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *JobHandler) MoveToBilling(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.JobMoveToBilling); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	job, err := h.jobs.MoveToBilling(r.Context(), ident, id)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *JobHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.JobCancel); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	job, err := h.jobs.Cancel(r.Context(), ident, id)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}
