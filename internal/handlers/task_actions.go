package handlers

import (
	"net/http"

	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/gate"
	"github.com/amos-netizen/MotoTrack/internal/httpx"
	"github.com/amos-netizen/MotoTrack/internal/services"
)

type TaskActionHandler struct {
	tasks *services.TaskService
}

func NewTaskActionHandler(tasks *services.TaskService) *TaskActionHandler {
	return &TaskActionHandler{tasks: tasks}
}

func (h *TaskActionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.TaskActionCreate); err != nil {
		httpx.Err(w, err)
		return
	}
	var in services.TaskActionInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Err(w, err)
		return
	}
	action, err := h.tasks.CreateAction(r.Context(), in)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, action)
}

func (h *TaskActionHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.TaskActionUpdate); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var in services.UpdateTaskActionInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Err(w, err)
		return
	}
	action, err := h.tasks.UpdateAction(r.Context(), id, in)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, action)
}

func (h *TaskActionHandler) List(w http.ResponseWriter, r *http.Request) {
	actions, err := h.tasks.ListActions(r.Context(), r.URL.Query().Get("operations_stream"))
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, actions)
}

func (h *TaskActionHandler) AddToJob(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.JobTaskAdd); err != nil {
		httpx.Err(w, err)
		return
	}
	jobID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var in services.AddJobTaskInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Err(w, err)
		return
	}
	link, err := h.tasks.AddToJob(r.Context(), ident, jobID, in)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, link)
}

func (h *TaskActionHandler) CompleteOnJob(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.JobTaskComplete); err != nil {
		httpx.Err(w, err)
		return
	}
	jobID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	linkID, err := httpx.PathID(r, "task_id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	link, err := h.tasks.CompleteOnJob(r.Context(), ident, jobID, linkID)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, link)
}

func (h *TaskActionHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	jobID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	links, err := h.tasks.ListForJob(r.Context(), ident, jobID)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, links)
}
