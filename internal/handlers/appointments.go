package handlers

import (
	"net/http"

	"github.com/amos-netizen/MotoTrack/internal/httpx"
	"github.com/amos-netizen/MotoTrack/internal/services"
)

// AppointmentHandler books and reschedules service visits. Appointments
// are garage-wide: any authenticated staff member can manage them, so
// there are no gate checks here.
type AppointmentHandler struct {
	appointments *services.AppointmentService
}

func NewAppointmentHandler(appointments *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateAppointmentInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Err(w, err)
		return
	}
	appt, err := h.appointments.Create(r.Context(), in)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, appt)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var in services.UpdateAppointmentInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Err(w, err)
		return
	}
	appt, err := h.appointments.Update(r.Context(), id, in)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	appt, err := h.appointments.Get(r.Context(), id)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.appointments.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, appts)
}

// Recommend returns the next-service suggestion for a vehicle.
func (h *AppointmentHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	rec, err := h.appointments.Recommend(r.Context(), vehicleID)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}
