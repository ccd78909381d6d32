package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"clinic-booking-api/internal/booking"
	"clinic-booking-api/internal/middleware"
	"clinic-booking-api/internal/model"
)

type appointmentResponse struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	ProviderID string    `json:"provider_id"`
	RemoteRef  *string   `json:"remote_ref"`
	SyncStatus string    `json:"sync_status"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	Notes      string    `json:"notes,omitempty"`
}

func toAppointmentResponse(a *model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:         a.ID,
		PatientID:  a.PatientID,
		ProviderID: a.ProviderID,
		RemoteRef:  a.RemoteRef,
		SyncStatus: a.SyncStatus,
		StartAt:    a.StartAt,
		EndAt:      a.EndAt,
		Notes:      a.Notes,
	}
}

// ListAppointments returns the caller's own appointments, the patient
// or the provider side depending on their role.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	appts, err := h.store.AppointmentsForUser(r.Context(), claims.Email)
	if err != nil {
		h.logger.Error("listing appointments failed", "user_id", claims.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]appointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

type createAppointmentRequest struct {
	PatientID  string    `json:"patient_id"`
	ProviderID string    `json:"provider_id"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	Notes      string    `json:"notes"`
}

// CreateAppointment books an appointment. The caller's own side is
// taken from the token, the other participant from the body.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	var req createAppointmentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patientID, providerID := req.PatientID, req.ProviderID
	if claims.Role == model.RolePatient {
		patientID = claims.UserID
	} else {
		providerID = claims.UserID
	}

	appt, err := h.booking.Book(r.Context(), patientID, providerID, req.StartAt, req.EndAt, req.Notes)
	switch {
	case errors.Is(err, booking.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		h.logger.Error("booking failed", "user_id", claims.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

// DeleteAppointment cancels an appointment the caller participates in.
// Appointments of other users read as not found.
func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	id := chi.URLParam(r, "id")

	appt, err := h.store.GetAppointment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if appt.PatientID != claims.UserID && appt.ProviderID != claims.UserID {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	if err := h.booking.Cancel(r.Context(), appt); err != nil {
		h.logger.Error("cancelling appointment failed", "appointment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
