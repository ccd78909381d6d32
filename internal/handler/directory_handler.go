package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic-booking-api/internal/directory"
	"clinic-booking-api/internal/model"
)

type personResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	// Resolved is false when the name came from the fallback rather
	// than the directory.
	Resolved    bool    `json:"resolved"`
	ScheduleRef *string `json:"schedule_ref,omitempty"`
}

// ListProviders returns all care providers with their directory names
// resolved.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListProviders(r.Context())
	if err != nil {
		h.logger.Error("listing providers failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]personResponse, 0, len(users))
	for i := range users {
		u := &users[i]
		name, resolved := h.booking.DisplayName(r.Context(), u)
		out = append(out, personResponse{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: name,
			Resolved:    resolved,
			ScheduleRef: u.ScheduleRef,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": out})
}

// ListPatients returns all patients, for providers picking who to book.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListPatients(r.Context())
	if err != nil {
		h.logger.Error("listing patients failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]personResponse, 0, len(users))
	for i := range users {
		u := &users[i]
		name, resolved := h.booking.DisplayName(r.Context(), u)
		out = append(out, personResponse{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: name,
			Resolved:    resolved,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"patients": out})
}

// ProviderSlots returns the free slots on a provider's directory
// schedule. A provider without a schedule, or a directory outage,
// yields an empty list rather than an error.
func (h *Handler) ProviderSlots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := h.store.UserByID(r.Context(), id)
	if err != nil || u.Role != model.RoleProvider {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}

	slots := []directory.Slot{}
	if u.ScheduleRef != nil {
		got, err := h.dir.FreeSlots(r.Context(), *u.ScheduleRef)
		if err != nil {
			h.logger.Warn("free slot lookup failed, returning no slots",
				"provider_id", u.ID, "schedule_ref", *u.ScheduleRef, "error", err)
		} else {
			slots = got
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}
