package handler

import (
	"encoding/json"
	"net/http"

	"clinic-booking-api/internal/booking"
	"clinic-booking-api/internal/directory"
	"clinic-booking-api/internal/logging"
	"clinic-booking-api/internal/store"
)

type Handler struct {
	store   *store.Store
	booking *booking.Service
	dir     directory.Client
	secret  string
	logger  *logging.Logger
}

func New(st *store.Store, svc *booking.Service, dir directory.Client, secret string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: st, booking: svc, dir: dir, secret: secret, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
