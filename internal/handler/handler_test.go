package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/booking"
	"clinic-booking-api/internal/directory"
	"clinic-booking-api/internal/middleware"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/store"
)

func newTestHandler(t *testing.T) (*Handler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	st := store.NewWithDB(mock)
	dir := directory.NewMock()
	svc := booking.NewService(st, dir, nil, nil)
	return New(st, svc, dir, "test-secret", nil), mock
}

func asPatient(r *http.Request, id string) *http.Request {
	claims := &auth.Claims{UserID: id, Email: id + "@example.com", Role: model.RolePatient}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"first_name":"Maria","last_name":"Schneider","email":"maria@example.com","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"maria@example.com","password":"longenough"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "maria@example.com", pgxmock.AnyArg(), model.RolePatient, nil, nil, nil).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	body := `{"first_name":"Maria","last_name":"Schneider","email":"maria@example.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterStoreDown(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "maria@example.com", pgxmock.AnyArg(), model.RolePatient, nil, nil, nil).
		WillReturnError(errors.New("connection refused"))

	body := `{"first_name":"Maria","last_name":"Schneider","email":"maria@example.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmail(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"nobody@example.com","password":"whatever1"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointmentMissingProvider(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"start_at":"2025-11-28T09:00:00Z","end_at":"2025-11-28T09:30:00Z"}`
	req := asPatient(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)), "p1")
	rec := httptest.NewRecorder()
	h.CreateAppointment(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAppointmentNotMine(t *testing.T) {
	h, mock := newTestHandler(t)

	start := time.Date(2025, 11, 28, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs("a1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "patient_id", "provider_id", "remote_ref", "sync_status",
			"start_at", "end_at", "notes", "created_at",
		}).AddRow("a1", "other-patient", "d1", nil, model.SyncPending,
			start, start.Add(30*time.Minute), "", time.Now()))

	r := chi.NewRouter()
	r.Delete("/appointments/{id}", h.DeleteAppointment)

	req := asPatient(httptest.NewRequest(http.MethodDelete, "/appointments/a1", nil), "p1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderSlotsWithoutSchedule(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("d1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "password_hash", "role",
			"patient_ref", "practitioner_ref", "schedule_ref",
			"created_at", "updated_at",
		}).AddRow("d1", "doc@biomedical.org", "hash", model.RoleProvider,
			nil, strptr("822316"), nil, time.Now(), time.Now()))

	r := chi.NewRouter()
	r.Get("/providers/{id}/slots", h.ProviderSlots)

	req := asPatient(httptest.NewRequest(http.MethodGet, "/providers/d1/slots", nil), "p1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Slots []directory.Slot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Slots)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderSlotsNotAProvider(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("p2").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "password_hash", "role",
			"patient_ref", "practitioner_ref", "schedule_ref",
			"created_at", "updated_at",
		}).AddRow("p2", "pat@example.com", "hash", model.RolePatient,
			strptr("822300"), nil, nil, time.Now(), time.Now()))

	r := chi.NewRouter()
	r.Get("/providers/{id}/slots", h.ProviderSlots)

	req := asPatient(httptest.NewRequest(http.MethodGet, "/providers/p2/slots", nil), "p1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func strptr(s string) *string { return &s }
