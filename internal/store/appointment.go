package store

import (
	"context"

	"clinic-booking-api/internal/model"
)

const apptCols = `id, patient_id, provider_id, remote_ref, sync_status, start_at, end_at, notes, created_at`

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO appointments (id, patient_id, provider_id, remote_ref, sync_status, start_at, end_at, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientID, a.ProviderID, a.RemoteRef, a.SyncStatus, a.StartAt, a.EndAt, a.Notes,
	)
	return err
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := s.db.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.PatientID, &a.ProviderID, &a.RemoteRef, &a.SyncStatus,
		&a.StartAt, &a.EndAt, &a.Notes, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return err
}

// AppointmentsForUser lists the user's appointments ordered by start,
// scoped to their patient or provider side depending on role.
func (s *Store) AppointmentsForUser(ctx context.Context, email string) ([]model.Appointment, error) {
	u, err := s.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.Role == model.RolePatient {
		return s.AppointmentsForPatient(ctx, u.ID)
	}
	return s.AppointmentsForProvider(ctx, u.ID)
}

func (s *Store) AppointmentsForPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return s.listAppointments(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE patient_id = $1 ORDER BY start_at`, patientID)
}

func (s *Store) AppointmentsForProvider(ctx context.Context, providerID string) ([]model.Appointment, error) {
	return s.listAppointments(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE provider_id = $1 ORDER BY start_at`, providerID)
}

func (s *Store) listAppointments(ctx context.Context, q string, args ...any) ([]model.Appointment, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.ProviderID, &a.RemoteRef, &a.SyncStatus,
			&a.StartAt, &a.EndAt, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
