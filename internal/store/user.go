package store

import (
	"context"

	"clinic-booking-api/internal/model"
)

const userCols = `id, email, password_hash, role, patient_ref, practitioner_ref, schedule_ref, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, role, patient_ref, practitioner_ref, schedule_ref)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.PatientRef, u.PractitionerRef, u.ScheduleRef,
	)
	return err
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := s.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role,
		&u.PatientRef, &u.PractitionerRef, &u.ScheduleRef, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	u := &model.User{}
	err := s.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role,
		&u.PatientRef, &u.PractitionerRef, &u.ScheduleRef, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *Store) ListProviders(ctx context.Context) ([]model.User, error) {
	return s.listByRole(ctx, model.RoleProvider)
}

func (s *Store) ListPatients(ctx context.Context) ([]model.User, error) {
	return s.listByRole(ctx, model.RolePatient)
}

func (s *Store) listByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userCols+` FROM users WHERE role = $1 ORDER BY email`, role,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role,
			&u.PatientRef, &u.PractitionerRef, &u.ScheduleRef, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// AttachPatientRef records the directory Patient reference assigned
// after signup.
func (s *Store) AttachPatientRef(ctx context.Context, userID, ref string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET patient_ref = $1, updated_at = NOW() WHERE id = $2`,
		ref, userID,
	)
	return err
}

// AttachScheduleRef records the directory Schedule created for a
// provider at seed time.
func (s *Store) AttachScheduleRef(ctx context.Context, userID, ref string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET schedule_ref = $1, updated_at = NOW() WHERE id = $2`,
		ref, userID,
	)
	return err
}
