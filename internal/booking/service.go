// Package booking keeps the local appointment record and its remote
// directory copy consistent. There is no transaction spanning the two
// stores: the local database is the source of truth and directory
// writes are best effort, with divergence recorded on the appointment.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinic-booking-api/internal/directory"
	"clinic-booking-api/internal/logging"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/observability/metrics"
	"clinic-booking-api/internal/store"
)

var (
	// ErrNotFound means a referenced user or appointment does not
	// exist locally.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the request is missing or contradicting
	// required fields.
	ErrValidation = errors.New("invalid booking request")
)

// FallbackDisplayName is returned whenever a directory name lookup
// fails; display resolution never surfaces errors.
const FallbackDisplayName = "Unknown"

// Store is the slice of the local store the synchronizer needs.
type Store interface {
	UserByID(ctx context.Context, id string) (*model.User, error)
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
}

// Service orchestrates appointment writes across the local store and
// the remote directory.
type Service struct {
	store   Store
	dir     directory.Client
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

func NewService(st Store, dir directory.Client, logger *logging.Logger, m *metrics.BookingMetrics) *Service {
	if st == nil {
		panic("booking: store required")
	}
	if dir == nil {
		panic("booking: directory client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: st, dir: dir, logger: logger, metrics: m}
}

// Book creates an appointment in the directory and locally. The
// directory write is attempted first; if it fails the booking still
// goes through with no remote reference and sync status "pending",
// so a later reconciliation pass can find it. The caller never sees
// directory failures.
func (s *Service) Book(ctx context.Context, patientID, providerID string, start, end time.Time, notes string) (*model.Appointment, error) {
	if patientID == "" || providerID == "" {
		return nil, fmt.Errorf("%w: patient and provider ids required", ErrValidation)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrValidation)
	}

	patient, err := s.store.UserByID(ctx, patientID)
	if err != nil {
		return nil, lookupErr("patient", patientID, err)
	}
	provider, err := s.store.UserByID(ctx, providerID)
	if err != nil {
		return nil, lookupErr("provider", providerID, err)
	}
	if patient.Role != model.RolePatient {
		return nil, fmt.Errorf("%w: user %s is not a patient", ErrValidation, patientID)
	}
	if provider.Role != model.RoleProvider {
		return nil, fmt.Errorf("%w: user %s is not a provider", ErrValidation, providerID)
	}

	remoteRef, syncStatus := s.createRemote(ctx, patient, provider, start, end, notes)

	appt := &model.Appointment{
		ID:         uuid.New().String(),
		PatientID:  patient.ID,
		ProviderID: provider.ID,
		RemoteRef:  remoteRef,
		SyncStatus: syncStatus,
		StartAt:    start,
		EndAt:      end,
		Notes:      notes,
	}
	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("booking: persist appointment: %w", err)
	}

	s.metrics.ObserveBooked(syncStatus)
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"patient_id", patient.ID,
		"provider_id", provider.ID,
		"sync_status", syncStatus,
	)
	return appt, nil
}

func (s *Service) createRemote(ctx context.Context, patient, provider *model.User, start, end time.Time, notes string) (*string, string) {
	if patient.PatientRef == nil || provider.PractitionerRef == nil {
		s.logger.Warn("skipping remote appointment create, participant has no directory reference",
			"patient_id", patient.ID, "provider_id", provider.ID)
		s.metrics.ObserveSyncFailure("create")
		return nil, model.SyncPending
	}

	ref, err := s.dir.CreateAppointment(ctx, *patient.PatientRef, *provider.PractitionerRef, start, end, notes)
	if err != nil {
		s.logger.Warn("remote appointment create failed, booking locally only",
			"patient_id", patient.ID, "provider_id", provider.ID, "error", err)
		s.metrics.ObserveSyncFailure("create")
		return nil, model.SyncPending
	}
	return &ref, model.SyncSynced
}

// Cancel deletes the appointment remotely when a reference exists and
// always removes the local record. A failed remote delete leaves an
// orphan in the directory; it is logged with the reference so it can
// be reconciled by hand.
func (s *Service) Cancel(ctx context.Context, appt *model.Appointment) error {
	if appt.RemoteRef != nil {
		if err := s.dir.DeleteAppointment(ctx, *appt.RemoteRef); err != nil {
			s.logger.Warn("remote appointment delete failed, remote copy orphaned",
				"appointment_id", appt.ID, "remote_ref", *appt.RemoteRef, "error", err)
			s.metrics.ObserveSyncFailure("delete")
		}
	}

	if err := s.store.DeleteAppointment(ctx, appt.ID); err != nil {
		return fmt.Errorf("booking: delete appointment: %w", err)
	}

	s.metrics.ObserveCancelled()
	s.logger.Info("appointment cancelled", "appointment_id", appt.ID)
	return nil
}

// DisplayName resolves the user's name from their directory resource.
// It never fails: the second return reports whether the lookup
// resolved or the fallback was used.
func (s *Service) DisplayName(ctx context.Context, u *model.User) (string, bool) {
	var (
		p   *directory.Person
		err error
	)
	switch {
	case u.Role == model.RolePatient && u.PatientRef != nil:
		p, err = s.dir.GetPatient(ctx, *u.PatientRef)
	case u.Role == model.RoleProvider && u.PractitionerRef != nil:
		p, err = s.dir.GetPractitioner(ctx, *u.PractitionerRef)
	default:
		return FallbackDisplayName, false
	}
	if err != nil || p == nil {
		s.logger.Debug("display name lookup failed", "user_id", u.ID, "error", err)
		return FallbackDisplayName, false
	}
	name := p.DisplayName()
	if name == "" {
		return FallbackDisplayName, false
	}
	return name, true
}

func lookupErr(kind, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return fmt.Errorf("booking: load %s %s: %w", kind, id, err)
}
