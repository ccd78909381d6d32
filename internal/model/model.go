package model

import "time"

type Role string

const (
	RolePatient Role = "patient"
	// RoleProvider is a care provider, "GDA" in the clinic's terms.
	RoleProvider Role = "gda"
)

// Sync status of an appointment's remote copy. Pending means the
// directory write failed and the record exists locally only.
const (
	SyncSynced  = "synced"
	SyncPending = "pending"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role

	// References into the remote directory. Exactly one of
	// PatientRef/PractitionerRef is set, matching Role. ScheduleRef is
	// set for providers whose schedule exists in the directory.
	PatientRef      *string
	PractitionerRef *string
	ScheduleRef     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID         string
	PatientID  string
	ProviderID string

	// RemoteRef is the directory's appointment id, nil when the remote
	// create failed. SyncStatus records which of the two happened.
	RemoteRef  *string
	SyncStatus string

	StartAt   time.Time
	EndAt     time.Time
	Notes     string
	CreatedAt time.Time
}
