// Package directory talks to the remote clinical-resource directory, a
// FHIR-style API holding Patient, Practitioner, Schedule, Slot and
// Appointment resources. The rest of the application only sees opaque
// reference strings and display names.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnavailable wraps every failure of the remote directory: network
// errors, non-2xx responses, malformed payloads.
var ErrUnavailable = errors.New("directory unavailable")

// SlotDuration is the fixed length of every bookable slot.
const SlotDuration = 30 * time.Minute

// Client is the directory capability. Exactly one implementation is
// chosen at process wiring time — HTTPClient when an endpoint is
// configured, Mock otherwise — and passed in explicitly.
type Client interface {
	// CreatePatient registers a Patient resource and returns the
	// reference the directory assigned.
	CreatePatient(ctx context.Context, firstName, lastName, email string) (string, error)

	// CreateSchedule creates a Schedule owned by the practitioner.
	CreateSchedule(ctx context.Context, practitionerRef string) (string, error)

	// CreateSlots creates one free 30-minute slot per (day, time) pair
	// for days consecutive days starting at start. References are
	// returned day-major, then in times order.
	CreateSlots(ctx context.Context, scheduleRef string, start time.Time, days int, times []SlotTime) ([]string, error)

	// FreeSlots lists the schedule's free slots as display entries.
	FreeSlots(ctx context.Context, scheduleRef string) ([]Slot, error)

	// CreateAppointment books a remote appointment between the two
	// participants and returns its reference.
	CreateAppointment(ctx context.Context, patientRef, practitionerRef string, start, end time.Time, notes string) (string, error)

	// DeleteAppointment removes the remote appointment. Deleting an
	// appointment the directory no longer knows is not an error.
	DeleteAppointment(ctx context.Context, ref string) error

	// GetPatient and GetPractitioner fetch the named resource so the
	// caller can extract a display name.
	GetPatient(ctx context.Context, ref string) (*Person, error)
	GetPractitioner(ctx context.Context, ref string) (*Person, error)
}

// SlotTime is a time of day a provider takes appointments.
type SlotTime struct {
	Hour   int
	Minute int
}

// Slot is a free slot shaped for display.
type Slot struct {
	Label string `json:"label"` // "28.11 — 09:00"
	Date  string `json:"date"`  // "2025-11-28"
	Time  string `json:"time"`  // "09:00"
}

// Person is the name-bearing part of a Patient or Practitioner
// resource; everything else the directory stores is opaque to us.
type Person struct {
	Ref    string
	Text   string // precomposed display name, preferred when present
	Given  []string
	Family string
}

// DisplayName prefers the precomposed text and falls back to
// concatenating given and family names. Empty when the resource
// carries no usable name.
func (p *Person) DisplayName() string {
	if p.Text != "" {
		return p.Text
	}
	return strings.TrimSpace(strings.Join(p.Given, " ") + " " + p.Family)
}
