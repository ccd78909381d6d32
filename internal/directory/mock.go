package directory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mock simulates the directory when no endpoint is configured. It
// hands out synthesized references and fabricated free slots so the
// rest of the system runs without a live remote dependency.
type Mock struct {
	now func() time.Time
}

var _ Client = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{now: time.Now}
}

func (m *Mock) CreatePatient(ctx context.Context, firstName, lastName, email string) (string, error) {
	return mockRef("patient"), nil
}

func (m *Mock) CreateSchedule(ctx context.Context, practitionerRef string) (string, error) {
	return mockRef("schedule"), nil
}

// CreateSlots synthesizes one reference per (day, time) pair without
// computing actual dates.
func (m *Mock) CreateSlots(ctx context.Context, scheduleRef string, start time.Time, days int, times []SlotTime) ([]string, error) {
	refs := make([]string, 0, days*len(times))
	for d := 0; d < days; d++ {
		for range times {
			refs = append(refs, mockRef("slot"))
		}
	}
	return refs, nil
}

// FreeSlots fabricates 5 days of slots at 09:00 and 14:00 starting
// from the current moment.
func (m *Mock) FreeSlots(ctx context.Context, scheduleRef string) ([]Slot, error) {
	base := m.now()
	out := make([]Slot, 0, 10)
	for d := 0; d < 5; d++ {
		day := base.AddDate(0, 0, d)
		for _, at := range []SlotTime{{Hour: 9}, {Hour: 14}} {
			t := time.Date(day.Year(), day.Month(), day.Day(), at.Hour, at.Minute, 0, 0, day.Location())
			out = append(out, Slot{
				Label: t.Format("02.01") + " — " + t.Format("15:04"),
				Date:  t.Format("2006-01-02"),
				Time:  t.Format("15:04"),
			})
		}
	}
	return out, nil
}

func (m *Mock) CreateAppointment(ctx context.Context, patientRef, practitionerRef string, start, end time.Time, notes string) (string, error) {
	return mockRef("appt"), nil
}

func (m *Mock) DeleteAppointment(ctx context.Context, ref string) error {
	return nil
}

// GetPatient returns a nameless resource; display-name resolution
// falls back to its placeholder, same as running without a directory.
func (m *Mock) GetPatient(ctx context.Context, ref string) (*Person, error) {
	return &Person{Ref: ref}, nil
}

func (m *Mock) GetPractitioner(ctx context.Context, ref string) (*Person, error) {
	return &Person{Ref: ref}, nil
}

func mockRef(kind string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "mock-" + kind + "-" + hex[:10]
}
