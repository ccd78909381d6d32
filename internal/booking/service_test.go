package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-booking-api/internal/directory"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/store"
)

type fakeStore struct {
	users   map[string]*model.User
	created []*model.Appointment
	deleted []string
}

func newFakeStore(users ...*model.User) *fakeStore {
	fs := &fakeStore{users: map[string]*model.User{}}
	for _, u := range users {
		fs.users[u.ID] = u
	}
	return fs
}

func (f *fakeStore) UserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	f.created = append(f.created, a)
	return nil
}

func (f *fakeStore) DeleteAppointment(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeDirectory overrides the mock per test via function fields.
type fakeDirectory struct {
	*directory.Mock
	createAppointment func(ctx context.Context, patientRef, practitionerRef string, start, end time.Time, notes string) (string, error)
	deleteAppointment func(ctx context.Context, ref string) error
	getPractitioner   func(ctx context.Context, ref string) (*directory.Person, error)
	deleteCalls       int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{Mock: directory.NewMock()}
}

func (f *fakeDirectory) CreateAppointment(ctx context.Context, patientRef, practitionerRef string, start, end time.Time, notes string) (string, error) {
	if f.createAppointment != nil {
		return f.createAppointment(ctx, patientRef, practitionerRef, start, end, notes)
	}
	return f.Mock.CreateAppointment(ctx, patientRef, practitionerRef, start, end, notes)
}

func (f *fakeDirectory) DeleteAppointment(ctx context.Context, ref string) error {
	f.deleteCalls++
	if f.deleteAppointment != nil {
		return f.deleteAppointment(ctx, ref)
	}
	return nil
}

func (f *fakeDirectory) GetPractitioner(ctx context.Context, ref string) (*directory.Person, error) {
	if f.getPractitioner != nil {
		return f.getPractitioner(ctx, ref)
	}
	return f.Mock.GetPractitioner(ctx, ref)
}

func ref(s string) *string { return &s }

func testUsers() (*model.User, *model.User) {
	patient := &model.User{ID: "p1", Email: "pat@example.com", Role: model.RolePatient, PatientRef: ref("822300")}
	provider := &model.User{ID: "d1", Email: "doc@biomedical.org", Role: model.RoleProvider, PractitionerRef: ref("822316")}
	return patient, provider
}

func window() (time.Time, time.Time) {
	start := time.Date(2025, 11, 28, 9, 0, 0, 0, time.UTC)
	return start, start.Add(30 * time.Minute)
}

func TestBookSynced(t *testing.T) {
	patient, provider := testUsers()
	fs := newFakeStore(patient, provider)
	fd := newFakeDirectory()
	fd.createAppointment = func(ctx context.Context, patientRef, practitionerRef string, start, end time.Time, notes string) (string, error) {
		assert.Equal(t, "822300", patientRef)
		assert.Equal(t, "822316", practitionerRef)
		return "remote-1", nil
	}
	svc := NewService(fs, fd, nil, nil)

	start, end := window()
	appt, err := svc.Book(context.Background(), "p1", "d1", start, end, "checkup")
	require.NoError(t, err)

	require.NotNil(t, appt.RemoteRef)
	assert.Equal(t, "remote-1", *appt.RemoteRef)
	assert.Equal(t, model.SyncSynced, appt.SyncStatus)
	assert.Equal(t, "checkup", appt.Notes)
	require.Len(t, fs.created, 1)
	assert.Equal(t, appt, fs.created[0])
}

func TestBookDirectoryDownStillBooks(t *testing.T) {
	patient, provider := testUsers()
	fs := newFakeStore(patient, provider)
	fd := newFakeDirectory()
	fd.createAppointment = func(ctx context.Context, _, _ string, _, _ time.Time, _ string) (string, error) {
		return "", directory.ErrUnavailable
	}
	svc := NewService(fs, fd, nil, nil)

	start, end := window()
	appt, err := svc.Book(context.Background(), "p1", "d1", start, end, "")
	require.NoError(t, err)

	assert.Nil(t, appt.RemoteRef)
	assert.Equal(t, model.SyncPending, appt.SyncStatus)
	require.Len(t, fs.created, 1)
}

func TestBookParticipantWithoutRef(t *testing.T) {
	patient, provider := testUsers()
	patient.PatientRef = nil
	fs := newFakeStore(patient, provider)
	fd := newFakeDirectory()
	fd.createAppointment = func(ctx context.Context, _, _ string, _, _ time.Time, _ string) (string, error) {
		t.Fatal("directory must not be called without references")
		return "", nil
	}
	svc := NewService(fs, fd, nil, nil)

	start, end := window()
	appt, err := svc.Book(context.Background(), "p1", "d1", start, end, "")
	require.NoError(t, err)
	assert.Nil(t, appt.RemoteRef)
	assert.Equal(t, model.SyncPending, appt.SyncStatus)
}

func TestBookUnknownProvider(t *testing.T) {
	patient, _ := testUsers()
	fs := newFakeStore(patient)
	svc := NewService(fs, newFakeDirectory(), nil, nil)

	start, end := window()
	_, err := svc.Book(context.Background(), "p1", "nope", start, end, "")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, fs.created)
}

func TestBookValidation(t *testing.T) {
	patient, provider := testUsers()
	fs := newFakeStore(patient, provider)
	svc := NewService(fs, newFakeDirectory(), nil, nil)
	ctx := context.Background()
	start, end := window()

	_, err := svc.Book(ctx, "", "d1", start, end, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Book(ctx, "p1", "d1", end, start, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Book(ctx, "p1", "d1", start, start, "")
	assert.ErrorIs(t, err, ErrValidation)

	// roles reversed
	_, err = svc.Book(ctx, "d1", "p1", start, end, "")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, fs.created)
}

func TestCancelWithRemoteRef(t *testing.T) {
	fs := newFakeStore()
	fd := newFakeDirectory()
	svc := NewService(fs, fd, nil, nil)

	appt := &model.Appointment{ID: "a1", RemoteRef: ref("remote-1")}
	require.NoError(t, svc.Cancel(context.Background(), appt))
	assert.Equal(t, 1, fd.deleteCalls)
	assert.Equal(t, []string{"a1"}, fs.deleted)
}

func TestCancelRemoteFailureStillDeletesLocally(t *testing.T) {
	fs := newFakeStore()
	fd := newFakeDirectory()
	fd.deleteAppointment = func(ctx context.Context, ref string) error {
		return directory.ErrUnavailable
	}
	svc := NewService(fs, fd, nil, nil)

	appt := &model.Appointment{ID: "a1", RemoteRef: ref("remote-1")}
	require.NoError(t, svc.Cancel(context.Background(), appt))
	assert.Equal(t, []string{"a1"}, fs.deleted)
}

func TestCancelWithoutRemoteRefSkipsDirectory(t *testing.T) {
	fs := newFakeStore()
	fd := newFakeDirectory()
	svc := NewService(fs, fd, nil, nil)

	appt := &model.Appointment{ID: "a1"}
	require.NoError(t, svc.Cancel(context.Background(), appt))
	assert.Zero(t, fd.deleteCalls)
	assert.Equal(t, []string{"a1"}, fs.deleted)
}

func TestDisplayName(t *testing.T) {
	fd := newFakeDirectory()
	fd.getPractitioner = func(ctx context.Context, r string) (*directory.Person, error) {
		return &directory.Person{Ref: r, Given: []string{"Alexander"}, Family: "Owens"}, nil
	}
	svc := NewService(newFakeStore(), fd, nil, nil)
	ctx := context.Background()

	provider := &model.User{ID: "d1", Role: model.RoleProvider, PractitionerRef: ref("822316")}
	name, resolved := svc.DisplayName(ctx, provider)
	assert.True(t, resolved)
	assert.Equal(t, "Alexander Owens", name)

	// no reference to resolve
	name, resolved = svc.DisplayName(ctx, &model.User{ID: "d2", Role: model.RoleProvider})
	assert.False(t, resolved)
	assert.Equal(t, FallbackDisplayName, name)

	// lookup failure
	fd.getPractitioner = func(ctx context.Context, r string) (*directory.Person, error) {
		return nil, errors.New("boom")
	}
	name, resolved = svc.DisplayName(ctx, provider)
	assert.False(t, resolved)
	assert.Equal(t, FallbackDisplayName, name)

	// nameless resource
	fd.getPractitioner = func(ctx context.Context, r string) (*directory.Person, error) {
		return &directory.Person{Ref: r}, nil
	}
	name, resolved = svc.DisplayName(ctx, provider)
	assert.False(t, resolved)
	assert.Equal(t, FallbackDisplayName, name)
}
