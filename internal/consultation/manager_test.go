package consultation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clinic-scheduling-server/internal/appointments"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/suggest"
)

// memStore is an in-memory appointments.Store backing the manager tests.
type memStore struct {
	appts       map[string]*models.Appointment
	updateCalls int
	lastRecord  *models.ConsultationRecord
}

func newMemStore(appts ...*models.Appointment) *memStore {
	s := &memStore{appts: make(map[string]*models.Appointment)}
	for _, a := range appts {
		s.appts[a.ID] = a
	}
	return s
}

func (s *memStore) Create(_ context.Context, appt *models.Appointment) error {
	s.appts[appt.ID] = appt
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*models.Appointment, error) {
	appt, ok := s.appts[id]
	if !ok {
		return nil, appointments.ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id string, expectedVersion int, next models.AppointmentStatus, at time.Time, record *models.ConsultationRecord) (*models.Appointment, error) {
	s.updateCalls++
	appt, ok := s.appts[id]
	if !ok {
		return nil, appointments.ErrNotFound
	}
	if appt.Version != expectedVersion {
		return nil, appointments.ErrVersionConflict
	}
	appt.Status = next
	appt.Version++
	s.lastRecord = record
	copied := *appt
	return &copied, nil
}

func (s *memStore) List(_ context.Context, _ appointments.Filter) ([]models.Appointment, error) {
	return nil, nil
}

func (s *memStore) ListForDoctorDate(_ context.Context, _ string, _ time.Time) ([]models.Appointment, error) {
	return nil, nil
}

func newTestManager(clock *fakeClock, store *memStore) *Manager {
	svc := appointments.NewService(store, nil).WithClock(clock.Now)
	return NewManager(svc, suggest.NewStatic()).WithClock(clock.Now)
}

func confirmedAppt(clock *fakeClock) *models.Appointment {
	return &models.Appointment{
		BaseModel: models.BaseModel{ID: "a1"},
		PatientID: "patient-1",
		DoctorID:  "doc-1",
		StartTime: clock.Now(),
		Status:    models.StatusConfirmed,
		Version:   1,
	}
}

func TestManagerStartTransitionsAppointment(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore(confirmedAppt(clock))
	m := newTestManager(clock, store)

	session, err := m.Start(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.State() != StateRunning {
		t.Fatalf("state = %s, want running", session.State())
	}
	if store.appts["a1"].Status != models.StatusInProgress {
		t.Fatalf("appointment status = %s, want in_progress", store.appts["a1"].Status)
	}
	if session.version != store.appts["a1"].Version {
		t.Fatalf("session version %d does not match appointment version %d", session.version, store.appts["a1"].Version)
	}
}

func TestManagerStartIsIdempotentWhileRunning(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore(confirmedAppt(clock))
	m := newTestManager(clock, store)

	first, err := m.Start(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, err := m.Start(context.Background(), "a1")
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if first != second {
		t.Fatal("starting twice must return the same session")
	}
	if store.updateCalls != 1 {
		t.Fatalf("updateCalls = %d, want a single transition", store.updateCalls)
	}
}

func TestManagerResumeAfterAbandon(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore(confirmedAppt(clock))
	m := newTestManager(clock, store)

	session, err := m.Start(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.Advance(3 * time.Minute)
	if err := m.Abandon("a1"); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	// The appointment stays in progress for a later resume.
	if store.appts["a1"].Status != models.StatusInProgress {
		t.Fatalf("appointment status after abandon = %s, want in_progress", store.appts["a1"].Status)
	}

	clock.Advance(time.Hour)
	resumed, err := m.Start(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Start after abandon: %v", err)
	}
	if resumed != session {
		t.Fatal("resume must reopen the abandoned session, not create a new one")
	}
	if got := resumed.Elapsed(); got != 3*time.Minute {
		t.Fatalf("elapsed after resume = %v, want 3m", got)
	}
	if store.updateCalls != 1 {
		t.Fatalf("updateCalls = %d, resume must not transition again", store.updateCalls)
	}
}

func TestManagerStartRejectsPendingAppointment(t *testing.T) {
	clock := newFakeClock()
	appt := confirmedAppt(clock)
	appt.Status = models.StatusPending
	m := newTestManager(clock, newMemStore(appt))

	if _, err := m.Start(context.Background(), "a1"); !errors.Is(err, appointments.ErrInvalidTransition) {
		t.Fatalf("Start err = %v, want ErrInvalidTransition", err)
	}
}

func TestManagerStartRejectsEarlyConsultation(t *testing.T) {
	clock := newFakeClock()
	appt := confirmedAppt(clock)
	appt.StartTime = clock.Now().Add(20 * time.Minute)
	m := newTestManager(clock, newMemStore(appt))

	if _, err := m.Start(context.Background(), "a1"); !errors.Is(err, appointments.ErrTooEarly) {
		t.Fatalf("Start err = %v, want ErrTooEarly", err)
	}
}

func TestManagerCompleteAttachesRecordAndDropsSession(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore(confirmedAppt(clock))
	m := newTestManager(clock, store)

	session, err := m.Start(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.Advance(30 * time.Minute)
	if _, err := session.SaveDraft(Draft{Symptoms: "Douleurs thoraciques", Diagnosis: "HTA"}); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	result, err := m.Complete(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result.Incomplete {
		t.Fatal("record with symptoms and diagnosis should not be incomplete")
	}
	if result.Record.DurationSeconds != 1800 {
		t.Fatalf("DurationSeconds = %d, want 1800", result.Record.DurationSeconds)
	}
	if result.Appointment.Status != models.StatusCompleted {
		t.Fatalf("appointment status = %s, want completed", result.Appointment.Status)
	}
	if store.lastRecord != result.Record {
		t.Fatal("record must reach the store in the completing update")
	}
	if _, ok := m.Get("a1"); ok {
		t.Fatal("completed session must be dropped from the manager")
	}
}

func TestManagerCompleteFlagsEmptyRecord(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore(confirmedAppt(clock))
	m := newTestManager(clock, store)

	if _, err := m.Start(context.Background(), "a1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	result, err := m.Complete(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !result.Incomplete {
		t.Fatal("completing without symptoms or diagnosis must flag the record")
	}
}

func TestManagerCompleteWithoutSession(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(clock, newMemStore())

	if _, err := m.Complete(context.Background(), "a1"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Complete err = %v, want ErrNoActiveSession", err)
	}
}

func TestManagerExternalCancelKillsSession(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore(confirmedAppt(clock))
	m := newTestManager(clock, store)

	session, err := m.Start(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.HandleCancelled("a1")
	if session.State() != StateCancelled {
		t.Fatalf("state after external cancel = %s, want cancelled", session.State())
	}
	if _, err := m.Complete(context.Background(), "a1"); !errors.Is(err, appointments.ErrInvalidTransition) {
		t.Fatalf("Complete after cancel err = %v, want ErrInvalidTransition", err)
	}
	if _, err := m.Start(context.Background(), "a1"); !errors.Is(err, appointments.ErrInvalidTransition) {
		t.Fatalf("Start after cancel err = %v, want ErrInvalidTransition", err)
	}
}

func TestManagerCompleteReopensOnVersionConflict(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore(confirmedAppt(clock))
	m := newTestManager(clock, store)

	session, err := m.Start(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Another writer bumps the appointment behind the session's back.
	store.appts["a1"].Version++

	if _, err := m.Complete(context.Background(), "a1"); !errors.Is(err, appointments.ErrVersionConflict) {
		t.Fatalf("Complete err = %v, want ErrVersionConflict", err)
	}
	if _, ok := m.Get("a1"); !ok {
		t.Fatal("rejected completion must keep the session for a retry")
	}
	if session.State() != StatePaused {
		t.Fatalf("state after rejected completion = %s, want paused", session.State())
	}
}

func TestPrescriptionTemplate(t *testing.T) {
	patient := &models.Patient{
		Name:        "Marie Dupont",
		Medications: "Amlodipine 5mg,Metformine 500mg",
	}
	got := PrescriptionTemplate(patient)

	if !strings.Contains(got, "Marie Dupont") {
		t.Fatalf("template missing patient name:\n%s", got)
	}
	if !strings.Contains(got, "1. Amlodipine 5mg") || !strings.Contains(got, "2. Metformine 500mg") {
		t.Fatalf("template missing numbered medications:\n%s", got)
	}
	if !strings.Contains(got, "Prochain RDV") {
		t.Fatalf("template missing follow-up line:\n%s", got)
	}
}
