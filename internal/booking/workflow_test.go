package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinic-scheduling-server/internal/appointments"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
)

type stubBooker struct {
	err    error
	booked []*models.Appointment
}

func (b *stubBooker) Book(_ context.Context, appt *models.Appointment) error {
	if b.err != nil {
		return b.err
	}
	b.booked = append(b.booked, appt)
	return nil
}

func doctorBoth() *models.Doctor {
	return &models.Doctor{
		BaseModel:        models.BaseModel{ID: "doc-both"},
		Name:             "Dr. Marie Dubois",
		Available:        true,
		ConsultationType: models.ConsultBoth,
	}
}

func doctorVideoOnly() *models.Doctor {
	return &models.Doctor{
		BaseModel:        models.BaseModel{ID: "doc-video"},
		Name:             "Dr. Sophie Laurent",
		Available:        true,
		ConsultationType: models.ConsultVideo,
	}
}

func testSlot(t *testing.T, clock string) scheduling.Slot {
	t.Helper()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start, err := scheduling.SlotStart(date, clock)
	if err != nil {
		t.Fatalf("SlotStart(%q): %v", clock, err)
	}
	return scheduling.Slot{Date: date, Time: clock, Start: start, Minutes: 30}
}

func TestWorkflowHappyPath(t *testing.T) {
	w := New("patient-1", Policy{})
	if w.Step() != StepDoctorSelection {
		t.Fatalf("new workflow step = %s, want %s", w.Step(), StepDoctorSelection)
	}

	if err := w.SelectDoctor(doctorBoth()); err != nil {
		t.Fatalf("SelectDoctor: %v", err)
	}
	if w.Step() != StepDateTimeSelection {
		t.Fatalf("step after SelectDoctor = %s, want %s", w.Step(), StepDateTimeSelection)
	}
	if !w.NeedsModeChoice() {
		t.Fatal("doctor offering both modes should need a mode choice")
	}

	slot := testSlot(t, "10:30")
	if err := w.SelectSlot(slot); err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}
	if err := w.SelectMode(models.ModeVideo); err != nil {
		t.Fatalf("SelectMode: %v", err)
	}
	w.SetReason("Suivi tension", "")

	if err := w.ConfirmSlot(); err != nil {
		t.Fatalf("ConfirmSlot: %v", err)
	}
	draft, err := w.Draft()
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if draft.Time != "10:30" || draft.Mode != models.ModeVideo || draft.Reason != "Suivi tension" {
		t.Fatalf("unexpected draft: %+v", draft)
	}

	booker := &stubBooker{}
	appt, err := w.Confirm(context.Background(), booker)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(booker.booked) != 1 {
		t.Fatalf("booked %d appointments, want 1", len(booker.booked))
	}
	if appt.DoctorID != "doc-both" || appt.PatientID != "patient-1" {
		t.Fatalf("appointment parties wrong: %+v", appt)
	}
	if !appt.StartTime.Equal(slot.Start) || appt.DurationMinutes != 30 {
		t.Fatalf("appointment timing wrong: %+v", appt)
	}
	if appt.Status != models.StatusPending {
		t.Fatalf("status = %s, want %s without auto-confirm", appt.Status, models.StatusPending)
	}
	if appt.ConfirmedAt != nil {
		t.Fatal("ConfirmedAt should be unset without auto-confirm")
	}
}

func TestWorkflowAutoConfirmPolicy(t *testing.T) {
	w := New("patient-1", Policy{AutoConfirm: true})
	if err := w.SelectDoctor(doctorVideoOnly()); err != nil {
		t.Fatalf("SelectDoctor: %v", err)
	}
	if err := w.SelectSlot(testSlot(t, "14:00")); err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}
	if err := w.ConfirmSlot(); err != nil {
		t.Fatalf("ConfirmSlot: %v", err)
	}

	appt, err := w.Confirm(context.Background(), &stubBooker{})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if appt.Status != models.StatusConfirmed {
		t.Fatalf("status = %s, want %s with auto-confirm", appt.Status, models.StatusConfirmed)
	}
	if appt.ConfirmedAt == nil {
		t.Fatal("ConfirmedAt should be set with auto-confirm")
	}
}

func TestWorkflowAutoAssignsSingleMode(t *testing.T) {
	w := New("patient-1", Policy{})
	if err := w.SelectDoctor(doctorVideoOnly()); err != nil {
		t.Fatalf("SelectDoctor: %v", err)
	}
	if w.NeedsModeChoice() {
		t.Fatal("single-mode doctor should not need a mode choice")
	}
	if err := w.SelectSlot(testSlot(t, "09:00")); err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}
	// No SelectMode call: the mode is assigned from the doctor.
	if err := w.ConfirmSlot(); err != nil {
		t.Fatalf("ConfirmSlot: %v", err)
	}
	appt, err := w.Confirm(context.Background(), &stubBooker{})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if appt.Mode != models.ModeVideo {
		t.Fatalf("mode = %s, want %s auto-assigned", appt.Mode, models.ModeVideo)
	}
}

func TestWorkflowRejectsUnavailableDoctor(t *testing.T) {
	w := New("patient-1", Policy{})
	doctor := doctorBoth()
	doctor.Available = false
	if err := w.SelectDoctor(doctor); !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("SelectDoctor err = %v, want ErrDoctorUnavailable", err)
	}
	if w.Step() != StepDoctorSelection {
		t.Fatalf("step after rejection = %s, want %s", w.Step(), StepDoctorSelection)
	}
}

func TestWorkflowRejectsUnofferedMode(t *testing.T) {
	w := New("patient-1", Policy{})
	if err := w.SelectDoctor(doctorVideoOnly()); err != nil {
		t.Fatalf("SelectDoctor: %v", err)
	}
	if err := w.SelectMode(models.ModePhysical); !errors.Is(err, ErrModeNotOffered) {
		t.Fatalf("SelectMode err = %v, want ErrModeNotOffered", err)
	}
}

func TestWorkflowIncompleteSelection(t *testing.T) {
	t.Run("missing slot", func(t *testing.T) {
		w := New("patient-1", Policy{})
		if err := w.SelectDoctor(doctorVideoOnly()); err != nil {
			t.Fatalf("SelectDoctor: %v", err)
		}
		if err := w.ConfirmSlot(); !errors.Is(err, ErrIncompleteSelection) {
			t.Fatalf("ConfirmSlot err = %v, want ErrIncompleteSelection", err)
		}
	})

	t.Run("missing mode", func(t *testing.T) {
		w := New("patient-1", Policy{})
		if err := w.SelectDoctor(doctorBoth()); err != nil {
			t.Fatalf("SelectDoctor: %v", err)
		}
		if err := w.SelectSlot(testSlot(t, "10:00")); err != nil {
			t.Fatalf("SelectSlot: %v", err)
		}
		if err := w.ConfirmSlot(); !errors.Is(err, ErrIncompleteSelection) {
			t.Fatalf("ConfirmSlot err = %v, want ErrIncompleteSelection", err)
		}
	})
}

func TestWorkflowBackDiscardsSelection(t *testing.T) {
	w := New("patient-1", Policy{})
	if err := w.SelectDoctor(doctorBoth()); err != nil {
		t.Fatalf("SelectDoctor: %v", err)
	}
	if err := w.SelectSlot(testSlot(t, "11:00")); err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}
	if err := w.SelectMode(models.ModePhysical); err != nil {
		t.Fatalf("SelectMode: %v", err)
	}

	if err := w.Back(); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if w.Step() != StepDoctorSelection {
		t.Fatalf("step after Back = %s, want %s", w.Step(), StepDoctorSelection)
	}

	// The discarded slot and mode must not leak into a new selection.
	if err := w.SelectDoctor(doctorBoth()); err != nil {
		t.Fatalf("SelectDoctor after Back: %v", err)
	}
	if err := w.ConfirmSlot(); !errors.Is(err, ErrIncompleteSelection) {
		t.Fatalf("ConfirmSlot after Back err = %v, want ErrIncompleteSelection", err)
	}
}

func TestWorkflowStepGuards(t *testing.T) {
	w := New("patient-1", Policy{})
	if err := w.SelectSlot(testSlot(t, "09:30")); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("SelectSlot at doctor-selection err = %v, want ErrWrongStep", err)
	}
	if _, err := w.Confirm(context.Background(), &stubBooker{}); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("Confirm at doctor-selection err = %v, want ErrWrongStep", err)
	}
	if _, err := w.Draft(); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("Draft at doctor-selection err = %v, want ErrWrongStep", err)
	}
}

func TestWorkflowSlotRaceReturnsToDateTimeSelection(t *testing.T) {
	w := New("patient-1", Policy{})
	if err := w.SelectDoctor(doctorVideoOnly()); err != nil {
		t.Fatalf("SelectDoctor: %v", err)
	}
	if err := w.SelectSlot(testSlot(t, "15:00")); err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}
	if err := w.ConfirmSlot(); err != nil {
		t.Fatalf("ConfirmSlot: %v", err)
	}

	booker := &stubBooker{err: appointments.ErrSlotNoLongerAvailable}
	if _, err := w.Confirm(context.Background(), booker); !errors.Is(err, appointments.ErrSlotNoLongerAvailable) {
		t.Fatalf("Confirm err = %v, want ErrSlotNoLongerAvailable", err)
	}
	if w.Step() != StepDateTimeSelection {
		t.Fatalf("step after race loss = %s, want %s", w.Step(), StepDateTimeSelection)
	}
	// The stale slot is gone; the caller must pick a fresh one.
	if err := w.ConfirmSlot(); !errors.Is(err, ErrIncompleteSelection) {
		t.Fatalf("ConfirmSlot after race loss err = %v, want ErrIncompleteSelection", err)
	}
}

// memBooker books atomically in memory, one appointment per
// (doctor, start time).
type memBooker struct {
	mu    sync.Mutex
	taken map[string]bool
}

func (b *memBooker) Book(_ context.Context, appt *models.Appointment) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := appt.DoctorID + "|" + appt.StartTime.Format(time.RFC3339)
	if b.taken[key] {
		return appointments.ErrSlotNoLongerAvailable
	}
	b.taken[key] = true
	return nil
}

func TestConcurrentBookingOneWinner(t *testing.T) {
	booker := &memBooker{taken: make(map[string]bool)}
	slot := testSlot(t, "10:30")

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, patient := range []string{"patient-1", "patient-2"} {
		wg.Add(1)
		go func(patientID string) {
			defer wg.Done()
			w := New(patientID, Policy{})
			if err := w.SelectDoctor(doctorVideoOnly()); err != nil {
				results <- err
				return
			}
			if err := w.SelectSlot(slot); err != nil {
				results <- err
				return
			}
			if err := w.ConfirmSlot(); err != nil {
				results <- err
				return
			}
			_, err := w.Confirm(context.Background(), booker)
			results <- err
		}(patient)
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, appointments.ErrSlotNoLongerAvailable):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("wins = %d, losses = %d; want exactly one of each", wins, losses)
	}
}
