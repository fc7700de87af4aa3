package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
)

// Step is a stage of the booking workflow.
type Step string

const (
	StepDoctorSelection   Step = "doctor-selection"
	StepDateTimeSelection Step = "datetime-selection"
	StepConfirmation      Step = "confirmation"
)

var (
	// ErrIncompleteSelection means confirmation was attempted with a
	// missing date, time, or mode. Recoverable: re-prompt the caller.
	ErrIncompleteSelection = errors.New("booking: selection incomplete")

	// ErrDoctorUnavailable means the chosen doctor is not accepting
	// bookings.
	ErrDoctorUnavailable = errors.New("booking: doctor is not available for booking")

	// ErrModeNotOffered means the chosen consultation mode is not
	// offered by the selected doctor.
	ErrModeNotOffered = errors.New("booking: consultation mode not offered by this doctor")

	// ErrWrongStep means the action does not belong to the workflow's
	// current step.
	ErrWrongStep = errors.New("booking: action not valid at this step")
)

// Booker persists the assembled appointment. The implementation must
// make the slot check and insert atomic and return
// appointments.ErrSlotNoLongerAvailable to the loser of a race.
type Booker interface {
	Book(ctx context.Context, appt *models.Appointment) error
}

// Policy holds the booking policy decisions left open by the product:
// whether a fresh booking is auto-confirmed or waits for the clinic.
type Policy struct {
	AutoConfirm bool
}

// Workflow drives one booking attempt through doctor-selection,
// datetime-selection, and confirmation. One workflow produces at most
// one appointment. Not safe for concurrent use; a workflow belongs to a
// single caller.
type Workflow struct {
	policy    Policy
	step      Step
	patientID string

	doctor  *models.Doctor
	slot    *scheduling.Slot
	mode    models.ConsultationMode
	modeSet bool
	reason  string
	notes   string
}

// New starts a workflow for the given patient at doctor-selection.
func New(patientID string, policy Policy) *Workflow {
	return &Workflow{
		policy:    policy,
		step:      StepDoctorSelection,
		patientID: patientID,
	}
}

// Step returns the workflow's current step.
func (w *Workflow) Step() Step {
	return w.step
}

// SelectDoctor chooses the doctor and advances to datetime-selection.
// Doctors flagged unavailable cannot be selected. When the doctor
// offers a single mode it is assigned here, so the caller never has to
// expose a mode choice.
func (w *Workflow) SelectDoctor(doctor *models.Doctor) error {
	if w.step != StepDoctorSelection {
		return fmt.Errorf("%w: %s during %s", ErrWrongStep, "select doctor", w.step)
	}
	if doctor == nil || !doctor.Available {
		return ErrDoctorUnavailable
	}
	w.doctor = doctor
	if mode, ok := doctor.SingleMode(); ok {
		w.mode = mode
		w.modeSet = true
	}
	w.step = StepDateTimeSelection
	return nil
}

// NeedsModeChoice reports whether the caller must ask for a mode: only
// when the selected doctor offers both.
func (w *Workflow) NeedsModeChoice() bool {
	return w.doctor != nil && len(w.doctor.Modes()) > 1
}

// SelectSlot records the chosen slot. The slot must come from the slot
// calendar's output for the selected doctor and date.
func (w *Workflow) SelectSlot(slot scheduling.Slot) error {
	if w.step != StepDateTimeSelection {
		return fmt.Errorf("%w: %s during %s", ErrWrongStep, "select slot", w.step)
	}
	w.slot = &slot
	return nil
}

// SelectMode records an explicit mode choice for doctors offering both.
func (w *Workflow) SelectMode(mode models.ConsultationMode) error {
	if w.step != StepDateTimeSelection {
		return fmt.Errorf("%w: %s during %s", ErrWrongStep, "select mode", w.step)
	}
	if !w.doctor.SupportsMode(mode) {
		return ErrModeNotOffered
	}
	w.mode = mode
	w.modeSet = true
	return nil
}

// SetReason records the free-text visit reason and notes.
func (w *Workflow) SetReason(reason, notes string) {
	w.reason = reason
	w.notes = notes
}

// Back returns from datetime-selection to doctor-selection, discarding
// the slot and mode choices.
func (w *Workflow) Back() error {
	if w.step != StepDateTimeSelection {
		return fmt.Errorf("%w: %s during %s", ErrWrongStep, "back", w.step)
	}
	w.doctor = nil
	w.slot = nil
	w.mode = ""
	w.modeSet = false
	w.step = StepDoctorSelection
	return nil
}

// ConfirmSlot advances to confirmation. It fails with
// ErrIncompleteSelection until a slot is chosen and, for doctors
// offering both modes, a mode is picked.
func (w *Workflow) ConfirmSlot() error {
	if w.step != StepDateTimeSelection {
		return fmt.Errorf("%w: %s during %s", ErrWrongStep, "confirm slot", w.step)
	}
	if w.slot == nil || !w.modeSet {
		return ErrIncompleteSelection
	}
	w.step = StepConfirmation
	return nil
}

// Draft is the assembled booking shown for final review.
type Draft struct {
	Doctor *models.Doctor          `json:"doctor"`
	Date   time.Time               `json:"date"`
	Time   string                  `json:"time"`
	Mode   models.ConsultationMode `json:"mode"`
	Reason string                  `json:"reason"`
}

// Draft returns the review summary. Only valid at confirmation.
func (w *Workflow) Draft() (Draft, error) {
	if w.step != StepConfirmation {
		return Draft{}, fmt.Errorf("%w: %s during %s", ErrWrongStep, "draft", w.step)
	}
	return Draft{
		Doctor: w.doctor,
		Date:   w.slot.Date,
		Time:   w.slot.Time,
		Mode:   w.mode,
		Reason: w.reason,
	}, nil
}

// Confirm books the appointment and ends the workflow. Losing the slot
// race returns the workflow to datetime-selection with the stale slot
// discarded, forcing a fresh slot query before the next attempt.
func (w *Workflow) Confirm(ctx context.Context, booker Booker) (*models.Appointment, error) {
	if w.step != StepConfirmation {
		return nil, fmt.Errorf("%w: %s during %s", ErrWrongStep, "confirm", w.step)
	}

	status := models.StatusPending
	if w.policy.AutoConfirm {
		status = models.StatusConfirmed
	}

	appt := &models.Appointment{
		PatientID:       w.patientID,
		DoctorID:        w.doctor.ID,
		StartTime:       w.slot.Start,
		DurationMinutes: w.slot.Minutes,
		Mode:            w.mode,
		Status:          status,
		Reason:          w.reason,
		Notes:           w.notes,
	}
	if w.policy.AutoConfirm {
		// The audit trail records the implicit confirmation too.
		now := time.Now()
		appt.ConfirmedAt = &now
	}

	if err := booker.Book(ctx, appt); err != nil {
		w.slot = nil
		w.step = StepDateTimeSelection
		return nil, err
	}
	return appt, nil
}
