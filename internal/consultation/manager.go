package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"clinic-scheduling-server/internal/appointments"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/suggest"
)

// ErrNoActiveSession means no session exists for the appointment.
var ErrNoActiveSession = errors.New("consultation: no session for appointment")

// Result is the outcome of completing a session. Incomplete flags a
// record finalized without symptoms or diagnosis text; completion
// succeeded regardless.
type Result struct {
	Appointment *models.Appointment
	Record      *models.ConsultationRecord
	Incomplete  bool
}

// Manager owns the live consultation sessions, one per appointment at
// most, and ties their lifecycle to the appointment lifecycle service.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	appts     *appointments.Service
	suggester suggest.Service
	now       func() time.Time
}

// NewManager creates a session manager.
func NewManager(appts *appointments.Service, suggester suggest.Service) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		appts:     appts,
		suggester: suggester,
		now:       time.Now,
	}
}

// WithClock overrides the manager clock for new sessions. Test hook.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Start begins (or resumes) the consultation for an appointment,
// transitioning it to in_progress when needed. An abandoned session is
// reopened with its accrued time and draft intact.
func (m *Manager) Start(ctx context.Context, appointmentID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[appointmentID]; ok {
		switch existing.State() {
		case StateCompleted, StateCancelled:
			return nil, fmt.Errorf("%w: session already closed", appointments.ErrInvalidTransition)
		case StateAbandoned, StatePaused:
			if err := existing.Resume(); err != nil {
				return nil, err
			}
			return existing, nil
		default:
			return existing, nil
		}
	}

	appt, err := m.appts.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	appt, err = m.appts.StartConsultation(ctx, appointmentID, appt.Version)
	if err != nil {
		return nil, err
	}

	session := &Session{
		appointmentID: appointmentID,
		version:       appt.Version,
		state:         StateRunning,
		now:           m.now,
		suggester:     m.suggester,
	}
	session.runningSince = m.now()
	m.sessions[appointmentID] = session
	return session, nil
}

// Get returns the session for an appointment, if one exists.
func (m *Manager) Get(appointmentID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[appointmentID]
	return s, ok
}

// Complete stops the timer, finalizes the record, and moves the
// appointment to completed in one store update. If the store rejects
// the transition the session is reopened so the doctor can retry after
// refetching.
func (m *Manager) Complete(ctx context.Context, appointmentID string) (*Result, error) {
	session, ok := m.Get(appointmentID)
	if !ok {
		return nil, ErrNoActiveSession
	}

	record, incomplete, err := session.finalize()
	if err != nil {
		return nil, err
	}

	appt, err := m.appts.Complete(ctx, appointmentID, session.version, record)
	if err != nil {
		session.reopen()
		return nil, err
	}

	m.mu.Lock()
	delete(m.sessions, appointmentID)
	m.mu.Unlock()

	return &Result{Appointment: appt, Record: record, Incomplete: incomplete}, nil
}

// Abandon closes the session without completing it. The appointment
// stays in_progress and the session can be resumed later.
func (m *Manager) Abandon(appointmentID string) error {
	session, ok := m.Get(appointmentID)
	if !ok {
		return ErrNoActiveSession
	}
	return session.abandon()
}

// HandleCancelled forces abandon semantics on the session of an
// appointment that was cancelled externally. Any later complete on the
// session fails as an invalid transition.
func (m *Manager) HandleCancelled(appointmentID string) {
	if session, ok := m.Get(appointmentID); ok {
		session.markCancelled()
	}
}

// PrescriptionTemplate pre-fills a prescription from the patient's
// current medications, in the clinic's standard wording.
func PrescriptionTemplate(patient *models.Patient) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prescriptions pour %s:\n\n", patient.Name)
	for i, med := range patient.MedicationList() {
		fmt.Fprintf(&b, "%d. %s - posologie habituelle\n", i+1, med)
	}
	b.WriteString("\nConseils:\n")
	b.WriteString("- Régime pauvre en sel\n")
	b.WriteString("- Activité physique modérée 30min/jour\n")
	b.WriteString("- Surveillance tension artérielle\n\n")
	b.WriteString("Prochain RDV: Dans 3 mois")
	return b.String()
}
