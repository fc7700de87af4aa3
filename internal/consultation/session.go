package consultation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"clinic-scheduling-server/internal/appointments"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/suggest"
)

// State is the lifecycle of one consultation session. Abandoned
// sessions are resumable; cancelled and completed are terminal.
type State string

const (
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateAbandoned State = "abandoned"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// ErrSessionClosed means the session reached a terminal state and can
// no longer be driven.
var ErrSessionClosed = errors.New("consultation: session is closed")

// Draft holds the free-text clinical fields accumulated during a
// session, before they become the immutable record.
type Draft struct {
	Symptoms     string `json:"symptoms"`
	Examination  string `json:"examination"`
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription"`
	PrivateNotes string `json:"privateNotes"`
	FollowUp     string `json:"followUp"`
}

// Session is a timed, resumable recording session bound to one
// in-progress appointment. Elapsed time accrues only while running;
// pause and resume never lose or double-count seconds.
type Session struct {
	mu sync.Mutex

	appointmentID string
	version       int // appointment version for the completing CAS
	state         State
	accrued       time.Duration
	runningSince  time.Time
	draft         Draft
	suggestions   []string

	now       func() time.Time
	suggester suggest.Service
}

// AppointmentID returns the bound appointment's id.
func (s *Session) AppointmentID() string {
	return s.appointmentID
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed returns the accrued consultation time in whole seconds.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Session) elapsedLocked() time.Duration {
	total := s.accrued
	if s.state == StateRunning {
		total += s.now().Sub(s.runningSince)
	}
	return total.Truncate(time.Second)
}

// ElapsedDisplay formats the elapsed time as MM:SS.
func (s *Session) ElapsedDisplay() string {
	return FormatElapsed(s.Elapsed())
}

// FormatElapsed renders a duration as MM:SS.
func FormatElapsed(d time.Duration) string {
	secs := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Pause stops timer accrual without resetting elapsed time.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRunning:
		s.accrued += s.now().Sub(s.runningSince)
		s.runningSince = time.Time{}
		s.state = StatePaused
		return nil
	case StatePaused:
		return nil
	default:
		return ErrSessionClosed
	}
}

// Resume restarts timer accrual after a pause or an abandon.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StatePaused, StateAbandoned:
		s.runningSince = s.now()
		s.state = StateRunning
		return nil
	case StateRunning:
		return nil
	default:
		return ErrSessionClosed
	}
}

// SaveDraft stores the current field values without ending the session.
// Idempotent: saving the same content any number of times leaves the
// same stored draft. Changed symptom text refreshes the advisory
// suggestions; the suggestions never alter the draft itself.
func (s *Session) SaveDraft(draft Draft) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateCompleted, StateCancelled:
		return nil, ErrSessionClosed
	}
	symptomsChanged := draft.Symptoms != s.draft.Symptoms
	s.draft = draft
	if symptomsChanged && s.suggester != nil {
		s.suggestions = s.suggester.Suggest(draft.Symptoms)
	}
	return s.suggestions, nil
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Suggestions returns the advisory suggestions from the last symptom
// change.
func (s *Session) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestions
}

// abandon closes the session without completing it. The accrued time
// and draft survive for a later resume.
func (s *Session) abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateCompleted, StateCancelled:
		return ErrSessionClosed
	case StateRunning:
		s.accrued += s.now().Sub(s.runningSince)
		s.runningSince = time.Time{}
	}
	s.state = StateAbandoned
	return nil
}

// markCancelled forces abandon semantics and makes the session
// permanently unusable, for appointments cancelled out from under an
// active session.
func (s *Session) markCancelled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.accrued += s.now().Sub(s.runningSince)
		s.runningSince = time.Time{}
	}
	s.state = StateCancelled
}

// finalize stops the timer and produces the consultation record. The
// incomplete flag is set when symptoms or diagnosis are empty; it is a
// warning for the caller, never a block.
func (s *Session) finalize() (*models.ConsultationRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateCancelled:
		return nil, false, fmt.Errorf("%w: session cancelled", appointments.ErrInvalidTransition)
	case StateCompleted:
		return nil, false, fmt.Errorf("%w: session already completed", appointments.ErrInvalidTransition)
	case StateRunning:
		s.accrued += s.now().Sub(s.runningSince)
		s.runningSince = time.Time{}
	}
	s.state = StateCompleted

	record := &models.ConsultationRecord{
		AppointmentID:   s.appointmentID,
		DurationSeconds: int(s.accrued.Truncate(time.Second).Seconds()),
		Symptoms:        s.draft.Symptoms,
		Examination:     s.draft.Examination,
		Diagnosis:       s.draft.Diagnosis,
		Prescription:    s.draft.Prescription,
		PrivateNotes:    s.draft.PrivateNotes,
		FollowUp:        s.draft.FollowUp,
	}
	incomplete := strings.TrimSpace(record.Symptoms) == "" || strings.TrimSpace(record.Diagnosis) == ""
	return record, incomplete, nil
}

// reopen puts the session back into finalizable state when the store
// rejected the completion, so the doctor can retry.
func (s *Session) reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted {
		s.state = StatePaused
	}
}
