package appointments

import (
	"context"
	"fmt"
	"time"

	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/notify"
)

// Service drives the appointment lifecycle. Every transition is
// validated against the status state machine, applied through the
// store's versioned update, and announced on the notification sink.
type Service struct {
	store Store
	sink  notify.Sink
	now   func() time.Time
}

// NewService creates a lifecycle service. A nil sink disables events.
func NewService(store Store, sink notify.Sink) *Service {
	return &Service{store: store, sink: sink, now: time.Now}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Store exposes the underlying store for read paths.
func (s *Service) Store() Store {
	return s.store
}

// Book persists a freshly assembled appointment and, when the booking
// policy auto-confirmed it, announces the confirmation.
func (s *Service) Book(ctx context.Context, appt *models.Appointment) error {
	if err := s.store.Create(ctx, appt); err != nil {
		return err
	}
	if appt.Status == models.StatusConfirmed {
		s.publish(notify.EventAppointmentConfirmed, appt)
	}
	return nil
}

// Confirm acknowledges a pending appointment.
func (s *Service) Confirm(ctx context.Context, id string, expectedVersion int) (*models.Appointment, error) {
	appt, err := s.transition(ctx, id, expectedVersion, models.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.publish(notify.EventAppointmentConfirmed, appt)
	return appt, nil
}

// Cancel performs a logical deletion: the appointment is kept with
// status cancelled and never physically removed.
func (s *Service) Cancel(ctx context.Context, id string, expectedVersion int) (*models.Appointment, error) {
	appt, err := s.transition(ctx, id, expectedVersion, models.StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.publish(notify.EventAppointmentCancelled, appt)
	return appt, nil
}

// StartConsultation moves a confirmed appointment to in_progress. The
// scheduled time must have arrived; starting early returns ErrTooEarly.
// An appointment already in progress is returned unchanged, so a
// session resumed after an abandon does not need a second transition.
func (s *Service) StartConsultation(ctx context.Context, id string, expectedVersion int) (*models.Appointment, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.StatusInProgress {
		return current, nil
	}
	if s.now().Before(current.StartTime) {
		return nil, fmt.Errorf("%w: scheduled for %s", ErrTooEarly, current.StartTime.Format(time.RFC3339))
	}
	return s.transition(ctx, id, expectedVersion, models.StatusInProgress)
}

// Complete finishes the consultation: the status change and the record
// insert land in one atomic store update, then the completion event is
// announced.
func (s *Service) Complete(ctx context.Context, id string, expectedVersion int, record *models.ConsultationRecord) (*models.Appointment, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(current, expectedVersion, models.StatusCompleted); err != nil {
		return nil, err
	}
	appt, err := s.store.UpdateStatus(ctx, id, expectedVersion, models.StatusCompleted, s.now(), record)
	if err != nil {
		return nil, err
	}
	s.publish(notify.EventConsultationComplete, appt)
	return appt, nil
}

// Get loads one appointment.
func (s *Service) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return s.store.Get(ctx, id)
}

// List returns appointments under the given filter projection.
func (s *Service) List(ctx context.Context, filter Filter) ([]models.Appointment, error) {
	if filter.Projection == "" {
		filter.Projection = ProjectionAll
	}
	if filter.Now.IsZero() {
		filter.Now = s.now()
	}
	return s.store.List(ctx, filter)
}

func (s *Service) transition(ctx context.Context, id string, expectedVersion int, next models.AppointmentStatus) (*models.Appointment, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(current, expectedVersion, next); err != nil {
		return nil, err
	}
	return s.store.UpdateStatus(ctx, id, expectedVersion, next, s.now(), nil)
}

// checkTransition validates the snapshot before touching the store, so
// a stale version or an illegal transition is reported with the precise
// cause instead of a generic write failure.
func checkTransition(current *models.Appointment, expectedVersion int, next models.AppointmentStatus) error {
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: have version %d, expected %d", ErrVersionConflict, current.Version, expectedVersion)
	}
	if !current.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
	}
	return nil
}

func (s *Service) publish(eventType notify.EventType, appt *models.Appointment) {
	if s.sink == nil {
		return
	}
	s.sink.Publish(notify.Event{
		Type:          eventType,
		AppointmentID: appt.ID,
		DoctorID:      appt.DoctorID,
		PatientID:     appt.PatientID,
		At:            s.now(),
	})
}
