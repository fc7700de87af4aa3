package notify

import (
	"time"

	"clinic-scheduling-server/pkg/logging"
)

// EventType identifies a lifecycle transition event.
type EventType string

const (
	EventAppointmentConfirmed EventType = "appointment.confirmed"
	EventAppointmentCancelled EventType = "appointment.cancelled"
	EventConsultationComplete EventType = "consultation.completed"
	EventAppointmentReminder  EventType = "appointment.reminder"
)

// Event is a fire-and-forget notification emitted on a transition.
// Emitters never wait for delivery.
type Event struct {
	Type          EventType `json:"type"`
	AppointmentID string    `json:"appointmentId"`
	DoctorID      string    `json:"doctorId,omitempty"`
	PatientID     string    `json:"patientId,omitempty"`
	At            time.Time `json:"at"`
}

// Sink receives transition events. Implementations must not block the
// caller.
type Sink interface {
	Publish(evt Event)
}

// LogSink writes events to the structured log from a background
// goroutine. Events are dropped rather than ever blocking a transition.
type LogSink struct {
	logger *logging.Logger
	ch     chan Event
	done   chan struct{}
}

// NewLogSink creates a running LogSink.
func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	s := &LogSink{
		logger: logger,
		ch:     make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *LogSink) run() {
	defer close(s.done)
	for evt := range s.ch {
		s.logger.Info("notification",
			"event", string(evt.Type),
			"appointment_id", evt.AppointmentID,
			"doctor_id", evt.DoctorID,
			"patient_id", evt.PatientID,
			"at", evt.At,
		)
	}
}

// Publish enqueues the event, dropping it if the buffer is full.
func (s *LogSink) Publish(evt Event) {
	select {
	case s.ch <- evt:
	default:
		s.logger.Warn("notification dropped", "event", string(evt.Type), "appointment_id", evt.AppointmentID)
	}
}

// Close stops the sink after draining queued events.
func (s *LogSink) Close() {
	close(s.ch)
	<-s.done
}
