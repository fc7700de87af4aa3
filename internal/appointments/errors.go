package appointments

import "errors"

var (
	// ErrSlotNoLongerAvailable means a booking lost the race for a slot.
	// Recoverable: the caller re-queries the slot calendar.
	ErrSlotNoLongerAvailable = errors.New("appointments: slot no longer available")

	// ErrVersionConflict means a transition was attempted against a
	// stale appointment snapshot. Recoverable: refetch and retry.
	ErrVersionConflict = errors.New("appointments: version conflict")

	// ErrInvalidTransition means the requested status change does not
	// follow the state machine. A caller bug, never shown to end users.
	ErrInvalidTransition = errors.New("appointments: invalid status transition")

	// ErrTooEarly means a consultation start was requested before the
	// appointment's scheduled time.
	ErrTooEarly = errors.New("appointments: scheduled time has not arrived")

	// ErrNotFound means no appointment exists with the given id.
	ErrNotFound = errors.New("appointments: appointment not found")
)
