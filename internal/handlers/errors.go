package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/appointments"
	"clinic-scheduling-server/internal/booking"
	"clinic-scheduling-server/internal/consultation"
	"clinic-scheduling-server/internal/directory"
	"clinic-scheduling-server/internal/utils"
)

// respondDomainError maps core errors onto HTTP responses. Recoverable
// outcomes get actionable messages; invalid transitions surface as
// conflicts since they indicate a caller defect, never a user mistake.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appointments.ErrNotFound):
		utils.NotFound(c, "Appointment not found")
	case errors.Is(err, directory.ErrNotFound):
		utils.NotFound(c, "No doctor or patient with that id")
	case errors.Is(err, consultation.ErrNoActiveSession):
		utils.NotFound(c, "No consultation session for this appointment")
	case errors.Is(err, appointments.ErrSlotNoLongerAvailable):
		utils.Conflict(c, "This slot was just taken, please choose another.")
	case errors.Is(err, appointments.ErrVersionConflict):
		utils.Conflict(c, "The appointment was modified by someone else, please refresh and retry.")
	case errors.Is(err, appointments.ErrTooEarly):
		utils.Conflict(c, "The appointment's scheduled time has not arrived yet.")
	case errors.Is(err, appointments.ErrInvalidTransition):
		utils.Conflict(c, "The requested status change is not allowed from the current status.")
	case errors.Is(err, consultation.ErrSessionClosed):
		utils.Conflict(c, "The consultation session is already closed.")
	case errors.Is(err, booking.ErrIncompleteSelection):
		utils.BadRequest(c, "Select a date, a time and a consultation mode before confirming.")
	case errors.Is(err, booking.ErrModeNotOffered):
		utils.BadRequest(c, "This doctor does not offer the requested consultation mode.")
	case errors.Is(err, booking.ErrDoctorUnavailable):
		utils.Conflict(c, "This doctor is not currently accepting bookings.")
	default:
		utils.InternalServerError(c, err.Error())
	}
}
