package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/appointments"
	"clinic-scheduling-server/internal/booking"
	"clinic-scheduling-server/internal/consultation"
	"clinic-scheduling-server/internal/directory"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/internal/utils"
)

// AppointmentHandler handles appointment booking and lifecycle requests.
type AppointmentHandler struct {
	Directory directory.Service
	Service   *appointments.Service
	Sessions  *consultation.Manager
	Template  scheduling.Template
	Policy    booking.Policy
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(dir directory.Service, svc *appointments.Service, sessions *consultation.Manager, tmpl scheduling.Template, policy booking.Policy) *AppointmentHandler {
	return &AppointmentHandler{
		Directory: dir,
		Service:   svc,
		Sessions:  sessions,
		Template:  tmpl,
		Policy:    policy,
	}
}

// CreateAppointmentRequest represents the request body for booking an
// appointment in one shot: the three workflow steps collapsed into a
// single call from the client.
type CreateAppointmentRequest struct {
	DoctorID  string `json:"doctorId" binding:"required,uuid"`
	PatientID string `json:"patientId" binding:"required,uuid"`
	Date      string `json:"date" binding:"required"` // YYYY-MM-DD
	Time      string `json:"time" binding:"required"` // HH:MM
	Mode      string `json:"mode" binding:"omitempty,oneof=physical video"`
	Reason    string `json:"reason" binding:"required"`
	Notes     string `json:"notes"`
}

// CreateAppointment handles booking a new appointment. It drives the
// booking workflow: doctor selection, slot selection against the live
// calendar, then confirmation against the store. Losing the slot race
// returns 409 and the client re-queries availability.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	doctor, err := h.Directory.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	patient, err := h.Directory.GetPatient(ctx, req.PatientID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	booked, err := h.Service.Store().ListForDoctorDate(ctx, doctor.ID, date)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch existing appointments: "+err.Error())
		return
	}
	slots, err := scheduling.AvailableSlots(h.Template, doctor, date, booked, time.Now())
	if err != nil {
		utils.InternalServerError(c, "Failed to compute slots: "+err.Error())
		return
	}

	slot, ok := findSlot(slots, req.Time)
	if !ok {
		// Either never a bookable time, or just taken. The client
		// re-queries the calendar in both cases.
		utils.Conflict(c, "This slot is not available, please choose another.")
		return
	}

	workflow := booking.New(patient.ID, h.Policy)
	if err := workflow.SelectDoctor(doctor); err != nil {
		respondDomainError(c, err)
		return
	}
	if err := workflow.SelectSlot(slot); err != nil {
		respondDomainError(c, err)
		return
	}
	if req.Mode != "" {
		if err := workflow.SelectMode(models.ConsultationMode(req.Mode)); err != nil {
			respondDomainError(c, err)
			return
		}
	}
	workflow.SetReason(req.Reason, req.Notes)

	if err := workflow.ConfirmSlot(); err != nil {
		respondDomainError(c, err)
		return
	}
	appt, err := workflow.Confirm(ctx, h.Service)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	utils.Created(c, "Appointment booked successfully", appt)
}

func findSlot(slots []scheduling.Slot, clock string) (scheduling.Slot, bool) {
	for _, s := range slots {
		if s.Time == clock {
			return s, true
		}
	}
	return scheduling.Slot{}, false
}

// ListAppointments handles fetching appointments under a projection
// (?filter=upcoming|past|cancelled|teleconsult) for a patient or
// doctor.
func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	projection := appointments.Projection(c.DefaultQuery("filter", string(appointments.ProjectionAll)))
	if !projection.Valid() {
		utils.BadRequest(c, "Unknown filter, expected one of: all, upcoming, past, cancelled, teleconsult")
		return
	}

	appts, err := h.Service.List(c.Request.Context(), appointments.Filter{
		PatientID:  c.Query("patientId"),
		DoctorID:   c.Query("doctorId"),
		Projection: projection,
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}
	utils.Success(c, "Appointments fetched successfully", appts)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appt, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.Success(c, "Appointment fetched successfully", appt)
}

// UpdateAppointmentStatusRequest represents the request body for a
// lifecycle transition. ExpectedVersion must match the version of the
// snapshot the caller acted on; a mismatch means someone got there
// first.
type UpdateAppointmentStatusRequest struct {
	Status          models.AppointmentStatus `json:"status" binding:"required,oneof=confirmed cancelled"`
	ExpectedVersion int                      `json:"expectedVersion" binding:"required,min=1"`
}

// UpdateAppointmentStatus handles explicit confirmation and
// cancellation. In-progress and completed are never set directly; they
// are driven by the consultation session endpoints.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	id := c.Param("id")
	ctx := c.Request.Context()

	var (
		appt *models.Appointment
		err  error
	)
	switch req.Status {
	case models.StatusConfirmed:
		appt, err = h.Service.Confirm(ctx, id, req.ExpectedVersion)
	case models.StatusCancelled:
		appt, err = h.Service.Cancel(ctx, id, req.ExpectedVersion)
		if err == nil {
			// An active consultation session on a cancelled
			// appointment is forced into abandon.
			h.Sessions.HandleCancelled(id)
		}
	}
	if err != nil {
		respondDomainError(c, err)
		return
	}

	utils.Success(c, "Appointment status updated successfully", appt)
}
