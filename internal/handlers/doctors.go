package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/appointments"
	"clinic-scheduling-server/internal/directory"
	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/internal/utils"
)

// DoctorHandler handles doctor directory and availability requests.
type DoctorHandler struct {
	Directory directory.Service
	Store     appointments.Store
	Template  scheduling.Template
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(dir directory.Service, store appointments.Store, tmpl scheduling.Template) *DoctorHandler {
	return &DoctorHandler{Directory: dir, Store: store, Template: tmpl}
}

// GetDoctors handles listing doctors, optionally only those accepting
// bookings (?available=true) or of one specialty.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	filter := directory.DoctorFilter{
		OnlyAvailable: c.Query("available") == "true",
		Specialty:     c.Query("specialty"),
	}

	doctors, err := h.Directory.ListDoctors(c.Request.Context(), filter)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}
	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetDoctorByID handles fetching a single doctor.
func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	doctor, err := h.Directory.GetDoctor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.Success(c, "Doctor fetched successfully", doctor)
}

// doctorSlotsResponse is the availability payload for one doctor/date.
// ModeChoice tells the caller whether to offer a mode selector at all;
// single-mode doctors get their mode assigned without prompting.
type doctorSlotsResponse struct {
	DoctorID   string            `json:"doctorId"`
	Date       string            `json:"date"`
	ModeChoice bool              `json:"modeChoice"`
	Slots      []scheduling.Slot `json:"slots"`
}

// GetDoctorSlots handles computing the bookable slots for a doctor on a
// date (?date=YYYY-MM-DD).
func (h *DoctorHandler) GetDoctorSlots(c *gin.Context) {
	doctor, err := h.Directory.GetDoctor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	dateStr := c.Query("date")
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		utils.BadRequest(c, "Invalid or missing date, expected YYYY-MM-DD")
		return
	}

	booked, err := h.Store.ListForDoctorDate(c.Request.Context(), doctor.ID, date)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch existing appointments: "+err.Error())
		return
	}

	slots, err := scheduling.AvailableSlots(h.Template, doctor, date, booked, time.Now())
	if err != nil {
		utils.InternalServerError(c, "Failed to compute slots: "+err.Error())
		return
	}

	utils.Success(c, "Available slots fetched successfully", doctorSlotsResponse{
		DoctorID:   doctor.ID,
		Date:       dateStr,
		ModeChoice: len(doctor.Modes()) > 1,
		Slots:      slots,
	})
}
