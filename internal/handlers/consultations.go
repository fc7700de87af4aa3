package handlers

import (
	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/consultation"
	"clinic-scheduling-server/internal/directory"
	"clinic-scheduling-server/internal/suggest"
	"clinic-scheduling-server/internal/utils"
)

// ConsultationHandler handles the consultation session endpoints used
// by the doctor during a visit.
type ConsultationHandler struct {
	Sessions  *consultation.Manager
	Directory directory.Service
	Suggester suggest.Service
}

// NewConsultationHandler creates a new ConsultationHandler.
func NewConsultationHandler(sessions *consultation.Manager, dir directory.Service, suggester suggest.Service) *ConsultationHandler {
	return &ConsultationHandler{Sessions: sessions, Directory: dir, Suggester: suggester}
}

// sessionView is the session payload returned to the doctor's screen.
type sessionView struct {
	AppointmentID  string             `json:"appointmentId"`
	State          consultation.State `json:"state"`
	ElapsedSeconds int                `json:"elapsedSeconds"`
	Elapsed        string             `json:"elapsed"` // MM:SS
	Draft          consultation.Draft `json:"draft"`
	Suggestions    []string           `json:"suggestions,omitempty"`
}

func viewOf(s *consultation.Session) sessionView {
	elapsed := s.Elapsed()
	return sessionView{
		AppointmentID:  s.AppointmentID(),
		State:          s.State(),
		ElapsedSeconds: int(elapsed.Seconds()),
		Elapsed:        consultation.FormatElapsed(elapsed),
		Draft:          s.Draft(),
		Suggestions:    s.Suggestions(),
	}
}

// StartConsultation handles starting or resuming the consultation for
// an appointment; the appointment moves to in_progress if needed.
func (h *ConsultationHandler) StartConsultation(c *gin.Context) {
	session, err := h.Sessions.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.Success(c, "Consultation started", viewOf(session))
}

// GetSession handles fetching the live session state.
func (h *ConsultationHandler) GetSession(c *gin.Context) {
	session, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		respondDomainError(c, consultation.ErrNoActiveSession)
		return
	}
	utils.Success(c, "Consultation session fetched", viewOf(session))
}

// PauseConsultation handles pausing the timer.
func (h *ConsultationHandler) PauseConsultation(c *gin.Context) {
	session, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		respondDomainError(c, consultation.ErrNoActiveSession)
		return
	}
	if err := session.Pause(); err != nil {
		respondDomainError(c, err)
		return
	}
	utils.Success(c, "Consultation paused", viewOf(session))
}

// ResumeConsultation handles resuming the timer.
func (h *ConsultationHandler) ResumeConsultation(c *gin.Context) {
	session, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		respondDomainError(c, consultation.ErrNoActiveSession)
		return
	}
	if err := session.Resume(); err != nil {
		respondDomainError(c, err)
		return
	}
	utils.Success(c, "Consultation resumed", viewOf(session))
}

// SaveDraftRequest carries the clinical fields of the draft record.
type SaveDraftRequest struct {
	Symptoms     string `json:"symptoms"`
	Examination  string `json:"examination"`
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription"`
	PrivateNotes string `json:"privateNotes"`
	FollowUp     string `json:"followUp"`
}

// SaveDraft handles persisting the in-progress clinical notes. Safe to
// call any number of times; changed symptom text refreshes the
// advisory suggestions returned in the response.
func (h *ConsultationHandler) SaveDraft(c *gin.Context) {
	var req SaveDraftRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	session, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		respondDomainError(c, consultation.ErrNoActiveSession)
		return
	}

	_, err := session.SaveDraft(consultation.Draft{
		Symptoms:     req.Symptoms,
		Examination:  req.Examination,
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
		PrivateNotes: req.PrivateNotes,
		FollowUp:     req.FollowUp,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.Success(c, "Draft saved", viewOf(session))
}

// CompleteConsultation handles finishing the consultation: the record
// is finalized and the appointment completed atomically. A record
// missing symptoms or diagnosis still completes, flagged in the
// response.
func (h *ConsultationHandler) CompleteConsultation(c *gin.Context) {
	result, err := h.Sessions.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	message := "Consultation completed"
	if result.Incomplete {
		message = "Consultation completed with an incomplete record"
	}
	utils.Success(c, message, gin.H{
		"appointment": result.Appointment,
		"record":      result.Record,
		"incomplete":  result.Incomplete,
	})
}

// AbandonConsultation handles closing the session without completing.
// The appointment stays in_progress and the session can be resumed.
func (h *ConsultationHandler) AbandonConsultation(c *gin.Context) {
	if err := h.Sessions.Abandon(c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	utils.Success(c, "Consultation abandoned", nil)
}

// SuggestionsRequest carries free-text symptoms for the advisory hook.
type SuggestionsRequest struct {
	Symptoms string `json:"symptoms" binding:"required"`
}

// GetSuggestions handles the stand-alone advisory suggestion endpoint.
func (h *ConsultationHandler) GetSuggestions(c *gin.Context) {
	var req SuggestionsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	utils.Success(c, "Suggestions fetched", h.Suggester.Suggest(req.Symptoms))
}

// GetPrescriptionTemplate handles pre-filling a prescription from the
// patient's current medications.
func (h *ConsultationHandler) GetPrescriptionTemplate(c *gin.Context) {
	patient, err := h.Directory.GetPatient(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.Success(c, "Prescription template generated", gin.H{
		"prescription": consultation.PrescriptionTemplate(patient),
	})
}
