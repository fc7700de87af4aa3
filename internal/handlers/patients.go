package handlers

import (
	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/directory"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/utils"
)

// PatientHandler handles patient directory requests.
type PatientHandler struct {
	Directory directory.Service
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(dir directory.Service) *PatientHandler {
	return &PatientHandler{Directory: dir}
}

// patientSummary is the read-only medical context shown to the doctor
// during a consultation.
type patientSummary struct {
	*models.Patient
	Allergies         []string `json:"allergies"`
	ChronicConditions []string `json:"chronicConditions"`
	Medications       []string `json:"medications"`
}

// GetPatientByID handles fetching one patient with the medical summary
// fields split into lists.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patient, err := h.Directory.GetPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	utils.Success(c, "Patient fetched successfully", patientSummary{
		Patient:           patient,
		Allergies:         patient.AllergyList(),
		ChronicConditions: patient.ConditionList(),
		Medications:       patient.MedicationList(),
	})
}
