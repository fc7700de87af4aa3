package models

// ConsultationRecord is the clinical record produced when a consultation
// session completes. Create-only: it is written once, in the same
// transaction that moves the appointment to completed.
type ConsultationRecord struct {
	BaseModel
	AppointmentID   string `gorm:"size:36;uniqueIndex" json:"appointmentId"`
	DurationSeconds int    `json:"durationSeconds"`
	Symptoms        string `gorm:"type:text" json:"symptoms"`
	Examination     string `gorm:"type:text" json:"examination"`
	Diagnosis       string `gorm:"type:text" json:"diagnosis"`
	Prescription    string `gorm:"type:text" json:"prescription"`
	PrivateNotes    string `gorm:"type:text" json:"-"` // never shared with the patient
	FollowUp        string `gorm:"type:text" json:"followUp"`
}
