package models

import (
	"strings"
	"time"
)

// Patient represents a patient and the read-only medical summary shown
// to the doctor during a consultation.
type Patient struct {
	BaseModel
	Name              string     `gorm:"size:100;not null" json:"name"`
	DateOfBirth       *time.Time `json:"dateOfBirth,omitempty"`
	Avatar            string     `gorm:"size:512" json:"avatar,omitempty"`
	PhoneNumber       string     `gorm:"size:30" json:"phoneNumber,omitempty"`
	BloodType         string     `gorm:"size:5" json:"bloodType,omitempty"`
	Allergies         string     `gorm:"size:512" json:"allergies,omitempty"`         // comma-separated
	ChronicConditions string     `gorm:"size:512" json:"chronicConditions,omitempty"` // comma-separated
	Medications       string     `gorm:"size:512" json:"medications,omitempty"`       // comma-separated
	LastVisit         *time.Time `json:"lastVisit,omitempty"`

	// Relations (not always preloaded)
	Appointments []Appointment `gorm:"foreignKey:PatientID" json:"-"`
}

// AllergyList splits the stored allergy string into individual entries.
func (p *Patient) AllergyList() []string {
	return splitCSV(p.Allergies)
}

// ConditionList splits the stored chronic conditions into entries.
func (p *Patient) ConditionList() []string {
	return splitCSV(p.ChronicConditions)
}

// MedicationList splits the stored current medications into entries.
func (p *Patient) MedicationList() []string {
	return splitCSV(p.Medications)
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
