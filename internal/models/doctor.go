package models

// ConsultationType describes which consultation modes a doctor offers.
type ConsultationType string

const (
	ConsultPhysical ConsultationType = "physical"
	ConsultVideo    ConsultationType = "video"
	ConsultBoth     ConsultationType = "both"
)

// Doctor represents a practitioner patients can book with.
type Doctor struct {
	BaseModel
	Name             string           `gorm:"size:100;not null" json:"name"`
	Specialty        string           `gorm:"size:100" json:"specialty"`
	Location         string           `gorm:"size:255" json:"location,omitempty"`
	Avatar           string           `gorm:"size:512" json:"avatar,omitempty"`
	Rating           float64          `json:"rating"`
	Available        bool             `gorm:"default:true" json:"available"`
	ConsultationType ConsultationType `gorm:"size:10;default:'physical'" json:"consultationType"`

	// Relations (not always preloaded)
	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"-"`
}

// Modes returns the concrete consultation modes the doctor offers,
// physical first for doctors offering both.
func (d *Doctor) Modes() []ConsultationMode {
	switch d.ConsultationType {
	case ConsultBoth:
		return []ConsultationMode{ModePhysical, ModeVideo}
	case ConsultVideo:
		return []ConsultationMode{ModeVideo}
	default:
		return []ConsultationMode{ModePhysical}
	}
}

// SupportsMode reports whether the doctor offers the given mode.
func (d *Doctor) SupportsMode(mode ConsultationMode) bool {
	for _, m := range d.Modes() {
		if m == mode {
			return true
		}
	}
	return false
}

// SingleMode returns the doctor's only mode when exactly one is offered.
// Callers use this to assign the mode without prompting for a choice.
func (d *Doctor) SingleMode() (ConsultationMode, bool) {
	modes := d.Modes()
	if len(modes) == 1 {
		return modes[0], true
	}
	return "", false
}
