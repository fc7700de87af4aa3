package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "pending"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
)

// ConsultationMode represents how a consultation is held.
type ConsultationMode string

const (
	ModePhysical ConsultationMode = "physical"
	ModeVideo    ConsultationMode = "video"
)

// transitions is the appointment status state machine. Completion is
// only reachable through confirmed and in_progress; cancellation is
// reachable from any non-terminal status.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// Terminal reports whether no further transitions are possible.
func (s AppointmentStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether moving to next is a legal transition.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether the status is one of the known values.
func (s AppointmentStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Appointment represents a scheduled medical appointment. Status only
// changes through the lifecycle service; Version guards every update
// against stale snapshots.
type Appointment struct {
	BaseModel
	PatientID       string            `gorm:"size:36;index" json:"patientId"`
	DoctorID        string            `gorm:"size:36;index" json:"doctorId"`
	StartTime       time.Time         `gorm:"index" json:"startTime"`
	DurationMinutes int               `gorm:"default:30" json:"durationMinutes"`
	Mode            ConsultationMode  `gorm:"size:10" json:"mode"`
	Status          AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`
	Reason          string            `gorm:"size:255" json:"reason"`
	Notes           string            `gorm:"type:text" json:"notes"`
	Version         int               `gorm:"default:1" json:"version"`

	// Transition audit trail
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	// Relations
	Patient Patient             `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  Doctor              `gorm:"foreignKey:DoctorID" json:"-"`
	Record  *ConsultationRecord `gorm:"foreignKey:AppointmentID" json:"record,omitempty"`
}

// EndTime is the scheduled end of the appointment.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// IsUpcoming reports whether the appointment shows in the upcoming view:
// scheduled at or after now and not cancelled.
func (a *Appointment) IsUpcoming(now time.Time) bool {
	return !a.StartTime.Before(now) && a.Status != StatusCancelled
}

// IsPast reports whether the appointment shows in the past view:
// scheduled before now or already completed.
func (a *Appointment) IsPast(now time.Time) bool {
	return a.StartTime.Before(now) || a.Status == StatusCompleted
}

// IsTeleconsult reports whether the appointment is held over video.
func (a *Appointment) IsTeleconsult() bool {
	return a.Mode == ModeVideo
}
