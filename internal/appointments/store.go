package appointments

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-scheduling-server/internal/models"
)

// Projection selects a read-only view over the appointment set. These
// are predicates recomputed per query, not stored state.
type Projection string

const (
	ProjectionAll         Projection = "all"
	ProjectionUpcoming    Projection = "upcoming"
	ProjectionPast        Projection = "past"
	ProjectionCancelled   Projection = "cancelled"
	ProjectionTeleconsult Projection = "teleconsult"
)

// Valid reports whether the projection is a known view.
func (p Projection) Valid() bool {
	switch p {
	case ProjectionAll, ProjectionUpcoming, ProjectionPast, ProjectionCancelled, ProjectionTeleconsult:
		return true
	}
	return false
}

// Filter narrows an appointment listing.
type Filter struct {
	PatientID  string
	DoctorID   string
	Projection Projection
	Now        time.Time
}

// Store is the appointment persistence boundary. Create and
// UpdateStatus are atomic: Create performs the slot check and insert in
// one transaction, UpdateStatus applies the status change (and record
// attachment, when given) behind a version compare-and-swap.
type Store interface {
	Create(ctx context.Context, appt *models.Appointment) error
	Get(ctx context.Context, id string) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, id string, expectedVersion int, next models.AppointmentStatus, at time.Time, record *models.ConsultationRecord) (*models.Appointment, error)
	List(ctx context.Context, filter Filter) ([]models.Appointment, error)
	ListForDoctorDate(ctx context.Context, doctorID string, date time.Time) ([]models.Appointment, error)
}

// GormStore implements Store on the server's MySQL database.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore creates a gorm-backed appointment store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// Create inserts the appointment after re-checking, inside one
// transaction, that no non-cancelled appointment holds the same
// (doctor, start time). The losing side of a race gets
// ErrSlotNoLongerAvailable.
func (s *GormStore) Create(ctx context.Context, appt *models.Appointment) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Appointment{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("doctor_id = ? AND start_time = ? AND status <> ?", appt.DoctorID, appt.StartTime, models.StatusCancelled).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotNoLongerAvailable
		}
		return tx.Create(appt).Error
	})
}

// Get loads one appointment with its record, if any.
func (s *GormStore) Get(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.DB.WithContext(ctx).Preload("Record").First(&appt, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

// UpdateStatus applies a status change guarded by the expected version.
// The version check and update are one statement, so concurrent
// transitions on the same appointment cannot both win; the loser gets
// ErrVersionConflict. When a record is given it is inserted in the same
// transaction, so readers never observe a completed appointment without
// its record.
func (s *GormStore) UpdateStatus(ctx context.Context, id string, expectedVersion int, next models.AppointmentStatus, at time.Time, record *models.ConsultationRecord) (*models.Appointment, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":  next,
			"version": gorm.Expr("version + ?", 1),
		}
		switch next {
		case models.StatusConfirmed:
			updates["confirmed_at"] = at
		case models.StatusInProgress:
			updates["started_at"] = at
		case models.StatusCompleted:
			updates["completed_at"] = at
		case models.StatusCancelled:
			updates["cancelled_at"] = at
		}

		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Appointment{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrVersionConflict
		}

		if record != nil {
			record.AppointmentID = id
			if err := tx.Create(record).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// List returns appointments matching the filter, soonest first.
func (s *GormStore) List(ctx context.Context, filter Filter) ([]models.Appointment, error) {
	query := s.DB.WithContext(ctx).Model(&models.Appointment{}).Preload("Record").Order("start_time asc")

	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}

	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	switch filter.Projection {
	case ProjectionUpcoming:
		query = query.Where("start_time >= ? AND status <> ?", now, models.StatusCancelled)
	case ProjectionPast:
		query = query.Where("start_time < ? OR status = ?", now, models.StatusCompleted)
	case ProjectionCancelled:
		query = query.Where("status = ?", models.StatusCancelled)
	case ProjectionTeleconsult:
		query = query.Where("mode = ?", models.ModeVideo)
	}

	var appts []models.Appointment
	if err := query.Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

// ListForDoctorDate returns the doctor's non-cancelled appointments on
// the given calendar day. The slot calendar treats these as occupied.
func (s *GormStore) ListForDoctorDate(ctx context.Context, doctorID string, date time.Time) ([]models.Appointment, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var appts []models.Appointment
	err := s.DB.WithContext(ctx).
		Where("doctor_id = ? AND start_time >= ? AND start_time < ? AND status <> ?",
			doctorID, dayStart, dayEnd, models.StatusCancelled).
		Order("start_time asc").
		Find(&appts).Error
	if err != nil {
		return nil, err
	}
	return appts, nil
}
