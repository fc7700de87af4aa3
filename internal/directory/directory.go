package directory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"clinic-scheduling-server/internal/models"
)

// ErrNotFound means no doctor or patient exists with the given id.
var ErrNotFound = errors.New("directory: not found")

// DoctorFilter narrows a doctor listing.
type DoctorFilter struct {
	OnlyAvailable bool
	Specialty     string
}

// Service is the doctor/patient directory boundary the scheduling core
// resolves its id references through.
type Service interface {
	GetDoctor(ctx context.Context, id string) (*models.Doctor, error)
	GetPatient(ctx context.Context, id string) (*models.Patient, error)
	ListDoctors(ctx context.Context, filter DoctorFilter) ([]models.Doctor, error)
}

// GormDirectory implements Service on the server's database.
type GormDirectory struct {
	DB *gorm.DB
}

// NewGormDirectory creates a gorm-backed directory.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{DB: db}
}

// GetDoctor loads one doctor by id.
func (d *GormDirectory) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := d.DB.WithContext(ctx).First(&doctor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doctor, nil
}

// GetPatient loads one patient by id.
func (d *GormDirectory) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	if err := d.DB.WithContext(ctx).First(&patient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &patient, nil
}

// ListDoctors returns doctors matching the filter, sorted by name.
func (d *GormDirectory) ListDoctors(ctx context.Context, filter DoctorFilter) ([]models.Doctor, error) {
	query := d.DB.WithContext(ctx).Model(&models.Doctor{}).Order("name asc")
	if filter.OnlyAvailable {
		query = query.Where("available = ?", true)
	}
	if filter.Specialty != "" {
		query = query.Where("specialty = ?", filter.Specialty)
	}

	var doctors []models.Doctor
	if err := query.Find(&doctors).Error; err != nil {
		return nil, err
	}
	return doctors, nil
}
