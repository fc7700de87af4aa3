package models

import (
	"time"

	"gorm.io/gorm"
)

// SeedDemoData inserts a handful of doctors and a patient for
// development runs. No-op when doctors already exist.
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Doctor{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	doctors := []Doctor{
		{
			Name:             "Dr. Marie Dubois",
			Specialty:        "Cardiologie",
			Location:         "Paris 8ème",
			Rating:           4.8,
			Available:        true,
			ConsultationType: ConsultBoth,
		},
		{
			Name:             "Dr. Pierre Martin",
			Specialty:        "Dermatologie",
			Location:         "Paris 16ème",
			Rating:           4.9,
			Available:        true,
			ConsultationType: ConsultPhysical,
		},
		{
			Name:             "Dr. Sophie Laurent",
			Specialty:        "Gynécologie",
			Location:         "Paris 16ème",
			Rating:           4.7,
			Available:        true,
			ConsultationType: ConsultVideo,
		},
	}
	if err := db.Create(&doctors).Error; err != nil {
		return err
	}

	lastVisit := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	patient := Patient{
		Name:              "Marie Dupont",
		PhoneNumber:       "06 12 34 56 78",
		BloodType:         "A+",
		Allergies:         "Pénicilline",
		ChronicConditions: "Hypertension, Cholestérol élevé",
		Medications:       "Amlodipine 5mg, Atorvastatine 20mg",
		LastVisit:         &lastVisit,
	}
	return db.Create(&patient).Error
}
