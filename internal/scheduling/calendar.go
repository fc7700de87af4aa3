package scheduling

import (
	"fmt"
	"time"

	"clinic-scheduling-server/internal/models"
)

// Band is a contiguous stretch of bookable clock time, e.g. a morning
// of 09:00–12:00. Open is inclusive, Close exclusive.
type Band struct {
	Open  string // "15:04"
	Close string // "15:04"
}

// Template is the fixed daily slot grid offered by the clinic:
// SlotMinutes increments inside each band, with the midday gap falling
// between bands.
type Template struct {
	SlotMinutes int
	Bands       []Band
}

// DefaultTemplate matches the clinic's standard day: 30-minute slots,
// 09:00–12:00 and 14:00–17:00.
func DefaultTemplate() Template {
	return Template{
		SlotMinutes: 30,
		Bands: []Band{
			{Open: "09:00", Close: "12:00"},
			{Open: "14:00", Close: "17:00"},
		},
	}
}

// Times returns the template's clock times in ascending order.
func (t Template) Times() ([]string, error) {
	if t.SlotMinutes <= 0 {
		return nil, fmt.Errorf("scheduling: slot length must be positive, got %d", t.SlotMinutes)
	}
	step := time.Duration(t.SlotMinutes) * time.Minute
	var times []string
	for _, band := range t.Bands {
		open, err := time.Parse("15:04", band.Open)
		if err != nil {
			return nil, fmt.Errorf("scheduling: bad band open %q: %w", band.Open, err)
		}
		closeAt, err := time.Parse("15:04", band.Close)
		if err != nil {
			return nil, fmt.Errorf("scheduling: bad band close %q: %w", band.Close, err)
		}
		for at := open; at.Before(closeAt); at = at.Add(step) {
			times = append(times, at.Format("15:04"))
		}
	}
	return times, nil
}

// Slot is one bookable (date, time-of-day) pair offered to a patient.
type Slot struct {
	Date     time.Time                 `json:"date"`
	Time     string                    `json:"time"` // "15:04"
	Start    time.Time                 `json:"start"`
	Duration time.Duration             `json:"-"`
	Minutes  int                       `json:"durationMinutes"`
	Modes    []models.ConsultationMode `json:"modes"`
}

// AvailableSlots computes the ordered bookable slots for a doctor on a
// date. A slot is excluded when its start is strictly before now or
// when it coincides with a non-cancelled appointment for that doctor.
// Pure: no side effects, deterministic ascending order.
func AvailableSlots(tmpl Template, doctor *models.Doctor, date time.Time, booked []models.Appointment, now time.Time) ([]Slot, error) {
	times, err := tmpl.Times()
	if err != nil {
		return nil, err
	}

	taken := make(map[time.Time]bool, len(booked))
	for _, appt := range booked {
		if appt.Status == models.StatusCancelled {
			continue
		}
		taken[appt.StartTime.Truncate(time.Minute)] = true
	}

	modes := doctor.Modes()
	duration := time.Duration(tmpl.SlotMinutes) * time.Minute

	slots := make([]Slot, 0, len(times))
	for _, clock := range times {
		start, err := SlotStart(date, clock)
		if err != nil {
			return nil, err
		}
		if start.Before(now) {
			continue
		}
		if taken[start.Truncate(time.Minute)] {
			continue
		}
		slots = append(slots, Slot{
			Date:     time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location()),
			Time:     clock,
			Start:    start,
			Duration: duration,
			Minutes:  tmpl.SlotMinutes,
			Modes:    modes,
		})
	}
	return slots, nil
}

// SlotStart combines a date and a "15:04" clock time into a concrete
// instant in the date's location.
func SlotStart(date time.Time, clock string) (time.Time, error) {
	at, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduling: bad slot time %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), at.Hour(), at.Minute(), 0, 0, date.Location()), nil
}
