package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/notify"
	"clinic-scheduling-server/pkg/logging"
)

// Scheduler runs the recurring background jobs.
type Scheduler struct {
	cron   *cron.Cron
	db     *gorm.DB
	sink   notify.Sink
	logger *logging.Logger
}

// NewScheduler wires the daily jobs onto a cron runner.
func NewScheduler(db *gorm.DB, sink notify.Sink, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Scheduler{
		cron:   cron.New(),
		db:     db,
		sink:   sink,
		logger: logger,
	}

	// Every day at 07:00: remind patients of tomorrow's confirmed
	// appointments.
	s.cron.AddFunc("0 7 * * *", func() {
		if err := s.SendReminders(context.Background(), time.Now()); err != nil {
			s.logger.Error("reminder job failed", "error", err)
		}
	})

	return s
}

// Start begins the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// SendReminders emits a reminder event for every confirmed appointment
// scheduled on the day after now.
func (s *Scheduler) SendReminders(ctx context.Context, now time.Time) error {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var appts []models.Appointment
	err := s.db.WithContext(ctx).
		Where("status = ? AND start_time >= ? AND start_time < ?", models.StatusConfirmed, dayStart, dayEnd).
		Order("start_time asc").
		Find(&appts).Error
	if err != nil {
		return err
	}

	for _, appt := range appts {
		s.sink.Publish(notify.Event{
			Type:          notify.EventAppointmentReminder,
			AppointmentID: appt.ID,
			DoctorID:      appt.DoctorID,
			PatientID:     appt.PatientID,
			At:            now,
		})
	}
	s.logger.Info("reminders sent", "count", len(appts), "for", dayStart.Format("2006-01-02"))
	return nil
}
