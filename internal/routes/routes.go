package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-scheduling-server/internal/appointments"
	"clinic-scheduling-server/internal/booking"
	"clinic-scheduling-server/internal/config"
	"clinic-scheduling-server/internal/consultation"
	"clinic-scheduling-server/internal/directory"
	"clinic-scheduling-server/internal/handlers"
	"clinic-scheduling-server/internal/notify"
	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/internal/suggest"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, sink notify.Sink) {
	// Core wiring
	dir := directory.NewGormDirectory(db)
	store := appointments.NewGormStore(db)
	service := appointments.NewService(store, sink)
	suggester := suggest.NewStatic()
	sessions := consultation.NewManager(service, suggester)

	template := scheduling.Template{
		SlotMinutes: cfg.Clinic.SlotMinutes,
		Bands: []scheduling.Band{
			{Open: cfg.Clinic.MorningOpen, Close: cfg.Clinic.MorningClose},
			{Open: cfg.Clinic.AfternoonOpen, Close: cfg.Clinic.AfternoonClose},
		},
	}
	policy := booking.Policy{AutoConfirm: cfg.Booking.AutoConfirm}

	// Initialize handlers
	doctorHandler := handlers.NewDoctorHandler(dir, store, template)
	patientHandler := handlers.NewPatientHandler(dir)
	appointmentHandler := handlers.NewAppointmentHandler(dir, service, sessions, template, policy)
	consultationHandler := handlers.NewConsultationHandler(sessions, dir, suggester)

	api := router.Group("/api/v1")
	{
		doctorRoutes := api.Group("/doctors")
		{
			doctorRoutes.GET("", doctorHandler.GetDoctors)
			doctorRoutes.GET("/:id", doctorHandler.GetDoctorByID)
			doctorRoutes.GET("/:id/slots", doctorHandler.GetDoctorSlots)
		}

		patientRoutes := api.Group("/patients")
		{
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)
		}

		appointmentRoutes := api.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.ListAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)

			// Consultation session, bound to one appointment
			sessionRoutes := appointmentRoutes.Group("/:id/consultation")
			{
				sessionRoutes.POST("/start", consultationHandler.StartConsultation)
				sessionRoutes.GET("", consultationHandler.GetSession)
				sessionRoutes.POST("/pause", consultationHandler.PauseConsultation)
				sessionRoutes.POST("/resume", consultationHandler.ResumeConsultation)
				sessionRoutes.PUT("/draft", consultationHandler.SaveDraft)
				sessionRoutes.POST("/complete", consultationHandler.CompleteConsultation)
				sessionRoutes.POST("/abandon", consultationHandler.AbandonConsultation)
			}
		}

		consultationRoutes := api.Group("/consultation")
		{
			consultationRoutes.POST("/suggestions", consultationHandler.GetSuggestions)
			consultationRoutes.GET("/prescription-template/:patientId", consultationHandler.GetPrescriptionTemplate)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
