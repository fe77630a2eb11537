// Package http exposes the scheduling service over a JSON REST API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/service/scheduling"
)

// schedulingService is the surface the handlers need from the scheduler.
type schedulingService interface {
	CreateAppointment(ctx context.Context, in scheduling.CreateAppointmentInput) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, appointmentID uuid.UUID, in scheduling.UpdateAppointmentInput) (domain.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error)
	DeleteAppointment(ctx context.Context, appointmentID uuid.UUID) error
	AppointmentByID(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error)
	AllAppointments(ctx context.Context) ([]domain.Appointment, error)
	AppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.Appointment, error)
	AppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]domain.Appointment, error)
	AppointmentsOnDate(ctx context.Context, date time.Time) ([]domain.Appointment, error)
	AppointmentsBetween(ctx context.Context, from, to time.Time) ([]domain.Appointment, error)

	AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]domain.TimeSlot, error)

	CreateAvailability(ctx context.Context, in scheduling.CreateAvailabilityInput) (domain.AvailabilityWindow, error)
	UpdateAvailability(ctx context.Context, windowID uuid.UUID, in scheduling.UpdateAvailabilityInput) (domain.AvailabilityWindow, error)
	DeleteAvailability(ctx context.Context, windowID uuid.UUID) error
	AvailabilityForDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.AvailabilityWindow, error)
	AvailabilityForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]domain.AvailabilityWindow, error)
}

// Handler holds the route handlers for the scheduling API.
type Handler struct {
	svc schedulingService
	log *slog.Logger
}

func NewHandler(svc schedulingService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc: svc,
		log: log.With(slog.String("component", "http.scheduling")),
	}
}

// NewRouter builds the gin engine with every scheduling route registered.
func NewRouter(svc schedulingService, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	h := NewHandler(svc, log)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		appointments := api.Group("/appointments")
		{
			appointments.POST("", h.CreateAppointment)
			appointments.GET("", h.ListAppointments)
			appointments.GET("/:id", h.GetAppointment)
			appointments.PUT("/:id", h.UpdateAppointment)
			appointments.DELETE("/:id", h.DeleteAppointment)
			appointments.PATCH("/:id/status", h.UpdateAppointmentStatus)
		}

		doctors := api.Group("/doctors")
		{
			doctors.GET("/:id/appointments", h.AppointmentsByDoctor)
			doctors.GET("/:id/slots", h.AvailableSlots)
			doctors.GET("/:id/availability", h.AvailabilityForDoctor)
		}

		api.GET("/patients/:id/appointments", h.AppointmentsByPatient)

		availability := api.Group("/availability")
		{
			availability.POST("", h.CreateAvailability)
			availability.PUT("/:id", h.UpdateAvailability)
			availability.DELETE("/:id", h.DeleteAvailability)
		}
	}

	return router
}
