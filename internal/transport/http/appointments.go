package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/service/scheduling"
)

// CreateAppointmentRequest is the request body for booking an appointment.
type CreateAppointmentRequest struct {
	DoctorID        string    `json:"doctorId" binding:"required,uuid"`
	PatientID       string    `json:"patientId" binding:"required,uuid"`
	StartTime       time.Time `json:"startTime" binding:"required"`
	DurationMinutes int       `json:"durationMinutes"`
	Reason          string    `json:"reason" binding:"required"`
	Notes           string    `json:"notes"`
	Status          string    `json:"status"`
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	log := h.log.With(slog.String("handler", "CreateAppointment"))

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		badRequest(c, "doctorId must be a UUID")
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		badRequest(c, "patientId must be a UUID")
		return
	}

	appt, err := h.svc.CreateAppointment(c.Request.Context(), scheduling.CreateAppointmentInput{
		DoctorID:  doctorID,
		PatientID: patientID,
		StartTime: req.StartTime,
		Duration:  time.Duration(req.DurationMinutes) * time.Minute,
		Reason:    req.Reason,
		Notes:     req.Notes,
		Status:    domain.AppointmentStatus(req.Status),
	})
	if err != nil {
		writeError(c, log, err)
		return
	}

	log.Info(
		"appointment created",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("doctor_id", appt.DoctorID.String()),
		slog.Time("start_time", appt.StartTime),
		slog.Time("end_time", appt.EndTime),
	)
	created(c, "appointment created successfully", toAppointmentResponse(appt))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	log := h.log.With(slog.String("handler", "GetAppointment"))

	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	appt, err := h.svc.AppointmentByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, log, err)
		return
	}
	success(c, "appointment fetched successfully", toAppointmentResponse(appt))
}

// ListAppointments answers the collection endpoint. A date query parameter
// narrows to appointments starting on that day; from/to narrow to a
// half-open instant range.
func (h *Handler) ListAppointments(c *gin.Context) {
	log := h.log.With(slog.String("handler", "ListAppointments"))

	var (
		appts []domain.Appointment
		err   error
	)
	switch {
	case c.Query("date") != "":
		date, parseErr := time.ParseInLocation(dateLayout, c.Query("date"), time.UTC)
		if parseErr != nil {
			badRequest(c, "date must be formatted as YYYY-MM-DD")
			return
		}
		appts, err = h.svc.AppointmentsOnDate(c.Request.Context(), date)
	case c.Query("from") != "" || c.Query("to") != "":
		from, parseErr := time.Parse(time.RFC3339, c.Query("from"))
		if parseErr != nil {
			badRequest(c, "from must be an RFC 3339 timestamp")
			return
		}
		to, parseErr := time.Parse(time.RFC3339, c.Query("to"))
		if parseErr != nil {
			badRequest(c, "to must be an RFC 3339 timestamp")
			return
		}
		appts, err = h.svc.AppointmentsBetween(c.Request.Context(), from, to)
	default:
		appts, err = h.svc.AllAppointments(c.Request.Context())
	}
	if err != nil {
		writeError(c, log, err)
		return
	}
	log.Debug("appointments listed", slog.Int("count", len(appts)))
	success(c, "appointments fetched successfully", toAppointmentResponses(appts))
}

func (h *Handler) AppointmentsByDoctor(c *gin.Context) {
	log := h.log.With(slog.String("handler", "AppointmentsByDoctor"))

	doctorID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	appts, err := h.svc.AppointmentsByDoctor(c.Request.Context(), doctorID)
	if err != nil {
		writeError(c, log, err)
		return
	}
	log.Debug("appointments listed", slog.String("doctor_id", doctorID.String()), slog.Int("count", len(appts)))
	success(c, "appointments fetched successfully", toAppointmentResponses(appts))
}

func (h *Handler) AppointmentsByPatient(c *gin.Context) {
	log := h.log.With(slog.String("handler", "AppointmentsByPatient"))

	patientID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	appts, err := h.svc.AppointmentsByPatient(c.Request.Context(), patientID)
	if err != nil {
		writeError(c, log, err)
		return
	}
	log.Debug("appointments listed", slog.String("patient_id", patientID.String()), slog.Int("count", len(appts)))
	success(c, "appointments fetched successfully", toAppointmentResponses(appts))
}

// UpdateAppointmentRequest carries the mutable appointment fields; absent
// fields are left untouched.
type UpdateAppointmentRequest struct {
	StartTime       *time.Time `json:"startTime"`
	DurationMinutes *int       `json:"durationMinutes"`
	Reason          *string    `json:"reason"`
	Notes           *string    `json:"notes"`
	Status          *string    `json:"status"`
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	log := h.log.With(slog.String("handler", "UpdateAppointment"))

	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	in := scheduling.UpdateAppointmentInput{
		StartTime: req.StartTime,
		Reason:    req.Reason,
		Notes:     req.Notes,
	}
	if req.DurationMinutes != nil {
		d := time.Duration(*req.DurationMinutes) * time.Minute
		in.Duration = &d
	}
	if req.Status != nil {
		s := domain.AppointmentStatus(*req.Status)
		in.Status = &s
	}

	appt, err := h.svc.UpdateAppointment(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, log, err)
		return
	}

	log.Info("appointment updated", slog.String("appointment_id", appt.ID.String()))
	success(c, "appointment updated successfully", toAppointmentResponse(appt))
}

// UpdateAppointmentStatusRequest is the body of the status transition
// endpoint.
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	log := h.log.With(slog.String("handler", "UpdateAppointmentStatus"))

	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	appt, err := h.svc.UpdateAppointmentStatus(c.Request.Context(), id, domain.AppointmentStatus(req.Status))
	if err != nil {
		writeError(c, log, err)
		return
	}

	log.Info(
		"appointment status updated",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("status", string(appt.Status)),
	)
	success(c, "appointment status updated successfully", toAppointmentResponse(appt))
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	log := h.log.With(slog.String("handler", "DeleteAppointment"))

	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAppointment(c.Request.Context(), id); err != nil {
		writeError(c, log, err)
		return
	}

	log.Info("appointment deleted", slog.String("appointment_id", id.String()))
	success(c, "appointment deleted successfully", nil)
}

func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		badRequest(c, param+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
