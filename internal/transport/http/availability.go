package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/service/scheduling"
)

// CreateAvailabilityRequest declares a recurring or one-off availability
// window. Exactly one of weekday and specificDate must be set.
type CreateAvailabilityRequest struct {
	DoctorID            string `json:"doctorId" binding:"required,uuid"`
	Weekday             string `json:"weekday"`
	SpecificDate        string `json:"specificDate"`
	StartTime           string `json:"startTime" binding:"required"`
	EndTime             string `json:"endTime" binding:"required"`
	SlotDurationMinutes int    `json:"slotDurationMinutes"`
	Available           *bool  `json:"available"`
	Notes               string `json:"notes"`
}

func (h *Handler) CreateAvailability(c *gin.Context) {
	log := h.log.With(slog.String("handler", "CreateAvailability"))

	var req CreateAvailabilityRequest
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
	recurrence, ok := parseRecurrence(c, req.Weekday, req.SpecificDate)
	if !ok {
		return
	}
	start, ok := parseTimeOfDay(c, "startTime", req.StartTime)
	if !ok {
		return
	}
	end, ok := parseTimeOfDay(c, "endTime", req.EndTime)
	if !ok {
		return
	}

	w, err := h.svc.CreateAvailability(c.Request.Context(), scheduling.CreateAvailabilityInput{
		DoctorID:            doctorID,
		Recurrence:          recurrence,
		StartTime:           start,
		EndTime:             end,
		SlotDurationMinutes: req.SlotDurationMinutes,
		Available:           req.Available,
		Notes:               req.Notes,
	})
	if err != nil {
		writeError(c, log, err)
		return
	}

	log.Info(
		"availability created",
		slog.String("availability_id", w.ID.String()),
		slog.String("doctor_id", w.DoctorID.String()),
		slog.String("start_time", w.StartTime.String()),
		slog.String("end_time", w.EndTime.String()),
	)
	created(c, "availability created successfully", toAvailabilityResponse(w))
}

// UpdateAvailabilityRequest carries the mutable window fields; absent
// fields are left untouched. Setting weekday or specificDate moves the
// window to that basis.
type UpdateAvailabilityRequest struct {
	Weekday             string  `json:"weekday"`
	SpecificDate        string  `json:"specificDate"`
	StartTime           *string `json:"startTime"`
	EndTime             *string `json:"endTime"`
	SlotDurationMinutes *int    `json:"slotDurationMinutes"`
	Available           *bool   `json:"available"`
	Notes               *string `json:"notes"`
}

func (h *Handler) UpdateAvailability(c *gin.Context) {
	log := h.log.With(slog.String("handler", "UpdateAvailability"))

	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	var in scheduling.UpdateAvailabilityInput
	if req.Weekday != "" || req.SpecificDate != "" {
		recurrence, ok := parseRecurrence(c, req.Weekday, req.SpecificDate)
		if !ok {
			return
		}
		in.Recurrence = &recurrence
	}
	if req.StartTime != nil {
		start, ok := parseTimeOfDay(c, "startTime", *req.StartTime)
		if !ok {
			return
		}
		in.StartTime = &start
	}
	if req.EndTime != nil {
		end, ok := parseTimeOfDay(c, "endTime", *req.EndTime)
		if !ok {
			return
		}
		in.EndTime = &end
	}
	in.SlotDurationMinutes = req.SlotDurationMinutes
	in.Available = req.Available
	in.Notes = req.Notes

	w, err := h.svc.UpdateAvailability(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, log, err)
		return
	}

	log.Info("availability updated", slog.String("availability_id", w.ID.String()))
	success(c, "availability updated successfully", toAvailabilityResponse(w))
}

func (h *Handler) DeleteAvailability(c *gin.Context) {
	log := h.log.With(slog.String("handler", "DeleteAvailability"))

	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAvailability(c.Request.Context(), id); err != nil {
		writeError(c, log, err)
		return
	}

	log.Info("availability deleted", slog.String("availability_id", id.String()))
	success(c, "availability deleted successfully", nil)
}

// AvailabilityForDoctor lists a doctor's windows; with a date query
// parameter it narrows to the windows effective on that date.
func (h *Handler) AvailabilityForDoctor(c *gin.Context) {
	log := h.log.With(slog.String("handler", "AvailabilityForDoctor"))

	doctorID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var (
		windows []domain.AvailabilityWindow
		err     error
	)
	if raw := c.Query("date"); raw != "" {
		date, parseErr := time.ParseInLocation(dateLayout, raw, time.UTC)
		if parseErr != nil {
			badRequest(c, "date must be formatted as YYYY-MM-DD")
			return
		}
		windows, err = h.svc.AvailabilityForDoctorOnDate(c.Request.Context(), doctorID, date)
	} else {
		windows, err = h.svc.AvailabilityForDoctor(c.Request.Context(), doctorID)
	}
	if err != nil {
		writeError(c, log, err)
		return
	}

	log.Debug("availability listed", slog.String("doctor_id", doctorID.String()), slog.Int("count", len(windows)))
	success(c, "availability fetched successfully", toAvailabilityResponses(windows))
}

// AvailableSlots returns the open slot grid for a doctor on a date.
func (h *Handler) AvailableSlots(c *gin.Context) {
	log := h.log.With(slog.String("handler", "AvailableSlots"))

	doctorID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	raw := c.Query("date")
	if raw == "" {
		badRequest(c, "date query parameter is required")
		return
	}
	date, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		badRequest(c, "date must be formatted as YYYY-MM-DD")
		return
	}

	slots, err := h.svc.AvailableSlots(c.Request.Context(), doctorID, date)
	if err != nil {
		writeError(c, log, err)
		return
	}

	log.Debug(
		"slots listed",
		slog.String("doctor_id", doctorID.String()),
		slog.String("date", raw),
		slog.Int("count", len(slots)),
	)
	success(c, "available slots fetched successfully", slots)
}

func parseRecurrence(c *gin.Context, weekday, specificDate string) (domain.Recurrence, bool) {
	switch {
	case weekday != "" && specificDate != "":
		badRequest(c, "weekday and specificDate are mutually exclusive")
		return domain.Recurrence{}, false
	case weekday != "":
		wd, err := parseWeekday(weekday)
		if err != nil {
			badRequest(c, err.Error())
			return domain.Recurrence{}, false
		}
		return domain.WeeklyOn(wd), true
	case specificDate != "":
		date, err := time.ParseInLocation(dateLayout, specificDate, time.UTC)
		if err != nil {
			badRequest(c, "specificDate must be formatted as YYYY-MM-DD")
			return domain.Recurrence{}, false
		}
		return domain.OnDate(date), true
	default:
		badRequest(c, "either weekday or specificDate is required")
		return domain.Recurrence{}, false
	}
}

func parseTimeOfDay(c *gin.Context, field, raw string) (domain.TimeOfDay, bool) {
	tod, err := domain.ParseTimeOfDay(raw)
	if err != nil {
		badRequest(c, field+" must be formatted as HH:MM")
		return 0, false
	}
	return tod, true
}
