package http

import (
	"fmt"
	"strings"
	"time"

	"clinicbook/backend/internal/domain"
)

const dateLayout = "2006-01-02"

// AppointmentResponse is the wire shape of an appointment.
type AppointmentResponse struct {
	ID        string    `json:"id"`
	DoctorID  string    `json:"doctorId"`
	PatientID string    `json:"patientId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toAppointmentResponse(a domain.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID.String(),
		DoctorID:  a.DoctorID.String(),
		PatientID: a.PatientID.String(),
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Status:    string(a.Status),
		Reason:    a.Reason,
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toAppointmentResponses(appts []domain.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

// AvailabilityResponse is the wire shape of an availability window. Exactly
// one of weekday and specificDate is set, mirroring the recurrence basis.
type AvailabilityResponse struct {
	ID                  string    `json:"id"`
	DoctorID            string    `json:"doctorId"`
	Weekday             *string   `json:"weekday,omitempty"`
	SpecificDate        *string   `json:"specificDate,omitempty"`
	StartTime           string    `json:"startTime"`
	EndTime             string    `json:"endTime"`
	SlotDurationMinutes int       `json:"slotDurationMinutes"`
	Available           bool      `json:"available"`
	Notes               string    `json:"notes,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func toAvailabilityResponse(w domain.AvailabilityWindow) AvailabilityResponse {
	resp := AvailabilityResponse{
		ID:                  w.ID.String(),
		DoctorID:            w.DoctorID.String(),
		StartTime:           w.StartTime.String(),
		EndTime:             w.EndTime.String(),
		SlotDurationMinutes: w.SlotDurationMinutes,
		Available:           w.Available,
		Notes:               w.Notes,
		CreatedAt:           w.CreatedAt,
		UpdatedAt:           w.UpdatedAt,
	}
	if r, err := w.Recurrence(); err == nil {
		if date, ok := r.Date(); ok {
			d := date.Format(dateLayout)
			resp.SpecificDate = &d
		} else if wd, ok := r.Weekday(); ok {
			name := wd.String()
			resp.Weekday = &name
		}
	}
	return resp
}

func toAvailabilityResponses(windows []domain.AvailabilityWindow) []AvailabilityResponse {
	out := make([]AvailabilityResponse, 0, len(windows))
	for _, w := range windows {
		out = append(out, toAvailabilityResponse(w))
	}
	return out
}

func parseWeekday(name string) (time.Weekday, error) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(name, wd.String()) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", name)
}
