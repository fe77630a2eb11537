package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow    AppointmentStatus = "NO_SHOW"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// CanTransition reports whether a status change is permitted. CANCELLED is
// terminal; re-cancelling is allowed so that cancellation stays idempotent.
func CanTransition(from, to AppointmentStatus) bool {
	if from == AppointmentStatusCancelled {
		return to == AppointmentStatusCancelled
	}
	return true
}

const DefaultAppointmentDuration = 30 * time.Minute

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID        uuid.UUID         `bun:"id,pk,type:uuid"`
	DoctorID  uuid.UUID         `bun:"doctor_id,notnull,type:uuid"`
	PatientID uuid.UUID         `bun:"patient_id,notnull,type:uuid"`
	StartTime time.Time         `bun:"start_time,notnull"`
	EndTime   time.Time         `bun:"end_time,notnull"`
	Status    AppointmentStatus `bun:"status,notnull"`
	Reason    string            `bun:"reason,notnull"`
	Notes     string            `bun:"notes"`
	CreatedAt time.Time         `bun:"created_at,notnull"`
	UpdatedAt time.Time         `bun:"updated_at,notnull"`
}

// ScheduleAppointment builds a new SCHEDULED appointment with the end time
// derived from the duration. A non-positive duration falls back to the
// default 30 minutes. The value is fully derived up front; later changes go
// through the scheduler, never through field-by-field mutation.
func ScheduleAppointment(doctorID, patientID uuid.UUID, start time.Time, duration time.Duration, reason, notes string) Appointment {
	if duration <= 0 {
		duration = DefaultAppointmentDuration
	}
	start = start.UTC()
	return Appointment{
		DoctorID:  doctorID,
		PatientID: patientID,
		StartTime: start,
		EndTime:   start.Add(duration),
		Status:    AppointmentStatusScheduled,
		Reason:    reason,
		Notes:     notes,
	}
}

// Cancelled reports whether the appointment no longer occupies its interval.
func (a *Appointment) Cancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
