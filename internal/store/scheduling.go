package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
)

// Directory answers existence lookups for the people the scheduler books.
// Profile data itself is owned elsewhere; the scheduling core only needs to
// know whether a referenced doctor or patient exists.
type Directory interface {
	DoctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error)
	PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error)
}

// SchedulingTx is the write surface available inside a per-doctor critical
// section. Every mutation of a doctor's calendar — appointments and
// availability windows alike — happens through one of these, so the
// read-check-write sequences in the scheduler are serialized per doctor.
type SchedulingTx interface {
	// SaveAppointment inserts when the id is unset and updates otherwise.
	// Returns ErrConflict when the store's own overlap guard rejects the
	// write.
	SaveAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	AppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.Appointment, error)
	DeleteAppointment(ctx context.Context, appointmentID uuid.UUID) error

	SaveWindow(ctx context.Context, w domain.AvailabilityWindow) (domain.AvailabilityWindow, error)
	WindowsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.AvailabilityWindow, error)
	WindowsForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]domain.AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, windowID uuid.UUID) error
}

// SchedulingStore is the persistence surface the scheduling core consumes.
// Reads run without the lock; WindowsForDoctorOnDate applies the
// specific-date-over-weekday precedence rule.
type SchedulingStore interface {
	Directory

	InDoctorTransaction(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context, tx SchedulingTx) error) error

	AppointmentByID(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error)
	AppointmentExists(ctx context.Context, appointmentID uuid.UUID) (bool, error)
	AppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.Appointment, error)
	AppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]domain.Appointment, error)
	AllAppointments(ctx context.Context) ([]domain.Appointment, error)
	// AppointmentsBetween returns appointments starting within
	// [from, to), across all doctors, ordered by start time.
	AppointmentsBetween(ctx context.Context, from, to time.Time) ([]domain.Appointment, error)

	WindowByID(ctx context.Context, windowID uuid.UUID) (domain.AvailabilityWindow, error)
	WindowsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.AvailabilityWindow, error)
	WindowsForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]domain.AvailabilityWindow, error)
}
