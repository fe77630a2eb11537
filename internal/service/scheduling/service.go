package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/store"
)

// Service is the single entry point mutating appointment and availability
// state. Every write runs inside the store's per-doctor critical section so
// the read-check-write sequences below cannot race for the same doctor.
type Service struct {
	store store.SchedulingStore
	clock Clock
}

func NewService(st store.SchedulingStore, clock Clock) *Service {
	if clock == nil {
		clock = systemClock()
	}
	return &Service{store: st, clock: clock}
}

type CreateAppointmentInput struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	StartTime time.Time
	// Duration of zero means the default 30 minutes.
	Duration time.Duration
	Reason   string
	Notes    string
	// Status is optional; unset defaults to SCHEDULED.
	Status domain.AppointmentStatus
}

func (s *Service) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (domain.Appointment, error) {
	if in.DoctorID == uuid.Nil {
		return domain.Appointment{}, validationError("doctor_id is required")
	}
	if in.PatientID == uuid.Nil {
		return domain.Appointment{}, validationError("patient_id is required")
	}
	if in.StartTime.IsZero() {
		return domain.Appointment{}, validationError("appointment date and time is required")
	}
	if in.Duration < 0 {
		return domain.Appointment{}, validationError("duration must be positive")
	}
	reason := strings.TrimSpace(in.Reason)
	if err := validateReason(reason); err != nil {
		return domain.Appointment{}, err
	}
	if err := validateNotes(in.Notes); err != nil {
		return domain.Appointment{}, err
	}
	if in.Status != "" && !in.Status.Valid() {
		return domain.Appointment{}, validationError("invalid appointment status")
	}

	if err := s.requireDoctor(ctx, in.DoctorID); err != nil {
		return domain.Appointment{}, err
	}
	if err := s.requirePatient(ctx, in.PatientID); err != nil {
		return domain.Appointment{}, err
	}

	start := in.StartTime.UTC()
	if start.Before(s.clock.Now()) {
		return domain.Appointment{}, validationError("appointment cannot be scheduled in the past")
	}

	appt := domain.ScheduleAppointment(in.DoctorID, in.PatientID, start, in.Duration, reason, in.Notes)
	if in.Status != "" {
		appt.Status = in.Status
	}

	var out domain.Appointment
	err := s.store.InDoctorTransaction(ctx, in.DoctorID, func(ctx context.Context, tx store.SchedulingTx) error {
		windows, err := tx.WindowsForDoctorOnDate(ctx, in.DoctorID, appt.StartTime)
		if err != nil {
			return err
		}
		if !withinAvailability(windows, appt.StartTime, appt.EndTime) {
			return conflictError("time slot is not available for this doctor")
		}

		existing, err := tx.AppointmentsByDoctor(ctx, in.DoctorID)
		if err != nil {
			return err
		}
		if hasConflict(appt, existing) {
			return conflictError("this appointment conflicts with an existing appointment")
		}

		now := s.clock.Now()
		appt.CreatedAt = now
		appt.UpdatedAt = now

		out, err = tx.SaveAppointment(ctx, appt)
		return err
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

type UpdateAppointmentInput struct {
	StartTime *time.Time
	// Duration applies only when set; otherwise a moved appointment
	// keeps its current length.
	Duration *time.Duration
	Reason   *string
	Notes    *string
	Status   *domain.AppointmentStatus
}

func (s *Service) UpdateAppointment(ctx context.Context, appointmentID uuid.UUID, in UpdateAppointmentInput) (domain.Appointment, error) {
	if in.Reason != nil {
		if err := validateReason(strings.TrimSpace(*in.Reason)); err != nil {
			return domain.Appointment{}, err
		}
	}
	if in.Notes != nil {
		if err := validateNotes(*in.Notes); err != nil {
			return domain.Appointment{}, err
		}
	}
	if in.Status != nil && !in.Status.Valid() {
		return domain.Appointment{}, validationError("invalid appointment status")
	}
	if in.StartTime != nil && in.StartTime.IsZero() {
		return domain.Appointment{}, validationError("appointment date and time is required")
	}
	if in.Duration != nil && *in.Duration <= 0 {
		return domain.Appointment{}, validationError("duration must be positive")
	}

	existing, err := s.appointmentByID(ctx, appointmentID)
	if err != nil {
		return domain.Appointment{}, err
	}

	var out domain.Appointment
	err = s.store.InDoctorTransaction(ctx, existing.DoctorID, func(ctx context.Context, tx store.SchedulingTx) error {
		others, err := tx.AppointmentsByDoctor(ctx, existing.DoctorID)
		if err != nil {
			return err
		}

		// Re-read under the lock; the pre-lock load only located the
		// doctor.
		current, ok := findAppointment(others, appointmentID)
		if !ok {
			return notFoundError("appointment", appointmentID)
		}

		updated := current
		if in.StartTime != nil {
			duration := current.EndTime.Sub(current.StartTime)
			if in.Duration != nil {
				duration = *in.Duration
			}
			updated.StartTime = in.StartTime.UTC()
			updated.EndTime = updated.StartTime.Add(duration)
		} else if in.Duration != nil {
			updated.EndTime = updated.StartTime.Add(*in.Duration)
		}
		if in.Reason != nil {
			updated.Reason = strings.TrimSpace(*in.Reason)
		}
		if in.Notes != nil {
			updated.Notes = *in.Notes
		}
		if in.Status != nil {
			if !domain.CanTransition(current.Status, *in.Status) {
				return validationError("cannot change status of a cancelled appointment")
			}
			updated.Status = *in.Status
		}

		// A cancelled appointment occupies no interval, so edits to it
		// never collide with whatever rebooked its old slot.
		if !updated.Cancelled() && hasConflict(updated, others) {
			return conflictError("this appointment update conflicts with an existing appointment")
		}

		updated.UpdatedAt = s.clock.Now()
		out, err = tx.SaveAppointment(ctx, updated)
		return err
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (s *Service) UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	if !status.Valid() {
		return domain.Appointment{}, validationError("invalid appointment status")
	}

	existing, err := s.appointmentByID(ctx, appointmentID)
	if err != nil {
		return domain.Appointment{}, err
	}

	var out domain.Appointment
	err = s.store.InDoctorTransaction(ctx, existing.DoctorID, func(ctx context.Context, tx store.SchedulingTx) error {
		others, err := tx.AppointmentsByDoctor(ctx, existing.DoctorID)
		if err != nil {
			return err
		}
		current, ok := findAppointment(others, appointmentID)
		if !ok {
			return notFoundError("appointment", appointmentID)
		}

		if !domain.CanTransition(current.Status, status) {
			return validationError("cannot change status of a cancelled appointment")
		}

		updated := current
		updated.Status = status
		updated.UpdatedAt = s.clock.Now()

		out, err = tx.SaveAppointment(ctx, updated)
		return err
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

// CancelAppointment is the ordinary cancellation path: a status transition,
// not a record removal.
func (s *Service) CancelAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	return s.UpdateAppointmentStatus(ctx, appointmentID, domain.AppointmentStatusCancelled)
}

// DeleteAppointment is the administrative override: it removes the record
// outright, requiring only existence and bypassing all conflict checks.
func (s *Service) DeleteAppointment(ctx context.Context, appointmentID uuid.UUID) error {
	existing, err := s.appointmentByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	return s.store.InDoctorTransaction(ctx, existing.DoctorID, func(ctx context.Context, tx store.SchedulingTx) error {
		err := tx.DeleteAppointment(ctx, appointmentID)
		if err == store.ErrNotFound {
			return notFoundError("appointment", appointmentID)
		}
		return err
	})
}

func (s *Service) AppointmentByID(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	return s.appointmentByID(ctx, appointmentID)
}

func (s *Service) AppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.Appointment, error) {
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.store.AppointmentsByDoctor(ctx, doctorID)
}

func (s *Service) AppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]domain.Appointment, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.store.AppointmentsByPatient(ctx, patientID)
}

func (s *Service) AllAppointments(ctx context.Context) ([]domain.Appointment, error) {
	return s.store.AllAppointments(ctx)
}

// AppointmentsOnDate lists every appointment starting on the given UTC
// calendar date, across all doctors.
func (s *Service) AppointmentsOnDate(ctx context.Context, date time.Time) ([]domain.Appointment, error) {
	if date.IsZero() {
		return nil, validationError("date is required")
	}
	day := domain.DateOf(date)
	return s.store.AppointmentsBetween(ctx, day, day.AddDate(0, 0, 1))
}

// AppointmentsBetween lists every appointment starting within [from, to).
func (s *Service) AppointmentsBetween(ctx context.Context, from, to time.Time) ([]domain.Appointment, error) {
	if from.IsZero() || to.IsZero() {
		return nil, validationError("from and to are required")
	}
	if !to.After(from) {
		return nil, validationError("to must be after from")
	}
	return s.store.AppointmentsBetween(ctx, from.UTC(), to.UTC())
}

func (s *Service) appointmentByID(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	appt, err := s.store.AppointmentByID(ctx, appointmentID)
	if err != nil {
		if err == store.ErrNotFound {
			return domain.Appointment{}, notFoundError("appointment", appointmentID)
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (s *Service) requireDoctor(ctx context.Context, doctorID uuid.UUID) error {
	if doctorID == uuid.Nil {
		return validationError("doctor_id is required")
	}
	ok, err := s.store.DoctorExists(ctx, doctorID)
	if err != nil {
		return err
	}
	if !ok {
		return notFoundError("doctor", doctorID)
	}
	return nil
}

func (s *Service) requirePatient(ctx context.Context, patientID uuid.UUID) error {
	if patientID == uuid.Nil {
		return validationError("patient_id is required")
	}
	ok, err := s.store.PatientExists(ctx, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return notFoundError("patient", patientID)
	}
	return nil
}

// hasConflict reports whether the candidate overlaps any other non-cancelled
// appointment of the same doctor on the same calendar date. The candidate's
// own id is excluded so updates never conflict with the slot they vacate.
func hasConflict(candidate domain.Appointment, existing []domain.Appointment) bool {
	for _, other := range existing {
		if other.ID == candidate.ID || other.Cancelled() {
			continue
		}
		if !domain.SameDate(other.StartTime, candidate.StartTime) {
			continue
		}
		if domain.Overlaps(candidate.StartTime, candidate.EndTime, other.StartTime, other.EndTime) {
			return true
		}
	}
	return false
}

func findAppointment(appts []domain.Appointment, id uuid.UUID) (domain.Appointment, bool) {
	for _, a := range appts {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Appointment{}, false
}

func validateReason(reason string) error {
	if len(reason) < 3 || len(reason) > 255 {
		return validationError("reason must be between 3 and 255 characters")
	}
	return nil
}

func validateNotes(notes string) error {
	if len(notes) > 1000 {
		return validationError("notes cannot exceed 1000 characters")
	}
	return nil
}
