package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/store"
)

type CreateAvailabilityInput struct {
	DoctorID   uuid.UUID
	Recurrence domain.Recurrence
	StartTime  domain.TimeOfDay
	EndTime    domain.TimeOfDay
	// SlotDurationMinutes of zero means the default 30.
	SlotDurationMinutes int
	// Available defaults to true; set false to declare a block-out.
	Available *bool
	Notes     string
}

func (s *Service) CreateAvailability(ctx context.Context, in CreateAvailabilityInput) (domain.AvailabilityWindow, error) {
	if in.Recurrence.IsZero() {
		return domain.AvailabilityWindow{}, validationError("availability must have either a weekday or a specific date")
	}
	if !in.StartTime.Valid() || !in.EndTime.Valid() {
		return domain.AvailabilityWindow{}, validationError("start and end times must be valid times of day")
	}
	if in.StartTime >= in.EndTime {
		return domain.AvailabilityWindow{}, conflictError("start time cannot be after end time")
	}
	if in.SlotDurationMinutes < 0 {
		return domain.AvailabilityWindow{}, validationError("slot duration must be positive")
	}
	if in.SlotDurationMinutes > domain.MaxSlotDurationMinutes {
		return domain.AvailabilityWindow{}, validationError("slot duration cannot exceed 24 hours")
	}
	if err := s.requireDoctor(ctx, in.DoctorID); err != nil {
		return domain.AvailabilityWindow{}, err
	}

	w, err := domain.NewAvailabilityWindow(in.DoctorID, in.Recurrence, in.StartTime, in.EndTime, in.SlotDurationMinutes)
	if err != nil {
		return domain.AvailabilityWindow{}, validationError(err.Error())
	}
	if in.Available != nil {
		w.Available = *in.Available
	}
	w.Notes = in.Notes

	var out domain.AvailabilityWindow
	err = s.store.InDoctorTransaction(ctx, in.DoctorID, func(ctx context.Context, tx store.SchedulingTx) error {
		existing, err := tx.WindowsForDoctor(ctx, in.DoctorID)
		if err != nil {
			return err
		}
		if err := checkWindowOverlap(w, existing); err != nil {
			return err
		}

		now := s.clock.Now()
		w.CreatedAt = now
		w.UpdatedAt = now

		out, err = tx.SaveWindow(ctx, w)
		return err
	})
	if err != nil {
		return domain.AvailabilityWindow{}, err
	}
	return out, nil
}

type UpdateAvailabilityInput struct {
	Recurrence          *domain.Recurrence
	StartTime           *domain.TimeOfDay
	EndTime             *domain.TimeOfDay
	SlotDurationMinutes *int
	Available           *bool
	Notes               *string
}

func (s *Service) UpdateAvailability(ctx context.Context, windowID uuid.UUID, in UpdateAvailabilityInput) (domain.AvailabilityWindow, error) {
	if in.Recurrence != nil && in.Recurrence.IsZero() {
		return domain.AvailabilityWindow{}, validationError("availability must have either a weekday or a specific date")
	}
	if in.SlotDurationMinutes != nil && *in.SlotDurationMinutes <= 0 {
		return domain.AvailabilityWindow{}, validationError("slot duration must be positive")
	}
	if in.SlotDurationMinutes != nil && *in.SlotDurationMinutes > domain.MaxSlotDurationMinutes {
		return domain.AvailabilityWindow{}, validationError("slot duration cannot exceed 24 hours")
	}

	existing, err := s.windowByID(ctx, windowID)
	if err != nil {
		return domain.AvailabilityWindow{}, err
	}

	updated := existing
	if in.Recurrence != nil {
		updated.SetRecurrence(*in.Recurrence)
	}
	if in.StartTime != nil {
		if !in.StartTime.Valid() {
			return domain.AvailabilityWindow{}, validationError("start and end times must be valid times of day")
		}
		updated.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		if !in.EndTime.Valid() {
			return domain.AvailabilityWindow{}, validationError("start and end times must be valid times of day")
		}
		updated.EndTime = *in.EndTime
	}
	if updated.StartTime >= updated.EndTime {
		return domain.AvailabilityWindow{}, conflictError("start time cannot be after end time")
	}
	if in.SlotDurationMinutes != nil {
		updated.SlotDurationMinutes = *in.SlotDurationMinutes
	}
	if in.Available != nil {
		updated.Available = *in.Available
	}
	if in.Notes != nil {
		updated.Notes = *in.Notes
	}

	var out domain.AvailabilityWindow
	err = s.store.InDoctorTransaction(ctx, existing.DoctorID, func(ctx context.Context, tx store.SchedulingTx) error {
		others, err := tx.WindowsForDoctor(ctx, existing.DoctorID)
		if err != nil {
			return err
		}
		if err := checkWindowOverlap(updated, others); err != nil {
			return err
		}

		updated.UpdatedAt = s.clock.Now()
		out, err = tx.SaveWindow(ctx, updated)
		if err == store.ErrNotFound {
			return notFoundError("availability window", windowID)
		}
		return err
	})
	if err != nil {
		return domain.AvailabilityWindow{}, err
	}
	return out, nil
}

func (s *Service) DeleteAvailability(ctx context.Context, windowID uuid.UUID) error {
	existing, err := s.windowByID(ctx, windowID)
	if err != nil {
		return err
	}
	return s.store.InDoctorTransaction(ctx, existing.DoctorID, func(ctx context.Context, tx store.SchedulingTx) error {
		err := tx.DeleteWindow(ctx, windowID)
		if err == store.ErrNotFound {
			return notFoundError("availability window", windowID)
		}
		return err
	})
}

func (s *Service) AvailabilityByID(ctx context.Context, windowID uuid.UUID) (domain.AvailabilityWindow, error) {
	return s.windowByID(ctx, windowID)
}

func (s *Service) AvailabilityForDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.AvailabilityWindow, error) {
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.store.WindowsForDoctor(ctx, doctorID)
}

func (s *Service) AvailabilityForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]domain.AvailabilityWindow, error) {
	if date.IsZero() {
		return nil, validationError("date is required")
	}
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.store.WindowsForDoctorOnDate(ctx, doctorID, date)
}

func (s *Service) windowByID(ctx context.Context, windowID uuid.UUID) (domain.AvailabilityWindow, error) {
	if windowID == uuid.Nil {
		return domain.AvailabilityWindow{}, validationError("availability_id is required")
	}
	w, err := s.store.WindowByID(ctx, windowID)
	if err != nil {
		if err == store.ErrNotFound {
			return domain.AvailabilityWindow{}, notFoundError("availability window", windowID)
		}
		return domain.AvailabilityWindow{}, err
	}
	return w, nil
}

// checkWindowOverlap enforces the per-doctor window invariant: no two
// windows on the same calendar basis (same specific date, or same weekday)
// may overlap. The candidate's own id is excluded so updates never collide
// with themselves.
func checkWindowOverlap(candidate domain.AvailabilityWindow, existing []domain.AvailabilityWindow) error {
	candR, err := candidate.Recurrence()
	if err != nil {
		return validationError(err.Error())
	}
	for i := range existing {
		other := &existing[i]
		if other.ID == candidate.ID && candidate.ID != uuid.Nil {
			continue
		}
		otherR, err := other.Recurrence()
		if err != nil {
			// A corrupt stored row should not block new windows.
			continue
		}
		if !candR.SameBasis(otherR) {
			continue
		}
		if domain.OverlapsTimeOfDay(candidate.StartTime, candidate.EndTime, other.StartTime, other.EndTime) {
			return conflictError("availability overlaps with another availability")
		}
	}
	return nil
}
