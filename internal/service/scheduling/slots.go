package scheduling

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
)

// AvailableSlots derives the bookable slots for a doctor on a date: the
// candidate grid of every available window minus everything consumed by a
// non-cancelled appointment. The result is recomputed fresh on every call —
// never cached — and sorted ascending by start time.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]domain.TimeSlot, error) {
	if date.IsZero() {
		return nil, validationError("date is required")
	}
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	windows, err := s.store.WindowsForDoctorOnDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	appts, err := s.store.AppointmentsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	booked := make([]domain.Appointment, 0, len(appts))
	for _, a := range appts {
		if !a.Cancelled() && domain.SameDate(a.StartTime, date) {
			booked = append(booked, a)
		}
	}

	var slots []domain.TimeSlot
	for i := range windows {
		w := &windows[i]
		if !w.Available {
			continue
		}
		for _, slot := range w.CandidateSlots(date) {
			if slotTaken(slot, booked) {
				continue
			}
			slots = append(slots, slot)
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
	return slots, nil
}

// IsTimeSlotAvailable reports whether [start, end) lies within one of the
// doctor's available windows for that date. It does not consider existing
// appointments; that is the conflict detector's job.
func (s *Service) IsTimeSlotAvailable(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (bool, error) {
	if start.IsZero() || end.IsZero() {
		return false, validationError("start and end times are required")
	}
	if !end.After(start) {
		return false, validationError("end time must be after start time")
	}
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return false, err
	}

	windows, err := s.store.WindowsForDoctorOnDate(ctx, doctorID, start)
	if err != nil {
		return false, err
	}
	return withinAvailability(windows, start, end), nil
}

func slotTaken(slot domain.TimeSlot, booked []domain.Appointment) bool {
	for _, a := range booked {
		if domain.Overlaps(slot.StartTime, slot.EndTime, a.StartTime, a.EndTime) {
			return true
		}
	}
	return false
}

// withinAvailability reports whether some available window contains both
// edges of [start, end). Containment is closed at the window edges so
// bookings flush against a boundary are allowed. A range crossing midnight
// can never fit a window and is rejected outright.
func withinAvailability(windows []domain.AvailabilityWindow, start, end time.Time) bool {
	if !domain.SameDate(start, end) {
		return false
	}
	startTOD := domain.TimeOfDayFrom(start)
	endTOD := domain.TimeOfDayFrom(end)
	for i := range windows {
		w := &windows[i]
		if !w.Available {
			continue
		}
		if domain.ContainsTime(w.StartTime, w.EndTime, startTOD) && domain.ContainsTime(w.StartTime, w.EndTime, endTOD) {
			return true
		}
	}
	return false
}
