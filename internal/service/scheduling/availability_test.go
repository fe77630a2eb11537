package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/store"
)

func TestCreateAvailability_OverlapOnSameBasis(t *testing.T) {
	env := newTestEnv(t)
	env.addWindow(t, 9, 12)

	t.Run("overlapping window on the same date conflicts", func(t *testing.T) {
		_, err := env.svc.CreateAvailability(context.Background(), CreateAvailabilityInput{
			DoctorID:   env.doctorID,
			Recurrence: domain.OnDate(monday2025),
			StartTime:  domain.MustTimeOfDay(11, 0),
			EndTime:    domain.MustTimeOfDay(13, 0),
		})
		if !errors.Is(err, store.ErrConflict) {
			t.Fatalf("error = %v, want conflict", err)
		}
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("error type = %T, want *ConflictError", err)
		}
		if cErr.Error() != "availability overlaps with another availability" {
			t.Fatalf("error = %q", cErr.Error())
		}
	})

	t.Run("disjoint window on the same date succeeds", func(t *testing.T) {
		if _, err := env.svc.CreateAvailability(context.Background(), CreateAvailabilityInput{
			DoctorID:   env.doctorID,
			Recurrence: domain.OnDate(monday2025),
			StartTime:  domain.MustTimeOfDay(13, 0),
			EndTime:    domain.MustTimeOfDay(15, 0),
		}); err != nil {
			t.Fatalf("CreateAvailability error: %v", err)
		}
	})

	t.Run("back-to-back window succeeds", func(t *testing.T) {
		if _, err := env.svc.CreateAvailability(context.Background(), CreateAvailabilityInput{
			DoctorID:   env.doctorID,
			Recurrence: domain.OnDate(monday2025),
			StartTime:  domain.MustTimeOfDay(12, 0),
			EndTime:    domain.MustTimeOfDay(13, 0),
		}); err != nil {
			t.Fatalf("CreateAvailability error: %v", err)
		}
	})

	t.Run("weekday window never collides with a date window", func(t *testing.T) {
		// monday2025 is a Monday; different basis, overlap allowed.
		if _, err := env.svc.CreateAvailability(context.Background(), CreateAvailabilityInput{
			DoctorID:   env.doctorID,
			Recurrence: domain.WeeklyOn(time.Monday),
			StartTime:  domain.MustTimeOfDay(9, 0),
			EndTime:    domain.MustTimeOfDay(17, 0),
		}); err != nil {
			t.Fatalf("CreateAvailability error: %v", err)
		}
	})

	t.Run("other doctors are unaffected", func(t *testing.T) {
		otherDoctor := uuid.New()
		env.store.AddDoctor(otherDoctor)
		if _, err := env.svc.CreateAvailability(context.Background(), CreateAvailabilityInput{
			DoctorID:   otherDoctor,
			Recurrence: domain.OnDate(monday2025),
			StartTime:  domain.MustTimeOfDay(9, 0),
			EndTime:    domain.MustTimeOfDay(12, 0),
		}); err != nil {
			t.Fatalf("CreateAvailability error: %v", err)
		}
	})
}

func TestCreateAvailability_Validation(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing recurrence", func(t *testing.T) {
		_, err := env.svc.CreateAvailability(context.Background(), CreateAvailabilityInput{
			DoctorID:  env.doctorID,
			StartTime: domain.MustTimeOfDay(9, 0),
			EndTime:   domain.MustTimeOfDay(12, 0),
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("error = %v (%T), want *ValidationError", err, err)
		}
	})

	t.Run("start at or after end conflicts", func(t *testing.T) {
		_, err := env.svc.CreateAvailability(context.Background(), CreateAvailabilityInput{
			DoctorID:   env.doctorID,
			Recurrence: domain.OnDate(monday2025),
			StartTime:  domain.MustTimeOfDay(12, 0),
			EndTime:    domain.MustTimeOfDay(9, 0),
		})
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("error = %v (%T), want *ConflictError", err, err)
		}
		if cErr.Error() != "start time cannot be after end time" {
			t.Fatalf("error = %q", cErr.Error())
		}
	})

	t.Run("oversized slot duration", func(t *testing.T) {
		_, err := env.svc.CreateAvailability(context.Background(), CreateAvailabilityInput{
			DoctorID:            env.doctorID,
			Recurrence:          domain.OnDate(monday2025),
			StartTime:           domain.MustTimeOfDay(9, 0),
			EndTime:             domain.MustTimeOfDay(12, 0),
			SlotDurationMinutes: 40000,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("error = %v (%T), want *ValidationError", err, err)
		}
		if vErr.Error() != "slot duration cannot exceed 24 hours" {
			t.Fatalf("error = %q", vErr.Error())
		}
	})

	t.Run("unknown doctor", func(t *testing.T) {
		_, err := env.svc.CreateAvailability(context.Background(), CreateAvailabilityInput{
			DoctorID:   uuid.New(),
			Recurrence: domain.OnDate(monday2025),
			StartTime:  domain.MustTimeOfDay(9, 0),
			EndTime:    domain.MustTimeOfDay(12, 0),
		})
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("error = %v, want not found", err)
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		w, err := env.svc.CreateAvailability(context.Background(), CreateAvailabilityInput{
			DoctorID:   env.doctorID,
			Recurrence: domain.WeeklyOn(time.Tuesday),
			StartTime:  domain.MustTimeOfDay(9, 0),
			EndTime:    domain.MustTimeOfDay(12, 0),
		})
		if err != nil {
			t.Fatalf("CreateAvailability error: %v", err)
		}
		if w.SlotDurationMinutes != domain.DefaultSlotDurationMinutes {
			t.Fatalf("slot duration = %d, want %d", w.SlotDurationMinutes, domain.DefaultSlotDurationMinutes)
		}
		if !w.Available {
			t.Fatalf("window should default to available")
		}
		if w.ID == uuid.Nil {
			t.Fatalf("expected an assigned id")
		}
	})
}

func TestUpdateAvailability(t *testing.T) {
	env := newTestEnv(t)
	morning := env.addWindow(t, 9, 12)
	env.addWindow(t, 13, 15)

	t.Run("growing into a neighbour conflicts", func(t *testing.T) {
		end := domain.MustTimeOfDay(14, 0)
		_, err := env.svc.UpdateAvailability(context.Background(), morning.ID, UpdateAvailabilityInput{
			EndTime: &end,
		})
		if !errors.Is(err, store.ErrConflict) {
			t.Fatalf("error = %v, want conflict", err)
		}
	})

	t.Run("update excludes itself from the overlap check", func(t *testing.T) {
		end := domain.MustTimeOfDay(12, 30)
		updated, err := env.svc.UpdateAvailability(context.Background(), morning.ID, UpdateAvailabilityInput{
			EndTime: &end,
		})
		if err != nil {
			t.Fatalf("update error: %v", err)
		}
		if updated.EndTime != end {
			t.Fatalf("end = %v, want %v", updated.EndTime, end)
		}
	})

	t.Run("inverted times conflict", func(t *testing.T) {
		end := domain.MustTimeOfDay(8, 0)
		_, err := env.svc.UpdateAvailability(context.Background(), morning.ID, UpdateAvailabilityInput{
			EndTime: &end,
		})
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("error = %v (%T), want *ConflictError", err, err)
		}
	})

	t.Run("oversized slot duration rejected", func(t *testing.T) {
		minutes := 40000
		_, err := env.svc.UpdateAvailability(context.Background(), morning.ID, UpdateAvailabilityInput{
			SlotDurationMinutes: &minutes,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("error = %v (%T), want *ValidationError", err, err)
		}
	})

	t.Run("block-out flag applied", func(t *testing.T) {
		blocked := false
		updated, err := env.svc.UpdateAvailability(context.Background(), morning.ID, UpdateAvailabilityInput{
			Available: &blocked,
		})
		if err != nil {
			t.Fatalf("update error: %v", err)
		}
		if updated.Available {
			t.Fatalf("window should be blocked out")
		}
	})

	t.Run("unknown window", func(t *testing.T) {
		notes := "moved rooms"
		_, err := env.svc.UpdateAvailability(context.Background(), uuid.New(), UpdateAvailabilityInput{
			Notes: &notes,
		})
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("error = %v, want not found", err)
		}
	})
}

func TestDeleteAvailability(t *testing.T) {
	env := newTestEnv(t)
	w := env.addWindow(t, 9, 12)

	if err := env.svc.DeleteAvailability(context.Background(), w.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if _, err := env.svc.AvailabilityByID(context.Background(), w.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("lookup after delete = %v, want not found", err)
	}
	if err := env.svc.DeleteAvailability(context.Background(), w.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete = %v, want not found", err)
	}
}

func TestAvailabilityLookups(t *testing.T) {
	env := newTestEnv(t)
	env.addWindow(t, 9, 12)
	if _, err := env.svc.CreateAvailability(context.Background(), CreateAvailabilityInput{
		DoctorID:   env.doctorID,
		Recurrence: domain.WeeklyOn(time.Friday),
		StartTime:  domain.MustTimeOfDay(9, 0),
		EndTime:    domain.MustTimeOfDay(12, 0),
	}); err != nil {
		t.Fatalf("CreateAvailability error: %v", err)
	}

	all, err := env.svc.AvailabilityForDoctor(context.Background(), env.doctorID)
	if err != nil {
		t.Fatalf("AvailabilityForDoctor error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}

	onDate, err := env.svc.AvailabilityForDoctorOnDate(context.Background(), env.doctorID, monday2025)
	if err != nil {
		t.Fatalf("AvailabilityForDoctorOnDate error: %v", err)
	}
	if len(onDate) != 1 {
		t.Fatalf("len(onDate) = %d, want the specific-date window only", len(onDate))
	}
	r, err := onDate[0].Recurrence()
	if err != nil {
		t.Fatalf("Recurrence error: %v", err)
	}
	if !r.IsSpecificDate() {
		t.Fatalf("expected the specific-date window, got %v", r)
	}

	if _, err := env.svc.AvailabilityForDoctor(context.Background(), uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown doctor lookup = %v, want not found", err)
	}
}
