package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Recurrence describes when an availability window applies: either every
// week on a fixed weekday, or on one specific calendar date. Exactly one of
// the two is set; constructors make the invalid states unrepresentable.
type Recurrence struct {
	weekday *time.Weekday
	date    *time.Time
}

func WeeklyOn(weekday time.Weekday) Recurrence {
	return Recurrence{weekday: &weekday}
}

func OnDate(date time.Time) Recurrence {
	d := DateOf(date)
	return Recurrence{date: &d}
}

func (r Recurrence) Weekday() (time.Weekday, bool) {
	if r.weekday == nil {
		return 0, false
	}
	return *r.weekday, true
}

func (r Recurrence) Date() (time.Time, bool) {
	if r.date == nil {
		return time.Time{}, false
	}
	return *r.date, true
}

func (r Recurrence) IsSpecificDate() bool { return r.date != nil }

func (r Recurrence) IsZero() bool { return r.weekday == nil && r.date == nil }

// AppliesTo reports whether the recurrence covers the given calendar date.
func (r Recurrence) AppliesTo(date time.Time) bool {
	d := DateOf(date)
	if r.date != nil {
		return r.date.Equal(d)
	}
	if r.weekday != nil {
		return *r.weekday == d.Weekday()
	}
	return false
}

// SameBasis reports whether two recurrences are validated against each
// other for overlap: both on the same specific date, or both on the same
// weekday. A specific-date window shadows weekday windows entirely, so
// cross-basis overlap is legal.
func (r Recurrence) SameBasis(other Recurrence) bool {
	if r.date != nil && other.date != nil {
		return r.date.Equal(*other.date)
	}
	if r.weekday != nil && other.weekday != nil {
		return *r.weekday == *other.weekday
	}
	return false
}

func (r Recurrence) String() string {
	if r.date != nil {
		return r.date.Format("2006-01-02")
	}
	if r.weekday != nil {
		return r.weekday.String()
	}
	return "none"
}

const (
	DefaultSlotDurationMinutes = 30
	// MaxSlotDurationMinutes caps a slot at one day; TimeOfDay arithmetic
	// is int16 minutes and must never be stepped past that.
	MaxSlotDurationMinutes = 24 * 60
)

type AvailabilityWindow struct {
	bun.BaseModel `bun:"table:availability_windows"`

	ID       uuid.UUID `bun:"id,pk,type:uuid"`
	DoctorID uuid.UUID `bun:"doctor_id,notnull,type:uuid"`

	// Exactly one of Weekday and SpecificDate is set; this is the
	// persisted shape of Recurrence. Core logic never reads these
	// directly — it goes through Recurrence().
	Weekday      *int16     `bun:"weekday"`
	SpecificDate *time.Time `bun:"specific_date"`

	StartTime           TimeOfDay `bun:"start_time,notnull"`
	EndTime             TimeOfDay `bun:"end_time,notnull"`
	SlotDurationMinutes int       `bun:"slot_duration_minutes,notnull"`
	Available           bool      `bun:"available,notnull"`
	Notes               string    `bun:"notes"`
	CreatedAt           time.Time `bun:"created_at,notnull"`
	UpdatedAt           time.Time `bun:"updated_at,notnull"`
}

// NewAvailabilityWindow builds a window from a validated recurrence. The
// slot duration defaults to 30 minutes when non-positive.
func NewAvailabilityWindow(doctorID uuid.UUID, recurrence Recurrence, start, end TimeOfDay, slotMinutes int) (AvailabilityWindow, error) {
	if recurrence.IsZero() {
		return AvailabilityWindow{}, errors.New("availability window must have either a weekday or a specific date")
	}
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotDurationMinutes
	}
	if slotMinutes > MaxSlotDurationMinutes {
		return AvailabilityWindow{}, fmt.Errorf("slot duration %d exceeds %d minutes", slotMinutes, MaxSlotDurationMinutes)
	}
	w := AvailabilityWindow{
		DoctorID:            doctorID,
		StartTime:           start,
		EndTime:             end,
		SlotDurationMinutes: slotMinutes,
		Available:           true,
	}
	w.SetRecurrence(recurrence)
	return w, nil
}

func (w *AvailabilityWindow) SetRecurrence(r Recurrence) {
	w.Weekday = nil
	w.SpecificDate = nil
	if d, ok := r.Date(); ok {
		w.SpecificDate = &d
		return
	}
	if wd, ok := r.Weekday(); ok {
		v := int16(wd)
		w.Weekday = &v
	}
}

// Recurrence reconstructs the tagged union from the persisted columns,
// rejecting rows where the mutual-exclusion invariant was violated.
func (w *AvailabilityWindow) Recurrence() (Recurrence, error) {
	switch {
	case w.SpecificDate != nil && w.Weekday != nil:
		return Recurrence{}, fmt.Errorf("availability window %s has both weekday and specific date", w.ID)
	case w.SpecificDate != nil:
		return OnDate(*w.SpecificDate), nil
	case w.Weekday != nil:
		if *w.Weekday < 0 || *w.Weekday > 6 {
			return Recurrence{}, fmt.Errorf("availability window %s has invalid weekday %d", w.ID, *w.Weekday)
		}
		return WeeklyOn(time.Weekday(*w.Weekday)), nil
	default:
		return Recurrence{}, fmt.Errorf("availability window %s has neither weekday nor specific date", w.ID)
	}
}

// TimeSlot is a derived, never-persisted candidate booking interval.
type TimeSlot struct {
	DoctorID  uuid.UUID `json:"doctorId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Available bool      `json:"available"`
}

// CandidateSlots steps through the window in slot-duration increments,
// emitting every [slotStart, slotEnd) whose end fits inside the window.
// Availability against existing appointments is the caller's concern.
func (w *AvailabilityWindow) CandidateSlots(date time.Time) []TimeSlot {
	day := DateOf(date)
	step := w.SlotDurationMinutes
	if step <= 0 {
		step = DefaultSlotDurationMinutes
	}

	// Step in int so an oversized stored duration cannot wrap the int16
	// clock time and slip past the loop guard.
	var slots []TimeSlot
	for cur := int(w.StartTime); cur+step <= int(w.EndTime); cur += step {
		start := TimeOfDay(cur).At(day)
		slots = append(slots, TimeSlot{
			DoctorID:  w.DoctorID,
			StartTime: start,
			EndTime:   start.Add(time.Duration(step) * time.Minute),
			Available: true,
		})
	}
	return slots
}

func (w *AvailabilityWindow) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if w.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			w.ID = id
		}
		if w.CreatedAt.IsZero() {
			w.CreatedAt = now
		}
		if w.UpdatedAt.IsZero() {
			w.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		w.UpdatedAt = now
	}
	return nil
}
