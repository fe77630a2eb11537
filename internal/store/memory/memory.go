// Package memory implements store.SchedulingStore on mutable in-process
// maps. A per-doctor mutex gives InDoctorTransaction the same serialization
// guarantee the Postgres advisory lock provides, and SaveAppointment applies
// the same non-cancelled overlap guard as the schema's exclusion constraint.
// It backs the service and transport tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	doctors      map[uuid.UUID]struct{}
	patients     map[uuid.UUID]struct{}
	appointments map[uuid.UUID]domain.Appointment
	windows      map[uuid.UUID]domain.AvailabilityWindow

	calendarMu map[uuid.UUID]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		doctors:      make(map[uuid.UUID]struct{}),
		patients:     make(map[uuid.UUID]struct{}),
		appointments: make(map[uuid.UUID]domain.Appointment),
		windows:      make(map[uuid.UUID]domain.AvailabilityWindow),
		calendarMu:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// AddDoctor registers a doctor id in the directory.
func (s *Store) AddDoctor(doctorID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[doctorID] = struct{}{}
}

// AddPatient registers a patient id in the directory.
func (s *Store) AddPatient(patientID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[patientID] = struct{}{}
}

func (s *Store) DoctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.doctors[doctorID]
	return ok, nil
}

func (s *Store) PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.patients[patientID]
	return ok, nil
}

func (s *Store) doctorLock(doctorID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.calendarMu[doctorID]
	if !ok {
		l = &sync.Mutex{}
		s.calendarMu[doctorID] = l
	}
	return l
}

func (s *Store) InDoctorTransaction(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	l := s.doctorLock(doctorID)
	l.Lock()
	defer l.Unlock()
	return fn(ctx, memTx{s: s})
}

func (s *Store) AppointmentByID(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appt, ok := s.appointments[appointmentID]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return appt, nil
}

func (s *Store) AppointmentExists(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.appointments[appointmentID]
	return ok, nil
}

func (s *Store) AppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appointmentsByDoctorLocked(doctorID), nil
}

func (s *Store) appointmentsByDoctorLocked(doctorID uuid.UUID) []domain.Appointment {
	var out []domain.Appointment
	for _, a := range s.appointments {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out
}

func (s *Store) AppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Appointment
	for _, a := range s.appointments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out, nil
}

func (s *Store) AllAppointments(ctx context.Context) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, a)
	}
	sortAppointments(out)
	return out, nil
}

func (s *Store) AppointmentsBetween(ctx context.Context, from, to time.Time) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Appointment
	for _, a := range s.appointments {
		if !a.StartTime.Before(from) && a.StartTime.Before(to) {
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out, nil
}

func (s *Store) WindowByID(ctx context.Context, windowID uuid.UUID) (domain.AvailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.windows[windowID]
	if !ok {
		return domain.AvailabilityWindow{}, store.ErrNotFound
	}
	return w, nil
}

func (s *Store) WindowsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.AvailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.windowsForDoctorLocked(doctorID), nil
}

func (s *Store) windowsForDoctorLocked(doctorID uuid.UUID) []domain.AvailabilityWindow {
	var out []domain.AvailabilityWindow
	for _, w := range s.windows {
		if w.DoctorID == doctorID {
			out = append(out, w)
		}
	}
	sortWindows(out)
	return out
}

func (s *Store) WindowsForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]domain.AvailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.windowsForDoctorOnDateLocked(doctorID, date), nil
}

func (s *Store) windowsForDoctorOnDateLocked(doctorID uuid.UUID, date time.Time) []domain.AvailabilityWindow {
	all := s.windowsForDoctorLocked(doctorID)

	var specific, weekly []domain.AvailabilityWindow
	for _, w := range all {
		r, err := w.Recurrence()
		if err != nil || !r.AppliesTo(date) {
			continue
		}
		if r.IsSpecificDate() {
			specific = append(specific, w)
		} else {
			weekly = append(weekly, w)
		}
	}
	if len(specific) > 0 {
		return specific
	}
	return weekly
}

type memTx struct {
	s *Store
}

func (t memTx) SaveAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	now := time.Now().UTC()
	if appt.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Appointment{}, err
		}
		appt.ID = id
		if appt.CreatedAt.IsZero() {
			appt.CreatedAt = now
		}
	} else {
		if _, ok := t.s.appointments[appt.ID]; !ok {
			return domain.Appointment{}, store.ErrNotFound
		}
	}
	if appt.UpdatedAt.IsZero() {
		appt.UpdatedAt = now
	}

	// Same overlap guard as the Postgres exclusion constraint.
	if !appt.Cancelled() {
		for _, other := range t.s.appointments {
			if other.ID == appt.ID || other.DoctorID != appt.DoctorID || other.Cancelled() {
				continue
			}
			if domain.Overlaps(appt.StartTime, appt.EndTime, other.StartTime, other.EndTime) {
				return domain.Appointment{}, store.ErrConflict
			}
		}
	}

	t.s.appointments[appt.ID] = appt
	return appt, nil
}

func (t memTx) AppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.Appointment, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.appointmentsByDoctorLocked(doctorID), nil
}

func (t memTx) DeleteAppointment(ctx context.Context, appointmentID uuid.UUID) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.appointments[appointmentID]; !ok {
		return store.ErrNotFound
	}
	delete(t.s.appointments, appointmentID)
	return nil
}

func (t memTx) SaveWindow(ctx context.Context, w domain.AvailabilityWindow) (domain.AvailabilityWindow, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	now := time.Now().UTC()
	if w.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.AvailabilityWindow{}, err
		}
		w.ID = id
		if w.CreatedAt.IsZero() {
			w.CreatedAt = now
		}
	} else {
		if _, ok := t.s.windows[w.ID]; !ok {
			return domain.AvailabilityWindow{}, store.ErrNotFound
		}
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = now
	}

	t.s.windows[w.ID] = w
	return w, nil
}

func (t memTx) WindowsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.AvailabilityWindow, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.windowsForDoctorLocked(doctorID), nil
}

func (t memTx) WindowsForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]domain.AvailabilityWindow, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.windowsForDoctorOnDateLocked(doctorID, date), nil
}

func (t memTx) DeleteWindow(ctx context.Context, windowID uuid.UUID) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.windows[windowID]; !ok {
		return store.ErrNotFound
	}
	delete(t.s.windows, windowID)
	return nil
}

func sortAppointments(appts []domain.Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		return appts[i].StartTime.Before(appts[j].StartTime)
	})
}

func sortWindows(ws []domain.AvailabilityWindow) {
	sort.Slice(ws, func(i, j int) bool {
		return ws[i].StartTime < ws[j].StartTime
	})
}
