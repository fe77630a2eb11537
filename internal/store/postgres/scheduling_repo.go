package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/store"
)

// SchedulingRepo implements store.SchedulingStore on Postgres. Per-doctor
// serialization uses a transaction-scoped advisory lock; the
// appointments_no_double_booking exclusion constraint backstops overlap
// detection at write time, so a race that slips past the in-transaction
// check still surfaces as store.ErrConflict.
type SchedulingRepo struct {
	db *bun.DB
}

func NewSchedulingRepo(db *bun.DB) *SchedulingRepo {
	return &SchedulingRepo{db: db}
}

type schedulingTx struct {
	tx bun.Tx
}

func (r *SchedulingRepo) InDoctorTransaction(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDoctorCalendar(ctx, tx, doctorID); err != nil {
			return err
		}
		return fn(ctx, schedulingTx{tx: tx})
	})
}

func lockDoctorCalendar(ctx context.Context, tx bun.Tx, doctorID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", doctorID.String()).Exec(ctx)
	return err
}

func (r *SchedulingRepo) DoctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.NewRaw("SELECT EXISTS (SELECT 1 FROM doctors WHERE id = ?)", doctorID).Scan(ctx, &exists)
	return exists, err
}

func (r *SchedulingRepo) PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.NewRaw("SELECT EXISTS (SELECT 1 FROM patients WHERE id = ?)", patientID).Scan(ctx, &exists)
	return exists, err
}

func (r *SchedulingRepo) AppointmentByID(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.NewSelect().
		Model(&appt).
		Where("id = ?", appointmentID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (r *SchedulingRepo) AppointmentExists(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	return r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Where("id = ?", appointmentID).
		Exists(ctx)
}

func (r *SchedulingRepo) AppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.Appointment, error) {
	return appointmentsByDoctor(ctx, r.db, doctorID)
}

func (r *SchedulingRepo) AppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("patient_id = ?", patientID).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) AllAppointments(ctx context.Context) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) AppointmentsBetween(ctx context.Context, from, to time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("start_time >= ?", from).
		Where("start_time < ?", to).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) WindowByID(ctx context.Context, windowID uuid.UUID) (domain.AvailabilityWindow, error) {
	var w domain.AvailabilityWindow
	err := r.db.NewSelect().
		Model(&w).
		Where("id = ?", windowID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AvailabilityWindow{}, store.ErrNotFound
		}
		return domain.AvailabilityWindow{}, err
	}
	return w, nil
}

func (r *SchedulingRepo) WindowsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.AvailabilityWindow, error) {
	return windowsForDoctor(ctx, r.db, doctorID)
}

func (r *SchedulingRepo) WindowsForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]domain.AvailabilityWindow, error) {
	return windowsForDoctorOnDate(ctx, r.db, doctorID, date)
}

func (t schedulingTx) SaveAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if appt.ID == uuid.Nil {
		_, err := t.tx.NewInsert().Model(&appt).Exec(ctx)
		if err != nil {
			return domain.Appointment{}, mapWriteError(err)
		}
		return appt, nil
	}

	res, err := t.tx.NewUpdate().Model(&appt).WherePK().Exec(ctx)
	if err != nil {
		return domain.Appointment{}, mapWriteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return appt, nil
}

func (t schedulingTx) AppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.Appointment, error) {
	return appointmentsByDoctor(ctx, t.tx, doctorID)
}

func (t schedulingTx) DeleteAppointment(ctx context.Context, appointmentID uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("id = ?", appointmentID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t schedulingTx) SaveWindow(ctx context.Context, w domain.AvailabilityWindow) (domain.AvailabilityWindow, error) {
	if w.ID == uuid.Nil {
		_, err := t.tx.NewInsert().Model(&w).Exec(ctx)
		if err != nil {
			return domain.AvailabilityWindow{}, mapWriteError(err)
		}
		return w, nil
	}

	res, err := t.tx.NewUpdate().Model(&w).WherePK().Exec(ctx)
	if err != nil {
		return domain.AvailabilityWindow{}, mapWriteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.AvailabilityWindow{}, err
	}
	if affected == 0 {
		return domain.AvailabilityWindow{}, store.ErrNotFound
	}
	return w, nil
}

func (t schedulingTx) WindowsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]domain.AvailabilityWindow, error) {
	return windowsForDoctor(ctx, t.tx, doctorID)
}

func (t schedulingTx) WindowsForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]domain.AvailabilityWindow, error) {
	return windowsForDoctorOnDate(ctx, t.tx, doctorID, date)
}

func (t schedulingTx) DeleteWindow(ctx context.Context, windowID uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.AvailabilityWindow)(nil)).
		Where("id = ?", windowID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func appointmentsByDoctor(ctx context.Context, db bun.IDB, doctorID uuid.UUID) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := db.NewSelect().
		Model(&rows).
		Where("doctor_id = ?", doctorID).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func windowsForDoctor(ctx context.Context, db bun.IDB, doctorID uuid.UUID) ([]domain.AvailabilityWindow, error) {
	var rows []domain.AvailabilityWindow
	err := db.NewSelect().
		Model(&rows).
		Where("doctor_id = ?", doctorID).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// windowsForDoctorOnDate applies the specific-date precedence rule: if any
// window names the date explicitly, recurring weekday windows are ignored
// for that date.
func windowsForDoctorOnDate(ctx context.Context, db bun.IDB, doctorID uuid.UUID, date time.Time) ([]domain.AvailabilityWindow, error) {
	day := domain.DateOf(date)

	var rows []domain.AvailabilityWindow
	err := db.NewSelect().
		Model(&rows).
		Where("doctor_id = ?", doctorID).
		Where("specific_date = ?", day).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}

	err = db.NewSelect().
		Model(&rows).
		Where("doctor_id = ?", doctorID).
		Where("specific_date IS NULL").
		Where("weekday = ?", int16(day.Weekday())).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mapWriteError translates the schema's overlap guards into the store's
// conflict sentinel. 23P01 is exclusion_violation.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
		return store.ErrConflict
	}
	return err
}
