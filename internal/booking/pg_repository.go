package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgxpool.Pool the repository uses. pgxmock satisfies it
// too, which keeps the transaction paths testable without a live database.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var specialty *string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Email,
		&specialty,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Specialty = specialty
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func scanSlot(row pgx.Row) (*AvailabilitySlot, error) {
	var s AvailabilitySlot

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.StartTime,
		&s.EndTime,
		&s.Booked,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var reason *string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.SlotID,
		&a.StartTime,
		&a.EndTime,
		&reason,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Reason = reason
	return &a, nil
}

// Interface methods

func (r *PgRepository) GetDoctorByEmail(ctx context.Context, email string) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, specialty, created_at, updated_at
		FROM doctors
		WHERE email = $1
	`, email)
	return scanDoctor(row)
}

func (r *PgRepository) GetSlot(ctx context.Context, doctorID uuid.UUID, startTime time.Time) (*AvailabilitySlot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, doctor_id, start_time, end_time, booked, created_at, updated_at
		FROM availability_slots
		WHERE doctor_id = $1 AND start_time = $2
	`, doctorID, startTime)
	return scanSlot(row)
}

func (r *PgRepository) ReserveSlot(ctx context.Context, params ReserveParams) (*Reservation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reservation: %w", err)
	}
	defer tx.Rollback(ctx)

	// Conditional update is the authoritative double-booking guard: it only
	// succeeds for the first committed transaction touching this slot.
	tag, err := tx.Exec(ctx, `
		UPDATE availability_slots
		SET booked = TRUE,
		    updated_at = now()
		WHERE id = $1
		  AND booked = FALSE
	`, params.SlotID)
	if err != nil {
		return nil, fmt.Errorf("mark slot booked: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrSlotAlreadyBooked
	}

	patient, err := r.getOrCreatePatient(ctx, tx, params.PatientEmail, params.PatientName)
	if err != nil {
		return nil, fmt.Errorf("resolve patient: %w", err)
	}

	apptID := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, slot_id, start_time, end_time, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'scheduled', now(), now())
		RETURNING id, patient_id, doctor_id, slot_id, start_time, end_time, reason, status, created_at, updated_at
	`, apptID, patient.ID, params.DoctorID, params.SlotID, params.StartTime, params.EndTime, params.Reason)

	appt, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reservation: %w", err)
	}

	return &Reservation{Appointment: appt, Patient: patient}, nil
}

func (r *PgRepository) getOrCreatePatient(ctx context.Context, tx pgx.Tx, email, name string) (*Patient, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE email = $1
	`, email)

	patient, err := scanPatient(row)
	if err == nil {
		return patient, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	row = tx.QueryRow(ctx, `
		INSERT INTO patients (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, name, email, created_at, updated_at
	`, uuid.New(), name, email)

	return scanPatient(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.db.QueryRow(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.slot_id, a.start_time, a.end_time, a.reason, a.status, a.created_at, a.updated_at,
		       p.name, p.email, d.name, d.email
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.id = $1
	`, id)

	var detail AppointmentDetail
	var reason *string

	err := row.Scan(
		&detail.ID,
		&detail.PatientID,
		&detail.DoctorID,
		&detail.SlotID,
		&detail.StartTime,
		&detail.EndTime,
		&reason,
		&detail.Status,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.PatientName,
		&detail.PatientEmail,
		&detail.DoctorName,
		&detail.DoctorEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	detail.Reason = reason
	return &detail, nil
}
