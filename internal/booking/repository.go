package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrSlotNotFound        = errors.New("availability slot not found")
	ErrSlotAlreadyBooked   = errors.New("availability slot already booked")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// ReserveParams carries everything the reservation transaction needs.
// StartTime and EndTime are timezone-aware instants; PatientName is only
// used when the patient record does not exist yet.
type ReserveParams struct {
	SlotID       uuid.UUID
	DoctorID     uuid.UUID
	PatientEmail string
	PatientName  string
	StartTime    time.Time
	EndTime      time.Time
	Reason       *string
}

// Reservation is the durable outcome of a committed reservation transaction.
type Reservation struct {
	Appointment *Appointment
	Patient     *Patient
}

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	GetDoctorByEmail(ctx context.Context, email string) (*Doctor, error)

	// GetSlot looks a slot up by (doctor, naive wall-clock start time),
	// exact match only.
	GetSlot(ctx context.Context, doctorID uuid.UUID, startTime time.Time) (*AvailabilitySlot, error)

	// ReserveSlot atomically flips the slot to booked, creates the patient
	// if absent and inserts the appointment. It either commits all three or
	// nothing. Returns ErrSlotAlreadyBooked when the slot was taken between
	// the caller's check and the conditional update.
	ReserveSlot(ctx context.Context, params ReserveParams) (*Reservation, error)

	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
}
