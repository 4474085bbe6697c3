package booking

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
)

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailabilitySlot is a doctor-published time window eligible for booking.
// StartTime is a naive wall-clock value (timestamp without time zone) and
// together with DoctorID uniquely identifies the slot.
type AvailabilitySlot struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Booked    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	SlotID    uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Reason    *string
	Status    AppointmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppointmentDetail is an appointment hydrated with the names and emails
// a caller needs to render it without further lookups.
type AppointmentDetail struct {
	Appointment
	PatientName  string
	PatientEmail string
	DoctorName   string
	DoctorEmail  string
}
