package api

import (
	"time"

	"github.com/google/uuid"
)

type BookAppointmentRequest struct {
	PatientEmail    string `json:"patient_email"`
	DoctorEmail     string `json:"doctor_email"`
	AppointmentTime string `json:"appointment_time"`
	Reason          string `json:"reason,omitempty"`
}

type AppointmentDetailResponse struct {
	ID           uuid.UUID `json:"id"`
	PatientName  string    `json:"patient_name"`
	PatientEmail string    `json:"patient_email"`
	DoctorName   string    `json:"doctor_name"`
	DoctorEmail  string    `json:"doctor_email"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Reason       *string   `json:"reason,omitempty"`
	Status       string    `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
