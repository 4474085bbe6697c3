package booking

import "github.com/google/uuid"

const (
	StatusSuccess = "success"
	StatusError   = "error"

	// NotAttempted marks the email/calendar outcome fields until their
	// phase actually runs.
	NotAttempted = "not attempted"
)

// BookingResult is the aggregate report returned by every booking call.
// All fields are populated on every return path: the reservation outcome in
// Status/Message/AppointmentID, and the two best-effort phases in their own
// status fields, which never influence Status.
type BookingResult struct {
	Status            string     `json:"status"`
	Message           string     `json:"message"`
	AppointmentID     *uuid.UUID `json:"appointment_id"`
	EmailStatus       string     `json:"email_status"`
	CalendarEventLink string     `json:"calendar_event_link"`
}

func newResult() BookingResult {
	return BookingResult{
		Status:            StatusSuccess,
		EmailStatus:       NotAttempted,
		CalendarEventLink: NotAttempted,
	}
}

// withError returns a copy marked as failed. The receiver is a value on
// purpose: phases hand updated copies forward instead of sharing state.
func (r BookingResult) withError(message string) BookingResult {
	r.Status = StatusError
	r.Message = message
	return r
}
