package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthdesk/clinic-booking/internal/calendar"
	"github.com/healthdesk/clinic-booking/internal/notify"
	redisclient "github.com/healthdesk/clinic-booking/internal/redis"
	"github.com/healthdesk/clinic-booking/pkg/logging"
)

// TimeLayout is the only accepted shape for requested appointment times.
// The value is naive wall-clock in the service's reference timezone.
const TimeLayout = "2006-01-02 15:04:05"

const appointmentDuration = 30 * time.Minute

var (
	ErrInvalidTimeFormat = errors.New("invalid appointment time format")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
)

// BookingRequest is the caller input for a booking attempt.
type BookingRequest struct {
	PatientEmail    string
	DoctorEmail     string
	AppointmentTime string
	Reason          string
}

// Service orchestrates the three booking phases: the transactional slot
// reservation, then the best-effort confirmation email and calendar event.
type Service struct {
	repo     Repository
	locker   redisclient.Locker
	mailer   notify.Sender
	calendar calendar.Client
	location *time.Location
	logger   *logging.Logger
}

func NewService(repo Repository, locker redisclient.Locker, mailer notify.Sender, cal calendar.Client, location *time.Location, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		locker:   locker,
		mailer:   mailer,
		calendar: cal,
		location: location,
		logger:   logger,
	}
}

// Book validates the requested slot against the doctor's availability, claims
// it atomically, and then fires the confirmation email and calendar event.
//
// The returned BookingResult is fully populated on every path. The error is
// non-nil exactly when the result status is "error" and exposes the phase-1
// failure (ErrDoctorNotFound, ErrSlotNotFound, ErrSlotAlreadyBooked,
// ErrSlotBeingBooked, ErrInvalidTimeFormat, or a storage error) so callers can
// map it; failures in the email or calendar phase never surface here.
func (s *Service) Book(ctx context.Context, req BookingRequest) (BookingResult, error) {
	res := newResult()

	naive, err := time.Parse(TimeLayout, req.AppointmentTime)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrInvalidTimeFormat, err)
		return res.withError(fmt.Sprintf("Database error: %v", err)), wrapped
	}

	// Localize the naive wall-clock value to the reference timezone to get
	// the authoritative start instant.
	start := time.Date(naive.Year(), naive.Month(), naive.Day(), naive.Hour(), naive.Minute(), naive.Second(), 0, s.location)
	end := start.Add(appointmentDuration)

	doctor, err := s.repo.GetDoctorByEmail(ctx, req.DoctorEmail)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return res.withError(fmt.Sprintf("Doctor with email %s not found.", req.DoctorEmail)), err
		}
		return res.withError(fmt.Sprintf("Database error: %v", err)), err
	}

	slot, err := s.repo.GetSlot(ctx, doctor.ID, naive)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return res.withError(fmt.Sprintf("The requested time slot %s is not a valid availability for Dr. %s.", req.AppointmentTime, doctor.Name)), err
		}
		return res.withError(fmt.Sprintf("Database error: %v", err)), err
	}

	if slot.Booked {
		return res.withError(fmt.Sprintf("Sorry, the time slot %s for Dr. %s has already been booked.", req.AppointmentTime, doctor.Name)), ErrSlotAlreadyBooked
	}

	var reason *string
	if req.Reason != "" {
		reason = &req.Reason
	}

	var reservation *Reservation
	err = s.locker.WithSlotLock(ctx, slot.ID, func(lockCtx context.Context) error {
		rsv, err := s.repo.ReserveSlot(lockCtx, ReserveParams{
			SlotID:       slot.ID,
			DoctorID:     doctor.ID,
			PatientEmail: req.PatientEmail,
			PatientName:  displayNameFromEmail(req.PatientEmail),
			StartTime:    start,
			EndTime:      end,
			Reason:       reason,
		})
		if err != nil {
			return err
		}
		reservation = rsv
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotAlreadyBooked):
			return res.withError(fmt.Sprintf("Sorry, the time slot %s for Dr. %s has already been booked.", req.AppointmentTime, doctor.Name)), err
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			return res.withError(fmt.Sprintf("Sorry, the time slot %s for Dr. %s is currently being booked. Please try again.", req.AppointmentTime, doctor.Name)), ErrSlotBeingBooked
		default:
			return res.withError(fmt.Sprintf("Database error: %v", err)), err
		}
	}

	appt := reservation.Appointment
	res.AppointmentID = &appt.ID

	s.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"doctor_id", doctor.ID,
		"slot_id", slot.ID,
		"start_time", start,
	)

	// Best-effort phases. Their outcomes are recorded in the result and
	// never roll back or fail the committed reservation.
	res.EmailStatus = s.sendConfirmation(ctx, reservation.Patient, doctor, start)
	res.CalendarEventLink = s.createCalendarEvent(ctx, reservation.Patient, doctor, req.Reason, start, end)

	res.Message = fmt.Sprintf("Appointment created with ID %s. Email status: %s. Calendar status: %s",
		appt.ID, res.EmailStatus, res.CalendarEventLink)

	return res, nil
}

// GetAppointment retrieves a booked appointment with denormalized names.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return detail, nil
}

func (s *Service) sendConfirmation(ctx context.Context, patient *Patient, doctor *Doctor, start time.Time) string {
	body := fmt.Sprintf("Dear %s,\n\nYour appointment with Dr. %s on %s is confirmed.",
		patient.Name, doctor.Name, start.Format("2006-01-02 at 15:04 MST"))

	sent, err := s.mailer.Send(ctx, notify.Message{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: "Your Appointment Confirmation",
		Body:    body,
	})
	if err != nil {
		s.logger.Error("confirmation email failed", "error", err, "to", patient.Email)
		return fmt.Sprintf("An unexpected error occurred during email sending: %v", err)
	}
	if !sent {
		return "Email sending failed."
	}
	return "Email sent successfully."
}

func (s *Service) createCalendarEvent(ctx context.Context, patient *Patient, doctor *Doctor, reason string, start, end time.Time) string {
	if reason == "" {
		reason = "N/A"
	}

	link, err := s.calendar.CreateEvent(ctx, calendar.Event{
		Summary:     fmt.Sprintf("Appointment: %s with Dr. %s", patient.Name, doctor.Name),
		Description: fmt.Sprintf("Reason: %s", reason),
		Start:       start,
		End:         end,
		Attendees:   []string{patient.Email, doctor.Email},
	})
	if err != nil {
		s.logger.Error("calendar event failed", "error", err, "doctor_id", doctor.ID)
		return fmt.Sprintf("An unexpected error occurred during calendar event creation: %v", err)
	}
	if link == "" {
		return "Failed to create calendar event."
	}
	return link
}

// displayNameFromEmail derives a patient display name from the local part of
// the email address, used when auto-creating a patient record.
func displayNameFromEmail(email string) string {
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return email
}
