package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/healthdesk/clinic-booking/internal/booking"
)

// BookingService is the part of booking.Service the handlers use.
type BookingService interface {
	Book(ctx context.Context, req booking.BookingRequest) (booking.BookingResult, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*booking.AppointmentDetail, error)
}

func bookAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.PatientEmail == "" || req.DoctorEmail == "" || req.AppointmentTime == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "patient_email, doctor_email and appointment_time are required")
			return
		}

		result, err := svc.Book(r.Context(), booking.BookingRequest{
			PatientEmail:    req.PatientEmail,
			DoctorEmail:     req.DoctorEmail,
			AppointmentTime: req.AppointmentTime,
			Reason:          req.Reason,
		})

		// The result body is returned on every path; only the HTTP status
		// varies with the reservation outcome.
		writeJSON(w, bookStatusCode(err), result)
	}
}

func bookStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusCreated
	case errors.Is(err, booking.ErrDoctorNotFound),
		errors.Is(err, booking.ErrSlotNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrSlotAlreadyBooked),
		errors.Is(err, booking.ErrSlotBeingBooked):
		return http.StatusConflict
	case errors.Is(err, booking.ErrInvalidTimeFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func getAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "id")
		id, err := uuid.Parse(idStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, booking.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", "no appointment with that id")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, AppointmentDetailResponse{
			ID:           detail.ID,
			PatientName:  detail.PatientName,
			PatientEmail: detail.PatientEmail,
			DoctorName:   detail.DoctorName,
			DoctorEmail:  detail.DoctorEmail,
			StartTime:    detail.StartTime,
			EndTime:      detail.EndTime,
			Reason:       detail.Reason,
			Status:       string(detail.Status),
		})
	}
}
