package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthdesk/clinic-booking/internal/booking"
	"github.com/healthdesk/clinic-booking/pkg/logging"
)

type fakeService struct {
	result booking.BookingResult
	err    error

	detail    *booking.AppointmentDetail
	detailErr error

	lastRequest booking.BookingRequest
}

func (f *fakeService) Book(ctx context.Context, req booking.BookingRequest) (booking.BookingResult, error) {
	f.lastRequest = req
	return f.result, f.err
}

func (f *fakeService) GetAppointment(ctx context.Context, id uuid.UUID) (*booking.AppointmentDetail, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.detail, nil
}

func newTestRouter(svc *fakeService) http.Handler {
	return NewRouter(RouterConfig{
		Service: svc,
		Env:     "test",
		Version: "test",
		Logger:  logging.New("error"),
	})
}

func postBooking(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const validBody = `{
	"patient_email": "p@x.com",
	"doctor_email": "dr@x.com",
	"appointment_time": "2024-06-01 10:00:00",
	"reason": "checkup"
}`

func TestBookAppointmentCreated(t *testing.T) {
	apptID := uuid.New()
	svc := &fakeService{
		result: booking.BookingResult{
			Status:            booking.StatusSuccess,
			Message:           "Appointment created with ID " + apptID.String() + ". Email status: Email sent successfully. Calendar status: https://cal/link",
			AppointmentID:     &apptID,
			EmailStatus:       "Email sent successfully.",
			CalendarEventLink: "https://cal/link",
		},
	}

	rec := postBooking(t, newTestRouter(svc), validBody)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var res booking.BookingResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, booking.StatusSuccess, res.Status)
	require.NotNil(t, res.AppointmentID)
	assert.Equal(t, apptID, *res.AppointmentID)
	assert.Equal(t, "Email sent successfully.", res.EmailStatus)

	assert.Equal(t, "p@x.com", svc.lastRequest.PatientEmail)
	assert.Equal(t, "checkup", svc.lastRequest.Reason)
}

func TestBookAppointmentInvalidJSON(t *testing.T) {
	rec := postBooking(t, newTestRouter(&fakeService{}), "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request_body")
}

func TestBookAppointmentMissingFields(t *testing.T) {
	rec := postBooking(t, newTestRouter(&fakeService{}), `{"patient_email": "p@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_fields")
}

func TestBookAppointmentErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"doctor not found", booking.ErrDoctorNotFound, http.StatusNotFound},
		{"slot not found", booking.ErrSlotNotFound, http.StatusNotFound},
		{"already booked", booking.ErrSlotAlreadyBooked, http.StatusConflict},
		{"being booked", booking.ErrSlotBeingBooked, http.StatusConflict},
		{"bad time format", booking.ErrInvalidTimeFormat, http.StatusBadRequest},
		{"storage failure", assertAnError(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{
				result: booking.BookingResult{
					Status:            booking.StatusError,
					Message:           "it failed",
					EmailStatus:       booking.NotAttempted,
					CalendarEventLink: booking.NotAttempted,
				},
				err: tt.err,
			}

			rec := postBooking(t, newTestRouter(svc), validBody)
			assert.Equal(t, tt.wantStatus, rec.Code)

			// The aggregate result body comes back even on errors.
			var res booking.BookingResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, booking.StatusError, res.Status)
			assert.Equal(t, booking.NotAttempted, res.EmailStatus)
			assert.Equal(t, booking.NotAttempted, res.CalendarEventLink)
			assert.Nil(t, res.AppointmentID)
		})
	}
}

func TestGetAppointment(t *testing.T) {
	apptID := uuid.New()
	svc := &fakeService{
		detail: &booking.AppointmentDetail{
			Appointment: booking.Appointment{
				ID:     apptID,
				Status: booking.StatusScheduled,
			},
			PatientName:  "p",
			PatientEmail: "p@x.com",
			DoctorName:   "X",
			DoctorEmail:  "dr@x.com",
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/bookings/"+apptID.String(), nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res AppointmentDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, apptID, res.ID)
	assert.Equal(t, "p", res.PatientName)
	assert.Equal(t, "scheduled", res.Status)
}

func TestGetAppointmentBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/bookings/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	newTestRouter(&fakeService{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_appointment_id")
}

func TestGetAppointmentNotFound(t *testing.T) {
	svc := &fakeService{detailErr: booking.ErrAppointmentNotFound}

	req := httptest.NewRequest(http.MethodGet, "/bookings/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "appointment_not_found")
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/bookings/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	newTestRouter(&fakeService{}).ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddlewarePreservesHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/bookings/not-a-uuid", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	newTestRouter(&fakeService{}).ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func assertAnError() error {
	return errors.New("pg is down")
}
