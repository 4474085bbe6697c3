// simulate fires concurrent booking requests at a single availability slot
// and verifies that exactly one of them wins. It exercises the double-booking
// guard end to end against a running api-server.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type bookRequest struct {
	PatientEmail    string `json:"patient_email"`
	DoctorEmail     string `json:"doctor_email"`
	AppointmentTime string `json:"appointment_time"`
	Reason          string `json:"reason,omitempty"`
}

type bookResult struct {
	Status            string  `json:"status"`
	Message           string  `json:"message"`
	AppointmentID     *string `json:"appointment_id"`
	EmailStatus       string  `json:"email_status"`
	CalendarEventLink string  `json:"calendar_event_link"`
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "api-server base URL")
	doctorEmail := flag.String("doctor-email", "", "doctor email with a free slot (required)")
	slotTime := flag.String("slot-time", "", `slot start time, "YYYY-MM-DD HH:MM:SS" (required)`)
	workers := flag.Int("workers", 20, "number of concurrent booking attempts")
	flag.Parse()

	if *doctorEmail == "" || *slotTime == "" {
		flag.Usage()
		os.Exit(2)
	}

	log.Printf("firing %d concurrent bookings at %s / %s", *workers, *doctorEmail, *slotTime)

	client := &http.Client{Timeout: 30 * time.Second}

	var created, conflict, other int64
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			req := bookRequest{
				PatientEmail:    fmt.Sprintf("sim-patient-%d@example.com", n),
				DoctorEmail:     *doctorEmail,
				AppointmentTime: *slotTime,
				Reason:          "load simulation",
			}

			status, res, err := book(client, *baseURL, req)
			if err != nil {
				log.Printf("worker %d: request error: %v", n, err)
				atomic.AddInt64(&other, 1)
				return
			}

			switch status {
			case http.StatusCreated:
				atomic.AddInt64(&created, 1)
				log.Printf("worker %d: booked, appointment_id=%v", n, deref(res.AppointmentID))
			case http.StatusConflict:
				atomic.AddInt64(&conflict, 1)
			default:
				atomic.AddInt64(&other, 1)
				log.Printf("worker %d: unexpected status %d: %s", n, status, res.Message)
			}
		}(i)
	}

	wg.Wait()

	log.Printf("done: created=%d conflict=%d other=%d", created, conflict, other)

	if created != 1 {
		log.Fatalf("FAIL: expected exactly 1 successful booking, got %d", created)
	}
	log.Println("OK: exactly one booking won the slot")
}

func book(client *http.Client, baseURL string, req bookRequest) (int, bookResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, bookResult{}, err
	}

	resp, err := client.Post(baseURL+"/bookings", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, bookResult{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, bookResult{}, err
	}

	var res bookResult
	if err := json.Unmarshal(data, &res); err != nil {
		return resp.StatusCode, bookResult{}, fmt.Errorf("decode response: %w", err)
	}

	return resp.StatusCode, res, nil
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
