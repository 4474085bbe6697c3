package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/healthdesk/clinic-booking/pkg/logging"
)

// Client creates calendar events for booked appointments. An empty link with
// a nil error means the provider accepted the call but returned no event.
type Client interface {
	CreateEvent(ctx context.Context, ev Event) (string, error)
}

// Event is the provider-independent shape of an appointment calendar entry.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// GoogleClient creates events through the Google Calendar API.
type GoogleClient struct {
	svc        *gcal.Service
	calendarID string
	logger     *logging.Logger
}

func NewGoogleClient(ctx context.Context, credentialsFile, calendarID string, logger *logging.Logger) (*GoogleClient, error) {
	if logger == nil {
		logger = logging.Default()
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarEventsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: create google service: %w", err)
	}

	return &GoogleClient{
		svc:        svc,
		calendarID: calendarID,
		logger:     logger,
	}, nil
}

func (c *GoogleClient) CreateEvent(ctx context.Context, ev Event) (string, error) {
	attendees := make([]*gcal.EventAttendee, 0, len(ev.Attendees))
	for _, email := range ev.Attendees {
		attendees = append(attendees, &gcal.EventAttendee{Email: email})
	}

	event := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.Start.Location().String(),
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.End.Location().String(),
		},
		Attendees: attendees,
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).SendUpdates("all").Do()
	if err != nil {
		c.logger.Error("google calendar insert failed", "error", err, "summary", ev.Summary)
		return "", fmt.Errorf("calendar: insert event: %w", err)
	}

	c.logger.Info("calendar event created", "link", created.HtmlLink, "summary", ev.Summary)
	return created.HtmlLink, nil
}

// StubClient logs instead of calling Google. Used in dev when credentials
// are not configured.
type StubClient struct {
	logger *logging.Logger
}

func NewStubClient(logger *logging.Logger) *StubClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubClient{logger: logger}
}

func (c *StubClient) CreateEvent(ctx context.Context, ev Event) (string, error) {
	c.logger.Info("stub calendar client: would create event", "summary", ev.Summary, "start", ev.Start)
	return "https://calendar.example/stub-event", nil
}
