// Package google implements calendar.Service on the Google Calendar API.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"room8/internal/calendar"
)

// Scope is the OAuth scope the client needs.
const Scope = gcal.CalendarEventsScope

// Config selects the calendar and credentials. Service account credentials
// win over OAuth client credentials when both are present.
type Config struct {
	CalendarID         string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenJSON     string
	OAuthTokenFile     string
	// Location is the zone events are written in; nil means UTC.
	Location *time.Location
}

type Client struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
}

var _ calendar.Service = (*Client)(nil)

// New authenticates and returns a client for cfg.CalendarID.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.CalendarID) == "" {
		return nil, errors.New("missing calendar id")
	}

	auth, err := credentialOption(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, cfg.CalendarID, cfg.Location, auth)
}

// NewWithOptions builds a client from raw API options.
func NewWithOptions(ctx context.Context, calendarID string, loc *time.Location, opts ...option.ClientOption) (*Client, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Client{svc: svc, calendarID: calendarID, loc: eventLocation(loc)}, nil
}

func credentialOption(ctx context.Context, cfg Config) (option.ClientOption, error) {
	serviceAccount, err := readSecret(cfg.ServiceAccountJSON, cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account: %w", err)
	}
	if serviceAccount != nil {
		slog.InfoContext(ctx, "Using service account credentials for Google Calendar")
		return option.WithCredentialsJSON(serviceAccount), nil
	}

	clientJSON, err := readSecret(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	tokenJSON, err := readSecret(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	if clientJSON == nil || tokenJSON == nil {
		return nil, errors.New("missing calendar credentials (set a service account or an OAuth client and token)")
	}

	oauthCfg, err := googleoauth.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	slog.InfoContext(ctx, "Using OAuth credentials for Google Calendar")
	return option.WithTokenSource(oauthCfg.TokenSource(ctx, &token)), nil
}

// readSecret prefers inline JSON over a file path; both empty yields nil.
func readSecret(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if path = strings.TrimSpace(path); path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// The API rejects the pseudo-zone "Local".
func eventLocation(loc *time.Location) *time.Location {
	if loc == nil || loc.String() == "Local" {
		return time.UTC
	}
	return loc
}

func (c *Client) CreateEvent(ctx context.Context, e calendar.Event) (string, error) {
	created, err := c.svc.Events.Insert(c.calendarID, c.toAPI(e)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event for chore %s: %w", e.ChoreID, translate(err))
	}
	return created.Id, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, e calendar.Event) error {
	if _, err := c.svc.Events.Update(c.calendarID, id, c.toAPI(e)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update event %s: %w", id, translate(err))
	}
	return nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	if err := c.svc.Events.Delete(c.calendarID, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event %s: %w", id, translate(err))
	}
	return nil
}

func (c *Client) toAPI(e calendar.Event) *gcal.Event {
	ev := &gcal.Event{
		Summary:     e.Title,
		Description: e.Description,
		Start:       c.dateTime(e.Start),
		End:         c.dateTime(e.End),
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "popup", Minutes: int64(e.ReminderMinutes)},
			},
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{calendar.ChoreIDProperty: e.ChoreID},
		},
	}
	if rule := e.RRule(); rule != "" {
		ev.Recurrence = []string{rule}
	}
	for _, email := range e.Attendees {
		ev.Attendees = append(ev.Attendees, &gcal.EventAttendee{Email: email})
	}
	return ev
}

func (c *Client) dateTime(t time.Time) *gcal.EventDateTime {
	return &gcal.EventDateTime{
		DateTime: t.In(c.loc).Format(time.RFC3339),
		TimeZone: c.loc.String(),
	}
}

func translate(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return fmt.Errorf("%w: %v", calendar.ErrEventNotFound, err)
	}
	return err
}
