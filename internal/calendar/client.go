// Package calendar imports upcoming events from a user's Google Calendar so
// the dashboard can suggest focus blocks around meetings. Calendar
// integration is a Pro-tier feature; the handler enforces that, this package
// only reads events.
package calendar

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"focusflow/internal/config"
	"focusflow/internal/types"
)

// Client lists upcoming events on behalf of a user using their stored OAuth
// access token.
type Client struct {
	maxEvents     int
	lookaheadDays int
	timeout       time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// NewClient creates a calendar Client.
func NewClient(cfg config.CalendarConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		maxEvents:     cfg.MaxEvents,
		lookaheadDays: cfg.LookaheadDays,
		timeout:       cfg.Timeout,
		now:           time.Now,
		logger:        logger,
	}
}

// UpcomingEvents returns the user's next events on their primary calendar,
// normalized to the service's event shape. The accessToken is the user's
// Google OAuth token obtained by the identity provider.
func (c *Client) UpcomingEvents(ctx context.Context, userID, accessToken string) ([]types.CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gcal.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamCalendar, "failed to initialize calendar service", err)
	}

	start := c.now().UTC()
	end := start.AddDate(0, 0, c.lookaheadDays)

	res, err := svc.Events.List("primary").
		Context(ctx).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		MaxResults(int64(c.maxEvents)).
		Do()
	if err != nil {
		c.logger.ErrorContext(ctx, "calendar event listing failed",
			"op", "UpcomingEvents",
			"user_id", userID,
			"error", err,
		)
		return nil, types.NewAppError(types.ErrCodeUpstreamCalendar, "calendar service unavailable", err)
	}

	events := make([]types.CalendarEvent, 0, len(res.Items))
	for _, item := range res.Items {
		ev, ok := normalizeEvent(item)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// normalizeEvent converts a Google Calendar event into the service's shape.
// Events with unparseable times are skipped rather than failing the listing.
func normalizeEvent(item *gcal.Event) (types.CalendarEvent, bool) {
	if item == nil || item.Start == nil || item.End == nil {
		return types.CalendarEvent{}, false
	}

	// All-day events carry a date, timed events a dateTime.
	allDay := item.Start.DateTime == ""

	start, err := parseEventTime(item.Start, allDay)
	if err != nil {
		return types.CalendarEvent{}, false
	}
	end, err := parseEventTime(item.End, allDay)
	if err != nil {
		return types.CalendarEvent{}, false
	}

	return types.CalendarEvent{
		ID:      item.Id,
		Summary: item.Summary,
		Start:   start,
		End:     end,
		AllDay:  allDay,
	}, true
}

func parseEventTime(edt *gcal.EventDateTime, allDay bool) (time.Time, error) {
	if allDay {
		return time.Parse("2006-01-02", edt.Date)
	}
	return time.Parse(time.RFC3339, edt.DateTime)
}
