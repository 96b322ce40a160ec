package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tartampluch/go-quickevent/internal/composer"
	"github.com/tartampluch/go-quickevent/internal/config"
	"github.com/tartampluch/go-quickevent/internal/directory"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// EventCreator inserts an approved draft into a calendar and returns the
// provider's event identifier.
type EventCreator interface {
	Create(ctx context.Context, calendarID string, draft composer.EventDraft) (string, error)
}

// GoogleCreator implements EventCreator against the Google Calendar API.
type GoogleCreator struct {
	Tokens directory.TokenProvider
}

// Create inserts the draft. The credential is acquired silently; the UI is
// responsible for running the interactive sign-in before offering creation.
func (g *GoogleCreator) Create(ctx context.Context, calendarID string, draft composer.EventDraft) (string, error) {
	token, err := g.Tokens.Token(ctx, false)
	if err != nil {
		return "", err
	}

	svc, err := gcal.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(token)),
		option.WithUserAgent(config.UserAgent),
	)
	if err != nil {
		return "", err
	}

	created, err := svc.Events.Insert(calendarID, eventFromDraft(draft)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateFailed, err)
	}

	slog.Info(config.MsgEventCreated,
		config.LogKeyComponent, config.CompCalendar,
		config.LogKeyEventID, created.Id,
		config.LogKeyCalendar, calendarID,
	)
	return created.Id, nil
}

// eventFromDraft maps a draft to the wire representation. All-day events
// carry date-only boundaries; timed events carry RFC 3339 timestamps with
// the draft's own offsets.
func eventFromDraft(d composer.EventDraft) *gcal.Event {
	ev := &gcal.Event{
		Summary:     d.Title,
		Description: d.Description,
		Location:    d.Location,
	}

	if d.AllDay {
		ev.Start = &gcal.EventDateTime{Date: d.Start.Format(config.DateFormatDateOnly)}
		ev.End = &gcal.EventDateTime{Date: d.End.Format(config.DateFormatDateOnly)}
	} else {
		ev.Start = &gcal.EventDateTime{DateTime: d.Start.Format(time.RFC3339)}
		ev.End = &gcal.EventDateTime{DateTime: d.End.Format(time.RFC3339)}
	}

	for _, email := range d.Attendees {
		ev.Attendees = append(ev.Attendees, &gcal.EventAttendee{Email: email})
	}
	return ev
}
