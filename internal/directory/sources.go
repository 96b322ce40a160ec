package directory

import (
	"context"
	"time"

	"github.com/tartampluch/go-quickevent/internal/config"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

// TokenProvider supplies an OAuth credential for the directory fetches.
// With interactive=false the provider must never prompt the user; it returns
// an error when no credential can be produced silently.
type TokenProvider interface {
	Token(ctx context.Context, interactive bool) (*oauth2.Token, error)
}

// Source fetches contact candidates from one upstream system.
// Implementations map their records with the shared fromPerson rules and
// report transport or decode problems as errors; the aggregator normalizes
// a failed source to an empty list without cancelling its siblings.
type Source interface {
	Name() string
	Fetch(ctx context.Context, token *oauth2.Token) ([]Contact, error)
}

// Searcher runs the on-demand fuzzy search path against the directory.
type Searcher interface {
	Search(ctx context.Context, token *oauth2.Token, query string) ([]Contact, error)
}

// NewGoogleSources returns the production source set in priority order:
// explicit contacts outrank frequency-based contacts outrank meeting
// co-attendees. The order of this slice is a design decision the merge
// depends on, not an accident of construction.
func NewGoogleSources(clock Clock) []Source {
	return []Source{
		connectionsSource{},
		otherContactsSource{},
		attendeesSource{Clock: clock},
	}
}

// peopleService builds a People API client bound to the given credential.
func peopleService(ctx context.Context, token *oauth2.Token) (*people.Service, error) {
	return people.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(token)),
		option.WithUserAgent(config.UserAgent),
	)
}

// connectionsSource lists the user's explicit address-book entries.
type connectionsSource struct{}

func (connectionsSource) Name() string { return config.SourceConnections }

func (connectionsSource) Fetch(ctx context.Context, token *oauth2.Token) ([]Contact, error) {
	svc, err := peopleService(ctx, token)
	if err != nil {
		return nil, err
	}
	resp, err := svc.People.Connections.List(config.PeopleResourceSelf).
		PersonFields(config.PersonFieldsBasic).
		PageSize(config.PeoplePageSize).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return mapPersons(resp.Connections), nil
}

// otherContactsSource lists frequently-contacted people that were never
// explicitly saved to the address book.
type otherContactsSource struct{}

func (otherContactsSource) Name() string { return config.SourceOtherContacts }

func (otherContactsSource) Fetch(ctx context.Context, token *oauth2.Token) ([]Contact, error) {
	svc, err := peopleService(ctx, token)
	if err != nil {
		return nil, err
	}
	resp, err := svc.OtherContacts.List().
		ReadMask(config.PersonFieldsBasic).
		PageSize(config.PeoplePageSize).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return mapPersons(resp.OtherContacts), nil
}

// attendeesSource scans recent calendar events and extracts co-attendees.
// The scan covers events starting within the trailing AttendeeWindowDays,
// bounded to MaxAttendeeEvents, and never yields the authenticated user or
// room/resource attendees. This source supplies no photos.
type attendeesSource struct {
	Clock Clock
}

func (attendeesSource) Name() string { return config.SourceAttendees }

func (s attendeesSource) Fetch(ctx context.Context, token *oauth2.Token) ([]Contact, error) {
	svc, err := calendar.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(token)),
		option.WithUserAgent(config.UserAgent),
	)
	if err != nil {
		return nil, err
	}

	timeMin := s.Clock.Now().AddDate(0, 0, -config.AttendeeWindowDays)
	resp, err := svc.Events.List(config.DefaultCalendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy(config.CalendarOrderBy).
		MaxResults(config.MaxAttendeeEvents).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return contactsFromEvents(resp.Items), nil
}

// contactsFromEvents extracts attendee contacts from an event list.
// Split out of Fetch so the exclusion rules stay testable without a network.
func contactsFromEvents(items []*calendar.Event) []Contact {
	var contacts []Contact
	for _, ev := range items {
		if ev == nil {
			continue
		}
		for _, a := range ev.Attendees {
			if a == nil || a.Email == "" || a.Self || a.Resource {
				continue
			}
			name := a.DisplayName
			if name == "" {
				name = a.Email
			}
			contacts = append(contacts, Contact{
				ID:    a.Email, // attendees carry no resource identifier
				Name:  name,
				Email: a.Email,
			})
		}
	}
	return contacts
}

// GoogleSearcher implements Searcher against the other-contacts fuzzy
// search endpoint.
type GoogleSearcher struct{}

// Search issues a single fuzzy-search request and maps the results with the
// shared rules. Entries lacking a resolvable email are dropped.
func (GoogleSearcher) Search(ctx context.Context, token *oauth2.Token, query string) ([]Contact, error) {
	svc, err := peopleService(ctx, token)
	if err != nil {
		return nil, err
	}
	resp, err := svc.OtherContacts.Search().
		Query(query).
		ReadMask(config.PersonFieldsBasic).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	contacts := make([]Contact, 0, len(resp.Results))
	for _, res := range resp.Results {
		if res == nil {
			continue
		}
		if c, ok := fromPerson(res.Person); ok {
			contacts = append(contacts, c)
		}
	}
	return contacts, nil
}
