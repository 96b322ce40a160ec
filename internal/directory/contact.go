package directory

import (
	"time"

	"github.com/tartampluch/go-quickevent/internal/config"
	"google.golang.org/api/people/v1"
)

// Contact is a single directory entry as exposed to the UI layer.
// Email is the dedup key: a record without a resolvable email never enters
// a contact list. ID falls back to the email when the upstream system has
// no resource identifier for the record.
type Contact struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PhotoURL      string     `json:"photoUrl,omitempty"`
	LastContacted *time.Time `json:"lastContacted,omitempty"` // reserved, not used for ordering yet
}

// fromPerson maps a People API record to a Contact.
// Mapping rules (shared by every source and the search path):
//
//	name  = displayName, else first email string, else "Unknown"
//	email = first available email string; if none, the record is discarded
//	photo = first available photo URL, else absent
//	id    = resource name, else the email itself
//
// The second return value is false when the record must be discarded.
func fromPerson(p *people.Person) (Contact, bool) {
	if p == nil {
		return Contact{}, false
	}

	var email string
	for _, e := range p.EmailAddresses {
		if e != nil && e.Value != "" {
			email = e.Value
			break
		}
	}
	if email == "" {
		return Contact{}, false
	}

	name := email
	if len(p.Names) > 0 && p.Names[0] != nil && p.Names[0].DisplayName != "" {
		name = p.Names[0].DisplayName
	}
	if name == "" {
		name = config.FallbackName
	}

	var photo string
	for _, ph := range p.Photos {
		if ph != nil && ph.Url != "" {
			photo = ph.Url
			break
		}
	}

	id := p.ResourceName
	if id == "" {
		id = email
	}

	return Contact{ID: id, Name: name, Email: email, PhotoURL: photo}, true
}

// mapPersons applies fromPerson to a list, silently dropping discarded records.
func mapPersons(persons []*people.Person) []Contact {
	contacts := make([]Contact, 0, len(persons))
	for _, p := range persons {
		if c, ok := fromPerson(p); ok {
			contacts = append(contacts, c)
		}
	}
	return contacts
}
