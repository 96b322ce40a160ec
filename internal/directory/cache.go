package directory

import (
	"encoding/json"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"github.com/tartampluch/go-quickevent/internal/config"
)

// Envelope is the persisted cache record: the merged contact list stamped
// with the time of the aggregation that produced it (epoch milliseconds).
// Lifecycle is overwrite-only; nothing ever deletes the slot.
type Envelope struct {
	Data      []Contact `json:"data"`
	Timestamp int64     `json:"timestamp"`
}

// Store abstracts the durable key-value slot holding the envelope, so the
// aggregator can be tested without a real preferences backend. Writes are
// last-writer-wins; callers must not assume read-your-write consistency
// across concurrent callers.
type Store interface {
	// Load returns nil without error when no envelope has been saved yet.
	Load() (*Envelope, error)
	Save(*Envelope) error
}

// PreferencesStore persists the envelope as a JSON string inside Fyne
// preferences, scoped to the application install.
type PreferencesStore struct {
	Prefs fyne.Preferences
	Key   string
}

// NewPreferencesStore creates a store bound to the standard cache key.
func NewPreferencesStore(prefs fyne.Preferences) *PreferencesStore {
	return &PreferencesStore{Prefs: prefs, Key: config.PrefContactsCache}
}

// Load reads and decodes the envelope.
func (s *PreferencesStore) Load() (*Envelope, error) {
	raw := s.Prefs.String(s.Key)
	if raw == "" {
		return nil, nil
	}
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCacheDecode, err)
	}
	return &env, nil
}

// Save encodes and overwrites the envelope.
func (s *PreferencesStore) Save(env *Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrCacheEncode, err)
	}
	s.Prefs.SetString(s.Key, string(raw))
	return nil
}

// isFresh reports whether a cache stamp is still inside its TTL relative to
// 'now'. Kept as a pure function so the policy is testable without a store.
func isFresh(timestampMillis int64, now time.Time, ttl time.Duration) bool {
	if timestampMillis <= 0 {
		return false
	}
	return now.Sub(time.UnixMilli(timestampMillis)) < ttl
}

// capContacts truncates a merged list to the configured snapshot cap.
// The merge order already encodes source priority, so truncation keeps the
// highest-priority entries.
func capContacts(contacts []Contact, max int) []Contact {
	if max <= 0 || len(contacts) <= max {
		return contacts
	}
	return contacts[:max]
}
