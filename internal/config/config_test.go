package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tartampluch/go-quickevent/internal/config"
)

// TestConstants_Integrity ensures critical constants are not empty or malformed.
// This prevents accidental deletion of keys required for runtime or UI logic.
func TestConstants_Integrity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"AppName", config.AppName},
		{"AppID", config.AppID},
		{"Version", config.Version},
		{"UserAgent", config.UserAgent},
		{"ICalVersion", config.ICalVersion},
		{"ICalProdid", config.ICalProdid},
		{"ScopeContacts", config.ScopeContacts},
		{"ScopeOtherContacts", config.ScopeOtherContacts},
		{"ScopeCalendar", config.ScopeCalendar},
		{"PersonFieldsBasic", config.PersonFieldsBasic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value, "Critical constant %s should not be empty", tt.name)
		})
	}
}

// TestDefaults_Sanity checks that default values make sense logically.
func TestDefaults_Sanity(t *testing.T) {
	assert.Greater(t, config.DefaultRefreshMin, 0, "Default refresh interval must be positive")
	assert.Equal(t, 24*time.Hour, config.ContactCacheTTL, "Cache TTL is contractually 24 hours")
	assert.Equal(t, 2, config.MinSearchQueryLen, "Search guard is contractually 2 characters")
	assert.Equal(t, 30, config.AttendeeWindowDays, "Attendee scan window is contractually 30 days")
	assert.Equal(t, int64(250), int64(config.MaxAttendeeEvents), "Attendee scan cap is contractually 250 events")

	// Verify Timeout parsing works as expected
	assert.Equal(t, 30*time.Second, config.HTTPTimeout)
}

// TestUserAgent_Format ensures the UA string follows the standard format.
func TestUserAgent_Format(t *testing.T) {
	assert.True(t, strings.HasPrefix(config.UserAgent, "Go-QuickEvent/"), "UserAgent must start with AppName/")
}

// TestTimeoutsAndLimits ensures that operational constraints are reasonable.
func TestTimeoutsAndLimits(t *testing.T) {
	t.Parallel()

	// Timeouts
	assert.Greater(t, config.HTTPTimeout, 0*time.Second, "HTTPTimeout must be positive")
	assert.Greater(t, config.LLMTimeout, config.HTTPTimeout, "Local generation is slower than a REST call")
	assert.Greater(t, config.ShutdownTimeout, 0*time.Second, "ShutdownTimeout must be positive")
	assert.Greater(t, config.AuthFlowTimeout, 1*time.Minute, "The user needs time to approve consent in the browser")

	// Limits
	assert.Greater(t, config.MaxCachedContacts, 0, "Cache cap must be positive")
	assert.GreaterOrEqual(t, config.MaxCachedContacts, config.PeoplePageSize,
		"Cache cap below a single page would truncate every refresh")
	assert.Greater(t, config.ComposerMaxDrafts, 0, "At least one draft must be allowed")
}
