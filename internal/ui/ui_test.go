package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-quickevent/internal/composer"
	"github.com/tartampluch/go-quickevent/internal/config"
	"github.com/tartampluch/go-quickevent/internal/directory"
	"golang.org/x/oauth2"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockDirectory simulates the contact aggregator using testify/mock.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetContacts(ctx context.Context, forceRefresh bool) []directory.Contact {
	args := m.Called(ctx, forceRefresh)
	return args.Get(0).([]directory.Contact)
}

func (m *MockDirectory) SearchContacts(ctx context.Context, query string) []directory.Contact {
	args := m.Called(ctx, query)
	return args.Get(0).([]directory.Contact)
}

// MockAuth simulates the credential manager.
type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) Token(ctx context.Context, interactive bool) (*oauth2.Token, error) {
	args := m.Called(ctx, interactive)
	if tok := args.Get(0); tok != nil {
		return tok.(*oauth2.Token), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuth) SignedIn() bool {
	return m.Called().Bool(0)
}

// MockDrafter simulates the composer.
type MockDrafter struct {
	mock.Mock
}

func (m *MockDrafter) Draft(ctx context.Context, request string, attendees []string) ([]composer.EventDraft, error) {
	args := m.Called(ctx, request, attendees)
	if drafts := args.Get(0); drafts != nil {
		return drafts.([]composer.EventDraft), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCreator simulates the calendar backend.
type MockCreator struct {
	mock.Mock
}

func (m *MockCreator) Create(ctx context.Context, calendarID string, draft composer.EventDraft) (string, error) {
	args := m.Called(ctx, calendarID, draft)
	return args.String(0), args.Error(1)
}

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// MockTray implements minimal system tray functionality for headless testing.
type MockTray struct {
	Menu *fyne.Menu
}

func (m *MockTray) SetSystemTrayMenu(menu *fyne.Menu) {
	m.Menu = menu
}

func (m *MockTray) SetSystemTrayIcon(icon fyne.Resource) {}
func (m *MockTray) SetSystemTrayWindow(w fyne.Window)    {}
func (m *MockTray) Run()                                 {}
func (m *MockTray) Quit()                                {}

// -----------------------------------------------------------------------------
// Test Setup Helper
// -----------------------------------------------------------------------------

type testMocks struct {
	dir     *MockDirectory
	auth    *MockAuth
	drafter *MockDrafter
	creator *MockCreator
	tray    *MockTray
}

// setupTestApp initializes a headless Fyne app with mocked dependencies.
func setupTestApp(t *testing.T) (*QuickEventApp, *testMocks) {
	a := test.NewApp()

	mocks := &testMocks{
		dir:     new(MockDirectory),
		auth:    new(MockAuth),
		drafter: new(MockDrafter),
		creator: new(MockCreator),
		tray:    &MockTray{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app := NewQuickEventApp(a, ctx, mocks.dir, mocks.auth, mocks.drafter, mocks.creator)
	app.Tray = mocks.tray
	app.Clock = MockClock{CurrentTime: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}

	// Manually load I18n as Run() is skipped
	app.SetupI18n()

	return app, mocks
}

// -----------------------------------------------------------------------------
// Localization Tests
// -----------------------------------------------------------------------------

func TestLocalization_Switching(t *testing.T) {
	app, _ := setupTestApp(t)

	app.Preferences.SetString(config.PrefLanguage, "en")
	app.UpdateLocalizer()
	assert.Equal(t, "Settings...", app.GetMsg(config.TKeyMenuSettings))

	app.Preferences.SetString(config.PrefLanguage, "fr")
	app.UpdateLocalizer()
	assert.Equal(t, "Paramètres...", app.GetMsg(config.TKeyMenuSettings))
}

// -----------------------------------------------------------------------------
// Configuration & Preferences Tests
// -----------------------------------------------------------------------------

func TestConfiguration_WorkerSignal(t *testing.T) {
	app, _ := setupTestApp(t)
	app.watchPreferences()

	signalReceived := make(chan bool)
	go func() {
		select {
		case key := <-app.configChan:
			signalReceived <- key == config.PrefInterval
		case <-time.After(500 * time.Millisecond):
			signalReceived <- false
		}
	}()

	app.Preferences.SetInt(config.PrefInterval, 120)

	assert.True(t, <-signalReceived, "Changing interval should notify background worker")
}

// -----------------------------------------------------------------------------
// Directory Refresh Tests
// -----------------------------------------------------------------------------

func TestPerformRefresh_PublishesContacts(t *testing.T) {
	app, mocks := setupTestApp(t)
	app.setupTrayMenu()
	app.Preferences.SetString(config.PrefLanguage, "en")
	app.UpdateLocalizer()

	contacts := []directory.Contact{
		{ID: "a@x.com", Name: "Alice", Email: "a@x.com"},
		{ID: "b@x.com", Name: "Bob", Email: "b@x.com"},
	}
	mocks.dir.On("GetContacts", mock.Anything, true).Return(contacts)

	app.performRefresh(true)

	mocks.dir.AssertExpectations(t)
	assert.Contains(t, app.TrayStatusItem.Label, "2", "Tray label should reflect directory size")

	app.ContactsMut.RLock()
	assert.Len(t, app.Contacts, 2)
	app.ContactsMut.RUnlock()
}

func TestPerformRefresh_BackgroundUsesCache(t *testing.T) {
	app, mocks := setupTestApp(t)
	app.setupTrayMenu()

	mocks.dir.On("GetContacts", mock.Anything, false).Return([]directory.Contact{})

	app.performRefresh(false)

	mocks.dir.AssertCalled(t, "GetContacts", mock.Anything, false)
}

func TestTrayStatusUpdate_Logic(t *testing.T) {
	app, mocks := setupTestApp(t)
	app.setupTrayMenu()

	app.Preferences.SetString(config.PrefLanguage, "en")
	app.UpdateLocalizer()

	// 1. Error Case
	app.updateTrayStatus(-1)
	assert.Equal(t, config.FallbackTrayError, app.TrayStatusItem.Label)

	// 2. Zero Case
	app.updateTrayStatus(0)
	assert.Equal(t, "No contacts yet", app.TrayStatusItem.Label, "Should use explicit zero string")

	// 3. Positive Case
	app.updateTrayStatus(10)
	assert.Contains(t, app.TrayStatusItem.Label, "10")

	assert.NotNil(t, mocks.tray.Menu)
}

// -----------------------------------------------------------------------------
// Composer Flow Tests
// -----------------------------------------------------------------------------

var testDraft = composer.EventDraft{
	Title: "Team lunch",
	Start: time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 6, 16, 13, 0, 0, 0, time.UTC),
}

func TestFlow_DraftSuccessMovesToReview(t *testing.T) {
	app, mocks := setupTestApp(t)
	app.Preferences.SetString(config.PrefLanguage, "en")
	app.UpdateLocalizer()
	app.ShowMainWindow()

	mocks.drafter.On("Draft", mock.Anything, "lunch tomorrow", mock.Anything).
		Return([]composer.EventDraft{testDraft}, nil)

	app.runDraft("lunch tomorrow")

	assert.Equal(t, stateReview, app.flow)
	require.Len(t, app.drafts, 1)
	assert.False(t, app.main.btnCreate.Disabled(), "review must offer creation")
	assert.False(t, app.main.btnExport.Disabled(), "review must offer export")
}

func TestFlow_DraftFailureReturnsToIdle(t *testing.T) {
	app, mocks := setupTestApp(t)
	app.ShowMainWindow()

	mocks.drafter.On("Draft", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("model unreachable"))

	app.runDraft("anything")

	assert.Equal(t, stateIdle, app.flow)
	assert.Empty(t, app.drafts)
	assert.True(t, app.main.btnCreate.Disabled())
}

func TestFlow_EmptyRequestIsIgnored(t *testing.T) {
	app, mocks := setupTestApp(t)
	app.ShowMainWindow()

	app.runDraft("   ")

	assert.Equal(t, stateIdle, app.flow)
	mocks.drafter.AssertNotCalled(t, "Draft", mock.Anything, mock.Anything, mock.Anything)
}

func TestFlow_CreateSuccess(t *testing.T) {
	app, mocks := setupTestApp(t)
	app.ShowMainWindow()
	app.drafts = []composer.EventDraft{testDraft}
	app.applyFlowState(stateReview)

	mocks.creator.On("Create", mock.Anything, config.DefaultCalendarID, testDraft).
		Return("event-1", nil)

	app.runCreate()

	assert.Equal(t, stateCreated, app.flow)
	mocks.creator.AssertExpectations(t)
}

func TestFlow_CreateFailureOffersRetry(t *testing.T) {
	app, mocks := setupTestApp(t)
	app.Preferences.SetString(config.PrefLanguage, "en")
	app.UpdateLocalizer()
	app.ShowMainWindow()
	app.drafts = []composer.EventDraft{testDraft}
	app.applyFlowState(stateReview)

	mocks.creator.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("quota exceeded"))

	app.runCreate()

	assert.Equal(t, stateFailed, app.flow)
	assert.Len(t, app.drafts, 1, "failed creation must keep the drafts")
	assert.False(t, app.main.btnCreate.Disabled())
	assert.Equal(t, "Retry", app.main.btnCreate.Text)
}

func TestFlow_CreateUsesConfiguredCalendar(t *testing.T) {
	app, mocks := setupTestApp(t)
	app.ShowMainWindow()
	app.Preferences.SetString(config.PrefCalendarID, "work@group.calendar.google.com")
	app.drafts = []composer.EventDraft{testDraft}

	mocks.creator.On("Create", mock.Anything, "work@group.calendar.google.com", mock.Anything).
		Return("event-1", nil)

	app.runCreate()

	mocks.creator.AssertExpectations(t)
}

func TestFlow_Discard(t *testing.T) {
	app, _ := setupTestApp(t)
	app.ShowMainWindow()
	app.drafts = []composer.EventDraft{testDraft}
	app.applyFlowState(stateReview)

	app.discardDrafts()

	assert.Equal(t, stateIdle, app.flow)
	assert.Empty(t, app.drafts)
	assert.True(t, app.main.btnDiscard.Disabled())
}

// -----------------------------------------------------------------------------
// Mention Suggestion Tests
// -----------------------------------------------------------------------------

func TestSuggestions_FromHeldDirectory(t *testing.T) {
	app, _ := setupTestApp(t)
	app.ShowMainWindow()
	app.Contacts = []directory.Contact{
		{Name: "Alice", Email: "alice@x.com"},
		{Name: "Bob", Email: "bob@x.com"},
	}

	// Single-rune query: below the search minimum, held contacts only.
	app.updateSuggestions("a", true)

	require.Len(t, app.main.suggestions, 1)
	assert.Equal(t, "Alice", app.main.suggestions[0].Name)
	assert.True(t, app.main.suggestList.Visible())
}

func TestSuggestions_HiddenWhenMentionEnds(t *testing.T) {
	app, _ := setupTestApp(t)
	app.ShowMainWindow()

	app.updateSuggestions("", false)

	assert.Empty(t, app.main.suggestions)
	assert.False(t, app.main.suggestList.Visible())
}

func TestAcceptSuggestion_RecordsMentionBinding(t *testing.T) {
	app, _ := setupTestApp(t)
	app.ShowMainWindow()
	app.main.request.SetText("lunch with @al")
	app.main.request.CursorRow = 0
	app.main.request.CursorColumn = 14

	app.acceptSuggestion(directory.Contact{Name: "Alice", Email: "alice@x.com"})

	assert.Equal(t, "lunch with @Alice ", app.main.request.Text)
	assert.Equal(t, "alice@x.com", app.mentionRefs["Alice"])
	assert.False(t, app.main.suggestList.Visible())
}

// -----------------------------------------------------------------------------
// Rendering Helpers
// -----------------------------------------------------------------------------

func TestFormatDraftLine(t *testing.T) {
	timed := formatDraftLine(testDraft, "Mon Jan 2 15:04", "all day")
	assert.Contains(t, timed, "Team lunch")
	assert.Contains(t, timed, "12:00")

	allDay := formatDraftLine(composer.EventDraft{
		Title:  "Conference",
		Start:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		AllDay: true,
	}, "Mon Jan 2 15:04", "all day")
	assert.Contains(t, allDay, "2025-07-01")
	assert.Contains(t, allDay, "all day")
}

func TestSortContacts(t *testing.T) {
	contacts := []directory.Contact{
		{Name: "bob", Email: "bob@x.com"},
		{Name: "Alice", Email: "alice@x.com"},
		{Name: "alice", Email: "a2@x.com"},
	}

	sortContacts(contacts, config.ColIDName, true)
	assert.Equal(t, "a2@x.com", contacts[0].Email, "equal names fall back to email order")
	assert.Equal(t, "alice@x.com", contacts[1].Email)
	assert.Equal(t, "bob", contacts[2].Name)

	sortContacts(contacts, config.ColIDEmail, false)
	assert.Equal(t, "bob@x.com", contacts[0].Email)
}
