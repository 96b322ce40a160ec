package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-QuickEvent/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go QuickEvent"
	AppID             = "com.github.tartampluch.go-quickevent"
	KeyringService    = "com.github.tartampluch.go-quickevent"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	IconFile          = "Icon.png"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs and exports.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	// Used for creating secure cache directories.
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// UI Constants & Preferences
// -----------------------------------------------------------------------------

const (
	SettingsWindowWidth = 600
	MainWinWidth        = 640
	MainWinHeight       = 480

	// Preference Keys
	PrefLanguage      = "language"
	PrefInterval      = "refresh_interval_min"
	PrefCalendarID    = "calendar_id"
	PrefOAuthClientID = "oauth_client_id"
	PrefOllamaHost    = "ollama_host"
	PrefOllamaModel   = "ollama_model"
	PrefRedirectPort  = "oauth_redirect_port"
	PrefContactsCache = "contacts_cache_v1"
	PrefLastRun       = "last_run_version"
)

// Keyring "account" identifiers used with KeyringService.
// Secrets never land in Fyne preferences.
const (
	KeyringUserOAuthSecret = "oauth-client-secret"
	KeyringUserToken       = "oauth-token"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// UI Contacts Window Constants
// -----------------------------------------------------------------------------

const (
	// Window Dimensions
	ContactsWinWidth  = 560
	ContactsWinHeight = 400

	// Table Column IDs
	ColIDName  = 0
	ColIDEmail = 1

	// Table Layout
	ColWidthName  = 220
	ColWidthEmail = 300

	// Display Formats & Placeholders
	TablePlaceholder = "Cell Content"
	LogMsgOpenWin    = "Opening Contacts Window"
	LogMsgSorted     = "Contacts sorted"

	// Sorting Indicators
	SortIconAsc  = " ▲"
	SortIconDesc = " ▼"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinTitle        = "win_title"
	TKeyWinSettings     = "win_settings_title"
	TKeyWinContacts     = "win_contacts_title"
	TKeyMenuNewEvent    = "menu_new_event"
	TKeyMenuContacts    = "menu_contacts"
	TKeyMenuRefresh     = "menu_refresh"
	TKeyMenuSettings    = "menu_settings"
	TKeyTrayStatus      = "tray_status"      // Requires Count > 0
	TKeyTrayStatusZero  = "tray_status_zero" // Explicit key for 0
	TKeyNotifRefresh    = "notif_refresh_done"
	TKeyNotifCreated    = "notif_events_created"
	TKeyNotifError      = "notif_err_create"
	TKeyLblLanguage     = "lbl_language"
	TKeyHelpLanguage    = "help_language"
	TKeyLblMinutes      = "lbl_minutes_suffix"
	TKeyLblRefresh      = "lbl_refresh_interval"
	TKeyHelpInterval    = "help_interval"
	TKeyLblGeneral      = "lbl_general"
	TKeyLblAccount      = "lbl_account"
	TKeyLblModel        = "lbl_model"
	TKeyLblClientID     = "lbl_client_id"
	TKeyHelpClientID    = "help_client_id"
	TKeyLblClientSec    = "lbl_client_secret"
	TKeyLblCalendar     = "lbl_calendar_id"
	TKeyHelpCalendar    = "help_calendar_id"
	TKeyLblOllamaHost   = "lbl_ollama_host"
	TKeyHelpOllamaHost  = "help_ollama_host"
	TKeyLblOllamaModel  = "lbl_ollama_model"
	TKeyHelpOllamaModel = "help_ollama_model"
	TKeyLblPort         = "lbl_redirect_port"
	TKeyHelpPort        = "help_redirect_port"
	TKeyLblFooter       = "lbl_footer"
	TKeyBtnSave         = "btn_save"
	TKeyBtnCancel       = "btn_cancel"
	TKeyBtnSignIn       = "btn_sign_in"
	TKeyBtnDraft        = "btn_draft"
	TKeyBtnCreate       = "btn_create"
	TKeyBtnRetry        = "btn_retry"
	TKeyBtnDiscard      = "btn_discard"
	TKeyBtnExportICS    = "btn_export_ics"
	TKeyBtnExportVCF    = "btn_export_vcf"
	TKeyLblRequest      = "lbl_request"
	TKeyHelpRequest     = "help_request"
	TKeyLblDrafts       = "lbl_drafts"
	TKeyStateIdle       = "state_idle"
	TKeyStateDrafting   = "state_drafting"
	TKeyStateReview     = "state_review"
	TKeyStateCreating   = "state_creating"
	TKeyStateCreated    = "state_created"
	TKeyStateFailed     = "state_failed"
	TKeyDraftAllDay     = "draft_all_day"

	// Column Headers & Formats
	TKeyColName    = "col_name"
	TKeyColEmail   = "col_email"
	TKeyFormatTime = "format_time_short" // Time format pattern for draft rows

	// Validation Errors (UI)
	TKeyErrPortReq     = "err_port_required"
	TKeyErrPortNum     = "err_port_number"
	TKeyErrPortRange   = "err_port_range"
	TKeyErrModelReq    = "err_model_required"
	TKeyErrClientIDReq = "err_client_id_required"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultRefreshMin   = 60
	DefaultLanguage     = "en"
	DefaultCalendarID   = "primary"
	DefaultOllamaHost   = "http://localhost:11434"
	DefaultOllamaModel  = "llama3.2"
	DefaultRedirectPort = "18080"
	DisabledInterval    = 0
)

// -----------------------------------------------------------------------------
// Contact Directory: Cache & Merge Policy
// -----------------------------------------------------------------------------

const (
	// ContactCacheTTL is how long a persisted directory snapshot stays fresh.
	ContactCacheTTL = 24 * time.Hour

	// MaxCachedContacts caps the persisted snapshot. The merge order already
	// encodes priority, so truncation keeps the highest-priority entries.
	MaxCachedContacts = 2000

	// MinSearchQueryLen guards the fuzzy-search endpoint. Shorter queries
	// return an empty list without any network access.
	MinSearchQueryLen = 2

	// AttendeeWindowDays bounds the calendar scan for recent co-attendees.
	AttendeeWindowDays = 30

	// MaxAttendeeEvents caps the number of events scanned per refresh.
	MaxAttendeeEvents = 250

	// FallbackName is used when a contact exposes no display name.
	FallbackName = "Unknown"
)

// Source names, also used as slog values. The authoritative priority order
// is the Sources slice wired in NewGoogleSources: connections outrank
// other-contacts outrank recent attendees.
const (
	SourceConnections   = "connections"
	SourceOtherContacts = "other_contacts"
	SourceAttendees     = "recent_attendees"
)

// -----------------------------------------------------------------------------
// Google API Constants
// -----------------------------------------------------------------------------

const (
	PeopleResourceSelf = "people/me"
	PersonFieldsBasic  = "names,emailAddresses,photos"
	PeoplePageSize     = 200

	CalendarOrderBy = "startTime"

	// OAuth scopes: read contacts, read "other contacts", write events.
	ScopeContacts      = "https://www.googleapis.com/auth/contacts.readonly"
	ScopeOtherContacts = "https://www.googleapis.com/auth/contacts.other.readonly"
	ScopeCalendar      = "https://www.googleapis.com/auth/calendar.events"

	OAuthCallbackPath = "/oauth2/callback"
	OAuthStateLength  = 16
)

// -----------------------------------------------------------------------------
// Composer (Local LLM) Constants
// -----------------------------------------------------------------------------

const (
	OllamaEnvHost       = "OLLAMA_HOST"
	OllamaFormatJSON    = `"json"`
	OllamaOptTemp       = "temperature"
	OllamaTemperature   = 0.1
	ComposerMaxDrafts   = 5
	DefaultDurationMin  = 60
	AllDayEventDays     = 1
	PromptTimeWithZone  = "Monday, 2006-01-02 15:04"
	PromptDraftTemplate = `You are a calendar assistant. The current local date and time is %s.
Convert the user request below into one or more calendar events.
Respond with JSON only, exactly in this shape:
{"events":[{"title":"","description":"","location":"","start":"2006-01-02T15:04","end":"2006-01-02T15:04","all_day":false}]}
Rules:
- Use 24-hour local time without a timezone suffix.
- For all-day events set "all_day" to true and use date-only values like "2006-01-02".
- Omit "end" when the request gives no duration.
- Never invent attendees; they are handled separately.
Request: %s`
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion = "2.0"
	ICalProdid  = "-//Go QuickEvent//Composer//EN"
	ICalCalName = "QuickEvent Drafts"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "goquickevent"

	// iCal Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTEnd       = "DTEND"
	PropDTStamp     = "DTSTAMP"
	PropDescription = "DESCRIPTION"
	PropLocation    = "LOCATION"
	PropAttendee    = "ATTENDEE"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	VCardFN    = "FN"
	VCardEmail = "EMAIL"
	VCardUID   = "UID"
	VCardPhoto = "PHOTO"

	MailtoPrefix = "mailto:"
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// Date layouts accepted from the language model.
	DateFormatRFC3339  = time.RFC3339
	DateFormatLocal    = "2006-01-02T15:04:05"
	DateFormatLocalMin = "2006-01-02T15:04"
	DateFormatDateOnly = "2006-01-02"

	// Limits
	MinPort         = 1
	MaxPort         = 65535
	MaxRequestRunes = 2000 // input entry guard

	// MentionTrigger starts a contact mention in the request entry.
	MentionTrigger = '@'

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s@%s"

	// File Extensions
	ExtICS = ".ics"
	ExtVCF = ".vcf"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout        = 30 * time.Second
	LLMTimeout         = 120 * time.Second
	ShutdownTimeout    = 5 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ServerIdleTimeout  = 60 * time.Second
	AuthFlowTimeout    = 3 * time.Minute
	SchemeHTTP         = "http"
	SchemeHTTPS        = "https"
	AddrSeparator      = ":"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType = "Content-Type"
	HeaderUserAgent   = "User-Agent"

	MimeTextHTML = "text/html; charset=utf-8"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrNoCredential     = "no credential available without interaction"
	ErrClientIDMissing  = "configuration error: OAuth client ID is empty"
	ErrStateMismatch    = "authorization state mismatch"
	ErrAuthDenied       = "authorization was denied or returned no code"
	ErrTokenDecode      = "failed to decode stored token"
	ErrTokenEncode      = "failed to encode token for storage"
	ErrCacheDecode      = "failed to decode contact cache envelope"
	ErrCacheEncode      = "failed to encode contact cache envelope"
	ErrServerStartup    = "redirect listener startup failed"
	ErrServerShutdown   = "redirect listener shutdown failed"
	ErrPortRequired     = "redirect port is required"
	ErrCtxCancelled     = "operation cancelled by context"
	ErrLLMEmpty         = "language model returned no usable drafts"
	ErrLLMDecode        = "failed to decode language model response"
	ErrDraftNoTitle     = "draft rejected: missing title"
	ErrDraftNoStart     = "draft rejected: missing or invalid start"
	ErrDateParse        = "unable to parse date"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrVCardEncode      = "failed to encode vCard data"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrTrayNotSupported = "system tray not supported on this platform/driver"
	ErrLocNotInit       = "localizer not initialized"
	ErrCreateFailed     = "event creation failed"
	ErrOllamaHost       = "invalid Ollama host URL"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackTrayError   = "Go QuickEvent: Refresh Error"
	FallbackTrayDefault = "Go QuickEvent (%d contacts)"
	FallbackTrayLabel   = "Go QuickEvent"

	TitleStartupError = "Startup Error"
	TitleCreateError  = "Create Error"

	MsgPortBusy        = "Port %s is busy or unavailable."
	MsgRefreshReq      = "Contact refresh requested"
	MsgRefreshDone     = "Contact refresh finished"
	MsgCacheHit        = "Serving contacts from fresh cache"
	MsgCacheStale      = "Cache stale or bypassed, refreshing"
	MsgCacheSaved      = "Contact cache updated"
	MsgCacheTruncated  = "Contact cache truncated to cap"
	MsgSourceFailed    = "Contact source failed, continuing without it"
	MsgSourceFetched   = "Contact source fetched"
	MsgSearchSkipped   = "Search query below minimum length"
	MsgSearchDone      = "Contact search finished"
	MsgTokenMissing    = "No stored credential, skipping silent auth"
	MsgTokenRefreshed  = "Credential refreshed"
	MsgAuthFlowStart   = "Starting interactive authorization"
	MsgAuthFlowDone    = "Interactive authorization finished"
	MsgListenerReady   = "OAuth redirect listener ready"
	MsgListenerStop    = "Shutting down OAuth redirect listener..."
	MsgDraftReq        = "Draft requested"
	MsgDraftDone       = "Drafts generated"
	MsgDraftRejected   = "Draft rejected during validation"
	MsgEventCreated    = "Event created"
	MsgWorkerStart     = "Background worker started"
	MsgWorkerStop      = "Worker stopping due to context cancellation"
	MsgUpdateInterval  = "Updating refresh interval"
	MsgAppStop         = "Application stopped gracefully"
	MsgAppStarting     = "Starting application"
	MsgCtxCancel       = "Context cancelled, shutting down UI"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgSecretFail      = "Secret retrieval failed (might be empty)"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgStateChange     = "Flow state changed"
	MsgMentionResolved = "Mention resolved"

	// HTMLAuthDone is served to the browser after a successful loopback
	// exchange so the user knows the tab can be closed.
	HTMLAuthDone = "<html><body><p>Authorization complete. You can close this window.</p></body></html>"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyInterval  = "interval"
	LogKeyOld       = "old"
	LogKeyNew       = "new"
	LogKeySource    = "source"
	LogKeyQuery     = "query_len"
	LogKeyForce     = "force"
	LogKeyAge       = "cache_age"
	LogKeyCount     = "count"
	LogKeyDropped   = "dropped"
	LogKeyModel     = "model"
	LogKeyTitle     = "title"
	LogKeyEventID   = "event_id"
	LogKeyCalendar  = "calendar_id"
	LogKeyState     = "state"
	LogKeyEmail     = "email"
	LogKeyManual    = "manual"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeySortCol   = "sort_column"
	LogKeySortAsc   = "sort_asc"
	LogKeyDuration  = "duration_ms"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI        = "ui"
	CompUISet     = "ui_settings"
	CompDirectory = "directory"
	CompIdentity  = "identity"
	CompComposer  = "composer"
	CompCalendar  = "calendar"
	CompWorker    = "worker"
	CompMain      = "main"
	CompI18n      = "i18n"
)

// -----------------------------------------------------------------------------
// UI Layout Constants
// -----------------------------------------------------------------------------

const (
	LayoutColumnsDouble = 2
	MentionListMaxRows  = 6
)
