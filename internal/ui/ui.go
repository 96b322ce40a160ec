package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-quickevent/internal/calendar"
	"github.com/tartampluch/go-quickevent/internal/composer"
	"github.com/tartampluch/go-quickevent/internal/config"
	"github.com/tartampluch/go-quickevent/internal/directory"
	"golang.org/x/oauth2"
)

//go:embed Icon.png
var appIconData []byte

// ContactDirectory is the slice of the aggregator the UI consumes.
type ContactDirectory interface {
	GetContacts(ctx context.Context, forceRefresh bool) []directory.Contact
	SearchContacts(ctx context.Context, query string) []directory.Contact
}

// Authenticator drives the sign-in flow from the settings window.
type Authenticator interface {
	Token(ctx context.Context, interactive bool) (*oauth2.Token, error)
	SignedIn() bool
}

// Drafter converts a request into event drafts.
type Drafter interface {
	Draft(ctx context.Context, request string, attendees []string) ([]composer.EventDraft, error)
}

// QuickEventApp encapsulates the UI state, preferences, and background logic.
type QuickEventApp struct {
	App         fyne.App
	Window      fyne.Window // settings window (singleton)
	Preferences fyne.Preferences
	I18nBundle  *i18n.Bundle
	Localizer   *i18n.Localizer
	Ctx         context.Context

	Directory ContactDirectory
	Auth      Authenticator
	Composer  Drafter
	Creator   calendar.EventCreator
	Clock     directory.Clock

	Tray desktop.App
	Menu *fyne.Menu

	TrayStatusItem   *fyne.MenuItem
	TrayNewEventItem *fyne.MenuItem
	TrayContactsItem *fyne.MenuItem
	TrayRefreshItem  *fyne.MenuItem
	TraySettingsItem *fyne.MenuItem

	SupportedLanguages []string
	configChan         chan string

	// Contacts State
	ContactsMut    sync.RWMutex
	Contacts       []directory.Contact
	contactsWindow fyne.Window

	// Composer State (see ui_main.go)
	mainWindow  fyne.Window
	main        *mainWidgets
	flow        flowState
	drafts      []composer.EventDraft
	mentionRefs map[string]string // display name -> email, for inserted mentions
}

// NewQuickEventApp constructs the application and wires dependencies.
func NewQuickEventApp(a fyne.App, ctx context.Context, dir ContactDirectory, auth Authenticator, comp Drafter, creator calendar.EventCreator) *QuickEventApp {
	a.SetIcon(fyne.NewStaticResource(config.IconFile, appIconData))

	return &QuickEventApp{
		App:                a,
		Preferences:        a.Preferences(),
		Ctx:                ctx,
		Directory:          dir,
		Auth:               auth,
		Composer:           comp,
		Creator:            creator,
		Clock:              directory.RealClock{},
		SupportedLanguages: config.SupportedLanguages,
		configChan:         make(chan string, config.ChannelBufferSize),
		Contacts:           make([]directory.Contact, 0),
		mentionRefs:        make(map[string]string),
	}
}

// Run launches the application services and the main UI loop.
func (app *QuickEventApp) Run() {
	app.SetupI18n()
	app.watchPreferences()

	if desk, ok := app.App.(desktop.App); ok {
		app.Tray = desk
		app.Tray.SetSystemTrayIcon(app.App.Icon())
		app.setupTrayMenu()
	} else {
		slog.Warn(config.ErrTrayNotSupported,
			config.LogKeyComponent, config.CompUI)
	}

	go app.backgroundWorker()

	app.ShowMainWindow()
	app.App.Run()
}

// watchPreferences monitors changes to settings to trigger immediate updates.
func (app *QuickEventApp) watchPreferences() {
	app.Preferences.AddChangeListener(func() {
		select {
		case app.configChan <- config.PrefInterval:
		default:
		}
	})
}

// setupTrayMenu constructs the system tray menu.
func (app *QuickEventApp) setupTrayMenu() {
	// Status item doubles as a shortcut to the contacts window.
	app.TrayStatusItem = fyne.NewMenuItem(config.FallbackTrayLabel, func() {
		app.ShowContactsWindow()
	})
	app.TrayStatusItem.Disabled = false

	app.TrayNewEventItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuNewEvent), func() {
		app.ShowMainWindow()
	})

	app.TrayContactsItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuContacts), func() {
		app.ShowContactsWindow()
	})

	app.TrayRefreshItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuRefresh), func() {
		go app.performRefresh(true)
	})

	app.TraySettingsItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuSettings), func() {
		app.ShowSettingsWindow()
	})

	app.Menu = fyne.NewMenu(config.AppName,
		app.TrayStatusItem,
		fyne.NewMenuItemSeparator(),
		app.TrayNewEventItem,
		app.TrayContactsItem,
		app.TrayRefreshItem,
		app.TraySettingsItem,
	)

	if app.Tray != nil {
		app.Tray.SetSystemTrayMenu(app.Menu)
	}
}

// RefreshTrayMenu updates localized labels in the tray menu.
func (app *QuickEventApp) RefreshTrayMenu() {
	if app.Menu == nil {
		return
	}
	app.TrayNewEventItem.Label = app.GetMsg(config.TKeyMenuNewEvent)
	app.TrayContactsItem.Label = app.GetMsg(config.TKeyMenuContacts)
	app.TrayRefreshItem.Label = app.GetMsg(config.TKeyMenuRefresh)
	app.TraySettingsItem.Label = app.GetMsg(config.TKeyMenuSettings)
	app.Menu.Refresh()
}

// backgroundWorker keeps the contact directory warm on a periodic schedule.
func (app *QuickEventApp) backgroundWorker() {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	app.performRefresh(false)

	getInterval := func() time.Duration {
		val := app.Preferences.IntWithFallback(config.PrefInterval, config.DefaultRefreshMin)
		if val <= 0 {
			val = config.DefaultRefreshMin
		}
		return time.Duration(val) * time.Minute
	}

	currentDuration := getInterval()
	ticker := time.NewTicker(currentDuration)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, currentDuration)

	for {
		select {
		case <-app.Ctx.Done():
			log.Info(config.MsgWorkerStop)
			return

		case <-app.configChan:
			newDuration := getInterval()
			if newDuration != currentDuration {
				log.Info(config.MsgUpdateInterval, config.LogKeyOld, currentDuration, config.LogKeyNew, newDuration)
				currentDuration = newDuration
				ticker.Reset(currentDuration)
			}

		case <-ticker.C:
			app.performRefresh(false)
		}
	}
}

// performRefresh pulls the merged directory and publishes it to the UI.
// Manual refreshes bypass the cache and notify the user when done.
func (app *QuickEventApp) performRefresh(manual bool) {
	slog.Info(config.MsgRefreshReq,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyManual, manual)

	contacts := app.Directory.GetContacts(app.Ctx, manual)

	app.ContactsMut.Lock()
	app.Contacts = contacts
	app.ContactsMut.Unlock()

	app.updateTrayStatus(len(contacts))

	if manual {
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.GetMsg(config.TKeyNotifRefresh)))
	}
}

// snapshotContacts returns a copy of the held directory for display code.
func (app *QuickEventApp) snapshotContacts() []directory.Contact {
	app.ContactsMut.RLock()
	defer app.ContactsMut.RUnlock()
	out := make([]directory.Contact, len(app.Contacts))
	copy(out, app.Contacts)
	return out
}

// updateTrayStatus updates the top menu item to show the directory size.
func (app *QuickEventApp) updateTrayStatus(count int) {
	if app.Menu == nil || app.TrayStatusItem == nil {
		return
	}

	var label string
	if count < 0 {
		label = config.FallbackTrayError
	} else if count == 0 {
		label = app.GetMsg(config.TKeyTrayStatusZero)
		if label == config.TKeyTrayStatusZero {
			label = fmt.Sprintf(config.FallbackTrayDefault, 0)
		}
	} else {
		if app.Localizer != nil {
			msg, err := app.Localizer.Localize(&i18n.LocalizeConfig{
				MessageID:    config.TKeyTrayStatus,
				TemplateData: map[string]interface{}{"Count": count},
				PluralCount:  count,
			})
			if err == nil {
				label = msg
			}
		}
		if label == "" {
			label = fmt.Sprintf(config.FallbackTrayDefault, count)
		}
	}

	app.TrayStatusItem.Label = label
	app.Menu.Refresh()
}
