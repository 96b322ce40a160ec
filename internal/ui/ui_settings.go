package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-quickevent/internal/config"
	"github.com/zalando/go-keyring"
)

// settingsWidgets holds references to UI elements to simplify data retrieval during save.
type settingsWidgets struct {
	langSelect      *widget.Select
	entryInterval   *NumericalEntry
	entryClientID   *widget.Entry
	entryClientSec  *widget.Entry
	entryCalendarID *widget.Entry
	entryPort       *NumericalEntry
	entryHost       *widget.Entry
	entryModel      *widget.Entry
}

// ShowSettingsWindow displays the configuration dialog allowing users to manage settings.
func (app *QuickEventApp) ShowSettingsWindow() {
	if app.Window != nil {
		slog.Debug("Settings window already open, requesting focus", config.LogKeyComponent, config.CompUISet)
		app.Window.RequestFocus()
		return
	}

	slog.Info("Opening settings window", config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinSettings))
	app.Window = w

	sw := &settingsWidgets{}

	// --- 1. General Section (Language & Interval) ---
	sw.langSelect = widget.NewSelect(app.SupportedLanguages, nil)
	sw.langSelect.SetSelected(app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage))

	// Interval: Numerical only. "0" or empty disables the periodic refresh.
	sw.entryInterval = NewNumericalEntry()
	sw.entryInterval.SetText(strconv.Itoa(app.Preferences.IntWithFallback(config.PrefInterval, config.DefaultRefreshMin)))

	itemLang := widget.NewFormItem(app.GetMsg(config.TKeyLblLanguage), sw.langSelect)
	itemLang.HintText = app.GetMsg(config.TKeyHelpLanguage)

	widInterval := container.NewBorder(nil, nil, nil, widget.NewLabel(app.GetMsg(config.TKeyLblMinutes)), sw.entryInterval)
	itemInterval := widget.NewFormItem(app.GetMsg(config.TKeyLblRefresh), widInterval)
	itemInterval.HintText = app.GetMsg(config.TKeyHelpInterval)

	generalForm := widget.NewForm(itemLang, itemInterval)
	generalCard := widget.NewCard(app.GetMsg(config.TKeyLblGeneral), "", generalForm)

	// --- 2. Account Section (OAuth client, calendar, loopback port) ---
	sw.entryClientID = widget.NewEntry()
	sw.entryClientID.SetText(app.Preferences.String(config.PrefOAuthClientID))
	sw.entryClientID.Validator = func(s string) error {
		if s == "" {
			return errors.New(app.GetMsg(config.TKeyErrClientIDReq))
		}
		return nil
	}

	sw.entryClientSec = widget.NewPasswordEntry()
	if sec, err := keyring.Get(config.KeyringService, config.KeyringUserOAuthSecret); err == nil {
		sw.entryClientSec.SetText(sec)
	} else {
		slog.Debug(config.MsgSecretFail,
			config.LogKeyComponent, config.CompUISet,
			config.LogKeyError, err,
		)
	}

	sw.entryCalendarID = widget.NewEntry()
	sw.entryCalendarID.SetText(app.Preferences.StringWithFallback(config.PrefCalendarID, config.DefaultCalendarID))

	// Port: Numerical only, but requires strict Validation (Range 1-65535).
	sw.entryPort = NewNumericalEntry()
	sw.entryPort.SetText(app.Preferences.StringWithFallback(config.PrefRedirectPort, config.DefaultRedirectPort))
	sw.entryPort.Validator = func(s string) error {
		if s == "" {
			return errors.New(app.GetMsg(config.TKeyErrPortReq))
		}
		port, err := strconv.Atoi(s)
		if err != nil {
			return errors.New(app.GetMsg(config.TKeyErrPortNum))
		}
		if port < config.MinPort || port > config.MaxPort {
			return errors.New(app.GetMsg(config.TKeyErrPortRange))
		}
		return nil
	}

	btnSignIn := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSignIn), theme.AccountIcon(), func() {
		go app.runSignIn(w)
	})

	itemClientID := widget.NewFormItem(app.GetMsg(config.TKeyLblClientID), sw.entryClientID)
	itemClientID.HintText = app.GetMsg(config.TKeyHelpClientID)
	itemClientSec := widget.NewFormItem(app.GetMsg(config.TKeyLblClientSec), sw.entryClientSec)
	itemCalendar := widget.NewFormItem(app.GetMsg(config.TKeyLblCalendar), sw.entryCalendarID)
	itemCalendar.HintText = app.GetMsg(config.TKeyHelpCalendar)
	itemPort := widget.NewFormItem(app.GetMsg(config.TKeyLblPort), sw.entryPort)
	itemPort.HintText = app.GetMsg(config.TKeyHelpPort)

	accountForm := widget.NewForm(itemClientID, itemClientSec, itemCalendar, itemPort)
	accountCard := widget.NewCard(app.GetMsg(config.TKeyLblAccount), "", container.NewVBox(accountForm, btnSignIn))

	// --- 3. Model Section (Ollama) ---
	sw.entryHost = widget.NewEntry()
	sw.entryHost.SetText(app.Preferences.StringWithFallback(config.PrefOllamaHost, config.DefaultOllamaHost))

	sw.entryModel = widget.NewEntry()
	sw.entryModel.SetText(app.Preferences.StringWithFallback(config.PrefOllamaModel, config.DefaultOllamaModel))
	sw.entryModel.Validator = func(s string) error {
		if s == "" {
			return errors.New(app.GetMsg(config.TKeyErrModelReq))
		}
		return nil
	}

	itemHost := widget.NewFormItem(app.GetMsg(config.TKeyLblOllamaHost), sw.entryHost)
	itemHost.HintText = app.GetMsg(config.TKeyHelpOllamaHost)
	itemModel := widget.NewFormItem(app.GetMsg(config.TKeyLblOllamaModel), sw.entryModel)
	itemModel.HintText = app.GetMsg(config.TKeyHelpOllamaModel)

	modelForm := widget.NewForm(itemHost, itemModel)
	modelCard := widget.NewCard(app.GetMsg(config.TKeyLblModel), "", modelForm)

	// --- Actions ---
	saveAction := func() {
		// Only the port has a strict requirement that blocks saving if invalid.
		if err := sw.entryPort.Validate(); err != nil {
			dialog.ShowError(err, w)
			return
		}
		app.saveSettings(sw, w)
	}

	btnSave := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), saveAction)
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnCancel), theme.CancelIcon(), func() { w.Close() })

	// --- Footer ---
	footerText := fmt.Sprintf(app.GetMsg(config.TKeyLblFooter), config.Version)
	footerLabel := widget.NewLabel(footerText)
	footerLabel.Alignment = fyne.TextAlignCenter
	footerLabel.TextStyle = fyne.TextStyle{Italic: true}

	paddedContent := container.NewPadded(container.NewVBox(
		generalCard,
		accountCard,
		modelCard,
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
		footerLabel,
	))

	w.SetContent(paddedContent)
	w.Resize(fyne.NewSize(config.SettingsWindowWidth, paddedContent.MinSize().Height))
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.Window = nil })

	w.Show()
}

// runSignIn launches the interactive authorization and refreshes the
// directory on success.
func (app *QuickEventApp) runSignIn(w fyne.Window) {
	slog.Info(config.MsgAuthFlowStart, config.LogKeyComponent, config.CompUISet)

	if _, err := app.Auth.Token(app.Ctx, true); err != nil {
		slog.Error(config.ErrAuthDenied,
			config.LogKeyComponent, config.CompUISet,
			config.LogKeyError, err,
		)
		dialog.ShowError(err, w)
		return
	}

	app.performRefresh(true)
}

// saveSettings persists the data and applies it immediately.
func (app *QuickEventApp) saveSettings(sw *settingsWidgets, w fyne.Window) {
	slog.Info("Saving preferences", config.LogKeyComponent, config.CompUISet)

	app.Preferences.SetString(config.PrefLanguage, sw.langSelect.Selected)
	app.Preferences.SetString(config.PrefOAuthClientID, sw.entryClientID.Text)
	app.Preferences.SetString(config.PrefCalendarID, sw.entryCalendarID.Text)
	app.Preferences.SetString(config.PrefOllamaHost, sw.entryHost.Text)

	if sw.entryModel.Text != "" {
		app.Preferences.SetString(config.PrefOllamaModel, sw.entryModel.Text)
	}

	// The client secret lives in the keyring only, never in preferences.
	if sw.entryClientSec.Text != "" {
		if err := keyring.Set(config.KeyringService, config.KeyringUserOAuthSecret, sw.entryClientSec.Text); err != nil {
			slog.Error("Failed to save client secret to keyring", config.LogKeyError, err, config.LogKeyComponent, config.CompUISet)
		}
	}

	// Logic: Interval. Empty or 0 disables the periodic refresh.
	intervalText := sw.entryInterval.Text
	if intervalText == "" || intervalText == "0" {
		app.Preferences.SetInt(config.PrefInterval, config.DisabledInterval)
		slog.Info("Auto-refresh disabled via settings", config.LogKeyComponent, config.CompUISet)
	} else {
		if i, err := strconv.Atoi(intervalText); err == nil {
			app.Preferences.SetInt(config.PrefInterval, i)
		}
	}

	if sw.entryPort.Text != "" {
		app.Preferences.SetString(config.PrefRedirectPort, sw.entryPort.Text)
	}

	// Trigger system-wide updates
	app.UpdateLocalizer()
	app.RefreshTrayMenu()

	w.Close()
}
