package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-quickevent/internal/calendar"
	"github.com/tartampluch/go-quickevent/internal/composer"
	"github.com/tartampluch/go-quickevent/internal/config"
	"github.com/tartampluch/go-quickevent/internal/directory"
)

// flowState is the composer window's lifecycle position. Every user-visible
// transition goes through setFlowState so the label and button enablement
// never drift apart.
type flowState int

const (
	stateIdle flowState = iota
	stateDrafting
	stateReview
	stateCreating
	stateCreated
	stateFailed
)

// labelKey maps a state to its translation key.
func (s flowState) labelKey() string {
	switch s {
	case stateDrafting:
		return config.TKeyStateDrafting
	case stateReview:
		return config.TKeyStateReview
	case stateCreating:
		return config.TKeyStateCreating
	case stateCreated:
		return config.TKeyStateCreated
	case stateFailed:
		return config.TKeyStateFailed
	default:
		return config.TKeyStateIdle
	}
}

// mainWidgets holds references to the composer window elements.
type mainWidgets struct {
	request     *MentionEntry
	stateLabel  *widget.Label
	draftList   *widget.List
	suggestList *widget.List
	suggestions []directory.Contact

	btnDraft   *widget.Button
	btnCreate  *widget.Button
	btnDiscard *widget.Button
	btnExport  *widget.Button
}

// ShowMainWindow displays the composer window (singleton).
func (app *QuickEventApp) ShowMainWindow() {
	if app.mainWindow != nil {
		app.mainWindow.RequestFocus()
		return
	}

	w := app.App.NewWindow(app.GetMsg(config.TKeyWinTitle))
	app.mainWindow = w
	w.Resize(fyne.NewSize(config.MainWinWidth, config.MainWinHeight))

	mw := &mainWidgets{}
	app.main = mw

	// --- Request Entry with Mention Dropdown ---
	mw.request = NewMentionEntry()
	mw.request.PlaceHolder = app.GetMsg(config.TKeyHelpRequest)
	mw.request.OnMentionQuery = app.updateSuggestions

	mw.suggestList = widget.NewList(
		func() int { return len(mw.suggestions) },
		func() fyne.CanvasObject { return widget.NewLabel(config.TablePlaceholder) },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id >= len(mw.suggestions) {
				return
			}
			c := mw.suggestions[id]
			o.(*widget.Label).SetText(fmt.Sprintf("%s <%s>", c.Name, c.Email))
		},
	)
	mw.suggestList.OnSelected = func(id widget.ListItemID) {
		mw.suggestList.UnselectAll()
		if id >= len(mw.suggestions) {
			return
		}
		app.acceptSuggestion(mw.suggestions[id])
	}
	mw.suggestList.Hide()

	// --- Draft List ---
	mw.draftList = widget.NewList(
		func() int { return len(app.drafts) },
		func() fyne.CanvasObject { return widget.NewLabel(config.TablePlaceholder) },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id >= len(app.drafts) {
				return
			}
			o.(*widget.Label).SetText(app.draftLine(app.drafts[id]))
		},
	)

	// --- State & Actions ---
	mw.stateLabel = widget.NewLabel(app.GetMsg(config.TKeyStateIdle))
	mw.stateLabel.TextStyle = fyne.TextStyle{Italic: true}

	mw.btnDraft = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnDraft), theme.MailComposeIcon(), func() {
		go app.runDraft(mw.request.Text)
	})
	mw.btnDraft.Importance = widget.HighImportance

	mw.btnCreate = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnCreate), theme.ConfirmIcon(), func() {
		go app.runCreate()
	})

	mw.btnDiscard = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnDiscard), theme.DeleteIcon(), func() {
		app.discardDrafts()
	})

	mw.btnExport = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnExportICS), theme.DownloadIcon(), func() {
		app.exportDrafts(w)
	})

	app.applyFlowState(stateIdle)

	// Layout Assembly
	requestBlock := container.NewBorder(
		widget.NewLabel(app.GetMsg(config.TKeyLblRequest)), mw.suggestList, nil, nil,
		mw.request,
	)
	draftBlock := container.NewBorder(
		widget.NewLabel(app.GetMsg(config.TKeyLblDrafts)), nil, nil, nil,
		mw.draftList,
	)
	actions := container.NewHBox(mw.btnDraft, mw.btnCreate, mw.btnExport, mw.btnDiscard)
	footer := container.NewVBox(actions, mw.stateLabel)

	content := container.NewBorder(requestBlock, footer, nil, nil, draftBlock)
	w.SetContent(content)

	w.SetOnClosed(func() {
		app.mainWindow = nil
		app.main = nil
	})

	w.Show()
}

// applyFlowState records the transition and syncs label and buttons.
func (app *QuickEventApp) applyFlowState(s flowState) {
	slog.Debug(config.MsgStateChange,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyOld, int(app.flow),
		config.LogKeyNew, int(s),
	)
	app.flow = s

	mw := app.main
	if mw == nil {
		return
	}

	mw.stateLabel.SetText(app.GetMsg(s.labelKey()))

	busy := s == stateDrafting || s == stateCreating
	setEnabled(mw.btnDraft, !busy)
	setEnabled(mw.btnCreate, s == stateReview || s == stateFailed)
	setEnabled(mw.btnDiscard, len(app.drafts) > 0 && !busy)
	setEnabled(mw.btnExport, len(app.drafts) > 0 && !busy)

	// A failed creation offers a retry on the same drafts.
	if s == stateFailed {
		mw.btnCreate.SetText(app.GetMsg(config.TKeyBtnRetry))
	} else {
		mw.btnCreate.SetText(app.GetMsg(config.TKeyBtnCreate))
	}

	mw.draftList.Refresh()
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}

// runDraft sends the request to the composer and moves to review on success.
func (app *QuickEventApp) runDraft(request string) {
	if strings.TrimSpace(request) == "" {
		return
	}

	app.applyFlowState(stateDrafting)

	attendees := resolveMentions(request, app.mentionRefs)
	drafts, err := app.Composer.Draft(app.Ctx, request, attendees)
	if err != nil {
		slog.Error(config.MsgDraftRejected,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyError, err,
		)
		app.drafts = nil
		app.applyFlowState(stateIdle)
		app.App.SendNotification(fyne.NewNotification(config.TitleCreateError, app.GetMsg(config.TKeyNotifError)))
		return
	}

	app.drafts = drafts
	app.applyFlowState(stateReview)
}

// runCreate inserts every reviewed draft into the configured calendar.
// Creation is all-or-report: a failure keeps the drafts so the user can
// retry or export them instead.
func (app *QuickEventApp) runCreate() {
	if len(app.drafts) == 0 {
		return
	}

	app.applyFlowState(stateCreating)
	calendarID := app.Preferences.StringWithFallback(config.PrefCalendarID, config.DefaultCalendarID)

	var failed bool
	for _, d := range app.drafts {
		if _, err := app.Creator.Create(app.Ctx, calendarID, d); err != nil {
			slog.Error(config.ErrCreateFailed,
				config.LogKeyComponent, config.CompUI,
				config.LogKeyTitle, d.Title,
				config.LogKeyError, err,
			)
			failed = true
		}
	}

	if failed {
		app.applyFlowState(stateFailed)
		app.App.SendNotification(fyne.NewNotification(config.TitleCreateError, app.GetMsg(config.TKeyNotifError)))
		return
	}

	app.applyFlowState(stateCreated)
	app.App.SendNotification(fyne.NewNotification(config.AppName, app.GetMsg(config.TKeyNotifCreated)))
}

// discardDrafts clears the review list and returns to idle.
func (app *QuickEventApp) discardDrafts() {
	app.drafts = nil
	app.applyFlowState(stateIdle)
}

// exportDrafts writes the current drafts to an ICS file of the user's choice.
func (app *QuickEventApp) exportDrafts(w fyne.Window) {
	if len(app.drafts) == 0 {
		return
	}
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := calendar.ExportICS(wc, app.drafts, app.Clock.Now()); err != nil {
			slog.Error(config.ErrICalEncode,
				config.LogKeyComponent, config.CompUI,
				config.LogKeyError, err,
			)
			dialog.ShowError(err, w)
		}
	}, w)
	d.SetFilter(storage.NewExtensionFileFilter([]string{config.ExtICS}))
	d.Show()
}

// updateSuggestions refreshes the mention dropdown for the active query.
// Candidates come from the held directory first; queries long enough for the
// fuzzy search also trigger a background lookup whose results are merged in
// additively.
func (app *QuickEventApp) updateSuggestions(query string, active bool) {
	mw := app.main
	if mw == nil {
		return
	}
	if !active {
		mw.suggestions = nil
		mw.suggestList.Hide()
		return
	}

	held := app.snapshotContacts()
	mw.suggestions = filterContacts(held, query, config.MentionListMaxRows)
	mw.suggestList.Refresh()
	mw.suggestList.Show()

	if len([]rune(query)) >= config.MinSearchQueryLen {
		go func() {
			results := app.Directory.SearchContacts(app.Ctx, query)
			if len(results) == 0 {
				return
			}
			merged := directory.MergeAdditive(held, results)
			mw.suggestions = filterContacts(merged, query, config.MentionListMaxRows)
			mw.suggestList.Refresh()
		}()
	}
}

// acceptSuggestion inserts the chosen contact as a mention and records the
// name-to-email binding for later resolution.
func (app *QuickEventApp) acceptSuggestion(c directory.Contact) {
	mw := app.main
	if mw == nil {
		return
	}
	mw.request.AcceptMention(c.Name)
	app.mentionRefs[c.Name] = c.Email
	mw.suggestions = nil
	mw.suggestList.Hide()

	slog.Debug(config.MsgMentionResolved,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyEmail, c.Email,
	)
}

// draftLine renders one review row.
func (app *QuickEventApp) draftLine(d composer.EventDraft) string {
	format := app.GetMsg(config.TKeyFormatTime)
	if format == config.TKeyFormatTime {
		format = config.DateFormatLocalMin
	}
	return formatDraftLine(d, format, app.GetMsg(config.TKeyDraftAllDay))
}

// formatDraftLine is the pure part of draft row rendering.
func formatDraftLine(d composer.EventDraft, timeFormat, allDayLabel string) string {
	if d.AllDay {
		return fmt.Sprintf("%s (%s, %s)", d.Title, d.Start.Format(config.DateFormatDateOnly), allDayLabel)
	}
	return fmt.Sprintf("%s (%s)", d.Title, d.Start.Format(timeFormat))
}
