package ui

import (
	"log/slog"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-quickevent/internal/config"
	"github.com/tartampluch/go-quickevent/internal/directory"
)

// ShowContactsWindow displays the aggregated directory in a sortable table.
// It implements a singleton pattern: if the window is already open, it
// requests focus. It uses native Fyne table headers for sorting interaction.
func (app *QuickEventApp) ShowContactsWindow() {
	if app.contactsWindow != nil {
		app.contactsWindow.RequestFocus()
		return
	}

	title := app.GetMsg(config.TKeyWinContacts)
	app.contactsWindow = app.App.NewWindow(title)
	app.contactsWindow.Resize(fyne.NewSize(config.ContactsWinWidth, config.ContactsWinHeight))

	// Local copy for sorting/display to avoid racing the background worker.
	displayContacts := app.snapshotContacts()

	slog.Info(config.LogMsgOpenWin,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyCount, len(displayContacts))

	// Internal Sorting State
	currentSortCol := config.ColIDName
	sortAsc := true

	var refreshTable func()

	performSort := func() {
		sortContacts(displayContacts, currentSortCol, sortAsc)
		slog.Debug(config.LogMsgSorted,
			config.LogKeyComponent, config.CompUI,
			config.LogKeySortCol, currentSortCol,
			config.LogKeySortAsc, sortAsc)
	}

	performSort()

	// --- UI Table Component ---

	table := widget.NewTable(
		func() (int, int) {
			return len(displayContacts), 2
		},
		func() fyne.CanvasObject {
			return widget.NewLabel(config.TablePlaceholder)
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			label := o.(*widget.Label)
			if id.Row >= len(displayContacts) {
				return
			}
			c := displayContacts[id.Row]

			switch id.Col {
			case config.ColIDName:
				label.SetText(c.Name)
			case config.ColIDEmail:
				label.SetText(c.Email)
			}
		},
	)

	// --- Header Configuration (Fyne Native) ---

	table.ShowHeaderRow = true

	table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewButton("Header", func() {})
	}

	table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		btn := o.(*widget.Button)

		var titleKey string
		switch id.Col {
		case config.ColIDName:
			titleKey = config.TKeyColName
		case config.ColIDEmail:
			titleKey = config.TKeyColEmail
		}

		text := app.GetMsg(titleKey)

		if id.Col == currentSortCol {
			if sortAsc {
				text += config.SortIconAsc
			} else {
				text += config.SortIconDesc
			}
		}

		btn.SetText(text)

		btn.OnTapped = func() {
			if currentSortCol == id.Col {
				sortAsc = !sortAsc
			} else {
				currentSortCol = id.Col
				sortAsc = true
			}
			refreshTable()
		}
	}

	table.SetColumnWidth(config.ColIDName, config.ColWidthName)
	table.SetColumnWidth(config.ColIDEmail, config.ColWidthEmail)

	refreshTable = func() {
		performSort()
		table.Refresh()
	}

	// --- Export ---
	win := app.contactsWindow
	btnExport := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnExportVCF), theme.DownloadIcon(), func() {
		app.exportContacts(win, displayContacts)
	})

	content := container.NewBorder(nil, btnExport, nil, nil, table)
	app.contactsWindow.SetContent(content)

	app.contactsWindow.SetOnClosed(func() {
		app.contactsWindow = nil
	})

	app.contactsWindow.Show()
}

// exportContacts writes the displayed directory to a vCard file.
func (app *QuickEventApp) exportContacts(w fyne.Window, contacts []directory.Contact) {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := directory.ExportVCards(wc, contacts); err != nil {
			slog.Error(config.ErrVCardEncode,
				config.LogKeyComponent, config.CompUI,
				config.LogKeyError, err,
			)
			dialog.ShowError(err, w)
		}
	}, w)
	d.SetFilter(storage.NewExtensionFileFilter([]string{config.ExtVCF}))
	d.Show()
}

// sortContacts orders the list by the selected column with a stable
// secondary key so equal values keep a deterministic order.
func sortContacts(contacts []directory.Contact, col int, asc bool) {
	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := contacts[i], contacts[j]
		var less bool
		switch col {
		case config.ColIDEmail:
			less = strings.ToLower(a.Email) < strings.ToLower(b.Email)
		default: // config.ColIDName
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if an == bn {
				less = strings.ToLower(a.Email) < strings.ToLower(b.Email)
			} else {
				less = an < bn
			}
		}

		if !asc {
			return !less
		}
		return less
	})
}
