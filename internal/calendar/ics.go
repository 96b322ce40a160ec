package calendar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-quickevent/internal/composer"
	"github.com/tartampluch/go-quickevent/internal/config"
)

// ExportICS writes the drafts as an iCalendar stream, one VEVENT per draft.
// The export works without any credential so drafts can be carried into any
// other calendar application before (or instead of) online creation.
func ExportICS(w io.Writer, drafts []composer.EventDraft, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	stamp := now.UTC()

	for _, d := range drafts {
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, draftUID(d))
		event.Props.SetText(config.PropSummary, d.Title)
		if d.Description != "" {
			event.Props.SetText(config.PropDescription, d.Description)
		}
		if d.Location != "" {
			event.Props.SetText(config.PropLocation, d.Location)
		}

		dtStamp := ical.NewProp(config.PropDTStamp)
		dtStamp.SetDateTime(stamp)
		event.Props.Set(dtStamp)

		dtStart := ical.NewProp(config.PropDTStart)
		dtEnd := ical.NewProp(config.PropDTEnd)
		if d.AllDay {
			dtStart.SetDate(d.Start)
			dtEnd.SetDate(d.End)
		} else {
			dtStart.SetDateTime(d.Start)
			dtEnd.SetDateTime(d.End)
		}
		event.Props.Set(dtStart)
		event.Props.Set(dtEnd)

		for _, email := range d.Attendees {
			attendee := ical.NewProp(config.PropAttendee)
			attendee.Value = config.MailtoPrefix + email
			event.Props.Add(attendee)
		}

		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return nil
}

// draftUID derives a stable identifier from the draft's defining fields so
// re-importing the same export never duplicates events.
func draftUID(d composer.EventDraft) string {
	input := fmt.Sprintf(config.FormatHashInput,
		d.Title,
		d.Start.UTC().Format(time.RFC3339),
		d.End.UTC().Format(time.RFC3339),
	)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:])[:config.UIDHashLength]
	return fmt.Sprintf(config.FormatUID, short, config.ICalDomain)
}
