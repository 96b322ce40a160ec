package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// MentionEntry is a multiline Entry that reports the mention token under the
// caret after every edit. It embeds widget.Entry to inherit all standard
// behavior; only input events are intercepted.
type MentionEntry struct {
	widget.Entry

	// OnMentionQuery fires after each edit with the active mention query.
	// active is false when the caret is not inside a mention token.
	OnMentionQuery func(query string, active bool)
}

// NewMentionEntry creates a new instance of MentionEntry.
func NewMentionEntry() *MentionEntry {
	entry := &MentionEntry{}
	entry.MultiLine = true
	entry.Wrapping = fyne.TextWrapWord
	entry.ExtendBaseWidget(entry)
	return entry
}

// TypedRune intercepts text input events to re-evaluate the mention token.
func (e *MentionEntry) TypedRune(r rune) {
	e.Entry.TypedRune(r)
	e.notifyMention()
}

// TypedKey covers deletions and caret movement.
func (e *MentionEntry) TypedKey(key *fyne.KeyEvent) {
	e.Entry.TypedKey(key)
	e.notifyMention()
}

// CaretToken returns the mention token currently under the caret.
func (e *MentionEntry) CaretToken() (query string, start int, active bool) {
	return mentionToken(e.Text, caretOffset(e.Text, e.CursorRow, e.CursorColumn))
}

// AcceptMention replaces the active token with the chosen display name and
// moves the caret past it. No-op when the caret is not inside a mention.
func (e *MentionEntry) AcceptMention(name string) {
	_, start, active := e.CaretToken()
	if !active {
		return
	}
	caret := caretOffset(e.Text, e.CursorRow, e.CursorColumn)
	text, newCaret := replaceMention(e.Text, start, caret, name)
	e.SetText(text)
	e.CursorRow, e.CursorColumn = caretPosition(text, newCaret)
	e.Refresh()
	e.notifyMention()
}

func (e *MentionEntry) notifyMention() {
	if e.OnMentionQuery == nil {
		return
	}
	query, _, active := e.CaretToken()
	e.OnMentionQuery(query, active)
}

// caretPosition converts a rune offset back into a row/column pair.
func caretPosition(text string, offset int) (row, col int) {
	runes := []rune(text)
	if offset > len(runes) {
		offset = len(runes)
	}
	for i := 0; i < offset; i++ {
		if runes[i] == '\n' {
			row++
			col = 0
			continue
		}
		col++
	}
	return row, col
}
