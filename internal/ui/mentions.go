package ui

import (
	"sort"
	"strings"
	"unicode"

	"github.com/tartampluch/go-quickevent/internal/config"
	"github.com/tartampluch/go-quickevent/internal/directory"
)

// mentionToken extracts the mention being typed at the caret, if any. The
// token runs from the nearest preceding trigger character to the caret and
// must not span whitespace. A trigger inside a word (like an email address)
// is not a mention.
func mentionToken(text string, caret int) (query string, start int, ok bool) {
	runes := []rune(text)
	if caret < 0 {
		caret = 0
	}
	if caret > len(runes) {
		caret = len(runes)
	}

	for i := caret - 1; i >= 0; i-- {
		r := runes[i]
		if unicode.IsSpace(r) {
			return "", 0, false
		}
		if r != config.MentionTrigger {
			continue
		}
		if i > 0 && !unicode.IsSpace(runes[i-1]) {
			return "", 0, false
		}
		return string(runes[i+1 : caret]), i, true
	}
	return "", 0, false
}

// replaceMention substitutes the token between start and caret with the
// chosen display name plus a trailing space, returning the new text and the
// new caret position.
func replaceMention(text string, start, caret int, name string) (string, int) {
	runes := []rune(text)
	if caret > len(runes) {
		caret = len(runes)
	}
	inserted := string(config.MentionTrigger) + name + " "

	var b strings.Builder
	b.WriteString(string(runes[:start]))
	b.WriteString(inserted)
	b.WriteString(string(runes[caret:]))

	return b.String(), start + len([]rune(inserted))
}

// resolveMentions returns the emails of every inserted mention still present
// in the text. Mentions the user edited away are dropped; duplicates resolve
// once. The result is sorted for deterministic attendee lists.
func resolveMentions(text string, refs map[string]string) []string {
	seen := make(map[string]struct{})
	var emails []string
	for name, email := range refs {
		if email == "" {
			continue
		}
		if !strings.Contains(text, string(config.MentionTrigger)+name) {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}

// filterContacts returns up to max contacts whose name or email contains the
// query, case-insensitively. An empty query matches everyone, which gives
// the dropdown something to show right after the trigger is typed.
func filterContacts(contacts []directory.Contact, query string, max int) []directory.Contact {
	q := strings.ToLower(query)
	var out []directory.Contact
	for _, c := range contacts {
		if q != "" &&
			!strings.Contains(strings.ToLower(c.Name), q) &&
			!strings.Contains(strings.ToLower(c.Email), q) {
			continue
		}
		out = append(out, c)
		if len(out) == max {
			break
		}
	}
	return out
}

// caretOffset converts a row/column cursor position into a rune offset.
func caretOffset(text string, row, col int) int {
	lines := strings.Split(text, "\n")
	offset := 0
	for i := 0; i < row && i < len(lines); i++ {
		offset += len([]rune(lines[i])) + 1 // +1 for the newline
	}
	offset += col
	if max := len([]rune(text)); offset > max {
		offset = max
	}
	return offset
}
