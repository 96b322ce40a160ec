package composer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tartampluch/go-quickevent/internal/config"
	"github.com/tartampluch/go-quickevent/internal/directory"
)

// EventDraft is a proposed calendar event awaiting user approval. Nothing
// leaves the machine until the user explicitly confirms a draft.
type EventDraft struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Attendees   []string // resolved email addresses
}

// LLM generates a completion for a prompt. The composer only needs text in,
// text out; model selection and transport live behind this interface.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Composer turns a natural-language request into validated event drafts
// using a local language model.
type Composer struct {
	Model LLM
	Clock directory.Clock
}

func NewComposer(model LLM, clock directory.Clock) *Composer {
	return &Composer{Model: model, Clock: clock}
}

// rawDraft mirrors the JSON shape the model is instructed to emit. Dates
// arrive as strings and are parsed leniently afterwards.
type rawDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Start       string `json:"start"`
	End         string `json:"end"`
	AllDay      bool   `json:"all_day"`
}

type rawResponse struct {
	Events []rawDraft `json:"events"`
}

// Draft asks the model to convert the request into drafts, then validates
// and normalizes them. The resolved attendee emails are attached to every
// surviving draft; the model never sees or invents addresses.
func (c *Composer) Draft(ctx context.Context, request string, attendees []string) ([]EventDraft, error) {
	log := slog.With(config.LogKeyComponent, config.CompComposer)
	now := c.Clock.Now()

	log.InfoContext(ctx, config.MsgDraftReq, config.LogKeyCount, len(attendees))

	genCtx, cancel := context.WithTimeout(ctx, config.LLMTimeout)
	defer cancel()

	prompt := fmt.Sprintf(config.PromptDraftTemplate, now.Format(config.PromptTimeWithZone), request)
	completion, err := c.Model.Generate(genCtx, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := decodeResponse(completion)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrLLMDecode, err)
	}

	drafts := make([]EventDraft, 0, len(raw.Events))
	for _, r := range raw.Events {
		draft, err := validateDraft(r, attendees)
		if err != nil {
			log.Warn(config.MsgDraftRejected,
				config.LogKeyTitle, r.Title,
				config.LogKeyError, err,
			)
			continue
		}
		drafts = append(drafts, draft)
		if len(drafts) == config.ComposerMaxDrafts {
			break
		}
	}

	if len(drafts) == 0 {
		return nil, errors.New(config.ErrLLMEmpty)
	}

	log.InfoContext(ctx, config.MsgDraftDone, config.LogKeyCount, len(drafts))
	return drafts, nil
}

// decodeResponse parses the model output, tolerating the markdown fences
// smaller models wrap JSON in despite instructions.
func decodeResponse(completion string) (rawResponse, error) {
	var resp rawResponse
	cleaned := stripFences(completion)
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return rawResponse{}, err
	}
	return resp, nil
}

// stripFences removes a surrounding ``` block, with or without a language
// tag, and returns the inner text trimmed.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json").
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// validateDraft enforces the minimum contract on one raw draft: a title and
// a parseable start. A missing end defaults to the standard duration, or one
// day for all-day events.
func validateDraft(r rawDraft, attendees []string) (EventDraft, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return EventDraft{}, errors.New(config.ErrDraftNoTitle)
	}

	start, startAllDay, err := parseWhen(r.Start)
	if err != nil {
		return EventDraft{}, fmt.Errorf("%s: %w", config.ErrDraftNoStart, err)
	}
	allDay := r.AllDay || startAllDay

	var end time.Time
	if r.End != "" {
		end, _, err = parseWhen(r.End)
		if err != nil {
			end = time.Time{}
		}
	}
	if end.IsZero() || !end.After(start) {
		if allDay {
			end = start.AddDate(0, 0, config.AllDayEventDays)
		} else {
			end = start.Add(config.DefaultDurationMin * time.Minute)
		}
	}

	return EventDraft{
		Title:       title,
		Description: strings.TrimSpace(r.Description),
		Location:    strings.TrimSpace(r.Location),
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Attendees:   attendees,
	}, nil
}

// parseWhen parses a model-supplied timestamp against the accepted layouts.
// Timestamps without an offset are interpreted in local time, matching the
// prompt instructions. A date-only value marks the draft all-day.
func parseWhen(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, errors.New(config.ErrDateParse)
	}

	if t, err := time.Parse(config.DateFormatRFC3339, value); err == nil {
		return t, false, nil
	}
	for _, layout := range []string{config.DateFormatLocal, config.DateFormatLocalMin} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, false, nil
		}
	}
	if t, err := time.ParseInLocation(config.DateFormatDateOnly, value, time.Local); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("%s: %q", config.ErrDateParse, value)
}
