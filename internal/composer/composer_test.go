package composer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-quickevent/internal/config"
)

// MockLLM simulates the language model.
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestComposer(llm *MockLLM) *Composer {
	return NewComposer(llm, MockClock{CurrentTime: testNow})
}

func TestDraft_HappyPath(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		// The prompt must carry the current local time and the raw request.
		return strings.Contains(prompt, testNow.Format(config.PromptTimeWithZone)) &&
			strings.Contains(prompt, "lunch with Bob tomorrow at noon")
	})).Return(`{"events":[{"title":"Lunch with Bob","start":"2025-06-16T12:00","end":"2025-06-16T13:00"}]}`, nil)

	attendees := []string{"bob@x.com"}
	drafts, err := newTestComposer(llm).Draft(context.Background(), "lunch with Bob tomorrow at noon", attendees)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Lunch with Bob", drafts[0].Title)
	assert.Equal(t, attendees, drafts[0].Attendees, "resolved mentions must be attached to the draft")
	assert.False(t, drafts[0].AllDay)
	assert.Equal(t, time.Hour, drafts[0].End.Sub(drafts[0].Start))
	llm.AssertExpectations(t)
}

func TestDraft_ToleratesMarkdownFences(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Generate", mock.Anything, mock.Anything).Return(
		"```json\n{\"events\":[{\"title\":\"Standup\",\"start\":\"2025-06-16T09:00\"}]}\n```", nil)

	drafts, err := newTestComposer(llm).Draft(context.Background(), "standup", nil)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Standup", drafts[0].Title)
}

func TestDraft_MissingEndDefaultsToStandardDuration(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Generate", mock.Anything, mock.Anything).Return(
		`{"events":[{"title":"Call","start":"2025-06-16T09:00"}]}`, nil)

	drafts, err := newTestComposer(llm).Draft(context.Background(), "call", nil)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, config.DefaultDurationMin*time.Minute, drafts[0].End.Sub(drafts[0].Start))
}

func TestDraft_DateOnlyStartBecomesAllDay(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Generate", mock.Anything, mock.Anything).Return(
		`{"events":[{"title":"Conference","start":"2025-07-01"}]}`, nil)

	drafts, err := newTestComposer(llm).Draft(context.Background(), "conference", nil)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.True(t, drafts[0].AllDay)
	assert.Equal(t, 24*time.Hour, drafts[0].End.Sub(drafts[0].Start))
}

func TestDraft_InvalidDraftsAreSkipped(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Generate", mock.Anything, mock.Anything).Return(
		`{"events":[
			{"title":"","start":"2025-06-16T09:00"},
			{"title":"No start"},
			{"title":"Kept","start":"2025-06-16T10:00"}
		]}`, nil)

	drafts, err := newTestComposer(llm).Draft(context.Background(), "mixed", nil)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Kept", drafts[0].Title)
}

func TestDraft_AllRejectedIsAnError(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Generate", mock.Anything, mock.Anything).Return(`{"events":[{"title":""}]}`, nil)

	_, err := newTestComposer(llm).Draft(context.Background(), "nothing usable", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrLLMEmpty)
}

func TestDraft_ModelFailurePropagates(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("daemon unreachable"))

	_, err := newTestComposer(llm).Draft(context.Background(), "anything", nil)

	assert.Error(t, err)
}

func TestDraft_GarbageOutputIsADecodeError(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Generate", mock.Anything, mock.Anything).Return("Sure! Here is your event:", nil)

	_, err := newTestComposer(llm).Draft(context.Background(), "anything", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrLLMDecode)
}

func TestDraft_CappedAtMaxDrafts(t *testing.T) {
	var events []string
	for i := 0; i < config.ComposerMaxDrafts+3; i++ {
		events = append(events, `{"title":"E","start":"2025-06-16T09:00"}`)
	}
	llm := new(MockLLM)
	llm.On("Generate", mock.Anything, mock.Anything).Return(
		`{"events":[`+strings.Join(events, ",")+`]}`, nil)

	drafts, err := newTestComposer(llm).Draft(context.Background(), "busy day", nil)

	require.NoError(t, err)
	assert.Len(t, drafts, config.ComposerMaxDrafts)
}

func TestParseWhen(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		allDay  bool
		wantErr bool
	}{
		{name: "RFC3339", value: "2025-06-16T09:00:00Z"},
		{name: "Local with seconds", value: "2025-06-16T09:00:00"},
		{name: "Local without seconds", value: "2025-06-16T09:00"},
		{name: "Date only is all-day", value: "2025-06-16", allDay: true},
		{name: "Empty", value: "", wantErr: true},
		{name: "Garbage", value: "next tuesday-ish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, allDay, err := parseWhen(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.False(t, got.IsZero())
			assert.Equal(t, tt.allDay, allDay)
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "No fences", in: `{"a":1}`, want: `{"a":1}`},
		{name: "Plain fences", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "Tagged fences", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "Surrounding whitespace", in: "  ```json\n{\"a\":1}\n```  ", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}
