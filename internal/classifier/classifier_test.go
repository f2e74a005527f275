package classifier

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertbridge/internal/config"
	"alertbridge/internal/message"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   bool
		reason string
	}{
		{name: "empty", text: "", reason: ReasonEmpty},
		{name: "triggered word", text: "Alert triggered on db1", want: true, reason: ReasonQualified},
		{name: "triggered label", text: "[P1] Triggered: CPU high", want: true, reason: ReasonQualified},
		{name: "uppercase", text: "TRIGGERED now", want: true, reason: ReasonQualified},
		{name: "recovered wins", text: "Triggered: CPU high\nRecovered", reason: ReasonRecovered},
		{name: "recovered inside word", text: "unrecovered triggered", reason: ReasonRecovered},
		{name: "word boundary", text: "retriggeredness", reason: ReasonNotTriggered},
		{name: "chatter", text: "deploy finished", reason: ReasonNotTriggered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			assert.Equal(t, tt.want, got.Qualifies)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		msg  message.RawMessage
		text string
		want string
	}{
		{
			name: "attachment title",
			msg:  message.RawMessage{Attachments: []message.Attachment{{Title: "Triggered: CPU high"}}},
			want: "Triggered: CPU high",
		},
		{
			name: "later attachment fallback matches first",
			msg: message.RawMessage{Attachments: []message.Attachment{
				{Title: "Dashboard"},
				{Fallback: "[Grafana] Triggered:  disk\nfull"},
			}},
			want: "[Grafana] Triggered: disk full",
		},
		{
			name: "first titled attachment",
			msg: message.RawMessage{Attachments: []message.Attachment{
				{Fallback: "no title"},
				{Title: "Some alert"},
			}},
			want: "Some alert",
		},
		{
			name: "text line from token",
			text: "\n  header line\n<https://g/1|[FIRING]> Triggered: latency <https://x|p99>  \n",
			want: "Triggered: latency p99",
		},
		{
			name: "first line when no token",
			text: "\n\n  <https://g|Grafana> alert triggered \nsecond",
			want: "Grafana alert triggered",
		},
		{
			name: "untitled attachments fall back to text",
			msg:  message.RawMessage{Attachments: []message.Attachment{{Text: "body"}}},
			text: "body",
			want: "body",
		},
		{name: "empty", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.msg, tt.text))
		})
	}
}

func TestSanitize_Truncates(t *testing.T) {
	input := strings.Repeat("a", 100) + "\n\n" + strings.Repeat("b", 100)

	got := Sanitize(input)
	assert.Len(t, got, 120)
	assert.NotContains(t, got, "\n")
	assert.Equal(t, strings.Repeat("a", 100)+" "+strings.Repeat("b", 19), got)
}

func TestSanitize_CountsRunes(t *testing.T) {
	got := Sanitize(strings.Repeat("é", 130))
	assert.Equal(t, 120, len([]rune(got)))
}

func TestClassifier_EndToEndAttachment(t *testing.T) {
	c, err := New(nil, "")
	require.NoError(t, err)

	msg := message.RawMessage{
		TS: "1700000000.000100",
		Attachments: []message.Attachment{{
			Title:  "Triggered: CPU high",
			Text:   "host=db1",
			Fields: []message.Field{{Title: "Severity", Value: "High"}},
		}},
	}

	d, err := c.Decide(context.Background(), "C1", msg, message.Normalize(msg))
	require.NoError(t, err)
	assert.True(t, d.Qualifies)
	assert.Equal(t, "Triggered: CPU high", d.Summary)
	assert.Equal(t, "High", d.Severity)
}

func TestClassifier_SuppressRules(t *testing.T) {
	c, err := New([]config.SuppressRule{
		{Name: "staging", Expression: `text.contains("staging")`},
		{Name: "other-channel", Expression: `channel != "C1"`},
	}, "Highest")
	require.NoError(t, err)

	ctx := context.Background()

	d, err := c.Decide(ctx, "C1", message.RawMessage{}, "Triggered: staging db")
	require.NoError(t, err)
	assert.False(t, d.Qualifies)
	assert.Equal(t, ReasonSuppressed, d.Reason)
	assert.Equal(t, "staging", d.Rule)

	d, err = c.Decide(ctx, "C1", message.RawMessage{}, "Triggered: prod db")
	require.NoError(t, err)
	assert.True(t, d.Qualifies)
	assert.Equal(t, "Highest", d.Severity)

	d, err = c.Decide(ctx, "C1", message.RawMessage{}, "Recovered: staging")
	require.NoError(t, err)
	assert.Equal(t, ReasonRecovered, d.Reason)
	assert.Empty(t, d.Rule)
}

func TestNew_RejectsBadRule(t *testing.T) {
	_, err := New([]config.SuppressRule{{Name: "bad", Expression: `text + 1`}}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}
