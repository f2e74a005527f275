package document

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertbridge/internal/message"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Paragraph
	}{
		{
			name: "link in the middle",
			text: "see <https://x|dash> now",
			want: []Paragraph{{Runs: []Run{
				{Text: "see "},
				{Text: "dash", Href: "https://x"},
				{Text: " now"},
			}}},
		},
		{
			name: "blank lines kept",
			text: "a\n\nb",
			want: []Paragraph{
				{Runs: []Run{{Text: "a"}}},
				{},
				{Runs: []Run{{Text: "b"}}},
			},
		},
		{
			name: "emoji in runs and labels",
			text: ":alert: <https://x|:mag: look>",
			want: []Paragraph{{Runs: []Run{
				{Text: "🚨 "},
				{Text: "🔎 look", Href: "https://x"},
			}}},
		},
		{
			name: "bare url markup is text",
			text: "<https://x>",
			want: []Paragraph{{Runs: []Run{{Text: "<https://x>"}}}},
		},
		{
			name: "adjacent links",
			text: "<a|1><b|2>",
			want: []Paragraph{{Runs: []Run{{Text: "1", Href: "a"}, {Text: "2", Href: "b"}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.text))
		})
	}
}

func TestBuild_AttachmentAlert(t *testing.T) {
	msg := message.RawMessage{
		Attachments: []message.Attachment{{
			Title:  "Triggered: CPU high",
			Text:   "host=db1",
			Fields: []message.Field{{Title: "Severity", Value: "High"}},
		}},
	}
	doc := Build(message.Normalize(msg), msg)

	require.Len(t, doc.Content, 4)
	paragraphs := doc.Paragraphs()
	require.Len(t, paragraphs, 4)
	assert.Equal(t, "Triggered: CPU high", paragraphs[0].Runs[0].Text)
	assert.Equal(t, "host=db1", paragraphs[1].Runs[0].Text)
	assert.Equal(t, "Severity", paragraphs[2].Runs[0].Text)
	assert.Equal(t, "High", paragraphs[3].Runs[0].Text)
}

func TestBuild_TitleLinkAndFallback(t *testing.T) {
	linked := Build("", message.RawMessage{Attachments: []message.Attachment{{Title: "T", TitleLink: "https://t"}}})
	require.Len(t, linked.Content, 1)
	assert.Equal(t, Paragraph{Runs: []Run{{Text: "T", Href: "https://t"}}}, linked.Content[0])

	fallback := Build("", message.RawMessage{Attachments: []message.Attachment{{Fallback: ":alert: F"}}})
	require.Len(t, fallback.Content, 1)
	assert.Equal(t, Paragraph{Runs: []Run{{Text: "🚨 F"}}}, fallback.Content[0])
}

func TestBuild_AttachmentRunsResolveEmoji(t *testing.T) {
	msg := message.RawMessage{
		Attachments: []message.Attachment{{
			Title:     ":red_circle: Triggered: CPU",
			TitleLink: "https://grafana/d/1",
			Fields: []message.Field{
				{Title: ":warning: Sev", Value: ":warning: High"},
				{Title: "<https://runbook|Runbook>", Value: "see link"},
			},
		}},
	}
	doc := Build(message.Normalize(msg), msg)

	require.Len(t, doc.Content, 5)
	assert.Equal(t, Paragraph{Runs: []Run{{Text: "🔴 Triggered: CPU", Href: "https://grafana/d/1"}}}, doc.Content[0])
	assert.Equal(t, Paragraph{Runs: []Run{{Text: "⚠️ Sev"}}}, doc.Content[1])
	assert.Equal(t, Paragraph{Runs: []Run{{Text: "⚠️ High"}}}, doc.Content[2])
	assert.Equal(t, Paragraph{Runs: []Run{{Text: "Runbook", Href: "https://runbook"}}}, doc.Content[3])

	encoded, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), ":red_circle:")
	assert.NotContains(t, string(encoded), ":warning:")
}

func TestBuild_ImagesCappedAtFive(t *testing.T) {
	msg := message.RawMessage{Text: "Triggered: disk"}
	for i := 0; i < 7; i++ {
		msg.Files = append(msg.Files, message.File{
			ID:         fmt.Sprintf("F%d", i),
			Mimetype:   "image/png",
			URLPrivate: fmt.Sprintf("https://files/%d", i),
		})
	}

	doc := Build(msg.Text, msg)
	require.Len(t, doc.Content, 6)
	assert.Equal(t, MediaSingle{URL: "https://files/0"}, doc.Content[1])
	assert.Equal(t, MediaSingle{URL: "https://files/4"}, doc.Content[5])
}

func TestDocument_MarshalJSON(t *testing.T) {
	doc := Document{Content: []Node{
		Paragraph{Runs: []Run{{Text: "see "}, {Text: "dash", Href: "https://x"}}},
		Paragraph{},
		MediaSingle{URL: "https://img"},
	}}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "doc",
		"version": 1,
		"content": [
			{"type": "paragraph", "content": [
				{"type": "text", "text": "see "},
				{"type": "text", "text": "dash", "marks": [{"type": "link", "attrs": {"href": "https://x"}}]}
			]},
			{"type": "paragraph", "content": []},
			{"type": "mediaSingle", "attrs": {"layout": "center"}, "content": [
				{"type": "media", "attrs": {"type": "external", "url": "https://img"}}
			]}
		]
	}`, string(data))
}
