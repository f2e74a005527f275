package message

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) RawMessage {
	t.Helper()
	var msg RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return msg
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "empty message",
			raw:  `{"ts":"1.0"}`,
			want: "",
		},
		{
			name: "flat text unchanged",
			raw:  `{"ts":"1.0","text":"  Triggered: disk full  "}`,
			want: "  Triggered: disk full  ",
		},
		{
			name: "first attachment only",
			raw: `{"ts":"1.0","text":"ignored","attachments":[
				{"title":"Triggered: CPU high","text":"host=db1","fields":[{"title":"Severity","value":"High"}]},
				{"title":"Triggered: second","text":"never shown"}]}`,
			want: "Triggered: CPU high\nhost=db1\nSeverity\nHigh",
		},
		{
			name: "fallback when title missing",
			raw:  `{"ts":"1.0","attachments":[{"fallback":"Triggered via fallback","fields":[{"value":"only value"}]}]}`,
			want: "Triggered via fallback\nonly value",
		},
		{
			name: "attachment with nothing yields empty",
			raw:  `{"ts":"1.0","text":"ignored","attachments":[{"image_url":"https://x/y.png"}]}`,
			want: "",
		},
		{
			name: "section and rich text blocks",
			raw: `{"ts":"1.0","blocks":[
				{"type":"section","text":{"type":"mrkdwn","text":"Header"}},
				{"type":"rich_text","elements":[
					{"type":"rich_text_section","elements":[
						{"type":"emoji","name":"red_circle"},
						{"type":"text","text":" Triggered by "},
						{"type":"user","user_id":"U1"},
						{"type":"text","text":" in "},
						{"type":"channel","channel_id":"C9"},
						{"type":"text","text":" "},
						{"type":"link","url":"https://grafana/d/1"},
						{"type":"text","text":" "},
						{"type":"link","url":"https://grafana/d/2","text":"dash"},
						{"type":"emoji","name":"unknown_thing"},
						{"type":"usergroup","text":"!ops"}
					]},
					{"type":"rich_text_list","elements":[]}
				]},
				{"type":"divider"}]}`,
			want: "Header\n🔴 Triggered by @U1 in #C9 https://grafana/d/1 dash:unknown_thing:!ops",
		},
		{
			name: "blocks trimmed",
			raw:  `{"ts":"1.0","blocks":[{"type":"rich_text","elements":[{"type":"rich_text_section","elements":[{"type":"text","text":"  padded\n"}]}]}]}`,
			want: "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(decode(t, tt.raw)))
		})
	}
}

func TestExtractImages(t *testing.T) {
	msg := decode(t, `{"ts":"1.0",
		"files":[
			{"id":"F1","mimetype":"image/png","url_private":"https://files/F1","name":"graph.png"},
			{"id":"F2","mimetype":"image/jpeg","url_private":"https://files/F2"},
			{"id":"F3","mimetype":"text/plain","url_private":"https://files/F3"},
			{"id":"F4","mimetype":"image/png"}],
		"attachments":[{"image_url":"https://att/1.png"},{"image_url":"https://att/1.png"}],
		"blocks":[
			{"type":"image","image_url":"https://blk/1.png","alt_text":"cpu"},
			{"type":"context","elements":[
				{"type":"mrkdwn","text":"hi"},
				{"type":"image","image_url":"https://ctx/1.png"}]}]}`)

	assert.Equal(t, []ImageRef{
		{URL: "https://files/F1", Filename: "graph.png", Private: true},
		{URL: "https://files/F2", Filename: "F2.png", Private: true},
		{URL: "https://att/1.png", Filename: "attachment.png"},
		{URL: "https://att/1.png", Filename: "attachment.png"},
		{URL: "https://blk/1.png", Filename: "cpu"},
		{URL: "https://ctx/1.png", Filename: "image.png"},
	}, ExtractImages(msg))
}

func TestExtractImages_Empty(t *testing.T) {
	assert.Empty(t, ExtractImages(RawMessage{}))
}

func TestDecode_UnknownKindsAreKept(t *testing.T) {
	msg := decode(t, `{"ts":"1.0","blocks":[
		{"type":"divider"},
		{"type":"section","text":"not an object"},
		{"type":"rich_text","elements":[
			{"type":"rich_text_quote","elements":[]},
			{"type":"rich_text_section","elements":[{"type":"date","timestamp":1}]}]},
		{"type":"context","elements":[{"type":"button"}]}]}`)

	require.Len(t, msg.Blocks, 4)
	assert.Equal(t, "divider", msg.Blocks[0].Kind())
	assert.IsType(t, UnknownBlock{}, msg.Blocks[1])
	assert.Equal(t, "section", msg.Blocks[1].Kind())

	err := Validate(msg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownVariant))
	assert.Contains(t, err.Error(), `blocks[0] has type "divider"`)
	assert.Contains(t, err.Error(), `blocks[2].elements[0] has type "rich_text_quote"`)
	assert.Contains(t, err.Error(), `blocks[2].elements[1].elements[0] has type "date"`)
	assert.Contains(t, err.Error(), `blocks[3].elements[0] has type "button"`)

	assert.Equal(t, "", Normalize(msg))
}

func TestValidate_KnownKinds(t *testing.T) {
	msg := decode(t, `{"ts":"1.0","blocks":[{"type":"section","text":{"type":"plain_text","text":"a"}},{"type":"image","image_url":"u"}]}`)
	assert.NoError(t, Validate(msg))
}

func TestRawMessage_KeepsRawBytes(t *testing.T) {
	raw := `{"ts":"1.0","text":"hi","extra":{"a":1}}`
	msg := decode(t, raw)
	assert.JSONEq(t, raw, string(msg.Raw))
}

func TestReplaceShortcodes(t *testing.T) {
	assert.Equal(t, "🔴 down :not_known: 🔗", ReplaceShortcodes(":red_circle: down :not_known: :link:"))
}
