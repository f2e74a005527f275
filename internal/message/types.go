package message

import (
	"encoding/json"
)

// RawMessage is one channel message as returned by conversations.history.
// Every field is optional.
type RawMessage struct {
	TS          string       `json:"ts"`
	Text        string       `json:"text,omitempty"`
	Blocks      Blocks       `json:"blocks,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Files       []File       `json:"files,omitempty"`

	// Raw holds the exact bytes the message was decoded from.
	Raw json.RawMessage `json:"-"`
}

func (m *RawMessage) UnmarshalJSON(data []byte) error {
	type plain RawMessage
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = RawMessage(p)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

type Attachment struct {
	Title     string  `json:"title,omitempty"`
	TitleLink string  `json:"title_link,omitempty"`
	Fallback  string  `json:"fallback,omitempty"`
	Text      string  `json:"text,omitempty"`
	ImageURL  string  `json:"image_url,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
}

type Field struct {
	Title string `json:"title,omitempty"`
	Value string `json:"value,omitempty"`
}

type File struct {
	ID         string `json:"id,omitempty"`
	Mimetype   string `json:"mimetype,omitempty"`
	URLPrivate string `json:"url_private,omitempty"`
	Name       string `json:"name,omitempty"`
}

// ImageRef points at an image found in a message.
type ImageRef struct {
	URL      string
	Filename string
	// Private URLs need the bot token to be fetched.
	Private bool
}
