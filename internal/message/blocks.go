package message

import (
	"encoding/json"
)

const (
	kindSection         = "section"
	kindRichText        = "rich_text"
	kindImage           = "image"
	kindContext         = "context"
	kindRichTextSection = "rich_text_section"
	kindText            = "text"
	kindLink            = "link"
	kindEmoji           = "emoji"
	kindUser            = "user"
	kindChannel         = "channel"
	kindMrkdwn          = "mrkdwn"
	kindPlainText       = "plain_text"
)

// Block is a top-level layout block. The set of implementations is closed.
type Block interface {
	Kind() string
	isBlock()
}

type SectionBlock struct {
	Text *TextObject
}

type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type RichTextBlock struct {
	Elements []RichTextChild
}

type ImageBlock struct {
	ImageURL string
	AltText  string
}

type ContextBlock struct {
	Elements []ContextElement
}

// UnknownBlock keeps a block whose type is not understood, or that failed
// to decode as its declared type.
type UnknownBlock struct {
	Type string
	Raw  json.RawMessage
}

func (SectionBlock) Kind() string   { return kindSection }
func (RichTextBlock) Kind() string  { return kindRichText }
func (ImageBlock) Kind() string     { return kindImage }
func (ContextBlock) Kind() string   { return kindContext }
func (b UnknownBlock) Kind() string { return b.Type }

func (SectionBlock) isBlock()  {}
func (RichTextBlock) isBlock() {}
func (ImageBlock) isBlock()    {}
func (ContextBlock) isBlock()  {}
func (UnknownBlock) isBlock()  {}

// RichTextChild is a direct child of a rich_text block.
type RichTextChild interface {
	Kind() string
	isRichTextChild()
}

type RichTextSection struct {
	Elements []RichTextElement
}

type UnknownRichTextChild struct {
	Type string
}

func (RichTextSection) Kind() string        { return kindRichTextSection }
func (c UnknownRichTextChild) Kind() string { return c.Type }

func (RichTextSection) isRichTextChild()      {}
func (UnknownRichTextChild) isRichTextChild() {}

// RichTextElement is an inline element of a rich_text_section.
type RichTextElement interface {
	Kind() string
	isRichTextElement()
}

type TextElement struct{ Text string }

type LinkElement struct {
	URL  string
	Text string
}

type EmojiElement struct{ Name string }

type UserElement struct{ UserID string }

type ChannelElement struct{ ChannelID string }

// OtherElement is any element of an unlisted type. HasText reports whether
// the wire form carried a string "text" payload.
type OtherElement struct {
	Type    string
	Text    string
	HasText bool
}

func (TextElement) Kind() string    { return kindText }
func (LinkElement) Kind() string    { return kindLink }
func (EmojiElement) Kind() string   { return kindEmoji }
func (UserElement) Kind() string    { return kindUser }
func (ChannelElement) Kind() string { return kindChannel }
func (e OtherElement) Kind() string { return e.Type }

func (TextElement) isRichTextElement()    {}
func (LinkElement) isRichTextElement()    {}
func (EmojiElement) isRichTextElement()   {}
func (UserElement) isRichTextElement()    {}
func (ChannelElement) isRichTextElement() {}
func (OtherElement) isRichTextElement()   {}

// ContextElement is an element of a context block.
type ContextElement interface {
	Kind() string
	isContextElement()
}

type ContextImage struct {
	ImageURL string
	AltText  string
}

// ContextText covers mrkdwn and plain_text elements.
type ContextText struct {
	Type string
	Text string
}

type UnknownContextElement struct {
	Type string
}

func (ContextImage) Kind() string            { return kindImage }
func (e ContextText) Kind() string           { return e.Type }
func (e UnknownContextElement) Kind() string { return e.Type }

func (ContextImage) isContextElement()          {}
func (ContextText) isContextElement()           {}
func (UnknownContextElement) isContextElement() {}
