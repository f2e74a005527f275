package message

import (
	"encoding/json"
)

type typeProbe struct {
	Type string `json:"type"`
}

func probeType(data []byte) string {
	var p typeProbe
	_ = json.Unmarshal(data, &p)
	return p.Type
}

// Blocks decodes the tagged block list. A block that fails to decode is
// kept as UnknownBlock so one odd block never drops the whole message.
type Blocks []Block

func (b *Blocks) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	out := make(Blocks, 0, len(raws))
	for _, raw := range raws {
		out = append(out, decodeBlock(raw))
	}
	*b = out
	return nil
}

func decodeBlock(raw json.RawMessage) Block {
	kind := probeType(raw)
	unknown := UnknownBlock{Type: kind, Raw: append(json.RawMessage(nil), raw...)}

	switch kind {
	case kindSection:
		var wire struct {
			Text *TextObject `json:"text"`
		}
		if err := json.Unmarshal(raw, &wire); err != nil {
			return unknown
		}
		return SectionBlock{Text: wire.Text}

	case kindRichText:
		var wire struct {
			Elements []json.RawMessage `json:"elements"`
		}
		if err := json.Unmarshal(raw, &wire); err != nil {
			return unknown
		}
		block := RichTextBlock{Elements: make([]RichTextChild, 0, len(wire.Elements))}
		for _, el := range wire.Elements {
			block.Elements = append(block.Elements, decodeRichTextChild(el))
		}
		return block

	case kindImage:
		var wire struct {
			ImageURL string `json:"image_url"`
			AltText  string `json:"alt_text"`
			Alt      string `json:"alt"`
		}
		if err := json.Unmarshal(raw, &wire); err != nil {
			return unknown
		}
		return ImageBlock{ImageURL: wire.ImageURL, AltText: firstNonEmpty(wire.AltText, wire.Alt)}

	case kindContext:
		var wire struct {
			Elements []json.RawMessage `json:"elements"`
		}
		if err := json.Unmarshal(raw, &wire); err != nil {
			return unknown
		}
		block := ContextBlock{Elements: make([]ContextElement, 0, len(wire.Elements))}
		for _, el := range wire.Elements {
			block.Elements = append(block.Elements, decodeContextElement(el))
		}
		return block
	}

	return unknown
}

func decodeRichTextChild(raw json.RawMessage) RichTextChild {
	kind := probeType(raw)
	if kind != kindRichTextSection {
		return UnknownRichTextChild{Type: kind}
	}

	var wire struct {
		Elements []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return UnknownRichTextChild{Type: kind}
	}

	section := RichTextSection{Elements: make([]RichTextElement, 0, len(wire.Elements))}
	for _, el := range wire.Elements {
		section.Elements = append(section.Elements, decodeRichTextElement(el))
	}
	return section
}

func decodeRichTextElement(raw json.RawMessage) RichTextElement {
	var wire struct {
		Type      string          `json:"type"`
		Text      json.RawMessage `json:"text"`
		URL       string          `json:"url"`
		Name      string          `json:"name"`
		UserID    string          `json:"user_id"`
		ChannelID string          `json:"channel_id"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return OtherElement{Type: probeType(raw)}
	}

	text, hasText := stringPayload(wire.Text)

	switch wire.Type {
	case kindText:
		return TextElement{Text: text}
	case kindLink:
		return LinkElement{URL: wire.URL, Text: text}
	case kindEmoji:
		return EmojiElement{Name: wire.Name}
	case kindUser:
		return UserElement{UserID: wire.UserID}
	case kindChannel:
		return ChannelElement{ChannelID: wire.ChannelID}
	default:
		return OtherElement{Type: wire.Type, Text: text, HasText: hasText}
	}
}

func decodeContextElement(raw json.RawMessage) ContextElement {
	var wire struct {
		Type     string `json:"type"`
		ImageURL string `json:"image_url"`
		AltText  string `json:"alt_text"`
		Alt      string `json:"alt"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return UnknownContextElement{Type: probeType(raw)}
	}

	switch wire.Type {
	case kindImage:
		return ContextImage{ImageURL: wire.ImageURL, AltText: firstNonEmpty(wire.AltText, wire.Alt)}
	case kindMrkdwn, kindPlainText:
		return ContextText{Type: wire.Type, Text: wire.Text}
	default:
		return UnknownContextElement{Type: wire.Type}
	}
}

// stringPayload reports the value of a JSON string, and false for any
// other JSON type or absence.
func stringPayload(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
