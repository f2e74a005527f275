package message

import (
	"strings"
)

// Normalize flattens a message into its canonical text. The first
// attachment wins over flat text, which wins over blocks.
func Normalize(msg RawMessage) string {
	if len(msg.Attachments) > 0 {
		return attachmentText(msg.Attachments[0])
	}

	if msg.Text != "" {
		return msg.Text
	}

	if len(msg.Blocks) > 0 {
		return strings.TrimSpace(strings.Join(blockLines(msg.Blocks), "\n"))
	}

	return ""
}

func attachmentText(a Attachment) string {
	parts := make([]string, 0, 2+2*len(a.Fields))

	if a.Title != "" {
		parts = append(parts, a.Title)
	} else if a.Fallback != "" {
		parts = append(parts, a.Fallback)
	}

	if a.Text != "" {
		parts = append(parts, a.Text)
	}

	for _, f := range a.Fields {
		if f.Title != "" {
			parts = append(parts, f.Title)
		}
		if f.Value != "" {
			parts = append(parts, f.Value)
		}
	}

	return strings.Join(parts, "\n")
}

func blockLines(blocks Blocks) []string {
	var lines []string

	for _, block := range blocks {
		switch b := block.(type) {
		case SectionBlock:
			if b.Text != nil && b.Text.Text != "" {
				lines = append(lines, b.Text.Text)
			}
		case RichTextBlock:
			for _, child := range b.Elements {
				switch c := child.(type) {
				case RichTextSection:
					lines = append(lines, sectionLine(c))
				case UnknownRichTextChild:
				}
			}
		case ImageBlock, ContextBlock, UnknownBlock:
		}
	}

	return lines
}

func sectionLine(section RichTextSection) string {
	var sb strings.Builder

	for _, element := range section.Elements {
		switch e := element.(type) {
		case TextElement:
			sb.WriteString(e.Text)
		case LinkElement:
			sb.WriteString(firstNonEmpty(e.Text, e.URL))
		case EmojiElement:
			if e.Name == "" {
				continue
			}
			if g, ok := Glyph(e.Name); ok {
				sb.WriteString(g)
			} else {
				sb.WriteString(":" + e.Name + ":")
			}
		case UserElement:
			if e.UserID != "" {
				sb.WriteString("@" + e.UserID)
			}
		case ChannelElement:
			if e.ChannelID != "" {
				sb.WriteString("#" + e.ChannelID)
			}
		case OtherElement:
			if e.HasText {
				sb.WriteString(e.Text)
			}
		}
	}

	return sb.String()
}
