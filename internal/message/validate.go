package message

import (
	"errors"
	"fmt"
)

var ErrUnknownVariant = errors.New("unknown message variant")

// Validate reports every block or element kind the decoder did not
// understand. Normalize and ExtractImages ignore such kinds; this lets the
// caller log them.
func Validate(msg RawMessage) error {
	var errs []error

	unknown := func(path, kind string) {
		errs = append(errs, fmt.Errorf("%w: %s has type %q", ErrUnknownVariant, path, kind))
	}

	for i, block := range msg.Blocks {
		path := fmt.Sprintf("blocks[%d]", i)

		switch b := block.(type) {
		case UnknownBlock:
			unknown(path, b.Type)
		case RichTextBlock:
			for j, child := range b.Elements {
				childPath := fmt.Sprintf("%s.elements[%d]", path, j)
				switch c := child.(type) {
				case UnknownRichTextChild:
					unknown(childPath, c.Type)
				case RichTextSection:
					for k, el := range c.Elements {
						if other, ok := el.(OtherElement); ok {
							unknown(fmt.Sprintf("%s.elements[%d]", childPath, k), other.Type)
						}
					}
				}
			}
		case ContextBlock:
			for j, el := range b.Elements {
				if u, ok := el.(UnknownContextElement); ok {
					unknown(fmt.Sprintf("%s.elements[%d]", path, j), u.Type)
				}
			}
		case SectionBlock, ImageBlock:
		}
	}

	return errors.Join(errs...)
}
