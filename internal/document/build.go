package document

import (
	"regexp"
	"strings"

	"alertbridge/internal/constants"
	"alertbridge/internal/message"
)

var linkPattern = regexp.MustCompile(`<([^|>]+)\|([^>]+)>`)

// Build renders the canonical text of msg, followed by up to five images.
// With attachments present only the first attachment is rendered, mirroring
// message.Normalize.
func Build(text string, msg message.RawMessage) Document {
	var content []Node

	if len(msg.Attachments) > 0 {
		content = attachmentNodes(msg.Attachments[0])
	} else {
		content = splitNodes(text)
	}

	images := message.ExtractImages(msg)
	if len(images) > constants.MaxDocumentImages {
		images = images[:constants.MaxDocumentImages]
	}
	for _, img := range images {
		content = append(content, MediaSingle{URL: img.URL})
	}

	return Document{Content: content}
}

func attachmentNodes(a message.Attachment) []Node {
	var nodes []Node

	switch {
	case a.Title != "":
		nodes = append(nodes, Paragraph{Runs: []Run{{Text: message.ReplaceShortcodes(a.Title), Href: a.TitleLink}}})
	case a.Fallback != "":
		nodes = append(nodes, Paragraph{Runs: []Run{{Text: message.ReplaceShortcodes(a.Fallback)}}})
	}

	if a.Text != "" {
		nodes = append(nodes, splitNodes(a.Text)...)
	}

	for _, f := range a.Fields {
		if f.Title != "" {
			nodes = append(nodes, splitNodes(f.Title)...)
		}
		if f.Value != "" {
			nodes = append(nodes, splitNodes(f.Value)...)
		}
	}

	return nodes
}

func splitNodes(text string) []Node {
	paragraphs := SplitLines(text)
	nodes := make([]Node, len(paragraphs))
	for i, p := range paragraphs {
		nodes[i] = p
	}
	return nodes
}

// SplitLines turns each line into a paragraph, converting <url|label>
// markup into linked runs. Emoji shortcodes are resolved in every run.
func SplitLines(text string) []Paragraph {
	lines := strings.Split(text, "\n")
	paragraphs := make([]Paragraph, 0, len(lines))

	for _, line := range lines {
		var runs []Run
		last := 0

		for _, m := range linkPattern.FindAllStringSubmatchIndex(line, -1) {
			if m[0] > last {
				runs = append(runs, Run{Text: message.ReplaceShortcodes(line[last:m[0]])})
			}
			runs = append(runs, Run{
				Text: message.ReplaceShortcodes(line[m[4]:m[5]]),
				Href: line[m[2]:m[3]],
			})
			last = m[1]
		}

		if last < len(line) {
			runs = append(runs, Run{Text: message.ReplaceShortcodes(line[last:])})
		}

		paragraphs = append(paragraphs, Paragraph{Runs: runs})
	}

	return paragraphs
}
