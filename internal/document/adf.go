// Package document renders alert messages as Atlassian Document Format.
package document

import (
	"encoding/json"
)

// Document is an ADF "doc" node.
type Document struct {
	Content []Node
}

// Node is a top-level block node: Paragraph or MediaSingle.
type Node interface {
	json.Marshaler
	isNode()
}

// Paragraph holds inline text runs. An empty paragraph is kept as a blank
// line.
type Paragraph struct {
	Runs []Run
}

// Run is an ADF text node. A non-empty Href adds a single link mark.
type Run struct {
	Text string
	Href string
}

// MediaSingle wraps one external media node, centred.
type MediaSingle struct {
	URL string
}

func (Paragraph) isNode()   {}
func (MediaSingle) isNode() {}

type linkAttrs struct {
	Href string `json:"href"`
}

type mark struct {
	Type  string    `json:"type"`
	Attrs linkAttrs `json:"attrs"`
}

type textNode struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Marks []mark `json:"marks,omitempty"`
}

func (r Run) MarshalJSON() ([]byte, error) {
	node := textNode{Type: "text", Text: r.Text}
	if r.Href != "" {
		node.Marks = []mark{{Type: "link", Attrs: linkAttrs{Href: r.Href}}}
	}
	return json.Marshal(node)
}

func (p Paragraph) MarshalJSON() ([]byte, error) {
	runs := p.Runs
	if runs == nil {
		runs = []Run{}
	}
	return json.Marshal(struct {
		Type    string `json:"type"`
		Content []Run  `json:"content"`
	}{Type: "paragraph", Content: runs})
}

func (m MediaSingle) MarshalJSON() ([]byte, error) {
	type mediaAttrs struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	}
	type media struct {
		Type  string     `json:"type"`
		Attrs mediaAttrs `json:"attrs"`
	}
	return json.Marshal(struct {
		Type    string            `json:"type"`
		Attrs   map[string]string `json:"attrs"`
		Content []media           `json:"content"`
	}{
		Type:    "mediaSingle",
		Attrs:   map[string]string{"layout": "center"},
		Content: []media{{Type: "media", Attrs: mediaAttrs{Type: "external", URL: m.URL}}},
	})
}

func (d Document) MarshalJSON() ([]byte, error) {
	content := d.Content
	if content == nil {
		content = []Node{}
	}
	return json.Marshal(struct {
		Type    string `json:"type"`
		Version int    `json:"version"`
		Content []Node `json:"content"`
	}{Type: "doc", Version: 1, Content: content})
}

// Paragraphs returns the paragraph nodes in order.
func (d Document) Paragraphs() []Paragraph {
	var out []Paragraph
	for _, n := range d.Content {
		if p, ok := n.(Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}
