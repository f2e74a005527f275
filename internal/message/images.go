package message

import (
	"strings"
)

// ExtractImages lists image references in source order: files, then
// attachment images, then image blocks and context images. URLs are not
// deduplicated.
func ExtractImages(msg RawMessage) []ImageRef {
	var images []ImageRef

	for _, f := range msg.Files {
		if !strings.HasPrefix(f.Mimetype, "image/") || f.URLPrivate == "" {
			continue
		}
		name := f.Name
		if name == "" {
			name = f.ID + ".png"
		}
		images = append(images, ImageRef{URL: f.URLPrivate, Filename: name, Private: true})
	}

	for _, a := range msg.Attachments {
		if a.ImageURL != "" {
			images = append(images, ImageRef{URL: a.ImageURL, Filename: "attachment.png"})
		}
	}

	for _, block := range msg.Blocks {
		switch b := block.(type) {
		case ImageBlock:
			if b.ImageURL != "" {
				images = append(images, ImageRef{URL: b.ImageURL, Filename: imageName(b.AltText)})
			}
		case ContextBlock:
			for _, el := range b.Elements {
				if img, ok := el.(ContextImage); ok && img.ImageURL != "" {
					images = append(images, ImageRef{URL: img.ImageURL, Filename: imageName(img.AltText)})
				}
			}
		}
	}

	return images
}

func imageName(alt string) string {
	if alt == "" {
		return "image.png"
	}
	return alt
}
