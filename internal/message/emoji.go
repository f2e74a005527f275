package message

import (
	"regexp"
)

var emojiGlyphs = map[string]string{
	"red_circle":          "🔴",
	"large_green_circle":  "🟢",
	"large_yellow_circle": "🟡",
	"link":                "🔗",
	"mag":                 "🔎",
	"alert":               "🚨",
	"rotating_light":      "🚨",
	"warning":             "⚠️",
	"info":                "ℹ️",
	"white_check_mark":    "✅",
	"heavy_check_mark":    "✔️",
	"x":                   "❌",
	"fire":                "🔥",
}

var shortcodePattern = regexp.MustCompile(`(?i):([a-z0-9_+-]+):`)

// Glyph returns the unicode glyph for a shortcode name.
func Glyph(name string) (string, bool) {
	g, ok := emojiGlyphs[name]
	return g, ok
}

// ReplaceShortcodes turns known :name: shortcodes into glyphs and leaves
// unknown ones as they are.
func ReplaceShortcodes(text string) string {
	return shortcodePattern.ReplaceAllStringFunc(text, func(match string) string {
		if g, ok := Glyph(match[1 : len(match)-1]); ok {
			return g
		}
		return match
	})
}
