package slack

import (
	"strings"
	"unicode"
)

// NormalizeChannelName normalizes a string to be a valid Slack channel name
// Slack allows: lowercase letters, numbers, hyphens, underscores, and Unicode characters
// Slack prohibits: uppercase (Latin), spaces, slashes, periods, commas, and special symbols
// Maximum length: 80 characters
func NormalizeChannelName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "-")

	var result strings.Builder
	result.Grow(len(name))

	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			result.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			result.WriteRune(unicode.ToLower(r))
		case r > 127 && !isProhibitedSymbol(r):
			// accented characters are common in Portuguese channel names
			result.WriteRune(r)
		}
	}

	out := result.String()
	if len(out) > 80 {
		out = strings.TrimRight(out[:80], "-")
	}
	return out
}

func isProhibitedSymbol(r rune) bool {
	switch r {
	case '。', '、', '!', '?', '«', '»', '“', '”', '‘', '’', '–', '—':
		return true
	}
	return false
}

// ChannelRef returns what chat.postMessage expects for a configured
// channel: IDs (C..., G..., D...) as-is, names normalized with a leading #
func ChannelRef(channel string) string {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return ""
	}
	if isChannelID(channel) {
		return channel
	}
	return "#" + NormalizeChannelName(strings.TrimPrefix(channel, "#"))
}

func isChannelID(s string) bool {
	if len(s) < 9 {
		return false
	}
	switch s[0] {
	case 'C', 'G', 'D':
	default:
		return false
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
