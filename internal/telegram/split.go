package telegram

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the longest text the Bot API accepts in one message.
const MaxMessageLength = 4096

// Split cuts text into parts of at most `limit` characters, breaking
// between lines. A single line longer than the limit is broken at the limit.
func Split(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			parts = append(parts, current.String())
		}
		current.Reset()
		currentLen = 0
	}

	for _, line := range strings.Split(text, "\n") {
		lineLen := utf8.RuneCountInString(line)

		sep := 0
		if currentLen > 0 {
			sep = 1
		}
		if currentLen+sep+lineLen <= limit {
			if sep == 1 {
				current.WriteByte('\n')
			}
			current.WriteString(line)
			currentLen += sep + lineLen
			continue
		}

		flush()
		for lineLen > limit {
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
			lineLen -= limit
		}
		current.WriteString(line)
		currentLen = lineLen
	}
	flush()

	return parts
}
