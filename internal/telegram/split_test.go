package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSplitShortText(t *testing.T) {
	require.Equal(t, []string{"hola\nmundo"}, Split("hola\nmundo", MaxMessageLength))
}

func TestSplitOnLines(t *testing.T) {
	parts := Split("aaaa\nbbbb\ncccc", 9)
	require.Equal(t, []string{"aaaa\nbbbb", "cccc"}, parts)
}

func TestSplitLongLine(t *testing.T) {
	parts := Split("ab\n"+strings.Repeat("ñ", 10)+"\ncd", 4)
	require.Equal(t, []string{"ab", "ññññ", "ññññ", "ññ", "cd"}, parts)
}

func TestSplitReport(t *testing.T) {
	var lines []string
	for i := 0; i < 600; i++ {
		lines = append(lines, "📈 <b>Bife Angosto</b> (CERDO)")
	}
	text := strings.Join(lines, "\n")

	parts := Split(text, MaxMessageLength)
	require.Greater(t, len(parts), 1)
	for _, part := range parts {
		require.LessOrEqual(t, utf8.RuneCountInString(part), MaxMessageLength)
		require.False(t, strings.HasPrefix(part, "\n"))
	}
	require.Equal(t, text, strings.Join(parts, "\n"))
}
