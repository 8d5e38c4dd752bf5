package textutil

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree\nfour", WrapText("one two three four", 9))
	assert.Equal(t, "héllo wörld", WrapText("héllo wörld", 11), "width counts runes, not bytes")
	assert.Equal(t, "a\n\nb", WrapText("a\n\nb", 5))
	assert.Equal(t, "as is", WrapText("as is", 0))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"abcdefgh", 6, "abc..."},
		{"short", 10, "short"},
		{"abcdef", 2, "ab"},
		{"anything", 0, ""},
		{"ééééééé", 5, "éé..."},
		{"日本語のテキスト", 4, "日..."},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.limit)
		assert.Equal(t, tt.want, got, "Truncate(%q, %d)", tt.in, tt.limit)
		assert.True(t, utf8.ValidString(got), "Truncate(%q, %d) produced invalid UTF-8", tt.in, tt.limit)
	}
}

func TestCompactSingleLine(t *testing.T) {
	assert.Equal(t, "a b c", CompactSingleLine("a\n  b\tc", 10))
	assert.Equal(t, "über s...", CompactSingleLine("über  sized\ntext", 9))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(-5, 1, 10))
	assert.Equal(t, 10, Clamp(50, 1, 10))
	assert.Equal(t, 7, Clamp(7, 1, 10))
}
