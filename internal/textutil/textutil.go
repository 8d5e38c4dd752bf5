// Package textutil holds the small string and number helpers shared by the
// terminal surfaces and the provider error messages.
package textutil

import (
	"strings"
	"unicode/utf8"
)

// WrapText breaks every line of text on word boundaries so no line is wider
// than width runes, except single words that are longer on their own.
func WrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			wrapped = append(wrapped, "")
			continue
		}
		current := words[0]
		currentLen := utf8.RuneCountInString(current)
		for _, word := range words[1:] {
			wordLen := utf8.RuneCountInString(word)
			if currentLen+1+wordLen <= width {
				current += " " + word
				currentLen += 1 + wordLen
				continue
			}
			wrapped = append(wrapped, current)
			current, currentLen = word, wordLen
		}
		wrapped = append(wrapped, current)
	}
	return strings.Join(wrapped, "\n")
}

// Truncate cuts text to at most limit runes, ending with "..." when cut.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// CompactSingleLine collapses all whitespace runs to single spaces and truncates.
func CompactSingleLine(text string, limit int) string {
	return Truncate(strings.Join(strings.Fields(text), " "), limit)
}

// Clamp bounds value to [lo, hi].
func Clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
