// Package caption breaks dialogue text into caption lines using a fixed
// glyph width estimate. No font metrics are consulted: an average glyph is
// taken to be 0.6 of the font size, so the result only depends on the
// character count.
package caption

import (
	"strings"
	"unicode/utf8"
)

// CharsPerLine returns floor(maxWidthPx / (fontSize * 0.6)), at least 1
func CharsPerLine(fontSize, maxWidthPx int) int {
	if fontSize <= 0 {
		return 0
	}
	n := (maxWidthPx * 5) / (fontSize * 3)
	if n < 1 {
		return 1
	}
	return n
}

// Wrap greedily packs whitespace separated words into lines of at most
// CharsPerLine runes. A word longer than the limit gets a line of its own.
// Text that already fits, or holds no words, is returned unchanged as a
// single line.
func Wrap(text string, fontSize, maxWidthPx int) []string {
	if fontSize <= 0 {
		return []string{text}
	}
	limit := CharsPerLine(fontSize, maxWidthPx)
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var lines []string
	var current strings.Builder
	currentLen := 0
	for _, word := range strings.Fields(text) {
		wordLen := utf8.RuneCountInString(word)
		if currentLen > 0 && currentLen+1+wordLen > limit {
			lines = append(lines, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}
	if len(lines) == 0 {
		// whitespace only
		return []string{text}
	}
	return lines
}
