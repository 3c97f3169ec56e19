// Package truncate trims text to a character budget, preferring to cut at
// the end of a sentence.
package truncate

import (
	"strings"
	"unicode"
)

const (
	terminals = ".!?…。！？"
	closers   = "\"')]}»”’"
)

// Truncate returns text unchanged when it fits in budget characters (runes).
// Otherwise it cuts after the last sentence terminator that ends at or before
// budget and is followed by whitespace. With no such terminator it cuts at
// exactly budget characters. The result never exceeds budget; a budget of
// zero or less yields "".
func Truncate(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	if end := lastSentenceEnd(runes, budget); end > 0 {
		return string(runes[:end])
	}
	return string(runes[:budget])
}

// Fits reports whether text is within budget characters.
func Fits(text string, budget int) bool {
	n := 0
	for range text {
		n++
		if n > budget {
			return false
		}
	}
	return true
}

func lastSentenceEnd(runes []rune, budget int) int {
	for end := budget; end > 0; end-- {
		if isSentenceEnd(runes, end) {
			return end
		}
	}
	return 0
}

// isSentenceEnd reports whether a sentence finishes right before runes[end].
// Closing quotes and brackets after the terminator belong to the sentence.
func isSentenceEnd(runes []rune, end int) bool {
	if end < len(runes) && !unicode.IsSpace(runes[end]) {
		return false
	}
	i := end - 1
	for i >= 0 && strings.ContainsRune(closers, runes[i]) {
		i--
	}
	return i >= 0 && strings.ContainsRune(terminals, runes[i])
}
