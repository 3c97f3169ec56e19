// Package sanitize validates and cleans untrusted input before it reaches
// the generation and speech services.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/nikhilbhutani/narrator/internal/models"
)

const DefaultMaxTextLength = 50000

var (
	blockPattern = regexp.MustCompile(`(?is)<script\b.*?</script\s*>|<style\b.*?</style\s*>|<iframe\b.*?</iframe\s*>|<noscript\b.*?</noscript\s*>|<object\b.*?</object\s*>`)
	openBlock    = regexp.MustCompile(`(?is)<(script|style|iframe)\b.*$`)
	commentTag   = regexp.MustCompile(`(?s)<!--.*?-->`)
	anyTag       = regexp.MustCompile(`(?s)</?[a-zA-Z][a-zA-Z0-9:-]*(\s[^<>]*)?/?>`)
	scriptURI    = regexp.MustCompile(`(?i)\b(javascript|vbscript)\s*:|data\s*:\s*text/html`)
	inlineSpace  = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines   = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// StripMarkup removes script-like content, markup tags and control
// characters, then normalizes whitespace.
func StripMarkup(text string) string {
	text = blockPattern.ReplaceAllString(text, " ")
	text = openBlock.ReplaceAllString(text, " ")
	text = commentTag.ReplaceAllString(text, " ")
	text = anyTag.ReplaceAllString(text, " ")
	text = scriptURI.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return '\n'
		case r == utf8.RuneError, unicode.IsControl(r), r == '\u200b', r == '\ufeff':
			return -1
		default:
			return r
		}
	}, text)

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(l, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// CheckLength rejects text longer than max characters.
func CheckLength(text string, max int) error {
	if n := utf8.RuneCountInString(text); n > max {
		return apperr.New(apperr.InputTooLarge, "text too long: %d characters (max: %d)", n, max)
	}
	return nil
}

// Sanitizer applies the text rules with a configured ceiling.
type Sanitizer struct {
	maxTextLength int
}

func NewSanitizer(maxTextLength int) *Sanitizer {
	if maxTextLength <= 0 {
		maxTextLength = DefaultMaxTextLength
	}
	return &Sanitizer{maxTextLength: maxTextLength}
}

func (s *Sanitizer) MaxTextLength() int { return s.maxTextLength }

// Text enforces the length ceiling, strips markup and rejects text that is
// empty afterwards.
func (s *Sanitizer) Text(raw string) (models.SanitizedText, error) {
	raw = strings.TrimSpace(raw)
	if err := CheckLength(raw, s.maxTextLength); err != nil {
		return "", err
	}
	clean := StripMarkup(raw)
	if clean == "" {
		return "", apperr.New(apperr.EmptyInputError, "no readable text after sanitization")
	}
	return models.SanitizedText(clean), nil
}
