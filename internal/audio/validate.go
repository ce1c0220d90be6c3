package audio

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxWordLength is the longest word an engine will pronounce
const MaxWordLength = 50

// ValidateWord checks that text is a pronounceable English word or phrase
func ValidateWord(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if n := len([]rune(text)); n > MaxWordLength {
		return fmt.Errorf("text too long: %d characters, max %d", n, MaxWordLength)
	}

	hasLatin := false
	for _, r := range text {
		if unicode.In(r, unicode.Latin) {
			hasLatin = true
			continue
		}
		if unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune("'-.’", r) {
			continue
		}
		return fmt.Errorf("unexpected character %q in %q", r, text)
	}
	if !hasLatin {
		return fmt.Errorf("text must contain Latin letters")
	}
	return nil
}
