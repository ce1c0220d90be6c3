package course

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LoadText reads a word list with one entry per line.
// Supported line formats:
//   - word only: "apple"
//   - with meaning: "apple = 苹果"
//   - with meaning and phonemes: "apple = 苹果 | a pp le"
//
// Blank lines and lines starting with '#' are ignored.
func LoadText(name string, r io.Reader) (Course, error) {
	course := Course{Name: name, ID: unitID(name)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		word, rest, hasMeaning := strings.Cut(line, "=")
		word = strings.TrimSpace(word)
		if word == "" {
			// "= meaning" has nothing to learn
			continue
		}

		entry := Word{Word: word}
		if hasMeaning {
			meaning, phonemes, hasPhonemes := strings.Cut(rest, "|")
			entry.Meaning = strings.TrimSpace(meaning)
			if hasPhonemes {
				entry.Phonemes = splitPhonemes(phonemes)
			}
		}
		course.Words = append(course.Words, entry)
	}
	if err := scanner.Err(); err != nil {
		return Course{}, fmt.Errorf("failed to read word list at line %d: %w", lineNo, err)
	}

	return course, nil
}
