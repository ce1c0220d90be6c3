package course

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeCourse fills blanks left by hand-edited course files
func normalizeCourse(c Course, index int) Course {
	if c.ID == "" {
		c.ID = unitID(c.Name)
		if c.ID == "" {
			c.ID = fmt.Sprintf("course_%d", index+1)
		}
	}

	words := make([]Word, len(c.Words))
	for i, w := range c.Words {
		words[i] = normalizeWord(w, c.ID, i)
	}
	c.Words = words
	return c
}

func normalizeWord(w Word, courseID string, index int) Word {
	w.Word = NormalizeText(w.Word)
	if w.Word == "" {
		w.Word = fmt.Sprintf("_missing_word_%s_%d", courseID, index)
	}
	w.Meaning = strings.TrimSpace(w.Meaning)
	w.Phonetic = strings.TrimSpace(w.Phonetic)
	w.Phonemes = compact(w.Phonemes)
	w.PhonemesA = compact(w.PhonemesA)
	return w
}

// NormalizeText trims s and converts it to Unicode NFC
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// unitID turns "Unit 1" into "unit_1"
func unitID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func compact(items Phonemes) Phonemes {
	if len(items) == 0 {
		return nil
	}
	out := make(Phonemes, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
