package session

import (
	"strings"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// CloseThreshold is the Jaro-Winkler similarity above which a wrong
// spelling is reported as close
const CloseThreshold = 0.85

// Verdict grades a spelling attempt
type Verdict int

const (
	Wrong Verdict = iota
	Close
	Correct
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case Close:
		return "close"
	default:
		return "wrong"
	}
}

// fold maps full-width input to ASCII, normalises to NFC and case-folds
func fold(s string) string {
	s = width.Narrow.String(strings.TrimSpace(s))
	return cases.Fold().String(norm.NFC.String(s))
}

// Grade compares an attempt with the expected spelling
func Grade(attempt, want string) Verdict {
	a, w := fold(attempt), fold(want)
	if a == w {
		return Correct
	}
	if a == "" {
		return Wrong
	}
	if matchr.JaroWinkler(a, w, false) >= CloseThreshold {
		return Close
	}
	ap, _ := matchr.DoubleMetaphone(a)
	wp, _ := matchr.DoubleMetaphone(w)
	if ap != "" && ap == wp {
		return Close
	}
	return Wrong
}

// samePhonemes reports whether got lists the same phonemes as want in order
func samePhonemes(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if fold(got[i]) != fold(want[i]) {
			return false
		}
	}
	return true
}
