package session

import (
	"math/rand"
)

// TestOptionsCount is the number of choices in a recognition test
const TestOptionsCount = 3

// CommonDistractors top up a recognition test when the course has too few
// other words
var CommonDistractors = []string{
	"cat", "dog", "run", "sun", "fun", "big", "red", "hot", "new", "old",
	"good", "bad", "top", "low", "yes", "no", "up", "down", "in", "out",
	"look", "see", "go", "get", "make", "take", "give", "come", "say", "tell",
}

// Question is a recognition test: pick Options[Correct] for Prompt
type Question struct {
	Prompt  string
	Options []string
	Correct int
}

// Options builds a recognition test for word with n choices. Distractors are
// drawn from pool first and then from CommonDistractors; the word itself
// and duplicates are never used as distractors.
func Options(word string, pool []string, n int, rng *rand.Rand) ([]string, int) {
	if n < 1 {
		n = 1
	}
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}

	used := map[string]bool{fold(word): true}
	options := []string{word}
	take := func(candidates []string) {
		c := make([]string, len(candidates))
		copy(c, candidates)
		shuffle(len(c), func(i, j int) { c[i], c[j] = c[j], c[i] })
		for _, d := range c {
			if len(options) == n {
				return
			}
			if key := fold(d); d != "" && !used[key] {
				used[key] = true
				options = append(options, d)
			}
		}
	}
	take(pool)
	take(CommonDistractors)

	shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	for i, o := range options {
		if o == word {
			return options, i
		}
	}
	return options, 0
}
