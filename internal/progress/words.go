package progress

import (
	"context"

	"codeberg.org/snonux/learnword/internal/store"
)

// ErrorWords returns the error-word records in stored order
func (t *Tracker) ErrorWords(ctx context.Context) ([]WordRecord, error) {
	var words []WordRecord
	if _, err := store.GetJSON(ctx, t.store, store.KeyErrorWords, &words); err != nil {
		return nil, err
	}
	return words, nil
}

// AddErrorWord records a miss. A word already in the list has its count
// incremented; a new word is appended with a count of one.
func (t *Tracker) AddErrorWord(ctx context.Context, w WordRecord) ([]WordRecord, error) {
	words, err := t.ErrorWords(ctx)
	if err != nil {
		return nil, err
	}

	now := t.now()
	if i := indexOf(words, w.Word); i >= 0 {
		words[i].ErrorCount++
		words[i].LastErrorDate = &now
	} else {
		entry := w
		entry.ErrorCount = 1
		first, last := now, now
		entry.FirstErrorDate = &first
		entry.LastErrorDate = &last
		words = append(words, entry)
	}

	if err := store.SetJSON(ctx, t.store, store.KeyErrorWords, words); err != nil {
		return nil, err
	}
	return words, nil
}

// RemoveErrorWord drops every error record for word
func (t *Tracker) RemoveErrorWord(ctx context.Context, word string) ([]WordRecord, error) {
	words, err := t.ErrorWords(ctx)
	if err != nil {
		return nil, err
	}

	kept := make([]WordRecord, 0, len(words))
	for _, w := range words {
		if w.Word != word {
			kept = append(kept, w)
		}
	}

	if err := store.SetJSON(ctx, t.store, store.KeyErrorWords, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// ClearErrorWords removes all error records
func (t *Tracker) ClearErrorWords(ctx context.Context) error {
	return t.store.Remove(ctx, store.KeyErrorWords)
}

// ReplaceErrorWords overwrites the error-word list
func (t *Tracker) ReplaceErrorWords(ctx context.Context, words []WordRecord) error {
	return store.SetJSON(ctx, t.store, store.KeyErrorWords, words)
}

// LearnedWords returns the learned-word records in stored order
func (t *Tracker) LearnedWords(ctx context.Context) ([]WordRecord, error) {
	var words []WordRecord
	if _, err := store.GetJSON(ctx, t.store, store.KeyLearnedWords, &words); err != nil {
		return nil, err
	}
	return words, nil
}

// AddLearnedWord records a learned word. A new word starts with one review;
// a known word counts another review.
func (t *Tracker) AddLearnedWord(ctx context.Context, w WordRecord) ([]WordRecord, error) {
	words, err := t.LearnedWords(ctx)
	if err != nil {
		return nil, err
	}

	now := t.now()
	if i := indexOf(words, w.Word); i >= 0 {
		words[i].ReviewCount++
		words[i].LastReviewDate = &now
	} else {
		entry := w
		entry.ReviewCount = 1
		entry.FirstLearnDate = &now
		entry.LastReviewDate = nil
		words = append(words, entry)
	}

	if err := store.SetJSON(ctx, t.store, store.KeyLearnedWords, words); err != nil {
		return nil, err
	}
	return words, nil
}

// ReplaceLearnedWords overwrites the learned-word list
func (t *Tracker) ReplaceLearnedWords(ctx context.Context, words []WordRecord) error {
	return store.SetJSON(ctx, t.store, store.KeyLearnedWords, words)
}

func indexOf(words []WordRecord, word string) int {
	for i, w := range words {
		if w.Word == word {
			return i
		}
	}
	return -1
}
