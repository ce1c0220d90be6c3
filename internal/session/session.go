package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"codeberg.org/snonux/learnword/internal/progress"
	"codeberg.org/snonux/learnword/internal/selector"
)

// MaxSpellingAttempts is the number of tries a word gets in the spelling step
const MaxSpellingAttempts = 3

var (
	// ErrFinished is returned when every word of the session has been visited
	ErrFinished = errors.New("session finished")

	// ErrWrongStep is returned when answering a step that is not current
	ErrWrongStep = errors.New("not the current step")
)

// Tracker receives the outcome of each word
type Tracker interface {
	RecordAnswer(ctx context.Context, isCorrect bool) (progress.StudyProgress, error)
	AddErrorWord(ctx context.Context, w progress.WordRecord) ([]progress.WordRecord, error)
	RemoveErrorWord(ctx context.Context, word string) ([]progress.WordRecord, error)
	AddLearnedWord(ctx context.Context, w progress.WordRecord) ([]progress.WordRecord, error)
}

// Summary counts the words finished in a session
type Summary struct {
	Words   int
	Correct int
	Wrong   int
}

// Session walks a study set one word and one step at a time
type Session struct {
	tracker   Tracker
	words     []selector.EnhancedWord
	failed    []bool
	questions map[int]Question
	pool      []string
	index     int
	summary   Summary
	rng       *rand.Rand
	logger    *slog.Logger
}

// Option configures a Session
type Option func(*Session)

// WithRand sets the random source for test options and phoneme order
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.rng = rng
	}
}

// WithDistractors sets the words recognition test distractors are drawn from.
// By default the other words of the session are used.
func WithDistractors(pool []string) Option {
	return func(s *Session) {
		s.pool = pool
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New starts a session over words
func New(tracker Tracker, words []selector.EnhancedWord, opts ...Option) *Session {
	s := &Session{
		tracker:   tracker,
		words:     make([]selector.EnhancedWord, len(words)),
		failed:    make([]bool, len(words)),
		questions: make(map[int]Question),
		logger:    slog.Default(),
	}
	for i, w := range words {
		s.words[i] = selector.Enhance(w)
		s.pool = append(s.pool, w.Word)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the number of words in the session
func (s *Session) Len() int {
	return len(s.words)
}

// Position returns the index of the current word
func (s *Session) Position() int {
	return s.index
}

// Current returns the word being studied
func (s *Session) Current() (selector.EnhancedWord, bool) {
	if s.index >= len(s.words) {
		return selector.EnhancedWord{}, false
	}
	return s.words[s.index], true
}

// Step returns the current step of the current word
func (s *Session) Step() (selector.Step, bool) {
	w, ok := s.Current()
	if !ok {
		return "", false
	}
	return selector.StepAt(w.CurrentStep)
}

// Next moves to the following word and reports whether there is one.
// Skipping an unfinished word records nothing for it.
func (s *Session) Next() bool {
	if s.index < len(s.words) {
		s.index++
	}
	return s.index < len(s.words)
}

// Summary returns the counts so far
func (s *Session) Summary() Summary {
	return s.summary
}

// CompleteListen marks the listen step done
func (s *Session) CompleteListen() error {
	return s.completeSimple(selector.StepListen)
}

// CompleteRecord marks the record step done
func (s *Session) CompleteRecord() error {
	return s.completeSimple(selector.StepRecord)
}

func (s *Session) completeSimple(step selector.Step) error {
	w, err := s.begin(step)
	if err != nil {
		return err
	}
	s.complete(w, step, w.StepStates[step])
	return nil
}

// Question returns the recognition test for the current word. The same
// question is returned until the test is answered.
func (s *Session) Question() (Question, error) {
	w, err := s.begin(selector.StepTest)
	if err != nil {
		return Question{}, err
	}
	if q, ok := s.questions[s.index]; ok {
		return q, nil
	}
	options, correct := Options(w.Word, s.pool, TestOptionsCount, s.rng)
	q := Question{Prompt: w.Meaning, Options: options, Correct: correct}
	s.questions[s.index] = q
	return q, nil
}

// AnswerTest grades the recognition test and moves on to phonics
func (s *Session) AnswerTest(ctx context.Context, selectedIndex, correctIndex int) (bool, error) {
	w, err := s.begin(selector.StepTest)
	if err != nil {
		return false, err
	}

	ok := selectedIndex == correctIndex
	state := w.StepStates[selector.StepTest]
	state.SelectedIndex = &selectedIndex
	state.ShowResult = true
	s.complete(w, selector.StepTest, state)
	delete(s.questions, s.index)

	if !ok {
		return false, s.fail(ctx, w)
	}
	return true, nil
}

// PhonicsChoices returns the current word's phonemes in random order
func (s *Session) PhonicsChoices() ([]string, error) {
	w, err := s.begin(selector.StepPhonics)
	if err != nil {
		return nil, err
	}
	choices := make([]string, len(w.Phonemes))
	copy(choices, w.Phonemes)
	swap := func(i, j int) { choices[i], choices[j] = choices[j], choices[i] }
	if s.rng != nil {
		s.rng.Shuffle(len(choices), swap)
	} else {
		rand.Shuffle(len(choices), swap)
	}
	return choices, nil
}

// AnswerPhonics grades the selected phoneme sequence. A word without
// phonemes passes the step.
func (s *Session) AnswerPhonics(ctx context.Context, selected []string) (bool, error) {
	w, err := s.begin(selector.StepPhonics)
	if err != nil {
		return false, err
	}

	ok := len(w.Phonemes) == 0 || samePhonemes(selected, w.Phonemes)
	state := w.StepStates[selector.StepPhonics]
	state.SelectedPhonemes = append([]string{}, selected...)
	state.ShowResult = true
	s.complete(w, selector.StepPhonics, state)

	if !ok {
		return false, s.fail(ctx, w)
	}
	return true, nil
}

// AttemptsLeft returns the spelling attempts remaining for the current word
func (s *Session) AttemptsLeft() int {
	w, ok := s.Current()
	if !ok {
		return 0
	}
	left := MaxSpellingAttempts - w.StepStates[selector.StepSpelling].Attempts
	if left < 0 {
		return 0
	}
	return left
}

// AnswerSpelling grades one spelling attempt. The word is finished when the
// attempt is correct or the attempts are used up.
func (s *Session) AnswerSpelling(ctx context.Context, attempt string) (Verdict, error) {
	w, err := s.begin(selector.StepSpelling)
	if err != nil {
		return Wrong, err
	}

	v := Grade(attempt, w.Word)
	state := w.StepStates[selector.StepSpelling]
	state.Attempts++

	switch {
	case v == Correct:
		state.ShowResult = true
		s.complete(w, selector.StepSpelling, state)
		return v, s.finish(ctx, w)
	case state.Attempts >= MaxSpellingAttempts:
		state.ShowResult = true
		s.complete(w, selector.StepSpelling, state)
		if err := s.fail(ctx, w); err != nil {
			return v, err
		}
		return v, s.finish(ctx, w)
	default:
		w.StepStates[selector.StepSpelling] = state
		return v, nil
	}
}

func (s *Session) begin(step selector.Step) (*selector.EnhancedWord, error) {
	if s.index >= len(s.words) {
		return nil, ErrFinished
	}
	w := &s.words[s.index]
	current, _ := selector.StepAt(w.CurrentStep)
	if current != step {
		return nil, fmt.Errorf("%w: at %q, got %q", ErrWrongStep, current, step)
	}
	return w, nil
}

func (s *Session) complete(w *selector.EnhancedWord, step selector.Step, state selector.StepState) {
	state.Completed = true
	w.StepStates[step] = state
	w.StepProgress[step] = true
	w.CurrentStep++
}

// fail records a wrong answer for w
func (s *Session) fail(ctx context.Context, w *selector.EnhancedWord) error {
	if !s.failed[s.index] {
		s.failed[s.index] = true
		s.summary.Wrong++
	}
	if _, err := s.tracker.RecordAnswer(ctx, false); err != nil {
		return fmt.Errorf("record wrong answer for %s: %w", w.Word, err)
	}
	if _, err := s.tracker.AddErrorWord(ctx, w.WordRecord); err != nil {
		return fmt.Errorf("add error word %s: %w", w.Word, err)
	}
	s.logger.Debug("word missed", "word", w.Word)
	return nil
}

// finish closes out w once its last step is done
func (s *Session) finish(ctx context.Context, w *selector.EnhancedWord) error {
	s.summary.Words++
	if s.failed[s.index] {
		return nil
	}

	s.summary.Correct++
	if _, err := s.tracker.RecordAnswer(ctx, true); err != nil {
		return fmt.Errorf("record correct answer for %s: %w", w.Word, err)
	}
	if _, err := s.tracker.RemoveErrorWord(ctx, w.Word); err != nil {
		return fmt.Errorf("remove error word %s: %w", w.Word, err)
	}
	if _, err := s.tracker.AddLearnedWord(ctx, w.WordRecord); err != nil {
		return fmt.Errorf("add learned word %s: %w", w.Word, err)
	}
	s.logger.Debug("word learned", "word", w.Word)
	return nil
}
