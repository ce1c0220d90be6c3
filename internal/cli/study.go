package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"codeberg.org/snonux/learnword/internal/app"
	"codeberg.org/snonux/learnword/internal/audio"
	"codeberg.org/snonux/learnword/internal/selector"
	"codeberg.org/snonux/learnword/internal/session"
)

// studyLoop drives a session over a line based terminal
type studyLoop struct {
	ctx   context.Context
	app   *app.App
	s     *session.Session
	in    *bufio.Scanner
	out   io.Writer
	audio bool
	rng   *rand.Rand
}

// runStudy walks s word by word, reading answers from in. End of input stops
// the session early; the words finished so far stay recorded.
func runStudy(ctx context.Context, a *app.App, s *session.Session, in io.Reader, out io.Writer, playAudio bool) (session.Summary, error) {
	l := &studyLoop{
		ctx:   ctx,
		app:   a,
		s:     s,
		in:    bufio.NewScanner(in),
		out:   out,
		audio: playAudio,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	started := time.Now()

	fmt.Fprintln(out, session.Pick(session.MotivationalQuotes, l.rng))
	for {
		w, ok := s.Current()
		if !ok {
			break
		}
		fmt.Fprintf(out, "\n[%d/%d] %s %s\n", s.Position()+1, s.Len(), w.Word, w.Phonetic)
		if err := l.word(w); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return s.Summary(), err
		}
		s.Next()
	}

	sum := s.Summary()
	fmt.Fprintf(out, "\nFinished %d words: %d correct, %d wrong\n", sum.Words, sum.Correct, sum.Wrong)

	if minutes := int(time.Since(started).Minutes()); minutes > 0 {
		if _, err := a.Tracker.AddStudyTime(ctx, minutes); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func (l *studyLoop) word(w selector.EnhancedWord) error {
	if l.audio {
		l.play(w.Word)
	}
	if err := l.s.CompleteListen(); err != nil {
		return err
	}
	if err := l.s.CompleteRecord(); err != nil {
		return err
	}

	if err := l.test(); err != nil {
		return err
	}
	if err := l.phonics(w); err != nil {
		return err
	}
	return l.spelling(w)
}

func (l *studyLoop) play(word string) {
	ok, err := l.app.Chain.PlayWord(l.ctx, word, audio.DefaultOptions())
	if err != nil || !ok {
		slog.Debug("pronunciation unavailable", "word", word, "error", err)
		fmt.Fprintln(l.out, "(audio unavailable)")
	}
}

func (l *studyLoop) test() error {
	q, err := l.s.Question()
	if err != nil {
		return err
	}
	fmt.Fprintf(l.out, "Which word means %q?\n", q.Prompt)
	for i, option := range q.Options {
		fmt.Fprintf(l.out, "  %d) %s\n", i+1, option)
	}

	choice, err := l.readChoice(q.Options)
	if err != nil {
		return err
	}
	ok, err := l.s.AnswerTest(l.ctx, choice, q.Correct)
	if err != nil {
		return err
	}
	l.feedback(ok, fmt.Sprintf("The answer is %s.", q.Options[q.Correct]))
	return nil
}

func (l *studyLoop) phonics(w selector.EnhancedWord) error {
	choices, err := l.s.PhonicsChoices()
	if err != nil {
		return err
	}

	var selected []string
	if len(choices) > 0 {
		fmt.Fprintf(l.out, "Put the sounds in order: %s\n", strings.Join(choices, " "))
		line, err := l.readLine("> ")
		if err != nil {
			return err
		}
		selected = strings.Fields(line)
	}

	ok, err := l.s.AnswerPhonics(l.ctx, selected)
	if err != nil {
		return err
	}
	if len(choices) > 0 {
		l.feedback(ok, fmt.Sprintf("The order is %s.", strings.Join(w.Phonemes, " ")))
	}
	return nil
}

func (l *studyLoop) spelling(w selector.EnhancedWord) error {
	fmt.Fprintf(l.out, "Spell the word that means %q\n", w.Meaning)

	last := session.Wrong
	for {
		if step, ok := l.s.Step(); !ok || step != selector.StepSpelling {
			break
		}
		line, err := l.readLine(fmt.Sprintf("(%d left) > ", l.s.AttemptsLeft()))
		if err != nil {
			return err
		}
		if last, err = l.s.AnswerSpelling(l.ctx, line); err != nil {
			return err
		}
		switch last {
		case session.Correct:
			fmt.Fprintln(l.out, session.Pick(session.SuccessMessages, l.rng))
		case session.Close:
			fmt.Fprintln(l.out, "Almost, check the letters.")
		default:
			fmt.Fprintln(l.out, "Not quite.")
		}
	}

	if last != session.Correct {
		fmt.Fprintf(l.out, "The word is %s. %s\n", w.Word, session.Pick(session.EncouragementMessages, l.rng))
	}
	return nil
}

func (l *studyLoop) feedback(ok bool, reveal string) {
	if ok {
		fmt.Fprintln(l.out, session.Pick(session.SuccessMessages, l.rng))
		return
	}
	fmt.Fprintf(l.out, "%s %s\n", reveal, session.Pick(session.EncouragementMessages, l.rng))
}

// readChoice accepts an option number or the option text itself
func (l *studyLoop) readChoice(options []string) (int, error) {
	for {
		line, err := l.readLine("> ")
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		for i, option := range options {
			if strings.EqualFold(line, option) {
				return i, nil
			}
		}
		fmt.Fprintf(l.out, "Enter 1-%d.\n", len(options))
	}
}

func (l *studyLoop) readLine(prompt string) (string, error) {
	fmt.Fprint(l.out, prompt)
	if !l.in.Scan() {
		if err := l.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(l.in.Text()), nil
}
