package selector

import "codeberg.org/snonux/learnword/internal/progress"

// Step names one exercise a word goes through
type Step string

// Exercise steps in the order a word visits them
const (
	StepListen   Step = "listen"
	StepRecord   Step = "record"
	StepTest     Step = "test"
	StepPhonics  Step = "phonics"
	StepSpelling Step = "spelling"
)

// Steps lists every step in order
var Steps = []Step{StepListen, StepRecord, StepTest, StepPhonics, StepSpelling}

// StepState holds the transient data of one step. Only the fields relevant
// to the step are used: SelectedIndex for the test, SelectedPhonemes for
// phonics, Attempts for spelling.
type StepState struct {
	Completed        bool     `json:"completed"`
	ShowResult       bool     `json:"showResult"`
	SelectedIndex    *int     `json:"selectedIndex,omitempty"`
	SelectedPhonemes []string `json:"selectedPhonemes,omitempty"`
	Attempts         int      `json:"attempts"`
}

// EnhancedWord is a word record plus the session state used while studying
// it. It is never persisted in this form.
type EnhancedWord struct {
	progress.WordRecord
	CurrentStep  int                `json:"currentStep"`
	StepProgress map[Step]bool      `json:"stepProgress"`
	StepStates   map[Step]StepState `json:"stepStates"`
}

// EnhanceRecord wraps a record with fresh session state
func EnhanceRecord(r progress.WordRecord) EnhancedWord {
	return Enhance(EnhancedWord{WordRecord: r})
}

// Enhance fills in any missing session state. Existing step progress and
// step states are kept, so enhancing twice equals enhancing once. The
// returned word does not share maps with w.
func Enhance(w EnhancedWord) EnhancedWord {
	out := w

	out.StepProgress = make(map[Step]bool, len(Steps))
	for k, v := range w.StepProgress {
		out.StepProgress[k] = v
	}
	out.StepStates = make(map[Step]StepState, len(Steps))
	for k, v := range w.StepStates {
		out.StepStates[k] = v
	}

	for _, step := range Steps {
		if _, ok := out.StepProgress[step]; !ok {
			out.StepProgress[step] = false
		}
		state, ok := out.StepStates[step]
		if !ok {
			state = StepState{}
		}
		if step == StepPhonics && state.SelectedPhonemes == nil {
			state.SelectedPhonemes = []string{}
		}
		out.StepStates[step] = state
	}

	if out.CurrentStep < 0 || out.CurrentStep > len(Steps) {
		out.CurrentStep = 0
	}
	if out.ErrorCount < 0 {
		out.ErrorCount = 0
	}
	if out.ReviewCount < 0 {
		out.ReviewCount = 0
	}
	return out
}

// StepAt returns the step at index i and whether i is in range
func StepAt(i int) (Step, bool) {
	if i < 0 || i >= len(Steps) {
		return "", false
	}
	return Steps[i], true
}

// Done reports whether every step has been completed
func (w EnhancedWord) Done() bool {
	for _, step := range Steps {
		if !w.StepProgress[step] {
			return false
		}
	}
	return true
}
