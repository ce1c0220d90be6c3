package progress

import (
	"time"

	"codeberg.org/snonux/learnword/internal/course"
)

// dateLayout is the day-granularity format used for LastStudyDate
const dateLayout = "2006-01-02"

// browserDateLayout matches Date.toDateString(), found in older exports
const browserDateLayout = "Mon Jan 02 2006"

// NormalizeStudyDate rewrites a browser-style day into dateLayout.
// Values in neither layout are returned unchanged.
func NormalizeStudyDate(s string) string {
	if _, err := time.Parse(dateLayout, s); err == nil {
		return s
	}
	if d, err := time.Parse(browserDateLayout, s); err == nil {
		return d.Format(dateLayout)
	}
	return s
}

// FrequentErrorThreshold is the error count at which a word counts as
// frequently missed
const FrequentErrorThreshold = 3

// WordRecord is a course word plus its learning bookkeeping
type WordRecord struct {
	Word      string   `json:"word"`
	Meaning   string   `json:"meaning"`
	Phonetic  string   `json:"phonetic,omitempty"`
	Phonemes  []string `json:"phonemes,omitempty"`
	PhonemesA []string `json:"phonemes_a,omitempty"`

	ErrorCount     int        `json:"errorCount"`
	FirstErrorDate *time.Time `json:"firstErrorDate,omitempty"`
	LastErrorDate  *time.Time `json:"lastErrorDate,omitempty"`

	ReviewCount    int        `json:"reviewCount"`
	FirstLearnDate *time.Time `json:"firstLearnDate,omitempty"`
	LastReviewDate *time.Time `json:"lastReviewDate,omitempty"`
}

// FromCourseWord converts a catalog entry into a fresh record
func FromCourseWord(w course.Word) WordRecord {
	return WordRecord{
		Word:      w.Word,
		Meaning:   w.Meaning,
		Phonetic:  w.Phonetic,
		Phonemes:  []string(w.Phonemes),
		PhonemesA: []string(w.PhonemesA),
	}
}

// StudyProgress is the aggregate progress record.
// TotalLearned always equals CorrectCount + WrongCount.
type StudyProgress struct {
	TotalLearned  int    `json:"totalLearned"`
	CorrectCount  int    `json:"correctCount"`
	WrongCount    int    `json:"wrongCount"`
	Streak        int    `json:"streak"`
	LastStudyDate string `json:"lastStudyDate,omitempty"`
}

// TodayProgress compares the words first learned today with the daily goal
type TodayProgress struct {
	TodayCount  int     `json:"todayCount"`
	DailyGoal   int     `json:"dailyGoal"`
	Percent     float64 `json:"progress"`
	IsCompleted bool    `json:"isCompleted"`
}

// Settings are the persisted user preferences
type Settings struct {
	DailyGoal      int    `json:"dailyGoal"`
	SelectedCourse string `json:"selectedCourse"`
	DarkMode       bool   `json:"darkMode"`
}
