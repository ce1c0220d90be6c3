package course

import (
	"errors"
	"math/rand"
)

// DefaultCourseName is the course used when no valid course is selected
const DefaultCourseName = "基础词汇"

// DefaultDailyGoal is the daily goal used when none is stored
const DefaultDailyGoal = 10

// ErrCourseNotFound is returned when a course name is not in the catalog
var ErrCourseNotFound = errors.New("course not found")

// Word is a single catalog entry
type Word struct {
	Word      string   `json:"word" yaml:"word"`
	Meaning   string   `json:"meaning" yaml:"meaning"`
	Phonetic  string   `json:"phonetic,omitempty" yaml:"phonetic,omitempty"`
	Phonemes  Phonemes `json:"phonemes,omitempty" yaml:"phonemes,omitempty"`
	PhonemesA Phonemes `json:"phonemes_a,omitempty" yaml:"phonemes_a,omitempty"`
}

// Course is an ordered word list
type Course struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Emoji       string `json:"emoji,omitempty" yaml:"emoji,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Words       []Word `json:"words" yaml:"words"`
}

// WordCount returns the number of words in the course
func (c Course) WordCount() int {
	return len(c.Words)
}

// Settings are catalog-level defaults
type Settings struct {
	DefaultCourse string `json:"defaultCourse,omitempty" yaml:"default_course,omitempty"`
	DailyGoal     int    `json:"dailyGoal,omitempty" yaml:"daily_goal,omitempty"`
}

// Catalog is an immutable set of courses keyed by name
type Catalog struct {
	courses  []Course
	byName   map[string]int
	settings Settings
}

// NewCatalog builds a catalog from courses. Later courses with a duplicate
// name are dropped so names stay unique.
func NewCatalog(courses []Course, settings Settings) *Catalog {
	c := &Catalog{
		byName:   make(map[string]int, len(courses)),
		settings: settings,
	}
	for i, course := range courses {
		if _, dup := c.byName[course.Name]; dup {
			continue
		}
		c.byName[course.Name] = len(c.courses)
		c.courses = append(c.courses, normalizeCourse(course, i))
	}

	if c.settings.DailyGoal <= 0 {
		c.settings.DailyGoal = DefaultDailyGoal
	}
	if _, ok := c.byName[c.settings.DefaultCourse]; !ok {
		c.settings.DefaultCourse = DefaultCourseName
		if _, ok := c.byName[DefaultCourseName]; !ok && len(c.courses) > 0 {
			c.settings.DefaultCourse = c.courses[0].Name
		}
	}
	return c
}

// All returns a copy of every course in catalog order
func (c *Catalog) All() []Course {
	out := make([]Course, len(c.courses))
	copy(out, c.courses)
	return out
}

// Names returns the course names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.courses))
	for i, course := range c.courses {
		names[i] = course.Name
	}
	return names
}

// ByName looks up a course by name
func (c *Catalog) ByName(name string) (Course, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Course{}, false
	}
	return c.courses[i], true
}

// ByID looks up a course by id
func (c *Catalog) ByID(id string) (Course, bool) {
	for _, course := range c.courses {
		if course.ID == id {
			return course, true
		}
	}
	return Course{}, false
}

// IsValid reports whether name refers to a course in the catalog
func (c *Catalog) IsValid(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Settings returns the catalog defaults
func (c *Catalog) Settings() Settings {
	return c.settings
}

// RandomWords samples up to count distinct words from the named course
// without replacement. A missing or empty course yields no words.
func (c *Catalog) RandomWords(name string, count int, rng *rand.Rand) []Word {
	course, ok := c.ByName(name)
	if !ok || len(course.Words) == 0 || count <= 0 {
		return nil
	}

	shuffled := make([]Word, len(course.Words))
	copy(shuffled, course.Words)
	if rng != nil {
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
	} else {
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
	}

	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}
