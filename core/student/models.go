package student

import (
	"math"
	"time"
)

// Info holds the demographic and summary fields known about a student.
// Data collection is incomplete for in-progress students, hence the optional fields.
type Info struct {
	ID                   int      `json:"StudentID"`
	Name                 string   `json:"Name,omitempty"`
	Program              string   `json:"Program,omitempty"`
	RosterYear           *int     `json:"RosterYear,omitempty"`
	CumulativeGPA        *float64 `json:"CumulativeGPA,omitempty"`
	CumulativeScienceGPA *float64 `json:"CumulativeScienceGPA,omitempty"`

	// graduation outcome; known for alumni only and never fed to the classifier
	GraduationYear   *int    `json:"GraduationYear,omitempty"`
	GraduationLength *int    `json:"GraduationLength,omitempty"`
	GraduationStatus *string `json:"GraduationStatus,omitempty"`
	OnTime           *bool   `json:"OnTime,omitempty"`
}

// Columns flattens Info into the named columns seen by the offline pipeline.
// Unknown numeric values are NaN and unknown categorical values are empty strings.
func (i Info) Columns() map[string]interface{} {
	return map[string]interface{}{
		"StudentID":            float64(i.ID),
		"Program":              i.Program,
		"RosterYear":           intOrNaN(i.RosterYear),
		"CumulativeGPA":        floatOrNaN(i.CumulativeGPA),
		"CumulativeScienceGPA": floatOrNaN(i.CumulativeScienceGPA),
		"GraduationYear":       intOrNaN(i.GraduationYear),
		"GraduationLength":     intOrNaN(i.GraduationLength),
		"GraduationStatus":     strOrEmpty(i.GraduationStatus),
		"OnTime":               boolOrNaN(i.OnTime),
	}
}

type Exam struct {
	ExamName   string   `json:"ExamName"`
	Score      float64  `json:"Score"`
	PassScore  *float64 `json:"PassScore,omitempty"`
	PassOrFail *bool    `json:"PassOrFail,omitempty"`
}

// Passed resolves the pass status of the exam.
// The supplied flag wins; otherwise it is derived from the pass score when there is one.
// ok is false when neither is available.
func (e Exam) Passed() (passed, ok bool) {
	if e.PassOrFail != nil {
		return *e.PassOrFail, true
	}
	if e.PassScore != nil && isFinite(*e.PassScore) && isFinite(e.Score) {
		return e.Score >= *e.PassScore, true
	}
	return false, false
}

// Valid reports whether the exam carries usable numbers.
func (e Exam) Valid() bool {
	return isFinite(e.Score) && (e.PassScore == nil || isFinite(*e.PassScore))
}

type Grade struct {
	ClassificationName string    `json:"ClassificationName"`
	PointsEarned       float64   `json:"PointsEarned"`
	PointsAvailable    float64   `json:"PointsAvailable"`
	ClassID            int       `json:"ClassID,omitempty"`
	DateTaught         time.Time `json:"DateTaught,omitempty"`
}

// Valid reports whether the grade carries usable numbers.
func (g Grade) Valid() bool {
	return isFinite(g.PointsEarned) && isFinite(g.PointsAvailable) && g.PointsAvailable >= 0
}

// Record is the academic record set assembled for one student.
type Record struct {
	Info   Info    `json:"StudentInfo"`
	Exams  []Exam  `json:"Exams"`
	Grades []Grade `json:"Grades"`
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func floatOrNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}

func intOrNaN(i *int) float64 {
	if i == nil {
		return math.NaN()
	}
	return float64(*i)
}

func boolOrNaN(b *bool) float64 {
	switch {
	case b == nil:
		return math.NaN()
	case *b:
		return 1
	default:
		return 0
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
