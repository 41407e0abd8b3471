package risk

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/ontrack/core/student"
)

// ClassifyStrengths buckets every exam and subject into strength, weakness or neither.
// Strengths are sorted best first and weaknesses worst first; ties keep exams in input
// order, then subjects by name.
// A malformed record voids the whole classification: both lists come back empty, with a RecoveredError.
func ClassifyStrengths(exams []student.Exam, grades []student.Grade, th Thresholds) (strengths, weaknesses []StrengthWeakness, err error) {
	strengths = make([]StrengthWeakness, 0)
	weaknesses = make([]StrengthWeakness, 0)

	// exams
	for i, e := range exams {
		if !e.Valid() {
			return empty(), empty(), recovered(StageStrengths, errors.Errorf("exam #%d (%q): invalid score", i, e.ExamName))
		}
		passed, _ := e.Passed() // unresolved counts as not passed
		perf := examPerformance(e, passed)
		sw := StrengthWeakness{Subject: e.ExamName, UnitType: UnitExam, PerformanceScore: perf}
		switch {
		case !passed:
			weaknesses = append(weaknesses, sw)
		case perf >= th.ExamStrength:
			strengths = append(strengths, sw)
		}
	}

	// subjects
	type totals struct{ earned, available float64 }
	subjects := make(map[string]*totals)
	names := make([]string, 0)
	for i, g := range grades {
		if !g.Valid() {
			return empty(), empty(), recovered(StageStrengths, errors.Errorf("grade #%d (%q): invalid points", i, g.ClassificationName))
		}
		tot, ok := subjects[g.ClassificationName]
		if !ok {
			tot = &totals{}
			subjects[g.ClassificationName] = tot
			names = append(names, g.ClassificationName)
		}
		tot.earned += g.PointsEarned
		tot.available += g.PointsAvailable
	}
	sort.Strings(names)
	for _, name := range names {
		tot := subjects[name]
		if tot.available == 0 {
			continue
		}
		perf := tot.earned / tot.available * 100
		sw := StrengthWeakness{Subject: name, UnitType: UnitCourse, PerformanceScore: perf}
		switch {
		case perf >= th.SubjectStrength:
			strengths = append(strengths, sw)
		case perf < th.SubjectWeakness:
			weaknesses = append(weaknesses, sw)
		}
	}

	sort.SliceStable(strengths, func(i, j int) bool {
		return strengths[i].PerformanceScore > strengths[j].PerformanceScore
	})
	sort.SliceStable(weaknesses, func(i, j int) bool {
		return weaknesses[i].PerformanceScore < weaknesses[j].PerformanceScore
	})
	return strengths, weaknesses, nil
}

// examPerformance is the score as a % of the pass score; 100 or 0 when there is no usable pass score.
func examPerformance(e student.Exam, passed bool) float64 {
	if e.PassScore != nil && *e.PassScore > 0 {
		return e.Score / *e.PassScore * 100
	}
	if passed {
		return 100
	}
	return 0
}

func empty() []StrengthWeakness {
	return []StrengthWeakness{}
}
