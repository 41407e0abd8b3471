package risk

import (
	"math"

	"github.com/pkg/errors"

	"github.com/trezcool/ontrack/core/inference"
	"github.com/trezcool/ontrack/core/student"
)

const (
	// NeutralScore is the score of a student without a model verdict, and the blend fallback.
	NeutralScore = 50.0

	onTimeBase   = 80.0
	onTimeWeight = 0.2
	lateBase     = 40.0
	lateWeight   = 0.4

	lowPassRatio       = 0.5
	lowPassPenalty     = 30.0
	partialPassRatio   = 0.8
	partialPassPenalty = 15.0
	passBonus          = 5.0

	failingGrade        = 70.0
	failingGradePenalty = 20.0
	weakGrade           = 80.0
	weakGradePenalty    = 10.0
	strongGrade         = 90.0
	strongGradeBonus    = 10.0
)

// Blend combines the model verdict with the exam pass ratio and the overall grade
// performance into a score in [0, 100]; higher is better.
// Exams without a known pass status count as not passed. On malformed input it returns
// NeutralScore with a RecoveredError.
func Blend(pred inference.Prediction, grades []student.Grade, exams []student.Exam) (float64, error) {
	score, err := blend(pred, grades, exams)
	if err != nil {
		return NeutralScore, recovered(StageBlend, err)
	}
	return score, nil
}

func blend(pred inference.Prediction, grades []student.Grade, exams []student.Exam) (float64, error) {
	if math.IsNaN(pred.ConfidenceScore) || math.IsInf(pred.ConfidenceScore, 0) {
		return 0, errors.Errorf("invalid confidence score %v", pred.ConfidenceScore)
	}

	var score float64
	switch {
	case !pred.Available():
		score = NeutralScore
	case pred.Prediction == inference.LabelOnTime:
		score = onTimeBase + pred.ConfidenceScore*onTimeWeight
	default:
		score = lateBase + pred.ConfidenceScore*lateWeight
	}

	var passed int
	for i, e := range exams {
		if !e.Valid() {
			return 0, errors.Errorf("exam #%d (%q): invalid score", i, e.ExamName)
		}
		if ok, _ := e.Passed(); ok {
			passed++
		}
	}
	if len(exams) > 0 {
		ratio := float64(passed) / float64(len(exams))
		switch {
		case ratio < lowPassRatio:
			score -= lowPassPenalty
		case ratio < partialPassRatio:
			score -= partialPassPenalty
		default:
			score += passBonus
		}
	}

	var earned, available float64
	for i, g := range grades {
		if !g.Valid() {
			return 0, errors.Errorf("grade #%d (%q): invalid points", i, g.ClassificationName)
		}
		earned += g.PointsEarned
		available += g.PointsAvailable
	}
	if len(grades) > 0 && available > 0 {
		perf := earned / available * 100
		switch {
		case perf < failingGrade:
			score -= failingGradePenalty
		case perf < weakGrade:
			score -= weakGradePenalty
		case perf >= strongGrade:
			score += strongGradeBonus
		}
	}

	if math.IsNaN(score) {
		return 0, errors.New("score is not a number")
	}
	return math.Max(0, math.Min(100, score)), nil
}

// Level maps a score to its risk level.
func Level(score float64, th Thresholds) string {
	switch {
	case score < th.HighRiskBelow:
		return LevelHigh
	case score < th.LowRiskFrom:
		return LevelMedium
	default:
		return LevelLow
	}
}
