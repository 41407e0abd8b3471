package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ontrack/core/inference"
	"github.com/trezcool/ontrack/core/student"
	"github.com/trezcool/ontrack/tests"
)

func prediction(label int, probability float64) inference.Prediction {
	if label == inference.LabelUnavailable {
		return inference.NoModelPrediction()
	}
	return inference.Prediction{Prediction: label, Probability: probability, ConfidenceScore: probability * 100}
}

func passed(n int) []student.Exam {
	exams := make([]student.Exam, 0, n)
	for i := 0; i < n; i++ {
		exams = append(exams, testutil.Exam("Passed", 1, nil, testutil.Bool(true)))
	}
	return exams
}

func failed(n int) []student.Exam {
	exams := make([]student.Exam, 0, n)
	for i := 0; i < n; i++ {
		exams = append(exams, testutil.Exam("Failed", 0, nil, testutil.Bool(false)))
	}
	return exams
}

func graded(earned, available float64) []student.Grade {
	return []student.Grade{testutil.Grade("Subject", earned, available)}
}

func TestBlend(t *testing.T) {
	tests := []struct {
		name   string
		pred   inference.Prediction
		exams  []student.Exam
		grades []student.Grade
		want   float64
	}{
		{name: "on time, no records", pred: prediction(1, 0.5), want: 90},
		{name: "late, no records", pred: prediction(0, 0.25), want: 50},
		{name: "no model, no records", pred: prediction(-1, 0), want: 50},
		{name: "pass ratio 0", pred: prediction(-1, 0), exams: failed(4), want: 20},
		{name: "pass ratio 0.5", pred: prediction(-1, 0), exams: append(passed(1), failed(1)...), want: 35},
		{name: "pass ratio 0.75", pred: prediction(-1, 0), exams: append(passed(3), failed(1)...), want: 35},
		{name: "pass ratio 0.8", pred: prediction(-1, 0), exams: append(passed(4), failed(1)...), want: 55},
		{name: "unresolved exam is not passed", pred: prediction(-1, 0), exams: []student.Exam{testutil.Exam("Step 1", 1, nil, nil)}, want: 20},
		{
			name:  "unresolved exam counts toward the pass ratio",
			pred:  prediction(-1, 0),
			exams: []student.Exam{testutil.Exam("Step 1", 230, nil, testutil.Bool(true)), testutil.Exam("Shelf", 60, nil, nil)},
			want:  35,
		},
		{name: "grade 69", pred: prediction(-1, 0), grades: graded(69, 100), want: 30},
		{name: "grade 70", pred: prediction(-1, 0), grades: graded(70, 100), want: 40},
		{name: "grade 79", pred: prediction(-1, 0), grades: graded(79, 100), want: 40},
		{name: "grade 80", pred: prediction(-1, 0), grades: graded(80, 100), want: 50},
		{name: "grade 89", pred: prediction(-1, 0), grades: graded(89, 100), want: 50},
		{name: "grade 90", pred: prediction(-1, 0), grades: graded(90, 100), want: 60},
		{name: "zero points available", pred: prediction(-1, 0), grades: graded(0, 0), want: 50},
		{name: "clamped to 100", pred: prediction(1, 1), exams: passed(5), grades: graded(95, 100), want: 100},
		{name: "clamped to 0", pred: prediction(0, 0), exams: failed(2), grades: graded(10, 100), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Blend(tt.pred, tt.grades, tt.exams)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBlend_malformed(t *testing.T) {
	grades := []student.Grade{{ClassificationName: "Broken", PointsEarned: math.NaN(), PointsAvailable: 10}}

	got, err := Blend(prediction(1, 0.9), grades, passed(2))

	assert.Equal(t, NeutralScore, got)
	var rErr *RecoveredError
	require.True(t, errors.As(err, &rErr), "err = %v, want a *RecoveredError", err)
	assert.Equal(t, StageBlend, rErr.Stage)
}

func TestBlend_bounds(t *testing.T) {
	preds := []inference.Prediction{prediction(1, 1), prediction(1, 0.5), prediction(0, 0), prediction(0, 0.49), prediction(-1, 0)}
	examSets := [][]student.Exam{nil, passed(5), failed(5), append(passed(1), failed(3)...)}
	gradeSets := [][]student.Grade{nil, graded(100, 100), graded(0, 100), graded(75, 100)}

	th := DefaultThresholds()
	for _, p := range preds {
		for _, exams := range examSets {
			for _, grades := range gradeSets {
				score, err := Blend(p, grades, exams)
				require.NoError(t, err)
				if score < 0 || score > 100 {
					t.Fatalf("Blend() = %v, out of [0, 100]", score)
				}
				level := Level(score, th)
				switch {
				case score < 50 && level != LevelHigh,
					score >= 50 && score < 75 && level != LevelMedium,
					score >= 75 && level != LevelLow:
					t.Errorf("Level(%v) = %s", score, level)
				}
			}
		}
	}
}

func TestLevel(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		score float64
		want  string
	}{
		{0, LevelHigh},
		{49.99, LevelHigh},
		{50, LevelMedium},
		{74.99, LevelMedium},
		{75, LevelLow},
		{100, LevelLow},
	}
	for _, tt := range tests {
		if got := Level(tt.score, th); got != tt.want {
			t.Errorf("Level(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
