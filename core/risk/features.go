package risk

import (
	"math"

	"github.com/trezcool/ontrack/core/inference"
	"github.com/trezcool/ontrack/core/student"
)

// Feature names, as expected by the fitted preprocessor.
const (
	FeatScoreMean          = "Score_mean"
	FeatScoreMin           = "Score_min"
	FeatScoreMax           = "Score_max"
	FeatScoreStd           = "Score_std"
	FeatScoreCount         = "Score_count"
	FeatPassOrFailMean     = "PassOrFail_mean"
	FeatPassOrFailSum      = "PassOrFail_sum"
	FeatPercentageMean     = "Percentage_mean"
	FeatPercentageMin      = "Percentage_min"
	FeatPercentageMax      = "Percentage_max"
	FeatPercentageStd      = "Percentage_std"
	FeatPercentageCount    = "Percentage_count"
	FeatPointsEarnedSum    = "PointsEarned_sum"
	FeatPointsAvailableSum = "PointsAvailable_sum"
	FeatOverallPercentage  = "Overall_Percentage"
)

// FeatureNames lists every aggregated feature, in a fixed order.
var FeatureNames = []string{
	FeatScoreMean, FeatScoreMin, FeatScoreMax, FeatScoreStd, FeatScoreCount,
	FeatPassOrFailMean, FeatPassOrFailSum,
	FeatPercentageMean, FeatPercentageMin, FeatPercentageMax, FeatPercentageStd, FeatPercentageCount,
	FeatPointsEarnedSum, FeatPointsAvailableSum, FeatOverallPercentage,
}

// FeatureVector maps every name of FeatureNames to its value; NaN means unknown.
type FeatureVector map[string]float64

// Get returns the named feature, NaN if unknown.
func (fv FeatureVector) Get(name string) float64 {
	if v, ok := fv[name]; ok {
		return v
	}
	return math.NaN()
}

// Row joins the features with the student columns into a preprocessor input row.
func (fv FeatureVector) Row(info student.Info) inference.Row {
	row := make(inference.Row, len(fv)+10)
	for k, v := range info.Columns() {
		row[k] = v
	}
	for k, v := range fv {
		row[k] = v
	}
	return row
}

// InputColumns lists every column of the rows built by FeatureVector.Row.
func InputColumns() []string {
	cols := make([]string, 0, len(FeatureNames)+10)
	for k := range (student.Info{}).Columns() {
		cols = append(cols, k)
	}
	return append(cols, FeatureNames...)
}

// Aggregate collapses a student's exams and grades into the fixed feature set.
// Malformed records are skipped; features that cannot be computed are NaN. It never fails.
func Aggregate(exams []student.Exam, grades []student.Grade) FeatureVector {
	fv := make(FeatureVector, len(FeatureNames))
	for _, name := range FeatureNames {
		fv[name] = math.NaN()
	}

	// exams
	scores := make([]float64, 0, len(exams))
	var passed, resolved int
	for _, e := range exams {
		if !e.Valid() {
			continue
		}
		scores = append(scores, e.Score)
		if ok, known := e.Passed(); known {
			resolved++
			if ok {
				passed++
			}
		}
	}
	if len(scores) > 0 {
		fv[FeatScoreMean] = mean(scores)
		fv[FeatScoreMin] = minOf(scores)
		fv[FeatScoreMax] = maxOf(scores)
		fv[FeatScoreStd] = sampleStd(scores)
		fv[FeatScoreCount] = float64(len(scores))

		// partial pass/fail information would give a misleading rate
		if resolved == len(scores) {
			fv[FeatPassOrFailMean] = float64(passed) / float64(resolved)
			fv[FeatPassOrFailSum] = float64(passed)
		}
	}

	// grades
	percentages := make([]float64, 0, len(grades))
	var earned, available float64
	var counted int
	for _, g := range grades {
		if !g.Valid() {
			continue
		}
		counted++
		earned += g.PointsEarned
		available += g.PointsAvailable
		if g.PointsAvailable > 0 {
			percentages = append(percentages, g.PointsEarned/g.PointsAvailable*100)
		}
	}
	if counted > 0 {
		fv[FeatPointsEarnedSum] = earned
		fv[FeatPointsAvailableSum] = available
		if available > 0 {
			fv[FeatOverallPercentage] = earned / available * 100
		}
	}
	if len(percentages) > 0 {
		fv[FeatPercentageMean] = mean(percentages)
		fv[FeatPercentageMin] = minOf(percentages)
		fv[FeatPercentageMax] = maxOf(percentages)
		fv[FeatPercentageStd] = sampleStd(percentages)
		fv[FeatPercentageCount] = float64(len(percentages))
	}
	return fv
}

// mean, minOf, maxOf & sampleStd return NaN on empty input

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// sampleStd is the n-1 standard deviation; NaN below two values.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
