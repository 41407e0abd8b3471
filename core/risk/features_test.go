package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ontrack/core/student"
	"github.com/trezcool/ontrack/tests"
)

func TestAggregate_empty(t *testing.T) {
	fv := Aggregate(nil, nil)

	if len(fv) != len(FeatureNames) {
		t.Fatalf("len(Aggregate()) = %d, want %d", len(fv), len(FeatureNames))
	}
	for _, name := range FeatureNames {
		if v, ok := fv[name]; !ok || !math.IsNaN(v) {
			t.Errorf("Aggregate()[%s] = %v (present %v), want NaN", name, v, ok)
		}
	}
}

func TestAggregate_exams(t *testing.T) {
	exams := []student.Exam{
		testutil.Exam("Step 1", 230, testutil.Float(196), testutil.Bool(true)),
		testutil.Exam("Step 2 CK", 200, testutil.Float(209), nil), // derived fail
		testutil.Exam("Shelf", 80, nil, testutil.Bool(true)),
	}
	fv := Aggregate(exams, nil)

	assert.InDelta(t, 170, fv[FeatScoreMean], 1e-9)
	assert.Equal(t, 80.0, fv[FeatScoreMin])
	assert.Equal(t, 230.0, fv[FeatScoreMax])
	assert.InDelta(t, 79.3725, fv[FeatScoreStd], 1e-4)
	assert.Equal(t, 3.0, fv[FeatScoreCount])
	assert.InDelta(t, 2.0/3.0, fv[FeatPassOrFailMean], 1e-9)
	assert.Equal(t, 2.0, fv[FeatPassOrFailSum])
	assert.True(t, math.IsNaN(fv[FeatPercentageMean]))
}

func TestAggregate_partialPassFlags(t *testing.T) {
	exams := []student.Exam{
		testutil.Exam("Step 1", 230, nil, testutil.Bool(true)),
		testutil.Exam("Step 2", 240, nil, nil),
	}
	fv := Aggregate(exams, nil)

	assert.Equal(t, 2.0, fv[FeatScoreCount])
	assert.True(t, math.IsNaN(fv[FeatPassOrFailMean]), "pass rate over a partial subset")
	assert.True(t, math.IsNaN(fv[FeatPassOrFailSum]))
}

func TestAggregate_singleExamStd(t *testing.T) {
	fv := Aggregate([]student.Exam{testutil.Exam("Step 1", 230, nil, nil)}, nil)
	assert.True(t, math.IsNaN(fv[FeatScoreStd]))
	assert.Equal(t, 1.0, fv[FeatScoreCount])
}

func TestAggregate_grades(t *testing.T) {
	grades := []student.Grade{
		testutil.Grade("Anatomy", 45, 50),
		testutil.Grade("Anatomy", 0, 0), // no percentage
		testutil.Grade("Immunology", 6, 8),
		{ClassificationName: "Broken", PointsEarned: math.NaN(), PointsAvailable: 10},
	}
	fv := Aggregate(nil, grades)

	assert.InDelta(t, 82.5, fv[FeatPercentageMean], 1e-9)
	assert.Equal(t, 75.0, fv[FeatPercentageMin])
	assert.Equal(t, 90.0, fv[FeatPercentageMax])
	assert.Equal(t, 2.0, fv[FeatPercentageCount])
	assert.Equal(t, 51.0, fv[FeatPointsEarnedSum])
	assert.Equal(t, 58.0, fv[FeatPointsAvailableSum])
	assert.InDelta(t, 51.0/58.0*100, fv[FeatOverallPercentage], 1e-9)
	assert.True(t, math.IsNaN(fv[FeatScoreMean]))
}

func TestAggregate_zeroAvailable(t *testing.T) {
	fv := Aggregate(nil, []student.Grade{testutil.Grade("Anatomy", 0, 0)})

	assert.Equal(t, 0.0, fv[FeatPointsAvailableSum])
	assert.True(t, math.IsNaN(fv[FeatOverallPercentage]))
	assert.True(t, math.IsNaN(fv[FeatPercentageMean]))
	assert.True(t, math.IsNaN(fv[FeatPercentageCount]))
}

func TestFeatureVector_Row(t *testing.T) {
	rec := testutil.StrongRecord(3)
	row := Aggregate(rec.Exams, rec.Grades).Row(rec.Info)

	for _, col := range InputColumns() {
		if _, ok := row[col]; !ok {
			t.Errorf("Row() lacks column %s", col)
		}
	}
	assert.Equal(t, "MD", row["Program"])
	assert.Equal(t, 5.0, row[FeatScoreCount])
}
