package inference_test

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ontrack/core/inference"
	"github.com/trezcool/ontrack/tests"
)

var columns = []string{
	"StudentID", "Program", "CumulativeGPA", "Score_mean", "PassOrFail_mean", "Overall_Percentage",
}

func row(program string, scoreMean, passRate, overall, gpa float64) inference.Row {
	return inference.Row{
		"StudentID":          7.0,
		"Program":            program,
		"CumulativeGPA":      gpa,
		"Score_mean":         scoreMean,
		"PassOrFail_mean":    passRate,
		"Overall_Percentage": overall,
	}
}

func TestLoadModelContext(t *testing.T) {
	paths := testutil.WriteArtifacts(t)
	logger := &testutil.Logger{}
	opts := paths.ContextOptions(columns)
	opts.Logger = logger

	mc := inference.LoadModelContext(opts)

	require.True(t, mc.Loaded(), "load error: %v", mc.LoadError())
	assert.Equal(t, testutil.BestModel, mc.ModelName())
	assert.Equal(t, "1.0.0", mc.SchemaVersion())
	assert.Equal(t, 3, mc.CacheSize())
	acc, ok := mc.Accuracy()
	assert.True(t, ok)
	assert.Equal(t, 0.87, acc)
	assert.Equal(t, 1, logger.Count("info"))
	assert.Zero(t, logger.Count("warn"))
}

func TestLoadModelContext_noModel(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(t *testing.T, paths *testutil.ArtifactPaths, opts *inference.ContextOptions)
		wantErr string
	}{
		{
			name: "missing classifier",
			modify: func(t *testing.T, paths *testutil.ArtifactPaths, opts *inference.ContextOptions) {
				opts.ClassifierPath = paths.Dir + "/nope.json"
			},
			wantErr: "reading artifact",
		},
		{
			name: "schema violation",
			modify: func(t *testing.T, paths *testutil.ArtifactPaths, opts *inference.ContextOptions) {
				opts.ClassifierPath = testutil.WriteFile(t, paths.Dir, "bad.json", `{"schema_version": "1.0.0", "kind": "svm", "n_features": 6}`)
			},
			wantErr: "validating artifact",
		},
		{
			name: "unsupported schema version",
			modify: func(t *testing.T, paths *testutil.ArtifactPaths, opts *inference.ContextOptions) {
				clf := testutil.Classifier()
				clf.SchemaVersion = "2.1.0"
				opts.ClassifierPath = testutil.WriteJSON(t, paths.Dir, "v2.json", clf)
			},
			wantErr: "schema_version 2.1.0 not supported",
		},
		{
			name: "feature count mismatch",
			modify: func(t *testing.T, paths *testutil.ArtifactPaths, opts *inference.ContextOptions) {
				clf := testutil.Classifier()
				clf.NumFeatures = 5
				clf.Coefficients = clf.Coefficients[:5]
				opts.ClassifierPath = testutil.WriteJSON(t, paths.Dir, "short.json", clf)
			},
			wantErr: "preprocessor outputs 6 features, classifier expects 5",
		},
		{
			name: "column not produced at runtime",
			modify: func(t *testing.T, paths *testutil.ArtifactPaths, opts *inference.ContextOptions) {
				opts.Columns = columns[:3]
			},
			wantErr: `column "Score_mean" is not produced at runtime`,
		},
		{
			name: "exclusion list out of sync",
			modify: func(t *testing.T, paths *testutil.ArtifactPaths, opts *inference.ContextOptions) {
				pre := testutil.Preprocessor()
				pre.ExcludedColumns = []string{"StudentID", "OnTime"}
				opts.PreprocessorPath = testutil.WriteJSON(t, paths.Dir, "pre.json", pre)
			},
			wantErr: "excluded columns mismatch",
		},
		{
			name: "metadata without best model",
			modify: func(t *testing.T, paths *testutil.ArtifactPaths, opts *inference.ContextOptions) {
				opts.MetadataPath = testutil.WriteFile(t, paths.Dir, "eval.json", `{"Gradient Boosting": {"accuracy": 0.9}}`)
			},
			wantErr: "loading evaluation metadata",
		},
		{
			name: "broken bulk predictions",
			modify: func(t *testing.T, paths *testutil.ArtifactPaths, opts *inference.ContextOptions) {
				require.NoError(t, os.WriteFile(paths.Predictions, []byte("id\n1\n"), 0o644))
			},
			wantErr: "loading bulk predictions",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := testutil.WriteArtifacts(t)
			opts := paths.ContextOptions(columns)
			tt.modify(t, &paths, &opts)
			logger := &testutil.Logger{}
			opts.Logger = logger

			mc := inference.LoadModelContext(opts)

			require.False(t, mc.Loaded())
			require.Error(t, mc.LoadError())
			assert.Contains(t, mc.LoadError().Error(), tt.wantErr)
			assert.Equal(t, 1, logger.Count("error"))

			pred := inference.NewEngine(mc, nil).Predict(42, row("MD", 230, 1, 95, 3.9))
			assert.Equal(t, inference.NoModelPrediction(), pred)
		})
	}
}

func TestLoadModelContext_bestModelNotCached(t *testing.T) {
	paths := testutil.WriteArtifacts(t)
	opts := paths.ContextOptions(columns)
	opts.Predictions = func() (*inference.PredictionTable, error) {
		return inference.LoadPredictionsCSV(strings.NewReader("student_id,GradientBoosting_Prediction,GradientBoosting_Probability\n42,1,0.73\n"))
	}
	logger := &testutil.Logger{}
	opts.Logger = logger

	mc := inference.LoadModelContext(opts)
	require.True(t, mc.Loaded())
	require.Equal(t, 1, logger.Count("warn"))
	assert.Contains(t, logger.Entries[0].Msg, `did you mean "GradientBoosting"?`)

	// falls through to live inference
	pred := inference.NewEngine(mc, nil).Predict(42, row("MD", 200, 0.8, 80, 3.3))
	assert.Equal(t, 0.5, pred.Probability)
}

func TestEngine_Predict(t *testing.T) {
	paths := testutil.WriteArtifacts(t)
	reg := prometheus.NewRegistry()
	engine := inference.NewEngine(inference.LoadModelContext(paths.ContextOptions(columns)), reg)

	t.Run("cache hit", func(t *testing.T) {
		got := engine.Predict(42, row("DDS", 0, 0, 0, 0)) // would fail live
		assert.Equal(t, inference.LabelOnTime, got.Prediction)
		assert.Equal(t, 0.73, got.Probability)
		assert.Equal(t, "On-time graduation likely", got.Text)
		assert.InDelta(t, 73.0, got.ConfidenceScore, 1e-9)
	})

	t.Run("cached late", func(t *testing.T) {
		got := engine.Predict(43, row("MD", 230, 1, 95, 3.9))
		assert.Equal(t, inference.LabelLate, got.Prediction)
		assert.Equal(t, 0.2, got.Probability)
		assert.Equal(t, inference.TextUnlikely, got.Text)
	})

	t.Run("live, likely", func(t *testing.T) {
		got := engine.Predict(7, row("MD", 230, 1, 95, 3.9))
		// z = 0.75 + 1 + 1.5 + 0.75
		want := 1 / (1 + math.Exp(-4))
		assert.Equal(t, inference.LabelOnTime, got.Prediction)
		assert.InDelta(t, want, got.Probability, 1e-9)
		assert.InDelta(t, want*100, got.ConfidenceScore, 1e-9)
	})

	t.Run("live, unlikely", func(t *testing.T) {
		got := engine.Predict(8, row("DO", 180, 0, math.NaN(), math.NaN()))
		assert.Equal(t, inference.LabelLate, got.Prediction)
		assert.Less(t, got.Probability, 0.5)
		assert.Equal(t, inference.TextUnlikely, got.Text)
	})

	t.Run("cache row without probability runs live", func(t *testing.T) {
		got := engine.Predict(44, row("MD", 200, 0.8, 80, 3.3))
		assert.Equal(t, inference.LabelOnTime, got.Prediction)
		assert.Equal(t, 0.5, got.Probability)
	})

	t.Run("live failure", func(t *testing.T) {
		got, err := engine.PredictWithError(9, row("DDS", 230, 1, 95, 3.9))
		require.Error(t, err)
		assert.Equal(t, inference.LabelUnavailable, got.Prediction)
		assert.Equal(t, 0.0, got.Probability)
		assert.Equal(t, 0.0, got.ConfidenceScore)
		assert.Equal(t, `Prediction failed: preprocessing: column "Program": found unknown category "DDS"`, got.Text)
	})

	expected := `
# HELP ontrack_predictions_total Total number of graduation predictions by source
# TYPE ontrack_predictions_total counter
ontrack_predictions_total{source="cache"} 2
ontrack_predictions_total{source="failed"} 1
ontrack_predictions_total{source="live"} 3
`
	assert.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected), "ontrack_predictions_total"))
}

func TestEngine_noModel(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine := inference.NewEngine(inference.UnavailableModelContext(nil), reg)

	got := engine.Predict(42, row("MD", 230, 1, 95, 3.9))
	assert.Equal(t, inference.Prediction{Prediction: -1, Probability: 0, Text: "ML model not available", ConfidenceScore: 0}, got)
	assert.False(t, got.Available())
	assert.Empty(t, engine.ModelName())

	n, err := promtest.GatherAndCount(reg, "ontrack_model_loaded")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
