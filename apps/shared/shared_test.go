package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ontrack/core"
	"github.com/trezcool/ontrack/tests"
)

func TestModelContextOptions(t *testing.T) {
	conf := &core.Config{
		WorkDir: "/srv/ontrack",
		ML: core.MLConfig{
			PreprocessorPath: "artifacts/preprocessor.json",
			ClassifierPath:   "/models/classifier.json",
			MetadataPath:     "artifacts/evaluation.json",
		},
	}

	opts := ModelContextOptions(conf, nil, nil)
	assert.Equal(t, "/srv/ontrack/artifacts/preprocessor.json", opts.PreprocessorPath)
	assert.Equal(t, "/models/classifier.json", opts.ClassifierPath)
	assert.Nil(t, opts.Predictions)
	assert.Contains(t, opts.Columns, "Score_mean")

	paths := testutil.WriteArtifacts(t)
	conf.ML.PredictionsPath = paths.Predictions
	opts = ModelContextOptions(conf, nil, nil)
	require.NotNil(t, opts.Predictions)
	table, err := opts.Predictions()
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	db := testutil.PrepareDB(t)
	conf.Database.Engine = "sqlite"
	conf.ML.PredictionsTable = "bulk_predictions"
	opts = ModelContextOptions(conf, db, nil)
	table, err = opts.Predictions()
	require.NoError(t, err)
	assert.Zero(t, table.Len())
}

func TestNewValidator(t *testing.T) {
	validate := NewValidator(NewTranslator())

	assert.NoError(t, validate.Struct(core.RiskConfig{
		ExamStrengthPerformance:    110,
		SubjectStrengthPerformance: 85,
		SubjectWeaknessPerformance: 70,
		HighRiskBelow:              50,
		LowRiskFrom:                75,
	}))
	assert.Error(t, validate.Struct(core.RiskConfig{
		ExamStrengthPerformance:    110,
		SubjectStrengthPerformance: 60,
		SubjectWeaknessPerformance: 70,
		HighRiskBelow:              50,
		LowRiskFrom:                75,
	}), "strength below weakness")
}
