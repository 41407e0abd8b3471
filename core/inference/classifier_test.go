package inference

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stump splits on feature 0 at 0.5.
func stump(left, right float64) Tree {
	return Tree{
		Feature:   []int{0, -2, -2},
		Threshold: []float64{0.5, -2, -2},
		Left:      []int{1, -1, -1},
		Right:     []int{2, -1, -1},
		Value:     []float64{0, left, right},
	}
}

func TestClassifier_PredictProba(t *testing.T) {
	tests := []struct {
		name string
		clf  Classifier
		x    []float64
		want float64
	}{
		{
			name: "logistic regression at the origin",
			clf:  Classifier{Kind: KindLogisticRegression, NumFeatures: 2, Coefficients: []float64{1, -1}},
			x:    []float64{0, 0},
			want: 0.5,
		},
		{
			name: "logistic regression",
			clf:  Classifier{Kind: KindLogisticRegression, NumFeatures: 2, Coefficients: []float64{2, -1}, Intercept: 0.5},
			x:    []float64{1, 0.5},
			want: 1 / (1 + math.Exp(-2)),
		},
		{
			name: "gradient boosting, left leaves",
			clf: Classifier{
				Kind: KindGradientBoosting, NumFeatures: 1, Init: 0.2, LearningRate: 0.1,
				Trees: []Tree{stump(-1, 1), stump(-2, 2)},
			},
			x:    []float64{0},
			want: 1 / (1 + math.Exp(-(0.2 - 0.3))),
		},
		{
			name: "gradient boosting, right leaves",
			clf: Classifier{
				Kind: KindGradientBoosting, NumFeatures: 1, Init: 0.2, LearningRate: 0.1,
				Trees: []Tree{stump(-1, 1), stump(-2, 2)},
			},
			x:    []float64{0.7},
			want: 1 / (1 + math.Exp(-(0.2 + 0.3))),
		},
		{
			name: "random forest",
			clf: Classifier{
				Kind: KindRandomForest, NumFeatures: 1,
				Trees: []Tree{stump(0.2, 0.9), stump(0.4, 0.7), stump(0.0, 1.0)},
			},
			x:    []float64{1},
			want: (0.9 + 0.7 + 1.0) / 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.clf.check())
			got, err := tt.clf.PredictProba(tt.x)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestClassifier_PredictProba_errors(t *testing.T) {
	clf := Classifier{Kind: KindLogisticRegression, NumFeatures: 2, Coefficients: []float64{1, 1}}

	_, err := clf.PredictProba([]float64{1})
	assert.EqualError(t, err, "expected 2 features, got 1")

	_, err = clf.PredictProba([]float64{1, math.NaN()})
	assert.EqualError(t, err, "feature 1 is not a finite number")

	rf := Classifier{Kind: KindRandomForest, NumFeatures: 1, Trees: []Tree{stump(0.2, 1.5)}}
	_, err = rf.PredictProba([]float64{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid probability")
}

func TestClassifier_check(t *testing.T) {
	cyclic := stump(0, 1)
	cyclic.Left[0] = 0

	badFeature := stump(0, 1)
	badFeature.Feature[0] = 3

	short := stump(0, 1)
	short.Threshold = short.Threshold[:2]

	tests := []struct {
		name    string
		clf     Classifier
		wantErr string
	}{
		{name: "unknown kind", clf: Classifier{Kind: "svm", NumFeatures: 1}, wantErr: `unsupported classifier kind "svm"`},
		{name: "no features", clf: Classifier{Kind: KindLogisticRegression}, wantErr: "n_features must be positive"},
		{name: "coefficients count", clf: Classifier{Kind: KindLogisticRegression, NumFeatures: 2, Coefficients: []float64{1}}, wantErr: "1 coefficients for 2 features"},
		{name: "no trees", clf: Classifier{Kind: KindGradientBoosting, NumFeatures: 1}, wantErr: "gradient_boosting without trees"},
		{name: "cycle", clf: Classifier{Kind: KindRandomForest, NumFeatures: 1, Trees: []Tree{cyclic}}, wantErr: "tree 0: node 0: invalid children"},
		{name: "feature range", clf: Classifier{Kind: KindRandomForest, NumFeatures: 1, Trees: []Tree{badFeature}}, wantErr: "tree 0: node 0: feature 3 out of range"},
		{name: "ragged arrays", clf: Classifier{Kind: KindRandomForest, NumFeatures: 1, Trees: []Tree{short}}, wantErr: "tree 0: tree arrays differ in length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.clf.check()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("check() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
