package inference

import (
	"math"

	"github.com/pkg/errors"
)

// Classifier kinds
const (
	KindLogisticRegression = "logistic_regression"
	KindGradientBoosting   = "gradient_boosting"
	KindRandomForest       = "random_forest"
)

const leaf = -1

type (
	// Tree is a fitted binary decision tree in flat array form.
	// Node i sends x to Left[i] when x[Feature[i]] <= Threshold[i], else to Right[i].
	// Leaves have Left[i] == Right[i] == -1 and carry Value[i].
	Tree struct {
		Feature   []int     `json:"feature"`
		Threshold []float64 `json:"threshold"`
		Left      []int     `json:"left"`
		Right     []int     `json:"right"`
		Value     []float64 `json:"value"`
	}

	// Classifier is the serialized binary classifier.
	// Which fields are used depends on Kind.
	Classifier struct {
		SchemaVersion string `json:"schema_version"`
		Kind          string `json:"kind"`
		NumFeatures   int    `json:"n_features"`

		// logistic_regression
		Coefficients []float64 `json:"coefficients,omitempty"`
		Intercept    float64   `json:"intercept,omitempty"`

		// gradient_boosting: sigmoid(init + learning_rate * sum(trees))
		Init         float64 `json:"init,omitempty"`
		LearningRate float64 `json:"learning_rate,omitempty"`

		// gradient_boosting & random_forest; random forest leaves hold the on-time probability
		Trees []Tree `json:"trees,omitempty"`
	}
)

func (t *Tree) check(numFeatures int) error {
	n := len(t.Value)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.Feature) != n || len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n {
		return errors.New("tree arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if t.Left[i] == leaf && t.Right[i] == leaf {
			continue
		}
		// children always come after their parent, which rules out cycles
		if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
			return errors.Errorf("node %d: invalid children", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= numFeatures {
			return errors.Errorf("node %d: feature %d out of range", i, t.Feature[i])
		}
	}
	return nil
}

func (t *Tree) eval(x []float64) float64 {
	node := 0
	for t.Left[node] != leaf {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node]
}

func (c *Classifier) check() error {
	if c.NumFeatures <= 0 {
		return errors.New("n_features must be positive")
	}
	switch c.Kind {
	case KindLogisticRegression:
		if len(c.Coefficients) != c.NumFeatures {
			return errors.Errorf("%d coefficients for %d features", len(c.Coefficients), c.NumFeatures)
		}
	case KindGradientBoosting, KindRandomForest:
		if len(c.Trees) == 0 {
			return errors.Errorf("%s without trees", c.Kind)
		}
		for i := range c.Trees {
			if err := c.Trees[i].check(c.NumFeatures); err != nil {
				return errors.Wrapf(err, "tree %d", i)
			}
		}
	default:
		return errors.Errorf("unsupported classifier kind %q", c.Kind)
	}
	return nil
}

// PredictProba returns the probability of on-time graduation for one transformed row.
func (c *Classifier) PredictProba(x []float64) (float64, error) {
	if len(x) != c.NumFeatures {
		return 0, errors.Errorf("expected %d features, got %d", c.NumFeatures, len(x))
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, errors.Errorf("feature %d is not a finite number", i)
		}
	}

	var p float64
	switch c.Kind {
	case KindLogisticRegression:
		z := c.Intercept
		for i, w := range c.Coefficients {
			z += w * x[i]
		}
		p = sigmoid(z)
	case KindGradientBoosting:
		raw := c.Init
		for i := range c.Trees {
			raw += c.LearningRate * c.Trees[i].eval(x)
		}
		p = sigmoid(raw)
	case KindRandomForest:
		var sum float64
		for i := range c.Trees {
			sum += c.Trees[i].eval(x)
		}
		p = sum / float64(len(c.Trees))
	default:
		return 0, errors.Errorf("unsupported classifier kind %q", c.Kind)
	}

	if !validProbability(p) {
		return 0, errors.Errorf("classifier produced an invalid probability %v", p)
	}
	return p, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
