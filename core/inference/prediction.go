package inference

import (
	"math"
)

// Prediction labels
const (
	LabelUnavailable = -1
	LabelLate        = 0
	LabelOnTime      = 1
)

const (
	TextLikely       = "On-time graduation likely"
	TextUnlikely     = "On-time graduation unlikely"
	TextNoModel      = "ML model not available"
	textFailedPrefix = "Prediction failed: "

	decisionThreshold = 0.5
)

// Prediction is the classifier verdict for one student.
// Probability is the probability of graduating on time.
type Prediction struct {
	Prediction      int     `json:"prediction"`
	Probability     float64 `json:"probability"`
	Text            string  `json:"prediction_text"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// Available reports whether the prediction comes from a model (cached or live).
func (p Prediction) Available() bool {
	return p.Prediction != LabelUnavailable
}

func NoModelPrediction() Prediction {
	return Prediction{Prediction: LabelUnavailable, Text: TextNoModel}
}

func failedPrediction(err error) Prediction {
	return Prediction{Prediction: LabelUnavailable, Text: textFailedPrefix + err.Error()}
}

func newPrediction(label int, probability float64) Prediction {
	text := TextUnlikely
	if label == LabelOnTime {
		text = TextLikely
	}
	return Prediction{
		Prediction:      label,
		Probability:     probability,
		Text:            text,
		ConfidenceScore: probability * 100,
	}
}

// labelFor thresholds a live probability into a label.
func labelFor(probability float64) int {
	if probability >= decisionThreshold {
		return LabelOnTime
	}
	return LabelLate
}

func validProbability(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 1
}
