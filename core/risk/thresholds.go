package risk

import (
	"github.com/trezcool/ontrack/core"
)

// Thresholds are the tuned cut-offs of the strength/weakness classifier and the risk levels.
type Thresholds struct {
	ExamStrength    float64 // passed exams at or above this % of the pass score are strengths
	SubjectStrength float64 // subjects at or above this % are strengths
	SubjectWeakness float64 // subjects below this % are weaknesses
	HighRiskBelow   float64
	LowRiskFrom     float64
}

// DefaultThresholds returns the tuned cut-offs: 110% for exams, 85/70% for subjects, 50/75 for risk levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExamStrength:    110,
		SubjectStrength: 85,
		SubjectWeakness: 70,
		HighRiskBelow:   50,
		LowRiskFrom:     75,
	}
}

// NewThresholds maps the validated risk configuration.
func NewThresholds(conf core.RiskConfig) Thresholds {
	return Thresholds{
		ExamStrength:    conf.ExamStrengthPerformance,
		SubjectStrength: conf.SubjectStrengthPerformance,
		SubjectWeakness: conf.SubjectWeaknessPerformance,
		HighRiskBelow:   conf.HighRiskBelow,
		LowRiskFrom:     conf.LowRiskFrom,
	}
}
