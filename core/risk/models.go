package risk

import (
	"github.com/trezcool/ontrack/core/inference"
)

// Unit types
const (
	UnitExam   = "Exam"
	UnitCourse = "Course"
)

// Risk levels
const (
	LevelLow    = "Low"
	LevelMedium = "Medium"
	LevelHigh   = "High"
)

// Record sources
const (
	SourceSnapshot = "snapshot"
	SourceLive     = "live"
)

type (
	StrengthWeakness struct {
		Subject          string  `json:"subject"`
		UnitType         string  `json:"unit_type"`
		PerformanceScore float64 `json:"performance_score"`
	}

	Details struct {
		StudentID       int      `json:"student_id"`
		StudentName     string   `json:"student_name"`
		ExamCount       int      `json:"exam_count"`
		ExamsPassed     int      `json:"exams_passed"`
		GradeCount      int      `json:"grade_count"`
		PointsEarned    float64  `json:"points_earned"`
		PointsAvailable float64  `json:"points_available"`
		ModelName       string   `json:"model_name,omitempty"`
		ModelAccuracy   *float64 `json:"model_accuracy,omitempty"`
		Source          string   `json:"source"`
	}

	// Assessment is the on-time graduation risk of a student.
	Assessment struct {
		RiskScore    float64              `json:"risk_score"`
		RiskLevel    string               `json:"risk_level"`
		Strengths    []StrengthWeakness   `json:"strengths"`
		Weaknesses   []StrengthWeakness   `json:"weaknesses"`
		MLPrediction inference.Prediction `json:"ml_prediction"`
		Details      Details              `json:"details"`
	}
)
