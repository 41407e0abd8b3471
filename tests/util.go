package testutil

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/trezcool/ontrack/core"
	"github.com/trezcool/ontrack/core/inference"
	"github.com/trezcool/ontrack/core/student"
	"github.com/trezcool/ontrack/storage/database"
)

func Float(f float64) *float64 { return &f }
func Int(i int) *int           { return &i }
func Bool(b bool) *bool        { return &b }
func Str(s string) *string     { return &s }

// Exam builds an exam record; pass and passed may be nil.
func Exam(name string, score float64, pass *float64, passed *bool) student.Exam {
	return student.Exam{ExamName: name, Score: score, PassScore: pass, PassOrFail: passed}
}

func Grade(subject string, earned, available float64) student.Grade {
	return student.Grade{ClassificationName: subject, PointsEarned: earned, PointsAvailable: available}
}

// StrongRecord is a student passing every exam well above the pass score, with 95% of the grade points.
func StrongRecord(id int) student.Record {
	return student.Record{
		Info: student.Info{ID: id, Name: "Ada Strong", Program: "MD", RosterYear: Int(2021), CumulativeGPA: Float(3.9)},
		Exams: []student.Exam{
			Exam("Step 1", 240, Float(196), Bool(true)),
			Exam("Step 2 CK", 250, Float(209), Bool(true)),
			Exam("Shelf Surgery", 85, Float(60), Bool(true)),
			Exam("Shelf Medicine", 88, Float(60), Bool(true)),
			Exam("Shelf Pediatrics", 80, Float(60), Bool(true)),
		},
		Grades: []student.Grade{
			Grade("Anatomy", 95, 100),
			Grade("Physiology", 19, 20),
			Grade("Immunology", 38, 40),
		},
	}
}

// WeakRecord is a student failing all four exams, without grades.
func WeakRecord(id int) student.Record {
	return student.Record{
		Info: student.Info{ID: id, Name: "Bob Weak", Program: "MD"},
		Exams: []student.Exam{
			Exam("Step 1", 180, Float(196), Bool(false)),
			Exam("Shelf Surgery", 50, Float(60), Bool(false)),
			Exam("Shelf Medicine", 55, Float(60), Bool(false)),
			Exam("Shelf Pediatrics", 58, Float(60), nil),
		},
		Grades: []student.Grade{},
	}
}

// Logger is a core.Logger recording what it is given.
type Logger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Count returns the number of entries logged at level.
func (l *Logger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, e := range l.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// =========================================================================
// Model artifacts

// BestModel is the best model name of the test evaluation metadata.
const BestModel = "Gradient Boosting"

type ArtifactPaths struct {
	Dir          string
	Preprocessor string
	Classifier   string
	Metadata     string
	Predictions  string
}

// Preprocessor is a fitted transform over a few aggregated features, the GPA and the program.
func Preprocessor() inference.Preprocessor {
	return inference.Preprocessor{
		SchemaVersion:   "1.0.0",
		ExcludedColumns: append([]string(nil), inference.ExcludedColumns...),
		Numeric: []inference.NumericColumn{
			{Name: "Score_mean", Impute: inference.ImputeMedian, FillValue: 200, Mean: 200, Scale: 20},
			{Name: "PassOrFail_mean", Impute: inference.ImputeMedian, FillValue: 0.8, Mean: 0.8, Scale: 0.2},
			{Name: "Overall_Percentage", Impute: inference.ImputeMedian, FillValue: 80, Mean: 80, Scale: 10},
			{Name: "CumulativeGPA", Impute: inference.ImputeMean, FillValue: 3.3, Mean: 3.3, Scale: 0.4},
		},
		Categorical: []inference.CategoricalColumn{
			{
				Name:          "Program",
				Impute:        inference.ImputeConstant,
				FillValue:     "MD",
				Categories:    []string{"DO", "MD"},
				HandleUnknown: inference.UnknownError,
			},
		},
	}
}

// Classifier is a logistic regression matching Preprocessor.
func Classifier() inference.Classifier {
	return inference.Classifier{
		SchemaVersion: "1.0.0",
		Kind:          inference.KindLogisticRegression,
		NumFeatures:   6,
		Coefficients:  []float64{0.5, 1, 1, 0.5, 0, 0},
		Intercept:     0,
	}
}

// Metadata is an evaluation report electing BestModel.
const Metadata = `{
  "best_model": "Gradient Boosting",
  "Gradient Boosting": {"accuracy": 0.87, "f1": 0.84},
  "Logistic Regression": {"accuracy": 0.81}
}`

// Predictions is a bulk predictions export holding student 42.
const Predictions = `student_id,Gradient Boosting_Prediction,Gradient Boosting_Probability,Logistic Regression_Prediction,Logistic Regression_Probability
42,1,0.73,0,0.41
43.0,0,0.2,,
44,1,,1,0.9
`

// WriteJSON marshals v into dir/name.
func WriteJSON(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("WriteJSON(%s): %v", name, err)
	}
	return WriteFile(t, dir, name, string(data))
}

func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
	return path
}

// WriteArtifacts writes a consistent set of model artifacts into a temp dir.
func WriteArtifacts(t *testing.T) ArtifactPaths {
	t.Helper()
	dir := t.TempDir()
	return ArtifactPaths{
		Dir:          dir,
		Preprocessor: WriteJSON(t, dir, "preprocessor.json", Preprocessor()),
		Classifier:   WriteJSON(t, dir, "classifier.json", Classifier()),
		Metadata:     WriteFile(t, dir, "evaluation.json", Metadata),
		Predictions:  WriteFile(t, dir, "bulk_predictions.csv", Predictions),
	}
}

// ContextOptions returns the model context options for the artifacts; the bulk predictions CSV is used as cache.
func (p ArtifactPaths) ContextOptions(columns []string) inference.ContextOptions {
	return inference.ContextOptions{
		PreprocessorPath: p.Preprocessor,
		ClassifierPath:   p.Classifier,
		MetadataPath:     p.Metadata,
		Predictions: func() (*inference.PredictionTable, error) {
			return inference.LoadPredictionsCSVFile(p.Predictions)
		},
		Columns: columns,
	}
}

// WriteSnapshot writes the records as a student snapshot JSON file.
func WriteSnapshot(t *testing.T, dir string, recs ...student.Record) string {
	t.Helper()
	return WriteJSON(t, dir, "students.json", recs)
}

// =========================================================================
// SQL fixtures

// SQLiteDSN returns a DSN to a fresh SQLite database file.
func SQLiteDSN(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", filepath.Join(t.TempDir(), "ontrack.db"))
}

// PrepareDB opens a migrated throwaway SQLite database, closed at the end of the test.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	conf := &core.Config{Database: core.DatabaseConfig{Engine: database.EngineSQLite, Name: SQLiteDSN(t)}}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, conf.Database.Engine); err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	return db
}

// InsertRecords stores the records in the SQL record store tables.
func InsertRecords(t *testing.T, db *sql.DB, recs ...student.Record) {
	t.Helper()
	for _, rec := range recs {
		info := rec.Info
		_, err := db.Exec(
			`INSERT INTO students (id, name, program, roster_year, cumulative_gpa, cumulative_science_gpa,
				graduation_year, graduation_length, graduation_status, on_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			info.ID, info.Name, nullString(info.Program), info.RosterYear, info.CumulativeGPA, info.CumulativeScienceGPA,
			info.GraduationYear, info.GraduationLength, info.GraduationStatus, info.OnTime,
		)
		if err != nil {
			t.Fatalf("InsertRecords(%d): %v", info.ID, err)
		}
		for _, e := range rec.Exams {
			_, err = db.Exec(
				"INSERT INTO exam_results (student_id, exam_name, score, pass_score, pass_or_fail) VALUES (?, ?, ?, ?, ?)",
				info.ID, e.ExamName, e.Score, e.PassScore, e.PassOrFail,
			)
			if err != nil {
				t.Fatalf("InsertRecords(%d): %v", info.ID, err)
			}
		}
		for _, g := range rec.Grades {
			_, err = db.Exec(
				"INSERT INTO grade_records (student_id, classification_name, points_earned, points_available, class_id) VALUES (?, ?, ?, ?, ?)",
				info.ID, g.ClassificationName, g.PointsEarned, g.PointsAvailable, g.ClassID,
			)
			if err != nil {
				t.Fatalf("InsertRecords(%d): %v", info.ID, err)
			}
		}
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
