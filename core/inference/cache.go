package inference

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	predictionSuffix  = "_Prediction"
	probabilitySuffix = "_Probability"
)

// StudentIDColumns are the accepted names of the key column of a bulk predictions export.
var StudentIDColumns = []string{"student_id", "StudentID"}

// PredictionColumn & ProbabilityColumn name the bulk prediction columns of a model.
func PredictionColumn(model string) string  { return model + predictionSuffix }
func ProbabilityColumn(model string) string { return model + probabilitySuffix }

// PredictionTable is the bulk predictions export of the offline job, keyed by student id.
// It is filled once by a loader and read-only afterwards.
type PredictionTable struct {
	rows    map[int]map[string]float64
	columns map[string]bool
}

func NewPredictionTable() *PredictionTable {
	return &PredictionTable{
		rows:    make(map[int]map[string]float64),
		columns: make(map[string]bool),
	}
}

// Set records a cell. NaN marks an empty cell and is ignored.
func (t *PredictionTable) Set(studentID int, column string, value float64) {
	t.columns[column] = true
	if math.IsNaN(value) {
		return
	}
	row, ok := t.rows[studentID]
	if !ok {
		row = make(map[string]float64)
		t.rows[studentID] = row
	}
	row[column] = value
}

// Len is the number of students with at least one cached value.
func (t *PredictionTable) Len() int {
	return len(t.rows)
}

// HasModel reports whether both columns of the model are present.
func (t *PredictionTable) HasModel(model string) bool {
	return t.columns[PredictionColumn(model)] && t.columns[ProbabilityColumn(model)]
}

// Models lists the models having a prediction column, sorted.
func (t *PredictionTable) Models() []string {
	models := make([]string, 0)
	for col := range t.columns {
		if strings.HasSuffix(col, predictionSuffix) {
			models = append(models, strings.TrimSuffix(col, predictionSuffix))
		}
	}
	sort.Strings(models)
	return models
}

// Lookup returns the cached prediction of the model for the student.
// Missing rows, missing cells and out-of-range values are misses.
func (t *PredictionTable) Lookup(studentID int, model string) (Prediction, bool) {
	row, ok := t.rows[studentID]
	if !ok {
		return Prediction{}, false
	}
	label, okL := row[PredictionColumn(model)]
	prob, okP := row[ProbabilityColumn(model)]
	if !okL || !okP || !validProbability(prob) {
		return Prediction{}, false
	}
	switch label {
	case LabelLate:
		return newPrediction(LabelLate, prob), true
	case LabelOnTime:
		return newPrediction(LabelOnTime, prob), true
	default:
		return Prediction{}, false
	}
}

// LoadPredictionsCSVFile loads a bulk predictions CSV export.
func LoadPredictionsCSVFile(path string) (*PredictionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening bulk predictions")
	}
	defer func() { _ = f.Close() }()
	return LoadPredictionsCSV(f)
}

// LoadPredictionsCSV reads a header row naming student_id and the per-model columns, then one row per student.
func LoadPredictionsCSV(r io.Reader) (*PredictionTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading bulk predictions header")
	}
	idCol := -1
	for i, name := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		for _, idName := range StudentIDColumns {
			if header[i] == idName {
				idCol = i
			}
		}
	}
	if idCol < 0 {
		return nil, errors.New("bulk predictions: student_id column missing")
	}

	table := NewPredictionTable()
	for i, name := range header {
		if i != idCol {
			table.columns[name] = true
		}
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading bulk predictions line %d", line)
		}

		id, err := ParseStudentID(record[idCol])
		if err != nil {
			return nil, errors.Wrapf(err, "bulk predictions line %d", line)
		}
		for i, cell := range record {
			if i == idCol {
				continue
			}
			v, err := parseCell(cell)
			if err != nil {
				return nil, errors.Wrapf(err, "bulk predictions line %d, column %q", line, header[i])
			}
			table.Set(id, header[i], v)
		}
	}
	return table, nil
}

// ParseStudentID accepts integral ids, including the "42.0" form written by dataframe exports.
func ParseStudentID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, errors.Errorf("invalid student id %q", s)
	}
	return int(f), nil
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none":
		return math.NaN(), nil
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
