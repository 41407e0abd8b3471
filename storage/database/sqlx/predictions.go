package sqlxrepos

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ontrack/core/inference"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewPredictionsLoader loads the bulk predictions out of a wide table laid out like the CSV export:
// a student ID column, then one "<model>_Prediction" / "<model>_Probability" column pair per model.
func NewPredictionsLoader(db *sqlx.DB, table string) inference.PredictionsLoader {
	return func() (*inference.PredictionTable, error) {
		return loadPredictions(db, table)
	}
}

func loadPredictions(db *sqlx.DB, table string) (*inference.PredictionTable, error) {
	if !tableNameRe.MatchString(table) {
		return nil, errors.Errorf("invalid bulk predictions table name %q", table)
	}

	rows, err := db.Queryx(fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return nil, errors.Wrap(err, "querying bulk predictions")
	}
	defer func() { _ = rows.Close() }()

	tbl := inference.NewPredictionTable()
	for rows.Next() {
		cells := make(map[string]interface{})
		if err = rows.MapScan(cells); err != nil {
			return nil, errors.Wrap(err, "scanning bulk predictions")
		}

		id, err := studentID(cells)
		if err != nil {
			return nil, err
		}
		for col, v := range cells {
			if isIDColumn(col) {
				continue
			}
			f, err := toFloat(v)
			if err != nil {
				return nil, errors.Wrapf(err, "bulk predictions of student %d, column %q", id, col)
			}
			tbl.Set(id, col, f)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading bulk predictions")
	}
	return tbl, nil
}

func isIDColumn(col string) bool {
	for _, c := range inference.StudentIDColumns {
		if col == c {
			return true
		}
	}
	return false
}

func studentID(cells map[string]interface{}) (int, error) {
	for _, col := range inference.StudentIDColumns {
		v, ok := cells[col]
		if !ok {
			continue
		}
		switch id := v.(type) {
		case int64:
			return int(id), nil
		case float64:
			if id != math.Trunc(id) {
				return 0, errors.Errorf("invalid student id %v", id)
			}
			return int(id), nil
		case []byte:
			return inference.ParseStudentID(string(id))
		case string:
			return inference.ParseStudentID(id)
		default:
			return 0, errors.Errorf("invalid student id %v", v)
		}
	}
	return 0, errors.New("bulk predictions: student_id column missing")
}

// toFloat converts a scanned cell. NULL is NaN, which the prediction table ignores.
func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, errors.Errorf("unexpected %T value", v)
	}
}
