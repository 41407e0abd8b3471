package inference

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// ExcludedColumns are the target-leaking columns dropped from every row before preprocessing.
// The offline training job drops the same list; it is recorded in the preprocessor artifact and checked at load.
var ExcludedColumns = []string{
	"StudentID",
	"GraduationYear",
	"GraduationLength",
	"GraduationStatus",
	"GraduationOutcome",
	"OnTime",
}

// Imputation strategies
const (
	ImputeMedian   = "median"
	ImputeMean     = "mean"
	ImputeConstant = "constant"
	ImputeFrequent = "most_frequent"
)

// Unknown category handling
const (
	UnknownError  = "error"
	UnknownIgnore = "ignore"
)

// Row is a single input row keyed by column name.
// Numeric columns hold float64 (NaN when unknown), categorical columns hold string ("" when unknown).
type Row map[string]interface{}

type (
	// NumericColumn is a fitted imputer + standard scaler for one numeric column.
	NumericColumn struct {
		Name      string  `json:"name"`
		Impute    string  `json:"impute"`
		FillValue float64 `json:"fill_value"` // the fitted statistic, or the constant
		Mean      float64 `json:"mean"`
		Scale     float64 `json:"scale"`
	}

	// CategoricalColumn is a fitted imputer + one-hot encoder for one categorical column.
	CategoricalColumn struct {
		Name          string   `json:"name"`
		Impute        string   `json:"impute"`
		FillValue     string   `json:"fill_value"`
		Categories    []string `json:"categories"`
		HandleUnknown string   `json:"handle_unknown"`
	}

	// Preprocessor is the fitted column transform.
	// Its output holds the scaled numeric columns followed by the one-hot encoded categorical columns.
	Preprocessor struct {
		SchemaVersion   string              `json:"schema_version"`
		ExcludedColumns []string            `json:"excluded_columns"`
		Numeric         []NumericColumn     `json:"numeric"`
		Categorical     []CategoricalColumn `json:"categorical"`
	}
)

// Width is the length of the vectors produced by Transform.
func (p *Preprocessor) Width() int {
	w := len(p.Numeric)
	for _, c := range p.Categorical {
		w += len(c.Categories)
	}
	return w
}

// Columns lists the input columns consumed by the transform.
func (p *Preprocessor) Columns() []string {
	cols := make([]string, 0, len(p.Numeric)+len(p.Categorical))
	for _, c := range p.Numeric {
		cols = append(cols, c.Name)
	}
	for _, c := range p.Categorical {
		cols = append(cols, c.Name)
	}
	return cols
}

// check validates the fitted transform against the runtime's exclusion list and available columns.
// available may be nil to skip the column check.
func (p *Preprocessor) check(available []string) error {
	if !sameSet(p.ExcludedColumns, ExcludedColumns) {
		return errors.Errorf(
			"excluded columns mismatch: artifact has [%s], runtime drops [%s]",
			strings.Join(p.ExcludedColumns, ", "), strings.Join(ExcludedColumns, ", "),
		)
	}

	excluded := toSet(ExcludedColumns)
	known := toSet(available)
	seen := make(map[string]bool, len(p.Numeric)+len(p.Categorical))
	for _, name := range p.Columns() {
		if seen[name] {
			return errors.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		if excluded[name] {
			return errors.Errorf("column %q is excluded as target-leaking", name)
		}
		if available != nil && !known[name] {
			return errors.Errorf("column %q is not produced at runtime", name)
		}
	}

	for _, c := range p.Numeric {
		if c.Scale == 0 || math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) {
			return errors.Errorf("column %q: invalid scale %v", c.Name, c.Scale)
		}
	}
	for _, c := range p.Categorical {
		if len(c.Categories) == 0 {
			return errors.Errorf("column %q: no categories", c.Name)
		}
	}
	return nil
}

// Transform turns a row into the classifier's input vector.
// Leaking columns are dropped first; unseen categories fail when the column handles unknowns with "error".
func (p *Preprocessor) Transform(row Row) ([]float64, error) {
	row = dropColumns(row, ExcludedColumns)
	out := make([]float64, 0, p.Width())

	for _, c := range p.Numeric {
		v, err := numericValue(row, c.Name)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) {
			v = c.FillValue
		}
		if math.IsInf(v, 0) {
			return nil, errors.Errorf("column %q: infinite value", c.Name)
		}
		out = append(out, (v-c.Mean)/c.Scale)
	}

	for _, c := range p.Categorical {
		v, err := categoricalValue(row, c.Name)
		if err != nil {
			return nil, err
		}
		if v == "" {
			v = c.FillValue
		}
		hot := -1
		for i, cat := range c.Categories {
			if cat == v {
				hot = i
				break
			}
		}
		if hot < 0 && c.HandleUnknown != UnknownIgnore {
			return nil, errors.Errorf("column %q: found unknown category %q", c.Name, v)
		}
		for i := range c.Categories {
			if i == hot {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out, nil
}

func numericValue(row Row, name string) (float64, error) {
	raw, ok := row[name]
	if !ok {
		return 0, errors.Errorf("column %q missing", name)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case nil:
		return math.NaN(), nil
	default:
		return 0, errors.Errorf("column %q: expected a number, got %T", name, raw)
	}
}

func categoricalValue(row Row, name string) (string, error) {
	raw, ok := row[name]
	if !ok {
		return "", errors.Errorf("column %q missing", name)
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	case float64:
		if math.IsNaN(v) {
			return "", nil
		}
		return fmt.Sprint(v), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func dropColumns(row Row, cols []string) Row {
	drop := toSet(cols)
	kept := make(Row, len(row))
	for k, v := range row {
		if !drop[k] {
			kept[k] = v
		}
	}
	return kept
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

func sameSet(a, b []string) bool {
	sa, sb := toSet(a), toSet(b)
	if len(sa) != len(sb) {
		return false
	}
	for k := range sa {
		if !sb[k] {
			return false
		}
	}
	return true
}
