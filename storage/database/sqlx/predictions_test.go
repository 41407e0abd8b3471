package sqlxrepos

import (
	"math"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ontrack/storage/database"
	"github.com/trezcool/ontrack/tests"
)

func TestPredictionsLoader(t *testing.T) {
	db := sqlx.NewDb(testutil.PrepareDB(t), database.EngineSQLite)
	for _, q := range []string{
		`ALTER TABLE bulk_predictions ADD COLUMN "Gradient Boosting_Prediction" INTEGER`,
		`ALTER TABLE bulk_predictions ADD COLUMN "Gradient Boosting_Probability" DOUBLE PRECISION`,
		`INSERT INTO bulk_predictions VALUES (42, 1, 0.73), (43, 0, 0.2), (44, 1, NULL)`,
	} {
		_, err := db.Exec(q)
		require.NoError(t, err, q)
	}

	table, err := NewPredictionsLoader(db, "bulk_predictions")()
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.True(t, table.HasModel(testutil.BestModel))

	pred, ok := table.Lookup(42, testutil.BestModel)
	require.True(t, ok)
	assert.Equal(t, 1, pred.Prediction)
	assert.Equal(t, 0.73, pred.Probability)

	pred, ok = table.Lookup(43, testutil.BestModel)
	require.True(t, ok)
	assert.Equal(t, 0, pred.Prediction)

	_, ok = table.Lookup(44, testutil.BestModel)
	assert.False(t, ok, "no probability")
}

func TestPredictionsLoader_errors(t *testing.T) {
	db := sqlx.NewDb(testutil.PrepareDB(t), database.EngineSQLite)

	_, err := NewPredictionsLoader(db, "bulk_predictions; DROP TABLE students")()
	assert.EqualError(t, err, `invalid bulk predictions table name "bulk_predictions; DROP TABLE students"`)

	_, err = NewPredictionsLoader(db, "nope")()
	assert.Error(t, err)

	_, err = NewPredictionsLoader(db, "students")()
	assert.NoError(t, err, "empty table")

	_, err = db.Exec("INSERT INTO students (id, name) VALUES (1, 'x')")
	require.NoError(t, err)
	_, err = NewPredictionsLoader(db, "students")()
	assert.EqualError(t, err, "bulk predictions: student_id column missing")
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    float64
		wantErr bool
	}{
		{in: int64(1), want: 1},
		{in: 0.5, want: 0.5},
		{in: []byte("0.25"), want: 0.25},
		{in: true, want: 1},
		{in: "x", wantErr: true},
		{in: struct{}{}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := toFloat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("toFloat(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("toFloat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	got, err := toFloat(nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got), "NULL is NaN")
}
