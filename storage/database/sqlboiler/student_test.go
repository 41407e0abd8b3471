package boiledrepos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ontrack/core/student"
	"github.com/trezcool/ontrack/storage/database"
	"github.com/trezcool/ontrack/tests"
)

func setup(t *testing.T) *studentRepository {
	db := testutil.PrepareDB(t)

	strong := testutil.StrongRecord(1)
	strong.Info.GraduationYear = testutil.Int(2025)
	strong.Info.GraduationStatus = testutil.Str("Graduated")
	strong.Info.OnTime = testutil.Bool(true)
	testutil.InsertRecords(t, db, strong, testutil.WeakRecord(2), student.Record{Info: student.Info{ID: 3}})

	return NewStudentRepository(db, database.EngineSQLite)
}

func TestStudentRepository_FetchStudentInfo(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	infos, err := repo.FetchStudentInfo(ctx, 1)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, student.Info{
		ID:               1,
		Name:             "Ada Strong",
		Program:          "MD",
		RosterYear:       testutil.Int(2021),
		CumulativeGPA:    testutil.Float(3.9),
		GraduationYear:   testutil.Int(2025),
		GraduationStatus: testutil.Str("Graduated"),
		OnTime:           testutil.Bool(true),
	}, infos[0])

	infos, err = repo.FetchStudentInfo(ctx, 3)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Empty(t, infos[0].Program)
	assert.Nil(t, infos[0].CumulativeGPA)

	infos, err = repo.FetchStudentInfo(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestStudentRepository_FetchExamResults(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	exams, err := repo.FetchExamResults(ctx, 2)
	require.NoError(t, err)
	require.Len(t, exams, 4)

	byName := make(map[string]student.Exam, len(exams))
	for _, e := range exams {
		byName[e.ExamName] = e
	}
	step1 := byName["Step 1"]
	assert.Equal(t, 180.0, step1.Score)
	assert.Equal(t, testutil.Float(196), step1.PassScore)
	assert.Equal(t, testutil.Bool(false), step1.PassOrFail)
	assert.Nil(t, byName["Shelf Pediatrics"].PassOrFail)

	exams, err = repo.FetchExamResults(ctx, 3)
	require.NoError(t, err)
	assert.NotNil(t, exams)
	assert.Empty(t, exams)
}

func TestStudentRepository_FetchGradeRecords(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	grades, err := repo.FetchGradeRecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, grades, 3)
	// ordered by subject
	assert.Equal(t, "Anatomy", grades[0].ClassificationName)
	assert.Equal(t, "Immunology", grades[1].ClassificationName)
	assert.Equal(t, 38.0, grades[1].PointsEarned)
	assert.Equal(t, 40.0, grades[1].PointsAvailable)
	assert.True(t, grades[1].DateTaught.IsZero())

	grades, err = repo.FetchGradeRecords(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, grades)
}

func TestStudentRepository_storeFailure(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := NewStudentRepository(db, database.EngineSQLite)
	require.NoError(t, db.Close())

	_, err := repo.FetchStudentInfo(context.Background(), 1)
	assert.Error(t, err)
}
