package boiledrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/ontrack/core"
	"github.com/trezcool/ontrack/core/student"
)

const (
	studentInfoQuery = `
		SELECT id, name, program, roster_year, cumulative_gpa, cumulative_science_gpa,
			graduation_year, graduation_length, graduation_status, on_time
		FROM students
		WHERE id = ?`

	examResultsQuery = `
		SELECT exam_name, score, pass_score, pass_or_fail
		FROM exam_results
		WHERE student_id = ?
		ORDER BY taken_at, exam_name`

	gradeRecordsQuery = `
		SELECT classification_name, points_earned, points_available, class_id, date_taught
		FROM grade_records
		WHERE student_id = ?
		ORDER BY classification_name, date_taught`
)

type (
	infoRow struct {
		ID                   int          `boil:"id"`
		Name                 null.String  `boil:"name"`
		Program              null.String  `boil:"program"`
		RosterYear           null.Int     `boil:"roster_year"`
		CumulativeGPA        null.Float64 `boil:"cumulative_gpa"`
		CumulativeScienceGPA null.Float64 `boil:"cumulative_science_gpa"`
		GraduationYear       null.Int     `boil:"graduation_year"`
		GraduationLength     null.Int     `boil:"graduation_length"`
		GraduationStatus     null.String  `boil:"graduation_status"`
		OnTime               null.Bool    `boil:"on_time"`
	}

	examRow struct {
		ExamName   string       `boil:"exam_name"`
		Score      float64      `boil:"score"`
		PassScore  null.Float64 `boil:"pass_score"`
		PassOrFail null.Bool    `boil:"pass_or_fail"`
	}

	gradeRow struct {
		ClassificationName string    `boil:"classification_name"`
		PointsEarned       float64   `boil:"points_earned"`
		PointsAvailable    float64   `boil:"points_available"`
		ClassID            null.Int  `boil:"class_id"`
		DateTaught         null.Time `boil:"date_taught"`
	}
)

type studentRepository struct {
	exec     core.DBExecutor
	bindType int
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

// NewStudentRepository returns the SQL record store. driver is the database/sql driver name,
// used to bind query placeholders.
func NewStudentRepository(exec core.DBExecutor, driver string) *studentRepository {
	return &studentRepository{exec: exec, bindType: sqlx.BindType(driver)}
}

func (repo studentRepository) raw(query string, args ...interface{}) *queries.Query {
	return queries.Raw(sqlx.Rebind(repo.bindType, query), args...)
}

func (repo studentRepository) unboilInfo(row infoRow) student.Info {
	return student.Info{
		ID:                   row.ID,
		Name:                 row.Name.String,
		Program:              row.Program.String,
		RosterYear:           row.RosterYear.Ptr(),
		CumulativeGPA:        row.CumulativeGPA.Ptr(),
		CumulativeScienceGPA: row.CumulativeScienceGPA.Ptr(),
		GraduationYear:       row.GraduationYear.Ptr(),
		GraduationLength:     row.GraduationLength.Ptr(),
		GraduationStatus:     row.GraduationStatus.Ptr(),
		OnTime:               row.OnTime.Ptr(),
	}
}

func (repo studentRepository) FetchStudentInfo(ctx context.Context, studentID int) ([]student.Info, error) {
	var rows []infoRow
	if err := repo.raw(studentInfoQuery, studentID).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying student info")
	}

	infos := make([]student.Info, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, repo.unboilInfo(row))
	}
	return infos, nil
}

func (repo studentRepository) FetchExamResults(ctx context.Context, studentID int) ([]student.Exam, error) {
	var rows []examRow
	if err := repo.raw(examResultsQuery, studentID).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying exam results")
	}

	exams := make([]student.Exam, 0, len(rows))
	for _, row := range rows {
		exams = append(exams, student.Exam{
			ExamName:   row.ExamName,
			Score:      row.Score,
			PassScore:  row.PassScore.Ptr(),
			PassOrFail: row.PassOrFail.Ptr(),
		})
	}
	return exams, nil
}

func (repo studentRepository) FetchGradeRecords(ctx context.Context, studentID int) ([]student.Grade, error) {
	var rows []gradeRow
	if err := repo.raw(gradeRecordsQuery, studentID).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying grade records")
	}

	grades := make([]student.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, student.Grade{
			ClassificationName: row.ClassificationName,
			PointsEarned:       row.PointsEarned,
			PointsAvailable:    row.PointsAvailable,
			ClassID:            row.ClassID.Int,
			DateTaught:         row.DateTaught.Time,
		})
	}
	return grades, nil
}
