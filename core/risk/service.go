package risk

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/ontrack/core"
	"github.com/trezcool/ontrack/core/inference"
	"github.com/trezcool/ontrack/core/student"
)

type (
	// Predictor serves model predictions; see inference.Engine.
	Predictor interface {
		PredictWithError(studentID int, row inference.Row) (inference.Prediction, error)
		ModelName() string
		Accuracy() (float64, bool)
	}

	Service interface {
		// GetRiskAssessment scores the on-time graduation risk of the student.
		// It fails with ErrNotFound when the student is unknown, or a wrapped
		// error when the record store fails.
		GetRiskAssessment(ctx context.Context, id int) (Assessment, error)
		// GetGraduationPrediction only returns the model prediction of the student.
		GetGraduationPrediction(ctx context.Context, id int) (inference.Prediction, error)
	}

	ServiceDeps struct {
		Snapshot   student.Snapshot   // optional
		Repo       student.Repository // optional
		Predictor  Predictor
		Thresholds Thresholds
		Logger     core.Logger
		Registerer prometheus.Registerer // optional
	}

	service struct {
		snap      student.Snapshot
		repo      student.Repository
		predictor Predictor
		th        Thresholds
		logger    core.Logger

		assessments *prometheus.CounterVec
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(deps ServiceDeps) Service {
	if deps.Thresholds == (Thresholds{}) {
		deps.Thresholds = DefaultThresholds()
	}
	svc := &service{
		snap:      deps.Snapshot,
		repo:      deps.Repo,
		predictor: deps.Predictor,
		th:        deps.Thresholds,
		logger:    deps.Logger,
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ontrack_risk_assessments_total",
			Help: "Total number of risk assessments by risk level",
		}, []string{"level"}),
	}
	if deps.Registerer != nil {
		deps.Registerer.MustRegister(svc.assessments)
	}
	return svc
}

// resolve finds the record of the student in the snapshot, else assembles it from the record store.
func (svc *service) resolve(ctx context.Context, id int) (student.Record, string, error) {
	if svc.snap != nil {
		if rec, ok := svc.snap.Lookup(id); ok {
			return normalize(rec, id), SourceSnapshot, nil
		}
	}
	if svc.repo == nil {
		return student.Record{}, "", ErrNotFound
	}

	infos, err := svc.repo.FetchStudentInfo(ctx, id)
	if err != nil {
		return student.Record{}, "", errors.Wrap(err, "fetching student info")
	}
	if len(infos) == 0 {
		return student.Record{}, "", ErrNotFound
	}
	exams, err := svc.repo.FetchExamResults(ctx, id)
	if err != nil {
		return student.Record{}, "", errors.Wrap(err, "fetching exam results")
	}
	grades, err := svc.repo.FetchGradeRecords(ctx, id)
	if err != nil {
		return student.Record{}, "", errors.Wrap(err, "fetching grade records")
	}
	return normalize(student.Record{Info: infos[0], Exams: exams, Grades: grades}, id), SourceLive, nil
}

func normalize(rec student.Record, id int) student.Record {
	rec.Info.ID = id
	if rec.Exams == nil {
		rec.Exams = []student.Exam{}
	}
	if rec.Grades == nil {
		rec.Grades = []student.Grade{}
	}
	return rec
}

func (svc *service) predict(rec student.Record) inference.Prediction {
	fv := Aggregate(rec.Exams, rec.Grades)
	if n := malformed(rec); n > 0 {
		svc.report(rec.Info.ID, recovered(StageAggregation, errors.Errorf("%d malformed records skipped", n)))
	}

	pred, err := svc.predictor.PredictWithError(rec.Info.ID, fv.Row(rec.Info))
	svc.report(rec.Info.ID, recovered(StageInference, err))
	return pred
}

// report logs a recovered fault once.
func (svc *service) report(id int, err error) {
	if err == nil || svc.logger == nil {
		return
	}
	stage := "unknown"
	if rErr, ok := err.(*RecoveredError); ok {
		stage = rErr.Stage
	}
	svc.logger.Warn(
		fmt.Sprintf("student %d: %v", id, err),
		map[string]interface{}{"student_id": id, "stage": stage},
	)
}

func (svc *service) GetRiskAssessment(ctx context.Context, id int) (Assessment, error) {
	rec, source, err := svc.resolve(ctx, id)
	if err != nil {
		return Assessment{}, err
	}

	pred := svc.predict(rec)

	strengths, weaknesses, err := ClassifyStrengths(rec.Exams, rec.Grades, svc.th)
	svc.report(id, err)

	score, err := Blend(pred, rec.Grades, rec.Exams)
	svc.report(id, err)

	level := Level(score, svc.th)
	svc.assessments.WithLabelValues(level).Inc()

	return Assessment{
		RiskScore:    score,
		RiskLevel:    level,
		Strengths:    strengths,
		Weaknesses:   weaknesses,
		MLPrediction: pred,
		Details:      svc.details(rec, source),
	}, nil
}

func (svc *service) GetGraduationPrediction(ctx context.Context, id int) (inference.Prediction, error) {
	rec, _, err := svc.resolve(ctx, id)
	if err != nil {
		return inference.Prediction{}, err
	}
	return svc.predict(rec), nil
}

func (svc *service) details(rec student.Record, source string) Details {
	d := Details{
		StudentID:   rec.Info.ID,
		StudentName: rec.Info.Name,
		ExamCount:   len(rec.Exams),
		GradeCount:  len(rec.Grades),
		ModelName:   svc.predictor.ModelName(),
		Source:      source,
	}
	for _, e := range rec.Exams {
		if ok, known := e.Passed(); known && ok {
			d.ExamsPassed++
		}
	}
	for _, g := range rec.Grades {
		if g.Valid() {
			d.PointsEarned += g.PointsEarned
			d.PointsAvailable += g.PointsAvailable
		}
	}
	if acc, ok := svc.predictor.Accuracy(); ok {
		d.ModelAccuracy = &acc
	}
	return d
}

func malformed(rec student.Record) int {
	var n int
	for _, e := range rec.Exams {
		if !e.Valid() {
			n++
		}
	}
	for _, g := range rec.Grades {
		if !g.Valid() {
			n++
		}
	}
	return n
}
