package inference

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prediction sources, as reported by the ontrack_predictions_total metric.
const (
	SourceNoModel = "no_model"
	SourceCache   = "cache"
	SourceLive    = "live"
	SourceFailed  = "failed"
)

// Engine serves predictions out of a ModelContext.
// A prediction is served from the bulk predictions cache when possible, else computed live.
// Engine is safe for concurrent use.
type Engine struct {
	mc *ModelContext

	predictions *prometheus.CounterVec
	modelLoaded prometheus.Gauge
}

// NewEngine creates an engine. registerer may be nil to skip metrics registration.
func NewEngine(mc *ModelContext, registerer prometheus.Registerer) *Engine {
	if mc == nil {
		mc = UnavailableModelContext(nil)
	}
	e := &Engine{
		mc: mc,
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ontrack_predictions_total",
			Help: "Total number of graduation predictions by source",
		}, []string{"source"}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ontrack_model_loaded",
			Help: "1 when the ML model is loaded, 0 in the no model mode",
		}),
	}
	if mc.Loaded() {
		e.modelLoaded.Set(1)
	}

	if registerer != nil {
		registerer.MustRegister(e.predictions)
		registerer.MustRegister(e.modelLoaded)
	}
	return e
}

// Predict returns the on-time graduation prediction of the student.
// It never fails: a missing model or a failing pipeline yields a prediction labelled -1.
func (e *Engine) Predict(studentID int, row Row) Prediction {
	pred, _ := e.predict(studentID, row)
	return pred
}

// PredictWithError is Predict, plus the live inference error when the prediction failed.
func (e *Engine) PredictWithError(studentID int, row Row) (Prediction, error) {
	return e.predict(studentID, row)
}

func (e *Engine) predict(studentID int, row Row) (Prediction, error) {
	if !e.mc.Loaded() {
		e.predictions.WithLabelValues(SourceNoModel).Inc()
		return NoModelPrediction(), nil
	}

	if e.mc.predictions != nil {
		if pred, ok := e.mc.predictions.Lookup(studentID, e.mc.ModelName()); ok {
			e.predictions.WithLabelValues(SourceCache).Inc()
			return pred, nil
		}
	}

	prob, err := e.mc.pipeline.PredictProba(row)
	if err != nil {
		e.predictions.WithLabelValues(SourceFailed).Inc()
		return failedPrediction(err), err
	}
	e.predictions.WithLabelValues(SourceLive).Inc()
	return newPrediction(labelFor(prob), prob), nil
}

func (e *Engine) Context() *ModelContext {
	return e.mc
}

func (e *Engine) ModelName() string {
	return e.mc.ModelName()
}

func (e *Engine) Accuracy() (float64, bool) {
	return e.mc.Accuracy()
}
