package inference

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/ontrack/core"
)

type (
	// Pipeline chains the fitted transform and the classifier.
	Pipeline struct {
		Preprocessor *Preprocessor
		Classifier   *Classifier
	}

	// PredictionsLoader loads the bulk predictions table (CSV file, DB table, ...).
	PredictionsLoader func() (*PredictionTable, error)

	ContextOptions struct {
		PreprocessorPath string
		ClassifierPath   string
		MetadataPath     string
		Predictions      PredictionsLoader // nil when there is no bulk predictions export
		Columns          []string          // input columns produced at runtime
		Logger           core.Logger
	}

	// ModelContext holds the artifacts of the offline training job.
	// It is built once at startup and read-only afterwards.
	ModelContext struct {
		pipeline    *Pipeline
		metadata    *Metadata
		predictions *PredictionTable
		loadErr     error
	}
)

func NewPipeline(p *Preprocessor, c *Classifier) (*Pipeline, error) {
	if w := p.Width(); w != c.NumFeatures {
		return nil, errors.Errorf("preprocessor outputs %d features, classifier expects %d", w, c.NumFeatures)
	}
	return &Pipeline{Preprocessor: p, Classifier: c}, nil
}

// PredictProba transforms the row and returns the probability of on-time graduation.
func (p *Pipeline) PredictProba(row Row) (float64, error) {
	x, err := p.Preprocessor.Transform(row)
	if err != nil {
		return 0, errors.Wrap(err, "preprocessing")
	}
	prob, err := p.Classifier.PredictProba(x)
	if err != nil {
		return 0, errors.Wrap(err, "classifying")
	}
	return prob, nil
}

// NewModelContext assembles a loaded model context. predictions may be nil.
func NewModelContext(pipeline *Pipeline, metadata *Metadata, predictions *PredictionTable) *ModelContext {
	return &ModelContext{pipeline: pipeline, metadata: metadata, predictions: predictions}
}

// UnavailableModelContext is a context in the permanent "no model" mode.
func UnavailableModelContext(cause error) *ModelContext {
	if cause == nil {
		cause = errors.New(TextNoModel)
	}
	return &ModelContext{loadErr: cause}
}

// LoadModelContext loads every artifact. It never fails: any load error yields
// a context in the "no model" mode, which holds for the whole process lifetime.
func LoadModelContext(opts ContextOptions) *ModelContext {
	mc, err := loadModelContext(opts)
	if err != nil {
		if opts.Logger != nil {
			opts.Logger.Error("ML model not available", err)
		}
		return UnavailableModelContext(err)
	}

	if opts.Logger != nil {
		msg := fmt.Sprintf("ML model loaded: %s (schema %s)", mc.ModelName(), mc.SchemaVersion())
		if mc.predictions != nil {
			msg += fmt.Sprintf(", %d cached predictions", mc.predictions.Len())
			if !mc.predictions.HasModel(mc.ModelName()) {
				opts.Logger.Warn(missingModelColumnsMsg(mc.ModelName(), mc.predictions.Models()))
			}
		}
		opts.Logger.Info(msg)
	}
	return mc
}

func loadModelContext(opts ContextOptions) (*ModelContext, error) {
	pre, err := LoadPreprocessor(opts.PreprocessorPath, opts.Columns)
	if err != nil {
		return nil, err
	}
	clf, err := LoadClassifier(opts.ClassifierPath)
	if err != nil {
		return nil, err
	}
	pipeline, err := NewPipeline(pre, clf)
	if err != nil {
		return nil, errors.Wrap(err, "assembling pipeline")
	}
	meta, err := LoadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}

	var table *PredictionTable
	if opts.Predictions != nil {
		if table, err = opts.Predictions(); err != nil {
			return nil, errors.Wrap(err, "loading bulk predictions")
		}
	}
	return NewModelContext(pipeline, meta, table), nil
}

// missingModelColumnsMsg reports a best model without cache columns, with a hint when a close name exists.
func missingModelColumnsMsg(model string, available []string) string {
	msg := fmt.Sprintf("bulk predictions have no %q columns; every prediction will run live", model)
	var best string
	var bestRatio float64
	for _, cand := range available {
		m := difflib.NewMatcher(strings.Split(strings.ToLower(model), ""), strings.Split(strings.ToLower(cand), ""))
		if r := m.Ratio(); r > bestRatio {
			best, bestRatio = cand, r
		}
	}
	if bestRatio >= 0.7 {
		msg += fmt.Sprintf(" (did you mean %q?)", best)
	}
	return msg
}

// Loaded reports whether the model is available.
func (mc *ModelContext) Loaded() bool {
	return mc.loadErr == nil && mc.pipeline != nil
}

// LoadError is the reason of the "no model" mode, if any.
func (mc *ModelContext) LoadError() error {
	return mc.loadErr
}

// ModelName is the best model recorded by the offline evaluation.
func (mc *ModelContext) ModelName() string {
	if mc.metadata == nil {
		return ""
	}
	return mc.metadata.BestModel
}

// Accuracy is the recorded accuracy of the best model.
func (mc *ModelContext) Accuracy() (float64, bool) {
	if mc.metadata == nil {
		return 0, false
	}
	return mc.metadata.Accuracy()
}

// Candidates lists every model evaluated offline.
func (mc *ModelContext) Candidates() []string {
	if mc.metadata == nil {
		return nil
	}
	return mc.metadata.Candidates()
}

func (mc *ModelContext) SchemaVersion() string {
	if mc.pipeline == nil {
		return ""
	}
	return mc.pipeline.Preprocessor.SchemaVersion
}

// CacheSize is the number of students with cached predictions.
func (mc *ModelContext) CacheSize() int {
	if mc.predictions == nil {
		return 0
	}
	return mc.predictions.Len()
}
