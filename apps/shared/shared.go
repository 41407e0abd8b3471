// Package shared holds the wiring common to the API and admin binaries.
package shared

import (
	"database/sql"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ontrack/core"
	"github.com/trezcool/ontrack/core/inference"
	"github.com/trezcool/ontrack/core/risk"
	sqlxrepos "github.com/trezcool/ontrack/storage/database/sqlx"
)

func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// NewValidator returns a validator with the app's custom tags and English translations.
func NewValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

// ModelContextOptions locates the model artifacts.
// The bulk predictions come from the DB table when one is configured, else from the CSV export.
func ModelContextOptions(conf *core.Config, db *sql.DB, logger core.Logger) inference.ContextOptions {
	opts := inference.ContextOptions{
		PreprocessorPath: conf.Resolve(conf.ML.PreprocessorPath),
		ClassifierPath:   conf.Resolve(conf.ML.ClassifierPath),
		MetadataPath:     conf.Resolve(conf.ML.MetadataPath),
		Columns:          risk.InputColumns(),
		Logger:           logger,
	}
	switch {
	case conf.ML.PredictionsTable != "" && db != nil:
		opts.Predictions = sqlxrepos.NewPredictionsLoader(sqlx.NewDb(db, conf.Database.Engine), conf.ML.PredictionsTable)
	case conf.ML.PredictionsPath != "":
		path := conf.Resolve(conf.ML.PredictionsPath)
		opts.Predictions = func() (*inference.PredictionTable, error) {
			return inference.LoadPredictionsCSVFile(path)
		}
	}
	return opts
}
