package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ontrack/core"
	"github.com/trezcool/ontrack/core/risk"
)

// StudentParam is the student ID path parameter.
type StudentParam struct {
	ID int `param:"id" validate:"gt=0"`
}

type studentApi struct {
	svc      risk.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, svc risk.Service, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	sg := g.Group("/students/:id")
	sg.GET("/risk-assessment", api.riskAssessment)
	sg.GET("/prediction", api.prediction)
}

func (api *studentApi) studentID(ctx echo.Context) (int, error) {
	var p StudentParam
	if err := ctx.Bind(&p); err != nil {
		return 0, core.NewValidationError(err, core.FieldError{Field: "id", Error: "id must be a positive number"})
	}
	if err := api.validate.Struct(p); err != nil {
		return 0, err
	}
	return p.ID, nil
}

// Handlers

func (api *studentApi) riskAssessment(ctx echo.Context) error {
	id, err := api.studentID(ctx)
	if err != nil {
		return err
	}
	assessment, err := api.svc.GetRiskAssessment(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrapf(err, "assessing student %d", id)
	}
	return ctx.JSON(http.StatusOK, assessment)
}

func (api *studentApi) prediction(ctx echo.Context) error {
	id, err := api.studentID(ctx)
	if err != nil {
		return err
	}
	pred, err := api.svc.GetGraduationPrediction(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrapf(err, "predicting graduation of student %d", id)
	}
	return ctx.JSON(http.StatusOK, pred)
}
